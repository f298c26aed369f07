package verifactu_test

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// buildSystemInfo bloque SistemaInformatico completo.
func buildSystemInfo() entity.SystemInfo {
	return entity.SystemInfo{
		ProviderName:        "Software Facturación SL",
		ProviderNIF:         "B87654321",
		SystemName:          "FacturaPro",
		SystemID:            "FP",
		Version:             "1.0.0",
		InstallationNumber:  "0001",
		OnlyVerifactu:       "S",
		MultipleOT:          "N",
		MultipleOTIndicator: "N",
	}
}

// buildFirstSubmission primer registro de la cadena (vector FA2025/001).
func buildFirstSubmission() *entity.InvoiceSubmission {
	return &entity.InvoiceSubmission{
		ID: entity.InvoiceID{
			IssuerNIF:    "B12345678",
			SeriesNumber: "FA2025/001",
			IssueDate:    "2025-01-01",
		},
		IssuerName:           "Empresa Ejemplo SL",
		InvoiceType:          "F1",
		OperationDescription: "Venta de mercaderías",
		Recipients:           []entity.LegalPerson{{Name: "Cliente SA", NIF: "A11111111"}},
		Breakdown: []entity.BreakdownLine{{
			TaxType:                "01",
			RegimeKey:              "01",
			OperationQualification: "S1",
			TaxRate:                decimal.NewFromInt(21),
			TaxableBase:            decimal.NewFromInt(100),
			TaxAmount:              decimal.NewFromInt(21),
		}},
		TaxAmount:       amount("21.00"),
		TotalAmount:     amount("121.00"),
		Chaining:        entity.FirstRecord(),
		SystemInfo:      buildSystemInfo(),
		RecordTimestamp: "2025-01-01T12:00:00+01:00",
	}
}

// buildSecondSubmission segundo registro encadenado a "prevhash123".
func buildSecondSubmission() *entity.InvoiceSubmission {
	s := buildFirstSubmission()
	s.ID.SeriesNumber = "FA2025/002"
	s.ID.IssueDate = "2025-01-02"
	s.TaxAmount = amount("10.50")
	s.TotalAmount = amount("110.50")
	s.Breakdown[0].TaxableBase = decimal.NewFromInt(100)
	s.Breakdown[0].TaxRate = decimal.RequireFromString("10.5")
	s.Breakdown[0].TaxAmount = decimal.RequireFromString("10.50")
	s.RecordTimestamp = "2025-01-02T13:00:00+01:00"
	s.Chaining = entity.LinkedTo(entity.PreviousRecord{
		IssuerNIF:    "B12345678",
		SeriesNumber: "FA2025/001",
		IssueDate:    "2025-01-01",
		Hash:         "prevhash123",
	})
	return s
}

// buildCancellation anulación de FA2025/001 encadenada a "prevhash123".
func buildCancellation() *entity.InvoiceCancellation {
	return &entity.InvoiceCancellation{
		ID: entity.InvoiceID{
			IssuerNIF:    "B12345678",
			SeriesNumber: "FA2025/001",
			IssueDate:    "2025-01-01",
		},
		IssuerName: "Empresa Ejemplo SL",
		Chaining: entity.LinkedTo(entity.PreviousRecord{
			IssuerNIF:    "B12345678",
			SeriesNumber: "FA2025/002",
			IssueDate:    "2025-01-02",
			Hash:         "prevhash123",
		}),
		SystemInfo:      buildSystemInfo(),
		RecordTimestamp: "2025-01-03T09:30:00+01:00",
	}
}

func buildQuery() *entity.InvoiceQuery {
	return &entity.InvoiceQuery{
		Issuer: entity.LegalPerson{Name: "Empresa Ejemplo SL", NIF: "B12345678"},
		Year:   "2025",
		Period: "01",
	}
}

// amount importe informado.
func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
