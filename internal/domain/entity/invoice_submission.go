package entity

import "github.com/shopspring/decimal"

// BreakdownLine línea de desglose (DetalleDesglose). El orden de las líneas
// es el de inserción y se conserva en el XML.
type BreakdownLine struct {
	TaxType                string // Impuesto: 01 IVA, 02 IPSI, 03 IGIC, 05 Otros
	RegimeKey              string // ClaveRegimen
	OperationQualification string // CalificacionOperacion S1/S2/N1/N2
	ExemptOperation        string // OperacionExenta E1..E6 (excluyente con la calificación)
	TaxRate                decimal.Decimal
	TaxableBase            decimal.Decimal // BaseImponibleOimporteNoSujeto
	TaxAmount              decimal.Decimal // CuotaRepercutida
}

// InvoiceSubmission registro de alta de una factura (RegistroAlta).
type InvoiceSubmission struct {
	ID                       InvoiceID
	ExternalRef              string // RefExterna (opcional)
	IssuerName               string
	InvoiceType              string
	OperationDate            string // FechaOperacion (opcional)
	OperationDescription     string
	SimplifiedInvoiceArt7273 string // S/N (opcional)
	InvoiceWithoutRecipient  string // S/N (opcional)
	Recipients               []LegalPerson
	Breakdown                []BreakdownLine
	TaxAmount                decimal.NullDecimal // CuotaTotal; Valid=false si no se informó
	TotalAmount              decimal.NullDecimal // ImporteTotal; Valid=false si no se informó
	Chaining                 ChainLink
	SystemInfo               SystemInfo
	RecordTimestamp          string // FechaHoraHusoGenRegistro, ISO 8601 con huso
	HashType                 string // TipoHuella; vacío equivale a 01
	Hash                     string
}

func (*InvoiceSubmission) sealed() {}

// Kind implementa Record.
func (*InvoiceSubmission) Kind() RecordKind { return RecordKindSubmission }

// Identity implementa ChainedRecord.
func (s *InvoiceSubmission) Identity() InvoiceID { return s.ID }

// Chain implementa ChainedRecord.
func (s *InvoiceSubmission) Chain() ChainLink { return s.Chaining }

// CurrentHash implementa ChainedRecord.
func (s *InvoiceSubmission) CurrentHash() string { return s.Hash }

// SetHash implementa ChainedRecord.
func (s *InvoiceSubmission) SetHash(hash string) { s.Hash = hash }

// Timestamp implementa ChainedRecord.
func (s *InvoiceSubmission) Timestamp() string { return s.RecordTimestamp }

// WithoutRecipient indica si el registro declara factura sin destinatario.
func (s *InvoiceSubmission) WithoutRecipient() bool { return s.InvoiceWithoutRecipient == "S" }

// AsPrevious devuelve la huella de este registro para encadenar el siguiente.
func (s *InvoiceSubmission) AsPrevious() PreviousRecord {
	return PreviousRecord{
		IssuerNIF:    s.ID.IssuerNIF,
		SeriesNumber: s.ID.SeriesNumber,
		IssueDate:    s.ID.IssueDate,
		Hash:         s.Hash,
	}
}

var _ ChainedRecord = (*InvoiceSubmission)(nil)
