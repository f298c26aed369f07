package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// LegalPersonDTO persona física o jurídica con NIF español.
type LegalPersonDTO struct {
	Name string `json:"name"`
	NIF  string `json:"nif"`
}

// InvoiceIDDTO identificador de factura (IDFactura).
type InvoiceIDDTO struct {
	IssuerNIF    string `json:"issuer_nif"`
	SeriesNumber string `json:"series_number"`
	IssueDate    string `json:"issue_date"` // YYYY-MM-DD
}

// PreviousRecordDTO registro anterior de la cadena.
type PreviousRecordDTO struct {
	InvoiceIDDTO
	Hash string `json:"hash"`
}

// ChainingDTO encadenamiento: first=true o previous informado, nunca ambos.
type ChainingDTO struct {
	First    bool               `json:"first,omitempty"`
	Previous *PreviousRecordDTO `json:"previous,omitempty"`
}

// SystemInfoDTO bloque SistemaInformatico.
type SystemInfoDTO struct {
	ProviderName        string `json:"provider_name"`
	ProviderNIF         string `json:"provider_nif"`
	SystemName          string `json:"system_name"`
	SystemID            string `json:"system_id"`
	Version             string `json:"version"`
	InstallationNumber  string `json:"installation_number"`
	OnlyVerifactu       string `json:"only_verifactu"`
	MultipleOT          string `json:"multiple_ot"`
	MultipleOTIndicator string `json:"multiple_ot_indicator"`
}

// BreakdownLineDTO línea de desglose.
type BreakdownLineDTO struct {
	TaxType                string          `json:"tax_type"`
	RegimeKey              string          `json:"regime_key"`
	OperationQualification string          `json:"operation_qualification,omitempty"`
	ExemptOperation        string          `json:"exempt_operation,omitempty"`
	TaxRate                decimal.Decimal `json:"tax_rate"`
	TaxableBase            decimal.Decimal `json:"taxable_base"`
	TaxAmount              decimal.Decimal `json:"tax_amount"`
}

// InvoiceSubmissionRequest body para POST /api/verifactu/invoices.
// Hash solo se informa para generar justificantes de registros ya presentados.
type InvoiceSubmissionRequest struct {
	ID                       InvoiceIDDTO        `json:"id"`
	ExternalRef              string              `json:"external_ref,omitempty"`
	IssuerName               string              `json:"issuer_name"`
	InvoiceType              string              `json:"invoice_type"`
	OperationDate            string              `json:"operation_date,omitempty"`
	OperationDescription     string              `json:"operation_description"`
	SimplifiedInvoiceArt7273 string              `json:"simplified_invoice_art_72_73,omitempty"`
	InvoiceWithoutRecipient  string              `json:"invoice_without_recipient,omitempty"`
	Recipients               []LegalPersonDTO    `json:"recipients,omitempty"`
	Breakdown                []BreakdownLineDTO  `json:"breakdown"`
	TaxAmount                decimal.NullDecimal `json:"tax_amount"`
	TotalAmount              decimal.NullDecimal `json:"total_amount"`
	Chaining                 ChainingDTO         `json:"chaining"`
	SystemInfo               SystemInfoDTO       `json:"system_info"`
	RecordTimestamp          string              `json:"record_timestamp"`
	HashType                 string              `json:"hash_type,omitempty"`
	Hash                     string              `json:"hash,omitempty"`
}

// InvoiceCancellationRequest body para POST /api/verifactu/cancellations.
type InvoiceCancellationRequest struct {
	ID              InvoiceIDDTO  `json:"id"`
	IssuerName      string        `json:"issuer_name"`
	Chaining        ChainingDTO   `json:"chaining"`
	SystemInfo      SystemInfoDTO `json:"system_info"`
	RecordTimestamp string        `json:"record_timestamp"`
	HashType        string        `json:"hash_type,omitempty"`
	Hash            string        `json:"hash,omitempty"`
}

// InvoiceQueryRequest body para POST /api/verifactu/queries.
type InvoiceQueryRequest struct {
	Issuer        LegalPersonDTO  `json:"issuer"`
	Year          string          `json:"year"`
	Period        string          `json:"period"`
	SeriesNumber  string          `json:"series_number,omitempty"`
	Counterparty  *LegalPersonDTO `json:"counterparty,omitempty"`
	PaginationKey *InvoiceIDDTO   `json:"pagination_key,omitempty"`
}

// QRRequest body para POST /api/verifactu/qr.
type QRRequest struct {
	ID     InvoiceIDDTO `json:"id"`
	Hash   string       `json:"hash"`
	Size   int          `json:"size,omitempty"`
	Format string       `json:"format,omitempty"` // png | svg
}

// ReceiptRequest body para POST /api/verifactu/receipts.
type ReceiptRequest struct {
	Invoice InvoiceSubmissionRequest `json:"invoice"`
	CSV     string                   `json:"csv,omitempty"`
}

// ResponseLineDTO resultado de un registro dentro del envío.
type ResponseLineDTO struct {
	ID               InvoiceIDDTO `json:"id"`
	Operation        string       `json:"operation,omitempty"`
	RecordStatus     string       `json:"record_status"`
	ErrorCode        string       `json:"error_code,omitempty"`
	ErrorDescription string       `json:"error_description,omitempty"`
	DuplicateStatus  string       `json:"duplicate_status,omitempty"`
}

// SubmissionResponse resultado de un alta o anulación.
type SubmissionResponse struct {
	CorrelationID   string            `json:"correlation_id"`
	Hash            string            `json:"hash"`
	VerificationURL string            `json:"verification_url"`
	CSV             string            `json:"csv,omitempty"`
	Status          string            `json:"status"` // Correcto | ParcialmenteCorrecto | Incorrecto
	WaitSeconds     int               `json:"wait_seconds,omitempty"`
	Lines           []ResponseLineDTO `json:"lines"`
}

// QueryRecordDTO registro devuelto por una consulta.
type QueryRecordDTO struct {
	ID               InvoiceIDDTO `json:"id"`
	InvoiceType      string       `json:"invoice_type,omitempty"`
	TotalAmount      string       `json:"total_amount,omitempty"`
	Hash             string       `json:"hash,omitempty"`
	RecordStatus     string       `json:"record_status,omitempty"`
	ErrorCode        string       `json:"error_code,omitempty"`
	ErrorDescription string       `json:"error_description,omitempty"`
}

// QueryResponseDTO resultado de una consulta.
type QueryResponseDTO struct {
	Result        string           `json:"result"`
	MorePages     bool             `json:"more_pages"`
	Records       []QueryRecordDTO `json:"records"`
	PaginationKey *InvoiceIDDTO    `json:"pagination_key,omitempty"`
}

// HashResponse resultado de POST /api/verifactu/hash (sin envío).
type HashResponse struct {
	HashInput       string `json:"hash_input"`
	Hash            string `json:"hash"`
	VerificationURL string `json:"verification_url"`
	XML             string `json:"xml,omitempty"`
}

// QRResponse QR en base64 cuando se pide como JSON.
type QRResponse struct {
	Format          string `json:"format"`
	VerificationURL string `json:"verification_url"`
	Content         []byte `json:"content"`
}

// SubmissionLogResponse entrada del archivo de envíos.
type SubmissionLogResponse struct {
	ID           string           `json:"id"`
	Operation    string           `json:"operation"`
	RecordKind   string           `json:"record_kind"`
	IssuerNIF    string           `json:"issuer_nif"`
	SeriesNumber string           `json:"series_number,omitempty"`
	IssueDate    string           `json:"issue_date,omitempty"`
	Hash         string           `json:"hash,omitempty"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
	Status       string           `json:"status"`
	CSV          string           `json:"csv,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// SubmissionLogListResponse lista de envíos de un NIF.
type SubmissionLogListResponse struct {
	Items []SubmissionLogResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// ToEntity convierte el identificador.
func (d InvoiceIDDTO) ToEntity() entity.InvoiceID {
	return entity.InvoiceID{IssuerNIF: d.IssuerNIF, SeriesNumber: d.SeriesNumber, IssueDate: d.IssueDate}
}

// ToEntity convierte la persona.
func (d LegalPersonDTO) ToEntity() entity.LegalPerson {
	return entity.LegalPerson{Name: d.Name, NIF: d.NIF}
}

// ToEntity convierte el encadenamiento. Un valor ambiguo (ninguna o ambas
// variantes) queda vacío y lo rechaza la validación.
func (d ChainingDTO) ToEntity() entity.ChainLink {
	switch {
	case d.First && d.Previous == nil:
		return entity.FirstRecord()
	case !d.First && d.Previous != nil:
		return entity.LinkedTo(entity.PreviousRecord{
			IssuerNIF:    d.Previous.IssuerNIF,
			SeriesNumber: d.Previous.SeriesNumber,
			IssueDate:    d.Previous.IssueDate,
			Hash:         d.Previous.Hash,
		})
	default:
		return entity.ChainLink{}
	}
}

// ToEntity convierte el bloque SistemaInformatico.
func (d SystemInfoDTO) ToEntity() entity.SystemInfo {
	return entity.SystemInfo{
		ProviderName:        d.ProviderName,
		ProviderNIF:         d.ProviderNIF,
		SystemName:          d.SystemName,
		SystemID:            d.SystemID,
		Version:             d.Version,
		InstallationNumber:  d.InstallationNumber,
		OnlyVerifactu:       d.OnlyVerifactu,
		MultipleOT:          d.MultipleOT,
		MultipleOTIndicator: d.MultipleOTIndicator,
	}
}

// ToEntity convierte el alta conservando el orden de destinatarios y desglose.
func (r InvoiceSubmissionRequest) ToEntity() *entity.InvoiceSubmission {
	rec := &entity.InvoiceSubmission{
		ID:                       r.ID.ToEntity(),
		ExternalRef:              r.ExternalRef,
		IssuerName:               r.IssuerName,
		InvoiceType:              r.InvoiceType,
		OperationDate:            r.OperationDate,
		OperationDescription:     r.OperationDescription,
		SimplifiedInvoiceArt7273: r.SimplifiedInvoiceArt7273,
		InvoiceWithoutRecipient:  r.InvoiceWithoutRecipient,
		TaxAmount:                r.TaxAmount,
		TotalAmount:              r.TotalAmount,
		Chaining:                 r.Chaining.ToEntity(),
		SystemInfo:               r.SystemInfo.ToEntity(),
		RecordTimestamp:          r.RecordTimestamp,
		HashType:                 r.HashType,
		Hash:                     r.Hash,
	}
	for _, p := range r.Recipients {
		rec.Recipients = append(rec.Recipients, p.ToEntity())
	}
	for _, l := range r.Breakdown {
		rec.Breakdown = append(rec.Breakdown, entity.BreakdownLine{
			TaxType:                l.TaxType,
			RegimeKey:              l.RegimeKey,
			OperationQualification: l.OperationQualification,
			ExemptOperation:        l.ExemptOperation,
			TaxRate:                l.TaxRate,
			TaxableBase:            l.TaxableBase,
			TaxAmount:              l.TaxAmount,
		})
	}
	return rec
}

// ToEntity convierte la anulación.
func (r InvoiceCancellationRequest) ToEntity() *entity.InvoiceCancellation {
	return &entity.InvoiceCancellation{
		ID:              r.ID.ToEntity(),
		IssuerName:      r.IssuerName,
		Chaining:        r.Chaining.ToEntity(),
		SystemInfo:      r.SystemInfo.ToEntity(),
		RecordTimestamp: r.RecordTimestamp,
		HashType:        r.HashType,
		Hash:            r.Hash,
	}
}

// ToEntity convierte la consulta.
func (r InvoiceQueryRequest) ToEntity() *entity.InvoiceQuery {
	q := &entity.InvoiceQuery{
		Issuer:       r.Issuer.ToEntity(),
		Year:         r.Year,
		Period:       r.Period,
		SeriesNumber: r.SeriesNumber,
	}
	if r.Counterparty != nil {
		q.Counterparty = r.Counterparty.ToEntity()
	}
	if r.PaginationKey != nil {
		id := r.PaginationKey.ToEntity()
		q.PaginationKey = &id
	}
	return q
}

// ToEntity registro mínimo (identificador y huella) para construir la URL de cotejo.
func (r QRRequest) ToEntity() *entity.InvoiceSubmission {
	return &entity.InvoiceSubmission{ID: r.ID.ToEntity(), Hash: r.Hash}
}

func invoiceIDFromEntity(id entity.InvoiceID) InvoiceIDDTO {
	return InvoiceIDDTO{IssuerNIF: id.IssuerNIF, SeriesNumber: id.SeriesNumber, IssueDate: id.IssueDate}
}

// NewSubmissionResponse arma la respuesta de un alta o anulación.
func NewSubmissionResponse(correlationID, hash, verificationURL string, resp *entity.InvoiceResponse) SubmissionResponse {
	out := SubmissionResponse{
		CorrelationID:   correlationID,
		Hash:            hash,
		VerificationURL: verificationURL,
		Lines:           []ResponseLineDTO{},
	}
	if resp == nil {
		return out
	}
	out.CSV = resp.CSV
	out.Status = resp.SubmissionStatus
	out.WaitSeconds = resp.WaitSeconds
	for _, l := range resp.Lines {
		out.Lines = append(out.Lines, ResponseLineDTO{
			ID:               invoiceIDFromEntity(l.ID),
			Operation:        l.Operation,
			RecordStatus:     l.RecordStatus,
			ErrorCode:        l.ErrorCode,
			ErrorDescription: l.ErrorDescription,
			DuplicateStatus:  l.DuplicateStatus,
		})
	}
	return out
}

// NewQueryResponse arma la respuesta de una consulta.
func NewQueryResponse(resp *entity.QueryResponse) QueryResponseDTO {
	out := QueryResponseDTO{Result: resp.Result, MorePages: resp.MorePages, Records: []QueryRecordDTO{}}
	for _, r := range resp.Records {
		out.Records = append(out.Records, QueryRecordDTO{
			ID:               invoiceIDFromEntity(r.ID),
			InvoiceType:      r.InvoiceType,
			TotalAmount:      r.TotalAmount,
			Hash:             r.Hash,
			RecordStatus:     r.RecordStatus,
			ErrorCode:        r.ErrorCode,
			ErrorDescription: r.ErrorDescription,
		})
	}
	if resp.PaginationKey != nil {
		key := invoiceIDFromEntity(*resp.PaginationKey)
		out.PaginationKey = &key
	}
	return out
}

// NewSubmissionLogResponse convierte una entrada del archivo.
func NewSubmissionLogResponse(l *entity.SubmissionLog) SubmissionLogResponse {
	return SubmissionLogResponse{
		ID:           l.ID,
		Operation:    l.Operation,
		RecordKind:   string(l.RecordKind),
		IssuerNIF:    l.IssuerNIF,
		SeriesNumber: l.SeriesNumber,
		IssueDate:    l.IssueDate,
		Hash:         l.Hash,
		TotalAmount:  l.TotalAmount,
		Status:       l.Status,
		CSV:          l.CSV,
		ErrorMessage: l.ErrorMessage,
		CreatedAt:    l.CreatedAt,
	}
}
