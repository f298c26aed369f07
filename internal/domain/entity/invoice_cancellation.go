package entity

// InvoiceCancellation registro de anulación de una factura (RegistroAnulacion).
// IssuerName solo se usa en la cabecera del envío (ObligadoEmision); no forma
// parte del registro ni de la huella.
type InvoiceCancellation struct {
	ID              InvoiceID
	IssuerName      string
	Chaining        ChainLink
	SystemInfo      SystemInfo
	RecordTimestamp string
	HashType        string
	Hash            string
}

func (*InvoiceCancellation) sealed() {}

// Kind implementa Record.
func (*InvoiceCancellation) Kind() RecordKind { return RecordKindCancellation }

// Identity implementa ChainedRecord.
func (c *InvoiceCancellation) Identity() InvoiceID { return c.ID }

// Chain implementa ChainedRecord.
func (c *InvoiceCancellation) Chain() ChainLink { return c.Chaining }

// CurrentHash implementa ChainedRecord.
func (c *InvoiceCancellation) CurrentHash() string { return c.Hash }

// SetHash implementa ChainedRecord.
func (c *InvoiceCancellation) SetHash(hash string) { c.Hash = hash }

// Timestamp implementa ChainedRecord.
func (c *InvoiceCancellation) Timestamp() string { return c.RecordTimestamp }

// AsPrevious devuelve la huella de la anulación para encadenar el siguiente registro.
func (c *InvoiceCancellation) AsPrevious() PreviousRecord {
	return PreviousRecord{
		IssuerNIF:    c.ID.IssuerNIF,
		SeriesNumber: c.ID.SeriesNumber,
		IssueDate:    c.ID.IssueDate,
		Hash:         c.Hash,
	}
}

var _ ChainedRecord = (*InvoiceCancellation)(nil)
