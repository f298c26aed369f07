package entity

// InvoiceQuery consulta de registros presentados (ConsultaFactuSistemaFacturacion).
// No tiene huella ni encadenamiento.
type InvoiceQuery struct {
	Issuer        LegalPerson // ObligadoEmision
	Year          string      // Ejercicio (YYYY)
	Period        string      // Periodo (01..12)
	SeriesNumber  string      // NumSerieFactura (opcional)
	Counterparty  LegalPerson // Contraparte (opcional)
	PaginationKey *InvoiceID  // ClavePaginacion (opcional)
}

func (*InvoiceQuery) sealed() {}

// Kind implementa Record.
func (*InvoiceQuery) Kind() RecordKind { return RecordKindQuery }

var _ Record = (*InvoiceQuery)(nil)
