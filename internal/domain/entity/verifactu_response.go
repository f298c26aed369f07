package entity

// ResponseLine resultado de un registro dentro de un envío (RespuestaLinea).
type ResponseLine struct {
	ID               InvoiceID
	Operation        string // Alta | Anulacion
	RecordStatus     string // Correcto | AceptadoConErrores | Incorrecto
	ErrorCode        string
	ErrorDescription string
	DuplicateStatus  string // EstadoRegistroDuplicado, si la AEAT lo informa
}

// InvoiceResponse respuesta de un envío SuministroLR (RespuestaRegFactuSistemaFacturacion).
// Un rechazo de negocio es una respuesta válida, no un error.
type InvoiceResponse struct {
	CSV              string
	SubmissionStatus string // EstadoEnvio
	WaitSeconds      int    // TiempoEsperaEnvio
	Lines            []ResponseLine
	RawXML           []byte `json:"-"`
}

// Accepted indica que todos los registros fueron aceptados.
func (r *InvoiceResponse) Accepted() bool { return r.SubmissionStatus == "Correcto" }

// Rejected indica que ningún registro fue aceptado.
func (r *InvoiceResponse) Rejected() bool { return r.SubmissionStatus == "Incorrecto" }

// QueryRecordResult registro devuelto por una consulta.
type QueryRecordResult struct {
	ID               InvoiceID
	InvoiceType      string
	TotalAmount      string
	Hash             string
	RecordStatus     string // EstadoRegistro
	ErrorCode        string
	ErrorDescription string
}

// QueryResponse respuesta de ConsultaLR (RespuestaConsultaFactuSistemaFacturacion).
type QueryResponse struct {
	Result        string // ConDatos | SinDatos
	MorePages     bool   // IndicadorPaginacion = S
	Records       []QueryRecordResult
	PaginationKey *InvoiceID
	RawXML        []byte `json:"-"`
}
