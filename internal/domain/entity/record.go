package entity

// RecordKind identifica la variante de registro VERI*FACTU.
type RecordKind string

// Variantes cerradas de registro; el valor es el nombre del elemento XML.
const (
	RecordKindSubmission   RecordKind = "RegistroAlta"
	RecordKindCancellation RecordKind = "RegistroAnulacion"
	RecordKindQuery        RecordKind = "ConsultaFactuSistemaFacturacion"
)

// Record es el contrato común de las tres variantes. El método no exportado
// cierra el conjunto: solo los tipos de este paquete lo implementan.
type Record interface {
	Kind() RecordKind
	sealed()
}

// ChainedRecord es un registro que participa en el encadenamiento de huellas
// (alta o anulación).
type ChainedRecord interface {
	Record
	Identity() InvoiceID
	Chain() ChainLink
	CurrentHash() string
	SetHash(hash string)
	Timestamp() string
}

// InvoiceID identifica una factura dentro de la secuencia de un emisor (IDFactura).
type InvoiceID struct {
	IssuerNIF    string
	SeriesNumber string
	IssueDate    string // YYYY-MM-DD
}

// LegalPerson persona física o jurídica con NIF español (PersonaFisicaJuridicaES).
type LegalPerson struct {
	Name string
	NIF  string
}

// IsEmpty indica si no hay nombre ni NIF.
func (p LegalPerson) IsEmpty() bool { return p.Name == "" && p.NIF == "" }

// SystemInfo bloque SistemaInformatico: identifica el software de facturación y su productor.
type SystemInfo struct {
	ProviderName        string // NombreRazon del productor
	ProviderNIF         string
	SystemName          string // NombreSistemaInformatico
	SystemID            string // IdSistemaInformatico (2 caracteres)
	Version             string
	InstallationNumber  string
	OnlyVerifactu       string // TipoUsoPosibleSoloVerifactu S/N
	MultipleOT          string // TipoUsoPosibleMultiOT S/N
	MultipleOTIndicator string // IndicadorMultiplesOT S/N
}

// IsEmpty indica si el bloque no se ha informado.
func (s SystemInfo) IsEmpty() bool { return s == SystemInfo{} }
