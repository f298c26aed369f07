package billing

import (
	"context"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// CertificateRef localiza el certificado con el que se firma y se autentica el envío.
// Path admite .p12/.pfx (con Password) o PEM (con KeyPath opcional).
type CertificateRef struct {
	Path     string
	KeyPath  string
	Password string
}

// RecordSerializer produce el XML canónico de los registros.
type RecordSerializer interface {
	BuildRecord(rec entity.ChainedRecord) ([]byte, error)
	BuildQuery(q *entity.InvoiceQuery) ([]byte, error)
}

// RecordSigner firma el XML canónico de un registro con el certificado indicado.
type RecordSigner interface {
	SignRecord(ctx context.Context, xmlBytes []byte, cert CertificateRef) ([]byte, error)
}

// TransportRequest envío a la AEAT: operación SOAP y carga útil identificada por su clave.
type TransportRequest struct {
	Operation  string            // SuministroLR | ConsultaLR
	PayloadKey entity.RecordKind // RegistroAlta | RegistroAnulacion | ConsultaFactuSistemaFacturacion
	Payload    []byte            // XML (firmado en SuministroLR)
	Obligado   entity.LegalPerson
}

// Transport entrega la carga útil al servicio VerifactuSOAP y devuelve el XML de respuesta.
// Un fallo de red, TLS o SOAP Fault se devuelve como error.
type Transport interface {
	Send(ctx context.Context, req TransportRequest) ([]byte, error)
}

// ResponseParser interpreta las respuestas de la AEAT.
type ResponseParser interface {
	ParseRegistration(raw []byte) (*entity.InvoiceResponse, error)
	ParseQuery(raw []byte) (*entity.QueryResponse, error)
}

// SubmissionArchive conserva cada envío como traza de auditoría.
// No se consulta para construir el encadenamiento.
type SubmissionArchive interface {
	Save(ctx context.Context, entry *entity.SubmissionLog) error
}

// Formatos y destinos del código QR de cotejo.
const (
	QRFormatPNG = "png"
	QRFormatSVG = "svg"

	QRDestinationMemory = "memory"
	QRDestinationFile   = "file"

	DefaultQRSize = 300
)

// QROptions opciones de generación del QR. Los valores vacíos usan png, memoria y 300 px.
type QROptions struct {
	Size        int
	Format      string
	Destination string
	Dir         string // directorio de salida si Destination = file
}

// QRImage resultado del renderizado: bytes en memoria o ruta del archivo escrito.
type QRImage struct {
	Format  string
	Content []byte
	Path    string
}

// QRRenderer dibuja el contenido de cotejo como código QR.
type QRRenderer interface {
	Render(ctx context.Context, content string, opts QROptions) (*QRImage, error)
}

// ReceiptData datos del justificante PDF de un registro presentado.
type ReceiptData struct {
	Record          *entity.InvoiceSubmission
	VerificationURL string
	CSV             string
	Environment     string
}

// ReceiptGenerator genera el justificante PDF con el QR de cotejo.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}
