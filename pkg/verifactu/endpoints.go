package verifactu

import (
	"errors"
	"fmt"
	"strings"
)

// Entornos y tipos de certificado admitidos.
const (
	EnvironmentProduction = "production"
	EnvironmentSandbox    = "sandbox"

	CertTypeCertificate = "certificate"
	CertTypeSeal        = "seal"
)

// Endpoints del servicio VerifactuSOAP.
const (
	URLProduction     = "https://www1.agenciatributaria.gob.es/wlpl/TIKE-CONT/ws/SistemaFacturacion/VerifactuSOAP"
	URLProductionSeal = "https://www10.agenciatributaria.gob.es/wlpl/TIKE-CONT/ws/SistemaFacturacion/VerifactuSOAP"
	URLSandbox        = "https://prewww1.aeat.es/wlpl/TIKE-CONT/ws/SistemaFacturacion/VerifactuSOAP"
	URLSandboxSeal    = "https://prewww10.aeat.es/wlpl/TIKE-CONT/ws/SistemaFacturacion/VerifactuSOAP"

	QRURLProduction = "https://www2.agenciatributaria.gob.es/wlpl/TIKE-CONT/ValidarQR"
	QRURLSandbox    = "https://prewww2.aeat.es/wlpl/TIKE-CONT/ValidarQR"
)

// ErrInvalidEnvironment se devuelve ante un entorno o tipo de certificado desconocido.
var ErrInvalidEnvironment = errors.New("verifactu: entorno no válido")

// Endpoints par URL SOAP + URL base de cotejo QR para un entorno.
type Endpoints struct {
	Environment string
	CertType    string
	SOAPURL     string
	QRBaseURL   string
}

// ResolveEndpoints traduce {entorno, tipo de certificado} a las URLs fijas de la AEAT.
// Los valores se comparan sin distinguir mayúsculas y sin espacios alrededor.
func ResolveEndpoints(environment, certType string) (Endpoints, error) {
	env := strings.ToLower(strings.TrimSpace(environment))
	kind := strings.ToLower(strings.TrimSpace(certType))
	if kind == "" {
		kind = CertTypeCertificate
	}
	if kind != CertTypeCertificate && kind != CertTypeSeal {
		return Endpoints{}, fmt.Errorf("%w: tipo de certificado %q (usar %q o %q)",
			ErrInvalidEnvironment, certType, CertTypeCertificate, CertTypeSeal)
	}

	ep := Endpoints{Environment: env, CertType: kind}
	switch env {
	case EnvironmentProduction:
		ep.SOAPURL = URLProduction
		if kind == CertTypeSeal {
			ep.SOAPURL = URLProductionSeal
		}
		ep.QRBaseURL = QRURLProduction
	case EnvironmentSandbox:
		ep.SOAPURL = URLSandbox
		if kind == CertTypeSeal {
			ep.SOAPURL = URLSandboxSeal
		}
		ep.QRBaseURL = QRURLSandbox
	default:
		return Endpoints{}, fmt.Errorf("%w: %q (usar %q o %q)",
			ErrInvalidEnvironment, environment, EnvironmentProduction, EnvironmentSandbox)
	}
	return ep, nil
}
