package aeat

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

const (
	soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

	// Límite de lectura de la respuesta (las consultas paginadas pueden ser grandes).
	maxResponseBytes = 8 << 20
	defaultTimeout   = 60 * time.Second
)

// ErrUnexpectedStatus respuesta HTTP distinta de 200 sin SOAP Fault.
var ErrUnexpectedStatus = errors.New("soap: estado HTTP inesperado")

// SOAPFault error de protocolo devuelto por el servicio (certificado, esquema, etc.).
type SOAPFault struct {
	Code   string
	String string
}

func (f *SOAPFault) Error() string {
	return fmt.Sprintf("SOAP Fault [%s]: %s", f.Code, f.String)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// SOAPClient implementa billing.Transport sobre el servicio VerifactuSOAP con
// autenticación TLS mutua. Un envío, un intento: no reintenta.
type SOAPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewSOAPClient construye el cliente con el certificado de cliente para mTLS.
// Un timeout cero usa 60 s.
func NewSOAPClient(endpoint string, cert tls.Certificate, timeout time.Duration) *SOAPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if len(cert.Certificate) > 0 {
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return &SOAPClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		},
	}
}

// NewSOAPClientWithHTTP usa un *http.Client ya configurado (pruebas, proxies).
func NewSOAPClientWithHTTP(endpoint string, httpClient *http.Client) *SOAPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &SOAPClient{endpoint: endpoint, httpClient: httpClient}
}

// Endpoint URL del servicio al que envía el cliente.
func (c *SOAPClient) Endpoint() string { return c.endpoint }

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName      xml.Name   `xml:"soapenv:Envelope"`
	XmlnsSoapenv string     `xml:"xmlns:soapenv,attr"`
	XmlnsSum     string     `xml:"xmlns:sum,attr,omitempty"`
	XmlnsSum1    string     `xml:"xmlns:sum1,attr,omitempty"`
	Header       soapHeader `xml:"soapenv:Header"`
	Body         soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content []byte `xml:",innerxml"`
}

// regFactuSistemaFacturacion mensaje de SuministroLR; cada registro va firmado y se copia tal cual.
type regFactuSistemaFacturacion struct {
	XMLName   xml.Name          `xml:"sum:RegFactuSistemaFacturacion"`
	Cabecera  cabecera          `xml:"sum:Cabecera"`
	Registros []registroFactura `xml:"sum:RegistroFactura"`
}

type cabecera struct {
	Obligado obligadoEmision `xml:"sum1:ObligadoEmision"`
}

type obligadoEmision struct {
	NombreRazon string `xml:"sum1:NombreRazon"`
	NIF         string `xml:"sum1:NIF"`
}

type registroFactura struct {
	Content []byte `xml:",innerxml"`
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	Fault *soapFault `xml:"Fault"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Send ──────────────────────────────────────────────────────────────────────

// Send implementa billing.Transport. Devuelve el envelope de respuesta completo.
func (c *SOAPClient) Send(ctx context.Context, req billing.TransportRequest) ([]byte, error) {
	payload, err := c.buildEnvelope(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", req.Operation)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err == nil && envResp.Body.Fault != nil {
		return nil, &SOAPFault{
			Code:   strings.TrimSpace(envResp.Body.Fault.FaultCode),
			String: strings.TrimSpace(envResp.Body.Fault.FaultString),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return rawBody, nil
}

// buildEnvelope arma el envelope según la operación.
func (c *SOAPClient) buildEnvelope(req billing.TransportRequest) ([]byte, error) {
	if len(bytes.TrimSpace(req.Payload)) == 0 {
		return nil, errors.New("soap: carga útil vacía")
	}
	env := soapEnvelope{XmlnsSoapenv: soapNS}

	switch req.Operation {
	case pkgverifactu.OperationSuministroLR:
		if req.PayloadKey != entity.RecordKindSubmission && req.PayloadKey != entity.RecordKindCancellation {
			return nil, fmt.Errorf("%w: %s no admite %s", verifactu.ErrUnsupportedRecordType, req.Operation, req.PayloadKey)
		}
		msg := regFactuSistemaFacturacion{
			Cabecera: cabecera{Obligado: obligadoEmision{
				NombreRazon: verifactu.NormalizeText(req.Obligado.Name),
				NIF:         verifactu.NormalizeText(req.Obligado.NIF),
			}},
			Registros: []registroFactura{{Content: stripDeclaration(req.Payload)}},
		}
		inner, err := xml.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("soap: serializar RegFactuSistemaFacturacion: %w", err)
		}
		env.XmlnsSum = NsSum
		env.XmlnsSum1 = NsSum1
		env.Body.Content = inner
	case pkgverifactu.OperationConsultaLR:
		if req.PayloadKey != entity.RecordKindQuery {
			return nil, fmt.Errorf("%w: %s no admite %s", verifactu.ErrUnsupportedRecordType, req.Operation, req.PayloadKey)
		}
		env.Body.Content = stripDeclaration(req.Payload)
	default:
		return nil, fmt.Errorf("soap: operación desconocida %q", req.Operation)
	}

	out, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// stripDeclaration quita la declaración <?xml ...?> para poder anidar el documento.
func stripDeclaration(doc []byte) []byte {
	doc = bytes.TrimSpace(doc)
	if bytes.HasPrefix(doc, []byte("<?xml")) {
		if end := bytes.Index(doc, []byte("?>")); end >= 0 {
			doc = bytes.TrimSpace(doc[end+2:])
		}
	}
	return doc
}

var _ billing.Transport = (*SOAPClient)(nil)
