package aeat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// ResponseParserService interpreta RespuestaRegFactuSistemaFacturacion y
// RespuestaConsultaFactuSistemaFacturacion, con o sin envelope SOAP y con cualquier prefijo.
type ResponseParserService struct{}

// NewResponseParserService crea el servicio.
func NewResponseParserService() *ResponseParserService {
	return &ResponseParserService{}
}

// ParseRegistration lee la respuesta de SuministroLR.
func (p *ResponseParserService) ParseRegistration(raw []byte) (*entity.InvoiceResponse, error) {
	root, err := readResponse(raw, "RespuestaRegFactuSistemaFacturacion")
	if err != nil {
		return nil, err
	}
	status := childText(root, "EstadoEnvio")
	if status == "" {
		return nil, fmt.Errorf("%w: falta EstadoEnvio", verifactu.ErrParsingFailed)
	}
	out := &entity.InvoiceResponse{
		CSV:              childText(root, "CSV"),
		SubmissionStatus: status,
		RawXML:           raw,
	}
	if wait := childText(root, "TiempoEsperaEnvio"); wait != "" {
		n, err := strconv.Atoi(wait)
		if err != nil {
			return nil, fmt.Errorf("%w: TiempoEsperaEnvio %q", verifactu.ErrParsingFailed, wait)
		}
		out.WaitSeconds = n
	}

	for _, line := range root.SelectElements("RespuestaLinea") {
		out.Lines = append(out.Lines, entity.ResponseLine{
			ID:               readInvoiceID(line.SelectElement("IDFactura")),
			Operation:        pathText(line, "./Operacion/TipoOperacion"),
			RecordStatus:     childText(line, "EstadoRegistro"),
			ErrorCode:        childText(line, "CodigoErrorRegistro"),
			ErrorDescription: childText(line, "DescripcionErrorRegistro"),
			DuplicateStatus:  pathText(line, "./RegistroDuplicado/EstadoRegistroDuplicado"),
		})
	}
	return out, nil
}

// ParseQuery lee la respuesta de ConsultaLR.
func (p *ResponseParserService) ParseQuery(raw []byte) (*entity.QueryResponse, error) {
	root, err := readResponse(raw, "RespuestaConsultaFactuSistemaFacturacion")
	if err != nil {
		return nil, err
	}
	result := childText(root, "ResultadoConsulta")
	if result == "" {
		return nil, fmt.Errorf("%w: falta ResultadoConsulta", verifactu.ErrParsingFailed)
	}
	out := &entity.QueryResponse{
		Result:    result,
		MorePages: childText(root, "IndicadorPaginacion") == pkgverifactu.Yes,
		RawXML:    raw,
	}

	for _, reg := range root.SelectElements("RegistroRespuestaConsultaFactuSistemaFacturacion") {
		rec := entity.QueryRecordResult{
			ID:               readInvoiceID(reg.SelectElement("IDFactura")),
			InvoiceType:      pathText(reg, "./DatosRegistroFacturacion/TipoFactura"),
			TotalAmount:      pathText(reg, "./DatosRegistroFacturacion/ImporteTotal"),
			Hash:             pathText(reg, "./DatosRegistroFacturacion/Huella"),
			RecordStatus:     pathText(reg, "./EstadoRegistro/EstadoRegistro"),
			ErrorCode:        pathText(reg, "./EstadoRegistro/CodigoErrorRegistro"),
			ErrorDescription: pathText(reg, "./EstadoRegistro/DescripcionErrorRegistro"),
		}
		out.Records = append(out.Records, rec)
	}
	if key := root.SelectElement("ClavePaginacion"); key != nil {
		id := readInvoiceID(key)
		out.PaginationKey = &id
	}
	return out, nil
}

func readResponse(raw []byte, element string) (*etree.Element, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("%w: respuesta vacía", verifactu.ErrParsingFailed)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", verifactu.ErrParsingFailed, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: documento sin raíz", verifactu.ErrParsingFailed)
	}
	el := doc.FindElement("//" + element)
	if el == nil {
		return nil, fmt.Errorf("%w: no se encontró %s", verifactu.ErrParsingFailed, element)
	}
	return el, nil
}

// readInvoiceID admite tanto los nombres de alta como los de anulación (…Anulada).
func readInvoiceID(el *etree.Element) entity.InvoiceID {
	if el == nil {
		return entity.InvoiceID{}
	}
	id := entity.InvoiceID{
		IssuerNIF:    childText(el, "IDEmisorFactura"),
		SeriesNumber: childText(el, "NumSerieFactura"),
		IssueDate:    childText(el, "FechaExpedicionFactura"),
	}
	if id.IssuerNIF == "" {
		id.IssuerNIF = childText(el, "IDEmisorFacturaAnulada")
	}
	if id.SeriesNumber == "" {
		id.SeriesNumber = childText(el, "NumSerieFacturaAnulada")
	}
	if id.IssueDate == "" {
		id.IssueDate = childText(el, "FechaExpedicionFacturaAnulada")
	}
	return id
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func pathText(el *etree.Element, path string) string {
	if c := el.FindElement(path); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

var _ billing.ResponseParser = (*ResponseParserService)(nil)
