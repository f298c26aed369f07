// Package aeat implementa los adaptadores del servicio VERI*FACTU de la AEAT:
// XML de registros, firma XAdES, cliente SOAP y lectura de respuestas.
package aeat

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// Namespaces de los esquemas VERI*FACTU (tike/cont/ws).
const (
	nsBase = "https://www2.agenciatributaria.gob.es/static_files/common/internet/dep/aplicaciones/es/aeat/tike/cont/ws/"
	// Tipos comunes de registro (RegistroAlta, RegistroAnulacion)
	NsSum1 = nsBase + "SuministroInformacion.xsd"
	// Mensaje RegFactuSistemaFacturacion
	NsSum = nsBase + "SuministroLR.xsd"
	// Mensaje ConsultaFactuSistemaFacturacion
	NsCon = nsBase + "ConsultaLR.xsd"
	// Respuestas
	NsResSum = nsBase + "RespuestaSuministro.xsd"
	NsResCon = nsBase + "RespuestaConsultaLR.xsd"
)

// XMLBuilderService construye el XML canónico de los registros (sin firma).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build serializa cualquier variante de registro.
func (s *XMLBuilderService) Build(rec entity.Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	switch r := rec.(type) {
	case *entity.InvoiceSubmission:
		return s.BuildRecord(r)
	case *entity.InvoiceCancellation:
		return s.BuildRecord(r)
	case *entity.InvoiceQuery:
		return s.BuildQuery(r)
	}
	return nil, fmt.Errorf("%w: %s", verifactu.ErrUnsupportedRecordType, rec.Kind())
}

// BuildRecord genera RegistroAlta o RegistroAnulacion con la huella ya calculada.
func (s *XMLBuilderService) BuildRecord(rec entity.ChainedRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	switch r := rec.(type) {
	case *entity.InvoiceSubmission:
		if r == nil {
			return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
		}
		s.writeSubmission(enc, r)
	case *entity.InvoiceCancellation:
		if r == nil {
			return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
		}
		s.writeCancellation(enc, r)
	default:
		if rec == nil {
			return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
		}
		return nil, fmt.Errorf("%w: %s", verifactu.ErrUnsupportedRecordType, rec.Kind())
	}

	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("aeat: serializar %s: %w", rec.Kind(), err)
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) writeSubmission(enc *xml.Encoder, r *entity.InvoiceSubmission) {
	root := startSum1(string(entity.RecordKindSubmission))
	root.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns:sum1"}, Value: NsSum1}}
	_ = enc.EncodeToken(root)

	writeSum1(enc, "IDVersion", pkgverifactu.SchemaVersion)
	open(enc, startSum1("IDFactura"))
	writeSum1(enc, "IDEmisorFactura", verifactu.NormalizeText(r.ID.IssuerNIF))
	writeSum1(enc, "NumSerieFactura", verifactu.NormalizeText(r.ID.SeriesNumber))
	writeSum1(enc, "FechaExpedicionFactura", verifactu.NormalizeText(r.ID.IssueDate))
	closeSum1(enc, "IDFactura")

	writeOptional(enc, "RefExterna", r.ExternalRef)
	writeSum1(enc, "NombreRazonEmisor", verifactu.NormalizeText(r.IssuerName))
	writeSum1(enc, "TipoFactura", verifactu.NormalizeText(r.InvoiceType))
	writeOptional(enc, "FechaOperacion", r.OperationDate)
	writeSum1(enc, "DescripcionOperacion", verifactu.NormalizeText(r.OperationDescription))
	writeOptional(enc, "FacturaSimplificadaArt7273", r.SimplifiedInvoiceArt7273)
	writeOptional(enc, "FacturaSinIdentifDestinatarioArt61d", r.InvoiceWithoutRecipient)

	if len(r.Recipients) > 0 {
		open(enc, startSum1("Destinatarios"))
		for _, p := range r.Recipients {
			open(enc, startSum1("IDDestinatario"))
			writeSum1(enc, "NombreRazon", verifactu.NormalizeText(p.Name))
			writeSum1(enc, "NIF", verifactu.NormalizeText(p.NIF))
			closeSum1(enc, "IDDestinatario")
		}
		closeSum1(enc, "Destinatarios")
	}

	open(enc, startSum1("Desglose"))
	for _, line := range r.Breakdown {
		open(enc, startSum1("DetalleDesglose"))
		writeOptional(enc, "Impuesto", line.TaxType)
		writeOptional(enc, "ClaveRegimen", line.RegimeKey)
		if line.ExemptOperation != "" {
			writeSum1(enc, "OperacionExenta", verifactu.NormalizeText(line.ExemptOperation))
		} else {
			writeSum1(enc, "CalificacionOperacion", verifactu.NormalizeText(line.OperationQualification))
			writeSum1(enc, "TipoImpositivo", verifactu.NormalizeDecimal(line.TaxRate))
		}
		writeSum1(enc, "BaseImponibleOimporteNoSujeto", verifactu.NormalizeDecimal(line.TaxableBase))
		if line.ExemptOperation == "" {
			writeSum1(enc, "CuotaRepercutida", verifactu.NormalizeDecimal(line.TaxAmount))
		}
		closeSum1(enc, "DetalleDesglose")
	}
	closeSum1(enc, "Desglose")

	writeSum1(enc, "CuotaTotal", verifactu.NormalizeAmount(r.TaxAmount))
	writeSum1(enc, "ImporteTotal", verifactu.NormalizeAmount(r.TotalAmount))
	writeChaining(enc, r.Chaining)
	writeSystemInfo(enc, r.SystemInfo)
	writeSum1(enc, "FechaHoraHusoGenRegistro", verifactu.NormalizeText(r.RecordTimestamp))
	writeSum1(enc, "TipoHuella", hashType(r.HashType))
	writeSum1(enc, "Huella", r.Hash)

	closeSum1(enc, string(entity.RecordKindSubmission))
}

func (s *XMLBuilderService) writeCancellation(enc *xml.Encoder, r *entity.InvoiceCancellation) {
	root := startSum1(string(entity.RecordKindCancellation))
	root.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns:sum1"}, Value: NsSum1}}
	_ = enc.EncodeToken(root)

	writeSum1(enc, "IDVersion", pkgverifactu.SchemaVersion)
	open(enc, startSum1("IDFactura"))
	writeSum1(enc, "IDEmisorFacturaAnulada", verifactu.NormalizeText(r.ID.IssuerNIF))
	writeSum1(enc, "NumSerieFacturaAnulada", verifactu.NormalizeText(r.ID.SeriesNumber))
	writeSum1(enc, "FechaExpedicionFacturaAnulada", verifactu.NormalizeText(r.ID.IssueDate))
	closeSum1(enc, "IDFactura")

	writeChaining(enc, r.Chaining)
	writeSystemInfo(enc, r.SystemInfo)
	writeSum1(enc, "FechaHoraHusoGenRegistro", verifactu.NormalizeText(r.RecordTimestamp))
	writeSum1(enc, "TipoHuella", hashType(r.HashType))
	writeSum1(enc, "Huella", r.Hash)

	closeSum1(enc, string(entity.RecordKindCancellation))
}

// BuildQuery genera ConsultaFactuSistemaFacturacion. La consulta no se firma.
func (s *XMLBuilderService) BuildQuery(q *entity.InvoiceQuery) ([]byte, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: consulta nula", verifactu.ErrUnsupportedRecordType)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "con:" + string(entity.RecordKindQuery)},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:con"}, Value: NsCon},
			{Name: xml.Name{Local: "xmlns:sum1"}, Value: NsSum1},
		},
	}
	_ = enc.EncodeToken(root)

	open(enc, startCon("Cabecera"))
	writeSum1(enc, "IDVersion", pkgverifactu.SchemaVersion)
	open(enc, startSum1("ObligadoEmision"))
	writeSum1(enc, "NombreRazon", verifactu.NormalizeText(q.Issuer.Name))
	writeSum1(enc, "NIF", verifactu.NormalizeText(q.Issuer.NIF))
	closeSum1(enc, "ObligadoEmision")
	closeCon(enc, "Cabecera")

	open(enc, startCon("FiltroConsulta"))
	open(enc, startCon("PeriodoImputacion"))
	writeSum1(enc, "Ejercicio", verifactu.NormalizeText(q.Year))
	writeSum1(enc, "Periodo", verifactu.NormalizeText(q.Period))
	closeCon(enc, "PeriodoImputacion")
	if v := verifactu.NormalizeText(q.SeriesNumber); v != "" {
		writeElem(enc, "con:NumSerieFactura", v)
	}
	if !q.Counterparty.IsEmpty() {
		open(enc, startCon("Contraparte"))
		writeSum1(enc, "NombreRazon", verifactu.NormalizeText(q.Counterparty.Name))
		writeSum1(enc, "NIF", verifactu.NormalizeText(q.Counterparty.NIF))
		closeCon(enc, "Contraparte")
	}
	if k := q.PaginationKey; k != nil {
		open(enc, startCon("ClavePaginacion"))
		writeSum1(enc, "IDEmisorFactura", verifactu.NormalizeText(k.IssuerNIF))
		writeSum1(enc, "NumSerieFactura", verifactu.NormalizeText(k.SeriesNumber))
		writeSum1(enc, "FechaExpedicionFactura", verifactu.NormalizeText(k.IssueDate))
		closeCon(enc, "ClavePaginacion")
	}
	closeCon(enc, "FiltroConsulta")

	closeCon(enc, string(entity.RecordKindQuery))
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("aeat: serializar consulta: %w", err)
	}
	return buf.Bytes(), nil
}

func writeChaining(enc *xml.Encoder, link entity.ChainLink) {
	open(enc, startSum1("Encadenamiento"))
	if prev, ok := link.Previous(); ok {
		open(enc, startSum1("RegistroAnterior"))
		writeSum1(enc, "IDEmisorFactura", verifactu.NormalizeText(prev.IssuerNIF))
		writeSum1(enc, "NumSerieFactura", verifactu.NormalizeText(prev.SeriesNumber))
		writeSum1(enc, "FechaExpedicionFactura", verifactu.NormalizeText(prev.IssueDate))
		writeSum1(enc, "Huella", verifactu.NormalizeText(prev.Hash))
		closeSum1(enc, "RegistroAnterior")
	} else {
		writeSum1(enc, "PrimerRegistro", pkgverifactu.Yes)
	}
	closeSum1(enc, "Encadenamiento")
}

func writeSystemInfo(enc *xml.Encoder, si entity.SystemInfo) {
	open(enc, startSum1("SistemaInformatico"))
	writeSum1(enc, "NombreRazon", verifactu.NormalizeText(si.ProviderName))
	writeSum1(enc, "NIF", verifactu.NormalizeText(si.ProviderNIF))
	writeSum1(enc, "NombreSistemaInformatico", verifactu.NormalizeText(si.SystemName))
	writeSum1(enc, "IdSistemaInformatico", verifactu.NormalizeText(si.SystemID))
	writeSum1(enc, "Version", verifactu.NormalizeText(si.Version))
	writeSum1(enc, "NumeroInstalacion", verifactu.NormalizeText(si.InstallationNumber))
	writeSum1(enc, "TipoUsoPosibleSoloVerifactu", verifactu.NormalizeText(si.OnlyVerifactu))
	writeSum1(enc, "TipoUsoPosibleMultiOT", verifactu.NormalizeText(si.MultipleOT))
	writeSum1(enc, "IndicadorMultiplesOT", verifactu.NormalizeText(si.MultipleOTIndicator))
	closeSum1(enc, "SistemaInformatico")
}

func hashType(t string) string {
	if t == "" {
		return pkgverifactu.HashTypeSHA256
	}
	return t
}

func startSum1(local string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: "sum1:" + local}}
}

func startCon(local string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: "con:" + local}}
}

func open(enc *xml.Encoder, start xml.StartElement) {
	_ = enc.EncodeToken(start)
}

func closeSum1(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "sum1:" + local}})
}

func closeCon(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "con:" + local}})
}

func writeSum1(enc *xml.Encoder, local, value string) {
	writeElem(enc, "sum1:"+local, value)
}

// writeOptional omite el elemento si el valor recortado queda vacío.
func writeOptional(enc *xml.Encoder, local, value string) {
	if v := verifactu.NormalizeText(value); v != "" {
		writeSum1(enc, local, v)
	}
}

func writeElem(enc *xml.Encoder, name, value string) {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	_ = enc.EncodeToken(start)
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: start.Name})
}
