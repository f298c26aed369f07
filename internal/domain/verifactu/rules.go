package verifactu

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// FieldHash nombre del campo huella; se excluye en la validación previa al cálculo.
const FieldHash = "hash"

// Validate valida un registro con las reglas de su variante, omitiendo los
// campos excluidos. Devuelve nil si el registro es válido.
func Validate(rec entity.Record, excluded ...string) (FieldErrors, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", ErrUnsupportedRecordType)
	}
	switch rec.Kind() {
	case entity.RecordKindSubmission:
		r, ok := rec.(*entity.InvoiceSubmission)
		if !ok || r == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
		}
		return submissionRules.Validate(r, excluded...), nil
	case entity.RecordKindCancellation:
		r, ok := rec.(*entity.InvoiceCancellation)
		if !ok || r == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
		}
		return cancellationRules.Validate(r, excluded...), nil
	case entity.RecordKindQuery:
		r, ok := rec.(*entity.InvoiceQuery)
		if !ok || r == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
		}
		return queryRules.Validate(r, excluded...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, rec.Kind())
	}
}

// ── Alta ──────────────────────────────────────────────────────────────────────

type sub = *entity.InvoiceSubmission

var (
	subIssuerNIF    = F("issuerNif", func(s sub) any { return NormalizeText(s.ID.IssuerNIF) })
	subSeriesNumber = F("seriesNumber", func(s sub) any { return NormalizeText(s.ID.SeriesNumber) })
	subIssueDate    = F("issueDate", func(s sub) any { return NormalizeText(s.ID.IssueDate) })
	subIssuerName   = F("issuerName", func(s sub) any { return NormalizeText(s.IssuerName) })
	subInvoiceType  = F("invoiceType", func(s sub) any { return NormalizeText(s.InvoiceType) })
	subDescription  = F("operationDescription", func(s sub) any { return NormalizeText(s.OperationDescription) })
	subOperDate     = F("operationDate", func(s sub) any { return NormalizeText(s.OperationDate) })
	subTaxAmount    = F("taxAmount", func(s sub) any { return s.TaxAmount })
	subTotalAmount  = F("totalAmount", func(s sub) any { return s.TotalAmount })
	subBreakdown    = F("breakdown", func(s sub) any { return s.Breakdown })
	subRecipients   = F("recipients", func(s sub) any { return s.Recipients })
	subChaining     = F("chaining", func(s sub) any { return s.Chaining })
	subPrevHash     = F("previousHash", func(s sub) any { return NormalizeText(s.Chaining.PreviousHash()) })
	subSystemInfo   = F("systemInfo", func(s sub) any { return s.SystemInfo })
	subTimestamp    = F("recordTimestamp", func(s sub) any { return NormalizeText(s.RecordTimestamp) })
	subSimplified   = F("simplifiedInvoiceArt7273", func(s sub) any { return NormalizeText(s.SimplifiedInvoiceArt7273) })
	subNoRecipient  = F("invoiceWithoutRecipient", func(s sub) any { return NormalizeText(s.InvoiceWithoutRecipient) })
	subHash         = F(FieldHash, func(s sub) any { return NormalizeText(s.Hash) })
	subExternalRef  = F("externalRef", func(s sub) any { return NormalizeText(s.ExternalRef) })
	subHashType     = F("hashType", func(s sub) any { return NormalizeText(s.HashType) })
)

var submissionRules = RuleSet[sub]{
	Required(subIssuerNIF, subSeriesNumber, subIssueDate, subIssuerName, subInvoiceType,
		subDescription, subTaxAmount, subTotalAmount, subBreakdown, subChaining,
		subSystemInfo, subTimestamp, subHash),
	IsString(subIssuerNIF, subSeriesNumber, subIssueDate, subIssuerName, subInvoiceType,
		subDescription, subTimestamp, subHash),
	IsDecimal(subTaxAmount, subTotalAmount),
	Must(nifFormat[sub], subIssuerNIF),
	Must(maxLength[sub](60), subSeriesNumber),
	Must(maxLength[sub](120), subIssuerName),
	Must(maxLength[sub](500), subDescription),
	Must(isoDate[sub], subIssueDate, subOperDate),
	Must(inCatalog[sub](pkgverifactu.ValidInvoiceTypes), subInvoiceType),
	Must(yesNo[sub], subSimplified, subNoRecipient),
	Must(nonNegative[sub], subTaxAmount, subTotalAmount),
	Must(totalCoversTax, subTotalAmount),
	Must(recipientsPresent, subRecipients),
	Must(breakdownLinesValid, subBreakdown),
	Must(chainLinkValid[sub], subChaining),
	Must(previousHashPresent[sub], subPrevHash),
	Must(systemInfoComplete[sub], subSystemInfo),
	Must(isoTimestamp[sub], subTimestamp),
	Must(xmlText[sub], subIssuerNIF, subSeriesNumber, subIssueDate, subIssuerName, subInvoiceType,
		subDescription, subOperDate, subRecipients, subBreakdown, subChaining, subSystemInfo,
		subTimestamp, subSimplified, subNoRecipient, subHash, subExternalRef, subHashType),
}

func totalCoversTax(_ any, s sub) string {
	if !s.TotalAmount.Valid || !s.TaxAmount.Valid {
		return ""
	}
	if s.TotalAmount.Decimal.LessThan(s.TaxAmount.Decimal) {
		return "debe ser mayor o igual que la cuota total"
	}
	return ""
}

func recipientsPresent(_ any, s sub) string {
	if len(s.Recipients) == 0 {
		if s.WithoutRecipient() {
			return ""
		}
		return "es obligatorio salvo factura sin identificación del destinatario"
	}
	for i, r := range s.Recipients {
		if NormalizeText(r.Name) == "" || NormalizeText(r.NIF) == "" {
			return fmt.Sprintf("destinatario %d: nombre y NIF obligatorios", i+1)
		}
	}
	return ""
}

func breakdownLinesValid(_ any, s sub) string {
	for i, line := range s.Breakdown {
		n := i + 1
		taxType := NormalizeText(line.TaxType)
		if taxType != "" && !pkgverifactu.ValidTaxTypes[taxType] {
			return fmt.Sprintf("línea %d: impuesto %q no válido", n, line.TaxType)
		}
		qual := NormalizeText(line.OperationQualification)
		exempt := NormalizeText(line.ExemptOperation)
		switch {
		case qual == "" && exempt == "":
			return fmt.Sprintf("línea %d: calificación u operación exenta obligatoria", n)
		case qual != "" && exempt != "":
			return fmt.Sprintf("línea %d: calificación y operación exenta son excluyentes", n)
		case qual != "" && !pkgverifactu.ValidQualifications[qual]:
			return fmt.Sprintf("línea %d: calificación %q no válida", n, line.OperationQualification)
		case exempt != "" && !pkgverifactu.ValidExemptions[exempt]:
			return fmt.Sprintf("línea %d: operación exenta %q no válida", n, line.ExemptOperation)
		}
		if line.TaxAmount.IsNegative() && !line.TaxableBase.IsNegative() {
			return fmt.Sprintf("línea %d: cuota negativa con base positiva", n)
		}
	}
	return ""
}

// ── Anulación ─────────────────────────────────────────────────────────────────

type can = *entity.InvoiceCancellation

var (
	canIssuerNIF    = F("issuerNif", func(c can) any { return NormalizeText(c.ID.IssuerNIF) })
	canSeriesNumber = F("seriesNumber", func(c can) any { return NormalizeText(c.ID.SeriesNumber) })
	canIssueDate    = F("issueDate", func(c can) any { return NormalizeText(c.ID.IssueDate) })
	canIssuerName   = F("issuerName", func(c can) any { return NormalizeText(c.IssuerName) })
	canChaining     = F("chaining", func(c can) any { return c.Chaining })
	canPrevHash     = F("previousHash", func(c can) any { return NormalizeText(c.Chaining.PreviousHash()) })
	canSystemInfo   = F("systemInfo", func(c can) any { return c.SystemInfo })
	canTimestamp    = F("recordTimestamp", func(c can) any { return NormalizeText(c.RecordTimestamp) })
	canHash         = F(FieldHash, func(c can) any { return NormalizeText(c.Hash) })
	canHashType     = F("hashType", func(c can) any { return NormalizeText(c.HashType) })
)

var cancellationRules = RuleSet[can]{
	Required(canIssuerNIF, canSeriesNumber, canIssueDate, canIssuerName, canChaining,
		canSystemInfo, canTimestamp, canHash),
	IsString(canIssuerNIF, canSeriesNumber, canIssueDate, canIssuerName, canTimestamp, canHash),
	Must(nifFormat[can], canIssuerNIF),
	Must(maxLength[can](60), canSeriesNumber),
	Must(isoDate[can], canIssueDate),
	Must(chainLinkValid[can], canChaining),
	Must(previousHashPresent[can], canPrevHash),
	Must(systemInfoComplete[can], canSystemInfo),
	Must(isoTimestamp[can], canTimestamp),
	Must(xmlText[can], canIssuerNIF, canSeriesNumber, canIssueDate, canIssuerName, canChaining,
		canSystemInfo, canTimestamp, canHash, canHashType),
}

// ── Consulta ──────────────────────────────────────────────────────────────────

type qry = *entity.InvoiceQuery

var (
	qryIssuerNIF    = F("issuerNif", func(q qry) any { return NormalizeText(q.Issuer.NIF) })
	qryIssuerName   = F("issuerName", func(q qry) any { return NormalizeText(q.Issuer.Name) })
	qryYear         = F("year", func(q qry) any { return NormalizeText(q.Year) })
	qryPeriod       = F("period", func(q qry) any { return NormalizeText(q.Period) })
	qrySeriesNumber = F("seriesNumber", func(q qry) any { return NormalizeText(q.SeriesNumber) })
	qryCounterparty = F("counterparty", func(q qry) any { return q.Counterparty })
	qryPagination   = F("paginationKey", func(q qry) any { return q.PaginationKey })
)

var queryRules = RuleSet[qry]{
	Required(qryIssuerNIF, qryIssuerName, qryYear, qryPeriod),
	IsString(qryIssuerNIF, qryIssuerName, qrySeriesNumber),
	IsInteger(qryYear, qryPeriod),
	Must(nifFormat[qry], qryIssuerNIF),
	Must(yearFormat, qryYear),
	Must(periodRange, qryPeriod),
	Must(maxLength[qry](60), qrySeriesNumber),
	Must(counterpartyComplete, qryCounterparty),
	Must(paginationComplete, qryPagination),
	Must(xmlText[qry], qryIssuerNIF, qryIssuerName, qryYear, qryPeriod, qrySeriesNumber,
		qryCounterparty, qryPagination),
}

func yearFormat(v any, _ qry) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	if len(s) != 4 {
		return "debe tener formato AAAA"
	}
	return ""
}

func periodRange(v any, _ qry) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	n, err := strconv.Atoi(s)
	if err != nil || len(s) != 2 || n < 1 || n > 12 {
		return "debe estar entre 01 y 12"
	}
	return ""
}

func counterpartyComplete(_ any, q qry) string {
	if q.Counterparty.IsEmpty() {
		return ""
	}
	if NormalizeText(q.Counterparty.NIF) == "" || NormalizeText(q.Counterparty.Name) == "" {
		return "nombre y NIF obligatorios"
	}
	return ""
}

func paginationComplete(_ any, q qry) string {
	k := q.PaginationKey
	if k == nil {
		return ""
	}
	if NormalizeText(k.IssuerNIF) == "" || NormalizeText(k.SeriesNumber) == "" || NormalizeText(k.IssueDate) == "" {
		return "NIF, serie y fecha obligatorios"
	}
	return ""
}

// ── Predicados comunes ────────────────────────────────────────────────────────

// nifFormat: NIF/CIF/NIE de 9 caracteres alfanuméricos. No se calcula el dígito de control.
func nifFormat[R any](v any, _ R) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	if len(s) != 9 {
		return "debe tener 9 caracteres"
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsUpper(r) {
			return "solo admite dígitos y letras mayúsculas"
		}
	}
	return ""
}

func maxLength[R any](max int) Predicate[R] {
	return func(v any, _ R) string {
		s, _ := v.(string)
		if utf8.RuneCountInString(s) > max {
			return fmt.Sprintf("no puede superar %d caracteres", max)
		}
		return ""
	}
}

func isoDate[R any](v any, _ R) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "debe tener formato AAAA-MM-DD"
	}
	return ""
}

func isoTimestamp[R any](v any, _ R) string {
	s, _ := v.(string)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return "debe ser fecha y hora ISO 8601 con huso horario"
	}
	return ""
}

func inCatalog[R any](catalog map[string]bool) Predicate[R] {
	return func(v any, _ R) string {
		s, _ := v.(string)
		if s == "" || catalog[s] {
			return ""
		}
		return fmt.Sprintf("valor %q no admitido", s)
	}
}

func yesNo[R any](v any, _ R) string {
	s, _ := v.(string)
	if s == "" || s == pkgverifactu.Yes || s == pkgverifactu.No {
		return ""
	}
	return "debe ser S o N"
}

func nonNegative[R any](v any, _ R) string {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		d = x.Decimal
	default:
		return ""
	}
	if d.IsNegative() {
		return "no puede ser negativo"
	}
	return ""
}

func chainLinkValid[R any](v any, _ R) string {
	link, ok := v.(entity.ChainLink)
	if !ok || link.IsEmpty() {
		return ""
	}
	prev, linked := link.Previous()
	if !linked {
		return ""
	}
	if NormalizeText(prev.IssuerNIF) == "" || NormalizeText(prev.SeriesNumber) == "" || NormalizeText(prev.IssueDate) == "" {
		return "el registro anterior debe informar NIF, serie y fecha"
	}
	return ""
}

func previousHashPresent[R entity.ChainedRecord](v any, rec R) string {
	if _, linked := rec.Chain().Previous(); !linked {
		return ""
	}
	if s, _ := v.(string); s == "" {
		return "es obligatoria cuando hay registro anterior"
	}
	return ""
}

func systemInfoComplete[R any](v any, _ R) string {
	si, ok := v.(entity.SystemInfo)
	if !ok || si.IsEmpty() {
		return ""
	}
	fields := []struct{ name, value string }{
		{"nombre del productor", si.ProviderName},
		{"NIF del productor", si.ProviderNIF},
		{"nombre del sistema", si.SystemName},
		{"id del sistema", si.SystemID},
		{"versión", si.Version},
		{"número de instalación", si.InstallationNumber},
	}
	var missing []string
	for _, f := range fields {
		if NormalizeText(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return "faltan: " + strings.Join(missing, ", ")
	}
	return ""
}

// xmlText rechaza UTF-8 inválido y caracteres fuera de la producción Char de
// XML 1.0. encoding/xml los sustituye por U+FFFD al serializar y el XML
// enviado dejaría de coincidir con la huella.
func xmlText[R any](v any, _ R) string {
	for _, s := range textValues(v) {
		if !IsXMLText(s) {
			return "contiene caracteres no admitidos en XML"
		}
	}
	return ""
}

// IsXMLText indica si s es UTF-8 válido y solo contiene caracteres XML.
func IsXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}
	return true
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// textValues extrae las cadenas que acaban en la huella o en el XML.
func textValues(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case entity.LegalPerson:
		return []string{x.Name, x.NIF}
	case []entity.LegalPerson:
		out := make([]string, 0, 2*len(x))
		for _, p := range x {
			out = append(out, p.Name, p.NIF)
		}
		return out
	case []entity.BreakdownLine:
		out := make([]string, 0, 4*len(x))
		for _, l := range x {
			out = append(out, l.TaxType, l.RegimeKey, l.OperationQualification, l.ExemptOperation)
		}
		return out
	case *entity.InvoiceID:
		if x == nil {
			return nil
		}
		return []string{x.IssuerNIF, x.SeriesNumber, x.IssueDate}
	case entity.ChainLink:
		prev, linked := x.Previous()
		if !linked {
			return nil
		}
		return []string{prev.IssuerNIF, prev.SeriesNumber, prev.IssueDate, prev.Hash}
	case entity.SystemInfo:
		return []string{x.ProviderName, x.ProviderNIF, x.SystemName, x.SystemID, x.Version,
			x.InstallationNumber, x.OnlyVerifactu, x.MultipleOT, x.MultipleOTIndicator}
	}
	return nil
}
