package verifactu_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
)

// ── Validación previa a la huella ───────────────────────────────────────────

func TestValidate_PreHashSinHuellaEsValido(t *testing.T) {
	errs, err := verifactu.Validate(buildFirstSubmission(), verifactu.FieldHash)
	require.NoError(t, err)
	assert.Nil(t, errs, "un registro completo sin huella debe superar la validación previa")
}

func TestValidate_PreHashCampoObligatorioAusente(t *testing.T) {
	rec := buildFirstSubmission()
	rec.IssuerName = "   "

	errs, err := verifactu.Validate(rec, verifactu.FieldHash)
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Contains(t, errs, "issuerName")
	assert.NotContains(t, errs, verifactu.FieldHash, "la huella está excluida")
}

func TestValidate_PostHashSinHuellaFalla(t *testing.T) {
	errs, err := verifactu.Validate(buildFirstSubmission())
	require.NoError(t, err)
	require.NotNil(t, errs)
	assert.Equal(t, []string{verifactu.FieldHash}, errs.Fields())
}

func TestValidate_PostHashConHuellaEsValido(t *testing.T) {
	rec := buildFirstSubmission()
	h, err := verifactu.NewHashGeneratorService().Compute(rec)
	require.NoError(t, err)
	rec.SetHash(h)

	errs, err := verifactu.Validate(rec)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestValidate_AcumulaTodosLosErrores(t *testing.T) {
	rec := buildFirstSubmission()
	rec.ID.IssuerNIF = ""
	rec.ID.IssueDate = "01-01-2025"
	rec.InvoiceType = "X9"
	rec.Breakdown = nil
	rec.Chaining = entity.ChainLink{}

	errs, err := verifactu.Validate(rec, verifactu.FieldHash)
	require.NoError(t, err)
	for _, field := range []string{"issuerNif", "issueDate", "invoiceType", "breakdown", "chaining"} {
		assert.Contains(t, errs, field, "se esperaba error en %s", field)
	}
}

// ── Reglas cruzadas ─────────────────────────────────────────────────────────

func TestValidate_ImporteMenorQueCuota(t *testing.T) {
	rec := buildFirstSubmission()
	rec.TotalAmount = amount("10")

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "totalAmount")
}

func TestValidate_ImportesNegativos(t *testing.T) {
	rec := buildFirstSubmission()
	rec.TaxAmount = amount("-1")

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "taxAmount")
}

func TestValidate_ImportesNoInformadosSonObligatorios(t *testing.T) {
	rec := buildFirstSubmission()
	rec.TaxAmount = decimal.NullDecimal{}
	rec.TotalAmount = decimal.NullDecimal{}

	errs, err := verifactu.Validate(rec, verifactu.FieldHash)
	require.NoError(t, err)
	assert.Equal(t, []string{"es obligatorio"}, errs["totalAmount"])
	assert.Equal(t, []string{"es obligatorio"}, errs["taxAmount"])
}

func TestValidate_ImporteCeroInformadoEsValido(t *testing.T) {
	rec := buildFirstSubmission()
	rec.Breakdown[0].TaxAmount = decimal.Zero
	rec.TaxAmount = amount("0")
	rec.TotalAmount = amount("0")

	errs, err := verifactu.Validate(rec, verifactu.FieldHash)
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestValidate_DestinatariosSoloOpcionalesSinIdentificacion(t *testing.T) {
	rec := buildFirstSubmission()
	rec.Recipients = nil

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "recipients")

	rec.InvoiceWithoutRecipient = "S"
	errs, _ = verifactu.Validate(rec, verifactu.FieldHash)
	assert.NotContains(t, errs, "recipients")
}

func TestValidate_EncadenadoExigeHuellaAnterior(t *testing.T) {
	rec := buildSecondSubmission()
	rec.Chaining = entity.LinkedTo(entity.PreviousRecord{
		IssuerNIF: "B12345678", SeriesNumber: "FA2025/001", IssueDate: "2025-01-01",
	})

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "previousHash")
}

func TestValidate_LineaDesgloseCalificacionYExencionExcluyentes(t *testing.T) {
	rec := buildFirstSubmission()
	rec.Breakdown[0].ExemptOperation = "E1"

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	require.Contains(t, errs, "breakdown")
	assert.Contains(t, errs["breakdown"][0], "excluyentes")
}

func TestValidate_SistemaInformaticoIncompleto(t *testing.T) {
	rec := buildFirstSubmission()
	rec.SystemInfo.Version = ""

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	require.Contains(t, errs, "systemInfo")
	assert.Contains(t, errs["systemInfo"][0], "versión")
}

// ── Texto apto para XML ─────────────────────────────────────────────────────

func TestValidate_SerieConCaracterDeControlFalla(t *testing.T) {
	rec := buildFirstSubmission()
	rec.ID.SeriesNumber = "FA2025\x0b001"

	errs, err := verifactu.Validate(rec, verifactu.FieldHash)
	require.NoError(t, err)
	assert.Equal(t, verifactu.FieldErrors{"seriesNumber": {"contiene caracteres no admitidos en XML"}}, errs)
}

func TestValidate_UTF8InvalidoFalla(t *testing.T) {
	rec := buildFirstSubmission()
	rec.IssuerName = "Empresa \xff SL"
	rec.Recipients[0].Name = "Cliente \xc3"
	rec.SystemInfo.SystemName = "Factura\x00Pro"

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "issuerName")
	assert.Contains(t, errs, "recipients")
	assert.Contains(t, errs, "systemInfo")
}

func TestValidate_HuellaAnteriorConCaracterNoXML(t *testing.T) {
	rec := buildCancellation()
	rec.Chaining = entity.LinkedTo(entity.PreviousRecord{
		IssuerNIF: "B12345678", SeriesNumber: "FA2025/001", IssueDate: "2025-01-01", Hash: "ABC\x1f",
	})

	errs, _ := verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "chaining")
}

func TestValidate_ConsultaConContraparteNoXML(t *testing.T) {
	q := buildQuery()
	q.Counterparty = entity.LegalPerson{Name: "Cliente\uFFFE", NIF: "A11111111"}

	errs, _ := verifactu.Validate(q)
	assert.Contains(t, errs, "counterparty")
}

func TestIsXMLText(t *testing.T) {
	cases := map[string]bool{
		"":                     true,
		"Venta de mercaderías": true,
		"línea 1\nlínea 2\t.":  true,
		"emoji \U0001F600":     true,
		"tab vertical \x0b":    false,
		"nulo \x00":            false,
		"byte suelto \xff":     false,
		"sustituto \uFFFF":     false,
	}
	for in, want := range cases {
		assert.Equal(t, want, verifactu.IsXMLText(in), "%q", in)
	}
}

// ── Exclusiones ─────────────────────────────────────────────────────────────

func TestValidate_CampoExcluidoOmiteRequired(t *testing.T) {
	rec := buildFirstSubmission()
	rec.IssuerName = ""

	errs, err := verifactu.Validate(rec, verifactu.FieldHash, "issuerName")
	require.NoError(t, err)
	assert.Nil(t, errs)
}

// ── Anulación y consulta ────────────────────────────────────────────────────

func TestValidate_Anulacion(t *testing.T) {
	errs, err := verifactu.Validate(buildCancellation(), verifactu.FieldHash)
	require.NoError(t, err)
	assert.Nil(t, errs)

	rec := buildCancellation()
	rec.Chaining = entity.ChainLink{}
	errs, _ = verifactu.Validate(rec, verifactu.FieldHash)
	assert.Contains(t, errs, "chaining")
}

func TestValidate_Consulta(t *testing.T) {
	errs, err := verifactu.Validate(buildQuery())
	require.NoError(t, err)
	assert.Nil(t, errs)

	q := buildQuery()
	q.Period = "13"
	q.Year = "25"
	errs, _ = verifactu.Validate(q)
	assert.Contains(t, errs, "period")
	assert.Contains(t, errs, "year")
}

// ── Motor de reglas ─────────────────────────────────────────────────────────

type sample struct {
	Name  string
	Email string
	Count any
	Rate  any
}

func TestRuleSet_ComprobacionesDeTipoIgnoranNulos(t *testing.T) {
	name := verifactu.F("name", func(s sample) any { return s.Name })
	email := verifactu.F("email", func(s sample) any { return s.Email })
	count := verifactu.F("count", func(s sample) any { return s.Count })
	rate := verifactu.F("rate", func(s sample) any { return s.Rate })

	rules := verifactu.RuleSet[sample]{
		verifactu.Required(name),
		verifactu.IsEmail(email),
		verifactu.IsInteger(count),
		verifactu.IsDecimal(rate),
	}

	errs := rules.Validate(sample{})
	assert.Equal(t, []string{"name"}, errs.Fields(), "solo Required debe fallar con valores nulos")

	errs = rules.Validate(sample{Name: "x", Email: "no-es-email", Count: "1.5", Rate: "abc"})
	assert.Equal(t, []string{"count", "email", "rate"}, errs.Fields())

	errs = rules.Validate(sample{Name: "x", Email: "a@b.es", Count: 3, Rate: decimal.NewFromFloat(1.5)})
	assert.Nil(t, errs)
}

func TestRuleSet_PredicadoAccedeAlRegistro(t *testing.T) {
	name := verifactu.F("name", func(s sample) any { return s.Name })
	rules := verifactu.RuleSet[sample]{
		verifactu.Must(func(_ any, s sample) string {
			if s.Email == "" {
				return "requiere email"
			}
			return ""
		}, name),
	}

	errs := rules.Validate(sample{Name: "x"})
	assert.Equal(t, []string{"requiere email"}, errs["name"])
}
