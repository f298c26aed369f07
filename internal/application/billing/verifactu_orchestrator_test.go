package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

type fakeSerializer struct {
	calls int
	err   error
}

func (f *fakeSerializer) BuildRecord(rec entity.ChainedRecord) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("<sum1:" + string(rec.Kind()) + "/>"), nil
}

func (f *fakeSerializer) BuildQuery(*entity.InvoiceQuery) ([]byte, error) {
	f.calls++
	return []byte("<con:ConsultaFactuSistemaFacturacion/>"), f.err
}

type fakeSigner struct {
	calls int
	err   error
}

func (f *fakeSigner) SignRecord(_ context.Context, xml []byte, _ billing.CertificateRef) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append(xml, []byte("<ds:Signature/>")...), nil
}

type fakeTransport struct {
	requests []billing.TransportRequest
	response []byte
	err      error
}

func (f *fakeTransport) Send(_ context.Context, req billing.TransportRequest) ([]byte, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

type fakeParser struct {
	registration *entity.InvoiceResponse
	query        *entity.QueryResponse
	err          error
}

func (f *fakeParser) ParseRegistration([]byte) (*entity.InvoiceResponse, error) {
	return f.registration, f.err
}

func (f *fakeParser) ParseQuery([]byte) (*entity.QueryResponse, error) {
	return f.query, f.err
}

type fakeArchive struct {
	saved []entity.SubmissionLog
	err   error
}

func (f *fakeArchive) Save(_ context.Context, l *entity.SubmissionLog) error {
	f.saved = append(f.saved, *l)
	return f.err
}

type fakeQR struct{ content string }

func (f *fakeQR) Render(_ context.Context, content string, opts billing.QROptions) (*billing.QRImage, error) {
	f.content = content
	return &billing.QRImage{Format: opts.Format, Content: []byte("png")}, nil
}

type fakeReceipts struct{ data billing.ReceiptData }

func (f *fakeReceipts) GenerateReceipt(_ context.Context, data billing.ReceiptData) ([]byte, error) {
	f.data = data
	return []byte("%PDF-1.4"), nil
}

type harness struct {
	serializer *fakeSerializer
	signer     *fakeSigner
	transport  *fakeTransport
	parser     *fakeParser
	archive    *fakeArchive
	qr         *fakeQR
	receipts   *fakeReceipts
	orch       *billing.VerifactuOrchestrator
}

func newHarness() *harness {
	h := &harness{
		serializer: &fakeSerializer{},
		signer:     &fakeSigner{},
		transport:  &fakeTransport{response: []byte("<Respuesta/>")},
		parser: &fakeParser{
			registration: &entity.InvoiceResponse{CSV: "A-XYZ", SubmissionStatus: "Correcto"},
			query:        &entity.QueryResponse{Result: "ConDatos"},
		},
		archive:  &fakeArchive{},
		qr:       &fakeQR{},
		receipts: &fakeReceipts{},
	}
	h.orch = billing.NewVerifactuOrchestrator(billing.OrchestratorDeps{
		Serializer: h.serializer,
		Signer:     h.signer,
		Transport:  h.transport,
		Parser:     h.parser,
		Archive:    h.archive,
		QR:         h.qr,
		Receipts:   h.receipts,
	}, billing.VerifactuConfig{
		Environment: pkgverifactu.EnvironmentSandbox,
		QRBaseURL:   "https://prewww2.aeat.es/wlpl/TIKE-CONT/ValidarQR",
	}, zerolog.Nop())
	return h
}

func TestRegisterInvoice_CicloCompleto(t *testing.T) {
	h := newHarness()
	rec := buildFirstSubmission()

	res, err := h.orch.RegisterInvoice(context.Background(), rec)
	require.NoError(t, err)

	want, err := verifactu.NewHashGeneratorService().Compute(buildFirstSubmission())
	require.NoError(t, err)
	assert.Equal(t, want, rec.Hash)
	assert.Equal(t, want, res.Hash)
	assert.NotEmpty(t, res.CorrelationID)
	assert.Contains(t, string(res.SignedXML), "<ds:Signature/>")
	assert.Contains(t, res.VerificationURL, "nif=B12345678&num=FA2025%2F001&fecha=2025-01-01&huella=")
	assert.Equal(t, "A-XYZ", res.Response.CSV)

	require.Len(t, h.transport.requests, 1)
	req := h.transport.requests[0]
	assert.Equal(t, pkgverifactu.OperationSuministroLR, req.Operation)
	assert.Equal(t, entity.RecordKindSubmission, req.PayloadKey)
	assert.Equal(t, entity.LegalPerson{Name: "Empresa Ejemplo SL", NIF: "B12345678"}, req.Obligado)

	require.Len(t, h.archive.saved, 1)
	saved := h.archive.saved[0]
	assert.Equal(t, entity.SubmissionStatusAccepted, saved.Status)
	assert.Equal(t, res.CorrelationID, saved.ID)
	assert.Equal(t, "A-XYZ", saved.CSV)
	require.NotNil(t, saved.TotalAmount)
	assert.Equal(t, "121", saved.TotalAmount.String())
}

func TestRegisterInvoice_RechazoNoEsError(t *testing.T) {
	h := newHarness()
	h.parser.registration = &entity.InvoiceResponse{
		SubmissionStatus: "Incorrecto",
		Lines: []entity.ResponseLine{{
			RecordStatus:     "Incorrecto",
			ErrorCode:        "1100",
			ErrorDescription: "Valor o tipo incorrecto del campo",
		}},
	}

	res, err := h.orch.RegisterInvoice(context.Background(), buildFirstSubmission())
	require.NoError(t, err)
	assert.True(t, res.Response.Rejected())

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, entity.SubmissionStatusRejected, h.archive.saved[0].Status)
	assert.Contains(t, h.archive.saved[0].ErrorMessage, "1100")
}

func TestRegisterInvoice_HuellaYaCalculada(t *testing.T) {
	h := newHarness()
	rec := buildFirstSubmission()
	rec.Hash = "ya-calculada"

	_, err := h.orch.RegisterInvoice(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, verifactu.ErrValidationFailed)
	assert.ErrorIs(t, err, verifactu.ErrHashAlreadySet)

	var vErr *verifactu.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, verifactu.StagePreHash, vErr.Stage)
	assert.Contains(t, vErr.Fields, verifactu.FieldHash)
	assert.Equal(t, "ya-calculada", rec.Hash)
	assert.Zero(t, h.serializer.calls)
	assert.Empty(t, h.transport.requests)
}

func TestRegisterInvoice_ValidacionPrevia(t *testing.T) {
	h := newHarness()
	rec := buildFirstSubmission()
	rec.ID.IssuerNIF = ""

	_, err := h.orch.RegisterInvoice(context.Background(), rec)
	require.Error(t, err)
	var vErr *verifactu.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, verifactu.StagePreHash, vErr.Stage)
	assert.Empty(t, rec.Hash)
	assert.Zero(t, h.signer.calls)
	assert.Empty(t, h.archive.saved)
}

func TestRegisterInvoice_FirmaFallida(t *testing.T) {
	h := newHarness()
	h.signer.err = errors.New("certificado caducado")

	_, err := h.orch.RegisterInvoice(context.Background(), buildFirstSubmission())
	require.Error(t, err)
	assert.ErrorIs(t, err, verifactu.ErrSigningFailed)
	assert.Contains(t, err.Error(), "certificado caducado")
	assert.Empty(t, h.transport.requests)
}

func TestRegisterInvoice_SerializacionFallidaDescartaHuella(t *testing.T) {
	h := newHarness()
	h.serializer.err = errors.New("elemento sin cerrar")
	rec := buildFirstSubmission()

	_, err := h.orch.RegisterInvoice(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, verifactu.ErrSerializationFailed)
	assert.Contains(t, err.Error(), "elemento sin cerrar")
	assert.Empty(t, rec.CurrentHash())
	assert.Zero(t, h.signer.calls)
	assert.Empty(t, h.transport.requests)

	h.serializer.err = nil
	res, err := h.orch.RegisterInvoice(context.Background(), rec)
	require.NoError(t, err, "el registro debe poder reenviarse tras el fallo interno")
	assert.Equal(t, res.Hash, rec.CurrentHash())
}

func TestPrepare_SerializacionFallidaDescartaHuella(t *testing.T) {
	h := newHarness()
	h.serializer.err = errors.New("elemento sin cerrar")
	rec := buildCancellation()

	prepared, err := h.orch.Prepare(context.Background(), rec)
	require.ErrorIs(t, err, verifactu.ErrSerializationFailed)
	assert.Nil(t, prepared)
	assert.Empty(t, rec.Hash)
}

func TestRegisterInvoice_SerieNoAptaParaXML(t *testing.T) {
	h := newHarness()
	rec := buildFirstSubmission()
	rec.ID.SeriesNumber = "FA2025\x0b001"

	_, err := h.orch.RegisterInvoice(context.Background(), rec)
	var vErr *verifactu.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, verifactu.StagePreHash, vErr.Stage)
	assert.Contains(t, vErr.Fields, "seriesNumber")
	assert.Empty(t, rec.Hash)
	assert.Zero(t, h.serializer.calls)
}

func TestRegisterInvoice_TransmisionFallida(t *testing.T) {
	h := newHarness()
	h.transport.err = context.DeadlineExceeded

	_, err := h.orch.RegisterInvoice(context.Background(), buildFirstSubmission())
	require.Error(t, err)
	assert.ErrorIs(t, err, verifactu.ErrTransmissionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, entity.SubmissionStatusFailed, h.archive.saved[0].Status)
}

func TestRegisterInvoice_RespuestaIlegible(t *testing.T) {
	h := newHarness()
	h.parser.err = errors.New("xml truncado")

	_, err := h.orch.RegisterInvoice(context.Background(), buildFirstSubmission())
	require.Error(t, err)
	assert.ErrorIs(t, err, verifactu.ErrParsingFailed)
}

func TestRegisterInvoice_ArchivoFallidoNoInterrumpe(t *testing.T) {
	h := newHarness()
	h.archive.err = errors.New("conexión rechazada")

	res, err := h.orch.RegisterInvoice(context.Background(), buildFirstSubmission())
	require.NoError(t, err)
	assert.True(t, res.Response.Accepted())
}

func TestRegisterInvoice_RegistroNulo(t *testing.T) {
	h := newHarness()
	_, err := h.orch.RegisterInvoice(context.Background(), nil)
	assert.ErrorIs(t, err, verifactu.ErrUnsupportedRecordType)
}

func TestCancelInvoice_CicloCompleto(t *testing.T) {
	h := newHarness()
	rec := buildCancellation()

	res, err := h.orch.CancelInvoice(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Hash)
	assert.Equal(t, rec.Hash, res.Hash)

	require.Len(t, h.transport.requests, 1)
	assert.Equal(t, entity.RecordKindCancellation, h.transport.requests[0].PayloadKey)
	require.Len(t, h.archive.saved, 1)
	assert.Nil(t, h.archive.saved[0].TotalAmount)
}

func TestQueryInvoices_SinFirma(t *testing.T) {
	h := newHarness()

	resp, err := h.orch.QueryInvoices(context.Background(), buildQuery())
	require.NoError(t, err)
	assert.Equal(t, "ConDatos", resp.Result)
	assert.Zero(t, h.signer.calls)

	require.Len(t, h.transport.requests, 1)
	req := h.transport.requests[0]
	assert.Equal(t, pkgverifactu.OperationConsultaLR, req.Operation)
	assert.Equal(t, entity.RecordKindQuery, req.PayloadKey)
	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, entity.SubmissionStatusQueryDone, h.archive.saved[0].Status)
}

func TestQueryInvoices_PeriodoInvalido(t *testing.T) {
	h := newHarness()
	q := buildQuery()
	q.Period = "13"

	_, err := h.orch.QueryInvoices(context.Background(), q)
	var vErr *verifactu.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, verifactu.StageQuery, vErr.Stage)
	assert.Empty(t, h.transport.requests)
}

func TestPrepare_NoEnvia(t *testing.T) {
	h := newHarness()
	rec := buildSecondSubmission()

	prepared, err := h.orch.Prepare(context.Background(), rec)
	require.NoError(t, err)
	assert.Contains(t, prepared.HashInput, "Huella=prevhash123&")
	assert.Equal(t, rec.Hash, prepared.Hash)
	assert.NotEmpty(t, prepared.XML)
	assert.Zero(t, h.signer.calls)
	assert.Empty(t, h.transport.requests)
}

func TestGenerateInvoiceQR_ExigeHuella(t *testing.T) {
	h := newHarness()

	_, err := h.orch.GenerateInvoiceQR(context.Background(), buildFirstSubmission(), billing.QROptions{})
	assert.ErrorIs(t, err, verifactu.ErrValidationFailed)

	rec := buildFirstSubmission()
	rec.Hash = "abc+/="
	img, err := h.orch.GenerateInvoiceQR(context.Background(), rec, billing.QROptions{Format: billing.QRFormatPNG})
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), img.Content)
	assert.Contains(t, h.qr.content, "huella=abc%2B%2F%3D")
}

func TestGenerateReceipt(t *testing.T) {
	h := newHarness()
	rec := buildFirstSubmission()
	rec.Hash = "huella"

	pdf, err := h.orch.GenerateReceipt(context.Background(), rec, "A-XYZ")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "A-XYZ", h.receipts.data.CSV)
	assert.Equal(t, pkgverifactu.EnvironmentSandbox, h.receipts.data.Environment)
	assert.Contains(t, h.receipts.data.VerificationURL, "huella=huella")
}
