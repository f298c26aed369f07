package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
	pkgverifactu "github.com/jhoicas/verifactu-api/pkg/verifactu"
)

// State etapa del ciclo de vida de un envío.
type State string

// Estados en orden. La consulta no pasa por Hashed, PostValidated ni Signed.
const (
	StateBuilt         State = "Built"
	StatePreValidated  State = "PreValidated"
	StateHashed        State = "Hashed"
	StatePostValidated State = "PostValidated"
	StateSerialized    State = "Serialized"
	StateSigned        State = "Signed"
	StateTransmitted   State = "Transmitted"
	StateParsed        State = "Parsed"
)

// VerifactuConfig entorno y certificado con los que trabaja el orquestador.
type VerifactuConfig struct {
	Environment string // production | sandbox
	QRBaseURL   string
	Certificate CertificateRef
}

// OrchestratorDeps adaptadores del orquestador. Archive, QR y Receipts son opcionales.
type OrchestratorDeps struct {
	Serializer RecordSerializer
	Signer     RecordSigner
	Transport  Transport
	Parser     ResponseParser
	Archive    SubmissionArchive
	QR         QRRenderer
	Receipts   ReceiptGenerator
	Sequencer  *IssuerSequencer
}

// PreparedRecord registro con huella calculada, validado y serializado (sin firmar).
type PreparedRecord struct {
	Record          entity.ChainedRecord
	HashInput       string
	Hash            string
	XML             []byte
	VerificationURL string
}

// SubmissionResult resultado de un alta o anulación transmitida.
// Un rechazo de la AEAT es un resultado válido: consultar Response.SubmissionStatus.
type SubmissionResult struct {
	CorrelationID   string
	Record          entity.ChainedRecord
	Hash            string
	SignedXML       []byte
	VerificationURL string
	Response        *entity.InvoiceResponse
}

// VerifactuOrchestrator orquesta el ciclo de un registro VERI*FACTU:
//
//	Validación previa → Huella → Validación posterior → XML → Firma → SOAP → Respuesta
//
// Es síncrono y no reintenta: un fallo en cualquier etapa detiene el ciclo y
// se devuelve con su categoría (ErrValidationFailed, ErrSigningFailed, ...).
type VerifactuOrchestrator struct {
	hasher *verifactu.HashGeneratorService
	deps   OrchestratorDeps
	cfg    VerifactuConfig
	log    zerolog.Logger
}

// NewVerifactuOrchestrator construye el orquestador.
func NewVerifactuOrchestrator(deps OrchestratorDeps, cfg VerifactuConfig, log zerolog.Logger) *VerifactuOrchestrator {
	if deps.Sequencer == nil {
		deps.Sequencer = NewIssuerSequencer()
	}
	return &VerifactuOrchestrator{
		hasher: verifactu.NewHashGeneratorService(),
		deps:   deps,
		cfg:    cfg,
		log:    log,
	}
}

// Environment entorno configurado.
func (o *VerifactuOrchestrator) Environment() string { return o.cfg.Environment }

// Prepare valida, calcula la huella y serializa el registro sin firmarlo ni enviarlo.
// Fija la huella en rec.
func (o *VerifactuOrchestrator) Prepare(ctx context.Context, rec entity.ChainedRecord) (*PreparedRecord, error) {
	return o.prepare(ctx, rec, o.log)
}

func (o *VerifactuOrchestrator) prepare(_ context.Context, rec entity.ChainedRecord, log zerolog.Logger) (*PreparedRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	log.Debug().Str("state", string(StateBuilt)).Msg("verifactu: registro recibido")

	if rec.CurrentHash() != "" {
		fields := verifactu.FieldErrors{}
		fields.Add(verifactu.FieldHash, "la huella ya está calculada; un registro se firma una sola vez")
		return nil, &verifactu.ValidationError{Stage: verifactu.StagePreHash, Fields: fields, Cause: verifactu.ErrHashAlreadySet}
	}
	if err := validate(rec, verifactu.StagePreHash, verifactu.FieldHash); err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StatePreValidated)).Msg("verifactu: validación previa superada")

	input, err := o.hasher.Input(rec)
	if err != nil {
		return nil, err
	}
	hash, err := o.hasher.Compute(rec)
	if err != nil {
		return nil, err
	}
	rec.SetHash(hash)
	log.Debug().Str("state", string(StateHashed)).Str("huella", hash).Msg("verifactu: huella calculada")

	// Si el registro no llega a serializarse la huella se descarta y puede reenviarse.
	if err := validate(rec, verifactu.StagePostHash); err != nil {
		rec.SetHash("")
		return nil, err
	}
	log.Debug().Str("state", string(StatePostValidated)).Msg("verifactu: validación posterior superada")

	xmlBytes, err := o.deps.Serializer.BuildRecord(rec)
	if err != nil {
		rec.SetHash("")
		return nil, fmt.Errorf("%w: %w", verifactu.ErrSerializationFailed, err)
	}
	log.Debug().Str("state", string(StateSerialized)).Int("bytes", len(xmlBytes)).Msg("verifactu: XML generado")

	return &PreparedRecord{
		Record:          rec,
		HashInput:       input,
		Hash:            hash,
		XML:             xmlBytes,
		VerificationURL: verifactu.BuildVerificationContent(rec, o.cfg.QRBaseURL),
	}, nil
}

// RegisterInvoice presenta un registro de alta.
func (o *VerifactuOrchestrator) RegisterInvoice(ctx context.Context, rec *entity.InvoiceSubmission) (*SubmissionResult, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	obligado := entity.LegalPerson{Name: rec.IssuerName, NIF: rec.ID.IssuerNIF}
	var total *decimal.Decimal
	if rec.TotalAmount.Valid {
		t := rec.TotalAmount.Decimal
		total = &t
	}
	return o.submit(ctx, rec, obligado, total)
}

// CancelInvoice presenta un registro de anulación.
func (o *VerifactuOrchestrator) CancelInvoice(ctx context.Context, rec *entity.InvoiceCancellation) (*SubmissionResult, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	obligado := entity.LegalPerson{Name: rec.IssuerName, NIF: rec.ID.IssuerNIF}
	return o.submit(ctx, rec, obligado, nil)
}

func (o *VerifactuOrchestrator) submit(ctx context.Context, rec entity.ChainedRecord, obligado entity.LegalPerson, total *decimal.Decimal) (*SubmissionResult, error) {
	correlationID := uuid.New().String()
	id := rec.Identity()
	log := o.log.With().
		Str("correlation_id", correlationID).
		Str("operation", pkgverifactu.OperationSuministroLR).
		Str("record", string(rec.Kind())).
		Str("nif", id.IssuerNIF).
		Str("num", id.SeriesNumber).
		Logger()

	release, err := o.deps.Sequencer.Acquire(ctx, id.IssuerNIF)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", verifactu.ErrTransmissionFailed, err)
	}
	defer release()

	prepared, err := o.prepare(ctx, rec, log)
	if err != nil {
		log.Warn().Err(err).Msg("verifactu: registro descartado antes del envío")
		return nil, err
	}

	signed, err := o.deps.Signer.SignRecord(ctx, prepared.XML, o.cfg.Certificate)
	if err != nil {
		log.Error().Err(err).Msg("verifactu: firma fallida")
		return nil, fmt.Errorf("%w: %w", verifactu.ErrSigningFailed, err)
	}
	log.Debug().Str("state", string(StateSigned)).Msg("verifactu: registro firmado")

	entry := &entity.SubmissionLog{
		ID:           correlationID,
		Operation:    pkgverifactu.OperationSuministroLR,
		RecordKind:   rec.Kind(),
		IssuerNIF:    id.IssuerNIF,
		SeriesNumber: id.SeriesNumber,
		IssueDate:    id.IssueDate,
		Hash:         prepared.Hash,
		TotalAmount:  total,
		RequestXML:   string(signed),
	}

	raw, err := o.deps.Transport.Send(ctx, TransportRequest{
		Operation:  pkgverifactu.OperationSuministroLR,
		PayloadKey: rec.Kind(),
		Payload:    signed,
		Obligado:   obligado,
	})
	if err != nil {
		log.Error().Err(err).Msg("verifactu: transmisión fallida")
		o.archive(ctx, log, entry, entity.SubmissionStatusFailed, err)
		return nil, fmt.Errorf("%w: %w", verifactu.ErrTransmissionFailed, err)
	}
	log.Debug().Str("state", string(StateTransmitted)).Int("bytes", len(raw)).Msg("verifactu: respuesta recibida")
	entry.ResponseXML = string(raw)

	resp, err := o.deps.Parser.ParseRegistration(raw)
	if err != nil {
		log.Error().Err(err).Msg("verifactu: respuesta no interpretable")
		o.archive(ctx, log, entry, entity.SubmissionStatusFailed, err)
		return nil, parsingError(err)
	}
	log.Debug().Str("state", string(StateParsed)).Msg("verifactu: respuesta interpretada")

	entry.CSV = resp.CSV
	status := entity.SubmissionStatusPartial
	switch {
	case resp.Accepted():
		status = entity.SubmissionStatusAccepted
		log.Info().Str("csv", resp.CSV).Msg("verifactu: registro aceptado")
	case resp.Rejected():
		status = entity.SubmissionStatusRejected
		log.Warn().Str("estado", resp.SubmissionStatus).Msg("verifactu: registro rechazado por la AEAT")
	default:
		log.Warn().Str("estado", resp.SubmissionStatus).Msg("verifactu: registro aceptado con errores")
	}
	o.archive(ctx, log, entry, status, rejectionOf(resp))

	return &SubmissionResult{
		CorrelationID:   correlationID,
		Record:          rec,
		Hash:            prepared.Hash,
		SignedXML:       signed,
		VerificationURL: prepared.VerificationURL,
		Response:        resp,
	}, nil
}

// QueryInvoices consulta los registros presentados. La consulta no se firma.
func (o *VerifactuOrchestrator) QueryInvoices(ctx context.Context, q *entity.InvoiceQuery) (*entity.QueryResponse, error) {
	if q == nil {
		return nil, fmt.Errorf("%w: consulta nula", verifactu.ErrUnsupportedRecordType)
	}
	correlationID := uuid.New().String()
	log := o.log.With().
		Str("correlation_id", correlationID).
		Str("operation", pkgverifactu.OperationConsultaLR).
		Str("nif", q.Issuer.NIF).
		Logger()
	log.Debug().Str("state", string(StateBuilt)).Msg("verifactu: consulta recibida")

	if err := validate(q, verifactu.StageQuery); err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StatePreValidated)).Msg("verifactu: consulta válida")

	xmlBytes, err := o.deps.Serializer.BuildQuery(q)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StateSerialized)).Msg("verifactu: XML de consulta generado")

	entry := &entity.SubmissionLog{
		ID:           correlationID,
		Operation:    pkgverifactu.OperationConsultaLR,
		RecordKind:   q.Kind(),
		IssuerNIF:    q.Issuer.NIF,
		SeriesNumber: q.SeriesNumber,
		RequestXML:   string(xmlBytes),
	}

	raw, err := o.deps.Transport.Send(ctx, TransportRequest{
		Operation:  pkgverifactu.OperationConsultaLR,
		PayloadKey: q.Kind(),
		Payload:    xmlBytes,
		Obligado:   q.Issuer,
	})
	if err != nil {
		log.Error().Err(err).Msg("verifactu: transmisión fallida")
		o.archive(ctx, log, entry, entity.SubmissionStatusFailed, err)
		return nil, fmt.Errorf("%w: %w", verifactu.ErrTransmissionFailed, err)
	}
	log.Debug().Str("state", string(StateTransmitted)).Msg("verifactu: respuesta recibida")
	entry.ResponseXML = string(raw)

	resp, err := o.deps.Parser.ParseQuery(raw)
	if err != nil {
		log.Error().Err(err).Msg("verifactu: respuesta no interpretable")
		o.archive(ctx, log, entry, entity.SubmissionStatusFailed, err)
		return nil, parsingError(err)
	}
	log.Info().Str("resultado", resp.Result).Int("registros", len(resp.Records)).Msg("verifactu: consulta completada")
	o.archive(ctx, log, entry, entity.SubmissionStatusQueryDone, nil)
	return resp, nil
}

// VerificationURL URL de cotejo del registro; exige la huella ya calculada.
func (o *VerifactuOrchestrator) VerificationURL(rec entity.ChainedRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	if rec.CurrentHash() == "" {
		fields := verifactu.FieldErrors{}
		fields.Add(verifactu.FieldHash, "la huella es obligatoria para el código QR")
		return "", &verifactu.ValidationError{Stage: verifactu.StagePostHash, Fields: fields}
	}
	return verifactu.BuildVerificationContent(rec, o.cfg.QRBaseURL), nil
}

// GenerateInvoiceQR dibuja el QR de cotejo del registro.
func (o *VerifactuOrchestrator) GenerateInvoiceQR(ctx context.Context, rec entity.ChainedRecord, opts QROptions) (*QRImage, error) {
	content, err := o.VerificationURL(rec)
	if err != nil {
		return nil, err
	}
	if o.deps.QR == nil {
		return nil, errors.New("verifactu: generador de QR no configurado")
	}
	return o.deps.QR.Render(ctx, content, opts)
}

// GenerateReceipt genera el justificante PDF de un alta con huella.
func (o *VerifactuOrchestrator) GenerateReceipt(ctx context.Context, rec *entity.InvoiceSubmission, csv string) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: registro nulo", verifactu.ErrUnsupportedRecordType)
	}
	url, err := o.VerificationURL(rec)
	if err != nil {
		return nil, err
	}
	if o.deps.Receipts == nil {
		return nil, errors.New("verifactu: generador de justificantes no configurado")
	}
	return o.deps.Receipts.GenerateReceipt(ctx, ReceiptData{
		Record:          rec,
		VerificationURL: url,
		CSV:             csv,
		Environment:     o.cfg.Environment,
	})
}

// archive guarda la traza del envío; un fallo solo se registra en el log.
func (o *VerifactuOrchestrator) archive(ctx context.Context, log zerolog.Logger, entry *entity.SubmissionLog, status string, cause error) {
	if o.deps.Archive == nil {
		return
	}
	entry.Status = status
	entry.CreatedAt = time.Now().UTC()
	if cause != nil {
		entry.ErrorMessage = cause.Error()
	}
	if err := o.deps.Archive.Save(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn().Err(err).Msg("verifactu: no se pudo archivar el envío")
	}
}

func validate(rec entity.Record, stage string, excluded ...string) error {
	fields, err := verifactu.Validate(rec, excluded...)
	if err != nil {
		return err
	}
	if fields != nil {
		return &verifactu.ValidationError{Stage: stage, Fields: fields}
	}
	return nil
}

func parsingError(err error) error {
	if errors.Is(err, verifactu.ErrParsingFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", verifactu.ErrParsingFailed, err)
}

// rejectionOf resume los errores por línea de una respuesta no aceptada.
func rejectionOf(resp *entity.InvoiceResponse) error {
	if resp.Accepted() {
		return nil
	}
	for _, l := range resp.Lines {
		if l.ErrorCode != "" {
			return fmt.Errorf("%s: [%s] %s", resp.SubmissionStatus, l.ErrorCode, l.ErrorDescription)
		}
	}
	return errors.New(resp.SubmissionStatus)
}
