package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/application/dto"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/internal/domain/repository"
	"github.com/jhoicas/verifactu-api/internal/domain/verifactu"
)

// VerifactuHandler expone el ciclo VERI*FACTU por HTTP (protegido).
type VerifactuHandler struct {
	orch        *billing.VerifactuOrchestrator
	submissions repository.SubmissionLogRepository
	log         zerolog.Logger
}

// NewVerifactuHandler construye el handler. submissions puede ser nil (sin archivo).
func NewVerifactuHandler(orch *billing.VerifactuOrchestrator, submissions repository.SubmissionLogRepository, log zerolog.Logger) *VerifactuHandler {
	return &VerifactuHandler{orch: orch, submissions: submissions, log: log}
}

// RegisterInvoice presenta un registro de alta.
// POST /api/verifactu/invoices
func (h *VerifactuHandler) RegisterInvoice(c *fiber.Ctx) error {
	var in dto.InvoiceSubmissionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ownsNIF(c, in.ID.IssuerNIF) {
		return forbiddenNIF(c)
	}
	res, err := h.orch.RegisterInvoice(c.Context(), in.ToEntity())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(submissionStatus(res.Response)).JSON(
		dto.NewSubmissionResponse(res.CorrelationID, res.Hash, res.VerificationURL, res.Response))
}

// CancelInvoice presenta un registro de anulación.
// POST /api/verifactu/cancellations
func (h *VerifactuHandler) CancelInvoice(c *fiber.Ctx) error {
	var in dto.InvoiceCancellationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ownsNIF(c, in.ID.IssuerNIF) {
		return forbiddenNIF(c)
	}
	res, err := h.orch.CancelInvoice(c.Context(), in.ToEntity())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(submissionStatus(res.Response)).JSON(
		dto.NewSubmissionResponse(res.CorrelationID, res.Hash, res.VerificationURL, res.Response))
}

// QueryInvoices consulta los registros presentados por el NIF del token.
// POST /api/verifactu/queries
func (h *VerifactuHandler) QueryInvoices(c *fiber.Ctx) error {
	var in dto.InvoiceQueryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ownsNIF(c, in.Issuer.NIF) {
		return forbiddenNIF(c)
	}
	resp, err := h.orch.QueryInvoices(c.Context(), in.ToEntity())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.NewQueryResponse(resp))
}

// Hash calcula la huella y el XML sin firmar ni enviar. ?type=cancellation para anulaciones.
// POST /api/verifactu/hash
func (h *VerifactuHandler) Hash(c *fiber.Ctx) error {
	var (
		rec entity.ChainedRecord
		nif string
	)
	switch strings.ToLower(c.Query("type", "invoice")) {
	case "invoice":
		var in dto.InvoiceSubmissionRequest
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
		rec, nif = in.ToEntity(), in.ID.IssuerNIF
	case "cancellation":
		var in dto.InvoiceCancellationRequest
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
		rec, nif = in.ToEntity(), in.ID.IssuerNIF
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "type debe ser invoice o cancellation"})
	}
	if !ownsNIF(c, nif) {
		return forbiddenNIF(c)
	}
	prepared, err := h.orch.Prepare(c.Context(), rec)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.HashResponse{
		HashInput:       prepared.HashInput,
		Hash:            prepared.Hash,
		VerificationURL: prepared.VerificationURL,
		XML:             string(prepared.XML),
	})
}

// QR devuelve el código QR de cotejo como imagen, o en JSON con ?encoding=base64.
// POST /api/verifactu/qr
func (h *VerifactuHandler) QR(c *fiber.Ctx) error {
	var in dto.QRRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ownsNIF(c, in.ID.IssuerNIF) {
		return forbiddenNIF(c)
	}
	format := strings.ToLower(strings.TrimSpace(in.Format))
	if format == "" {
		format = billing.QRFormatPNG
	}
	if format != billing.QRFormatPNG && format != billing.QRFormatSVG {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "format debe ser png o svg"})
	}
	if in.Size < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "size no puede ser negativo"})
	}

	rec := in.ToEntity()
	img, err := h.orch.GenerateInvoiceQR(c.Context(), rec, billing.QROptions{
		Size:        in.Size,
		Format:      format,
		Destination: billing.QRDestinationMemory,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	if c.Query("encoding") == "base64" {
		url, _ := h.orch.VerificationURL(rec)
		return c.JSON(dto.QRResponse{Format: img.Format, VerificationURL: url, Content: img.Content})
	}
	if img.Format == billing.QRFormatSVG {
		c.Set(fiber.HeaderContentType, "image/svg+xml")
	} else {
		c.Set(fiber.HeaderContentType, "image/png")
	}
	return c.Send(img.Content)
}

// Receipt genera el justificante PDF de un alta con huella.
// POST /api/verifactu/receipts
func (h *VerifactuHandler) Receipt(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ownsNIF(c, in.Invoice.ID.IssuerNIF) {
		return forbiddenNIF(c)
	}
	pdf, err := h.orch.GenerateReceipt(c.Context(), in.Invoice.ToEntity(), in.CSV)
	if err != nil {
		return h.writeError(c, err)
	}
	name := strings.NewReplacer("/", "-", "\\", "-", "\"", "").Replace(in.Invoice.ID.SeriesNumber)
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="verifactu_%s.pdf"`, name))
	return c.Send(pdf)
}

// ListSubmissions devuelve el archivo de envíos del NIF del token.
// GET /api/verifactu/submissions?limit=50
func (h *VerifactuHandler) ListSubmissions(c *fiber.Ctx) error {
	if h.submissions == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "ARCHIVE_DISABLED", Message: "archivo de envíos no configurado"})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50)}
	page.DefaultPage()
	logs, err := h.submissions.ListByIssuer(c.Context(), GetNIF(c), page.Limit)
	if err != nil {
		h.log.Error().Err(err).Str("nif", GetNIF(c)).Msg("listar envíos")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo leer el archivo"})
	}
	out := dto.SubmissionLogListResponse{Items: make([]dto.SubmissionLogResponse, 0, len(logs)), Page: dto.PageResponse{Limit: page.Limit}}
	for _, l := range logs {
		out.Items = append(out.Items, dto.NewSubmissionLogResponse(l))
	}
	out.Page.Total = len(out.Items)
	return c.JSON(out)
}

// writeError traduce las categorías de error del ciclo a respuestas HTTP.
func (h *VerifactuHandler) writeError(c *fiber.Ctx, err error) error {
	var vErr *verifactu.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: vErr.Error(),
			Stage:   vErr.Stage,
			Fields:  vErr.Fields,
		})
	case errors.Is(err, verifactu.ErrUnsupportedRecordType):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNSUPPORTED_RECORD", Message: err.Error()})
	case errors.Is(err, verifactu.ErrTransmissionFailed):
		h.log.Warn().Err(err).Msg("verifactu: envío no completado")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "TRANSMISSION", Message: err.Error()})
	case errors.Is(err, verifactu.ErrParsingFailed):
		h.log.Warn().Err(err).Msg("verifactu: respuesta AEAT no interpretable")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "INVALID_RESPONSE", Message: err.Error()})
	case errors.Is(err, verifactu.ErrSigningFailed):
		h.log.Error().Err(err).Msg("verifactu: firma fallida")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "SIGNING", Message: "no se pudo firmar el registro"})
	case errors.Is(err, verifactu.ErrSerializationFailed):
		h.log.Error().Err(err).Msg("verifactu: serialización fallida")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo generar el XML del registro"})
	default:
		h.log.Error().Err(err).Msg("verifactu: error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func forbiddenNIF(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el NIF del registro no coincide con el del token"})
}

// submissionStatus 201 si la AEAT aceptó todo; 200 para aceptaciones parciales y rechazos.
func submissionStatus(resp *entity.InvoiceResponse) int {
	if resp != nil && resp.Accepted() {
		return fiber.StatusCreated
	}
	return fiber.StatusOK
}
