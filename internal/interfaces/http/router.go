package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/repository"
	"github.com/jhoicas/verifactu-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orchestrator *billing.VerifactuOrchestrator
	Submissions  repository.SubmissionLogRepository // opcional
	JWTSecret    string
	Log          zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token con NIF)
	protected := api.Group("/verifactu", AuthMiddleware(deps.JWTSecret))
	h := NewVerifactuHandler(deps.Orchestrator, deps.Submissions, deps.Log)

	// Altas y anulaciones: solo el emisor
	issuerOnly := RequireRole(jwt.RoleIssuer)
	protected.Post("/invoices", issuerOnly, h.RegisterInvoice)
	protected.Post("/cancellations", issuerOnly, h.CancelInvoice)

	// Consulta, cotejo y archivo
	anyRole := RequireRole(jwt.RoleIssuer, jwt.RoleAuditor)
	protected.Post("/queries", anyRole, h.QueryInvoices)
	protected.Post("/hash", anyRole, h.Hash)
	protected.Post("/qr", anyRole, h.QR)
	protected.Post("/receipts", anyRole, h.Receipt)
	protected.Get("/submissions", anyRole, h.ListSubmissions)
}
