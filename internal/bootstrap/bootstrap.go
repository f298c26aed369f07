// Package bootstrap arma el orquestador VERI*FACTU y sus adaptadores a partir de la configuración.
// Lo comparten el servidor HTTP y la CLI.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/repository"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/aeat"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/aeat/signer"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/pdf"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/postgres"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/qr"
	"github.com/jhoicas/verifactu-api/pkg/config"
)

// Services resultado del arranque. Submissions es nil sin base de datos.
type Services struct {
	Orchestrator *billing.VerifactuOrchestrator
	Submissions  repository.SubmissionLogRepository
	Transport    *aeat.SOAPClient
	close        []func()
}

// Close libera el pool de base de datos, si existe.
func (s *Services) Close() {
	for _, fn := range s.close {
		fn()
	}
}

// Build crea los adaptadores y el orquestador. Sin certificado el cliente SOAP
// sale sin TLS mutuo: la AEAT rechazará los envíos, pero huella, XML, QR y
// justificantes siguen disponibles.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Services, error) {
	vc := cfg.Verifactu
	ref := billing.CertificateRef{Path: vc.CertPath, KeyPath: vc.CertKeyPath, Password: vc.CertPassword}
	fileSigner := signer.NewFileSigner(signer.NewDigitalSignatureService())

	out := &Services{}
	if vc.CertPath != "" {
		cert, err := fileSigner.Certificate(ref)
		if err != nil {
			return nil, fmt.Errorf("certificado VERI*FACTU: %w", err)
		}
		out.Transport = aeat.NewSOAPClient(vc.SOAPURL, cert, vc.Timeout)
	} else {
		log.Warn().Msg("verifactu: sin certificado; los envíos a la AEAT fallarán")
		out.Transport = aeat.NewSOAPClientWithHTTP(vc.SOAPURL, &http.Client{Timeout: vc.Timeout})
	}

	deps := billing.OrchestratorDeps{
		Serializer: aeat.NewXMLBuilderService(),
		Signer:     fileSigner,
		Transport:  out.Transport,
		Parser:     aeat.NewResponseParserService(),
		QR:         qr.NewRenderer(),
		Receipts:   pdf.NewMarotoPDFGenerator(),
	}

	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		out.close = append(out.close, pool.Close)
		repo := postgres.NewSubmissionLogRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			out.Close()
			return nil, fmt.Errorf("esquema verifactu_submissions: %w", err)
		}
		deps.Archive = repo
		out.Submissions = repo
	}

	out.Orchestrator = billing.NewVerifactuOrchestrator(deps, billing.VerifactuConfig{
		Environment: vc.Environment,
		QRBaseURL:   vc.QRBaseURL,
		Certificate: ref,
	}, log)

	log.Info().
		Str("environment", vc.Environment).
		Str("cert_type", vc.CertType).
		Str("endpoint", out.Transport.Endpoint()).
		Bool("archive", out.Submissions != nil).
		Msg("verifactu: orquestador listo")
	return out, nil
}
