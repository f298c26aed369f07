package cmd

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/aeat"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/pdf"
	"github.com/jhoicas/verifactu-api/internal/infrastructure/qr"
	"github.com/jhoicas/verifactu-api/pkg/config"
	"github.com/jhoicas/verifactu-api/pkg/logger"
)

var version = "1.0.0"

// options flags globales.
type options struct {
	verbose bool
	charset string
}

// NewRootCmd construye el árbol de comandos.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "verifactu",
		Short: "Registros VERI*FACTU: huella, XML, QR y envío a la AEAT",
		Long: `verifactu calcula la huella encadenada de registros de facturación,
genera el XML de la AEAT, dibuja el QR de cotejo y presenta altas,
anulaciones y consultas en el servicio VerifactuSOAP.

Los registros se leen de archivos JSON con el mismo formato que la API HTTP.

Examples:
  # Huella y URL de cotejo de un alta, sin enviar nada
  verifactu hash alta.json

  # XML de una anulación leída en Windows-1252
  verifactu xml --type cancellation --charset windows-1252 anulacion.json

  # QR en SVG en ./qr
  verifactu qr --format svg --out-dir ./qr alta_con_huella.json

  # Presentar un alta (VERIFACTU_CERT_PATH y VERIFACTU_ENVIRONMENT)
  verifactu register alta.json

  # Token de emisor para la API (JWT_SECRET)
  verifactu token --nif B12345678 --role emisor`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log de cada etapa del ciclo en stderr")
	root.PersistentFlags().StringVar(&opts.charset, "charset", "utf-8", "Codificación de los archivos de entrada (utf-8, windows-1252, iso-8859-1)")

	root.AddCommand(
		newHashCmd(opts),
		newXMLCmd(opts),
		newQRCmd(opts),
		newReceiptCmd(opts),
		newSubmitCmd(opts, submitRegister),
		newSubmitCmd(opts, submitCancel),
		newQueryCmd(opts),
		newTokenCmd(),
	)
	return root
}

// Execute ejecuta la CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) logger(cmd *cobra.Command) zerolog.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Service: "verifactu-cli", Env: "development", Level: level, Out: cmd.ErrOrStderr()}).Zerolog()
}

// offlineOrchestrator orquestador sin transporte: huella, XML, QR y justificante.
func (o *options) offlineOrchestrator(cmd *cobra.Command) (*billing.VerifactuOrchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return billing.NewVerifactuOrchestrator(billing.OrchestratorDeps{
		Serializer: aeat.NewXMLBuilderService(),
		QR:         qr.NewRenderer(),
		Receipts:   pdf.NewMarotoPDFGenerator(),
	}, billing.VerifactuConfig{
		Environment: cfg.Verifactu.Environment,
		QRBaseURL:   cfg.Verifactu.QRBaseURL,
	}, o.logger(cmd)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
