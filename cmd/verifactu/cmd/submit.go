package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/application/dto"
	"github.com/jhoicas/verifactu-api/internal/bootstrap"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
	"github.com/jhoicas/verifactu-api/pkg/config"
)

type submitKind struct {
	use, short, kind string
	run              func(ctx context.Context, o *billing.VerifactuOrchestrator, rec entity.ChainedRecord) (*billing.SubmissionResult, error)
}

var (
	submitRegister = submitKind{
		use:   "register <alta.json>",
		short: "Presenta un registro de alta en la AEAT",
		kind:  kindInvoice,
		run: func(ctx context.Context, o *billing.VerifactuOrchestrator, rec entity.ChainedRecord) (*billing.SubmissionResult, error) {
			return o.RegisterInvoice(ctx, rec.(*entity.InvoiceSubmission))
		},
	}
	submitCancel = submitKind{
		use:   "cancel <anulacion.json>",
		short: "Presenta un registro de anulación en la AEAT",
		kind:  kindCancellation,
		run: func(ctx context.Context, o *billing.VerifactuOrchestrator, rec entity.ChainedRecord) (*billing.SubmissionResult, error) {
			return o.CancelInvoice(ctx, rec.(*entity.InvoiceCancellation))
		},
	}
)

// withServices arranca el orquestador completo (certificado, SOAP y archivo) para un comando.
func withServices(cmd *cobra.Command, opts *options, fn func(*bootstrap.Services) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc, err := bootstrap.Build(cmd.Context(), cfg, opts.logger(cmd))
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}

func newSubmitCmd(opts *options, k submitKind) *cobra.Command {
	return &cobra.Command{
		Use:   k.use,
		Short: k.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := loadRecord(args[0], k.kind, opts.charset, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withServices(cmd, opts, func(svc *bootstrap.Services) error {
				res, err := k.run(cmd.Context(), svc.Orchestrator, rec)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), dto.NewSubmissionResponse(res.CorrelationID, res.Hash, res.VerificationURL, res.Response)); err != nil {
					return err
				}
				if res.Response.Rejected() {
					return fmt.Errorf("la AEAT rechazó el envío (%s)", res.Response.SubmissionStatus)
				}
				return nil
			})
		},
	}
}

func newQueryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "query <consulta.json>",
		Short: "Consulta los registros presentados de un periodo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in dto.InvoiceQueryRequest
			if err := decodeJSON(args[0], opts.charset, cmd.InOrStdin(), &in); err != nil {
				return err
			}
			return withServices(cmd, opts, func(svc *bootstrap.Services) error {
				resp, err := svc.Orchestrator.QueryInvoices(cmd.Context(), in.ToEntity())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.NewQueryResponse(resp))
			})
		},
	}
}
