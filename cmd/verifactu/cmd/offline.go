package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/application/dto"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

func newHashCmd(opts *options) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "hash <archivo.json>",
		Short: "Calcula la huella y la URL de cotejo sin enviar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := opts.offlineOrchestrator(cmd)
			if err != nil {
				return err
			}
			rec, err := loadRecord(args[0], kind, opts.charset, cmd.InOrStdin())
			if err != nil {
				return err
			}
			prepared, err := orch.Prepare(cmd.Context(), rec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.HashResponse{
				HashInput:       prepared.HashInput,
				Hash:            prepared.Hash,
				VerificationURL: prepared.VerificationURL,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "type", kindInvoice, "Tipo de registro (invoice, cancellation)")
	return cmd
}

func newXMLCmd(opts *options) *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "xml <archivo.json>",
		Short: "Genera el XML del registro (sin firmar) con la huella calculada",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := opts.offlineOrchestrator(cmd)
			if err != nil {
				return err
			}
			rec, err := loadRecord(args[0], kind, opts.charset, cmd.InOrStdin())
			if err != nil {
				return err
			}
			prepared, err := orch.Prepare(cmd.Context(), rec)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(prepared.XML)
				return err
			}
			return os.WriteFile(out, prepared.XML, 0o644)
		},
	}
	cmd.Flags().StringVar(&kind, "type", kindInvoice, "Tipo de registro (invoice, cancellation)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Archivo de salida (por defecto stdout)")
	return cmd
}

func newQRCmd(opts *options) *cobra.Command {
	var (
		kind, format, dir string
		size              int
	)
	cmd := &cobra.Command{
		Use:   "qr <archivo.json>",
		Short: "Dibuja el QR de cotejo de un registro con huella",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := opts.offlineOrchestrator(cmd)
			if err != nil {
				return err
			}
			rec, err := loadRecord(args[0], kind, opts.charset, cmd.InOrStdin())
			if err != nil {
				return err
			}
			img, err := orch.GenerateInvoiceQR(cmd.Context(), rec, billing.QROptions{
				Size:        size,
				Format:      format,
				Destination: billing.QRDestinationFile,
				Dir:         dir,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), img.Path)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "type", kindInvoice, "Tipo de registro (invoice, cancellation)")
	cmd.Flags().StringVar(&format, "format", billing.QRFormatPNG, "Formato (png, svg)")
	cmd.Flags().IntVar(&size, "size", billing.DefaultQRSize, "Lado en píxeles")
	cmd.Flags().StringVar(&dir, "out-dir", ".", "Directorio de salida")
	return cmd
}

func newReceiptCmd(opts *options) *cobra.Command {
	var csv, out string
	cmd := &cobra.Command{
		Use:   "receipt <alta_con_huella.json>",
		Short: "Genera el justificante PDF con el QR de cotejo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := opts.offlineOrchestrator(cmd)
			if err != nil {
				return err
			}
			rec, err := loadRecord(args[0], kindInvoice, opts.charset, cmd.InOrStdin())
			if err != nil {
				return err
			}
			pdf, err := orch.GenerateReceipt(cmd.Context(), rec.(*entity.InvoiceSubmission), csv)
			if err != nil {
				return err
			}
			return os.WriteFile(out, pdf, 0o644)
		},
	}
	cmd.Flags().StringVar(&csv, "csv", "", "CSV devuelto por la AEAT")
	cmd.Flags().StringVarP(&out, "output", "o", "justificante.pdf", "Archivo PDF de salida")
	return cmd
}
