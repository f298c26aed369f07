package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/verifactu-api/pkg/config"
	"github.com/jhoicas/verifactu-api/pkg/jwt"
)

// newTokenCmd emite un JWT para la API con el secreto de JWT_SECRET.
func newTokenCmd() *cobra.Command {
	var (
		nif     string
		role    string
		userID  string
		minutes int
	)
	c := &cobra.Command{
		Use:   "token",
		Short: "Emite un token de acceso a la API para un NIF obligado",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			nif = strings.ToUpper(strings.TrimSpace(nif))
			if nif == "" {
				return fmt.Errorf("--nif es obligatorio")
			}
			if role != jwt.RoleIssuer && role != jwt.RoleAuditor {
				return fmt.Errorf("rol %q no soportado (emisor, auditor)", role)
			}
			if userID == "" {
				userID = uuid.New().String()
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, nif, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	c.Flags().StringVar(&nif, "nif", "", "NIF del obligado tributario")
	c.Flags().StringVar(&role, "role", jwt.RoleIssuer, "Rol: emisor o auditor")
	c.Flags().StringVar(&userID, "user", "", "Identificador del usuario (UUID aleatorio si se omite)")
	c.Flags().IntVar(&minutes, "minutes", 0, "Validez en minutos (JWT_EXPIRATION_MINUTES si se omite)")
	return c
}
