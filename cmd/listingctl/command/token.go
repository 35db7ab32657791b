package command

import (
	"fmt"

	"github.com/property-listing-api/internal/config"
	jwtinfra "github.com/property-listing-api/internal/infrastructure/jwt"
	"github.com/spf13/cobra"
)

func TokenCommand() *cobra.Command {
	var role, subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator JWT",
		Long:  "Sign an RS256 token for the scheduler or an admin with the key at JWT_PRIVATE_KEY_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkRole(role); err != nil {
				return err
			}
			cfg, err := config.LoadJWT()
			if err != nil {
				return err
			}
			p, err := jwtinfra.NewProvider(cfg)
			if err != nil {
				return err
			}
			tok, err := p.Sign(subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", jwtinfra.RoleScheduler, "token role: scheduler or admin")
	cmd.Flags().StringVar(&subject, "subject", "listingctl", "token subject")
	return cmd
}

func checkRole(role string) error {
	switch role {
	case jwtinfra.RoleScheduler, jwtinfra.RoleAdmin:
		return nil
	default:
		return fmt.Errorf("unknown role %q (want %s or %s)", role, jwtinfra.RoleScheduler, jwtinfra.RoleAdmin)
	}
}
