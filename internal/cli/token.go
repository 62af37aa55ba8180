package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"quiz-attempt-service/internal/auth"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
)

// NewTokenCmd mints a bearer token signed with the configured secret, for
// local testing without the external auth service.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		email string
		name  string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("auth secret not configured")
			}
			token, err := auth.Issue(cfg.Auth.Secret, domain.Identity{
				Email: email,
				Name:  name,
				Role:  domain.Role(role),
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "caller email (required)")
	cmd.Flags().StringVar(&name, "name", "", "caller display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleUser), "caller role: user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
