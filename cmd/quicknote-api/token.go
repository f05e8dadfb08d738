package main

import (
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
	"github.com/MarcoPoloResearchLab/quicknote/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newTokenCommand mints a session token for API clients such as the terminal UI.
func newTokenCommand() *cobra.Command {
	var (
		subject  string
		provider string
		name     string
		email    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for API clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
				SigningSecret: []byte(appConfig.SigningSecret),
				Issuer:        appConfig.SessionIssuer,
				Audience:      appConfig.SessionAudience,
				TokenTTL:      appConfig.TokenTTL,
			})
			if err != nil {
				return err
			}

			subject = strings.TrimSpace(subject)
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			userID := subject
			if provider = strings.TrimSpace(provider); provider != "" {
				userID = provider + ":" + subject
			}
			token, expiresIn, err := issuer.IssueSessionToken(cmd.Context(), auth.SessionClaims{
				UserID:           userID,
				UserEmail:        email,
				UserDisplayName:  name,
				RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires in %ds\n", expiresIn)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "User subject identifier")
	cmd.Flags().StringVar(&provider, "provider", auth.GoogleProvider, "Identity provider prefix")
	cmd.Flags().StringVar(&name, "name", "", "Display name stamped on authored notes")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	return cmd
}
