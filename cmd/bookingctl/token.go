package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdesk/reservations-backend/pkg/auth"
	"github.com/opsdesk/reservations-backend/pkg/auth/revocation"
	"github.com/opsdesk/reservations-backend/pkg/enums"
)

func newTokenCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token management",
	}
	cmd.AddCommand(newTokenMintCmd(rt))
	cmd.AddCommand(newTokenRevokeCmd(rt))
	return cmd
}

func newTokenMintCmd(rt *runtime) *cobra.Command {
	var tenant, user, role string
	c := &cobra.Command{
		Use:   "mint",
		Short: "Issue an access token for a tenant principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			userID := uuid.New()
			if user != "" {
				if userID, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("--user must be a uuid")
				}
			}
			parsedRole, err := enums.ParseRole(role)
			if err != nil {
				return err
			}
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			token, err := auth.MintAccessToken(cfg.JWT, rt.now(), auth.AccessTokenPayload{
				TenantID: tenantID,
				UserID:   userID,
				Role:     parsedRole,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(rt.out, token)
			return nil
		},
	}
	c.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	c.Flags().StringVar(&user, "user", "", "user id (random when omitted)")
	c.Flags().StringVar(&role, "role", string(enums.RoleOperator), "admin, operator or viewer")
	_ = c.MarkFlagRequired("tenant")
	return c
}

func newTokenRevokeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <token>",
		Short: "Deny an access token until it expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.config()
			if err != nil {
				return err
			}
			claims, err := auth.ParseAccessToken(cfg.JWT, strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("token rejected: %w", err)
			}
			client, err := rt.redisConn(cmd.Context())
			if err != nil {
				return err
			}
			denylist, err := revocation.NewDenylist(client, cfg.JWT.TokenTTL())
			if err != nil {
				return err
			}
			if err := denylist.Revoke(cmd.Context(), claims.ID, rt.now(), claims.ExpiresAt.Time); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "revoked %s\n", claims.ID)
			return nil
		},
	}
}
