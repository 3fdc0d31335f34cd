package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdesk/reservations-backend/internal/audit"
	"github.com/opsdesk/reservations-backend/pkg/enums"
)

func newAuditCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail inspection",
	}

	var tenant, entity, action, since string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			filter := audit.Filter{Limit: limit}
			if entity != "" {
				id, err := uuid.Parse(entity)
				if err != nil {
					return fmt.Errorf("--entity must be a uuid")
				}
				filter.EntityID = &id
			}
			if action != "" {
				parsed, err := enums.ParseAuditAction(action)
				if err != nil {
					return err
				}
				filter.Action = &parsed
			}
			if since != "" {
				at, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("--since must be RFC 3339")
				}
				filter.Since = &at
			}

			client, err := rt.database(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := audit.NewRecorder(client.DB()).List(cmd.Context(), tenantID, filter)
			if err != nil {
				return err
			}
			tw := rt.table()
			fmt.Fprintln(tw, "AT\tACTOR\tACTION\tENTITY")
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%s\n", row.CreatedAt.UTC().Format(time.RFC3339), row.Actor, row.Action, row.EntityType, row.EntityID)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	list.Flags().StringVar(&entity, "entity", "", "reservation id")
	list.Flags().StringVar(&action, "action", "", "create, confirm, reschedule, cancel, extend or release")
	list.Flags().StringVar(&since, "since", "", "RFC 3339 lower bound")
	list.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	_ = list.MarkFlagRequired("tenant")
	cmd.AddCommand(list)
	return cmd
}
