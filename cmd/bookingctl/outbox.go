package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdesk/reservations-backend/pkg/outbox"
)

func newOutboxCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Outbox inspection",
	}

	var tenant string
	var limit int
	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "List dead-lettered events",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tenantID *uuid.UUID
			if tenant != "" {
				id, err := parseTenant(tenant)
				if err != nil {
					return err
				}
				tenantID = &id
			}
			client, err := rt.database(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := outbox.NewDLQRepository(client.DB()).List(cmd.Context(), tenantID, limit)
			if err != nil {
				return err
			}
			tw := rt.table()
			fmt.Fprintln(tw, "EVENT\tTENANT\tTYPE\tREASON\tATTEMPTS\tFAILED_AT")
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					row.EventID, row.TenantID, row.EventType, row.ErrorReason, row.AttemptCount, row.FailedAt.UTC().Format("2006-01-02T15:04:05Z"))
			}
			return tw.Flush()
		},
	}
	dlq.Flags().StringVar(&tenant, "tenant", "", "restrict to one tenant")
	dlq.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	cmd.AddCommand(dlq)
	return cmd
}
