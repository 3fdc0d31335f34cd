package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opsdesk/reservations-backend/internal/reservations"
)

func newHoldsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holds",
		Short: "Hold inspection",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Count active holds whose TTL has passed, per tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rt.database(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := reservations.NewRepository(client.DB()).CountLapsedHolds(cmd.Context(), rt.now().UTC())
			if err != nil {
				return err
			}
			tw := rt.table()
			fmt.Fprintln(tw, "TENANT\tLAPSED")
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%d\n", row.TenantID, row.Count)
			}
			return tw.Flush()
		},
	})
	return cmd
}
