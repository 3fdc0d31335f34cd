package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bookingctl",
		Short:        "Operator tooling for the reservations service",
		SilenceUsage: true,
	}
	cmd.SetOut(rt.out)
	cmd.AddCommand(newResourcesCmd(rt))
	cmd.AddCommand(newHoldsCmd(rt))
	cmd.AddCommand(newOutboxCmd(rt))
	cmd.AddCommand(newAuditCmd(rt))
	cmd.AddCommand(newTokenCmd(rt))
	return cmd
}

func (rt *runtime) table() *tabwriter.Writer {
	return tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
}

func parseTenant(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--tenant must be a uuid")
	}
	return id, nil
}
