package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsdesk/reservations-backend/internal/resources"
)

func newResourcesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Resource registry management",
	}
	cmd.AddCommand(newResourcesAddCmd(rt))
	cmd.AddCommand(newResourcesSetActiveCmd(rt, "activate", true))
	cmd.AddCommand(newResourcesSetActiveCmd(rt, "deactivate", false))
	cmd.AddCommand(newResourcesListCmd(rt))
	return cmd
}

func (rt *runtime) resourceAdmin(cmd *cobra.Command) (*resources.Admin, error) {
	client, err := rt.database(cmd.Context())
	if err != nil {
		return nil, err
	}
	return resources.NewAdmin(resources.NewRepository(client.DB())), nil
}

func newResourcesAddCmd(rt *runtime) *cobra.Command {
	var tenant, resourceType, name string
	c := &cobra.Command{
		Use:   "add",
		Short: "Register a bookable resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			admin, err := rt.resourceAdmin(cmd)
			if err != nil {
				return err
			}
			res, err := admin.Add(cmd.Context(), tenantID, resourceType, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(rt.out, res.ID.String())
			return nil
		},
	}
	c.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	c.Flags().StringVar(&resourceType, "type", "", "resource type, e.g. room")
	c.Flags().StringVar(&name, "name", "", "display name")
	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("type")
	_ = c.MarkFlagRequired("name")
	return c
}

func newResourcesSetActiveCmd(rt *runtime, use string, active bool) *cobra.Command {
	var tenant string
	c := &cobra.Command{
		Use:   use + " <resource-id>",
		Short: "Mark a resource " + map[bool]string{true: "active", false: "inactive"}[active],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("resource id must be a uuid")
			}
			admin, err := rt.resourceAdmin(cmd)
			if err != nil {
				return err
			}
			if err := admin.SetActive(cmd.Context(), tenantID, id, active); err != nil {
				return err
			}
			fmt.Fprintf(rt.out, "%s active=%t\n", id, active)
			return nil
		},
	}
	c.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	_ = c.MarkFlagRequired("tenant")
	return c
}

func newResourcesListCmd(rt *runtime) *cobra.Command {
	var tenant string
	var activeOnly bool
	c := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			admin, err := rt.resourceAdmin(cmd)
			if err != nil {
				return err
			}
			rows, err := admin.List(cmd.Context(), tenantID, activeOnly)
			if err != nil {
				return err
			}
			tw := rt.table()
			fmt.Fprintln(tw, "ID\tTYPE\tNAME\tACTIVE")
			for _, row := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", row.ID, row.Type, row.Name, row.Active)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	c.Flags().BoolVar(&activeOnly, "active-only", false, "hide deactivated resources")
	_ = c.MarkFlagRequired("tenant")
	return c
}
