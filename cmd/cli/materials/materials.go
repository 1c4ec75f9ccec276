package materials

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/trade-tracker/cmd/cli/client"
	"github.com/crucial707/trade-tracker/cmd/cli/output"
	"github.com/crucial707/trade-tracker/internal/models"
)

// InitMaterials registers the materials command group.
func InitMaterials(rootCmd *cobra.Command) {
	materialsCmd := &cobra.Command{
		Use:   "materials",
		Short: "Manage consumable stock",
	}
	materialsCmd.AddCommand(listCmd(), createCmd(), updateCmd(), adjustCmd(), deleteCmd())
	rootCmd.AddCommand(materialsCmd)
}

func listCmd() *cobra.Command {
	var reorder, jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			path := "/materials"
			if reorder {
				path += "?reorder=true"
			}
			var ms []models.MaterialView
			if err := c.Do("GET", path, nil, &ms); err != nil {
				return err
			}
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), ms)
			}
			rows := make([][]interface{}, 0, len(ms))
			for _, m := range ms {
				flag := ""
				if m.NeedsReorder {
					flag = "REORDER"
				}
				rows = append(rows, []interface{}{m.ID, m.Name, m.Quantity, m.Unit, m.MinStock, flag})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Qty", "Unit", "Min", ""}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reorder, "reorder", false, "only materials at or below minimum stock")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
	return cmd
}

func createCmd() *cobra.Command {
	var name, unit string
	var quantity, minStock int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a material",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			payload := map[string]any{"name": name, "unit": unit, "quantity": quantity}
			if cmd.Flags().Changed("min-stock") {
				payload["min_stock"] = minStock
			}
			var m models.MaterialView
			if err := c.Do("POST", "/materials", payload, &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created material %d: %s, %d %s (min %d)\n", m.ID, m.Name, m.Quantity, m.Unit, m.MinStock)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "material name")
	cmd.Flags().StringVar(&unit, "unit", "", "unit of measure (default box)")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "starting quantity")
	cmd.Flags().IntVar(&minStock, "min-stock", 0, "reorder threshold (default 5)")
	cmd.MarkFlagRequired("name")
	return cmd
}

// updateCmd sends only the flags that were set.
func updateCmd() *cobra.Command {
	var name, unit string
	var minStock int
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Rename a material or change its unit or reorder threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			payload := map[string]any{}
			if cmd.Flags().Changed("name") {
				payload["name"] = name
			}
			if cmd.Flags().Changed("unit") {
				payload["unit"] = unit
			}
			if cmd.Flags().Changed("min-stock") {
				payload["min_stock"] = minStock
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update: set --name, --unit or --min-stock")
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var m models.MaterialView
			if err := c.Do("PATCH", fmt.Sprintf("/materials/%d", id), payload, &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated material %d: %s, %d %s (min %d)\n", m.ID, m.Name, m.Quantity, m.Unit, m.MinStock)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&unit, "unit", "", "new unit of measure")
	cmd.Flags().IntVar(&minStock, "min-stock", 0, "new reorder threshold")
	return cmd
}

func adjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust [id] [delta]",
		Short: "Add to or remove from stock, e.g. adjust 3 -- -10",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var m models.MaterialView
			if err := c.Do("POST", fmt.Sprintf("/materials/%d/adjust", id), map[string]int{"delta": delta}, &m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s\n", m.Name, m.Quantity, m.Unit)
			if m.NeedsReorder {
				fmt.Fprintf(cmd.OutOrStdout(), "at or below minimum stock (%d), reorder\n", m.MinStock)
			}
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			if err := c.Do("DELETE", fmt.Sprintf("/materials/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Material %d deleted\n", id)
			return nil
		},
	}
}
