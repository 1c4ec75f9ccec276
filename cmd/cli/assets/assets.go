package assets

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/trade-tracker/cmd/cli/client"
	"github.com/crucial707/trade-tracker/cmd/cli/output"
	"github.com/crucial707/trade-tracker/internal/lifecycle"
	"github.com/crucial707/trade-tracker/internal/models"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage assets",
	}

	assetsCmd.AddCommand(
		listAssetsCmd(),
		getAssetCmd(),
		createAssetCmd(),
		checkoutCmd(),
		checkinCmd(),
		serialCmd(),
		deleteAssetCmd(),
		historyCmd(),
		reportCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

func renderAssets(cmd *cobra.Command, assets []models.AssetView) {
	rows := make([][]interface{}, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []interface{}{
			a.ID, a.Name, a.Category, output.Str(a.SerialNumber), a.Location,
			a.Available, output.Time(a.CheckoutAt), a.Tier,
		})
	}
	output.RenderTable(cmd.OutOrStdout(),
		[]string{"ID", "Name", "Category", "Serial", "Location", "Available", "Checked Out", "Tier"}, rows)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// ==========================
// LIST
// ==========================
func listAssetsCmd() *cobra.Command {
	var jsonOut bool
	var tier, category, name, available string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			q := url.Values{}
			for k, v := range map[string]string{"tier": tier, "category": category, "name": name, "available": available} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			path := "/assets"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var assets []models.AssetView
			if err := c.Do("GET", path, nil, &assets); err != nil {
				return err
			}
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), assets)
			}
			renderAssets(cmd, assets)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
	cmd.Flags().StringVar(&tier, "tier", "", "healthy, attention or overdue")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().StringVar(&name, "name", "", "filter by name substring")
	cmd.Flags().StringVar(&available, "available", "", "true or false")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

// ==========================
// GET
// ==========================
func getAssetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var a models.AssetView
			if err := c.Do("GET", fmt.Sprintf("/assets/%d", id), nil, &a); err != nil {
				return err
			}
			return output.PrintJSON(cmd.OutOrStdout(), a)
		},
	}
}

// ==========================
// CREATE
// ==========================
func createAssetCmd() *cobra.Command {

	var name, category, description, serial, location string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}

			payload := map[string]any{
				"name":        name,
				"category":    category,
				"description": description,
				"location":    location,
			}
			if serial != "" {
				payload["serial_number"] = serial
			}

			var a models.AssetView
			if err := c.Do("POST", "/assets", payload, &a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created asset %d (%s), QR %s\n", a.ID, a.Name, a.QRCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "asset name")
	cmd.Flags().StringVar(&category, "category", "", "asset category (default equipment)")
	cmd.Flags().StringVar(&description, "description", "", "asset description")
	cmd.Flags().StringVar(&serial, "serial", "", "serial number")
	cmd.Flags().StringVar(&location, "location", "", "current location")
	cmd.MarkFlagRequired("name")

	return cmd
}

// ==========================
// CHECKOUT / CHECKIN
// ==========================
func moveCmd(use, short, action string) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var a models.AssetView
			if err := c.Do("POST", fmt.Sprintf("/assets/%d/%s", id, action), map[string]string{"location": location}, &a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %d %s at %s\n", a.ID, pastTense(action), a.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "where the asset is going (server default when empty)")
	return cmd
}

func pastTense(action string) string {
	if action == "checkout" {
		return "checked out"
	}
	return "checked in"
}

func checkoutCmd() *cobra.Command {
	return moveCmd("checkout", "Check an asset out", "checkout")
}

func checkinCmd() *cobra.Command {
	return moveCmd("checkin", "Check an asset back in", "checkin")
}

// ==========================
// SERIAL
// ==========================
func serialCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serial [id] [serial]",
		Short: "Set an asset's serial number",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var a models.AssetView
			if err := c.Do("PUT", fmt.Sprintf("/assets/%d/serial", id), map[string]string{"serial_number": args[1]}, &a); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %d serial set to %s\n", a.ID, a.Serial())
			return nil
		},
	}
}

// ==========================
// DELETE
// ==========================
func deleteAssetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete asset with its checkout history and audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var res lifecycle.DeleteResult
			if err := c.Do("DELETE", fmt.Sprintf("/assets/%d", id), nil, &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Asset %d deleted (%d checkout logs, %d audit entries)\n",
				res.AssetID, res.CheckoutLogs, res.AuditEntries)
			return nil
		},
	}
}

// ==========================
// HISTORY
// ==========================
func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [id]",
		Short: "Show an asset's checkout history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var logs []models.CheckoutLog
			if err := c.Do("GET", fmt.Sprintf("/assets/%d/history", id), nil, &logs); err != nil {
				return err
			}
			rows := make([][]interface{}, 0, len(logs))
			for _, l := range logs {
				rows = append(rows, []interface{}{
					l.ID, l.UserID, output.Time(&l.CheckoutTime), l.LocationCheckout,
					output.Time(l.CheckinTime), output.Str(l.LocationCheckin),
				})
			}
			output.RenderTable(cmd.OutOrStdout(),
				[]string{"Log", "User", "Out", "Out At", "In", "In At"}, rows)
			return nil
		},
	}
}

// ==========================
// REPORT
// ==========================
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show asset counts per tier and overdue assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var rep lifecycle.TierReport
			if err := c.Do("GET", "/reports/tiers", nil, &rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "healthy %d  attention %d  overdue %d\n",
				rep.Counts["healthy"], rep.Counts["attention"], rep.Counts["overdue"])
			if len(rep.Overdue) > 0 {
				renderAssets(cmd, rep.Overdue)
			}
			return nil
		},
	}
}
