package users

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crucial707/trade-tracker/cmd/cli/client"
	"github.com/crucial707/trade-tracker/cmd/cli/output"
	"github.com/crucial707/trade-tracker/internal/models"
)

// InitUsers registers the users command group.
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List the crew and grant roles",
	}
	usersCmd.AddCommand(listUsersCmd(), roleCmd())
	rootCmd.AddCommand(usersCmd)
}

func listUsersCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var users []models.User
			if err := c.Do("GET", "/users", nil, &users); err != nil {
				return err
			}
			if jsonOut {
				return output.PrintJSON(cmd.OutOrStdout(), users)
			}
			rows := make([][]interface{}, 0, len(users))
			for _, u := range users {
				rows = append(rows, []interface{}{u.ID, u.Username, u.Role})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Role"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON instead of a table")
	return cmd
}

// roleCmd needs a superintendent token.
func roleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role [id] [technician|foreman|superintendent]",
		Short: "Set a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}
			role := models.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("invalid role %q", args[1])
			}
			c, err := client.Authed()
			if err != nil {
				return err
			}
			var u models.User
			if err := c.Do("PUT", fmt.Sprintf("/users/%d/role", id), map[string]string{"role": string(role)}, &u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Username, u.Role)
			return nil
		},
	}
}
