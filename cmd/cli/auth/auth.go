package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crucial707/trade-tracker/cmd/cli/client"
	"github.com/crucial707/trade-tracker/cmd/cli/config"
)

// InitAuth registers login, register and logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), registerCmd(), logoutCmd())
}

type credentials struct {
	username string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&c.password, "password", "", "Password (defaults to $TRADE_TRACKER_PASSWORD)")
}

func (c *credentials) payload() (map[string]string, error) {
	if c.username == "" {
		return nil, errors.New("username is required")
	}
	if c.password == "" {
		c.password = os.Getenv("TRADE_TRACKER_PASSWORD")
	}
	if c.password == "" {
		return nil, errors.New("password is required (--password or TRADE_TRACKER_PASSWORD)")
	}
	return map[string]string{"username": c.username, "password": c.password}, nil
}

// loginCmd logs in and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Trade Tracker API",
		Long:  "Authenticate with the Trade Tracker API and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := creds.payload()
			if err != nil {
				return err
			}
			var resp struct {
				Token string `json:"token"`
				User  struct {
					Role string `json:"role"`
				} `json:"user"`
			}
			if err := client.New().Do("POST", "/auth/login", body, &resp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if resp.Token == "" {
				return errors.New("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Token stored in %s\n", creds.username, resp.User.Role, config.TokenPath())
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

// registerCmd creates a technician account. Foreman and superintendent
// roles are granted afterwards with `tt users role`.
func registerCmd() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new technician account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := creds.payload()
			if err != nil {
				return err
			}
			var user struct {
				ID   int    `json:"id"`
				Role string `json:"role"`
			}
			if err := client.New().Do("POST", "/auth/register", body, &user); err != nil {
				return fmt.Errorf("failed to register user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s with id %d (%s)\n", creds.username, user.ID, user.Role)
			return nil
		},
	}
	creds.bind(cmd)
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.ClearToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}
