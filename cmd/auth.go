package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/client"
	"github.com/vantagesec/reportkit/internal/config"
)

// apiClient builds a Client from config. The session-expired hook tells the
// user to log back in instead of failing silently.
func apiClient() (*client.Client, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	api := client.New(cfg.Client, client.WithSessionExpiredHook(func() {
		fmt.Println(warnStyle.Render("Session expired — run 'reportkit login' to continue."))
	}))
	return api, nil
}

var (
	authEmail    string
	authPassword string
	authFullName string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a reportkit account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(true)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a session against the reportkit server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(false)
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&authFullName, "name", "", "full name shown on reports")
}

func runSession(register bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	api, err := apiClient()
	if err != nil {
		return err
	}

	email, password, fullName := authEmail, authPassword, authFullName
	var fields []huh.Field
	if email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&email))
	}
	if password == "" {
		fields = append(fields, huh.NewInput().Title("Password").
			EchoMode(huh.EchoModePassword).Value(&password))
	}
	if register && fullName == "" {
		fields = append(fields, huh.NewInput().Title("Full name").
			Description("Shown in the Prepared By field of reports.").Value(&fullName))
	}
	if len(fields) > 0 {
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return err
		}
	}

	var sess *client.SessionResponse
	if register {
		sess, err = api.Register(ctx, email, password, fullName)
	} else {
		sess, err = api.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Logged in as %s", sess.User.Email)))
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := apiClient()
		if err != nil {
			return err
		}
		api.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		api, err := apiClient()
		if err != nil {
			return err
		}
		u, err := api.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s", u.Email)
		if u.FullName != "" {
			fmt.Printf(" (%s)", u.FullName)
		}
		fmt.Println()
		return nil
	},
}
