package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/config"
	"github.com/vantagesec/reportkit/internal/database"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify configuration, database and server health",
	Long: `Checks that the configuration is usable: the database opens and answers,
the session secret is set, the server responds on its configured address,
and a session is present locally.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	allOK := true

	fmt.Println("=== reportkit doctor ===")
	fmt.Println()

	fmt.Print("Database ................. ")
	db, err := database.New(cfg.Database)
	if err != nil {
		fmt.Printf("FAIL (%s)\n", err)
		allOK = false
	} else {
		if err := db.Ping(ctx); err != nil {
			fmt.Printf("FAIL (%s)\n", err)
			allOK = false
		} else {
			fmt.Printf("OK (%s: %s)\n", db.Driver(), cfg.Database.Path)
		}
		db.Close()
	}

	fmt.Print("Session secret ........... ")
	if cfg.Session.Secret == "" {
		fmt.Println("WARN (not set — 'reportkit serve' will refuse to start)")
		allOK = false
	} else {
		fmt.Println("OK")
	}

	fmt.Print("Server ................... ")
	base := strings.TrimRight(cfg.Client.BaseURL, "/")
	hc := &http.Client{Timeout: 3 * time.Second}
	resp, err := hc.Get(base + "/health")
	if err != nil {
		fmt.Printf("unreachable (%s) — start it with 'reportkit serve'\n", base)
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			fmt.Printf("OK (%s)\n", base)
		} else {
			fmt.Printf("WARN (%s returned %d)\n", base, resp.StatusCode)
			allOK = false
		}
	}

	fmt.Print("Session .................. ")
	api, err := apiClient()
	if err == nil && api.LoggedIn() {
		fmt.Println("present (verify with 'reportkit whoami')")
	} else {
		fmt.Println("not logged in — run 'reportkit login'")
	}

	fmt.Println()
	if allOK {
		fmt.Println(successStyle.Render("Everything looks healthy."))
	} else {
		fmt.Println(warnStyle.Render("Some checks failed — see above."))
	}
	return nil
}
