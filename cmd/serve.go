package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vantagesec/reportkit/internal/config"
	"github.com/vantagesec/reportkit/internal/database"
	"github.com/vantagesec/reportkit/internal/server"
)

var servePort int
var serveLogDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reportkit API server",
	Long: `Starts the reportkit server: a long-running daemon exposing the REST API
(default: http://127.0.0.1:7190) that the CLI, wizard and terminal UI talk
to.

The server owns the database, stores evidence files, renders report
documents, and purges expired sessions on a cron schedule.

Quick API reference:
  GET    /health                              liveness check
  POST   /auth/register | /auth/login         create or open a session
  POST   /auth/refresh                        rotate an expired session
  GET    /reports                             list reports (paginated)
  POST   /reports                             create a report
  GET    /reports/:id/document?download=1     export the rendered document
  POST   /reports/:id/findings                attach a finding
  PATCH  /findings/:id                        set remediation status
  GET    /vulnerabilities                     list the catalog
  POST   /findings/:id/evidence               upload an attachment`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 7190, overrides config)")
	serveCmd.Flags().StringVar(&serveLogDir, "log-dir", "logs",
		"directory to write server logs for later inspection")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.EnsureDir(); err != nil {
		return fmt.Errorf("creating reportkit directories: %w", err)
	}

	logFilePath, closeLog, err := setupServeFileLogger(serveLogDir)
	if err != nil {
		return fmt.Errorf("initialising server logger: %w", err)
	}
	defer closeLog()

	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7190
	}
	if cfg.Session.Secret == "" {
		return fmt.Errorf("session.secret is not set — add one to the config file before serving")
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Printf("reportkit server starting\n")
	fmt.Printf("  Database : %s (%s)\n", cfg.Database.Path, db.Driver())
	fmt.Printf("  API      : http://127.0.0.1:%d\n", cfg.Server.Port)
	fmt.Printf("  Evidence : %s\n", cfg.Server.EvidenceDir)
	fmt.Printf("  Logs     : %s\n\n", logFilePath)
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	slog.Info("server logger initialised", "file", logFilePath)
	return server.New(cfg, db).Start(ctx)
}

func setupServeFileLogger(logDir string) (string, func(), error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating log dir %s: %w", logDir, err)
	}

	ts := time.Now().UTC().Format("20060102-150405")
	runLogPath := filepath.Join(logDir, fmt.Sprintf("server-%s.log", ts))
	runFile, err := os.OpenFile(runLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", nil, fmt.Errorf("opening run log file: %w", err)
	}

	latestPath := filepath.Join(logDir, "server.log")
	latestFile, err := os.OpenFile(latestPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = runFile.Close()
		return "", nil, fmt.Errorf("opening latest log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, runFile, latestFile), &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	slog.SetDefault(slog.New(handler))
	slog.SetLogLoggerLevel(level)

	cleanup := func() {
		_ = latestFile.Close()
		_ = runFile.Close()
	}
	return runLogPath, cleanup, nil
}
