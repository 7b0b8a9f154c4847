// Command secflowd serves the security scan and fix workflows over
// WebSocket endpoints.
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/randalmurphal/secflow"
	"github.com/randalmurphal/secflow/auth"
	"github.com/randalmurphal/secflow/config"
	"github.com/randalmurphal/secflow/server"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	addr := flag.String("addr", "", "listen address (overrides SECFLOW_LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	scanner, err := secflow.NewBanditScanner(
		secflow.WithDockerBinary(cfg.DockerBinary),
		secflow.WithScannerLogger(logger),
	)
	if err != nil {
		logger.Error("scanner unavailable", "error", err)
		os.Exit(1)
	}

	fixer, err := secflow.NewAiderCLI(secflow.AiderConfig{
		BinaryPath: cfg.AiderBinary,
		Model:      cfg.Model,
		Timeout:    cfg.AgentTimeout,
	})
	if err != nil {
		logger.Error("fix agent unavailable", "error", err)
		os.Exit(1)
	}

	workspaces := secflow.NewWorkspaceManager(cfg.WorkspaceRoot)
	gitOpts := []secflow.GitOption{secflow.WithGitBinary(cfg.GitBinary)}

	srv := server.New(server.Config{
		Scan: secflow.NewScanWorkflow(secflow.ScanWorkflowConfig{
			Workspaces: workspaces,
			Scanner:    scanner,
			GitOptions: gitOpts,
			Logger:     logger,
		}),
		Fix: secflow.NewFixWorkflow(secflow.FixWorkflowConfig{
			Workspaces: workspaces,
			Fixer:      fixer,
			GitOptions: gitOpts,
			Logger:     logger,
		}),
		Verifier: auth.NewVerifier([]byte(cfg.AuthSecret), cfg.AuthIssuer),
		Logger:   logger,
	})

	logger.Info("secflowd listening", "addr", cfg.ListenAddr, "model", cfg.Model)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Handler()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
