package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/randalmurphal/llmkit/model"
)

// EnvPrefix is prepended to key names for environment variable lookup.
const EnvPrefix = "SECFLOW_"

// DefaultModel is the LLM backend used when none is configured.
const DefaultModel model.ModelName = "groq/qwen-2.5-coder-32b"

// Config holds process-wide settings, read once at startup.
type Config struct {
	// ListenAddr is the HTTP listen address for the WebSocket endpoints.
	ListenAddr string

	// Model is the LLM backend identifier passed to the fix agent.
	Model model.ModelName

	// AiderBinary is the path to the fix agent binary.
	AiderBinary string

	// GitBinary is the path to the git binary.
	GitBinary string

	// DockerBinary is the path to the container runtime binary.
	DockerBinary string

	// AgentTimeout bounds one fix agent invocation.
	AgentTimeout time.Duration

	// WorkspaceRoot is the parent directory for workflow workspaces.
	// Empty means the system temporary directory.
	WorkspaceRoot string

	// AuthSecret enables endpoint authentication when non-empty.
	AuthSecret string

	// AuthIssuer is the expected token issuer when auth is enabled.
	AuthIssuer string

	// LogLevel is the minimum level for structured logs.
	LogLevel slog.Level
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		Model:         model.ModelName(getenv("MODEL_NAME", string(DefaultModel))),
		AiderBinary:   getenv("AIDER_BINARY", "aider"),
		GitBinary:     getenv("GIT_BINARY", "git"),
		DockerBinary:  getenv("DOCKER_BINARY", "docker"),
		WorkspaceRoot: getenv("WORKSPACE_ROOT", ""),
		AuthSecret:    getenv("AUTH_SECRET", ""),
		AuthIssuer:    getenv("AUTH_ISSUER", "secflow"),
	}

	timeout := getenv("AGENT_TIMEOUT", "10m")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return Config{}, fmt.Errorf("parse %sAGENT_TIMEOUT: %w", EnvPrefix, err)
	}
	cfg.AgentTimeout = d

	level, err := parseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	return cfg, nil
}

// getenv returns the prefixed environment variable or the default.
func getenv(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

// parseLevel maps a level name onto a slog level.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
