package config

import (
	"fmt"
	"time"
)

// Config is the daemon's full configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Git     GitConfig     `koanf:"git"`
	Agents  AgentsConfig  `koanf:"agents"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logger construction settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// GitConfig holds the git collaborator settings. An empty RepoPath
// disables the commit hook entirely.
type GitConfig struct {
	RepoPath      string `koanf:"repo_path"`
	DefaultBranch string `koanf:"default_branch"`
	RemoteName    string `koanf:"remote_name"`
	AuthorName    string `koanf:"author_name"`
	AuthorEmail   string `koanf:"author_email"`
}

// AgentsConfig maps agent names to the HTTP endpoints that serve them.
type AgentsConfig struct {
	Endpoints      map[string]string `koanf:"endpoints"`
	TimeoutSeconds int               `koanf:"timeout_seconds"`
}

// Timeout returns the per-agent request timeout.
func (a AgentsConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Default returns the hardcoded defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8710,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Git: GitConfig{
			DefaultBranch: "main",
			RemoteName:    "origin",
			AuthorName:    "conductord",
			AuthorEmail:   "conductord@localhost",
		},
		Agents: AgentsConfig{
			TimeoutSeconds: 120,
		},
	}
}

// Validate checks value ranges after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	if c.Agents.TimeoutSeconds <= 0 {
		return fmt.Errorf("agents.timeout_seconds must be positive")
	}
	return nil
}
