package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix scopes the environment variables conductord reads.
const envPrefix = "CONDUCTORD_"

// envKeyMap maps environment variable suffixes (after the prefix) to
// koanf paths. An explicit table avoids ambiguity between the delimiter
// and underscores inside field names (e.g. default_branch).
var envKeyMap = map[string]string{
	"SERVER_HOST":            "server.host",
	"SERVER_PORT":            "server.port",
	"LOGGING_LEVEL":          "logging.level",
	"LOGGING_FORMAT":         "logging.format",
	"GIT_REPO_PATH":          "git.repo_path",
	"GIT_DEFAULT_BRANCH":     "git.default_branch",
	"GIT_REMOTE_NAME":        "git.remote_name",
	"GIT_AUTHOR_NAME":        "git.author_name",
	"GIT_AUTHOR_EMAIL":       "git.author_email",
	"AGENTS_TIMEOUT_SECONDS": "agents.timeout_seconds",
}

// Load reads configuration with precedence env > YAML file > defaults.
//
// configPath selects the YAML file; empty means
// ~/.config/conductord/config.yaml. A missing file is not an error, an
// unreadable or invalid one is.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "conductord", "config.yaml")
	}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadBytes parses configuration from raw YAML over the defaults,
// skipping file and environment lookup. Intended for tests.
func LoadBytes(content []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envTransform maps CONDUCTORD_* variables to koanf paths. Unknown
// variables are dropped.
func envTransform(key string) string {
	return envKeyMap[key[len(envPrefix):]]
}
