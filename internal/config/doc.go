// Package config provides configuration loading for conductord.
//
// Precedence (highest to lowest): environment variables, YAML config file,
// hardcoded defaults. The default file path is
// ~/.config/conductord/config.yaml; a missing file is not an error.
package config
