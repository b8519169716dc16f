// Package config loads modelbridge project configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// project file (modelbridge.yaml), MODELBRIDGE_ environment variables and
// explicitly set command-line flags.
package config

import (
	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// Paths holds the project's file locations. Relative paths are resolved
// against the project root.
type Paths struct {
	// Model is the extracted model file (.json, .yaml)
	Model string `koanf:"model"`
	// Relationships is the SQL relationship record file (optional)
	Relationships string `koanf:"relationships"`
	// Baselines is the baseline record store: a directory or a .db file
	Baselines string `koanf:"baselines"`
	// Output is the output record store: a directory or a .db file
	Output string `koanf:"output"`
}

// Config holds all project configuration.
type Config struct {
	Staging    core.Settings   `koanf:"staging"`
	Connection core.Connection `koanf:"connection"`
	Paths      Paths           `koanf:"paths"`
	Verbose    bool            `koanf:"verbose"`
	// OutputFormat is text or json
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any
	ConfigFile string `koanf:"-"`
}

// Settings returns the staging settings with the connection attached.
func (c *Config) Settings() core.Settings {
	s := c.Staging
	s.Connection = c.Connection
	return s
}
