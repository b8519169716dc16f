package core

import (
	"fmt"
	"strings"
)

// ModelHandling selects the strategy used to resolve complex relationships.
type ModelHandling string

// Model handling strategies.
const (
	ModelHandlingNone         ModelHandling = "none"
	ModelHandlingStarSchema   ModelHandling = "star_schema"
	ModelHandlingMergedTables ModelHandling = "merged_tables"
)

// ModelHandlings lists the valid strategies.
var ModelHandlings = []ModelHandling{ModelHandlingNone, ModelHandlingStarSchema, ModelHandlingMergedTables}

// UnmarshalText parses a strategy name.
func (m *ModelHandling) UnmarshalText(text []byte) error {
	v := ModelHandling(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		v = ModelHandlingNone
	}
	for _, known := range ModelHandlings {
		if v == known {
			*m = v
			return nil
		}
	}
	return fmt.Errorf("unknown model handling %q", string(text))
}

// LoadMode is how table data reaches the target model.
type LoadMode string

// Load modes.
const (
	LoadModeImport      LoadMode = "import"
	LoadModeDirectQuery LoadMode = "direct_query"
)

// LoadModes lists the valid load modes.
var LoadModes = []LoadMode{LoadModeImport, LoadModeDirectQuery}

// UnmarshalText parses a load mode name.
func (l *LoadMode) UnmarshalText(text []byte) error {
	v := LoadMode(strings.ToLower(strings.TrimSpace(string(text))))
	if v == "" {
		v = LoadModeImport
	}
	for _, known := range LoadModes {
		if v == known {
			*l = v
			return nil
		}
	}
	return fmt.Errorf("unknown data load mode %q", string(text))
}

// Connection kinds understood by the native query emitter.
const (
	ConnectionSQLServer = "sqlserver"
	ConnectionPostgres  = "postgres"
)

// Connection describes the source database used for live queries.
type Connection struct {
	Kind     string `koanf:"kind"`
	Server   string `koanf:"server"`
	Database string `koanf:"database"`
	Schema   string `koanf:"schema"`
}

// DefaultNamingPrefix is the default prefix for synthesized tables.
const DefaultNamingPrefix = "stg_"

// Settings configures staging-table synthesis.
type Settings struct {
	Enabled       bool          `koanf:"enabled"`
	NamingPrefix  string        `koanf:"naming_prefix"`
	ModelHandling ModelHandling `koanf:"model_handling"`
	DataLoadMode  LoadMode      `koanf:"data_load_mode"`
	Connection    Connection    `koanf:"-"`
}

// Active reports whether synthesis should run at all.
func (s Settings) Active() bool {
	return s.Enabled && s.ModelHandling != ModelHandlingNone && s.ModelHandling != ""
}

// Prefix returns the naming prefix, falling back to DefaultNamingPrefix.
func (s Settings) Prefix() string {
	if s.NamingPrefix == "" {
		return DefaultNamingPrefix
	}
	return s.NamingPrefix
}

// LiveQuery reports whether tables are queried at read time.
func (s Settings) LiveQuery() bool {
	return s.DataLoadMode == LoadModeDirectQuery
}
