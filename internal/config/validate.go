package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// InvalidSettingError reports a configuration value outside its allowed
// set.
type InvalidSettingError struct {
	Key     string
	Value   string
	Allowed []string
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid value %q for %s (allowed: %s)", e.Value, e.Key, strings.Join(e.Allowed, ", "))
}

// enumKeys lists the keys restricted to a fixed set of values.
func enumKeys() map[string][]string {
	handlings := make([]string, len(core.ModelHandlings))
	for i, h := range core.ModelHandlings {
		handlings[i] = string(h)
	}
	modes := make([]string, len(core.LoadModes))
	for i, m := range core.LoadModes {
		modes[i] = string(m)
	}
	return map[string][]string{
		"staging.model_handling": handlings,
		"staging.data_load_mode": modes,
		"connection.kind":        {core.ConnectionSQLServer, core.ConnectionPostgres},
		"output":                 {OutputText, OutputJSON},
	}
}

// validateEnums checks the raw layered values before decoding, so a bad
// value surfaces as an InvalidSettingError rather than a decoder error.
func validateEnums(k *koanf.Koanf) error {
	enums := enumKeys()
	for _, key := range []string{"staging.model_handling", "staging.data_load_mode", "connection.kind", "output"} {
		v := strings.ToLower(strings.TrimSpace(k.String(key)))
		if v == "" {
			continue
		}
		ok := false
		for _, allowed := range enums[key] {
			if v == allowed {
				ok = true
				break
			}
		}
		if !ok {
			return &InvalidSettingError{Key: key, Value: k.String(key), Allowed: enums[key]}
		}
	}
	return nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.Paths.Model == "" {
		return fmt.Errorf("paths.model is required")
	}
	return nil
}

// Warnings lists settings that are valid but likely not what was meant.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Staging.ModelHandling != core.ModelHandlingNone && !c.Staging.Enabled {
		warnings = append(warnings, fmt.Sprintf("staging.model_handling is %s but staging.enabled is false", c.Staging.ModelHandling))
	}
	if c.Staging.Active() && c.Staging.LiveQuery() && c.Staging.ModelHandling == core.ModelHandlingMergedTables &&
		(c.Connection.Server == "" || c.Connection.Database == "") {
		warnings = append(warnings, "direct_query without connection.server and connection.database: combination tables use nested joins")
	}
	return warnings
}
