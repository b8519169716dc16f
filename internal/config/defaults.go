package config

import "github.com/leapstack-labs/modelbridge/pkg/core"

// Default configuration values.
const (
	DefaultModelPath     = "model.json"
	DefaultBaselinesPath = "baselines"
	DefaultOutputPath    = "out"
	DefaultOutputFormat  = "text"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// defaults is the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"staging.enabled":        false,
		"staging.naming_prefix":  core.DefaultNamingPrefix,
		"staging.model_handling": string(core.ModelHandlingNone),
		"staging.data_load_mode": string(core.LoadModeImport),
		"connection.kind":        core.ConnectionSQLServer,
		"paths.model":            DefaultModelPath,
		"paths.baselines":        DefaultBaselinesPath,
		"paths.output":           DefaultOutputPath,
		"verbose":                false,
		"output":                 DefaultOutputFormat,
	}
}
