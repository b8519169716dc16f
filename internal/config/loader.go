package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "modelbridge.yaml"
	ConfigFileNameAlt = "modelbridge.yml"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nesting levels: MODELBRIDGE_STAGING__MODEL_HANDLING sets
// staging.model_handling.
const EnvPrefix = "MODELBRIDGE_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps flag names onto config keys. Flags not listed here do not
// feed the configuration.
var flagKeys = map[string]string{
	"model":          "paths.model",
	"relationships":  "paths.relationships",
	"baselines":      "paths.baselines",
	"output-dir":     "paths.output",
	"model-handling": "staging.model_handling",
	"load-mode":      "staging.data_load_mode",
	"prefix":         "staging.naming_prefix",
	"enable":         "staging.enabled",
	"verbose":        "verbose",
	"output":         "output",
}

// Load loads configuration. cfgFile may name the config file explicitly;
// otherwise modelbridge.yaml is searched upward from startDir. flags may
// be nil.
func Load(cfgFile, startDir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. config file
	projectRoot := startDir
	if cfgFile == "" {
		if root := findProjectRootUpward(startDir); root != "" {
			projectRoot = root
			cfgFile = findConfigFile(root)
		}
	} else if abs, err := filepath.Abs(cfgFile); err == nil {
		projectRoot = filepath.Dir(abs)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. explicitly set flags
	fromFlags := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			fromFlags[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	if err := validateEnums(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.ConfigFile = cfgFile
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	cwd, _ := os.Getwd()
	resolve := func(key string, p *string) {
		base := projectRoot
		if fromFlags[key] {
			base = cwd
		}
		*p = resolvePathRelativeTo(*p, base)
	}
	resolve("paths.model", &cfg.Paths.Model)
	resolve("paths.relationships", &cfg.Paths.Relationships)
	resolve("paths.baselines", &cfg.Paths.Baselines)
	resolve("paths.output", &cfg.Paths.Output)

	expandConnectionEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns MODELBRIDGE_STAGING__MODEL_HANDLING into
// staging.model_handling.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// findConfigFile returns the config file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute or ":memory:".
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

func expandConnectionEnvVars(cfg *Config) {
	cfg.Connection.Server = expandEnvVars(cfg.Connection.Server)
	cfg.Connection.Database = expandEnvVars(cfg.Connection.Database)
	cfg.Connection.Schema = expandEnvVars(cfg.Connection.Schema)
}

// loggerKey stores the logger in a context.
type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from ctx.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// configKey stores the loaded config in a context.
type configKey struct{}

// WithConfig returns a copy of ctx carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	return cfg, ok
}
