package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/modelbridge/internal/testutil"
	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectYAML = `staging:
  enabled: true
  naming_prefix: bridge_
  model_handling: merged_tables
  data_load_mode: direct_query
connection:
  kind: postgres
  server: ${MB_TEST_SERVER}
  database: erp
paths:
  model: extract/model.yaml
  relationships: extract/relationships.yaml
  baselines: state/baselines.db
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))
	return dir
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("model", "", "")
	fs.String("model-handling", "", "")
	fs.String("load-mode", "", "")
	fs.Bool("enable", false, "")
	fs.Bool("verbose", false, "")
	fs.String("unrelated", "x", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load("", dir, nil)
	require.NoError(t, err)

	assert.False(t, cfg.Staging.Enabled)
	assert.Equal(t, core.DefaultNamingPrefix, cfg.Staging.NamingPrefix)
	assert.Equal(t, core.ModelHandlingNone, cfg.Staging.ModelHandling)
	assert.Equal(t, core.LoadModeImport, cfg.Staging.DataLoadMode)
	assert.Equal(t, core.ConnectionSQLServer, cfg.Connection.Kind)
	assert.Equal(t, OutputText, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, DefaultModelPath), cfg.Paths.Model)
	assert.Equal(t, filepath.Join(dir, DefaultOutputPath), cfg.Paths.Output)
	assert.Empty(t, cfg.Paths.Relationships)
	assert.Empty(t, cfg.ConfigFile)
	assert.False(t, cfg.Settings().Active())
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("MB_TEST_SERVER", "db.internal")
	dir := writeProject(t, projectYAML)

	cfg, err := Load("", dir, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectRoot)

	s := cfg.Settings()
	assert.True(t, s.Active())
	assert.Equal(t, "bridge_", s.Prefix())
	assert.Equal(t, core.ModelHandlingMergedTables, s.ModelHandling)
	assert.True(t, s.LiveQuery())
	assert.Equal(t, core.Connection{Kind: core.ConnectionPostgres, Server: "db.internal", Database: "erp"}, s.Connection)

	assert.Equal(t, filepath.Join(dir, "extract", "model.yaml"), cfg.Paths.Model)
	assert.Equal(t, filepath.Join(dir, "extract", "relationships.yaml"), cfg.Paths.Relationships)
	assert.Equal(t, filepath.Join(dir, "state", "baselines.db"), cfg.Paths.Baselines)
	assert.Empty(t, cfg.Warnings())
}

func TestLoad_SearchesUpward(t *testing.T) {
	dir := writeProject(t, "staging:\n  enabled: true\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))

	cfg, err := Load("", nested, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.True(t, cfg.Staging.Enabled)
	assert.Equal(t, filepath.Join(dir, DefaultModelPath), cfg.Paths.Model)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  model: m.json\n"), 0600))

	cfg, err := Load(path, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "m.json"), cfg.Paths.Model)
}

func TestLoad_Precedence(t *testing.T) {
	dir := writeProject(t, projectYAML)

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("MODELBRIDGE_STAGING__MODEL_HANDLING", "star_schema")
		t.Setenv("MODELBRIDGE_STAGING__DATA_LOAD_MODE", "import")

		cfg, err := Load("", dir, nil)
		require.NoError(t, err)
		assert.Equal(t, core.ModelHandlingStarSchema, cfg.Staging.ModelHandling)
		assert.Equal(t, core.LoadModeImport, cfg.Staging.DataLoadMode)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("MODELBRIDGE_STAGING__MODEL_HANDLING", "star_schema")
		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--model-handling=none", "--model=local.json", "--verbose"}))

		cfg, err := Load("", dir, fs)
		require.NoError(t, err)
		assert.Equal(t, core.ModelHandlingNone, cfg.Staging.ModelHandling)
		assert.True(t, cfg.Verbose)

		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "local.json"), cfg.Paths.Model, "flag paths are relative to the working directory")
	})

	t.Run("unchanged flags are ignored", func(t *testing.T) {
		cfg, err := Load("", dir, testFlags())
		require.NoError(t, err)
		assert.Equal(t, core.ModelHandlingMergedTables, cfg.Staging.ModelHandling)
		assert.True(t, cfg.Staging.Enabled)
	})
}

func TestLoad_InvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantKey string
	}{
		{"model handling", "staging:\n  model_handling: snowflake\n", nil, "staging.model_handling"},
		{"load mode", "staging:\n  data_load_mode: live\n", nil, "staging.data_load_mode"},
		{"connection kind", "connection:\n  kind: oracle\n", nil, "connection.kind"},
		{"from env", "verbose: false\n", map[string]string{"MODELBRIDGE_OUTPUT": "xml"}, "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := writeProject(t, tt.yaml)

			_, err := Load("", dir, nil)
			require.Error(t, err)
			var invalid *InvalidSettingError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.wantKey, invalid.Key)
			assert.NotEmpty(t, invalid.Allowed)
		})
	}
}

func TestLoad_CaseInsensitiveEnums(t *testing.T) {
	dir := writeProject(t, "staging:\n  enabled: true\n  model_handling: Star_Schema\n")
	cfg, err := Load("", dir, nil)
	require.NoError(t, err)
	assert.Equal(t, core.ModelHandlingStarSchema, cfg.Staging.ModelHandling)
}

func TestConfig_Warnings(t *testing.T) {
	cfg := &Config{
		Staging: core.Settings{ModelHandling: core.ModelHandlingStarSchema},
		Paths:   Paths{Model: "m.json"},
	}
	assert.Len(t, cfg.Warnings(), 1)

	cfg.Staging = core.Settings{Enabled: true, ModelHandling: core.ModelHandlingMergedTables, DataLoadMode: core.LoadModeDirectQuery}
	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "nested joins")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MB_TEST_HOST", "sql01")
	assert.Equal(t, "sql01.corp", expandEnvVars("${MB_TEST_HOST}.corp"))
	assert.Equal(t, "${MB_TEST_UNSET_VAR}", expandEnvVars("${MB_TEST_UNSET_VAR}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "staging.model_handling", envKey("MODELBRIDGE_STAGING__MODEL_HANDLING"))
	assert.Equal(t, "verbose", envKey("MODELBRIDGE_VERBOSE"))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx))

	logger := testutil.NewTestLogger(t)
	assert.Same(t, logger, GetLogger(WithLogger(ctx, logger)))

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	cfg := &Config{}
	got, ok := FromContext(WithConfig(ctx, cfg))
	require.True(t, ok)
	assert.Same(t, cfg, got)
}
