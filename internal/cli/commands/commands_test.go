package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/modelbridge/internal/config"
	"github.com/leapstack-labs/modelbridge/internal/loader"
	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectModel = `tables:
  - name: MATERIAL_CHARGES
    columns:
      - {name: CHARGE_ID, data_type: int64}
      - {name: ITEM_NUMBER, data_type: string}
      - {name: SITE_NUMBER, data_type: int64}
      - {name: AMOUNT, data_type: double}
  - name: ITEMS
    columns:
      - {name: ITEM_NUMBER, data_type: string}
      - {name: SITE_NUMBER, data_type: int64}
      - {name: DESCRIPTION, data_type: string}
  - name: SITES
    columns:
      - {name: SITE_NUMBER, data_type: int64}
      - {name: SITE_NAME, data_type: string}
relationships:
  - {id: r1, from_table: MATERIAL_CHARGES, from_column: ITEM_NUMBER, to_table: ITEMS, to_column: ITEM_NUMBER, active: true}
  - {id: r2, from_table: MATERIAL_CHARGES, from_column: "ITEM_NUMBER, SITE_NUMBER", to_table: ITEMS, to_column: "ITEM_NUMBER, SITE_NUMBER", active: false}
  - {id: r3, from_table: ITEMS, from_column: SITE_NUMBER, to_table: SITES, to_column: SITE_NUMBER, active: true}
`

const starConfig = `staging:
  enabled: true
  model_handling: star_schema
connection:
  server: srv
  database: erp
paths:
  model: model.yaml
  baselines: baselines
  output: out
`

// newProject writes a project into a temp dir and loads its config.
func newProject(t *testing.T, cfgYAML string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.yaml"), []byte(projectModel), 0600))
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0600))

	cfg, err := config.Load(cfgPath, dir, nil)
	require.NoError(t, err)
	return cfg
}

// execute runs cmd with cfg and a test logger in its context.
func execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewResolveCommand(), "resolve", []string{"watch", "model-out", "enable", "model-handling", "load-mode", "prefix"}},
		{NewInspectCommand(), "inspect", nil},
		{NewBaselineCommand(), "baseline [table...]", []string{"force"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.NotEmpty(t, tt.cmd.Long)
			for _, f := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(f), "flag %q should exist", f)
			}
		})
	}
}

func TestNewCommandContext_RequiresConfig(t *testing.T) {
	cmd := NewInspectCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration not loaded")
}

func TestBaselineCommand(t *testing.T) {
	cfg := newProject(t, starConfig)

	out, err := execute(t, NewBaselineCommand(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 baselines written")

	s := store.NewFileStore(cfg.Paths.Baselines)
	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEMS", "MATERIAL_CHARGES", "SITES"}, names)

	rec, err := s.Load(context.Background(), "ITEMS")
	require.NoError(t, err)
	assert.Contains(t, rec.Source.Expression, `Sql.Database("srv", "erp")`)
	assert.Contains(t, rec.Source.Expression, `Item = "ITEMS"`)

	t.Run("existing baselines are kept", func(t *testing.T) {
		out, err := execute(t, NewBaselineCommand(), cfg)
		require.NoError(t, err)
		assert.Contains(t, out, "0 baselines written")
		assert.Contains(t, out, baselineKept)
	})

	t.Run("force overwrites", func(t *testing.T) {
		out, err := execute(t, NewBaselineCommand(), cfg, "--force", "SITES")
		require.NoError(t, err)
		assert.Contains(t, out, "1 baselines written")
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := execute(t, NewBaselineCommand(), cfg, "NOPE")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"NOPE"`)
	})
}

func TestResolveCommand_StarSchema(t *testing.T) {
	cfg := newProject(t, starConfig)
	_, err := execute(t, NewBaselineCommand(), cfg)
	require.NoError(t, err)

	out, err := execute(t, NewResolveCommand(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Star Schema, Import")
	assert.Contains(t, out, "MATERIAL_CHARGES <-> ITEMS")
	assert.Contains(t, out, "stg_MATERIAL_CHARGES_ITEMS")
	assert.Contains(t, out, "ITEM_NUMBER_SITE_NUMBER_Key")
	assert.NotContains(t, out, "Skipped")

	modelPath := filepath.Join(cfg.ProjectRoot, DefaultResolvedModelFile)
	resolved, err := loader.LoadModel(modelPath)
	require.NoError(t, err)
	dim, ok := resolved.Table("stg_MATERIAL_CHARGES_ITEMS")
	require.True(t, ok)
	assert.True(t, dim.HasColumn("ITEM_NUMBER_SITE_NUMBER_Key"))

	fact, ok := resolved.Table("MATERIAL_CHARGES")
	require.True(t, ok)
	assert.True(t, fact.HasColumn("ITEM_NUMBER_SITE_NUMBER_Key"))
	assert.Contains(t, fact.Pipeline, "Added ITEM_NUMBER_SITE_NUMBER_Key")

	outStore := store.NewFileStore(cfg.Paths.Output)
	names, err := outStore.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ITEMS", "MATERIAL_CHARGES", "stg_MATERIAL_CHARGES_ITEMS"}, names)
}

func TestResolveCommand_JSON(t *testing.T) {
	cfg := newProject(t, starConfig)
	cfg.OutputFormat = config.OutputJSON
	modelOut := filepath.Join(t.TempDir(), "resolved.json")

	out, err := execute(t, NewResolveCommand(), cfg, "--model-out", modelOut)
	require.NoError(t, err)

	var s resolveSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "star_schema", s.ModelHandling)
	assert.Equal(t, modelOut, s.ModelFile)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, 2, s.Groups[0].Joins)
	assert.Equal(t, "INNER", s.Groups[0].JoinKind)
	require.Len(t, s.Synthesized, 1)
	assert.Equal(t, "stg_MATERIAL_CHARGES_ITEMS", s.Synthesized[0].Name)

	// no baselines were written, so both base tables are reported
	require.Len(t, s.Skips, 2)
	for _, sk := range s.Skips {
		assert.Equal(t, "missing_baseline", sk.Kind)
	}
	assert.FileExists(t, modelOut)
}

func TestResolveCommand_Disabled(t *testing.T) {
	cfg := newProject(t, "paths:\n  model: model.yaml\n")

	out, err := execute(t, NewResolveCommand(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "passed through unchanged")

	original, err := loader.LoadModel(cfg.Paths.Model)
	require.NoError(t, err)
	resolved, err := loader.LoadModel(filepath.Join(cfg.ProjectRoot, DefaultResolvedModelFile))
	require.NoError(t, err)
	assert.Equal(t, original, resolved)
}

func TestResolveCommand_MissingModel(t *testing.T) {
	cfg := newProject(t, starConfig)
	cfg.Paths.Model = filepath.Join(cfg.ProjectRoot, "missing.yaml")

	_, err := execute(t, NewResolveCommand(), cfg)
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	cfg := newProject(t, starConfig)

	out, err := execute(t, NewInspectCommand(), cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "3 joins, 2 complex, 1 groups")
	assert.Contains(t, out, "MATERIAL_CHARGES <-> ITEMS")
	assert.Contains(t, out, "ITEM_NUMBER_SITE_NUMBER_Key")

	_, err = os.Stat(filepath.Join(cfg.ProjectRoot, DefaultResolvedModelFile))
	assert.True(t, os.IsNotExist(err), "inspect must not write")
}

func TestInspectCommand_WithRecords(t *testing.T) {
	cfg := newProject(t, starConfig)
	cfg.Paths.Relationships = filepath.Join(cfg.ProjectRoot, "relationships.yaml")
	require.NoError(t, os.WriteFile(cfg.Paths.Relationships, []byte(`- many_side: MATERIAL_CHARGES
  one_side: ITEMS
  keys_a: [ITEM_NUMBER]
  keys_b: [ITEM_NUMBER]
  reason: filtered join
`), 0600))
	cfg.OutputFormat = config.OutputJSON

	out, err := execute(t, NewInspectCommand(), cfg)
	require.NoError(t, err)

	var s inspectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 1, s.Joins)
	assert.Equal(t, 1, s.Complex)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "ITEM_NUMBER_Key", s.Groups[0].Key)
}
