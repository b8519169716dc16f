package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/modelbridge/internal/cli/output"
	"github.com/leapstack-labs/modelbridge/internal/config"
	"github.com/leapstack-labs/modelbridge/internal/loader"
	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/spf13/cobra"
)

// DefaultResolvedModelFile is written to the project root by resolve unless
// --model-out names another file.
const DefaultResolvedModelFile = "resolved_model.json"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the config and logger the
// root command stored in the command's context.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, ok := config.FromContext(cmd.Context())
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}, nil
}

// loadInputs reads the model and the optional relationship records.
func (c *CommandContext) loadInputs() (*core.Model, []core.SQLRelationshipRecord, error) {
	model, err := loader.LoadModel(c.Cfg.Paths.Model)
	if err != nil {
		return nil, nil, err
	}
	records, err := loader.LoadRecords(c.Cfg.Paths.Relationships)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("inputs loaded",
		slog.String("model", c.Cfg.Paths.Model),
		slog.Int("tables", len(model.Tables)),
		slog.Int("relationships", len(model.Relationships)),
		slog.Int("records", len(records)))
	return model, records, nil
}

// openStore opens the record store at location. The returned cleanup
// closes it.
func (c *CommandContext) openStore(location, what string) (store.Store, func(), error) {
	s, err := store.Open(location, c.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", what, err)
	}
	return s, func() {
		if err := s.Close(); err != nil {
			c.Logger.Warn("failed to close store", slog.String("store", what), slog.String("error", err.Error()))
		}
	}, nil
}

// resolvedModelPath returns where resolve writes the resolved model.
func (c *CommandContext) resolvedModelPath(flag string) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(c.Cfg.ProjectRoot, DefaultResolvedModelFile)
}
