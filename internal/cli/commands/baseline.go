package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/modelbridge/internal/cli/output"
	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/leapstack-labs/modelbridge/pkg/mquery"
	"github.com/spf13/cobra"
)

// Baseline statuses.
const (
	baselineWritten = "written"
	baselineKept    = "kept"
)

// NewBaselineCommand creates the baseline command.
func NewBaselineCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "baseline [table...]",
		Short: "Write navigation baselines for model tables",
		Long: `Baseline writes a baseline record for each model table (or each table
named) that has none yet. The table's own pipeline becomes the baseline;
tables without one get a pipeline that opens the configured connection and
navigates to the table. Existing baselines are kept unless --force is
given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			model, _, err := cc.loadInputs()
			if err != nil {
				return err
			}
			tables := model.Tables
			if len(args) > 0 {
				tables = tables[:0:0]
				for _, name := range args {
					t, ok := model.Table(name)
					if !ok {
						return fmt.Errorf("table %q is not in the model", name)
					}
					tables = append(tables, t)
				}
			}

			s, closeStore, err := cc.openStore(cc.Cfg.Paths.Baselines, "baseline")
			if err != nil {
				return err
			}
			defer closeStore()

			rows := make([][]any, 0, len(tables))
			written := 0
			for _, t := range tables {
				status, err := writeBaseline(cmd, s, cc.Cfg.Connection, t, force)
				if err != nil {
					return err
				}
				if status == baselineWritten {
					written++
				}
				cc.Logger.Debug("baseline", slog.String("table", t.Name), slog.String("status", status))
				rows = append(rows, []any{t.Name, status})
			}

			r := cc.Renderer
			if r.Mode() == output.ModeJSON {
				return r.JSON(map[string]int{"written": written, "kept": len(tables) - written})
			}
			r.Table([]string{"Table", "Baseline"}, rows)
			r.Println(r.Styles().Success.Render(fmt.Sprintf("%d baselines written", written)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing baselines")
	return cmd
}

func writeBaseline(cmd *cobra.Command, s store.Store, conn core.Connection, t *core.Table, force bool) (string, error) {
	ctx := cmd.Context()
	if !force {
		rec, err := s.Load(ctx, t.Name)
		switch {
		case err == nil && rec.Source.Expression != "":
			return baselineKept, nil
		case err != nil && !errors.Is(err, store.ErrRecordNotFound):
			return "", err
		}
	}

	rec := store.FromTable(t)
	if rec.Source.Expression == "" {
		rec.Source.Expression = mquery.NavigationBaseline(conn, t.Name)
	}
	if err := s.Save(ctx, rec); err != nil {
		return "", err
	}
	return baselineWritten, nil
}
