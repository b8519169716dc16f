package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/leapstack-labs/modelbridge/internal/cli/output"
	"github.com/leapstack-labs/modelbridge/internal/config"
	"github.com/leapstack-labs/modelbridge/internal/loader"
	"github.com/leapstack-labs/modelbridge/internal/staging"
	"github.com/spf13/cobra"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand() *cobra.Command {
	var (
		watch    bool
		modelOut string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve complex relationships into staging tables",
		Long: `Resolve reads the model and relationship records, synthesizes staging
tables for every group of complex relationships and writes the resolved
model. Synthesized and augmented tables are saved to the output store.

With --watch the model and relationship files are watched and the model
is resolved again after every change.`,
		Example: `  modelbridge resolve --enable --model-handling star_schema
  modelbridge resolve --model-handling merged_tables --load-mode direct_query -o json
  modelbridge resolve --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			out := cc.resolvedModelPath(modelOut)
			if !watch {
				return runResolve(cmd.Context(), cc, out)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchFiles(ctx, []string{cc.Cfg.Paths.Model, cc.Cfg.Paths.Relationships}, cc.Logger, func() error {
				return runResolve(ctx, cc, out)
			})
		},
	}

	addStagingFlags(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Resolve again whenever the model or relationship file changes")
	cmd.Flags().StringVar(&modelOut, "model-out", "", "Resolved model file (default: <project>/"+DefaultResolvedModelFile+")")
	return cmd
}

// addStagingFlags registers the flags that override the staging settings.
func addStagingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("enable", false, "Enable staging-table synthesis")
	cmd.Flags().String("model-handling", "", "Strategy (none|star_schema|merged_tables)")
	cmd.Flags().String("load-mode", "", "Data load mode (import|direct_query)")
	cmd.Flags().String("prefix", "", "Name prefix for synthesized tables")

	_ = cmd.RegisterFlagCompletionFunc("model-handling", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"none", "star_schema", "merged_tables"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("load-mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"import", "direct_query"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runResolve(ctx context.Context, cc *CommandContext, modelOut string) error {
	model, records, err := cc.loadInputs()
	if err != nil {
		return err
	}

	baselines, closeBaselines, err := cc.openStore(cc.Cfg.Paths.Baselines, "baseline")
	if err != nil {
		return err
	}
	defer closeBaselines()

	out, closeOut, err := cc.openStore(cc.Cfg.Paths.Output, "output")
	if err != nil {
		return err
	}
	defer closeOut()

	resolver := staging.NewResolver(staging.Config{
		Settings:  cc.Cfg.Settings(),
		Baselines: baselines,
		Output:    out,
		Logger:    cc.Logger,
	})
	res, err := resolver.Resolve(ctx, model, records)
	if err != nil {
		return err
	}

	if err := loader.SaveModel(modelOut, res.Model); err != nil {
		return err
	}
	cc.Logger.Debug("resolved model written", slog.String("path", modelOut))

	return renderResolveResult(cc.Renderer, cc.Cfg, res, modelOut)
}

// resolveSummary is the JSON form of a resolution run.
type resolveSummary struct {
	Enabled       bool           `json:"enabled"`
	ModelHandling string         `json:"model_handling"`
	DataLoadMode  string         `json:"data_load_mode"`
	Groups        []groupSummary `json:"groups"`
	Synthesized   []tableSummary `json:"synthesized"`
	Augmented     []string       `json:"augmented"`
	Skips         []skipSummary  `json:"skips"`
	ModelFile     string         `json:"model_file"`
	Tables        int            `json:"tables"`
	Relationships int            `json:"relationships"`
}

type groupSummary struct {
	Group    string `json:"group"`
	Joins    int    `json:"joins"`
	JoinKind string `json:"join_kind"`
	Key      string `json:"key,omitempty"`
}

type tableSummary struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
}

type skipSummary struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

func summarizeGroup(g *staging.Group) groupSummary {
	kind, _ := g.JoinKind()
	s := groupSummary{Group: g.Label(), Joins: len(g.Joins), JoinKind: kind}
	if key, err := staging.DeriveKey(g); err == nil {
		s.Key = key.Name
	}
	return s
}

func summarize(cfg *config.Config, res *staging.Result, modelOut string) resolveSummary {
	s := resolveSummary{
		Enabled:       cfg.Staging.Enabled,
		ModelHandling: string(cfg.Staging.ModelHandling),
		DataLoadMode:  string(cfg.Staging.DataLoadMode),
		Groups:        []groupSummary{},
		Synthesized:   []tableSummary{},
		Augmented:     append([]string{}, res.Augmented...),
		Skips:         []skipSummary{},
		ModelFile:     modelOut,
		Tables:        len(res.Model.Tables),
		Relationships: len(res.Model.Relationships),
	}
	for _, g := range res.Groups {
		s.Groups = append(s.Groups, summarizeGroup(g))
	}
	for _, name := range res.Synthesized {
		ts := tableSummary{Name: name}
		if t, ok := res.Model.Table(name); ok {
			ts.Columns = len(t.Columns)
		}
		s.Synthesized = append(s.Synthesized, ts)
	}
	for _, sk := range res.Skips {
		s.Skips = append(s.Skips, skipSummary{Kind: string(sk.Kind), Subject: sk.Subject, Reason: sk.Reason})
	}
	return s
}

func renderResolveResult(r *output.Renderer, cfg *config.Config, res *staging.Result, modelOut string) error {
	s := summarize(cfg, res, modelOut)
	if r.Mode() == output.ModeJSON {
		return r.JSON(s)
	}

	styles := r.Styles()
	r.Header(1, "Resolved model")
	if !cfg.Staging.Active() {
		r.Println(styles.Muted.Render("Staging synthesis is off, model passed through unchanged."))
	} else {
		r.Printf("%s %s, %s\n", styles.Bold.Render("Strategy:"),
			r.Humanize(s.ModelHandling), r.Humanize(s.DataLoadMode))
	}
	r.Printf("%d tables, %d relationships\n", s.Tables, s.Relationships)

	if len(s.Groups) > 0 {
		r.Println()
		r.Header(2, "Groups")
		rows := make([][]any, 0, len(s.Groups))
		for _, g := range s.Groups {
			rows = append(rows, []any{g.Group, g.Joins, g.JoinKind, g.Key})
		}
		r.Table([]string{"Group", "Joins", "Join Kind", "Key"}, rows)
	}

	if len(s.Synthesized) > 0 {
		r.Println()
		r.Header(2, "Synthesized tables")
		rows := make([][]any, 0, len(s.Synthesized))
		for _, t := range s.Synthesized {
			rows = append(rows, []any{t.Name, t.Columns})
		}
		r.Table([]string{"Table", "Columns"}, rows)
	}

	if len(s.Augmented) > 0 {
		r.Println()
		r.Printf("%s %s\n", styles.Bold.Render("Augmented:"), strings.Join(s.Augmented, ", "))
	}

	if len(s.Skips) > 0 {
		r.Println()
		r.Header(2, styles.Warning.Render(fmt.Sprintf("Skipped (%d)", len(s.Skips))))
		rows := make([][]any, 0, len(s.Skips))
		for _, sk := range s.Skips {
			rows = append(rows, []any{r.Humanize(sk.Kind), sk.Subject, sk.Reason})
		}
		r.Table([]string{"Kind", "Subject", "Reason"}, rows)
	}

	r.Println()
	r.Println(styles.Success.Render("Wrote " + modelOut))
	return nil
}
