package commands

import (
	"github.com/leapstack-labs/modelbridge/internal/cli/output"
	"github.com/leapstack-labs/modelbridge/internal/staging"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the complex relationship groups of a model",
		Long: `Inspect classifies the model's joins and lists the groups that
resolve would synthesize staging tables for. Nothing is written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			return runInspect(cc)
		},
	}
	return cmd
}

// inspectSummary is the JSON form of inspect.
type inspectSummary struct {
	Joins   int            `json:"joins"`
	Complex int            `json:"complex"`
	Groups  []groupSummary `json:"groups"`
}

func runInspect(cc *CommandContext) error {
	model, records, err := cc.loadInputs()
	if err != nil {
		return err
	}

	joins := staging.Joins(model.Relationships, records)
	complexJoins := staging.Classify(joins)
	groups := staging.GroupJoins(complexJoins)

	s := inspectSummary{Joins: len(joins), Complex: len(complexJoins), Groups: []groupSummary{}}
	for _, g := range groups {
		s.Groups = append(s.Groups, summarizeGroup(g))
	}

	r := cc.Renderer
	if r.Mode() == output.ModeJSON {
		return r.JSON(s)
	}

	r.Header(1, "Relationships")
	r.Printf("%d joins, %d complex, %d groups\n", s.Joins, s.Complex, len(s.Groups))
	if len(s.Groups) == 0 {
		r.Println(r.Styles().Muted.Render("No complex relationships."))
		return nil
	}
	r.Println()
	rows := make([][]any, 0, len(s.Groups))
	for _, g := range s.Groups {
		key := g.Key
		if key == "" {
			key = r.Styles().Warning.Render("missing join keys")
		}
		rows = append(rows, []any{g.Group, g.Joins, g.JoinKind, key})
	}
	r.Table([]string{"Group", "Joins", "Join Kind", "Key"}, rows)
	return nil
}
