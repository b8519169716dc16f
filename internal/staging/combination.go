package staging

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// CombinationSuffix ends every combination table name.
const CombinationSuffix = "_combined"

// Combination is the outcome of resolving one group with a combination
// table.
type Combination struct {
	Group *Group
	Table *core.Table
	// Extra lists the columns of B that A does not have
	Extra    []string
	JoinKind string
}

// CombinationSynthesizer builds combination tables (merged-tables
// strategy).
type CombinationSynthesizer struct {
	settings core.Settings
	emitter  *PipelineEmitter
	logger   *slog.Logger
}

// NewCombinationSynthesizer returns a synthesizer. logger may be nil.
func NewCombinationSynthesizer(settings core.Settings, emitter *PipelineEmitter, logger *slog.Logger) *CombinationSynthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if emitter == nil {
		emitter = NewPipelineEmitter(settings)
	}
	return &CombinationSynthesizer{settings: settings, emitter: emitter, logger: logger}
}

// Synthesize builds the combination table of g from the two tables' full
// column sets.
func (c *CombinationSynthesizer) Synthesize(g *Group, tables map[string]*core.Table, names nameSet) (*Combination, error) {
	a, b := tables[g.A], tables[g.B]
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, g.Label())
	}
	if left, _ := g.KeyPairs(); len(left) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingJoinKeys, g.Label())
	}

	kind, conflict := g.JoinKind()
	if conflict {
		c.logger.Warn("join kinds disagree within group, using the first",
			"group", g.Label(), "join_kind", kind)
	}

	columns, extra := unionColumns(a.Columns, b.Columns)
	name := names.claim(c.settings.Prefix() + g.A + "_" + g.B + CombinationSuffix)
	t := &core.Table{
		Name:    name,
		Columns: columns,
	}
	t.Pipeline = c.emitter.Combination(g, a, b, extra)

	c.logger.Debug("synthesized combination table",
		"group", g.Label(), "table", name, "join_kind", kind, "columns", len(columns))
	return &Combination{Group: g, Table: t, Extra: extra, JoinKind: kind}, nil
}

// unionColumns returns A's columns followed by the columns of B whose name
// A lacks. Names compare exactly; repeats inside B collapse to the first.
func unionColumns(a, b []core.Column) ([]core.Column, []string) {
	seen := make(map[string]bool, len(a)+len(b))
	columns := make([]core.Column, 0, len(a)+len(b))
	for _, col := range a {
		seen[col.Name] = true
		columns = append(columns, col)
	}
	var extra []string
	for _, col := range b {
		if seen[col.Name] {
			continue
		}
		seen[col.Name] = true
		columns = append(columns, col)
		extra = append(extra, col.Name)
	}
	return columns, extra
}
