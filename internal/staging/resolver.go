package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// Config holds resolver configuration.
type Config struct {
	// Settings selects the strategy and load mode
	Settings core.Settings
	// Baselines holds the authoritative baseline pipelines (optional)
	Baselines store.Reader
	// Output receives synthesized and augmented tables (optional)
	Output store.Writer
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Resolver resolves the complex relationships of a model.
type Resolver struct {
	settings   core.Settings
	output     store.Writer
	logger     *slog.Logger
	dimensions *DimensionSynthesizer
	combiner   *CombinationSynthesizer
	augmenter  *FactAugmenter
}

// NewResolver creates a resolver.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	emitter := NewPipelineEmitter(cfg.Settings)
	return &Resolver{
		settings:   cfg.Settings,
		output:     cfg.Output,
		logger:     logger,
		dimensions: NewDimensionSynthesizer(cfg.Settings, emitter, logger),
		combiner:   NewCombinationSynthesizer(cfg.Settings, emitter, logger),
		augmenter:  NewFactAugmenter(cfg.Baselines, logger),
	}
}

// Result is the outcome of a resolution run.
type Result struct {
	// Model is the resolved model; the input model is never modified
	Model *core.Model
	// Groups are the relationship groups found, in processing order
	Groups []*Group
	// Synthesized names the tables added, in creation order
	Synthesized []string
	// Augmented names the base tables that received composite keys
	Augmented []string
	// Skips lists everything left unresolved
	Skips []Skip
}

// Resolve resolves model. records, when non-empty, describe the joins in
// place of the model's relationships.
//
// Only an empty model is an error. Groups, relationships and tables that
// cannot be handled are skipped and reported on the Result.
func (r *Resolver) Resolve(ctx context.Context, model *core.Model, records []core.SQLRelationshipRecord) (*Result, error) {
	if model == nil || len(model.Tables) == 0 {
		return nil, ErrEmptyModel
	}

	res := &Result{Model: model.Clone()}
	if !r.settings.Active() {
		r.logger.Debug("staging disabled, passing model through",
			"enabled", r.settings.Enabled, "model_handling", r.settings.ModelHandling)
		return res, nil
	}
	work := res.Model

	tables := make(map[string]*core.Table, len(work.Tables))
	for _, t := range work.Tables {
		if dropped := DedupeColumns(t); len(dropped) > 0 {
			r.logger.Debug("dropped duplicate columns", "table", t.Name, "columns", dropped)
		}
		tables[t.Name] = t
	}

	rels := r.knownRelationships(work.Relationships, tables, res)
	joins := r.knownJoins(Joins(rels, records), tables, res)
	res.Groups = GroupJoins(Classify(joins))

	r.logger.Debug("classified relationships",
		"joins", len(joins), "groups", len(res.Groups), "model_handling", r.settings.ModelHandling)

	names := newNameSet(work.TableNames())
	newTables := append([]*core.Table(nil), work.Tables...)
	var synthesized []*core.Table

	switch r.settings.ModelHandling {
	case core.ModelHandlingStarSchema:
		resolved := make(map[string]bool)
		required := make(map[string][]*Group)
		var dimRels []*core.Relationship
		for _, g := range res.Groups {
			dim, err := r.dimensions.Synthesize(g, tables, names)
			if err != nil {
				res.skip(r.logger, skipKindOf(err), g.Label(), err)
				continue
			}
			resolved[g.Key] = true
			synthesized = append(synthesized, dim.Table)
			dimRels = append(dimRels, dim.Relationships...)
			for _, base := range g.Tables() {
				required[base] = append(required[base], g)
			}
		}

		newRels := make([]*core.Relationship, 0, len(rels)+len(dimRels))
		for _, rel := range rels {
			if !resolved[pairKey(rel.FromTable, rel.ToTable)] {
				newRels = append(newRels, rel)
			}
		}
		work.Relationships = append(newRels, dimRels...)

		r.augment(ctx, work.Tables, required, res)

	case core.ModelHandlingMergedTables:
		for _, g := range res.Groups {
			combo, err := r.combiner.Synthesize(g, tables, names)
			if err != nil {
				res.skip(r.logger, skipKindOf(err), g.Label(), err)
				continue
			}
			synthesized = append(synthesized, combo.Table)
		}
		work.Relationships = rels

	default:
		return nil, fmt.Errorf("unsupported model handling %q", r.settings.ModelHandling)
	}

	for _, t := range synthesized {
		res.Synthesized = append(res.Synthesized, t.Name)
	}
	work.Tables = append(newTables, synthesized...)

	r.persist(ctx, synthesized, res)
	var augmented []*core.Table
	for _, name := range res.Augmented {
		augmented = append(augmented, tables[name])
	}
	r.persist(ctx, augmented, res)

	r.logger.Info("staging resolved",
		"groups", len(res.Groups), "synthesized", len(res.Synthesized),
		"augmented", len(res.Augmented), "skipped", len(res.Skips))
	return res, nil
}

// augment adds the required composite keys to each base table, in model
// order.
func (r *Resolver) augment(ctx context.Context, tables []*core.Table, required map[string][]*Group, res *Result) {
	for _, t := range tables {
		groups := required[t.Name]
		if len(groups) == 0 {
			continue
		}
		var keys []CompositeKey
		seen := make(map[string]bool)
		for _, g := range groups {
			key, err := DeriveKey(g)
			if err != nil || seen[key.Name] {
				continue
			}
			seen[key.Name] = true
			keys = append(keys, key.For(g, t.Name))
		}

		steps, err := r.augmenter.Augment(ctx, t, keys)
		res.Augmented = append(res.Augmented, t.Name)
		if err != nil {
			res.skip(r.logger, SkipMissingBaseline, t.Name, err)
			continue
		}
		r.logger.Debug("augmented table pipeline", "table", t.Name, "keys", len(keys), "steps", steps)
	}
}

// knownRelationships drops relationships referencing a table absent from
// the model.
func (r *Resolver) knownRelationships(rels []*core.Relationship, tables map[string]*core.Table, res *Result) []*core.Relationship {
	kept := make([]*core.Relationship, 0, len(rels))
	for _, rel := range rels {
		if missing := missingTable(tables, rel.FromTable, rel.ToTable); missing != "" {
			res.skip(r.logger, SkipUnknownTable, joinLabel(BasicJoin{Rel: rel}),
				fmt.Errorf("%w: %q", ErrUnknownTable, missing))
			continue
		}
		kept = append(kept, rel)
	}
	return kept
}

// knownJoins drops joins referencing a table absent from the model.
// Relationships were already filtered, so only records can be dropped here.
func (r *Resolver) knownJoins(joins []Join, tables map[string]*core.Table, res *Result) []Join {
	kept := make([]Join, 0, len(joins))
	for _, j := range joins {
		a, b := joinTables(j)
		if missing := missingTable(tables, a, b); missing != "" {
			res.skip(r.logger, SkipUnknownTable, joinLabel(j), fmt.Errorf("%w: %q", ErrUnknownTable, missing))
			continue
		}
		kept = append(kept, j)
	}
	return kept
}

func skipKindOf(err error) SkipKind {
	if errors.Is(err, ErrUnknownTable) {
		return SkipUnknownTable
	}
	return SkipMissingJoinKeys
}

func missingTable(tables map[string]*core.Table, names ...string) string {
	for _, n := range names {
		if _, ok := tables[n]; !ok {
			return n
		}
	}
	return ""
}

// persist writes tables to the output store.
func (r *Resolver) persist(ctx context.Context, tables []*core.Table, res *Result) {
	if r.output == nil {
		return
	}
	for _, t := range tables {
		if err := r.output.Save(ctx, store.FromTable(t)); err != nil {
			res.skip(r.logger, SkipPersist, t.Name, err)
		}
	}
}

func (res *Result) skip(logger *slog.Logger, kind SkipKind, subject string, err error) {
	res.Skips = append(res.Skips, Skip{Kind: kind, Subject: subject, Reason: err.Error()})
	logger.Warn("skipped", "kind", string(kind), "subject", subject, "error", err)
}

// SkipsOf returns the skips of one kind.
func (res *Result) SkipsOf(kind SkipKind) []Skip {
	var out []Skip
	for _, s := range res.Skips {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// HasSkip reports whether any skip wraps target.
func (res *Result) HasSkip(target error) bool {
	for _, s := range res.Skips {
		if errors.Is(s.Err(), target) {
			return true
		}
	}
	return false
}
