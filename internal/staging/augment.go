package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/leapstack-labs/modelbridge/pkg/mquery"
)

// FactAugmenter adds composite key columns to base tables and extends their
// pipelines with the steps computing them.
//
// The pipeline is always rebuilt from the baseline held by the baseline
// store, never from a previously augmented in-memory copy. The in-memory
// pipeline is used only when the store has no record for the table.
type FactAugmenter struct {
	baselines store.Reader
	logger    *slog.Logger
}

// NewFactAugmenter returns an augmenter reading baselines from baselines,
// which may be nil. logger may be nil.
func NewFactAugmenter(baselines store.Reader, logger *slog.Logger) *FactAugmenter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FactAugmenter{baselines: baselines, logger: logger}
}

// Augment adds keys to t. Key columns are added even when the pipeline
// cannot be augmented, in which case the returned error wraps
// ErrMissingBaseline. It returns the number of pipeline steps inserted.
func (f *FactAugmenter) Augment(ctx context.Context, t *core.Table, keys []CompositeKey) (int, error) {
	for _, key := range keys {
		if !t.HasColumn(key.Name) {
			t.Columns = append(t.Columns, keyColumn(key))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	baseline, err := f.baseline(ctx, t)
	if err != nil {
		return 0, err
	}
	doc, err := mquery.Parse(baseline)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrMissingBaseline, t.Name, err)
	}

	var (
		stepNames []string
		builders  []mquery.ChainFunc
	)
	for _, key := range keys {
		if addsColumn(doc, key.Name) {
			f.logger.Debug("pipeline already computes key", "table", t.Name, "key", key.Name)
			continue
		}
		stepNames = append(stepNames, "Added "+key.Name)
		builders = append(builders, func(prev string) string {
			return mquery.AddColumn(prev, key.Name, key.Expr, key.Type)
		})
	}
	if err := doc.InsertBeforeResult(stepNames, builders); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrMissingBaseline, t.Name, err)
	}
	t.Pipeline = doc.String()
	return len(stepNames), nil
}

// baseline returns the pipeline text to augment.
func (f *FactAugmenter) baseline(ctx context.Context, t *core.Table) (string, error) {
	if f.baselines != nil {
		rec, err := f.baselines.Load(ctx, t.Name)
		switch {
		case err == nil && strings.TrimSpace(rec.Source.Expression) != "":
			return rec.Source.Expression, nil
		case err == nil, errors.Is(err, store.ErrRecordNotFound):
			// fall through to the in-memory pipeline
		default:
			return "", fmt.Errorf("%w: %s: %w", ErrMissingBaseline, t.Name, err)
		}
	}
	if strings.TrimSpace(t.Pipeline) == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingBaseline, t.Name)
	}
	return t.Pipeline, nil
}

// addsColumn reports whether some step of doc already adds column, i.e.
// calls Table.AddColumn with column as the new column name.
func addsColumn(doc *mquery.Document, column string) bool {
	lit := mquery.String(column)
	for _, s := range doc.Steps {
		for _, args := range mquery.CallArgs(s.Expr, "Table.AddColumn") {
			if len(args) >= 2 && args[1] == lit {
				return true
			}
		}
	}
	return false
}
