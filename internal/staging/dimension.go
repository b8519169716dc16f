package staging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// DimensionRelationshipPrefix marks relationships created by the star-schema
// strategy.
const DimensionRelationshipPrefix = "stgrel_"

// Dimension is the outcome of resolving one group with a dimension table.
type Dimension struct {
	Group *Group
	Table *core.Table
	Key   CompositeKey
	// Relationships holds one relationship per distinct base table
	Relationships []*core.Relationship
}

// DimensionSynthesizer builds dimension tables (star-schema strategy).
type DimensionSynthesizer struct {
	settings core.Settings
	emitter  *PipelineEmitter
	logger   *slog.Logger
}

// NewDimensionSynthesizer returns a synthesizer. logger may be nil.
func NewDimensionSynthesizer(settings core.Settings, emitter *PipelineEmitter, logger *slog.Logger) *DimensionSynthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if emitter == nil {
		emitter = NewPipelineEmitter(settings)
	}
	return &DimensionSynthesizer{settings: settings, emitter: emitter, logger: logger}
}

// Synthesize builds the dimension table of g. tables is the model's table
// index, used to type the key columns; names reserves the table name.
func (d *DimensionSynthesizer) Synthesize(g *Group, tables map[string]*core.Table, names nameSet) (*Dimension, error) {
	if len(g.KeysA()) == 0 || len(g.KeysB()) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingJoinKeys, g.Label())
	}
	key, err := DeriveKey(g)
	if err != nil {
		return nil, err
	}

	name := names.claim(d.settings.Prefix() + g.A + "_" + g.B)
	t := &core.Table{Name: name}
	for _, col := range key.Columns {
		t.Columns = append(t.Columns, core.Column{
			Name:         col,
			DataType:     keyColumnType(col, tables[g.A], tables[g.B]),
			SourceColumn: col,
			SummarizeBy:  core.SummarizeNone,
		})
	}
	t.Columns = append(t.Columns, keyColumn(key))
	t.Pipeline = d.emitter.Dimension(g, key)

	dim := &Dimension{Group: g, Table: t, Key: key}
	for _, base := range g.Tables() {
		dim.Relationships = append(dim.Relationships, &core.Relationship{
			ID:              DimensionRelationshipID(name, base),
			FromTable:       name,
			FromColumn:      key.Name,
			ToTable:         base,
			ToColumn:        key.Name,
			FromCardinality: core.CardinalityOne,
			ToCardinality:   core.CardinalityMany,
			CrossFilter:     core.CrossFilterSingle,
			Active:          true,
		})
	}

	d.logger.Debug("synthesized dimension table",
		"group", g.Label(), "table", name, "key", key.Name, "joins", len(g.Joins))
	return dim, nil
}

// DimensionRelationshipID is the deterministic identifier of the
// relationship from a dimension table to a base table.
func DimensionRelationshipID(dimension, base string) string {
	return DimensionRelationshipPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(dimension+"\x00"+base)).String()
}

// IsDimensionRelationship reports whether r was created by the star-schema
// strategy.
func IsDimensionRelationship(r *core.Relationship) bool {
	return strings.HasPrefix(r.ID, DimensionRelationshipPrefix)
}

// keyColumn is the hidden composite key column for key.
func keyColumn(key CompositeKey) core.Column {
	return core.Column{
		Name:        key.Name,
		DataType:    core.DataTypeString,
		IsHidden:    true,
		IsKey:       true,
		SummarizeBy: core.SummarizeNone,
	}
}

// keyColumnType takes the column type from the first table that has the
// column, or falls back to string.
func keyColumnType(col string, tables ...*core.Table) string {
	for _, t := range tables {
		if t == nil {
			continue
		}
		if c, ok := t.Column(col); ok && c.DataType != "" {
			return c.DataType
		}
	}
	return core.DataTypeString
}
