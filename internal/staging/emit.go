package staging

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/leapstack-labs/modelbridge/pkg/mquery"
)

// Metadata keys consulted when naming a table in a native query.
const (
	MetaSourceTable  = "source_table"
	MetaSourceSchema = "source_schema"
)

// PipelineEmitter writes the pipeline text of synthesized tables.
type PipelineEmitter struct {
	settings core.Settings
}

// NewPipelineEmitter returns an emitter for the given settings.
func NewPipelineEmitter(settings core.Settings) *PipelineEmitter {
	return &PipelineEmitter{settings: settings}
}

// Dimension emits the pipeline of a dimension table: select the key
// columns of both tables, rename B's to their A-side counterparts, combine
// and de-duplicate the rows, compute the composite key and drop rows
// without one. Dimension tables are always materialized, so the load mode
// does not matter here.
func (e *PipelineEmitter) Dimension(g *Group, key CompositeKey) string {
	doc := mquery.NewDocument()
	combined := doc.Add("From "+g.A, mquery.SelectColumns(mquery.Ident(g.A), key.Columns, mquery.MissingFieldUseNull))
	if g.A != g.B || !slices.Equal(key.Columns, key.ColumnsB) {
		fromA := combined
		fromB := doc.Add(doc.UniqueStepName("From "+g.B),
			mquery.SelectColumns(mquery.Ident(g.B), key.ColumnsB, mquery.MissingFieldUseNull))
		if renames := renamePairs(key.ColumnsB, key.Columns); len(renames) > 0 {
			fromB = doc.Add(doc.UniqueStepName("Renamed "+g.B), mquery.RenameColumns(fromB, renames))
		}
		combined = doc.Add("Combined", mquery.Combine(fromA, fromB))
	}
	deduped := doc.Add("Deduplicated", mquery.Distinct(combined))
	added := doc.Add("Added Key", mquery.AddColumn(deduped, key.Name, key.Expr, key.Type))
	doc.Add("Filtered Key", mquery.NotBlankFilter(added, key.Name))
	return doc.String()
}

// renamePairs pairs each column of from with the column of to at the same
// position, skipping columns already named alike.
func renamePairs(from, to []string) [][2]string {
	var pairs [][2]string
	for i := range min(len(from), len(to)) {
		if from[i] != to[i] {
			pairs = append(pairs, [2]string{from[i], to[i]})
		}
	}
	return pairs
}

// Combination emits the pipeline of a combination table. In live-query
// mode a native join query is preferred; when one cannot be built the
// nested-join form is used, which is also the import-mode pipeline.
func (e *PipelineEmitter) Combination(g *Group, a, b *core.Table, extra []string) string {
	if e.settings.LiveQuery() {
		if sql, ok := e.NativeJoinSQL(g, a, b, extra); ok {
			doc := mquery.NewDocument()
			src := doc.Add("Source", mquery.DatabaseSource(e.settings.Connection))
			doc.Add("Query", mquery.NativeQuery(src, sql))
			return doc.String()
		}
	}
	return e.nestedJoin(g, a, extra)
}

// nestedJoin joins B into A as a nested table column, then expands the
// extra columns of B.
func (e *PipelineEmitter) nestedJoin(g *Group, a *core.Table, extra []string) string {
	left, right := g.KeyPairs()
	kind, _ := g.JoinKind()

	nested := g.B
	if a.HasColumn(nested) {
		nested = "__" + g.B
	}

	doc := mquery.NewDocument()
	joined := doc.Add("Joined", mquery.NestedJoin(mquery.Ident(g.A), left, mquery.Ident(g.B), right, nested, kind))
	if len(extra) == 0 {
		doc.Add("Expanded", mquery.RemoveColumns(joined, []string{nested}))
	} else {
		doc.Add("Expanded", mquery.ExpandTableColumn(joined, nested, extra))
	}
	return doc.String()
}

// NativeJoinSQL builds the native join query of a combination table. It
// reports false when no query can be built: no connection, no join keys
// or nothing to select.
func (e *PipelineEmitter) NativeJoinSQL(g *Group, a, b *core.Table, extra []string) (string, bool) {
	conn := e.settings.Connection
	if conn.Server == "" || conn.Database == "" {
		return "", false
	}
	left, right := g.KeyPairs()
	if len(left) == 0 || len(a.Columns)+len(extra) == 0 {
		return "", false
	}

	q := quoterFor(conn.Kind)
	var cols []string
	for _, c := range a.Columns {
		cols = append(cols, selectItem(q, "a", c))
	}
	for _, name := range extra {
		c, ok := b.Column(name)
		if !ok {
			continue
		}
		cols = append(cols, selectItem(q, "b", *c))
	}

	var on []string
	for i := range left {
		on = append(on, fmt.Sprintf("a.%s = b.%s", q(left[i]), q(right[i])))
	}

	first, second := tableRef(q, conn, a)+" AS a", tableRef(q, conn, b)+" AS b"
	kind, _ := g.JoinKind()
	if kind == core.JoinRight {
		first, second = second, first
		kind = core.JoinLeft
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(first)
	sb.WriteString(" ")
	sb.WriteString(joinKeyword(kind))
	sb.WriteString(" ")
	sb.WriteString(second)
	sb.WriteString(" ON ")
	sb.WriteString(strings.Join(on, " AND "))
	return sb.String(), true
}

func joinKeyword(kind string) string {
	switch kind {
	case core.JoinLeft:
		return "LEFT OUTER JOIN"
	case core.JoinFull:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

type quoter func(string) string

func quoterFor(kind string) quoter {
	if kind == core.ConnectionPostgres {
		return func(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }
	}
	return func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" }
}

func selectItem(q quoter, alias string, c core.Column) string {
	src := c.SourceColumn
	if src == "" {
		src = c.Name
	}
	item := alias + "." + q(src)
	if src != c.Name {
		item += " AS " + q(c.Name)
	}
	return item
}

func tableRef(q quoter, conn core.Connection, t *core.Table) string {
	name, schema := t.Name, mquery.DefaultSchema(conn)
	if v := t.Metadata[MetaSourceTable]; v != "" {
		name = v
	}
	if v := t.Metadata[MetaSourceSchema]; v != "" {
		schema = v
	}
	return q(schema) + "." + q(name)
}
