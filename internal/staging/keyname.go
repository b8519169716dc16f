package staging

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/mquery"
)

// KeySeparator separates column values inside a composite key.
const KeySeparator = "|"

// KeyType is the type ascription of every composite key column.
const KeyType = "type text"

// CompositeKey is the synthesized key column of a group.
type CompositeKey struct {
	// Name is the key column name, e.g. ITEM_NUMBER_SITE_NUMBER_Key
	Name string
	// Columns are the A-side join columns the key encodes, in key order.
	// They are also the key columns of the dimension table.
	Columns []string
	// ColumnsB are the B-side join columns, position by position paired
	// with Columns
	ColumnsB []string
	// Expr is the per-row expression over Columns, without "each"
	Expr string
	// Type is the column type ascription
	Type string
}

// DeriveKey derives the composite key of a group from its join columns.
// The name joins the distinct, order-preserving union of every join's
// A-side then B-side columns; the value is computed from the aligned key
// pairs. It depends only on the join columns, never on table names, so
// deriving it again later yields the same key.
func DeriveKey(g *Group) (CompositeKey, error) {
	var names []string
	for _, j := range g.Joins {
		ka, kb := g.orientedKeys(j)
		names = appendDistinct(names, ka...)
		names = appendDistinct(names, kb...)
	}
	left, right := g.AlignedKeys()
	if len(names) == 0 || len(left) == 0 {
		return CompositeKey{}, fmt.Errorf("%w: %s", ErrMissingJoinKeys, g.Label())
	}
	key := keyFromColumns(left)
	key.Name = strings.Join(names, "_") + "_Key"
	key.ColumnsB = right
	return key, nil
}

// On returns the key computed over cols instead of Columns. cols must pair
// position by position with Columns.
func (k CompositeKey) On(cols []string) CompositeKey {
	k.Expr = keyExpr(cols)
	return k
}

// For returns the key as table computes it from its own columns. table is
// one of the group's tables; B computes the key over ColumnsB, A and a
// self-joined table over Columns.
func (k CompositeKey) For(g *Group, table string) CompositeKey {
	if table == g.B && table != g.A {
		return k.On(k.ColumnsB)
	}
	return k
}

func keyFromColumns(cols []string) CompositeKey {
	return CompositeKey{
		Name:     strings.Join(cols, "_") + "_Key",
		Columns:  cols,
		ColumnsB: cols,
		Expr:     keyExpr(cols),
		Type:     KeyType,
	}
}

// keyExpr renders the key value: the text of each column, joined with
// KeySeparator.
func keyExpr(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = mquery.TextFrom(mquery.Field(c))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return mquery.Concat(parts, KeySeparator)
}
