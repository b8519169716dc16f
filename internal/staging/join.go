package staging

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// Join is one edge between two tables. It is either a BasicJoin (built from
// a model relationship) or an SQLJoin (built from an upstream SQL
// relationship record). Code that needs the edge's details switches on the
// concrete variant.
type Join interface {
	isJoin()
}

// BasicJoin wraps a model relationship.
type BasicJoin struct {
	Rel *core.Relationship
}

// SQLJoin wraps an SQL relationship record.
type SQLJoin struct {
	Record *core.SQLRelationshipRecord
}

func (BasicJoin) isJoin() {}
func (SQLJoin) isJoin()   {}

// joinTables returns the two tables in the join's own orientation: from/to
// for relationships, many/one for records.
func joinTables(j Join) (string, string) {
	switch j := j.(type) {
	case BasicJoin:
		return j.Rel.FromTable, j.Rel.ToTable
	case SQLJoin:
		return j.Record.ManySide, j.Record.OneSide
	}
	panic(fmt.Sprintf("staging: unknown join variant %T", j))
}

// joinKeys returns the join columns of each side, in the join's own
// orientation.
func joinKeys(j Join) ([]string, []string) {
	switch j := j.(type) {
	case BasicJoin:
		return j.Rel.FromColumns(), j.Rel.ToColumns()
	case SQLJoin:
		return cleanKeys(j.Record.KeysA), cleanKeys(j.Record.KeysB)
	}
	panic(fmt.Sprintf("staging: unknown join variant %T", j))
}

// joinKind returns the normalized join kind, or "" when the join does not
// declare one.
func joinKind(j Join) string {
	switch j := j.(type) {
	case BasicJoin:
		return ""
	case SQLJoin:
		if strings.TrimSpace(j.Record.JoinKind) == "" {
			return ""
		}
		return core.NormalizeJoinKind(j.Record.JoinKind)
	}
	panic(fmt.Sprintf("staging: unknown join variant %T", j))
}

// joinReason returns the staging reason carried by a record.
func joinReason(j Join) string {
	if sj, ok := j.(SQLJoin); ok {
		return strings.TrimSpace(sj.Record.Reason)
	}
	return ""
}

// joinLabel is a human-readable identifier for logs and skips.
func joinLabel(j Join) string {
	switch j := j.(type) {
	case BasicJoin:
		if j.Rel.ID != "" {
			return j.Rel.ID
		}
		return fmt.Sprintf("%s[%s] -> %s[%s]", j.Rel.FromTable, j.Rel.FromColumn, j.Rel.ToTable, j.Rel.ToColumn)
	case SQLJoin:
		return fmt.Sprintf("%s[%s] -> %s[%s]", j.Record.ManySide, strings.Join(j.Record.KeysA, ","),
			j.Record.OneSide, strings.Join(j.Record.KeysB, ","))
	}
	panic(fmt.Sprintf("staging: unknown join variant %T", j))
}

func cleanKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// pairKey is the unordered table-pair key: (A,B) and (B,A) coalesce.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// flipJoinKind returns the kind seen from the other side of the join.
func flipJoinKind(kind string) string {
	switch kind {
	case core.JoinLeft:
		return core.JoinRight
	case core.JoinRight:
		return core.JoinLeft
	}
	return kind
}
