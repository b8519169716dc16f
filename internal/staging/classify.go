package staging

import (
	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// Joins returns the join list resolution works from. SQL relationship
// records, when any are given, supersede the model's relationships.
func Joins(rels []*core.Relationship, records []core.SQLRelationshipRecord) []Join {
	if len(records) > 0 {
		joins := make([]Join, len(records))
		for i := range records {
			joins[i] = SQLJoin{Record: &records[i]}
		}
		return joins
	}
	joins := make([]Join, 0, len(rels))
	for _, r := range rels {
		joins = append(joins, BasicJoin{Rel: r})
	}
	return joins
}

// IsComplex reports whether a single join needs staging treatment on its
// own: a composite key on either side, or an explicit staging reason.
// A join without any join columns is never complex.
func IsComplex(j Join) bool {
	if !hasKeys(j) {
		return false
	}
	a, b := joinKeys(j)
	return len(a) > 1 || len(b) > 1 || joinReason(j) != ""
}

// Classify returns the complex subset of joins, in input order. Besides
// the joins that are complex on their own, every join whose unordered
// table pair is connected more than once is complex.
func Classify(joins []Join) []Join {
	counts := make(map[string]int, len(joins))
	for _, j := range joins {
		if hasKeys(j) {
			a, b := joinTables(j)
			counts[pairKey(a, b)]++
		}
	}

	var complexJoins []Join
	for _, j := range joins {
		if !hasKeys(j) {
			continue
		}
		a, b := joinTables(j)
		if IsComplex(j) || counts[pairKey(a, b)] > 1 {
			complexJoins = append(complexJoins, j)
		}
	}
	return complexJoins
}

func hasKeys(j Join) bool {
	a, b := joinKeys(j)
	return len(a) > 0 || len(b) > 0
}
