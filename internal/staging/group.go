package staging

import (
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// Group is every complex join connecting one unordered pair of tables.
//
// A and B take the orientation of the first join seen for the pair: the
// from (or many) side is A. Groups are resolved by exactly one synthesized
// table.
type Group struct {
	Key   string
	A, B  string
	Joins []Join
}

// GroupJoins partitions joins by unordered table pair. Groups come back in
// order of first appearance, so the output is stable for stable input.
func GroupJoins(joins []Join) []*Group {
	var groups []*Group
	byKey := make(map[string]*Group)
	for _, j := range joins {
		a, b := joinTables(j)
		key := pairKey(a, b)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, A: a, B: b}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Joins = append(g.Joins, j)
	}
	return groups
}

// Label is the display form of the group key.
func (g *Group) Label() string {
	return g.A + " <-> " + g.B
}

// Tables returns the distinct tables the group references.
func (g *Group) Tables() []string {
	if g.A == g.B {
		return []string{g.A}
	}
	return []string{g.A, g.B}
}

// reversed reports whether j runs B to A.
func (g *Group) reversed(j Join) bool {
	a, _ := joinTables(j)
	return a != g.A
}

// orientedKeys returns j's join columns as (A side, B side).
func (g *Group) orientedKeys(j Join) ([]string, []string) {
	ka, kb := joinKeys(j)
	if g.reversed(j) {
		return kb, ka
	}
	return ka, kb
}

// KeysA is the distinct union of A-side join columns across the group.
func (g *Group) KeysA() []string {
	var cols []string
	for _, j := range g.Joins {
		ka, _ := g.orientedKeys(j)
		cols = appendDistinct(cols, ka...)
	}
	return cols
}

// KeysB is the distinct union of B-side join columns across the group.
func (g *Group) KeysB() []string {
	var cols []string
	for _, j := range g.Joins {
		_, kb := g.orientedKeys(j)
		cols = appendDistinct(cols, kb...)
	}
	return cols
}

// KeyPairs returns the distinct equality pairs (A column, B column) across
// the group. Columns of a join without a counterpart on the other side are
// ignored.
func (g *Group) KeyPairs() ([]string, []string) {
	var left, right []string
	seen := make(map[string]bool)
	for _, j := range g.Joins {
		ka, kb := g.orientedKeys(j)
		n := min(len(ka), len(kb))
		for i := 0; i < n; i++ {
			k := strings.ToLower(ka[i]) + "\x00" + strings.ToLower(kb[i])
			if seen[k] {
				continue
			}
			seen[k] = true
			left = append(left, ka[i])
			right = append(right, kb[i])
		}
	}
	return left, right
}

// AlignedKeys returns the key pairs with every column used at most once
// per side: the A-side columns and, at the same positions, the B-side
// columns they join to. The first pairing of a column wins.
func (g *Group) AlignedKeys() ([]string, []string) {
	left, right := g.KeyPairs()
	var a, b []string
	seenA := make(map[string]bool, len(left))
	seenB := make(map[string]bool, len(right))
	for i := range left {
		la, lb := strings.ToLower(left[i]), strings.ToLower(right[i])
		if seenA[la] || seenB[lb] {
			continue
		}
		seenA[la], seenB[lb] = true, true
		a = append(a, left[i])
		b = append(b, right[i])
	}
	return a, b
}

// JoinKind returns the join kind of the first join that declares one,
// oriented A to B, defaulting to inner. conflict is true when a later join
// of the group declares a different kind.
func (g *Group) JoinKind() (kind string, conflict bool) {
	for _, j := range g.Joins {
		k := joinKind(j)
		if k == "" {
			continue
		}
		if g.reversed(j) {
			k = flipJoinKind(k)
		}
		if kind == "" {
			kind = k
		} else if k != kind {
			conflict = true
		}
	}
	if kind == "" {
		kind = core.JoinInner
	}
	return kind, conflict
}

// appendDistinct appends the names not already present, compared
// case-insensitively. The first spelling wins.
func appendDistinct(dst []string, names ...string) []string {
	for _, n := range names {
		dup := false
		for _, d := range dst {
			if strings.EqualFold(d, n) {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, n)
		}
	}
	return dst
}
