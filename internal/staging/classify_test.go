package staging

import (
	"testing"

	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoins_RecordsSupersedeRelationships(t *testing.T) {
	m := chargesModel()

	joins := Joins(m.Relationships, nil)
	require.Len(t, joins, 3)
	assert.IsType(t, BasicJoin{}, joins[0])

	joins = Joins(m.Relationships, chargesRecords())
	require.Len(t, joins, 2)
	assert.IsType(t, SQLJoin{}, joins[0])
}

func TestIsComplex(t *testing.T) {
	tests := []struct {
		name string
		join Join
		want bool
	}{
		{"single key", basicJoin("A", "X", "B", "X"), false},
		{"composite from side", basicJoin("A", "X,Y", "B", "X"), true},
		{"composite to side", basicJoin("A", "X", "B", "X, Y"), true},
		{"no keys", basicJoin("A", "", "B", " , "), false},
		{"record composite", sqlJoin("A", []string{"X", "Y"}, "B", []string{"X", "Y"}, ""), true},
		{"record single", sqlJoin("A", []string{"X"}, "B", []string{"X"}, "left"), false},
		{
			"record with reason",
			SQLJoin{Record: &core.SQLRelationshipRecord{ManySide: "A", OneSide: "B", KeysA: []string{"X"}, KeysB: []string{"X"}, Reason: "role-playing"}},
			true,
		},
		{
			"reason without keys",
			SQLJoin{Record: &core.SQLRelationshipRecord{ManySide: "A", OneSide: "B", Reason: "role-playing"}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplex(tt.join))
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("parallel joins between the same pair", func(t *testing.T) {
		joins := []Join{
			basicJoin("A", "X", "B", "X"),
			basicJoin("B", "Y", "A", "Y"),
			basicJoin("B", "Z", "C", "Z"),
		}
		got := Classify(joins)
		assert.Equal(t, joins[:2], got)
	})

	t.Run("composite key alone", func(t *testing.T) {
		joins := []Join{
			basicJoin("A", "X", "B", "X"),
			basicJoin("B", "Y,Z", "C", "Y,Z"),
		}
		assert.Equal(t, joins[1:], Classify(joins))
	})

	t.Run("joins without keys neither count nor classify", func(t *testing.T) {
		joins := []Join{
			basicJoin("A", "X", "B", "X"),
			basicJoin("A", "", "B", ""),
		}
		assert.Empty(t, Classify(joins))
	})

	t.Run("charges scenario", func(t *testing.T) {
		m := chargesModel()
		got := Classify(Joins(m.Relationships, nil))
		require.Len(t, got, 2)
		assert.Equal(t, "r1", got[0].(BasicJoin).Rel.ID)
		assert.Equal(t, "r2", got[1].(BasicJoin).Rel.ID)
	})
}

func TestGroupJoins(t *testing.T) {
	joins := []Join{
		basicJoin("A", "X", "B", "X"),
		basicJoin("C", "Y,Z", "D", "Y,Z"),
		basicJoin("B", "W", "A", "W"),
		sqlJoin("D", []string{"Q"}, "C", []string{"Q"}, ""),
	}
	groups := GroupJoins(joins)
	require.Len(t, groups, 2)

	assert.Equal(t, "A", groups[0].A)
	assert.Equal(t, "B", groups[0].B)
	assert.Equal(t, []Join{joins[0], joins[2]}, groups[0].Joins)
	assert.Equal(t, "C", groups[1].A)
	assert.Equal(t, "D", groups[1].B)
	assert.Len(t, groups[1].Joins, 2)

	// every join lands in exactly one group
	total := 0
	for _, g := range groups {
		total += len(g.Joins)
	}
	assert.Equal(t, len(joins), total)
}

func TestGroup_OrientedKeys(t *testing.T) {
	g := GroupJoins([]Join{
		basicJoin("A", "A1", "B", "B1"),
		basicJoin("B", "B2, B1", "A", "A2, A1"),
	})[0]

	assert.Equal(t, []string{"A1", "A2"}, g.KeysA())
	assert.Equal(t, []string{"B1", "B2"}, g.KeysB())

	left, right := g.KeyPairs()
	assert.Equal(t, []string{"A1", "A2"}, left)
	assert.Equal(t, []string{"B1", "B2"}, right)
	assert.Equal(t, []string{"A", "B"}, g.Tables())
}

func TestGroup_JoinKind(t *testing.T) {
	tests := []struct {
		name         string
		joins        []Join
		wantKind     string
		wantConflict bool
	}{
		{"default inner", []Join{basicJoin("A", "X", "B", "X")}, core.JoinInner, false},
		{
			"first declared wins",
			[]Join{
				sqlJoin("A", []string{"X"}, "B", []string{"X"}, ""),
				sqlJoin("A", []string{"Y"}, "B", []string{"Y"}, "left outer"),
			},
			core.JoinLeft, false,
		},
		{
			"disagreement",
			[]Join{
				sqlJoin("A", []string{"X"}, "B", []string{"X"}, "inner"),
				sqlJoin("A", []string{"Y"}, "B", []string{"Y"}, "full"),
			},
			core.JoinInner, true,
		},
		{
			"reversed record is flipped",
			[]Join{
				sqlJoin("A", []string{"X"}, "B", []string{"X"}, "left"),
				sqlJoin("B", []string{"Y"}, "A", []string{"Y"}, "right"),
			},
			core.JoinLeft, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GroupJoins(tt.joins)[0]
			kind, conflict := g.JoinKind()
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantConflict, conflict)
		})
	}
}

func TestDeriveKey(t *testing.T) {
	t.Run("single column", func(t *testing.T) {
		g := GroupJoins([]Join{sqlJoin("A", []string{"ITEM_NUMBER"}, "B", []string{"ITEM_NUMBER"}, "")})[0]
		key, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, "ITEM_NUMBER_Key", key.Name)
		assert.Equal(t, "Text.From([ITEM_NUMBER])", key.Expr)
		assert.Equal(t, KeyType, key.Type)
	})

	t.Run("composite", func(t *testing.T) {
		m := chargesModel()
		g := GroupJoins(Classify(Joins(m.Relationships, nil)))[0]
		key, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, "ITEM_NUMBER_SITE_NUMBER_Key", key.Name)
		assert.Equal(t, []string{"ITEM_NUMBER", "SITE_NUMBER"}, key.Columns)
		assert.Equal(t, []string{"ITEM_NUMBER", "SITE_NUMBER"}, key.ColumnsB)
		assert.Equal(t, `Text.From([ITEM_NUMBER]) & "|" & Text.From([SITE_NUMBER])`, key.Expr)
		assert.Equal(t, "type text", key.Type)
	})

	t.Run("case-insensitive union keeps first spelling", func(t *testing.T) {
		g := GroupJoins([]Join{
			basicJoin("A", "Item_No", "B", "ITEM_NO"),
			basicJoin("A", "item_no,Site", "B", "ITEM_NO,SITE"),
		})[0]
		key, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, "Item_No_Site_Key", key.Name)
	})

	t.Run("stable across derivations and renames", func(t *testing.T) {
		g := GroupJoins([]Join{
			basicJoin("A", "X,Y", "B", "X,Y"),
			basicJoin("A", "Z", "B", "Z"),
		})[0]
		first, err := DeriveKey(g)
		require.NoError(t, err)
		second, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		renamed := GroupJoins([]Join{
			basicJoin("FACT", "X,Y", "DIM", "X,Y"),
			basicJoin("FACT", "Z", "DIM", "Z"),
		})[0]
		third, err := DeriveKey(renamed)
		require.NoError(t, err)
		assert.Equal(t, first, third)
	})

	t.Run("differently named sides", func(t *testing.T) {
		g := GroupJoins([]Join{
			sqlJoin("ORDERS", []string{"ORD_ITEM"}, "ITEMS", []string{"ITEM_NUMBER"}, ""),
			sqlJoin("ITEMS", []string{"ITEM_NUMBER", "SITE_NUMBER"}, "ORDERS", []string{"ORD_ITEM", "ORD_SITE"}, ""),
		})[0]
		key, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, "ORD_ITEM_ITEM_NUMBER_ORD_SITE_SITE_NUMBER_Key", key.Name)
		assert.Equal(t, []string{"ORD_ITEM", "ORD_SITE"}, key.Columns)
		assert.Equal(t, []string{"ITEM_NUMBER", "SITE_NUMBER"}, key.ColumnsB)
		assert.Equal(t, `Text.From([ORD_ITEM]) & "|" & Text.From([ORD_SITE])`, key.For(g, "ORDERS").Expr)
		assert.Equal(t, `Text.From([ITEM_NUMBER]) & "|" & Text.From([SITE_NUMBER])`, key.For(g, "ITEMS").Expr)
		assert.Equal(t, key.Name, key.For(g, "ITEMS").Name)
	})

	t.Run("self join computes on the A side", func(t *testing.T) {
		g := GroupJoins([]Join{basicJoin("EMP", "MANAGER_ID", "EMP", "EMP_ID")})[0]
		key, err := DeriveKey(g)
		require.NoError(t, err)
		assert.Equal(t, "Text.From([MANAGER_ID])", key.For(g, "EMP").Expr)
	})

	t.Run("no columns", func(t *testing.T) {
		g := &Group{A: "A", B: "B", Joins: []Join{basicJoin("A", "", "B", "")}}
		_, err := DeriveKey(g)
		assert.ErrorIs(t, err, ErrMissingJoinKeys)
	})
}

func TestDedupeColumns(t *testing.T) {
	tbl := &core.Table{Name: "T", Columns: []core.Column{
		{Name: "ID"}, {Name: "Name"}, {Name: "id"}, {Name: "NAME"}, {Name: "Other"},
	}}
	dropped := DedupeColumns(tbl)
	assert.Equal(t, []string{"id", "NAME"}, dropped)
	assert.Equal(t, []string{"ID", "Name", "Other"}, tbl.ColumnNames())
}

func TestNameSet(t *testing.T) {
	names := newNameSet([]string{"stg_A_B", "stg_a_b_2"})
	assert.Equal(t, "stg_A_B_3", names.claim("stg_A_B"))
	assert.Equal(t, "stg_C_D", names.claim("stg_C_D"))
	assert.Equal(t, "stg_C_D_2", names.claim("stg_C_D"))
}
