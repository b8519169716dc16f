package staging

import (
	"context"
	"testing"

	"github.com/leapstack-labs/modelbridge/internal/store"
	"github.com/leapstack-labs/modelbridge/pkg/core"
	"github.com/leapstack-labs/modelbridge/pkg/mquery"
	"github.com/stretchr/testify/require"
)

var testConn = core.Connection{Kind: core.ConnectionSQLServer, Server: "srv", Database: "erp"}

func col(name, dataType string) core.Column {
	return core.Column{Name: name, DataType: dataType, SourceColumn: name}
}

// chargesModel is MATERIAL_CHARGES joined to ITEMS once on ITEM_NUMBER and
// once on (ITEM_NUMBER, SITE_NUMBER), plus a plain ITEMS -> SITES link.
func chargesModel() *core.Model {
	return &core.Model{
		Tables: []*core.Table{
			{
				Name: "MATERIAL_CHARGES",
				Columns: []core.Column{
					col("CHARGE_ID", core.DataTypeInt64),
					col("ITEM_NUMBER", core.DataTypeString),
					col("SITE_NUMBER", core.DataTypeInt64),
					col("AMOUNT", core.DataTypeDouble),
				},
			},
			{
				Name: "ITEMS",
				Columns: []core.Column{
					col("ITEM_NUMBER", core.DataTypeString),
					col("SITE_NUMBER", core.DataTypeInt64),
					col("DESCRIPTION", core.DataTypeString),
				},
			},
			{
				Name: "SITES",
				Columns: []core.Column{
					col("SITE_NUMBER", core.DataTypeInt64),
					col("SITE_NAME", core.DataTypeString),
				},
			},
		},
		Relationships: []*core.Relationship{
			{ID: "r1", FromTable: "MATERIAL_CHARGES", FromColumn: "ITEM_NUMBER", ToTable: "ITEMS", ToColumn: "ITEM_NUMBER", Active: true},
			{ID: "r2", FromTable: "MATERIAL_CHARGES", FromColumn: "ITEM_NUMBER, SITE_NUMBER", ToTable: "ITEMS", ToColumn: "ITEM_NUMBER, SITE_NUMBER", Active: false},
			{ID: "r3", FromTable: "ITEMS", FromColumn: "SITE_NUMBER", ToTable: "SITES", ToColumn: "SITE_NUMBER", Active: true},
		},
	}
}

// chargesRecords describes the same two joins as SQL relationship records.
func chargesRecords() []core.SQLRelationshipRecord {
	return []core.SQLRelationshipRecord{
		{ManySide: "MATERIAL_CHARGES", OneSide: "ITEMS", KeysA: []string{"ITEM_NUMBER"}, KeysB: []string{"ITEM_NUMBER"}},
		{ManySide: "MATERIAL_CHARGES", OneSide: "ITEMS", KeysA: []string{"ITEM_NUMBER", "SITE_NUMBER"}, KeysB: []string{"ITEM_NUMBER", "SITE_NUMBER"}},
	}
}

// seedBaselines writes a navigation baseline for every table of m.
func seedBaselines(t *testing.T, m *core.Model) *store.FileStore {
	t.Helper()
	s := store.NewFileStore(t.TempDir())
	for _, tbl := range m.Tables {
		rec := store.FromTable(tbl)
		rec.Source.Expression = mquery.NavigationBaseline(testConn, tbl.Name)
		require.NoError(t, s.Save(context.Background(), rec))
	}
	return s
}

func starSettings() core.Settings {
	return core.Settings{
		Enabled:       true,
		ModelHandling: core.ModelHandlingStarSchema,
		DataLoadMode:  core.LoadModeImport,
		Connection:    testConn,
	}
}

func mergedSettings(mode core.LoadMode) core.Settings {
	return core.Settings{
		Enabled:       true,
		ModelHandling: core.ModelHandlingMergedTables,
		DataLoadMode:  mode,
		Connection:    testConn,
	}
}

func basicJoin(from, fromCol, to, toCol string) Join {
	return BasicJoin{Rel: &core.Relationship{FromTable: from, FromColumn: fromCol, ToTable: to, ToColumn: toCol}}
}

func sqlJoin(many string, keysA []string, one string, keysB []string, kind string) Join {
	return SQLJoin{Record: &core.SQLRelationshipRecord{ManySide: many, OneSide: one, KeysA: keysA, KeysB: keysB, JoinKind: kind}}
}
