package mquery

import (
	"fmt"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// DatabaseSource renders the connector call that opens conn.
func DatabaseSource(conn core.Connection) string {
	switch conn.Kind {
	case core.ConnectionPostgres:
		return fmt.Sprintf("PostgreSQL.Database(%s, %s)", String(conn.Server), String(conn.Database))
	default:
		return fmt.Sprintf("Sql.Database(%s, %s)", String(conn.Server), String(conn.Database))
	}
}

// DefaultSchema returns the schema used when conn does not name one.
func DefaultSchema(conn core.Connection) string {
	if conn.Schema != "" {
		return conn.Schema
	}
	if conn.Kind == core.ConnectionPostgres {
		return "public"
	}
	return "dbo"
}

// NavigationBaseline returns the simplest baseline pipeline for a table:
// open the database and navigate to the table.
func NavigationBaseline(conn core.Connection, table string) string {
	schema := DefaultSchema(conn)
	doc := NewDocument()
	src := doc.Add("Source", DatabaseSource(conn))
	doc.Add(schema+"_"+table, fmt.Sprintf("%s{[Schema = %s, Item = %s]}[Data]", src, String(schema), String(table)))
	return doc.String()
}
