package mquery

import (
	"fmt"
	"strings"
)

// MissingFieldUseNull tolerates selected columns that do not exist.
const MissingFieldUseNull = "MissingField.UseNull"

// JoinKind renders a SQL join kind (INNER, LEFT, RIGHT, FULL) as the
// matching JoinKind.* constant. Anything else is an inner join.
func JoinKind(kind string) string {
	switch strings.ToUpper(kind) {
	case "LEFT":
		return "JoinKind.LeftOuter"
	case "RIGHT":
		return "JoinKind.RightOuter"
	case "FULL":
		return "JoinKind.FullOuter"
	default:
		return "JoinKind.Inner"
	}
}

// SelectColumns renders Table.SelectColumns over table.
func SelectColumns(table string, columns []string, missingField string) string {
	if missingField == "" {
		return fmt.Sprintf("Table.SelectColumns(%s, %s)", table, StringList(columns))
	}
	return fmt.Sprintf("Table.SelectColumns(%s, %s, %s)", table, StringList(columns), missingField)
}

// Combine renders Table.Combine over the given tables.
func Combine(tables ...string) string {
	return "Table.Combine({" + strings.Join(tables, ", ") + "})"
}

// Distinct renders Table.Distinct.
func Distinct(table string) string {
	return "Table.Distinct(" + table + ")"
}

// AddColumn renders Table.AddColumn with an each-expression and a column
// type (e.g. "type text").
func AddColumn(table, column, eachExpr, colType string) string {
	if colType == "" {
		return fmt.Sprintf("Table.AddColumn(%s, %s, each %s)", table, String(column), eachExpr)
	}
	return fmt.Sprintf("Table.AddColumn(%s, %s, each %s, %s)", table, String(column), eachExpr, colType)
}

// NotBlankFilter renders a Table.SelectRows keeping rows whose column is
// neither null nor empty text.
func NotBlankFilter(table, column string) string {
	f := Field(column)
	return fmt.Sprintf("Table.SelectRows(%s, each %s <> null and %s <> \"\")", table, f, f)
}

// NestedJoin renders Table.NestedJoin of left and right into newColumn.
func NestedJoin(left string, leftKeys []string, right string, rightKeys []string, newColumn, joinKind string) string {
	return fmt.Sprintf("Table.NestedJoin(%s, %s, %s, %s, %s, %s)",
		left, StringList(leftKeys), right, StringList(rightKeys), String(newColumn), JoinKind(joinKind))
}

// ExpandTableColumn renders Table.ExpandTableColumn, keeping the expanded
// column names unchanged.
func ExpandTableColumn(table, column string, columns []string) string {
	return fmt.Sprintf("Table.ExpandTableColumn(%s, %s, %s, %s)",
		table, String(column), StringList(columns), StringList(columns))
}

// TextFrom renders Text.From(expr).
func TextFrom(expr string) string {
	return "Text.From(" + expr + ")"
}

// Concat joins expressions with the & operator and a literal separator.
func Concat(exprs []string, sep string) string {
	return strings.Join(exprs, " & "+String(sep)+" & ")
}

// NativeQuery renders Value.NativeQuery against source with folding
// enabled.
func NativeQuery(source, query string) string {
	return fmt.Sprintf("Value.NativeQuery(%s, %s, null, [EnableFolding = true])", source, String(query))
}

// RemoveColumns renders Table.RemoveColumns.
func RemoveColumns(table string, columns []string) string {
	return fmt.Sprintf("Table.RemoveColumns(%s, %s)", table, StringList(columns))
}

// RenameColumns renders Table.RenameColumns for (old, new) name pairs.
func RenameColumns(table string, pairs [][2]string) string {
	items := make([]string, len(pairs))
	for i, p := range pairs {
		items[i] = "{" + String(p[0]) + ", " + String(p[1]) + "}"
	}
	return fmt.Sprintf("Table.RenameColumns(%s, {%s})", table, strings.Join(items, ", "))
}
