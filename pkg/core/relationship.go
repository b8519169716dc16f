package core

import "strings"

// Cardinality values for one side of a relationship.
const (
	CardinalityOne  = "one"
	CardinalityMany = "many"
)

// Cross-filter behaviors.
const (
	CrossFilterSingle = "oneDirection"
	CrossFilterBoth   = "bothDirections"
)

// Relationship connects a column (or a comma-separated composite column
// list) of one table to a column of another. Tables are referenced by name.
type Relationship struct {
	ID              string `json:"id" yaml:"id"`
	FromTable       string `json:"from_table" yaml:"from_table"`
	FromColumn      string `json:"from_column" yaml:"from_column"`
	ToTable         string `json:"to_table" yaml:"to_table"`
	ToColumn        string `json:"to_column" yaml:"to_column"`
	FromCardinality string `json:"from_cardinality,omitempty" yaml:"from_cardinality,omitempty"`
	ToCardinality   string `json:"to_cardinality,omitempty" yaml:"to_cardinality,omitempty"`
	CrossFilter     string `json:"cross_filter,omitempty" yaml:"cross_filter,omitempty"`
	Active          bool   `json:"active" yaml:"active"`
}

// FromColumns splits FromColumn into its join columns.
func (r *Relationship) FromColumns() []string {
	return SplitColumnList(r.FromColumn)
}

// ToColumns splits ToColumn into its join columns.
func (r *Relationship) ToColumns() []string {
	return SplitColumnList(r.ToColumn)
}

// SplitColumnList splits a comma-separated column list, trimming blanks
// and dropping empty entries.
func SplitColumnList(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			cols = append(cols, p)
		}
	}
	return cols
}

// SQLRelationshipRecord is the richer upstream join description. When
// present it drives composite-key derivation and join-kind selection.
type SQLRelationshipRecord struct {
	// ManySide is the table on the "many" side (table A)
	ManySide string `json:"many_side" yaml:"many_side"`
	// OneSide is the table on the "one" side (table B)
	OneSide string `json:"one_side" yaml:"one_side"`
	// KeysA are the ordered join columns of ManySide
	KeysA []string `json:"keys_a" yaml:"keys_a"`
	// KeysB are the ordered join columns of OneSide, same length as KeysA
	KeysB []string `json:"keys_b" yaml:"keys_b"`
	// JoinKind is inner, left, right or full
	JoinKind string `json:"join_kind,omitempty" yaml:"join_kind,omitempty"`
	// Reason flags the record for staging treatment regardless of key count
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
