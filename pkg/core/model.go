package core

import "strings"

// Semantic data types used for synthesized columns.
const (
	DataTypeString = "string"
	DataTypeInt64  = "int64"
	DataTypeDouble = "double"
	DataTypeBool   = "boolean"
	DataTypeDate   = "dateTime"
)

// Summarization hints.
const (
	SummarizeNone = "none"
	SummarizeSum  = "sum"
)

// PipelineKindM tags pipeline text written in the Power Query M language.
const PipelineKindM = "m"

// Column is a single column of a Table.
type Column struct {
	// Name is unique within its table (case-insensitive)
	Name string `json:"name" yaml:"name"`
	// DataType is the semantic type (string, int64, double, ...)
	DataType string `json:"data_type" yaml:"data_type"`
	// SourceColumn is the column reference in the source system
	SourceColumn string `json:"source_column,omitempty" yaml:"source_column,omitempty"`
	// IsHidden is true for synthesized composite keys
	IsHidden bool `json:"is_hidden,omitempty" yaml:"is_hidden,omitempty"`
	// IsKey marks key columns
	IsKey bool `json:"is_key,omitempty" yaml:"is_key,omitempty"`
	// SummarizeBy is the summarization hint
	SummarizeBy string `json:"summarize_by,omitempty" yaml:"summarize_by,omitempty"`
}

// Table is a table of the model.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
	// Pipeline is the data-load pipeline expression, possibly empty
	Pipeline string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	// Metadata holds free-form key-value pairs
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Column returns the column with the given name, compared case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether the table has a column with the given name
// (case-insensitive).
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:     t.Name,
		Columns:  append([]Column(nil), t.Columns...),
		Pipeline: t.Pipeline,
	}
	if t.Metadata != nil {
		c.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Model is the table list and relationship list together.
type Model struct {
	Tables        []*Table        `json:"tables" yaml:"tables"`
	Relationships []*Relationship `json:"relationships" yaml:"relationships"`
}

// Table looks a table up by exact name.
func (m *Model) Table(name string) (*Table, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TableNames returns the table names in model order.
func (m *Model) TableNames() []string {
	names := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		names[i] = t.Name
	}
	return names
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{
		Tables:        make([]*Table, len(m.Tables)),
		Relationships: make([]*Relationship, len(m.Relationships)),
	}
	for i, t := range m.Tables {
		c.Tables[i] = t.Clone()
	}
	for i, r := range m.Relationships {
		rc := *r
		c.Relationships[i] = &rc
	}
	return c
}
