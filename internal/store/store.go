// Package store persists per-table records: the column list and the single
// data-load pipeline of a table, keyed by table name.
//
// Records written by the extraction layer act as baselines; records written
// by staging synthesis are the resolved output. The persisted record is the
// authoritative baseline; in-memory tables are derived views of it.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// ErrRecordNotFound is returned when no record exists for a table.
var ErrRecordNotFound = errors.New("record not found")

// ErrMalformedRecord matches every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a record that exists but cannot be decoded.
type MalformedRecordError struct {
	Table string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record for table %q: %v", e.Table, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedRecord) hold.
func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// PipelineSource is the pipeline descriptor of a record.
type PipelineSource struct {
	// Kind is the pipeline language tag, e.g. "m"
	Kind       string `json:"kind"`
	Expression string `json:"expression"`
}

// Record is the persisted form of one table.
type Record struct {
	Name    string         `json:"name"`
	Columns []core.Column  `json:"columns"`
	Source  PipelineSource `json:"source"`
}

// FromTable builds the record for a table.
func FromTable(t *core.Table) *Record {
	return &Record{
		Name:    t.Name,
		Columns: append([]core.Column(nil), t.Columns...),
		Source:  PipelineSource{Kind: core.PipelineKindM, Expression: t.Pipeline},
	}
}

// Table converts the record back to a table.
func (r *Record) Table() *core.Table {
	return &core.Table{
		Name:     r.Name,
		Columns:  append([]core.Column(nil), r.Columns...),
		Pipeline: r.Source.Expression,
	}
}

// Reader loads records.
type Reader interface {
	// Load returns the record for table, ErrRecordNotFound when there is
	// none, or a *MalformedRecordError when it cannot be decoded.
	Load(ctx context.Context, table string) (*Record, error)
}

// Writer saves records, replacing any existing record of the same name.
type Writer interface {
	Save(ctx context.Context, rec *Record) error
}

// Store is a full record store.
type Store interface {
	Reader
	Writer
	// List returns the stored table names, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}
