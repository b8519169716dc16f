package staging

import (
	"errors"
	"fmt"
)

// ErrEmptyModel is returned when there is no model to resolve at all.
var ErrEmptyModel = errors.New("model has no tables")

// Recoverable conditions. They never abort a resolution run; the affected
// group, relationship or table is skipped and reported on the Result.
var (
	ErrMissingJoinKeys = errors.New("missing join keys")
	ErrUnknownTable    = errors.New("unknown table")
	ErrMissingBaseline = errors.New("missing baseline pipeline")
)

// SkipKind classifies a Skip.
type SkipKind string

// Skip kinds.
const (
	SkipMissingJoinKeys SkipKind = "missing_join_keys"
	SkipUnknownTable    SkipKind = "unknown_table"
	SkipMissingBaseline SkipKind = "missing_baseline"
	SkipPersist         SkipKind = "persist_failed"
)

// Skip records something the resolver left unresolved.
type Skip struct {
	Kind SkipKind
	// Subject is the group key, relationship label or table name
	Subject string
	Reason  string
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %s (%s)", s.Kind, s.Subject, s.Reason)
}

// Err returns the sentinel error matching the skip kind, wrapped with the
// skip details.
func (s Skip) Err() error {
	var base error
	switch s.Kind {
	case SkipMissingJoinKeys:
		base = ErrMissingJoinKeys
	case SkipUnknownTable:
		base = ErrUnknownTable
	case SkipMissingBaseline:
		base = ErrMissingBaseline
	default:
		return fmt.Errorf("%s: %s", s.Subject, s.Reason)
	}
	return fmt.Errorf("%w: %s: %s", base, s.Subject, s.Reason)
}
