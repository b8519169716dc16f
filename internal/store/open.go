package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Open picks a store implementation from location: paths ending in .db,
// .sqlite or .sqlite3 (or ":memory:") open a migrated SQLiteStore, anything
// else is a FileStore directory.
func Open(location string, logger *slog.Logger) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("store location is required")
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".db", ".sqlite", ".sqlite3":
	default:
		if location != ":memory:" {
			return NewFileStore(location), nil
		}
	}

	if location != ":memory:" {
		if dir := filepath.Dir(location); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	}
	s := NewSQLiteStore(logger)
	if err := s.Open(location); err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
