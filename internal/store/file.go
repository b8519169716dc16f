package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// recordExt is the file extension of record files.
const recordExt = ".json"

// FileStore keeps one JSON file per table in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// unsafeFileChars are escaped in record file names. The escape character
// itself is among them, so the mapping can be reversed.
const unsafeFileChars = `%/\:*?"<>|`

// encodeFileName escapes table into a file name stem. Unsafe characters,
// control characters and a leading dot become %XX, so distinct tables never
// share a file.
func encodeFileName(table string) string {
	var sb strings.Builder
	for i := 0; i < len(table); i++ {
		c := table[i]
		if c < 0x20 || strings.IndexByte(unsafeFileChars, c) >= 0 || (i == 0 && c == '.') {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// decodeFileName reverses encodeFileName.
func decodeFileName(stem string) (string, error) {
	return url.PathUnescape(stem)
}

// path returns the record file for table.
func (s *FileStore) path(table string) string {
	return filepath.Join(s.dir, encodeFileName(table)+recordExt)
}

// Load reads the record for table.
func (s *FileStore) Load(_ context.Context, table string) (*Record, error) {
	data, err := os.ReadFile(s.path(table))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", table, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &MalformedRecordError{Table: table, Err: err}
	}
	if rec.Name == "" {
		rec.Name = table
	}
	return &rec, nil
}

// Save writes the record, replacing the file atomically.
func (s *FileStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || rec.Name == "" {
		return fmt.Errorf("record name is required")
	}
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.Name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".record-*")
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write record %s: %w", rec.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(rec.Name)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.Name, err)
	}
	return nil
}

// List returns the names of all records in the directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name, err := decodeFileName(strings.TrimSuffix(e.Name(), recordExt))
		if err != nil {
			// not written by this store
			continue
		}
		// the record's own name wins over the file name
		if rec, err := s.Load(ctx, name); err == nil {
			names = append(names, rec.Name)
		} else {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
