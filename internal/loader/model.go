// Package loader reads the extracted model and the SQL relationship record
// file, and writes resolved models back out.
//
// Files are decoded by extension: .json with encoding/json, .yaml and .yml
// with yaml.v3. Both decoders reject unknown fields.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/core"
	"gopkg.in/yaml.v3"
)

// Format is a file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &ParseError{File: path, Message: "unsupported file extension, use .json, .yaml or .yml"}
	}
}

// LoadModel reads an extracted model file.
func LoadModel(path string) (*core.Model, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	m, err := ParseModel(data, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.File == "" {
			pe.File = path
		}
		return nil, err
	}
	return m, nil
}

// ParseModel decodes and validates a model.
func ParseModel(data []byte, format Format) (*core.Model, error) {
	var m core.Model
	if err := decode(data, format, &m); err != nil {
		return nil, err
	}
	if err := ValidateModel(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateModel checks the structural invariants of a freshly loaded model:
// every table is named and table names are unique.
func ValidateModel(m *core.Model) error {
	seen := make(map[string]bool, len(m.Tables))
	for i, t := range m.Tables {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			return &ParseError{Message: fmt.Sprintf("tables[%d]: name is required", i)}
		}
		if seen[t.Name] {
			return &ParseError{Message: fmt.Sprintf("tables[%d]: duplicate table name %q", i, t.Name)}
		}
		seen[t.Name] = true
	}
	for i, r := range m.Relationships {
		if r == nil {
			return &ParseError{Message: fmt.Sprintf("relationships[%d]: empty entry", i)}
		}
	}
	return nil
}

// SaveModel writes m to path in the format implied by its extension.
func SaveModel(path string, m *core.Model) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := Encode(&buf, m, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// Encode writes v to w in the given format.
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return &ParseError{Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}
	return nil
}

// ParseError reports an input file that could not be decoded or failed
// validation.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
