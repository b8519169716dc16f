package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/modelbridge/pkg/core"
	"gopkg.in/yaml.v3"
)

// recordFile is the wrapped form of a record file. A bare list of records
// is accepted as well.
type recordFile struct {
	Relationships []core.SQLRelationshipRecord `json:"relationships" yaml:"relationships"`
}

// LoadRecords reads an SQL relationship record file. An empty path yields
// no records.
func LoadRecords(path string) ([]core.SQLRelationshipRecord, error) {
	if path == "" {
		return nil, nil
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read relationship records: %w", err)
	}
	records, err := ParseRecords(data, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.File == "" {
			pe.File = path
		}
		return nil, err
	}
	return records, nil
}

// ParseRecords decodes and validates SQL relationship records, keeping
// their order.
func ParseRecords(data []byte, format Format) ([]core.SQLRelationshipRecord, error) {
	var records []core.SQLRelationshipRecord
	if isList(data, format) {
		if err := decode(data, format, &records); err != nil {
			return nil, err
		}
	} else {
		var f recordFile
		if err := decode(data, format, &f); err != nil {
			return nil, err
		}
		records = f.Relationships
	}

	for i, r := range records {
		if r.ManySide == "" || r.OneSide == "" {
			return nil, &ParseError{Message: fmt.Sprintf("relationships[%d]: many_side and one_side are required", i)}
		}
		if len(r.KeysA) != len(r.KeysB) {
			return nil, &ParseError{Message: fmt.Sprintf("relationships[%d]: keys_a has %d columns, keys_b has %d",
				i, len(r.KeysA), len(r.KeysB))}
		}
	}
	return records, nil
}

// isList reports whether the document's top level is a sequence.
func isList(data []byte, format Format) bool {
	if format == FormatJSON {
		return bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil || len(node.Content) == 0 {
		return false
	}
	return node.Content[0].Kind == yaml.SequenceNode
}
