package staging

import (
	"strings"

	"github.com/leapstack-labs/modelbridge/pkg/core"
)

// DedupeColumns drops columns whose name repeats an earlier column of the
// same table, compared case-insensitively. It returns the dropped names.
func DedupeColumns(t *core.Table) []string {
	seen := make(map[string]bool, len(t.Columns))
	kept := t.Columns[:0]
	var dropped []string
	for _, c := range t.Columns {
		k := strings.ToLower(c.Name)
		if seen[k] {
			dropped = append(dropped, c.Name)
			continue
		}
		seen[k] = true
		kept = append(kept, c)
	}
	t.Columns = kept
	return dropped
}
