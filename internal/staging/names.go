package staging

import (
	"strconv"
	"strings"
)

// nameSet hands out table names that collide with nothing already taken.
// Names compare case-insensitively.
type nameSet map[string]bool

func newNameSet(names []string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		s[strings.ToLower(n)] = true
	}
	return s
}

// claim returns base, or base with the first free numeric suffix, and
// marks the result taken.
func (s nameSet) claim(base string) string {
	name := base
	for i := 2; s[strings.ToLower(name)]; i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	s[strings.ToLower(name)] = true
	return name
}
