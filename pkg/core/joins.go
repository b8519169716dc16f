package core

import "strings"

// Standard SQL join kinds.
const (
	JoinInner = "INNER"
	JoinLeft  = "LEFT"
	JoinRight = "RIGHT"
	JoinFull  = "FULL"
)

// NormalizeJoinKind maps free-form join kind strings ("left outer",
// "LEFT JOIN", "full_outer", ...) onto the standard join kinds.
// Unknown or empty input yields JoinInner.
func NormalizeJoinKind(kind string) string {
	k := strings.ToUpper(strings.TrimSpace(kind))
	k = strings.NewReplacer("_", " ", "-", " ").Replace(k)
	switch {
	case strings.HasPrefix(k, "LEFT"):
		return JoinLeft
	case strings.HasPrefix(k, "RIGHT"):
		return JoinRight
	case strings.HasPrefix(k, "FULL"):
		return JoinFull
	default:
		return JoinInner
	}
}
