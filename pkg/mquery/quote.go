package mquery

import "strings"

// keywords are reserved words that cannot be used as bare identifiers.
var keywords = map[string]bool{
	"and": true, "as": true, "each": true, "else": true, "error": true,
	"false": true, "if": true, "in": true, "is": true, "let": true,
	"meta": true, "not": true, "null": true, "or": true, "otherwise": true,
	"section": true, "shared": true, "then": true, "true": true, "try": true,
	"type": true,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// IsRegularIdentifier reports whether name can be written without the
// #"..." quoted-identifier syntax.
func IsRegularIdentifier(name string) bool {
	if name == "" || keywords[name] || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if c == '.' {
			// dots are allowed inside, never doubled or trailing
			if i == len(name)-1 || name[i+1] == '.' {
				return false
			}
			continue
		}
		if !isIdentPart(c) {
			return false
		}
	}
	return true
}

// Ident renders name as an identifier, quoting it when required.
func Ident(name string) string {
	if IsRegularIdentifier(name) {
		return name
	}
	return "#" + String(name)
}

// String renders s as a text literal.
func String(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// StringList renders names as a list of text literals: {"a", "b"}.
func StringList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = String(n)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

// Field renders a field access on the implicit each-record: [Name].
// Names containing brackets use the quoted form [#"Name"].
func Field(name string) string {
	if strings.ContainsAny(name, "[]") {
		return "[" + "#" + String(name) + "]"
	}
	return "[" + name + "]"
}

// unquoteIdent returns the plain name of an identifier token, undoing the
// #"..." form.
func unquoteIdent(tok string) string {
	tok = strings.TrimSpace(tok)
	if strings.HasPrefix(tok, `#"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 3 {
		return strings.ReplaceAll(tok[2:len(tok)-1], `""`, `"`)
	}
	return tok
}
