package mquery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned when parsing blank pipeline text.
var ErrEmpty = errors.New("empty pipeline")

// SyntaxError describes pipeline text whose top-level structure could not
// be read.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pipeline syntax error at offset %d: %s", e.Offset, e.Msg)
}

// scanner walks pipeline text while tracking bracket depth, text
// literals, quoted identifiers and comments.
type scanner struct {
	src string
	pos int
}

// skipTrivia advances past whitespace and comments.
func (s *scanner) skipTrivia() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"):
			end := strings.IndexByte(s.src[s.pos:], '\n')
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end + 1
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end + 4
			}
		default:
			return
		}
	}
}

// skipLiteral advances past a text literal starting at pos. "" inside a
// literal is an escaped quote.
func (s *scanner) skipLiteral() error {
	start := s.pos
	s.pos++ // opening quote
	for s.pos < len(s.src) {
		if s.src[s.pos] == '"' {
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '"' {
				s.pos += 2
				continue
			}
			s.pos++
			return nil
		}
		s.pos++
	}
	return &SyntaxError{Offset: start, Msg: "unterminated text literal"}
}

// keywordAt reports whether the keyword kw starts at pos as a whole word.
func (s *scanner) keywordAt(kw string) bool {
	if !strings.HasPrefix(s.src[s.pos:], kw) {
		return false
	}
	if s.pos > 0 {
		prev := s.src[s.pos-1]
		if isIdentPart(prev) || prev == '.' || prev == '#' {
			return false
		}
	}
	end := s.pos + len(kw)
	if end < len(s.src) && (isIdentPart(s.src[end]) || s.src[end] == '.') {
		return false
	}
	return true
}

// splitTopLevel scans a let-body starting at pos and returns the step texts
// (split on depth-0 commas) and the offset just after the closing "in".
// Nested let/in pairs inside steps are balanced.
func (s *scanner) splitTopLevel() ([]string, int, error) {
	var (
		parts     []string
		depth     int
		innerLets int
		start     = s.pos
	)
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"':
			if err := s.skipLiteral(); err != nil {
				return nil, 0, err
			}
			continue
		case c == '#' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '"':
			s.pos++
			if err := s.skipLiteral(); err != nil {
				return nil, 0, err
			}
			continue
		case strings.HasPrefix(s.src[s.pos:], "//"), strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipTrivia()
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth < 0 {
				return nil, 0, &SyntaxError{Offset: s.pos, Msg: fmt.Sprintf("unbalanced %q", c)}
			}
		case c == ',' && depth == 0 && innerLets == 0:
			parts = append(parts, s.src[start:s.pos])
			start = s.pos + 1
		case depth == 0 && s.keywordAt("let"):
			innerLets++
			s.pos += len("let")
			continue
		case depth == 0 && s.keywordAt("in"):
			if innerLets > 0 {
				innerLets--
				s.pos += len("in")
				continue
			}
			parts = append(parts, s.src[start:s.pos])
			return parts, s.pos + len("in"), nil
		}
		s.pos++
	}
	return nil, 0, &SyntaxError{Offset: s.pos, Msg: `missing "in"`}
}

// splitStep splits "Name = expr" on the first top-level "=" that is not
// part of a comparison or the => lambda arrow.
func splitStep(text string, offset int) (Step, error) {
	lead := &scanner{src: text}
	lead.skipTrivia()
	trimmed := strings.TrimSpace(text[lead.pos:])
	i := 0
	if strings.HasPrefix(trimmed, `#"`) {
		sc := &scanner{src: trimmed, pos: 1}
		if err := sc.skipLiteral(); err != nil {
			return Step{}, err
		}
		i = sc.pos
	} else {
		for i < len(trimmed) && (isIdentPart(trimmed[i]) || trimmed[i] == '.') {
			i++
		}
	}
	name := trimmed[:i]
	rest := strings.TrimSpace(trimmed[i:])
	if name == "" || !strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "=>") {
		return Step{}, &SyntaxError{Offset: offset, Msg: fmt.Sprintf("expected step assignment, got %q", firstLine(trimmed))}
	}
	expr := trimTrailingTrivia(strings.TrimSpace(rest[1:]))
	if expr == "" {
		return Step{}, &SyntaxError{Offset: offset, Msg: fmt.Sprintf("step %s has no expression", name)}
	}
	return Step{Name: unquoteIdent(name), Expr: expr}, nil
}

// trimTrailingTrivia cuts comments and whitespace that follow the last
// token of expr.
func trimTrailingTrivia(expr string) string {
	s := &scanner{src: expr}
	end := 0
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"', c == '#' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '"':
			if c == '#' {
				s.pos++
			}
			if err := s.skipLiteral(); err != nil {
				return expr
			}
			end = s.pos
		case c == ' ' || c == '\t' || c == '\n' || c == '\r',
			strings.HasPrefix(s.src[s.pos:], "//"), strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipTrivia()
		default:
			s.pos++
			end = s.pos
		}
	}
	return expr[:end]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Parse reads pipeline text into a Document.
//
// Text that is not a let expression is accepted as a single-step pipeline
// whose only step is named Source.
func Parse(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	s := &scanner{src: text}
	s.skipTrivia()
	if !s.keywordAt("let") {
		return &Document{
			Steps:  []Step{{Name: "Source", Expr: strings.TrimSpace(text)}},
			Result: "Source",
		}, nil
	}
	s.pos += len("let")

	parts, after, err := s.splitTopLevel()
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	offset := 0
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			// tolerate a trailing comma before "in"
			offset += len(part) + 1
			continue
		}
		step, err := splitStep(part, offset)
		if err != nil {
			return nil, err
		}
		doc.Steps = append(doc.Steps, step)
		offset += len(part) + 1
	}
	doc.Result = trimTrailingTrivia(strings.TrimSpace(text[after:]))
	if doc.Result == "" {
		return nil, &SyntaxError{Offset: after, Msg: `nothing after "in"`}
	}
	return doc, nil
}

// CallArgs returns the argument texts of every call to fn in expr, in
// order of appearance, including calls nested in other calls' arguments.
// Text literals and comments are skipped, so a function name quoted in
// text is not a call.
func CallArgs(expr, fn string) [][]string {
	var calls [][]string
	s := &scanner{src: expr}
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"', c == '#' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '"':
			if c == '#' {
				s.pos++
			}
			if err := s.skipLiteral(); err != nil {
				return calls
			}
			continue
		case strings.HasPrefix(s.src[s.pos:], "//"), strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipTrivia()
			continue
		case strings.HasPrefix(s.src[s.pos:], fn+"(") &&
			(s.pos == 0 || !isIdentPart(s.src[s.pos-1]) && s.src[s.pos-1] != '.'):
			if args, err := splitArgs(s.src, s.pos+len(fn)+1); err == nil {
				calls = append(calls, args)
			}
			s.pos += len(fn) + 1
			continue
		}
		s.pos++
	}
	return calls
}

// splitArgs splits the argument list that starts at start, just after the
// opening parenthesis, on depth-0 commas.
func splitArgs(src string, start int) ([]string, error) {
	s := &scanner{src: src, pos: start}
	var args []string
	depth := 0
	argStart := start
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '"', c == '#' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '"':
			if c == '#' {
				s.pos++
			}
			if err := s.skipLiteral(); err != nil {
				return nil, err
			}
			continue
		case strings.HasPrefix(s.src[s.pos:], "//"), strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipTrivia()
			continue
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			if depth == 0 {
				if c != ')' {
					return nil, &SyntaxError{Offset: s.pos, Msg: fmt.Sprintf("unbalanced %q", c)}
				}
				return append(args, trimTrailingTrivia(strings.TrimSpace(s.src[argStart:s.pos]))), nil
			}
			depth--
		case c == ',' && depth == 0:
			args = append(args, trimTrailingTrivia(strings.TrimSpace(s.src[argStart:s.pos])))
			argStart = s.pos + 1
		}
		s.pos++
	}
	return nil, &SyntaxError{Offset: start, Msg: "unterminated call"}
}
