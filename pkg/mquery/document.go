package mquery

import (
	"fmt"
	"strconv"
	"strings"
)

// indent is the per-level indentation used when rendering.
const indent = "    "

// Step is one named binding of a let expression.
type Step struct {
	Name string
	Expr string
}

// Document is a parsed let expression.
type Document struct {
	Steps []Step
	// Result is the expression after "in", usually a step reference
	Result string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Add appends a step and makes it the result. It returns the rendered
// identifier of the new step so callers can chain off it.
func (d *Document) Add(name, expr string) string {
	d.Steps = append(d.Steps, Step{Name: name, Expr: expr})
	d.Result = Ident(name)
	return d.Result
}

// Step returns the step with the given name.
func (d *Document) Step(name string) (Step, bool) {
	for _, s := range d.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// HasStep reports whether a step with the given name exists.
func (d *Document) HasStep(name string) bool {
	_, ok := d.Step(name)
	return ok
}

// FinalStep returns the name of the step the result refers to, when the
// result is a plain step reference.
func (d *Document) FinalStep() (string, bool) {
	name := unquoteIdent(d.Result)
	if name != d.Result || IsRegularIdentifier(name) {
		if d.HasStep(name) {
			return name, true
		}
	}
	return "", false
}

// UniqueStepName returns base, or base with a numeric suffix, such that no
// existing step has that name.
func (d *Document) UniqueStepName(base string) string {
	if !d.HasStep(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + " " + strconv.Itoa(i)
		if !d.HasStep(candidate) {
			return candidate
		}
	}
}

// ChainFunc builds the expression of a chained step from the rendered
// identifier of the step before it.
type ChainFunc func(prev string) string

// InsertBeforeResult appends one step per builder, immediately before the
// result, each chained off the previous one. The first is chained off the
// current final step. The result is then pointed at the last inserted step.
//
// When the result is not a plain step reference, the result expression is
// first captured in its own step so it can be chained off.
func (d *Document) InsertBeforeResult(names []string, builders []ChainFunc) error {
	if len(names) != len(builders) {
		return fmt.Errorf("mquery: %d step names for %d builders", len(names), len(builders))
	}
	if len(names) == 0 {
		return nil
	}
	prev, ok := d.FinalStep()
	if !ok {
		if strings.TrimSpace(d.Result) == "" {
			return fmt.Errorf("mquery: document has no result to chain off")
		}
		prev = d.UniqueStepName("Result")
		d.Steps = append(d.Steps, Step{Name: prev, Expr: d.Result})
	}
	prevIdent := Ident(prev)
	for i, name := range names {
		name = d.UniqueStepName(name)
		d.Steps = append(d.Steps, Step{Name: name, Expr: builders[i](prevIdent)})
		prevIdent = Ident(name)
	}
	d.Result = prevIdent
	return nil
}

// String renders the document as a let expression.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString("let\n")
	for i, s := range d.Steps {
		b.WriteString(indent)
		b.WriteString(Ident(s.Name))
		b.WriteString(" = ")
		b.WriteString(s.Expr)
		if i < len(d.Steps)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("in\n")
	b.WriteString(indent)
	b.WriteString(d.Result)
	return b.String()
}
