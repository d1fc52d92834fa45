// Package parser implements a recursive-descent ES5 parser.
package parser

import (
	"fmt"
)

// Error is a syntax error tied to a source line, convertible to a
// SyntaxError value by the embedding layer.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d)", e.Message, e.Line)
}

// labelEntry is one entry of the parser's label stack; IsLoop records
// whether `continue <label>` is legal against it.
type labelEntry struct {
	name   string
	isLoop bool
}

// Context bundles the mutable parse state threaded through every
// descent: the strict-mode flag, the label stack used to validate
// break/continue targets, the allow-in bit (false only inside a
// for-statement's init clause, to keep `in` from being misread as the
// for-in separator), and the recursion depth guard.
//
// ES5 has no destructuring or arrow-function parameter lists, so unlike
// an ES2015+ parser this one does not need Esprima-style cover-grammar
// tracking (isBindingElement/isAssignmentTarget/firstCoverInitError) to
// disambiguate a parenthesized expression from a future binding
// pattern; a parsed expression's legality as an assignment target is
// checked directly against its node type once (isValidAssignmentTarget
// in expressions.go).
type Context struct {
	strict  bool
	allowIn bool

	labels []labelEntry

	depth    int
	maxDepth int
}

func newContext() *Context {
	return &Context{allowIn: true, maxDepth: 2000}
}

func (c *Context) enter() error {
	c.depth++
	if c.depth > c.maxDepth {
		return &Error{Message: "Maximum call stack size exceeded"}
	}
	return nil
}

func (c *Context) leave() { c.depth-- }

func (c *Context) pushLabel(name string, isLoop bool) { c.labels = append(c.labels, labelEntry{name, isLoop}) }
func (c *Context) popLabel()                          { c.labels = c.labels[:len(c.labels)-1] }

func (c *Context) hasLabel(name string) bool {
	for _, l := range c.labels {
		if l.name == name {
			return true
		}
	}
	return false
}

func (c *Context) labelIsLoop(name string) bool {
	for _, l := range c.labels {
		if l.name == name {
			return l.isLoop
		}
	}
	return false
}

// inLoop reports whether an unlabeled loop context is active (used to
// validate bare `break`/`continue`).
func (c *Context) inLoop() bool {
	for _, l := range c.labels {
		if l.isLoop {
			return true
		}
	}
	return false
}
