// Package query compiles and evaluates boolean term queries over the words
// of one sentence.
//
// Two modes exist. Boolean mode parses the query into an expression tree with
// NOT > AND > OR precedence, working parentheses and implicit AND between
// juxtaposed operands. Legacy mode reproduces the historical flat evaluator:
// strictly left to right, parentheses ignored, NOT bound to the preceding
// operand.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/corpusdash/internal/domain"
	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
)

// MaxLength is the maximum accepted query length in bytes.
const MaxLength = 4096

// Query is a compiled query, safe for concurrent use.
type Query struct {
	raw    string
	mode   mode.Mode
	root   Node
	legacy *legacyProgram
}

// Compile validates raw and prepares it for evaluation in the given mode.
// The empty mode means boolean.
func Compile(raw string, m mode.Mode) (Query, error) {
	m = m.OrDefault()
	if !m.IsValid() {
		return Query{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidQuery, m)
	}
	if strings.TrimSpace(raw) == "" {
		return Query{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(raw) > MaxLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidQuery, MaxLength)
	}

	if m == mode.Legacy {
		p := compileLegacy(raw)
		return Query{raw: raw, mode: m, legacy: &p}, nil
	}

	root, err := Parse(raw)
	if err != nil {
		return Query{}, err
	}
	return Query{raw: raw, mode: m, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(raw string, m mode.Mode) Query {
	q, err := Compile(raw, m)
	if err != nil {
		panic(err)
	}
	return q
}

// Raw returns the query as entered.
func (q Query) Raw() string { return q.raw }

// Mode returns the evaluation mode.
func (q Query) Mode() mode.Mode { return q.mode }

// Root returns the expression tree. It is nil in legacy mode.
func (q Query) Root() Node { return q.root }

// Warnings lists degenerate constructs the query relies on.
func (q Query) Warnings() []string {
	if q.legacy != nil {
		return q.legacy.warnings()
	}
	return nil
}

// String returns the canonical form of the query.
func (q Query) String() string {
	if q.root != nil {
		return q.root.String()
	}
	return q.raw
}

// Match evaluates the query against the words of one sentence.
func (q Query) Match(words []string) bool {
	return q.MatchSet(NewTokenSet(words))
}

// MatchSet evaluates the query against a prepared token set.
// The zero Query matches nothing.
func (q Query) MatchSet(ts TokenSet) bool {
	switch {
	case q.legacy != nil:
		return q.legacy.match(ts)
	case q.root != nil:
		return q.root.Match(ts)
	default:
		return false
	}
}

// Evaluate reports whether tokens satisfy query in boolean mode.
// Empty or malformed queries evaluate to false.
func Evaluate(query string, tokens []string) bool {
	q, err := Compile(query, mode.Boolean)
	if err != nil {
		return false
	}
	return q.Match(tokens)
}
