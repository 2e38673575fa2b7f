package query

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/corpusdash/internal/domain/search/mode"
)

func TestLegacy_Evaluation(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		tokens []string
		want   bool
	}{
		{"single term", "祥子", camel, true},
		{"and", "祥子 AND 车", camel, true},
		{"or", "马车 OR 车", camel, true},
		{"lowercase operators", "马车 or 车", camel, true},
		{"postfix not", "车 NOT", camel, false},
		{"double postfix not", "车 NOT NOT", camel, true},
		// NOT after an operator pushes a true placeholder, so the negation is lost.
		{"infix not is lost", "祥子 AND NOT 车", camel, true},
		// NOT first pushes true and the next operand has no operator to combine with.
		{"leading not", "NOT 祥子", camel, true},
		{"leading not absent", "NOT 马车", camel, true},
		{"parentheses flattened", "车 AND (马车 OR 祥子)", []string{"祥子"}, true},
		{"juxtaposed ignored", "马车 车", camel, false},
		{"juxtaposed first wins", "车 马车", camel, true},
		{"parens only", "( )", camel, false},
		{"operators only", "AND OR", camel, false},
		{"empty tokens", "祥子", nil, false},
		{"case insensitive", "LOVE", []string{"Love", "peace"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Compile(tc.query, mode.Legacy)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got := q.Match(tc.tokens); got != tc.want {
				t.Errorf("legacy %q = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestLegacy_DiffersFromBoolean(t *testing.T) {
	tokens := []string{"b"}
	const in = "c AND (a OR b)"

	legacy := MustCompile(in, mode.Legacy)
	boolean := MustCompile(in, mode.Boolean)

	if !legacy.Match(tokens) {
		t.Error("legacy mode evaluates (c AND a) OR b and should match {b}")
	}
	if boolean.Match(tokens) {
		t.Error("boolean mode evaluates c AND (a OR b) and should not match {b}")
	}
}

func TestLegacy_Warnings(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"a AND b", nil},
		{"a NOT", nil},
		{"NOT a", []string{"legacy mode: NOT without a preceding term evaluates as true"}},
		{"(a OR b) AND NOT c", []string{
			"legacy mode: NOT without a preceding term evaluates as true",
			"legacy mode: parentheses are ignored",
		}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			q := MustCompile(tc.query, mode.Legacy)
			if diff := cmp.Diff(tc.want, q.Warnings()); diff != "" {
				t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
			}
			if q.Root() != nil {
				t.Error("legacy query must not expose an expression tree")
			}
			if q.String() != tc.query {
				t.Errorf("String() = %q, want raw query", q.String())
			}
		})
	}
}

func TestBoolean_NoWarnings(t *testing.T) {
	if w := MustCompile("NOT a", mode.Boolean).Warnings(); w != nil {
		t.Errorf("boolean mode returned warnings: %v", w)
	}
}
