package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// spaceClass matches exactly the runes unicode.IsSpace accepts, the set
// strings.Fields splits legacy queries on.
const spaceClass = `\s\x{0B}\x{85}\p{Z}`

// Every run of non-space, non-paren characters lexes as Word. The keyword
// rules never win against Word; keywords() retypes whole words afterwards,
// so a term such as ANDROID or 祥子AND stays a term.
var lex = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[` + spaceClass + `]+`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Word", Pattern: `[^` + spaceClass + `()]+`},
	{Name: "And", Pattern: `(?i)AND`},
	{Name: "Or", Pattern: `(?i)OR`},
	{Name: "Not", Pattern: `(?i)NOT`},
})

var symbols = lex.Symbols()

func keywords(tok lexer.Token) (lexer.Token, error) {
	switch strings.ToUpper(tok.Value) {
	case "AND":
		tok.Type = symbols["And"]
	case "OR":
		tok.Type = symbols["Or"]
	case "NOT":
		tok.Type = symbols["Not"]
	}
	return tok, nil
}

// orExpr is the grammar root: and-groups joined by OR.
type orExpr struct {
	Terms []*andExpr `parser:"@@ ( Or @@ )*"`
}

// andExpr joins unary expressions by AND; juxtaposition is an implicit AND.
type andExpr struct {
	Terms []*unaryExpr `parser:"@@ ( And? @@ )*"`
}

type unaryExpr struct {
	Negated *unaryExpr `parser:"  Not @@"`
	Operand *operand   `parser:"| @@"`
}

type operand struct {
	Word  *string `parser:"  @Word"`
	Group *orExpr `parser:"| LParen @@ RParen"`
}

var parser = participle.MustBuild[orExpr](
	participle.Lexer(lex),
	participle.Elide("Whitespace"),
	participle.Map(keywords, "Word"),
)

// Parse compiles a boolean query into an expression tree.
// Errors wrap domain.ErrInvalidQuery.
func Parse(s string) (Node, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	tree, err := parser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return tree.node(), nil
}

func (e *orExpr) node() Node {
	if len(e.Terms) == 1 {
		return e.Terms[0].node()
	}
	ops := make([]Node, len(e.Terms))
	for i, t := range e.Terms {
		ops[i] = t.node()
	}
	return Or{Operands: ops}
}

func (e *andExpr) node() Node {
	if len(e.Terms) == 1 {
		return e.Terms[0].node()
	}
	ops := make([]Node, len(e.Terms))
	for i, t := range e.Terms {
		ops[i] = t.node()
	}
	return And{Operands: ops}
}

func (e *unaryExpr) node() Node {
	if e.Negated != nil {
		return Not{Operand: e.Negated.node()}
	}
	return e.Operand.node()
}

func (o *operand) node() Node {
	if o.Group != nil {
		return o.Group.node()
	}
	return Term{Text: *o.Word}
}
