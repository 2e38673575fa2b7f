package query

import "strings"

// Node is a boolean expression over a token set.
type Node interface {
	Match(ts TokenSet) bool
	String() string
}

// Term matches when the token set contains Text.
type Term struct {
	Text string
}

// Not inverts its operand.
type Not struct {
	Operand Node
}

// And matches when every operand matches.
type And struct {
	Operands []Node
}

// Or matches when at least one operand matches.
type Or struct {
	Operands []Node
}

var (
	_ Node = Term{}
	_ Node = Not{}
	_ Node = And{}
	_ Node = Or{}
)

// Match implements Node.
func (t Term) Match(ts TokenSet) bool { return ts.Has(t.Text) }

// Match implements Node.
func (n Not) Match(ts TokenSet) bool { return !n.Operand.Match(ts) }

// Match implements Node.
func (a And) Match(ts TokenSet) bool {
	for _, op := range a.Operands {
		if !op.Match(ts) {
			return false
		}
	}
	return len(a.Operands) > 0
}

// Match implements Node.
func (o Or) Match(ts TokenSet) bool {
	for _, op := range o.Operands {
		if op.Match(ts) {
			return true
		}
	}
	return false
}

func (t Term) String() string { return t.Text }

func (n Not) String() string { return "NOT " + wrap(n.Operand, precNot) }

func (a And) String() string { return join(a.Operands, " AND ", precAnd) }

func (o Or) String() string { return join(o.Operands, " OR ", precOr) }

// Binding strength, higher binds tighter.
const (
	precOr = iota + 1
	precAnd
	precNot
	precTerm
)

func precedence(n Node) int {
	switch n.(type) {
	case Or:
		return precOr
	case And:
		return precAnd
	case Not:
		return precNot
	default:
		return precTerm
	}
}

func wrap(n Node, parent int) string {
	if precedence(n) < parent {
		return "(" + n.String() + ")"
	}
	return n.String()
}

func join(nodes []Node, sep string, parent int) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		// Same-level children are parenthesized to keep the tree shape visible.
		if precedence(n) <= parent {
			parts[i] = "(" + n.String() + ")"
			continue
		}
		parts[i] = wrap(n, parent)
	}
	return strings.Join(parts, sep)
}

// Terms returns every literal term in the tree in left-to-right order.
func Terms(n Node) []string {
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case Term:
			out = append(out, v.Text)
		case Not:
			walk(v.Operand)
		case And:
			for _, op := range v.Operands {
				walk(op)
			}
		case Or:
			for _, op := range v.Operands {
				walk(op)
			}
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}
