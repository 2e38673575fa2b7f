package query

import "strings"

// legacyItem is one entry of the flat evaluation stack: either an operator
// or a boolean operand.
type legacyItem struct {
	op          string
	term        string
	placeholder bool
	negated     bool
}

func (it legacyItem) isOperand() bool { return it.op == "" }

// legacyProgram is the flat left-to-right form of a query. Parentheses are
// dropped and only the last seen operator combines the running result with
// the next operand.
type legacyProgram struct {
	items       []legacyItem
	danglingNot bool
	hasParens   bool
}

var parenSpacer = strings.NewReplacer("(", " ( ", ")", " ) ")

func compileLegacy(raw string) legacyProgram {
	var p legacyProgram
	for _, tok := range strings.Fields(parenSpacer.Replace(raw)) {
		switch strings.ToUpper(tok) {
		case "NOT":
			// NOT flips the previous operand; with none, a true placeholder is pushed.
			if n := len(p.items); n > 0 && p.items[n-1].isOperand() {
				p.items[n-1].negated = !p.items[n-1].negated
				continue
			}
			p.items = append(p.items, legacyItem{placeholder: true})
			p.danglingNot = true
		case "AND":
			p.items = append(p.items, legacyItem{op: "AND"})
		case "OR":
			p.items = append(p.items, legacyItem{op: "OR"})
		case "(", ")":
			p.hasParens = true
		default:
			p.items = append(p.items, legacyItem{term: tok})
		}
	}
	return p
}

func (p legacyProgram) match(ts TokenSet) bool {
	var result, seen bool
	op := ""
	for _, it := range p.items {
		if !it.isOperand() {
			op = it.op
			continue
		}
		v := it.placeholder || ts.Has(it.term)
		if it.negated {
			v = !v
		}
		switch {
		case !seen:
			result, seen = v, true
		case op == "AND":
			result = result && v
		case op == "OR":
			result = result || v
		}
	}
	return seen && result
}

func (p legacyProgram) warnings() []string {
	var out []string
	if p.danglingNot {
		out = append(out, "legacy mode: NOT without a preceding term evaluates as true")
	}
	if p.hasParens {
		out = append(out, "legacy mode: parentheses are ignored")
	}
	return out
}
