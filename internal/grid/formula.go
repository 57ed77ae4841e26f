package grid

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrorDisplay is rendered in place of a value when a formula fails.
const ErrorDisplay = "#ERROR"

var (
	ErrBadFormula = errors.New("bad formula")

	refPattern = regexp.MustCompile(`[A-G][1-9][0-9]?`)
	sumPattern = regexp.MustCompile(`SUM\(([A-G][1-9][0-9]?):([A-G][1-9][0-9]?)\)`)
)

// Lookup resolves a cell reference to its numeric value. Missing or
// non-numeric cells report ok=false and contribute 0.
type Lookup func(Ref) (value float64, ok bool)

// Evaluate computes a formula string ("=A1+SUM(C2:C5)*2"). SUM ranges are
// substituted before bare references so their arguments survive intact, then
// the resulting arithmetic expression is parsed and evaluated. Any parse or
// evaluation failure returns ErrBadFormula; callers render ErrorDisplay.
func Evaluate(formula string, lookup Lookup) (float64, error) {
	expr := strings.TrimPrefix(formula, "=")

	expr = sumPattern.ReplaceAllStringFunc(expr, func(call string) string {
		m := sumPattern.FindStringSubmatch(call)
		start, _ := ParseRef(m[1])
		end, _ := ParseRef(m[2])
		sum := 0.0
		for _, ref := range (Range{Start: start, End: end}).Refs() {
			if v, ok := lookup(ref); ok {
				sum += v
			}
		}
		return formatNumber(sum)
	})

	expr = refPattern.ReplaceAllStringFunc(expr, func(ref string) string {
		r, ok := ParseRef(ref)
		if !ok {
			return "0"
		}
		v, ok := lookup(r)
		if !ok {
			return "0"
		}
		return formatNumber(v)
	})

	p := &exprParser{input: expr}
	v, err := p.parse()
	if err != nil {
		return 0, ErrBadFormula
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// exprParser is a recursive-descent evaluator for + - * / with parentheses,
// unary minus and floating-point literals; standard precedence and left
// associativity.
type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parse() (float64, error) {
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, ErrBadFormula
	}
	return v, nil
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.factor()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			p.pos++
			r, err := p.factor()
			if err != nil {
				return 0, err
			}
			v /= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) factor() (float64, error) {
	p.skipSpaces()
	switch {
	case p.peek() == '-':
		p.pos++
		v, err := p.factor()
		return -v, err
	case p.peek() == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, ErrBadFormula
		}
		p.pos++
		return v, nil
	default:
		return p.number()
	}
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return 0, ErrBadFormula
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, ErrBadFormula
	}
	return v, nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}
