package agent

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Arithmetic evaluator for the calcular tool. Integers and floats are kept
// apart: integer arithmetic is exact until a true division or a float
// operand promotes the result.

var (
	errSyntax      = errors.New("invalid expression")
	errDivByZero   = errors.New("division by zero")
	errOverflow    = errors.New("numeric overflow")
	errEmptyInput  = errors.New("empty expression")
	errUnsupported = errors.New("unsupported operation")
)

// maxIntBits caps the size of integer results. Python would keep going;
// a chat tool has no use for numbers this large.
const maxIntBits = 1 << 16

// number is an arbitrary precision integer or a float64 value.
type number struct {
	isFloat bool
	i       *big.Int
	f       float64
}

func intNum(i *big.Int) number  { return number{i: i} }
func floatNum(f float64) number { return number{isFloat: true, f: f} }

// float converts n to float64, failing when an integer is out of range.
func (n number) float() (float64, error) {
	if n.isFloat {
		return n.f, nil
	}
	f, _ := new(big.Float).SetInt(n.i).Float64()
	if math.IsInf(f, 0) {
		return 0, errOverflow
	}
	return f, nil
}

func (n number) isZero() bool {
	if n.isFloat {
		return n.f == 0
	}
	return n.i.Sign() == 0
}

// String renders n the way integer and floating point results are usually
// shown: "6", "250.0", "0.30000000000000004", "1e+16".
func (n number) String() string {
	if !n.isFloat {
		return n.i.String()
	}
	f := n.f
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

type tokenKind int

const (
	tokNum tokenKind = iota
	tokPlus
	tokMinus
	tokMul
	tokDiv
	tokFloorDiv
	tokPow
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	depth := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\n' || c == '\r':
			// A line break ends the expression unless it sits inside
			// parentheses or only whitespace follows.
			if depth == 0 && len(toks) > 0 && strings.TrimSpace(s[i:]) != "" {
				return nil, fmt.Errorf("%w: line break outside parentheses", errSyntax)
			}
			i++
		case c == ' ' || c == '\t' || c == '\f' || c == '\v':
			i++
		case c == '+':
			toks = append(toks, token{kind: tokPlus})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus})
			i++
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				toks = append(toks, token{kind: tokPow})
				i += 2
			} else {
				toks = append(toks, token{kind: tokMul})
				i++
			}
		case c == '/':
			if i+1 < len(s) && s[i+1] == '/' {
				toks = append(toks, token{kind: tokFloorDiv})
				i += 2
			} else {
				toks = append(toks, token{kind: tokDiv})
				i++
			}
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			depth++
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			if depth > 0 {
				depth--
			}
			i++
		case (c >= '0' && c <= '9') || c == '.':
			start := i
			for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || s[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokNum, text: s[start:i]})
		default:
			return nil, fmt.Errorf("%w: unexpected %q", errSyntax, c)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

func parseNumber(text string) (number, error) {
	if strings.Count(text, ".") > 1 || text == "." {
		return number{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
	}
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return number{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
		}
		return floatNum(f), nil
	}
	// Integer literals with a leading zero are only valid when all zeros.
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return number{}, fmt.Errorf("%w: leading zeros in %q", errSyntax, text)
	}
	i, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return number{}, fmt.Errorf("%w: bad number %q", errSyntax, text)
	}
	if i.BitLen() > maxIntBits {
		return number{}, fmt.Errorf("%w: %q", errOverflow, text)
	}
	return intNum(i), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() tokenKind { return p.toks[p.pos].kind }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// evaluate parses and evaluates expr.
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/" | "//") factor }
//	factor = ("+" | "-") factor | power
//	power  = atom [ "**" factor ]
//	atom   = number | "(" expr ")"
func evaluate(expr string) (number, error) {
	if strings.TrimSpace(expr) == "" {
		return number{}, errEmptyInput
	}
	toks, err := tokenize(expr)
	if err != nil {
		return number{}, err
	}
	p := &parser{toks: toks}
	n, err := p.expr()
	if err != nil {
		return number{}, err
	}
	if p.peek() != tokEOF {
		return number{}, fmt.Errorf("%w: trailing input", errSyntax)
	}
	if n.isFloat && (math.IsInf(n.f, 0) || math.IsNaN(n.f)) {
		return number{}, errOverflow
	}
	return n, nil
}

func (p *parser) expr() (number, error) {
	left, err := p.term()
	if err != nil {
		return number{}, err
	}
	for p.peek() == tokPlus || p.peek() == tokMinus {
		op := p.next().kind
		right, err := p.term()
		if err != nil {
			return number{}, err
		}
		left, err = binary(op, left, right)
		if err != nil {
			return number{}, err
		}
	}
	return left, nil
}

func (p *parser) term() (number, error) {
	left, err := p.factor()
	if err != nil {
		return number{}, err
	}
	for p.peek() == tokMul || p.peek() == tokDiv || p.peek() == tokFloorDiv {
		op := p.next().kind
		right, err := p.factor()
		if err != nil {
			return number{}, err
		}
		left, err = binary(op, left, right)
		if err != nil {
			return number{}, err
		}
	}
	return left, nil
}

func (p *parser) factor() (number, error) {
	switch p.peek() {
	case tokPlus:
		p.next()
		return p.factor()
	case tokMinus:
		p.next()
		n, err := p.factor()
		if err != nil {
			return number{}, err
		}
		return negate(n)
	}
	return p.power()
}

func (p *parser) power() (number, error) {
	base, err := p.atom()
	if err != nil {
		return number{}, err
	}
	if p.peek() != tokPow {
		return base, nil
	}
	p.next()
	exp, err := p.factor() // right associative, binds tighter than a unary minus on its left
	if err != nil {
		return number{}, err
	}
	return pow(base, exp)
}

func (p *parser) atom() (number, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		return parseNumber(t.text)
	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return number{}, err
		}
		if p.next().kind != tokRParen {
			return number{}, fmt.Errorf("%w: missing ')'", errSyntax)
		}
		return n, nil
	default:
		return number{}, fmt.Errorf("%w: unexpected token", errSyntax)
	}
}

func negate(n number) (number, error) {
	if n.isFloat {
		return floatNum(-n.f), nil
	}
	return intNum(new(big.Int).Neg(n.i)), nil
}

// floats converts both operands, promoting integers.
func floats(a, b number) (float64, float64, error) {
	x, err := a.float()
	if err != nil {
		return 0, 0, err
	}
	y, err := b.float()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func binary(op tokenKind, a, b number) (number, error) {
	if op == tokDiv {
		if b.isZero() {
			return number{}, errDivByZero
		}
		if !a.isFloat && !b.isFloat {
			// Exact quotient, rounded once.
			f, _ := new(big.Rat).SetFrac(a.i, b.i).Float64()
			if math.IsInf(f, 0) {
				return number{}, errOverflow
			}
			return floatNum(f), nil
		}
		x, y, err := floats(a, b)
		if err != nil {
			return number{}, err
		}
		return floatNum(x / y), nil
	}

	if a.isFloat || b.isFloat {
		x, y, err := floats(a, b)
		if err != nil {
			return number{}, err
		}
		switch op {
		case tokPlus:
			return floatNum(x + y), nil
		case tokMinus:
			return floatNum(x - y), nil
		case tokMul:
			return floatNum(x * y), nil
		case tokFloorDiv:
			if y == 0 {
				return number{}, errDivByZero
			}
			return floatNum(math.Floor(x / y)), nil
		}
		return number{}, errUnsupported
	}

	x, y := a.i, b.i
	var r *big.Int
	switch op {
	case tokPlus:
		r = new(big.Int).Add(x, y)
	case tokMinus:
		r = new(big.Int).Sub(x, y)
	case tokMul:
		if x.BitLen()+y.BitLen() > maxIntBits {
			return number{}, errOverflow
		}
		r = new(big.Int).Mul(x, y)
	case tokFloorDiv:
		if y.Sign() == 0 {
			return number{}, errDivByZero
		}
		q, m := new(big.Int).QuoRem(x, y, new(big.Int))
		if m.Sign() != 0 && (m.Sign() < 0) != (y.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		}
		r = q
	default:
		return number{}, errUnsupported
	}
	if r.BitLen() > maxIntBits {
		return number{}, errOverflow
	}
	return intNum(r), nil
}

func pow(base, exp number) (number, error) {
	if !base.isFloat && !exp.isFloat && exp.i.Sign() >= 0 {
		b := base.i
		// 0, 1 and -1 stay small for any exponent.
		if b.BitLen() > 1 {
			if !exp.i.IsInt64() || exp.i.Int64() > maxIntBits ||
				exp.i.Int64()*int64(b.BitLen()-1) > maxIntBits {
				return number{}, errOverflow
			}
		}
		return intNum(new(big.Int).Exp(b, exp.i, nil)), nil
	}

	x, y, err := floats(base, exp)
	if err != nil {
		return number{}, err
	}
	if x == 0 && y < 0 {
		return number{}, errDivByZero
	}
	if x < 0 && y != math.Trunc(y) {
		return number{}, errUnsupported // complex result
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) {
		return number{}, errOverflow
	}
	return floatNum(r), nil
}
