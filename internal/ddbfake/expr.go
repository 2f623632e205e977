package ddbfake

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokComma
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func lex(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '=' || c == '+' || c == '-':
			toks = append(toks, token{tokOp, string(c)})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(s) && (s[i+1] == '=' || (c == '<' && s[i+1] == '>')) {
				op += string(s[i+1])
			}
			toks = append(toks, token{tokOp, op})
			i += len(op)
		case isIdent(c):
			j := i
			for j < len(s) && isIdent(s[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("ddbfake: unexpected %q in expression %q", c, s)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

func isIdent(c byte) bool {
	return c == '#' || c == ':' || c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// env binds an expression to an item and its placeholder maps.
type env struct {
	item   map[string]types.AttributeValue
	names  map[string]string
	values map[string]types.AttributeValue
}

func (e env) attrName(tok string) (string, error) {
	if strings.HasPrefix(tok, "#") {
		n, ok := e.names[tok]
		if !ok {
			return "", fmt.Errorf("ddbfake: undefined name placeholder %s", tok)
		}
		return n, nil
	}
	return tok, nil
}

// operand resolves a path or value placeholder. ok is false for a missing attribute.
func (e env) operand(tok string) (types.AttributeValue, bool, error) {
	if strings.HasPrefix(tok, ":") {
		v, ok := e.values[tok]
		if !ok {
			return nil, false, fmt.Errorf("ddbfake: undefined value placeholder %s", tok)
		}
		return v, true, nil
	}
	name, err := e.attrName(tok)
	if err != nil {
		return nil, false, err
	}
	v, ok := e.item[name]
	return v, ok, nil
}

type parser struct {
	toks []token
	pos  int
	env  env
}

func newParser(expr string, e env) (*parser, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, env: e}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, fmt.Errorf("ddbfake: expected %s, got %q", what, t.text)
	}
	return t, nil
}

func isKeyword(t token, kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

// evalCondition evaluates a condition, filter or key condition expression
// against e.item. An empty expression is true.
func evalCondition(expr string, e env) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}
	p, err := newParser(expr, e)
	if err != nil {
		return false, err
	}
	ok, err := p.or()
	if err != nil {
		return false, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return false, fmt.Errorf("ddbfake: trailing %q in %q", t.text, expr)
	}
	return ok, nil
}

func (p *parser) or() (bool, error) {
	v, err := p.and()
	if err != nil {
		return false, err
	}
	for isKeyword(p.peek(), "OR") {
		p.next()
		r, err := p.and()
		if err != nil {
			return false, err
		}
		v = v || r
	}
	return v, nil
}

func (p *parser) and() (bool, error) {
	v, err := p.not()
	if err != nil {
		return false, err
	}
	for isKeyword(p.peek(), "AND") {
		p.next()
		r, err := p.not()
		if err != nil {
			return false, err
		}
		v = v && r
	}
	return v, nil
}

func (p *parser) not() (bool, error) {
	if isKeyword(p.peek(), "NOT") {
		p.next()
		v, err := p.not()
		return !v, err
	}
	return p.primary()
}

func (p *parser) primary() (bool, error) {
	t := p.next()
	switch {
	case t.kind == tokLParen:
		v, err := p.or()
		if err != nil {
			return false, err
		}
		_, err = p.expect(tokRParen, ")")
		return v, err

	case isKeyword(t, "attribute_exists"), isKeyword(t, "attribute_not_exists"):
		if _, err := p.expect(tokLParen, "("); err != nil {
			return false, err
		}
		path, err := p.expect(tokIdent, "attribute path")
		if err != nil {
			return false, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return false, err
		}
		_, exists, err := p.env.operand(path.text)
		if err != nil {
			return false, err
		}
		return exists == isKeyword(t, "attribute_exists"), nil

	case t.kind == tokIdent:
		op, err := p.expect(tokOp, "comparison operator")
		if err != nil {
			return false, err
		}
		rhs, err := p.expect(tokIdent, "operand")
		if err != nil {
			return false, err
		}
		return p.compare(t.text, op.text, rhs.text)
	}
	return false, fmt.Errorf("ddbfake: unexpected %q", t.text)
}

func (p *parser) compare(lhs, op, rhs string) (bool, error) {
	a, aok, err := p.env.operand(lhs)
	if err != nil {
		return false, err
	}
	b, bok, err := p.env.operand(rhs)
	if err != nil {
		return false, err
	}
	if !aok || !bok {
		return op == "<>", nil
	}
	c, comparable := compareValues(a, b)
	switch op {
	case "=":
		return comparable && c == 0, nil
	case "<>":
		return !comparable || c != 0, nil
	case "<":
		return comparable && c < 0, nil
	case "<=":
		return comparable && c <= 0, nil
	case ">":
		return comparable && c > 0, nil
	case ">=":
		return comparable && c >= 0, nil
	}
	return false, fmt.Errorf("ddbfake: unsupported operator %q", op)
}

// compareValues orders two scalar attribute values of the same type.
func compareValues(a, b types.AttributeValue) (int, bool) {
	switch x := a.(type) {
	case *types.AttributeValueMemberS:
		y, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return 0, false
		}
		return strings.Compare(x.Value, y.Value), true
	case *types.AttributeValueMemberN:
		y, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return 0, false
		}
		xf, xok := new(big.Float).SetString(x.Value)
		yf, yok := new(big.Float).SetString(y.Value)
		if !xok || !yok {
			return 0, false
		}
		return xf.Cmp(yf), true
	case *types.AttributeValueMemberBOOL:
		y, ok := b.(*types.AttributeValueMemberBOOL)
		if !ok || x.Value != y.Value {
			return 1, ok
		}
		return 0, true
	}
	return 0, false
}

// applyUpdate evaluates a SET/REMOVE update expression, mutating e.item.
func applyUpdate(expr string, e env) error {
	p, err := newParser(expr, e)
	if err != nil {
		return err
	}

	// Right-hand sides see the item as it was before the update.
	before := make(map[string]types.AttributeValue, len(e.item))
	for k, v := range e.item {
		before[k] = v
	}
	p.env.item = before

	for p.peek().kind != tokEOF {
		switch t := p.next(); {
		case isKeyword(t, "SET"):
			if err := p.set(e.item); err != nil {
				return err
			}
		case isKeyword(t, "REMOVE"):
			if err := p.remove(e.item); err != nil {
				return err
			}
		default:
			return fmt.Errorf("ddbfake: unsupported update clause %q", t.text)
		}
	}
	return nil
}

func (p *parser) set(dst map[string]types.AttributeValue) error {
	for {
		path, err := p.expect(tokIdent, "attribute path")
		if err != nil {
			return err
		}
		name, err := p.env.attrName(path.text)
		if err != nil {
			return err
		}
		if op, err := p.expect(tokOp, "="); err != nil || op.text != "=" {
			return fmt.Errorf("ddbfake: expected = after %s", path.text)
		}
		v, err := p.value()
		if err != nil {
			return err
		}
		dst[name] = v

		if p.peek().kind != tokComma {
			return nil
		}
		p.next()
	}
}

func (p *parser) value() (types.AttributeValue, error) {
	t, err := p.expect(tokIdent, "operand")
	if err != nil {
		return nil, err
	}
	v, ok, err := p.env.operand(t.text)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ddbfake: attribute %s does not exist", t.text)
	}

	if op := p.peek(); op.kind == tokOp && (op.text == "+" || op.text == "-") {
		p.next()
		rt, err := p.expect(tokIdent, "operand")
		if err != nil {
			return nil, err
		}
		r, ok, err := p.env.operand(rt.text)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("ddbfake: attribute %s does not exist", rt.text)
		}
		return arith(v, r, op.text)
	}
	return v, nil
}

func arith(a, b types.AttributeValue, op string) (types.AttributeValue, error) {
	x, xok := a.(*types.AttributeValueMemberN)
	y, yok := b.(*types.AttributeValueMemberN)
	if !xok || !yok {
		return nil, fmt.Errorf("ddbfake: arithmetic on non-number")
	}
	xf, _, err := big.ParseFloat(x.Value, 10, 128, big.ToNearestEven)
	if err != nil {
		return nil, err
	}
	yf, _, err := big.ParseFloat(y.Value, 10, 128, big.ToNearestEven)
	if err != nil {
		return nil, err
	}
	if op == "+" {
		xf.Add(xf, yf)
	} else {
		xf.Sub(xf, yf)
	}
	return &types.AttributeValueMemberN{Value: xf.Text('f', -1)}, nil
}

func (p *parser) remove(dst map[string]types.AttributeValue) error {
	for {
		path, err := p.expect(tokIdent, "attribute path")
		if err != nil {
			return err
		}
		name, err := p.env.attrName(path.text)
		if err != nil {
			return err
		}
		delete(dst, name)

		if p.peek().kind != tokComma {
			return nil
		}
		p.next()
	}
}
