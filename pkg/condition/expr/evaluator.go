package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-releaseform/pkg/condition"
)

// Evaluator is a small, dependency-free rule evaluator.
//
// Supported syntax:
//   - truthiness: `release.explicit`, `extras.linkUpload`
//   - comparisons: `release.genre == "Other"`, `extras.plan != "free"`
//   - composition: `!a`, `a && b`, `a || (b && c)`
//
// Identifiers resolve against condition.Context.Values ("section.field"),
// condition.Context.Extras (via the `extras.` prefix) and
// condition.Context.Entry (via the `entry.` prefix). Unknown identifiers are
// nil, which is falsy.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Ensure Evaluator implements condition.Evaluator.
var _ condition.Evaluator = (*Evaluator)(nil)

// Eval parses and evaluates rule. An empty rule holds.
func (e *Evaluator) Eval(rule string, ctx condition.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return false, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if !p.done() {
		return false, fmt.Errorf("condition/expr: unexpected %q", p.peek().raw)
	}
	return node.eval(ctx), nil
}

// Check parses rule without evaluating it, so loaders can reject bad rules
// early.
func Check(rule string) error {
	_, err := Identifiers(rule)
	return err
}

// Identifiers parses rule and returns the identifiers it reads, in order of
// first use. Literals (true, false, null) are not identifiers.
func Identifiers(rule string) ([]string, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if _, err := p.parseOr(); err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("condition/expr: unexpected %q", p.peek().raw)
	}

	var idents []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok.kind != tokenIdent || seen[tok.raw] {
			continue
		}
		switch tok.raw {
		case "true", "false", "null", "nil":
			continue
		}
		seen[tok.raw] = true
		idents = append(idents, tok.raw)
	}
	return idents, nil
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenNumber
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '!':
			if i+1 < len(input) && input[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case ch == '=':
			if i+1 >= len(input) || input[i+1] != '=' {
				return nil, fmt.Errorf("condition/expr: unexpected '='; use '=='")
			}
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case ch == '&':
			if i+1 >= len(input) || input[i+1] != '&' {
				return nil, fmt.Errorf("condition/expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case ch == '|':
			if i+1 >= len(input) || input[i+1] != '|' {
				return nil, fmt.Errorf("condition/expr: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			end := strings.IndexByte(input[i+1:], ch)
			if end < 0 {
				return nil, fmt.Errorf("condition/expr: unterminated string")
			}
			tokens = append(tokens, token{kind: tokenString, raw: input[i+1 : i+1+end]})
			i += end + 2
		case ch == '-' || (ch >= '0' && ch <= '9'):
			start := i
			i++
			for i < len(input) && (input[i] == '.' || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: input[start:i]})
		case isIdentByte(ch):
			start := i
			for i < len(input) && (isIdentByte(input[i]) || input[i] == '.' || (input[i] >= '0' && input[i] <= '9')) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, raw: input[start:i]})
		default:
			return nil, fmt.Errorf("condition/expr: unexpected character %q", ch)
		}
	}
	return tokens, nil
}

func isIdentByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

type node interface {
	eval(ctx condition.Context) bool
}

type orNode struct{ left, right node }

func (n orNode) eval(ctx condition.Context) bool { return n.left.eval(ctx) || n.right.eval(ctx) }

type andNode struct{ left, right node }

func (n andNode) eval(ctx condition.Context) bool { return n.left.eval(ctx) && n.right.eval(ctx) }

type notNode struct{ inner node }

func (n notNode) eval(ctx condition.Context) bool { return !n.inner.eval(ctx) }

type truthyNode struct{ operand operand }

func (n truthyNode) eval(ctx condition.Context) bool { return truthy(n.operand.resolve(ctx)) }

type compareNode struct {
	left, right operand
	negate      bool
}

func (n compareNode) eval(ctx condition.Context) bool {
	equal := looselyEqual(n.left.resolve(ctx), n.right.resolve(ctx))
	if n.negate {
		return !equal
	}
	return equal
}

// operand is either an identifier lookup or a literal.
type operand struct {
	ident   string
	literal any
}

func (o operand) resolve(ctx condition.Context) any {
	if o.ident == "" {
		return o.literal
	}
	return lookup(ctx, o.ident)
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.tokens[p.pos]
}

func (p *parser) accept(kind tokenKind) bool {
	if !p.done() && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokenNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.accept(tokenLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokenRParen) {
			return nil, fmt.Errorf("condition/expr: missing ')'")
		}
		return inner, nil
	}

	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	switch {
	case p.accept(tokenEq):
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return compareNode{left: left, right: right}, nil
	case p.accept(tokenNeq):
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return compareNode{left: left, right: right, negate: true}, nil
	default:
		return truthyNode{operand: left}, nil
	}
}

func (p *parser) parseOperand() (operand, error) {
	if p.done() {
		return operand{}, fmt.Errorf("condition/expr: unexpected end of rule")
	}
	tok := p.tokens[p.pos]
	p.pos++
	switch tok.kind {
	case tokenString:
		return operand{literal: tok.raw}, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return operand{}, fmt.Errorf("condition/expr: invalid number %q", tok.raw)
		}
		return operand{literal: value}, nil
	case tokenIdent:
		switch tok.raw {
		case "true":
			return operand{literal: true}, nil
		case "false":
			return operand{literal: false}, nil
		case "null", "nil":
			return operand{literal: nil}, nil
		}
		return operand{ident: tok.raw}, nil
	default:
		return operand{}, fmt.Errorf("condition/expr: unexpected %q", tok.raw)
	}
}

func lookup(ctx condition.Context, key string) any {
	if rest, ok := strings.CutPrefix(key, "extras."); ok {
		return ctx.Extras[rest]
	}
	if rest, ok := strings.CutPrefix(key, "entry."); ok {
		return ctx.Entry[rest]
	}
	if value, ok := ctx.Values[key]; ok {
		return value
	}
	return nil
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		return strings.TrimSpace(v) != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

func looselyEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.(bool); ok {
		bb, ok := coerceBool(b)
		return ok && ab == bb
	}
	if bb, ok := b.(bool); ok {
		ab, ok := coerceBool(a)
		return ok && ab == bb
	}
	if af, ok := coerceNumber(a); ok {
		if bf, ok := coerceNumber(b); ok {
			return af == bf
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	default:
		return false, false
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
