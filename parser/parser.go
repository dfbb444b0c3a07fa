// Package parser turns a token stream from lexer into the typed IR of
// package ast via recursive descent: a one-token lookahead buffer fed
// by Lexer.Next, first error wins.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/duckcypher/duckcypher/ast"
	"github.com/duckcypher/duckcypher/compileerr"
	"github.com/duckcypher/duckcypher/lexer"
)

// Parser holds one token of lookahead over a Lexer.
type Parser struct {
	lx          *lexer.Lexer
	cur         lexer.Token
	next        lexer.Token
	anonCounter int
}

// Parse tokenizes and parses a full Cypher query into an ast.Query.
// Errors are *compileerr.CompileError with Kind ParseError.
func Parse(query string) (*ast.Query, error) {
	p := &Parser{lx: lexer.New(query)}
	if err := p.prime(); err != nil {
		return nil, err
	}
	return p.parseQuery()
}

func (p *Parser) prime() error {
	var err error
	p.cur, err = p.lx.Next()
	if err != nil {
		return p.lexErr(err)
	}
	p.next, err = p.lx.Next()
	if err != nil {
		return p.lexErr(err)
	}
	return nil
}

func (p *Parser) advance() error {
	p.cur = p.next
	tok, err := p.lx.Next()
	if err != nil {
		return p.lexErr(err)
	}
	p.next = tok
	return nil
}

func (p *Parser) lexErr(err error) error {
	if le, ok := err.(*lexer.LexError); ok {
		return compileerr.At(compileerr.ParseError, le.Msg, le.Line, le.Column, "")
	}
	return compileerr.New(compileerr.ParseError, "", err.Error())
}

func (p *Parser) errHere(msg string) error {
	return compileerr.At(compileerr.ParseError, p.cur.Text, p.cur.Line, p.cur.Column, msg)
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur.Kind != k {
		return lexer.Token{}, p.errHere(fmt.Sprintf("expected %s", what))
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur.Kind == k }

func (p *Parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}
	for p.at(lexer.MATCH) {
		stage, err := p.parseStage()
		if err != nil {
			return nil, err
		}
		q.Stages = append(q.Stages, stage)
	}
	if !p.at(lexer.EOF) {
		return nil, p.errHere("expected MATCH or end of query")
	}
	if len(q.Stages) == 0 {
		return nil, p.errHere("expected at least one MATCH clause")
	}
	// Every stage but the last feeds the next one, whichever of RETURN
	// or WITH introduced its projection.
	for _, s := range q.Stages[:len(q.Stages)-1] {
		s.Pipeline = true
	}
	return q, nil
}

func (p *Parser) parseStage() (*ast.Stage, error) {
	match, err := p.parseMatch()
	if err != nil {
		return nil, err
	}
	stage := &ast.Stage{Match: match}

	if p.at(lexer.WHERE) {
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		stage.Where = where
	}

	ret, skip, err := p.parseReturn()
	if err != nil {
		return nil, err
	}
	stage.Return = ret
	stage.Skip = skip

	if p.at(lexer.ORDER) {
		ob, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		stage.OrderBy = ob
	}

	if p.at(lexer.LIMIT) {
		lim, err := p.parseLimit()
		if err != nil {
			return nil, err
		}
		stage.Limit = lim
	}

	return stage, nil
}

func (p *Parser) parseMatch() (*ast.Match, error) {
	if _, err := p.expect(lexer.MATCH, "MATCH"); err != nil {
		return nil, err
	}
	m := &ast.Match{}
	node, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	m.Nodes = append(m.Nodes, node)

	for p.at(lexer.DASH) || p.at(lexer.LT) {
		edge, err := p.parseEdge()
		if err != nil {
			return nil, err
		}
		next, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		m.Edges = append(m.Edges, edge)
		m.Nodes = append(m.Nodes, next)
	}
	return m, nil
}

func (p *Parser) parseNodePattern() (*ast.NodePattern, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	n := &ast.NodePattern{Pos: pos}
	if p.at(lexer.IDENT) {
		n.Alias = p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.at(lexer.COLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		typ, err := p.expect(lexer.IDENT, "entity type")
		if err != nil {
			return nil, err
		}
		n.Type = typ.Text
	}
	if p.at(lexer.LBRACE) {
		props, err := p.parsePropertyMap()
		if err != nil {
			return nil, err
		}
		n.Properties = props
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	if n.Alias == "" {
		n.Alias = p.syntheticAlias()
		n.Synthetic = true
	}
	return n, nil
}

func (p *Parser) parsePropertyMap() ([]ast.PropertyFilter, error) {
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	var props []ast.PropertyFilter
	for {
		key, err := p.expect(lexer.IDENT, "property name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, ":"); err != nil {
			return nil, err
		}
		val, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		props = append(props, ast.PropertyFilter{Column: key.Text, Value: val})
		if p.at(lexer.COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return props, nil
}

// parseEdge accepts everything the grammar allows between two node
// patterns, discarding it semantically but preserving enough to report
// ErrUnsupported later for anything beyond a bare "--".
func (p *Parser) parseEdge() (*ast.Edge, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	e := &ast.Edge{Pos: pos}
	if p.at(lexer.LT) {
		e.LeftArrow = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.DASH, "-"); err != nil {
		return nil, err
	}
	if p.at(lexer.LBRACKET) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(lexer.IDENT) {
			e.Name = p.cur.Text
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if p.at(lexer.COLON) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			typ, err := p.expect(lexer.IDENT, "edge type")
			if err != nil {
				return nil, err
			}
			e.Type = typ.Text
		}
		if p.at(lexer.STAR) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			min, err := p.expect(lexer.NUMBER, "minimum hop count")
			if err != nil {
				return nil, err
			}
			minVal, _ := strconv.Atoi(min.Text)
			e.MinHop = &minVal
			if p.at(lexer.DOTDOT) {
				if err := p.advance(); err != nil {
					return nil, err
				}
				max, err := p.expect(lexer.NUMBER, "maximum hop count")
				if err != nil {
					return nil, err
				}
				maxVal, _ := strconv.Atoi(max.Text)
				e.MaxHop = &maxVal
			}
		}
		if _, err := p.expect(lexer.RBRACKET, "]"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.DASH, "-"); err != nil {
		return nil, err
	}
	if p.at(lexer.GT) {
		e.RightArrow = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (p *Parser) parseWhere() (*ast.Where, error) {
	if _, err := p.expect(lexer.WHERE, "WHERE"); err != nil {
		return nil, err
	}
	cond, err := p.parseCompound()
	if err != nil {
		return nil, err
	}
	return &ast.Where{Root: cond}, nil
}

// parseCompound implements left-associative AND/OR over conditions,
// with explicit parenthesization also accepted.
func (p *Parser) parseCompound() (*ast.Condition, error) {
	left, err := p.parseCompoundAtom()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.AND) || p.at(lexer.OR) {
		op := ast.And
		if p.at(lexer.OR) {
			op = ast.Or
		}
		pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseCompoundAtom()
		if err != nil {
			return nil, err
		}
		left = &ast.Condition{Combinator: op, LHS: left, RHS: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseCompoundAtom() (*ast.Condition, error) {
	if p.at(lexer.LPAREN) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return cond, nil
	}
	return p.parseCondition()
}

func (p *Parser) parseCondition() (*ast.Condition, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	left, err := p.parseEntityRef()
	if err != nil {
		return nil, err
	}
	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return &ast.Condition{Left: left, Op: op, Right: term, Pos: pos}, nil
}

func (p *Parser) parseCompareOp() (ast.CompareOp, error) {
	switch p.cur.Kind {
	case lexer.EQ:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpEq, nil
	case lexer.NEQ:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpNeq, nil
	case lexer.GT:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpGt, nil
	case lexer.LT:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpLt, nil
	case lexer.GTE:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpGte, nil
	case lexer.LTE:
		if err := p.advance(); err != nil {
			return "", err
		}
		return ast.OpLte, nil
	}
	return "", p.errHere("expected a comparison operator")
}

func (p *Parser) parseTerm() (*ast.Term, error) {
	switch p.cur.Kind {
	case lexer.NULLKW:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Term{Literal: &ast.Literal{Kind: ast.LiteralNull}}, nil
	case lexer.TRUEKW:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Term{Literal: &ast.Literal{Kind: ast.LiteralTrue}}, nil
	case lexer.FALSEKW:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Term{Literal: &ast.Literal{Kind: ast.LiteralFalse}}, nil
	case lexer.STRING, lexer.NUMBER:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &ast.Term{Literal: &lit}, nil
	case lexer.IDENT:
		ref, err := p.parseEntityRef()
		if err != nil {
			return nil, err
		}
		return &ast.Term{Ref: ref}, nil
	}
	return nil, p.errHere("expected a value, NULL/TRUE/FALSE, or an identifier")
}

func (p *Parser) parseLiteral() (ast.Literal, error) {
	switch p.cur.Kind {
	case lexer.STRING:
		lit := ast.Literal{Kind: ast.LiteralString, Str: p.cur.Text}
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		return lit, nil
	case lexer.NUMBER:
		text := p.cur.Text
		lit := ast.Literal{Kind: ast.LiteralNumber}
		if !strings.Contains(text, ".") {
			if n, err := strconv.ParseInt(text, 10, 64); err == nil {
				lit.IsInteger = true
				lit.Int = n
				lit.Num = float64(n)
				if err := p.advance(); err != nil {
					return ast.Literal{}, err
				}
				return lit, nil
			}
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ast.Literal{}, p.errHere("malformed number literal")
		}
		lit.Num = n
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		return lit, nil
	case lexer.NULLKW:
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		return ast.Literal{Kind: ast.LiteralNull}, nil
	case lexer.TRUEKW:
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		return ast.Literal{Kind: ast.LiteralTrue}, nil
	case lexer.FALSEKW:
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		return ast.Literal{Kind: ast.LiteralFalse}, nil
	}
	return ast.Literal{}, p.errHere("expected a literal value")
}

// parseEntityRef parses "alias" or "alias.column" or the bare "*"
// aggregate argument.
func (p *Parser) parseEntityRef() (*ast.EntityRef, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	if p.at(lexer.STAR) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.EntityRef{Star: true, Pos: pos}, nil
	}
	alias, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	ref := &ast.EntityRef{Alias: alias.Text, Pos: pos}
	if p.at(lexer.DOT) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		col, err := p.expect(lexer.IDENT, "column name")
		if err != nil {
			return nil, err
		}
		ref.Column = col.Text
	}
	return ref, nil
}

// parseReturn parses RETURN/WITH item(,item)* followed by an optional
// SKIP clause.
func (p *Parser) parseReturn() (*ast.Return, *ast.Skip, error) {
	if !p.at(lexer.RETURN) && !p.at(lexer.WITH) {
		return nil, nil, p.errHere("expected RETURN or WITH")
	}
	if err := p.advance(); err != nil {
		return nil, nil, err
	}
	ret := &ast.Return{}
	for {
		item, err := p.parseReturnItem()
		if err != nil {
			return nil, nil, err
		}
		ret.Items = append(ret.Items, item)
		if p.at(lexer.COMMA) {
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			continue
		}
		break
	}
	var skip *ast.Skip
	if p.at(lexer.SKIP) {
		pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
		if err := p.advance(); err != nil {
			return nil, nil, err
		}
		n, err := p.expect(lexer.NUMBER, "SKIP count")
		if err != nil {
			return nil, nil, err
		}
		count, convErr := strconv.ParseInt(n.Text, 10, 64)
		if convErr != nil || count < 0 {
			return nil, nil, compileerr.At(compileerr.ParseError, n.Text, n.Line, n.Column, "SKIP must be a non-negative integer")
		}
		skip = &ast.Skip{Count: count, Pos: pos}
	}
	return ret, skip, nil
}

var aggregateKinds = map[lexer.Kind]ast.AggregateOp{
	lexer.COUNT: ast.AggCount,
	lexer.SUM:   ast.AggSum,
	lexer.AVG:   ast.AggAvg,
	lexer.MIN:   ast.AggMin,
	lexer.MAX:   ast.AggMax,
}

func (p *Parser) parseReturnItem() (*ast.ReturnItem, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	if agg, ok := aggregateKinds[p.cur.Kind]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LPAREN, "("); err != nil {
			return nil, err
		}
		ref, err := p.parseEntityRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		item := &ast.ReturnItem{Aggregate: &agg, Ref: ref, Pos: pos}
		return p.parseReturnAlias(item)
	}

	ref, err := p.parseEntityRef()
	if err != nil {
		return nil, err
	}
	item := &ast.ReturnItem{Ref: ref, Pos: pos}
	return p.parseReturnAlias(item)
}

func (p *Parser) parseReturnAlias(item *ast.ReturnItem) (*ast.ReturnItem, error) {
	if p.at(lexer.AS) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expect(lexer.IDENT, "result alias")
		if err != nil {
			return nil, err
		}
		item.As = name.Text
	}
	return item, nil
}

func (p *Parser) parseOrderBy() (*ast.OrderBy, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	if _, err := p.expect(lexer.ORDER, "ORDER"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.BY, "BY"); err != nil {
		return nil, err
	}
	ref, err := p.parseEntityRef()
	if err != nil {
		return nil, err
	}
	ob := &ast.OrderBy{Ref: ref, Ascending: true, Pos: pos}
	switch p.cur.Kind {
	case lexer.ASC:
		if err := p.advance(); err != nil {
			return nil, err
		}
	case lexer.DESC:
		ob.Ascending = false
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ob, nil
}

func (p *Parser) parseLimit() (*ast.Limit, error) {
	pos := ast.Pos{Line: p.cur.Line, Column: p.cur.Column, Offset: p.cur.Offset}
	if _, err := p.expect(lexer.LIMIT, "LIMIT"); err != nil {
		return nil, err
	}
	n, err := p.expect(lexer.NUMBER, "LIMIT count")
	if err != nil {
		return nil, err
	}
	count, convErr := strconv.ParseInt(n.Text, 10, 64)
	if convErr != nil || count < 0 {
		return nil, compileerr.At(compileerr.ParseError, n.Text, n.Line, n.Column, "LIMIT must be a non-negative integer")
	}
	return &ast.Limit{Count: count, Pos: pos}, nil
}

const synthLetters = "abcdefghijklmnopqrstuvwxyz"

// syntheticAlias generates a fresh 4-letter identifier for an
// aliasless node pattern. Nothing else in the query can reference the
// name, so the pattern stays effectively anonymous; uniqueness within
// a single parse is all that's needed, and a per-parser counter
// encoded in base 26 gives that.
func (p *Parser) syntheticAlias() string {
	n := p.anonCounter
	p.anonCounter++

	b := make([]byte, 4)
	for i := 3; i >= 0; i-- {
		b[i] = synthLetters[n%len(synthLetters)]
		n /= len(synthLetters)
	}
	return string(b)
}
