package ccl

import (
	"fmt"
	"strconv"
	"strings"
)

var validSeverities = map[string]bool{
	"critical": true,
	"high":     true,
	"medium":   true,
	"low":      true,
}

// Parse lexes and parses source into a Document. An empty or
// whitespace-only source is rejected.
func Parse(source string) (*Document, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &SyntaxError{Line: 1, Column: 1, Message: "input is empty or contains no statements"}
	}
	p := &parser{tokens: tokenize(source)}
	return p.parseDocument()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) check(typ TokenType) bool {
	return p.current().Type == typ
}

func (p *parser) isAtEnd() bool {
	return p.current().Type == TokenEOF
}

func (p *parser) expect(typ TokenType, message string) (Token, error) {
	if p.check(typ) {
		return p.advance(), nil
	}
	got := "end of input"
	if !p.isAtEnd() {
		tok := p.current()
		got = fmt.Sprintf("'%s' (%s)", tok.Value, tok.Type)
	}
	tok := p.current()
	return Token{}, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("%s, but got %s", message, got)}
}

func (p *parser) skipNewlinesAndComments() {
	for p.check(TokenNewline) || p.check(TokenComment) {
		p.advance()
	}
}

func (p *parser) parseDocument() (*Document, error) {
	var statements []Statement
	p.skipNewlinesAndComments()
	for !p.isAtEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		p.skipNewlinesAndComments()
	}
	return buildDocument(statements), nil
}

func (p *parser) parseStatement() (Statement, error) {
	switch p.current().Type {
	case TokenPermit, TokenDeny:
		return p.parsePermitDeny()
	case TokenRequire:
		return p.parseRequire()
	case TokenLimit:
		return p.parseLimit()
	default:
		tok := p.current()
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected statement keyword (permit, deny, require, or limit)"}
	}
}

func (p *parser) parsePermitDeny() (*PermitDenyStatement, error) {
	kw := p.advance()
	kind := "permit"
	if kw.Type == TokenDeny {
		kind = "deny"
	}

	action, err := p.parseAction()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOn, "expected 'on' after action"); err != nil {
		return nil, err
	}
	resource, err := p.parseResource()
	if err != nil {
		return nil, err
	}

	var cond ConditionNode
	if p.check(TokenWhen) {
		p.advance()
		cond, err = p.parseCondition()
		if err != nil {
			return nil, err
		}
	}

	severity := "high"
	if p.check(TokenSeverity) {
		p.advance()
		severity, err = p.parseSeverity()
		if err != nil {
			return nil, err
		}
	}

	return &PermitDenyStatement{
		Kind:      kind,
		Action:    action,
		Resource:  resource,
		Condition: cond,
		Severity:  severity,
		Line:      kw.Line,
	}, nil
}

func (p *parser) parseRequire() (*RequireStatement, error) {
	kw := p.advance()

	action, err := p.parseAction()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOn, "expected 'on' after action"); err != nil {
		return nil, err
	}
	resource, err := p.parseResource()
	if err != nil {
		return nil, err
	}

	var cond ConditionNode
	if p.check(TokenWhen) {
		p.advance()
		cond, err = p.parseCondition()
		if err != nil {
			return nil, err
		}
	}

	severity := "high"
	if p.check(TokenSeverity) {
		p.advance()
		severity, err = p.parseSeverity()
		if err != nil {
			return nil, err
		}
	}

	return &RequireStatement{
		Action:    action,
		Resource:  resource,
		Condition: cond,
		Severity:  severity,
		Line:      kw.Line,
	}, nil
}

func (p *parser) parseLimit() (*LimitStatement, error) {
	kw := p.advance()

	action, err := p.parseAction()
	if err != nil {
		return nil, err
	}

	countTok, err := p.expect(TokenNumber, "expected count after action in limit")
	if err != nil {
		return nil, err
	}
	count, _ := strconv.Atoi(countTok.Value)

	if _, err := p.expect(TokenPer, "expected 'per' in limit"); err != nil {
		return nil, err
	}
	periodTok, err := p.expect(TokenNumber, "expected period number in limit")
	if err != nil {
		return nil, err
	}
	rawPeriod, _ := strconv.Atoi(periodTok.Value)

	unitTok, err := p.expect(TokenSeconds, "expected time unit in limit")
	if err != nil {
		return nil, err
	}
	periodSeconds := rawPeriod * timeUnitMultiplier(strings.ToLower(unitTok.Value))

	severity := "high"
	if p.check(TokenSeverity) {
		p.advance()
		severity, err = p.parseSeverity()
		if err != nil {
			return nil, err
		}
	}

	return &LimitStatement{
		Action:        action,
		Count:         count,
		PeriodSeconds: periodSeconds,
		Severity:      severity,
		Line:          kw.Line,
	}, nil
}

func (p *parser) parseAction() (string, error) {
	var parts []string

	switch p.current().Type {
	case TokenDoubleWildcard:
		p.advance()
		return "**", nil
	case TokenWildcard:
		p.advance()
		parts = append(parts, "*")
	case TokenIdentifier:
		parts = append(parts, p.advance().Value)
	default:
		tok := p.current()
		return "", &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected action identifier"}
	}

	for p.check(TokenDot) {
		p.advance()
		switch p.current().Type {
		case TokenIdentifier:
			parts = append(parts, p.advance().Value)
		case TokenWildcard:
			p.advance()
			parts = append(parts, "*")
		case TokenDoubleWildcard:
			p.advance()
			parts = append(parts, "**")
		default:
			tok := p.current()
			return "", &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected identifier or wildcard after dot in action"}
		}
	}

	return strings.Join(parts, "."), nil
}

func (p *parser) parseResource() (string, error) {
	switch p.current().Type {
	case TokenString:
		return p.advance().Value, nil
	case TokenWildcard:
		p.advance()
		return "*", nil
	case TokenDoubleWildcard:
		p.advance()
		return "**", nil
	case TokenIdentifier:
		return p.advance().Value, nil
	default:
		tok := p.current()
		return "", &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected resource (string or pattern)"}
	}
}

func (p *parser) parseCondition() (ConditionNode, error) {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() (ConditionNode, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.check(TokenOr) {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		if compound, ok := left.(*CompoundCondition); ok && compound.Type == "or" {
			compound.Conditions = append(compound.Conditions, right)
		} else {
			left = &CompoundCondition{Type: "or", Conditions: []ConditionNode{left, right}}
		}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (ConditionNode, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.check(TokenAnd) {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		if compound, ok := left.(*CompoundCondition); ok && compound.Type == "and" {
			compound.Conditions = append(compound.Conditions, right)
		} else {
			left = &CompoundCondition{Type: "and", Conditions: []ConditionNode{left, right}}
		}
	}
	return left, nil
}

func (p *parser) parseNotExpr() (ConditionNode, error) {
	if p.check(TokenNot) {
		p.advance()
		inner, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &CompoundCondition{Type: "not", Conditions: []ConditionNode{inner}}, nil
	}
	return p.parsePrimaryCond()
}

func (p *parser) parsePrimaryCond() (ConditionNode, error) {
	if p.check(TokenLParen) {
		p.advance()
		inner, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "expected closing parenthesis"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (ConditionNode, error) {
	field, err := p.parseField()
	if err != nil {
		return nil, err
	}
	opTok, err := p.expect(TokenOperator, fmt.Sprintf("expected operator after field '%s'", field))
	if err != nil {
		return nil, err
	}
	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Condition{Field: field, Operator: opTok.Value, Value: value}, nil
}

func (p *parser) parseField() (string, error) {
	tok, err := p.expect(TokenIdentifier, "expected field name")
	if err != nil {
		return "", err
	}
	name := tok.Value
	for p.check(TokenDot) {
		p.advance()
		part, err := p.expect(TokenIdentifier, "expected identifier after dot in field")
		if err != nil {
			return "", err
		}
		name += "." + part.Value
	}
	return name, nil
}

func (p *parser) parseValue() (interface{}, error) {
	switch p.current().Type {
	case TokenString:
		return p.advance().Value, nil
	case TokenNumber:
		n, _ := strconv.Atoi(p.advance().Value)
		return n, nil
	case TokenIdentifier:
		val := p.advance().Value
		switch val {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return val, nil
		}
	case TokenLBracket:
		return p.parseArray()
	default:
		tok := p.current()
		return nil, &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected value (string, number, boolean, or array)"}
	}
}

func (p *parser) parseArray() ([]string, error) {
	if _, err := p.expect(TokenLBracket, "expected '['"); err != nil {
		return nil, err
	}
	var values []string
	if !p.check(TokenRBracket) {
		v, err := p.parseScalarValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		for p.check(TokenComma) {
			p.advance()
			v, err := p.parseScalarValue()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}
	if _, err := p.expect(TokenRBracket, "expected closing bracket"); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *parser) parseScalarValue() (string, error) {
	switch p.current().Type {
	case TokenString:
		return p.advance().Value, nil
	case TokenNumber:
		return p.advance().Value, nil
	case TokenIdentifier:
		return p.advance().Value, nil
	default:
		tok := p.current()
		return "", &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "expected scalar value in array"}
	}
}

func (p *parser) parseSeverity() (string, error) {
	tok, err := p.expect(TokenIdentifier, "expected severity level")
	if err != nil {
		return "", err
	}
	lowered := strings.ToLower(tok.Value)
	if !validSeverities[lowered] {
		return "", &SyntaxError{Line: tok.Line, Column: tok.Column, Message: "invalid severity level"}
	}
	return lowered, nil
}
