// Package ccl implements the Constraint Commitment Language: a small DSL
// for expressing permit/deny/require/limit rules over dot-separated actions
// and slash-separated resource paths, with pattern-matching evaluation,
// rate-limit checking, deny-dominant merging, and narrowing validation for
// delegation chains.
package ccl

import "fmt"

// ConditionNode is implemented by Condition and CompoundCondition.
type ConditionNode interface {
	isCondition()
}

// Condition compares a dotted context field to a literal value using an
// operator such as "=", "contains", or "matches".
type Condition struct {
	Field    string
	Operator string
	Value    interface{} // string, int, bool, or []string
}

func (*Condition) isCondition() {}

// CompoundCondition combines sub-conditions with boolean logic.
// Type is one of "and", "or", "not"; "not" always has exactly one element
// in Conditions.
type CompoundCondition struct {
	Type       string
	Conditions []ConditionNode
}

func (*CompoundCondition) isCondition() {}

// Statement is implemented by PermitDenyStatement, RequireStatement, and
// LimitStatement.
type Statement interface {
	isStatement()
	StatementLine() int
}

// PermitDenyStatement grants ("permit") or revokes ("deny") an action on a
// resource, optionally conditioned and severity-tagged.
type PermitDenyStatement struct {
	Kind      string // "permit" or "deny"
	Action    string
	Resource  string
	Condition ConditionNode // nil when unconditional
	Severity  string
	Line      int
}

func (*PermitDenyStatement) isStatement()         {}
func (s *PermitDenyStatement) StatementLine() int { return s.Line }

// RequireStatement declares an obligation attached to an action/resource.
type RequireStatement struct {
	Action    string
	Resource  string
	Condition ConditionNode
	Severity  string
	Line      int
}

func (*RequireStatement) isStatement()         {}
func (s *RequireStatement) StatementLine() int { return s.Line }

// LimitStatement imposes a rate limit of Count invocations per
// PeriodSeconds on an action.
type LimitStatement struct {
	Action        string
	Count         int
	PeriodSeconds int
	Severity      string
	Line          int
}

func (*LimitStatement) isStatement()         {}
func (s *LimitStatement) StatementLine() int { return s.Line }

// Document is a parsed CCL source text, with its statements categorized by
// kind for direct access during evaluation, merging, and narrowing checks.
type Document struct {
	Statements  []Statement
	Permits     []*PermitDenyStatement
	Denies      []*PermitDenyStatement
	Obligations []*RequireStatement
	Limits      []*LimitStatement
}

// EvaluationResult is the outcome of evaluating a Document against a
// concrete action/resource pair.
type EvaluationResult struct {
	Permitted   bool
	MatchedRule Statement
	AllMatches  []Statement
	Reason      string
	Severity    string
}

// RateLimitResult is the outcome of checking an action's invocation count
// against its matching limit statement.
type RateLimitResult struct {
	Exceeded  bool
	Limit     *LimitStatement
	Remaining float64
}

// NarrowingViolation describes one way a child document broadens rather
// than narrows a parent document.
type NarrowingViolation struct {
	ChildRule  *PermitDenyStatement
	ParentRule *PermitDenyStatement
	Reason     string
}

// NarrowingResult is the outcome of validating that a child document only
// narrows a parent.
type NarrowingResult struct {
	Valid      bool
	Violations []NarrowingViolation
}

// SyntaxError reports a lexer/parser failure with its source position.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("ccl: syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func buildDocument(statements []Statement) *Document {
	doc := &Document{Statements: statements}
	for _, stmt := range statements {
		switch s := stmt.(type) {
		case *PermitDenyStatement:
			if s.Kind == "permit" {
				doc.Permits = append(doc.Permits, s)
			} else {
				doc.Denies = append(doc.Denies, s)
			}
		case *RequireStatement:
			doc.Obligations = append(doc.Obligations, s)
		case *LimitStatement:
			doc.Limits = append(doc.Limits, s)
		}
	}
	return doc
}
