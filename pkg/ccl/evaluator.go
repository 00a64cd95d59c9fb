package ccl

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// resolveField walks a dotted field path through nested maps, returning
// nil if any segment is missing or not itself a map.
func resolveField(context map[string]interface{}, fieldName string) interface{} {
	var current interface{} = context
	for _, part := range strings.Split(fieldName, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		v, present := m[part]
		if !present {
			return nil
		}
		current = v
	}
	return current
}

// evaluateCondition dispatches on the concrete ConditionNode type.
func evaluateCondition(node ConditionNode, context map[string]interface{}) bool {
	switch c := node.(type) {
	case *CompoundCondition:
		return evaluateCompoundCondition(c, context)
	case *Condition:
		return evaluateSimpleCondition(c, context)
	default:
		return false
	}
}

func evaluateCompoundCondition(c *CompoundCondition, context map[string]interface{}) bool {
	switch c.Type {
	case "and":
		for _, sub := range c.Conditions {
			if !evaluateCondition(sub, context) {
				return false
			}
		}
		return true
	case "or":
		for _, sub := range c.Conditions {
			if evaluateCondition(sub, context) {
				return true
			}
		}
		return false
	case "not":
		if len(c.Conditions) == 0 {
			return false
		}
		return !evaluateCondition(c.Conditions[0], context)
	default:
		return false
	}
}

// evaluateSimpleCondition evaluates one field/operator/value comparison.
//
// A missing field evaluates false for every operator except
// "not_contains" and "not_in", which are vacuously true: a constraint
// about something absent from the context cannot be violated by its
// absence.
func evaluateSimpleCondition(c *Condition, context map[string]interface{}) bool {
	fieldValue := resolveField(context, c.Field)
	if fieldValue == nil {
		return c.Operator == "not_contains" || c.Operator == "not_in"
	}

	switch c.Operator {
	case "=":
		return valuesEqual(fieldValue, c.Value)
	case "!=":
		return !valuesEqual(fieldValue, c.Value)
	case "<", ">", "<=", ">=":
		return compareOrdered(fieldValue, c.Value, c.Operator)
	case "contains":
		return containsValue(fieldValue, c.Value)
	case "not_contains":
		return !containsValue(fieldValue, c.Value)
	case "in":
		list, ok := c.Value.([]string)
		if !ok {
			return false
		}
		return stringInSlice(fmt.Sprintf("%v", fieldValue), list)
	case "not_in":
		list, ok := c.Value.([]string)
		if !ok {
			return true
		}
		return !stringInSlice(fmt.Sprintf("%v", fieldValue), list)
	case "matches":
		fieldStr, fok := fieldValue.(string)
		patternStr, pok := c.Value.(string)
		if !fok || !pok {
			return false
		}
		re, err := regexp.Compile(patternStr)
		if err != nil {
			return false
		}
		return re.MatchString(fieldStr)
	case "starts_with":
		fieldStr, fok := fieldValue.(string)
		prefix, pok := c.Value.(string)
		if !fok || !pok {
			return false
		}
		return strings.HasPrefix(fieldStr, prefix)
	case "ends_with":
		fieldStr, fok := fieldValue.(string)
		suffix, pok := c.Value.(string)
		if !fok || !pok {
			return false
		}
		return strings.HasSuffix(fieldStr, suffix)
	default:
		return false
	}
}

func compareOrdered(fieldValue, target interface{}, op string) bool {
	fNum, fok := asNumber(fieldValue)
	tNum, tok := asNumber(target)
	if !fok || !tok {
		return false
	}
	switch op {
	case "<":
		return fNum < tNum
	case ">":
		return fNum > tNum
	case "<=":
		return fNum <= tNum
	case ">=":
		return fNum >= tNum
	default:
		return false
	}
}

// valuesEqual compares a field value against a condition's literal with
// native, type-aware equality rather than stringified comparison: numbers
// compare numerically regardless of width, booleans and strings compare
// directly, and anything else falls back to structural equality. This
// matches the native "field_value == value" comparison the CCL reference
// evaluator performs, where "5" and 5 are not equal.
func valuesEqual(fieldValue, target interface{}) bool {
	if fNum, fok := asNumber(fieldValue); fok {
		if tNum, tok := asNumber(target); tok {
			return fNum == tNum
		}
		return false
	}
	if fb, fok := fieldValue.(bool); fok {
		tb, tok := target.(bool)
		return tok && fb == tb
	}
	if fs, fok := fieldValue.(string); fok {
		ts, tok := target.(string)
		return tok && fs == ts
	}
	return reflect.DeepEqual(fieldValue, target)
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func containsValue(fieldValue, target interface{}) bool {
	switch fv := fieldValue.(type) {
	case string:
		ts, ok := target.(string)
		if !ok {
			return false
		}
		return strings.Contains(fv, ts)
	case []string:
		ts := fmt.Sprintf("%v", target)
		return stringInSlice(ts, fv)
	default:
		return false
	}
}

func stringInSlice(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Evaluate determines whether an action on a resource is permitted under
// doc, given a context used to evaluate statement conditions. Conflicting
// permit/deny rules resolve by specificity, with deny winning ties.
func Evaluate(doc *Document, action, resource string, context map[string]interface{}) *EvaluationResult {
	if context == nil {
		context = map[string]interface{}{}
	}

	var matchedPermitDeny []*PermitDenyStatement
	var allMatches []Statement

	for _, stmt := range doc.Permits {
		if matchAction(stmt.Action, action) && matchResource(stmt.Resource, resource) &&
			(stmt.Condition == nil || evaluateCondition(stmt.Condition, context)) {
			matchedPermitDeny = append(matchedPermitDeny, stmt)
			allMatches = append(allMatches, stmt)
		}
	}
	for _, stmt := range doc.Denies {
		if matchAction(stmt.Action, action) && matchResource(stmt.Resource, resource) &&
			(stmt.Condition == nil || evaluateCondition(stmt.Condition, context)) {
			matchedPermitDeny = append(matchedPermitDeny, stmt)
			allMatches = append(allMatches, stmt)
		}
	}
	for _, stmt := range doc.Obligations {
		if matchAction(stmt.Action, action) && matchResource(stmt.Resource, resource) &&
			(stmt.Condition == nil || evaluateCondition(stmt.Condition, context)) {
			allMatches = append(allMatches, stmt)
		}
	}

	if len(matchedPermitDeny) == 0 {
		return &EvaluationResult{
			Permitted:  false,
			AllMatches: allMatches,
			Reason:     "No matching rules found; default deny",
		}
	}

	sort.SliceStable(matchedPermitDeny, func(i, j int) bool {
		si := specificity(matchedPermitDeny[i].Action, matchedPermitDeny[i].Resource)
		sj := specificity(matchedPermitDeny[j].Action, matchedPermitDeny[j].Resource)
		if si != sj {
			return si > sj
		}
		return denyRank(matchedPermitDeny[i]) < denyRank(matchedPermitDeny[j])
	})

	winner := matchedPermitDeny[0]
	return &EvaluationResult{
		Permitted:   winner.Kind == "permit",
		MatchedRule: winner,
		AllMatches:  allMatches,
		Reason:      fmt.Sprintf("Matched %s rule for %s on %s", winner.Kind, winner.Action, winner.Resource),
		Severity:    winner.Severity,
	}
}

func denyRank(s *PermitDenyStatement) int {
	if s.Kind == "deny" {
		return 0
	}
	return 1
}
