package ccl

import (
	"fmt"
	"strings"
)

// bestTimeUnit converts a period in seconds to the most natural unit for
// round-tripping a limit statement back to source text.
func bestTimeUnit(seconds int) (int, string) {
	if seconds%86400 == 0 && seconds >= 86400 {
		return seconds / 86400, "days"
	}
	if seconds%3600 == 0 && seconds >= 3600 {
		return seconds / 3600, "hours"
	}
	if seconds%60 == 0 && seconds >= 60 {
		return seconds / 60, "minutes"
	}
	return seconds, "seconds"
}

func serializeValue(value interface{}) string {
	switch v := value.(type) {
	case []string:
		items := make([]string, len(v))
		for i, s := range v {
			items[i] = fmt.Sprintf("'%s'", s)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case string:
		return fmt.Sprintf("'%s'", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func serializeCondition(node ConditionNode) string {
	switch c := node.(type) {
	case *CompoundCondition:
		if c.Type == "not" {
			return "not " + serializeCondition(c.Conditions[0])
		}
		parts := make([]string, len(c.Conditions))
		for i, sub := range c.Conditions {
			if compound, ok := sub.(*CompoundCondition); ok && compound.Type != c.Type {
				parts[i] = "(" + serializeCondition(sub) + ")"
			} else {
				parts[i] = serializeCondition(sub)
			}
		}
		return strings.Join(parts, " "+c.Type+" ")
	case *Condition:
		return fmt.Sprintf("%s %s %s", c.Field, c.Operator, serializeValue(c.Value))
	default:
		return ""
	}
}

func serializeStatement(stmt Statement) string {
	switch s := stmt.(type) {
	case *PermitDenyStatement:
		line := fmt.Sprintf("%s %s on '%s'", s.Kind, s.Action, s.Resource)
		if s.Condition != nil {
			line += " when " + serializeCondition(s.Condition)
		}
		if s.Severity != "high" {
			line += " severity " + s.Severity
		}
		return line
	case *RequireStatement:
		line := fmt.Sprintf("require %s on '%s'", s.Action, s.Resource)
		if s.Condition != nil {
			line += " when " + serializeCondition(s.Condition)
		}
		if s.Severity != "high" {
			line += " severity " + s.Severity
		}
		return line
	case *LimitStatement:
		value, unit := bestTimeUnit(s.PeriodSeconds)
		line := fmt.Sprintf("limit %s %d per %d %s", s.Action, s.Count, value, unit)
		if s.Severity != "high" {
			line += " severity " + s.Severity
		}
		return line
	default:
		return ""
	}
}

// Serialize renders a parsed Document back to CCL source text, one
// statement per line, in its original statement order.
func Serialize(doc *Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("ccl: cannot serialize a nil document")
	}
	lines := make([]string, len(doc.Statements))
	for i, stmt := range doc.Statements {
		lines[i] = serializeStatement(stmt)
	}
	return strings.Join(lines, "\n"), nil
}
