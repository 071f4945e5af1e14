package querybuilder

import (
	"fmt"
	"strings"
)

type CondType int

const (
	CondTypeAnd CondType = iota + 1
	CondTypeOr
)

func (c CondType) ToString() string {
	switch c {
	case CondTypeAnd:
		return "AND"
	case CondTypeOr:
		return "OR"
	default:
		return ""
	}
}

// Condition is either a single clause with its args or a parenthesised group.
type Condition struct {
	condType   CondType
	clause     string
	args       []interface{}
	subCond    []Condition
	isSubGroup bool
}

func clauseCond(t CondType, clause string, args []interface{}) Condition {
	return Condition{condType: t, clause: clause, args: args}
}

func groupCond(t CondType, sub []Condition) Condition {
	return Condition{condType: t, subCond: sub, isSubGroup: true}
}

// empty groups render nothing, so they are skipped along with their connective
func (c Condition) empty() bool {
	return c.isSubGroup && len(c.subCond) == 0
}

// renderConditions joins conditions with their connectives. The connective of
// the first rendered condition is dropped. Args are returned in placeholder order.
func renderConditions(conditions []Condition) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0)

	for _, cond := range conditions {
		if cond.empty() {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" " + cond.condType.ToString() + " ")
		}
		if cond.isSubGroup {
			clause, subArgs := renderConditions(cond.subCond)
			fmt.Fprintf(&sb, "(%s)", clause)
			args = append(args, subArgs...)
			continue
		}
		sb.WriteString(cond.clause)
		args = append(args, cond.args...)
	}

	return sb.String(), args
}
