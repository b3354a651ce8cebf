package query

import (
	"fmt"
	"strings"
)

// ValidationResult contains the structural analysis of a tree.
type ValidationResult struct {
	// IsValid is true when no violations were found.
	IsValid bool

	// Violations lists structural problems, each prefixed with the
	// offending path.
	Violations []string
}

// Validate checks a tree against the structural invariants:
//  1. IC groups have odd length with nodes at even and combinators at odd indices
//  2. Standard groups contain no combinator elements
//  3. Node ids are non-empty and unique
//  4. between/notBetween rules hold a two-element list (or a comma pair)
//
// Validate is a pure function with no side effects.
func Validate(g *RuleGroup) ValidationResult {
	v := &validator{
		seen: make(map[string]string),
	}
	if g == nil {
		v.addViolation("[]: nil query")
	} else {
		v.validateGroup(g, nil)
	}
	return ValidationResult{
		IsValid:    len(v.violations) == 0,
		Violations: v.violations,
	}
}

// validator accumulates violations during traversal.
type validator struct {
	violations []string
	seen       map[string]string
}

func (v *validator) addViolation(format string, args ...any) {
	v.violations = append(v.violations, fmt.Sprintf(format, args...))
}

func (v *validator) checkID(id string, path []int) {
	p := formatPath(path)
	if id == "" {
		v.addViolation("%s: missing id", p)
		return
	}
	if prev, ok := v.seen[id]; ok {
		v.addViolation("%s: duplicate id %q (first seen at %s)", p, id, prev)
		return
	}
	v.seen[id] = p
}

func (v *validator) validateGroup(g *RuleGroup, path []int) {
	v.checkID(g.ID, path)
	ic := g.IsIC()
	if ic && len(g.Rules) > 0 && len(g.Rules)%2 == 0 {
		v.addViolation("%s: independent combinator group has even length %d", formatPath(path), len(g.Rules))
	}
	for i, e := range g.Rules {
		child := append(append([]int(nil), path...), i)
		switch el := e.(type) {
		case Combinator:
			if !ic {
				v.addViolation("%s: combinator %q in a group with combinator %q", formatPath(child), el, g.Combinator)
			} else if i%2 == 0 {
				v.addViolation("%s: combinator %q at even index", formatPath(child), el)
			}
		case *Rule:
			if ic && i%2 == 1 {
				v.addViolation("%s: rule at odd index", formatPath(child))
			}
			v.validateRule(el, child)
		case *RuleGroup:
			if ic && i%2 == 1 {
				v.addViolation("%s: group at odd index", formatPath(child))
			}
			v.validateGroup(el, child)
		case nil:
			v.addViolation("%s: nil element", formatPath(child))
		}
	}
}

func (v *validator) validateRule(r *Rule, path []int) {
	v.checkID(r.ID, path)
	if r.IsBetween() {
		switch val := r.Value.(type) {
		case List:
			if len(val) != 2 {
				v.addViolation("%s: %s value has %d elements, want 2", formatPath(path), r.Operator, len(val))
			}
		case String:
			if strings.Count(string(val), ",") != 1 {
				v.addViolation("%s: %s value %q is not a pair", formatPath(path), r.Operator, val)
			}
		default:
			v.addViolation("%s: %s value is not a pair", formatPath(path), r.Operator)
		}
	}
	if sub, ok := r.Value.(*RuleGroup); ok {
		// Sub-queries have their own path space.
		sv := &validator{seen: v.seen}
		sv.validateGroup(sub, nil)
		for _, msg := range sv.violations {
			v.addViolation("%s.value%s", formatPath(path), msg)
		}
	}
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprint(p)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
