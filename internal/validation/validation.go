// Package validation runs a caller-supplied validator over a query tree
// and normalizes what it returns into a per-node lookup.
package validation

import (
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// Result is the validation outcome for one node.
type Result struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// Output is what a Validator returns: either one verdict for the whole
// tree or a map of per-node results keyed by id. Build it with Bool or
// Map.
type Output struct {
	whole  *bool
	byNode map[string]Result
}

// Bool is a whole-tree verdict.
func Bool(valid bool) Output { return Output{whole: &valid} }

// Map is a set of per-node results keyed by node id.
func Map(results map[string]Result) Output { return Output{byNode: results} }

// Validator inspects a tree.
type Validator func(*query.RuleGroup) Output

// RuleValidator checks a single rule. ok is false when it has no opinion.
type RuleValidator func(*query.Rule) (res Result, ok bool)

// Results maps node ids to validation results. A missing id means "not
// validated", which callers treat as valid.
type Results struct {
	byNode  map[string]Result
	overall *bool
}

// Run applies v to tree. A whole-tree verdict is attributed to the root
// id only. A nil validator yields empty results.
func Run(tree *query.RuleGroup, v Validator) Results {
	if v == nil || tree == nil {
		return Results{}
	}
	out := v(tree)
	if out.whole != nil {
		valid := *out.whole
		return Results{
			byNode:  map[string]Result{tree.ID: {Valid: valid}},
			overall: &valid,
		}
	}
	return Results{byNode: out.byNode}
}

// RunRules applies a rule validator to every rule of tree, sub-queries
// excluded. Rules the validator has no opinion on are left out.
func RunRules(tree *query.RuleGroup, v RuleValidator) Results {
	res := Results{byNode: map[string]Result{}}
	if v == nil {
		return res
	}
	treepath.Walk(tree, func(_ treepath.Path, n query.Node) bool {
		if r, ok := n.(*query.Rule); ok {
			if out, ok := v(r); ok {
				res.byNode[r.ID] = out
			}
		}
		return true
	})
	return res
}

// Lookup returns the result for id.
func (r Results) Lookup(id string) (Result, bool) {
	res, ok := r.byNode[id]
	return res, ok
}

// IsValid reports whether id passed. Unvalidated ids are valid.
func (r Results) IsValid(id string) bool {
	res, ok := r.byNode[id]
	return !ok || res.Valid
}

// Overall returns the whole-tree verdict when the validator gave one.
func (r Results) Overall() (valid, ok bool) {
	if r.overall == nil {
		return false, false
	}
	return *r.overall, true
}

// Len is the number of validated nodes.
func (r Results) Len() int { return len(r.byNode) }

// Invalid lists the ids that failed.
func (r Results) Invalid() []string {
	var out []string
	for id, res := range r.byNode {
		if !res.Valid {
			out = append(out, id)
		}
	}
	return out
}

// Merge returns r with entries from fallback added for ids r lacks.
func (r Results) Merge(fallback Results) Results {
	if len(fallback.byNode) == 0 {
		return r
	}
	merged := make(map[string]Result, len(r.byNode)+len(fallback.byNode))
	for id, res := range fallback.byNode {
		merged[id] = res
	}
	for id, res := range r.byNode {
		merged[id] = res
	}
	return Results{byNode: merged, overall: r.overall}
}
