package treepath

import "github.com/roach88/querybuilder/internal/query"

// ChildInfo describes one element of a group as the rendering layer
// iterates it.
type ChildInfo struct {
	Path     Path
	Element  query.Element
	Disabled bool
}

// Children lists the elements of the group at p with their paths and
// effective disabled state. disabled is the group's own effective state;
// a child is disabled when the group is or when its own flag is set.
func Children(g *query.RuleGroup, p Path, disabled bool) []ChildInfo {
	if g == nil {
		return nil
	}
	out := make([]ChildInfo, len(g.Rules))
	for i, e := range g.Rules {
		d := disabled
		if n, ok := e.(query.Node); ok && n.IsDisabled() {
			d = true
		}
		out[i] = ChildInfo{Path: p.Child(i), Element: e, Disabled: d}
	}
	return out
}
