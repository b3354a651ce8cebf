package asyncopts

import (
	"strings"

	"github.com/roach88/querybuilder/internal/query"
)

// KeySpec says how to derive a cache key from the node that owns an
// option list.
type KeySpec struct {
	// Attrs are node attributes ("field", "operator", ...) joined with "|".
	Attrs []string
	// Func computes the key directly and takes precedence over Attrs.
	Func func(query.Node) string
}

// ByAttr keys on one or more node attributes.
func ByAttr(names ...string) KeySpec { return KeySpec{Attrs: names} }

// ByFunc keys with fn.
func ByFunc(fn func(query.Node) string) KeySpec { return KeySpec{Func: fn} }

// CacheKey derives the key for n. With an empty spec the node id is the
// key, so each node gets its own list.
func CacheKey(n query.Node, spec KeySpec) string {
	if n == nil {
		return ""
	}
	switch {
	case spec.Func != nil:
		return spec.Func(n)
	case len(spec.Attrs) == 1:
		return query.Attr(n, spec.Attrs[0])
	case len(spec.Attrs) > 1:
		parts := make([]string, len(spec.Attrs))
		for i, a := range spec.Attrs {
			parts[i] = query.Attr(n, a)
		}
		return strings.Join(parts, "|")
	default:
		return n.NodeID()
	}
}
