package options

import (
	"dario.cat/mergo"
)

// Config controls Prepare.
type Config[T any] struct {
	// PlaceholderLabel inserts a placeholder option first when non-empty.
	PlaceholderLabel string
	// PlaceholderName overrides the placeholder sentinel name.
	PlaceholderName string
	// AutoSelect makes the first real option the default.
	AutoSelect bool
	// Base is merged under every option. Option fields win on conflict.
	Base *T
}

// Result is a prepared option list.
type Result[T any] struct {
	// Options holds every option in declared order, placeholder first.
	Options []T
	// Groups holds the label groups when the input was grouped. The
	// placeholder, if any, forms its own leading group.
	Groups []Group[T]
	// Default is the auto-selected option or the placeholder, or nil.
	Default *T

	byKey map[string]int
}

// Get looks an option up by name or value.
func (r Result[T]) Get(key string) (T, bool) {
	var zero T
	i, ok := r.byKey[key]
	if !ok {
		return zero, false
	}
	return r.Options[i], true
}

// Has reports whether key names an option.
func (r Result[T]) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// Len returns the number of options, placeholder included.
func (r Result[T]) Len() int { return len(r.Options) }

// Prepare normalizes a raw list into full options.
//
// Every option gets Value = Name when unset. Duplicate names keep their
// first occurrence. An empty list yields just the placeholder (if any)
// and no default unless the placeholder is the default.
func Prepare[T any, PT interface {
	*T
	opt() *Option
}](list List[T], cfg Config[T]) Result[T] {
	res := Result[T]{byKey: make(map[string]int)}

	var placeholder *T
	if cfg.PlaceholderLabel != "" {
		var p T
		o := PT(&p).opt()
		o.Name = cfg.PlaceholderName
		if o.Name == "" {
			o.Name = PlaceholderName
		}
		o.Value = o.Name
		o.Label = cfg.PlaceholderLabel
		placeholder = &p
		res.Options = append(res.Options, p)
		res.byKey[o.Name] = 0
	}

	full := func(item T) (T, bool) {
		if cfg.Base != nil {
			// Only fails for mismatched kinds, which T rules out.
			_ = mergo.Merge(&item, *cfg.Base)
		}
		o := PT(&item).opt()
		if o.Value == "" {
			o.Value = o.Name
		}
		if _, dup := res.byKey[o.Name]; dup {
			return item, false
		}
		return item, true
	}
	add := func(item T) {
		i := len(res.Options)
		res.Options = append(res.Options, item)
		o := PT(&res.Options[i]).opt()
		res.byKey[o.Name] = i
		if _, taken := res.byKey[o.Value]; !taken {
			res.byKey[o.Value] = i
		}
	}

	if list.IsGrouped() {
		if placeholder != nil {
			res.Groups = append(res.Groups, Group[T]{
				Label:   cfg.PlaceholderLabel,
				Options: []T{*placeholder},
			})
		}
		for _, g := range list.Groups {
			group := Group[T]{Label: g.Label}
			for _, item := range g.Options {
				if f, ok := full(item); ok {
					add(f)
					group.Options = append(group.Options, f)
				}
			}
			res.Groups = append(res.Groups, group)
		}
		rest := list
		rest.Groups = nil
		for _, item := range items[T, PT](rest) {
			if f, ok := full(item); ok {
				add(f)
			}
		}
	} else {
		for _, item := range items[T, PT](list) {
			if f, ok := full(item); ok {
				add(f)
			}
		}
	}

	first := 0
	if placeholder != nil {
		first = 1
	}
	switch {
	case cfg.AutoSelect && len(res.Options) > first:
		res.Default = &res.Options[first]
	case placeholder != nil:
		res.Default = &res.Options[0]
	}
	return res
}

// DefaultName returns the name of the default option, or "".
func DefaultName[T any, PT interface {
	*T
	opt() *Option
}](r Result[T]) string {
	if r.Default == nil {
		return ""
	}
	return PT(r.Default).opt().Name
}

// Names returns option names in order.
func Names[T any, PT interface {
	*T
	opt() *Option
}](r Result[T]) []string {
	out := make([]string, len(r.Options))
	for i := range r.Options {
		out[i] = PT(&r.Options[i]).opt().Name
	}
	return out
}
