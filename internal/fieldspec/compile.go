// Package fieldspec compiles field catalogs written in CUE or JSON into
// the option lists a query builder is configured with.
//
// A catalog looks like:
//
//	fields: {
//		firstName: {label: "First Name", operators: ["=", "contains"]}
//		age: {label: "Age", inputType: "number", defaultValue: 18}
//	}
//	combinators: [{name: "and", label: "AND"}, {name: "or", label: "OR"}]
//
// Sources are checked against an embedded CUE schema before compilation,
// so type and enum mistakes surface with their source position.
package fieldspec

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
)

//go:embed schema.cue
var schemaSource string

// Catalog is a compiled field catalog.
type Catalog struct {
	Fields      options.List[options.Field]
	Operators   options.List[options.Option]
	Combinators options.List[options.Option]
}

// LoadFile compiles the catalog in a .cue or .json file.
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field catalog: %w", err)
	}
	return CompileBytes(path, src)
}

// CompileBytes checks src against the catalog schema and compiles it.
// JSON is valid CUE, so both formats go through the same path.
func CompileBytes(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Catalog")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(v)
}

// Compile reads a catalog from a CUE value. The value is expected to
// have passed schema validation; Compile adds the checks the schema
// cannot express.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "fields are required", Pos: v.Pos()}
	}
	fields, err := compileFields(fieldsVal)
	if err != nil {
		return nil, err
	}
	cat := &Catalog{Fields: fields}

	if ov := v.LookupPath(cue.ParsePath("operators")); ov.Exists() {
		if cat.Operators, err = compileEntries(ov, "operators"); err != nil {
			return nil, err
		}
	}
	if cv := v.LookupPath(cue.ParsePath("combinators")); cv.Exists() {
		if cat.Combinators, err = compileEntries(cv, "combinators"); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// compileFields keeps declaration order. Fields are grouped when they
// declare a group, in which case every field must.
func compileFields(v cue.Value) (options.List[options.Field], error) {
	var out options.List[options.Field]

	iter, err := v.Fields()
	if err != nil {
		return out, formatCUEError(err)
	}

	groupIdx := make(map[string]int)
	count, grouped := 0, 0
	for iter.Next() {
		name := iter.Label()
		path := "fields." + name
		f, group, err := compileField(name, iter.Value(), path)
		if err != nil {
			return out, err
		}
		count++
		if group != "" {
			grouped++
		}
		if grouped > 0 && grouped != count {
			return out, &CompileError{
				Field:   path + ".group",
				Message: "group must be set on every field or on none",
				Pos:     iter.Value().Pos(),
			}
		}

		if group == "" {
			out.Flat = append(out.Flat, f)
			continue
		}
		i, ok := groupIdx[group]
		if !ok {
			i = len(out.Groups)
			groupIdx[group] = i
			out.Groups = append(out.Groups, options.Group[options.Field]{Label: group})
		}
		out.Groups[i].Options = append(out.Groups[i].Options, f)
	}

	if count == 0 {
		return out, &CompileError{Field: "fields", Message: "at least one field is required", Pos: v.Pos()}
	}
	return out, nil
}

func compileField(name string, v cue.Value, path string) (options.Field, string, error) {
	f := options.Field{Option: options.Opt(name)}
	var group string

	iter, err := v.Fields()
	if err != nil {
		return f, "", formatCUEError(err)
	}
	for iter.Next() {
		val := iter.Value()
		switch key := iter.Label(); key {
		case "label":
			f.Label, err = val.String()
		case "group":
			group, err = val.String()
		case "disabled":
			f.Disabled, err = val.Bool()
		case "operators":
			f.Operators, err = compileEntries(val, path+".operators")
		case "defaultOperator":
			f.DefaultOperator, err = val.String()
		case "defaultValue":
			f.DefaultValue, err = toValue(val, path+".defaultValue")
		case "values":
			f.Values, err = compileEntries(val, path+".values")
		case "valueEditorType":
			f.ValueEditorType, err = val.String()
		case "valueSources":
			f.ValueSources, err = stringList[query.ValueSource](val)
		case "inputType":
			f.InputType, err = val.String()
		case "placeholder":
			f.Placeholder, err = val.String()
		case "matchModes":
			f.MatchModes, err = stringList[query.MatchMode](val)
		case "comparator":
			f.Comparator, err = val.String()
		case "extra":
			err = val.Decode(&f.Extra)
		}
		if err != nil {
			return f, "", asCompileError(err, path)
		}
	}

	if f.DefaultOperator != "" && !f.Operators.IsEmpty() && !hasName(f.Operators, f.DefaultOperator) {
		return f, "", &CompileError{
			Field:   path + ".defaultOperator",
			Message: fmt.Sprintf("%q is not one of the field's operators", f.DefaultOperator),
			Pos:     v.Pos(),
		}
	}
	return f, group, nil
}

// compileEntries reads a list of options and option groups. Names must
// be unique across the whole list.
func compileEntries(v cue.Value, path string) (options.List[options.Option], error) {
	var out options.List[options.Option]

	iter, err := v.List()
	if err != nil {
		return out, formatCUEError(err)
	}
	seen := make(map[string]bool)
	add := func(o options.Option, pos token.Pos) error {
		if seen[o.Name] {
			return &CompileError{Field: path, Message: fmt.Sprintf("duplicate option %q", o.Name), Pos: pos}
		}
		seen[o.Name] = true
		return nil
	}

	for iter.Next() {
		elem := iter.Value()
		if opts := elem.LookupPath(cue.ParsePath("options")); opts.Exists() {
			label, err := elem.LookupPath(cue.ParsePath("label")).String()
			if err != nil {
				return out, asCompileError(err, path)
			}
			g := options.Group[options.Option]{Label: label}
			members, err := opts.List()
			if err != nil {
				return out, formatCUEError(err)
			}
			for members.Next() {
				o, err := compileOption(members.Value(), path)
				if err != nil {
					return out, err
				}
				if err := add(o, members.Value().Pos()); err != nil {
					return out, err
				}
				g.Options = append(g.Options, o)
			}
			out.Groups = append(out.Groups, g)
			continue
		}

		o, err := compileOption(elem, path)
		if err != nil {
			return out, err
		}
		if err := add(o, elem.Pos()); err != nil {
			return out, err
		}
		out.Flat = append(out.Flat, o)
	}
	return out, nil
}

// compileOption accepts a bare name or a struct.
func compileOption(v cue.Value, path string) (options.Option, error) {
	if s, err := v.String(); err == nil {
		return options.Opt(s), nil
	}

	var o options.Option
	iter, err := v.Fields()
	if err != nil {
		return o, formatCUEError(err)
	}
	for iter.Next() {
		val := iter.Value()
		switch iter.Label() {
		case "name":
			o.Name, err = val.String()
		case "label":
			o.Label, err = val.String()
		case "value":
			o.Value, err = val.String()
		case "disabled":
			o.Disabled, err = val.Bool()
		case "extra":
			err = val.Decode(&o.Extra)
		}
		if err != nil {
			return o, asCompileError(err, path)
		}
	}
	if o.Name == "" {
		return o, &CompileError{Field: path, Message: "option name is required", Pos: v.Pos()}
	}
	if o.Label == "" {
		o.Label = o.Name
	}
	return o, nil
}

// toValue converts a concrete CUE value into a rule value.
func toValue(v cue.Value, path string) (query.Value, error) {
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		return query.String(s), err
	case cue.BoolKind:
		b, err := v.Bool()
		return query.Bool(b), err
	case cue.IntKind:
		n, err := v.Int64()
		return query.Number(n), err
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		return query.Number(f), err
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := query.List{}
		for i := 0; iter.Next(); i++ {
			elem, err := toValue(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func stringList[T ~string](v cue.Value) ([]T, error) {
	iter, err := v.List()
	if err != nil {
		return nil, err
	}
	var out []T
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, err
		}
		out = append(out, T(s))
	}
	return out, nil
}

func hasName(l options.List[options.Option], name string) bool {
	for _, o := range l.Flat {
		if o.Name == name {
			return true
		}
	}
	for _, g := range l.Groups {
		for _, o := range g.Options {
			if o.Name == name {
				return true
			}
		}
	}
	return false
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// asCompileError attributes a CUE error to field unless it already is a
// CompileError.
func asCompileError(err error, field string) error {
	if ce, ok := err.(*CompileError); ok {
		return ce
	}
	ce := &CompileError{Field: field, Message: err.Error()}
	if errs := errors.Errors(err); len(errs) > 0 {
		if pos := errors.Positions(errs[0]); len(pos) > 0 {
			ce.Pos = pos[0]
		}
	}
	return ce
}

// formatCUEError reduces a CUE error to a CompileError for its first
// entry, with a position when CUE has one.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	ce := &CompileError{Field: "cue", Message: err.Error()}
	if errs := errors.Errors(err); len(errs) > 0 {
		ce.Message = errs[0].Error()
		if positions := errors.Positions(errs[0]); len(positions) > 0 {
			ce.Pos = positions[0]
		}
	}
	return ce
}
