package engine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/testutil"
	"github.com/roach88/querybuilder/internal/treepath"
)

// stubDefaults returns fixed reset values.
type stubDefaults struct{}

func (stubDefaults) DefaultOperator(field string) string {
	if field == "age" {
		return ">"
	}
	return "="
}

func (stubDefaults) DefaultValueSource(string, string) query.ValueSource {
	return query.ValueSourceValue
}

func (stubDefaults) DefaultValue(r *query.Rule) query.Value {
	if r.ValueSource == query.ValueSourceField {
		return query.String("other")
	}
	return query.String("default-" + r.Field)
}

func (stubDefaults) DefaultMatch(string) *query.Match { return nil }

func ruleAt(t *testing.T, g *query.RuleGroup, p treepath.Path) *query.Rule {
	t.Helper()
	r, ok := treepath.Find(g, p).(*query.Rule)
	require.True(t, ok, "no rule at %s", p)
	return r
}

func TestUpdate_FieldResetToPlaceholders(t *testing.T) {
	tree := testutil.G("root", query.And,
		&query.Rule{ID: "r1", Field: "price", Operator: "between", Value: query.Strings("1", "2")},
	)

	next, err := Update(tree, PropField, "newField", treepath.Of(0), UpdateOptions{ResetOnFieldChange: true})

	require.NoError(t, err)
	r := ruleAt(t, next, treepath.Of(0))
	assert.Equal(t, "newField", r.Field)
	assert.Equal(t, options.PlaceholderName, r.Operator)
	assert.Equal(t, query.String(""), r.Value)
	assert.Equal(t, "between", ruleAt(t, tree, treepath.Of(0)).Operator, "input unchanged")
}

func TestUpdate_FieldWithDefaulter(t *testing.T) {
	tree := testutil.ABC()

	t.Run("reset", func(t *testing.T) {
		next, err := Update(tree, PropField, "age", treepath.Of(1), UpdateOptions{ResetOnFieldChange: true, Defaults: stubDefaults{}})
		require.NoError(t, err)
		r := ruleAt(t, next, treepath.Of(1))
		assert.Equal(t, ">", r.Operator)
		assert.Equal(t, query.ValueSourceValue, r.ValueSource)
		assert.Equal(t, query.String("default-age"), r.Value)
	})

	t.Run("no reset keeps operator and value", func(t *testing.T) {
		next, err := Update(tree, PropField, "age", treepath.Of(1), UpdateOptions{Defaults: stubDefaults{}})
		require.NoError(t, err)
		r := ruleAt(t, next, treepath.Of(1))
		assert.Equal(t, "age", r.Field)
		assert.Equal(t, "=", r.Operator)
		assert.Equal(t, query.String("2"), r.Value)
	})
}

func TestUpdate_OperatorReset(t *testing.T) {
	tree := testutil.ABC()

	next, err := Update(tree, PropOperator, "!=", treepath.Of(0), UpdateOptions{ResetOnOperatorChange: true, Defaults: stubDefaults{}})
	require.NoError(t, err)
	assert.Equal(t, query.String("default-a"), ruleAt(t, next, treepath.Of(0)).Value)

	next, err = Update(tree, PropOperator, "!=", treepath.Of(0), UpdateOptions{Defaults: stubDefaults{}})
	require.NoError(t, err)
	assert.Equal(t, query.String("1"), ruleAt(t, next, treepath.Of(0)).Value)
}

func TestUpdate_ValueSourceAlwaysResetsValue(t *testing.T) {
	next, err := Update(testutil.ABC(), PropValueSource, "field", treepath.Of(0), UpdateOptions{Defaults: stubDefaults{}})

	require.NoError(t, err)
	r := ruleAt(t, next, treepath.Of(0))
	assert.Equal(t, query.ValueSourceField, r.ValueSource)
	assert.Equal(t, query.String("other"), r.Value)
}

func TestUpdate_BetweenCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  query.List
	}{
		{"scalar string", "5", query.Strings("5", "5")},
		{"comma pair", "1,2", query.Strings("1", "2")},
		{"number", 3, query.List{query.Number(3), query.Number(3)}},
		{"one element", []any{"x"}, query.Strings("x", "x")},
		{"three elements", []any{"a", "b", "c"}, query.Strings("a", "b")},
		{"empty list", []any{}, query.Strings("", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := testutil.G("root", query.And, testutil.R("r", "f", "between", ""))
			next, err := Update(tree, PropValue, tt.value, treepath.Of(0), UpdateOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ruleAt(t, next, treepath.Of(0)).Value)
		})
	}

	t.Run("operator change coerces the existing value", func(t *testing.T) {
		next, err := Update(testutil.ABC(), PropOperator, "notBetween", treepath.Of(0), UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, query.Strings("1", "1"), ruleAt(t, next, treepath.Of(0)).Value)
	})
}

func TestUpdate_Groups(t *testing.T) {
	t.Run("standard combinator", func(t *testing.T) {
		next, err := Update(nested(), PropCombinator, "xor", treepath.Of(1), UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, query.Xor, next.Rules[1].(*query.RuleGroup).Combinator)
	})

	t.Run("root not", func(t *testing.T) {
		next, err := Update(nested(), PropNot, true, treepath.Root, UpdateOptions{})
		require.NoError(t, err)
		assert.True(t, next.Not)
	})

	t.Run("IC group combinator is rejected", func(t *testing.T) {
		tree := testutil.IC("root", testutil.R("A", "a", "=", "1"))
		next, err := Update(tree, PropCombinator, "or", treepath.Root, UpdateOptions{})
		assert.Same(t, tree, next)
		assert.True(t, HasCode(err, ErrCodeIndependentCombinators))
	})

	t.Run("IC combinator element", func(t *testing.T) {
		tree := testutil.IC("root", testutil.R("A", "a", "=", "1"), "and", testutil.R("B", "b", "=", "2"))
		next, err := Update(tree, PropCombinator, "or", treepath.Of(1), UpdateOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "or", "B"}, rawShape(next))
		assert.Same(t, tree.Rules[0], next.Rules[0])
	})

	t.Run("IC combinator element rejects other props", func(t *testing.T) {
		tree := testutil.IC("root", testutil.R("A", "a", "=", "1"), "and", testutil.R("B", "b", "=", "2"))
		_, err := Update(tree, PropField, "x", treepath.Of(1), UpdateOptions{})
		assert.True(t, HasCode(err, ErrCodeInvalidProp))
	})

	t.Run("empty combinator", func(t *testing.T) {
		_, err := Update(nested(), PropCombinator, "", treepath.Of(1), UpdateOptions{})
		assert.True(t, HasCode(err, ErrCodeInvalidValue))
	})
}

func TestUpdate_Rejections(t *testing.T) {
	tree := nested()

	tests := []struct {
		name  string
		prop  Prop
		value any
		path  treepath.Path
		code  RejectCode
	}{
		{"missing path", PropValue, "x", treepath.Of(9), ErrCodeInvalidPath},
		{"rule has no not", PropNot, true, treepath.Of(0), ErrCodeInvalidProp},
		{"group has no field", PropField, "x", treepath.Of(1), ErrCodeInvalidProp},
		{"field must be a string", PropField, 5, treepath.Of(0), ErrCodeInvalidValue},
		{"disabled must be a bool", PropDisabled, "yes", treepath.Of(0), ErrCodeInvalidValue},
		{"unsupported value", PropValue, struct{}{}, treepath.Of(0), ErrCodeInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Update(tree, tt.prop, tt.value, tt.path, UpdateOptions{})
			assert.Same(t, tree, next)
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUpdate_UnchangedReturnsSameTree(t *testing.T) {
	tree := nested()

	for name, tc := range map[string]struct {
		prop  Prop
		value any
		path  treepath.Path
	}{
		"same value":      {PropValue, "1", treepath.Of(0)},
		"same field":      {PropField, "a", treepath.Of(0)},
		"same combinator": {PropCombinator, "or", treepath.Of(1)},
		"same disabled":   {PropDisabled, false, treepath.Of(1, 0)},
	} {
		t.Run(name, func(t *testing.T) {
			next, err := Update(tree, tc.prop, tc.value, tc.path, UpdateOptions{})
			require.NoError(t, err)
			assert.Same(t, tree, next)
		})
	}
}

func TestUpdate_MatchAndFlags(t *testing.T) {
	tree := nested()

	next, err := Update(tree, PropMatch, query.Match{Mode: query.MatchAtLeast, Threshold: 2}, treepath.Of(0), UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, &query.Match{Mode: query.MatchAtLeast, Threshold: 2}, ruleAt(t, next, treepath.Of(0)).Match)

	next, err = Update(next, PropMuted, true, treepath.Of(0), UpdateOptions{})
	require.NoError(t, err)
	assert.True(t, ruleAt(t, next, treepath.Of(0)).Muted)

	next, err = Update(next, PropDisabled, true, treepath.Of(1), UpdateOptions{})
	require.NoError(t, err)
	assert.True(t, next.Rules[1].(*query.RuleGroup).Disabled)
}

// Property: setting a between operator always leaves a two-element value.
func TestUpdate_PropertyBetweenIsPair(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("value has two elements", prop.ForAll(
		func(vals []string, asList bool, negate bool) bool {
			op := query.OperatorBetween
			if negate {
				op = query.OperatorNotBetween
			}
			var v any = vals
			if !asList {
				s := ""
				for i, x := range vals {
					if i > 0 {
						s += ","
					}
					s += x
				}
				v = s
			}
			tree := testutil.G("root", query.And, testutil.R("r", "f", "=", v))
			next, err := Update(tree, PropOperator, op, treepath.Of(0), UpdateOptions{})
			if err != nil {
				return false
			}
			l, ok := treepath.Find(next, treepath.Of(0)).(*query.Rule).Value.(query.List)
			return ok && len(l) == 2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
