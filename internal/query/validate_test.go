package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		query      *RuleGroup
		valid      bool
		violations []string
	}{
		{
			name:  "valid standard",
			query: &RuleGroup{ID: "root", Combinator: And, Rules: []Element{&Rule{ID: "r1"}, &Rule{ID: "r2"}}},
			valid: true,
		},
		{
			name:  "valid IC",
			query: &RuleGroup{ID: "root", Rules: []Element{&Rule{ID: "r1"}, And, &Rule{ID: "r2"}}},
			valid: true,
		},
		{
			name:       "IC even length",
			query:      &RuleGroup{ID: "root", Rules: []Element{&Rule{ID: "r1"}, And}},
			violations: []string{"[]: independent combinator group has even length 2"},
		},
		{
			name:       "combinator in standard group",
			query:      &RuleGroup{ID: "root", Combinator: And, Rules: []Element{Or}},
			violations: []string{`[0]: combinator "or" in a group with combinator "and"`},
		},
		{
			name: "duplicate id",
			query: &RuleGroup{ID: "root", Combinator: And, Rules: []Element{
				&Rule{ID: "r1"},
				&RuleGroup{ID: "g", Combinator: Or, Rules: []Element{&Rule{ID: "r1"}}},
			}},
			violations: []string{`[1,0]: duplicate id "r1" (first seen at [0])`},
		},
		{
			name:       "missing id",
			query:      &RuleGroup{ID: "root", Combinator: And, Rules: []Element{&Rule{}}},
			violations: []string{"[0]: missing id"},
		},
		{
			name: "between needs pair",
			query: &RuleGroup{ID: "root", Combinator: And, Rules: []Element{
				&Rule{ID: "r1", Operator: OperatorBetween, Value: Strings("1")},
				&Rule{ID: "r2", Operator: OperatorNotBetween, Value: String("1,2")},
			}},
			violations: []string{"[0]: between value has 1 elements, want 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query)
			if tt.valid {
				assert.True(t, result.IsValid)
				assert.Empty(t, result.Violations)
				return
			}
			assert.False(t, result.IsValid)
			assert.Equal(t, tt.violations, result.Violations)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	result := Validate(nil)
	assert.False(t, result.IsValid)
}
