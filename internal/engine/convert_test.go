package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/testutil"
)

func TestConvertToIC(t *testing.T) {
	tree := nested()

	ic := ConvertToIC(tree)

	assert.Equal(t, []string{"A", "and", "G1", "and", "D"}, rawShape(ic))
	assert.Equal(t, []string{"B", "or", "C"}, rawShape(ic.Rules[2].(*query.RuleGroup)))
	assert.True(t, query.Validate(ic).IsValid)
	assert.False(t, tree.IsIC(), "input unchanged")
}

func TestConvertFromIC_Uniform(t *testing.T) {
	tree := testutil.IC("root",
		testutil.R("A", "a", "=", "1"), "or",
		testutil.R("B", "b", "=", "2"), "or",
		testutil.R("C", "c", "=", "3"),
	)

	std := ConvertFromIC(tree, ConvertOptions{})

	assert.Equal(t, query.Or, std.Combinator)
	assert.Equal(t, []string{"A", "B", "C"}, rawShape(std))
}

func TestConvertFromIC_PreservesPrecedence(t *testing.T) {
	ids := testutil.NewSequentialIDs("c-")
	// A and B or C and D  ==  (A and B) or (C and D)
	tree := testutil.IC("root",
		testutil.R("A", "a", "=", "1"), "and",
		testutil.R("B", "b", "=", "2"), "or",
		testutil.R("C", "c", "=", "3"), "and",
		testutil.R("D", "d", "=", "4"),
	)

	std := ConvertFromIC(tree, ConvertOptions{IDGenerator: ids.Generator()})

	assert.Equal(t, query.Or, std.Combinator)
	assert.Equal(t, []string{"c-1", "c-2"}, rawShape(std))
	left := std.Rules[0].(*query.RuleGroup)
	right := std.Rules[1].(*query.RuleGroup)
	assert.Equal(t, query.And, left.Combinator)
	assert.Equal(t, []string{"A", "B"}, rawShape(left))
	assert.Equal(t, []string{"C", "D"}, rawShape(right))
	assert.True(t, query.Validate(std).IsValid)
}

func TestConvertFromIC_SingleNodeRunsStayFlat(t *testing.T) {
	tree := testutil.IC("root",
		testutil.R("A", "a", "=", "1"), "or",
		testutil.R("B", "b", "=", "2"), "and",
		testutil.R("C", "c", "=", "3"),
	)

	std := ConvertFromIC(tree, ConvertOptions{IDGenerator: testutil.NewSequentialIDs("c-").Generator()})

	assert.Equal(t, query.Or, std.Combinator)
	assert.Equal(t, []string{"A", "c-1"}, rawShape(std))
	assert.Equal(t, []string{"B", "C"}, rawShape(std.Rules[1].(*query.RuleGroup)))
}

func TestConvertFromIC_EmptyAndSingleGroups(t *testing.T) {
	std := ConvertFromIC(testutil.IC("root"), ConvertOptions{DefaultCombinator: query.Or})
	assert.Equal(t, query.Or, std.Combinator)
	assert.Empty(t, std.Rules)

	std = ConvertFromIC(testutil.IC("root", testutil.R("A", "a", "=", "1")), ConvertOptions{})
	assert.Equal(t, query.And, std.Combinator)
	assert.Equal(t, []string{"A"}, rawShape(std))
}

func TestConvert_RoundTrip(t *testing.T) {
	tree := nested()

	back := ConvertFromIC(ConvertToIC(tree), ConvertOptions{})

	require.NotNil(t, back)
	assert.Equal(t, snapshot(t, tree), snapshot(t, back))
}
