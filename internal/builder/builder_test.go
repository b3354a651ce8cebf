package builder

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/testutil"
	"github.com/roach88/querybuilder/internal/treepath"
	"github.com/roach88/querybuilder/internal/validation"
)

// recorder captures OnChange and OnLog deliveries.
type recorder struct {
	changes []*query.RuleGroup
	logs    []LogEntry
}

func (r *recorder) types() []LogType {
	out := make([]LogType, len(r.logs))
	for i, e := range r.logs {
		out[i] = e.Type
	}
	return out
}

func (r *recorder) last() LogEntry {
	if len(r.logs) == 0 {
		return LogEntry{}
	}
	return r.logs[len(r.logs)-1]
}

func testFields() options.List[options.Field] {
	return options.Flat(
		options.Field{Option: options.Opt("firstName")},
		options.Field{
			Option:    options.Opt("age"),
			Operators: options.Flat(options.Opts("=", ">", "between")...),
		},
	)
}

func testFlags(mod func(*config.Flags)) config.Flags {
	f := config.DefaultFlags()
	f.DebugMode = true
	f.EnableMountQueryChange = false
	if mod != nil {
		mod(&f)
	}
	return f
}

func newTestBuilder(opts ...Option) (*Builder, *recorder) {
	rec := &recorder{}
	base := []Option{
		WithID("qb"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(testutil.NewSequentialIDs("n").Generator()),
		WithFields(testFields()),
		WithFlags(testFlags(nil)),
		WithOnChange(func(t *query.RuleGroup) { rec.changes = append(rec.changes, t) }),
		WithOnLog(func(e LogEntry) { rec.logs = append(rec.logs, e) }),
	}
	return New(append(base, opts...)...), rec
}

func ids(g *query.RuleGroup) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.NodeID())
	}
	return out
}

func nested() *query.RuleGroup {
	return testutil.G("root", query.And,
		testutil.R("A", "a", "=", "1"),
		testutil.G("G1", query.Or,
			testutil.R("B", "b", "=", "2"),
			testutil.R("C", "c", "=", "3"),
		),
		testutil.R("D", "d", "=", "4"),
	)
}

// =============================================================================
// Construction and modes
// =============================================================================

func TestNew_EmptyUncontrolled(t *testing.T) {
	b, rec := newTestBuilder()

	assert.False(t, b.Controlled())
	assert.Equal(t, "qb", b.ID())
	assert.Equal(t, "n1", b.Query().ID)
	assert.Equal(t, query.And, b.Query().Combinator)
	assert.Empty(t, b.Query().Rules)
	assert.Equal(t, 1, b.Schema().Revision)
	assert.Empty(t, rec.changes, "mount change disabled")
}

func TestNew_MountQueryChange(t *testing.T) {
	b, rec := newTestBuilder(
		WithDefaultQuery(testutil.ABC()),
		WithFlags(testFlags(func(f *config.Flags) { f.EnableMountQueryChange = true })),
	)
	require.Len(t, rec.changes, 1)
	assert.Same(t, b.Query(), rec.changes[0])
}

func TestNew_BothQueriesWarnsAndControls(t *testing.T) {
	var buf bytes.Buffer
	b := New(
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithQuery(testutil.ABC()),
		WithDefaultQuery(nested()),
	)
	assert.True(t, b.Controlled())
	assert.Equal(t, []string{"A", "B", "C"}, ids(b.Query()))
	assert.Contains(t, buf.String(), "both a query and a default query")
}

func TestControlled_ChangesFlowThroughCaller(t *testing.T) {
	b, rec := newTestBuilder(WithQuery(testutil.ABC()))
	before := b.Query()

	b.OnRuleRemove(treepath.Of(0))

	require.Len(t, rec.changes, 1)
	assert.Equal(t, []string{"B", "C"}, ids(rec.changes[0]))
	assert.Same(t, before, b.Query(), "controlled builder waits for SetQuery")
	assert.Equal(t, 1, b.Schema().Revision)

	b.SetQuery(rec.changes[0])
	assert.Same(t, rec.changes[0], b.Query())
	assert.Equal(t, 2, b.Schema().Revision)

	b.SetQuery(rec.changes[0])
	assert.Equal(t, 2, b.Schema().Revision, "same tree is not a replacement")
}

func TestSetQuery_ModeSwitchesAreWarned(t *testing.T) {
	var buf bytes.Buffer
	b := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))), WithDefaultQuery(testutil.ABC()))

	b.SetQuery(nested())
	assert.True(t, b.Controlled())
	assert.Contains(t, buf.String(), "uncontrolled to controlled")
	assert.Equal(t, []string{"A", "G1", "D"}, ids(b.Query()))

	b.SetQuery(nil)
	assert.False(t, b.Controlled())
	assert.Contains(t, buf.String(), "controlled to uncontrolled")
	assert.Equal(t, []string{"A", "G1", "D"}, ids(b.Query()), "tree is kept")
}

// =============================================================================
// Actions
// =============================================================================

func TestOnRuleAdd(t *testing.T) {
	b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))

	b.OnRuleAdd(nil, treepath.Root)

	assert.Equal(t, []string{"A", "B", "C", "n1"}, ids(b.Query()))
	added := b.Query().Rules[3].(*query.Rule)
	assert.Equal(t, "firstName", added.Field)
	assert.Equal(t, "=", added.Operator)
	assert.Equal(t, query.String(""), added.Value)
	require.Len(t, rec.changes, 1)
	assert.Equal(t, LogAdd, rec.last().Type)
	assert.Equal(t, 2, b.Schema().Revision)
}

func TestOnRuleAdd_InvalidParentIsLogged(t *testing.T) {
	b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
	before := b.Query()

	b.OnRuleAdd(nil, treepath.Of(0))

	assert.Same(t, before, b.Query())
	assert.Empty(t, rec.changes)
	e := rec.last()
	assert.Equal(t, LogRejected, e.Type)
	assert.Equal(t, string(LogAdd), e.Action)
	assert.True(t, engine.HasCode(e.Err, engine.ErrCodeNotAGroup))
}

func TestOnGroupAdd_MaxLevels(t *testing.T) {
	b, rec := newTestBuilder(
		WithDefaultQuery(testutil.ABC()),
		WithFlags(testFlags(func(f *config.Flags) { f.MaxLevels = 1 })),
	)

	b.OnGroupAdd(nil, treepath.Root)
	require.Len(t, b.Query().Rules, 4)
	added := b.Query().Rules[3].(*query.RuleGroup)
	assert.Equal(t, query.And, added.Combinator)

	b.OnGroupAdd(nil, treepath.Of(3))
	assert.Empty(t, added.Rules)
	assert.Equal(t, LogMaxLevelsExceeded, rec.last().Type)
	assert.Equal(t, 1, b.Schema().MaxLevels)
}

func TestOnPropChange(t *testing.T) {
	t.Run("placeholder value stored as empty", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.OnPropChange(engine.PropValue, options.PlaceholderName, treepath.Of(0))
		assert.Equal(t, query.String(""), b.Query().Rules[0].(*query.Rule).Value)
	})

	t.Run("unchanged value commits nothing", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.OnPropChange(engine.PropValue, "1", treepath.Of(0))
		assert.Empty(t, rec.changes)
	})

	t.Run("invalid prop is rejected", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.OnPropChange(engine.PropCombinator, "or", treepath.Of(0))
		assert.Empty(t, rec.changes)
		assert.Equal(t, LogRejected, rec.last().Type)
	})

	t.Run("field change resets operator and value", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.G("root", query.And,
			&query.Rule{ID: "r", Field: "age", Operator: query.OperatorBetween, Value: query.Strings("1", "2")},
		)))
		b.OnPropChange(engine.PropField, "firstName", treepath.Of(0))
		r := b.Query().Rules[0].(*query.Rule)
		assert.Equal(t, "firstName", r.Field)
		assert.Equal(t, "=", r.Operator)
		assert.Equal(t, query.String(""), r.Value)
	})
}

func TestMoveActions(t *testing.T) {
	t.Run("move to front", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.MoveRule(treepath.Of(2), engine.To(treepath.Of(0)), false)
		assert.Equal(t, []string{"C", "A", "B"}, ids(b.Query()))
		assert.Equal(t, LogMove, rec.last().Type)
	})

	t.Run("shift down", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.ShiftRule(treepath.Of(0), engine.DirDown)
		assert.Equal(t, []string{"B", "A", "C"}, ids(b.Query()))
	})

	t.Run("shift past the end is rejected", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.ShiftRule(treepath.Of(2), engine.DirDown)
		assert.Equal(t, []string{"A", "B", "C"}, ids(b.Query()))
		assert.True(t, engine.HasCode(rec.last().Err, engine.ErrCodeNoOp))
	})

	t.Run("clone rule", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.CloneRule(treepath.Of(0))
		require.Equal(t, []string{"n1", "A", "B", "C"}, ids(b.Query()))
		clone := b.Query().Rules[0].(*query.Rule)
		assert.Equal(t, "a", clone.Field)
	})

	t.Run("clone group copies descendants", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(nested()))
		b.CloneGroup(treepath.Of(1))
		require.Equal(t, []string{"A", "n1", "G1", "D"}, ids(b.Query()))
		assert.Equal(t, []string{"n2", "n3"}, ids(b.Query().Rules[1].(*query.RuleGroup)))
	})

	t.Run("clone root is rejected", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.CloneGroup(treepath.Root)
		assert.Empty(t, rec.changes)
		assert.True(t, engine.HasCode(rec.last().Err, engine.ErrCodeRootPath))
	})
}

func TestGroupRule(t *testing.T) {
	b, rec := newTestBuilder(WithDefaultQuery(testutil.G("root", query.And,
		testutil.R("A", "a", "=", "1"),
		testutil.R("B", "b", "=", "2"),
	)))

	b.GroupRule(treepath.Of(0), treepath.Of(1), false)

	require.Len(t, b.Query().Rules, 1)
	wrapper := b.Query().Rules[0].(*query.RuleGroup)
	assert.Equal(t, "n1", wrapper.ID)
	assert.Equal(t, query.And, wrapper.Combinator)
	assert.Equal(t, []string{"A", "B"}, ids(wrapper))
	assert.Equal(t, LogGroup, rec.last().Type)
}

func TestDispatch(t *testing.T) {
	b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
	b.Dispatch(nested())
	assert.Equal(t, []string{"A", "G1", "D"}, ids(b.Query()))
	assert.Equal(t, LogQueryUpdate, rec.last().Type)
}

// =============================================================================
// Disabled paths
// =============================================================================

func TestDisabledPaths(t *testing.T) {
	b, rec := newTestBuilder(
		WithDefaultQuery(nested()),
		WithFlags(testFlags(func(f *config.Flags) { f.DisabledPaths = [][]int{{1}} })),
	)

	b.OnRuleRemove(treepath.Of(1, 0))
	assert.Equal(t, []string{"B", "C"}, ids(b.Query().Rules[1].(*query.RuleGroup)))
	assert.Equal(t, LogPathDisabled, rec.last().Type)

	b.OnRuleAdd(nil, treepath.Of(1))
	assert.Equal(t, LogParentPathDisabled, rec.last().Type)

	b.OnPropChange(engine.PropValue, "x", treepath.Of(1, 1))
	assert.Equal(t, LogPathDisabled, rec.last().Type)

	b.OnPropChange(engine.PropMuted, true, treepath.Of(1, 1))
	assert.True(t, b.Query().Rules[1].(*query.RuleGroup).Rules[1].(*query.Rule).Muted)

	children := b.Children(treepath.Root)
	require.Len(t, children, 3)
	assert.False(t, children[0].Disabled)
	assert.True(t, children[1].Disabled)
	assert.False(t, children[2].Disabled)
	inner := b.Children(treepath.Of(1))
	require.Len(t, inner, 2)
	assert.True(t, inner[0].Disabled)

	b.OnRuleRemove(treepath.Of(0))
	assert.Equal(t, []string{"G1", "D"}, ids(b.Query()))
}

func TestDisabledNodeCanBeReenabled(t *testing.T) {
	tree := testutil.ABC()
	tree.Rules[1].(*query.Rule).Disabled = true
	b, rec := newTestBuilder(WithDefaultQuery(tree))

	b.OnPropChange(engine.PropValue, "x", treepath.Of(1))
	assert.Equal(t, LogPathDisabled, rec.last().Type)

	b.OnPropChange(engine.PropDisabled, false, treepath.Of(1))
	assert.False(t, b.Query().Rules[1].(*query.Rule).Disabled)

	b.OnPropChange(engine.PropValue, "x", treepath.Of(1))
	assert.Equal(t, query.String("x"), b.Query().Rules[1].(*query.Rule).Value)
}

func TestWholeBuilderDisabled(t *testing.T) {
	b, rec := newTestBuilder(
		WithDefaultQuery(testutil.ABC()),
		WithFlags(testFlags(func(f *config.Flags) { f.Disabled = true })),
	)

	b.OnRuleAdd(nil, treepath.Root)
	b.OnPropChange(engine.PropDisabled, false, treepath.Of(0))
	b.MoveRule(treepath.Of(0), engine.Down, false)

	assert.Empty(t, rec.changes)
	assert.Equal(t, []LogType{LogParentPathDisabled, LogPathDisabled, LogPathDisabled}, rec.types())
	assert.True(t, b.Schema().QueryDisabled)
}

// =============================================================================
// Hooks
// =============================================================================

func TestHooks(t *testing.T) {
	t.Run("add rule denied", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnAddRule: func(*query.Rule, treepath.Path, *query.RuleGroup) Verdict { return Deny },
		}))
		b.OnRuleAdd(nil, treepath.Root)
		assert.Len(t, b.Query().Rules, 3)
		assert.Equal(t, LogOnAddRuleFalse, rec.last().Type)
	})

	t.Run("add rule substituted", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnAddRule: func(*query.Rule, treepath.Path, *query.RuleGroup) Verdict {
				return Substitute(testutil.R("S", "age", ">", 30))
			},
		}))
		b.OnRuleAdd(nil, treepath.Root)
		assert.Equal(t, []string{"A", "B", "C", "S"}, ids(b.Query()))
	})

	t.Run("remove denied", func(t *testing.T) {
		var seen query.Node
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnRemove: func(n query.Node, _ treepath.Path, _ *query.RuleGroup) Verdict {
				seen = n
				return Deny
			},
		}))
		b.OnRuleRemove(treepath.Of(1))
		assert.Equal(t, "B", seen.NodeID())
		assert.Len(t, b.Query().Rules, 3)
		assert.Equal(t, LogOnRemoveFalse, rec.last().Type)
	})

	t.Run("move sees next tree and can replace it", func(t *testing.T) {
		replacement := nested()
		var proposed []string
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnMoveRule: func(_ *query.Rule, _, to treepath.Path, _, next *query.RuleGroup) Verdict {
				proposed = ids(next)
				assert.Equal(t, treepath.Of(1), to)
				return SubstituteQuery(replacement)
			},
		}))
		b.ShiftRule(treepath.Of(0), engine.DirDown)
		assert.Equal(t, []string{"B", "A", "C"}, proposed)
		assert.Same(t, replacement, b.Query())
	})

	t.Run("move group denied", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(nested()), WithHooks(Hooks{
			OnMoveGroup: func(*query.RuleGroup, treepath.Path, treepath.Path, *query.RuleGroup, *query.RuleGroup) Verdict {
				return Deny
			},
		}))
		b.MoveRule(treepath.Of(1), engine.To(treepath.Of(0)), false)
		assert.Equal(t, []string{"A", "G1", "D"}, ids(b.Query()))
		assert.Equal(t, LogOnMoveGroupFalse, rec.last().Type)
		assert.NotNil(t, rec.last().Next)
	})

	t.Run("group rule denied", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnGroupRule: func(*query.Rule, treepath.Path, treepath.Path, *query.RuleGroup, *query.RuleGroup) Verdict {
				return Deny
			},
		}))
		b.GroupRule(treepath.Of(0), treepath.Of(1), false)
		assert.Equal(t, []string{"A", "B", "C"}, ids(b.Query()))
		assert.Equal(t, LogOnGroupRuleFalse, rec.last().Type)
	})

	t.Run("prop change denied", func(t *testing.T) {
		b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()), WithHooks(Hooks{
			OnPropChange: func(engine.Prop, any, treepath.Path, *query.RuleGroup, *query.RuleGroup) Verdict {
				return Deny
			},
		}))
		b.OnPropChange(engine.PropValue, "9", treepath.Of(0))
		assert.Equal(t, query.String("1"), b.Query().Rules[0].(*query.Rule).Value)
		assert.Equal(t, LogOnPropChangeFalse, rec.last().Type)
	})
}

func TestOnLog_OnlyInDebugMode(t *testing.T) {
	b, rec := newTestBuilder(
		WithDefaultQuery(testutil.ABC()),
		WithFlags(testFlags(func(f *config.Flags) { f.DebugMode = false })),
	)
	b.OnRuleRemove(treepath.Of(0))
	assert.Len(t, rec.changes, 1)
	assert.Empty(t, rec.logs)
}

// =============================================================================
// Schema, validation and combinator form
// =============================================================================

func TestSchema_RecomputedOncePerReplacement(t *testing.T) {
	calls := 0
	b, _ := newTestBuilder(
		WithDefaultQuery(testutil.ABC()),
		WithValidator(func(tree *query.RuleGroup) validation.Output {
			calls++
			return validation.Bool(len(tree.Rules) > 2)
		}),
	)
	assert.Equal(t, 1, calls)
	assert.True(t, b.Schema().Validation.IsValid("root"))

	b.OnRuleRemove(treepath.Of(0))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, b.Schema().Revision)
	assert.False(t, b.Schema().Validation.IsValid("root"))

	b.OnRuleRemove(treepath.Of(5))
	assert.Equal(t, 2, calls, "rejected action does not recompute")
}

func TestSchema_Options(t *testing.T) {
	b, _ := newTestBuilder()
	s := b.Schema()
	assert.Equal(t, []string{"firstName", "age"}, options.Names(s.Fields))
	assert.Equal(t, []string{"and", "or"}, options.Names(s.Combinators)[:2])
	assert.Equal(t, []string{"=", ">", "between"}, options.Names(b.Operators("age")))
}

func TestIndependentCombinators(t *testing.T) {
	t.Run("configured form converts the initial tree", func(t *testing.T) {
		ic := true
		b, rec := newTestBuilder(
			WithDefaultQuery(testutil.ABC()),
			WithFlags(testFlags(func(f *config.Flags) { f.IndependentCombinators = &ic })),
		)
		assert.True(t, b.IndependentCombinators())
		assert.True(t, b.Schema().IndependentCombinators)
		assert.Len(t, b.Query().Rules, 5)
		assert.Equal(t, query.And, b.Query().Rules[1])
		assert.Len(t, rec.changes, 1, "conversion is reported")
	})

	t.Run("inferred from the tree", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.IC("root",
			testutil.R("A", "a", "=", "1"), "or", testutil.R("B", "b", "=", "2"),
		)))
		assert.True(t, b.IndependentCombinators())
		assert.True(t, b.NewGroup().IsIC())

		b.OnRuleAdd(nil, treepath.Root)
		assert.Equal(t, query.Or, b.Query().Rules[3], "last combinator is reused")
	})

	t.Run("convert actions", func(t *testing.T) {
		b, _ := newTestBuilder(WithDefaultQuery(testutil.ABC()))
		b.ConvertToIC()
		assert.True(t, b.IndependentCombinators())
		assert.Len(t, b.Query().Rules, 5)

		b.ConvertFromIC()
		assert.False(t, b.IndependentCombinators())
		assert.Equal(t, query.And, b.Query().Combinator)
		assert.Equal(t, []string{"A", "B", "C"}, ids(b.Query()))
	})
}

// =============================================================================
// Registry and lifecycle
// =============================================================================

func TestRegistry_Lifecycle(t *testing.T) {
	reg := NewRegistry()
	a, _ := newTestBuilder(WithID("a"), WithRegistry(reg))
	b, _ := newTestBuilder(WithID("b"), WithRegistry(reg))
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	dup, _ := newTestBuilder(WithID("a"), WithRegistry(reg))
	got, _ = reg.Lookup("a")
	assert.Same(t, a, got, "duplicate id does not displace the first builder")
	dup.Close()
	_, ok = reg.Lookup("a")
	assert.True(t, ok, "closing the duplicate leaves the original registered")

	a.Close()
	_, ok = reg.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())

	b.Close()
	b.Close()
	assert.Equal(t, 0, reg.Len())
}

func TestClosedBuilderIgnoresActions(t *testing.T) {
	b, rec := newTestBuilder(WithDefaultQuery(testutil.ABC()))
	b.Close()
	b.OnRuleRemove(treepath.Of(0))
	b.Dispatch(nested())
	assert.Equal(t, []string{"A", "B", "C"}, ids(b.Query()))
	assert.Empty(t, rec.changes)
}
