package script

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/query"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"reorder", "ic_drop"} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(filepath.Join("testdata", name+".yaml"))
			require.NoError(t, err)

			res, err := Run(s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
			AssertGolden(t, res)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	s, err := Load("testdata/reorder.yaml")
	require.NoError(t, err)

	var first, second bytes.Buffer
	r1, err := Run(s)
	require.NoError(t, err)
	require.NoError(t, FormatTrace(&first, r1))
	r2, err := Run(s)
	require.NoError(t, err)
	require.NoError(t, FormatTrace(&second, r2))

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, query.MustHash(r1.Final), query.MustHash(r2.Final))
}

func TestRun_FailedExpectations(t *testing.T) {
	s, err := Parse([]byte(`
name: failing
steps:
  - action: addRule
    node: {field: x, operator: "=", value: "1"}
    expect: {event: remove, changed: false}
  - action: remove
    path: [5]
    expect: {code: NOT_A_GROUP}
expect:
  query:
    combinator: or
    rules: []
`))
	require.NoError(t, err)

	res, err := Run(s)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], `expected event "remove", got "add"`)
	assert.Contains(t, res.Errors[1], "expected changed=false, got true")
	assert.Contains(t, res.Errors[2], `expected code "NOT_A_GROUP", got "INVALID_PATH"`)
	assert.Contains(t, res.Errors[3], "query mismatch")
}

func TestRun_EmptyStartAndFlags(t *testing.T) {
	s, err := Parse([]byte(`
name: locked
builder:
  id: main
  disabled: true
steps:
  - action: addRule
    expect: {event: parentPathDisabled, changed: false}
`))
	require.NoError(t, err)

	res, err := Run(s, WithFlags(config.DefaultFlags()))
	require.NoError(t, err)
	assert.True(t, res.Pass, "errors: %v", res.Errors)
	assert.Equal(t, "n1", res.Final.ID, "empty root takes the first generated id")
	assert.Equal(t, query.And, res.Final.Combinator)
	assert.Empty(t, res.Final.Rules)
}

func TestRun_FieldCatalog(t *testing.T) {
	s, err := Parse([]byte(`
name: catalog
fields: people.cue
steps:
  - action: addRule
`))
	require.NoError(t, err)
	s.Fields = filepath.Join("testdata", s.Fields)

	res, err := Run(s)
	require.NoError(t, err)
	require.Len(t, res.Final.Rules, 1)
	rule := res.Final.Rules[0].(*query.Rule)
	assert.Equal(t, "firstName", rule.Field)
	assert.Equal(t, "contains", rule.Operator)
}

func TestRun_BadCatalog(t *testing.T) {
	s, err := Parse([]byte("name: x\nfields: missing.cue\nsteps: [{action: remove, path: [0]}]\n"))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load fields")
}

func TestLoad_ResolvesFieldsRelativeToScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: s\nfields: f.cue\nsteps: [{action: clone, path: [0]}]\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "f.cue"), s.Fields)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", "steps: [{action: remove}]", "name is required"},
		{"no steps", "name: x", "steps list is required"},
		{"unknown key", "name: x\nstep: []", "failed to parse YAML"},
		{"unknown action", "name: x\nsteps: [{action: explode}]", `unknown action "explode"`},
		{"update without prop", "name: x\nsteps: [{action: update, path: [0]}]", "prop is required"},
		{"move without to", "name: x\nsteps: [{action: move, path: [0]}]", "to is required for move"},
		{"bad shift", "name: x\nsteps: [{action: shift, path: [0], dir: left}]", "dir must be up or down"},
		{"bad form", "name: x\nsteps: [{action: convert, form: fancy}]", "form must be ic or standard"},
		{"dispatch without node", "name: x\nsteps: [{action: dispatch}]", "node is required"},
		{"negative levels", "name: x\nbuilder: {maxLevels: -1}\nsteps: [{action: clone}]", "maxLevels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteOutline(t *testing.T) {
	tree := &query.RuleGroup{
		ID: "root",
		Rules: []query.Element{
			&query.Rule{ID: "A", Field: "a", Operator: "=", Value: query.String("x"), Muted: true},
			query.Or,
			&query.Rule{ID: "B", Field: "b", Operator: "=", Value: query.String("c"), ValueSource: query.ValueSourceField},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteOutline(&buf, tree))

	want := "[] group root ic\n" +
		"  [0] rule A a = \"x\" muted\n" +
		"  [1] or\n" +
		"  [2] rule B b = @c\n"
	assert.Equal(t, want, buf.String())
}
