package script

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// FormatTrace renders a result as stable text:
//
//	script: reorder
//	steps:
//	  1 move [0] -> move
//	  2 remove [9] -> rejected code=INVALID_PATH (unchanged)
//	final:
//	[] group root and
//	  [0] rule B b = "2"
func FormatTrace(w io.Writer, r *Result) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "script: %s\n", r.Name)
	buf.WriteString("steps:\n")
	for _, s := range r.Steps {
		events := "-"
		if len(s.Events) > 0 {
			events = strings.Join(s.Events, ",")
		}
		fmt.Fprintf(&buf, "  %d %s %s -> %s", s.Seq, s.Action, s.Path, events)
		if s.Code != "" {
			fmt.Fprintf(&buf, " code=%s", s.Code)
		}
		if s.Error != "" {
			fmt.Fprintf(&buf, " error=%q", s.Error)
		}
		if !s.Changed {
			buf.WriteString(" (unchanged)")
		}
		buf.WriteByte('\n')
	}
	if len(r.Errors) > 0 {
		buf.WriteString("errors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&buf, "  - %s\n", e)
		}
	}
	buf.WriteString("final:\n")
	writeGroup(&buf, r.Final, treepath.Root, 0)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteOutline renders tree one element per line, indented by depth and
// prefixed with its path.
func WriteOutline(w io.Writer, tree *query.RuleGroup) error {
	var buf bytes.Buffer
	writeGroup(&buf, tree, treepath.Root, 0)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeGroup(buf *bytes.Buffer, g *query.RuleGroup, p treepath.Path, depth int) {
	indent := strings.Repeat("  ", depth)
	if g == nil {
		fmt.Fprintf(buf, "%s%s <nil>\n", indent, p)
		return
	}
	combinator := string(g.Combinator)
	if g.IsIC() {
		combinator = "ic"
	}
	fmt.Fprintf(buf, "%s%s group %s %s%s\n", indent, p, g.ID, combinator, flags(g.Not, g.Disabled, g.Muted))
	for i, e := range g.Rules {
		cp := p.Child(i)
		switch el := e.(type) {
		case query.Combinator:
			fmt.Fprintf(buf, "%s  %s %s\n", indent, cp, el)
		case *query.Rule:
			fmt.Fprintf(buf, "%s  %s rule %s %s %s %s%s\n",
				indent, cp, el.ID, el.Field, el.Operator, formatValue(el), flags(false, el.Disabled, el.Muted))
		case *query.RuleGroup:
			writeGroup(buf, el, cp, depth+1)
		}
	}
}

func formatValue(r *query.Rule) string {
	s := query.ValueString(r.Value)
	if r.ValueSource == query.ValueSourceField {
		return "@" + s
	}
	return strconv.Quote(s)
}

func flags(not, disabled, muted bool) string {
	var sb strings.Builder
	if not {
		sb.WriteString(" not")
	}
	if disabled {
		sb.WriteString(" disabled")
	}
	if muted {
		sb.WriteString(" muted")
	}
	return sb.String()
}

// AssertGolden compares the formatted trace of r with
// testdata/golden/{r.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/script -update
func AssertGolden(t *testing.T, r *Result) {
	t.Helper()

	var buf bytes.Buffer
	if err := FormatTrace(&buf, r); err != nil {
		t.Fatalf("format trace: %v", err)
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, r.Name, buf.Bytes())
}
