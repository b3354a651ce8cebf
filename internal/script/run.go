package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/querybuilder/internal/builder"
	"github.com/roach88/querybuilder/internal/config"
	"github.com/roach88/querybuilder/internal/dnd"
	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/fieldspec"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/testutil"
	"github.com/roach88/querybuilder/internal/treepath"
)

// DefaultBuilderID is used when a script names no builder.
const DefaultBuilderID = "qb"

// Result is the outcome of a replay.
type Result struct {
	Name string `json:"name"`
	// Pass is false when any expectation failed.
	Pass   bool             `json:"pass"`
	Steps  []StepTrace      `json:"steps"`
	Final  *query.RuleGroup `json:"final"`
	Errors []string         `json:"errors,omitempty"`
}

// StepTrace records what one step did.
type StepTrace struct {
	Seq    int           `json:"seq"`
	Action string        `json:"action"`
	Path   treepath.Path `json:"path"`
	// Events are the builder events the step logged, in order.
	Events  []string `json:"events"`
	Code    string   `json:"code,omitempty"`
	Error   string   `json:"error,omitempty"`
	Changed bool     `json:"changed"`
}

// LastEvent returns the final event, or "".
func (s StepTrace) LastEvent() string {
	if len(s.Events) == 0 {
		return ""
	}
	return s.Events[len(s.Events)-1]
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	flags   config.Flags
	catalog *fieldspec.Catalog
	logger  *slog.Logger
}

// WithFlags sets the base flags the script's builder settings overlay.
func WithFlags(f config.Flags) Option {
	return func(c *runConfig) { c.flags = f }
}

// WithCatalog supplies the field catalog, taking precedence over the
// script's own.
func WithCatalog(cat *fieldspec.Catalog) Option {
	return func(c *runConfig) { c.catalog = cat }
}

// WithLogger sets the builder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run replays s against a fresh builder.
//
// An error means the script could not be run at all. Failed
// expectations are reported in the result.
func Run(s *Script, opts ...Option) (*Result, error) {
	cfg := runConfig{
		flags:  config.DefaultFlags(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	catalog := cfg.catalog
	if catalog == nil && s.Fields != "" {
		var err error
		if catalog, err = fieldspec.LoadFile(s.Fields); err != nil {
			return nil, fmt.Errorf("load fields: %w", err)
		}
	}

	var initial *query.RuleGroup
	if s.Query != nil {
		var err error
		if initial, err = toTree(s.Query); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
	}

	flags := s.Builder.applyTo(cfg.flags)
	flags.DebugMode = true
	if err := flags.Validate(); err != nil {
		return nil, fmt.Errorf("builder settings: %w", err)
	}

	id := s.Builder.ID
	if id == "" {
		id = DefaultBuilderID
	}

	var events []builder.LogEntry
	bopts := []builder.Option{
		builder.WithID(id),
		builder.WithLogger(cfg.logger),
		builder.WithFlags(flags),
		builder.WithIDGenerator(testutil.NewSequentialIDs("n").Generator()),
		builder.WithOnLog(func(e builder.LogEntry) { events = append(events, e) }),
	}
	if initial != nil {
		bopts = append(bopts, builder.WithDefaultQuery(initial))
	}
	if catalog != nil {
		bopts = append(bopts,
			builder.WithFields(catalog.Fields),
			builder.WithOperators(catalog.Operators),
			builder.WithCombinators(catalog.Combinators),
		)
	}
	b := builder.New(bopts...)
	defer b.Close()

	res := &Result{Name: s.Name, Pass: true, Steps: make([]StepTrace, 0, len(s.Steps))}
	for i, st := range s.Steps {
		events = events[:0]
		before := b.Query()

		tr := StepTrace{Seq: i + 1, Action: st.Action, Path: treepath.Of(st.Path...)}
		if err := apply(b, st); err != nil {
			tr.Error = err.Error()
		}
		tr.Changed = b.Query() != before
		tr.Events = make([]string, 0, len(events))
		for _, e := range events {
			tr.Events = append(tr.Events, string(e.Type))
			var rej *engine.RejectError
			if errors.As(e.Err, &rej) {
				tr.Code = string(rej.Code)
			}
		}
		res.Steps = append(res.Steps, tr)
		checkStep(res, tr, st.Expect)
	}

	res.Final = b.Query()
	if err := checkFinal(res, s.Expect); err != nil {
		return nil, err
	}
	return res, nil
}

func apply(b *builder.Builder, st Step) error {
	p := treepath.Of(st.Path...)
	to := treepath.Of(st.To...)

	switch st.Action {
	case ActionAddRule:
		var rule *query.Rule
		if st.Node != nil {
			n, err := toNode(st.Node)
			if err != nil {
				return fmt.Errorf("node: %w", err)
			}
			r, ok := n.(*query.Rule)
			if !ok {
				return fmt.Errorf("node: addRule needs a rule")
			}
			rule = r
		}
		b.OnRuleAdd(rule, p)
	case ActionAddGroup:
		var group *query.RuleGroup
		if st.Node != nil {
			n, err := toNode(st.Node)
			if err != nil {
				return fmt.Errorf("node: %w", err)
			}
			g, ok := n.(*query.RuleGroup)
			if !ok {
				return fmt.Errorf("node: addGroup needs a group")
			}
			group = g
		}
		b.OnGroupAdd(group, p)
	case ActionRemove:
		b.OnRuleRemove(p)
	case ActionUpdate:
		b.OnPropChange(engine.Prop(st.Prop), st.Value, p)
	case ActionMove:
		b.MoveRule(p, engine.To(to), st.Clone)
	case ActionShift:
		dir := engine.DirUp
		if st.Dir == "down" {
			dir = engine.DirDown
		}
		b.ShiftRule(p, dir)
	case ActionClone:
		b.CloneRule(p)
	case ActionGroup:
		b.GroupRule(p, to, st.Clone)
	case ActionDrop:
		kind, mode := dnd.Kind(st.Kind), dnd.Mode(st.Mode)
		if kind == "" {
			kind = dnd.KindRule
		}
		if mode == "" {
			mode = dnd.ModeMove
		}
		return b.Drop(dnd.Dragging{Path: p}, dnd.Hovering{Path: to, Kind: kind}, mode)
	case ActionDispatch:
		tree, err := toTree(st.Node)
		if err != nil {
			return fmt.Errorf("node: %w", err)
		}
		b.Dispatch(tree)
	case ActionConvert:
		if st.Form == "ic" {
			b.ConvertToIC()
		} else {
			b.ConvertFromIC()
		}
	}
	return nil
}

func checkStep(res *Result, tr StepTrace, want *StepExpect) {
	if want == nil {
		return
	}
	if want.Event != "" && tr.LastEvent() != want.Event {
		res.addError("step %d (%s): expected event %q, got %q", tr.Seq, tr.Action, want.Event, tr.LastEvent())
	}
	if want.Code != "" && tr.Code != want.Code {
		res.addError("step %d (%s): expected code %q, got %q", tr.Seq, tr.Action, want.Code, tr.Code)
	}
	if want.Changed != nil && tr.Changed != *want.Changed {
		res.addError("step %d (%s): expected changed=%t, got %t", tr.Seq, tr.Action, *want.Changed, tr.Changed)
	}
}

func checkFinal(res *Result, want *Expect) error {
	if want == nil {
		return nil
	}
	if want.Valid != nil {
		v := query.Validate(res.Final)
		if v.IsValid != *want.Valid {
			res.addError("final: expected valid=%t, got %t %v", *want.Valid, v.IsValid, v.Violations)
		}
	}
	if want.Query != nil {
		expected, err := toTree(want.Query)
		if err != nil {
			return fmt.Errorf("expect.query: %w", err)
		}
		wantJSON, err := query.MarshalCanonical(expected)
		if err != nil {
			return fmt.Errorf("expect.query: %w", err)
		}
		gotJSON, err := query.MarshalCanonical(res.Final)
		if err != nil {
			return fmt.Errorf("final query: %w", err)
		}
		if !bytes.Equal(wantJSON, gotJSON) {
			res.addError("final: query mismatch\nwant: %s\ngot:  %s", wantJSON, gotJSON)
		}
	}
	return nil
}
