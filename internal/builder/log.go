package builder

import (
	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// LogType identifies a builder event.
type LogType string

const (
	LogParentPathDisabled LogType = "parentPathDisabled"
	LogPathDisabled       LogType = "pathDisabled"
	LogQueryUpdate        LogType = "queryUpdate"
	LogOnAddRuleFalse     LogType = "onAddRuleFalse"
	LogOnAddGroupFalse    LogType = "onAddGroupFalse"
	LogOnRemoveFalse      LogType = "onRemoveFalse"
	LogOnPropChangeFalse  LogType = "onPropChangeFalse"
	LogOnMoveRuleFalse    LogType = "onMoveRuleFalse"
	LogOnMoveGroupFalse   LogType = "onMoveGroupFalse"
	LogOnGroupRuleFalse   LogType = "onGroupRuleFalse"
	LogOnGroupGroupFalse  LogType = "onGroupGroupFalse"
	LogAdd                LogType = "add"
	LogRemove             LogType = "remove"
	LogUpdate             LogType = "update"
	LogMove               LogType = "move"
	LogGroup              LogType = "group"
	LogMaxLevelsExceeded  LogType = "maxLevelsExceeded"
	LogRejected           LogType = "rejected"
	LogDropRefused        LogType = "dropRefused"
)

// LogEntry is one builder event, delivered to the OnLog callback when
// debug mode is on.
type LogEntry struct {
	Type      LogType
	BuilderID string

	// Action names the action that produced a rejection or veto.
	Action string

	// Path is the primary path: the parent for adds, the source for
	// moves and groups, the target otherwise.
	Path treepath.Path
	// Dest is the destination of a move or the target of a group.
	Dest treepath.Path

	Node  query.Node
	Prop  engine.Prop
	Value any
	Clone bool

	// Query is the tree before the event; Next the tree after it, when
	// there is one.
	Query *query.RuleGroup
	Next  *query.RuleGroup

	Err error
}

// debug records e at debug level and forwards it to OnLog in debug mode.
func (b *Builder) debug(e LogEntry) {
	e.BuilderID = b.id
	if e.Query == nil {
		e.Query = b.tree
	}

	attrs := []any{"builder", b.id, "type", string(e.Type)}
	if e.Action != "" {
		attrs = append(attrs, "action", e.Action)
	}
	if e.Path != nil {
		attrs = append(attrs, "path", e.Path.String())
	}
	if e.Dest != nil {
		attrs = append(attrs, "dest", e.Dest.String())
	}
	if e.Prop != "" {
		attrs = append(attrs, "prop", string(e.Prop))
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}
	b.logger.Debug("query builder event", attrs...)

	if b.flags.DebugMode && b.onLog != nil {
		b.onLog(e)
	}
}

// warn reports a usage error. It never fails the caller.
func (b *Builder) warn(msg string, args ...any) {
	b.logger.Warn(msg, append([]any{"builder", b.id}, args...)...)
}
