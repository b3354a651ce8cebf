package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/script"
	"github.com/roach88/querybuilder/internal/treepath"
)

// PathInfo describes one node of an inspected tree.
type PathInfo struct {
	Path     treepath.Path `json:"path"`
	ID       string        `json:"id"`
	Kind     string        `json:"kind"` // "rule" or "ruleGroup"
	Disabled bool          `json:"disabled"`
}

// InspectResult is the data of the inspect command.
type InspectResult struct {
	Hash  string     `json:"hash"`
	IC    bool       `json:"independentCombinators"`
	Nodes []PathInfo `json:"nodes"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var outline bool

	cmd := &cobra.Command{
		Use:   "inspect <query.json|->",
		Short: "List every path in a query tree",
		Long: `List every node of a JSON query tree with its path, id, kind and
effective disabled state. A node is disabled when it or any ancestor is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			tree, err := loadTree(args[0], cmd.InOrStdin())
			if err != nil {
				return failLoad(out, err)
			}
			res, err := inspect(tree)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeGeneric, "hash tree", err)
			}
			return out.Success(res, func(w io.Writer) error {
				if outline {
					return script.WriteOutline(w, tree)
				}
				return writeInspect(w, res)
			})
		},
	}

	cmd.Flags().BoolVar(&outline, "outline", false, "print an indented outline instead of a table")

	return cmd
}

func inspect(tree *query.RuleGroup) (*InspectResult, error) {
	hash, err := query.Hash(tree)
	if err != nil {
		return nil, err
	}
	res := &InspectResult{Hash: hash, IC: tree.IsIC()}
	treepath.Walk(tree, func(p treepath.Path, n query.Node) bool {
		kind := "rule"
		if _, ok := n.(*query.RuleGroup); ok {
			kind = "ruleGroup"
		}
		res.Nodes = append(res.Nodes, PathInfo{
			Path:     p,
			ID:       n.NodeID(),
			Kind:     kind,
			Disabled: treepath.IsDisabled(tree, p),
		})
		return true
	})
	return res, nil
}

func writeInspect(w io.Writer, res *InspectResult) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false

	tbl.AppendHeader(table.Row{"PATH", "KIND", "ID", "DISABLED"})
	for _, n := range res.Nodes {
		disabled := ""
		if n.Disabled {
			disabled = "yes"
		}
		tbl.AppendRow(table.Row{n.Path.String(), n.Kind, n.ID, disabled})
	}

	_, err := fmt.Fprintf(w, "%s\nhash: %s\n", tbl.Render(), res.Hash)
	return err
}
