package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/fieldspec"
	"github.com/roach88/querybuilder/internal/options"
	"github.com/roach88/querybuilder/internal/query"
	"github.com/roach88/querybuilder/internal/treepath"
)

// CheckResult is the data of the check command.
type CheckResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var fields string

	cmd := &cobra.Command{
		Use:   "check <query.json|->",
		Short: "Check a query tree's structure",
		Long: `Check a JSON query tree for structural problems: misplaced combinators,
missing or duplicate ids, and malformed between values.

With --fields, rules that name a field missing from the catalog are
reported too. The command exits with status 1 when any problem is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)

			tree, err := loadTree(args[0], cmd.InOrStdin())
			if err != nil {
				return failLoad(out, err)
			}
			catalog, err := loadCatalog(fields)
			if err != nil {
				return failLoad(out, err)
			}

			res := check(tree, catalog)
			if res.Valid {
				return out.Success(res, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "✓ Query is valid")
					return err
				})
			}

			if err := out.Error(ErrCodeInvalidTree, fmt.Sprintf("%d problem(s) found", len(res.Violations)), res); err != nil {
				return err
			}
			if out.Format != "json" {
				for _, v := range res.Violations {
					fmt.Fprintf(out.Writer, "  ✗ %s\n", v)
				}
			}
			return NewExitError(ExitFailure, "query is invalid")
		},
	}

	cmd.Flags().StringVar(&fields, "fields", "", "field catalog (.cue or .json) to check rule fields against")

	return cmd
}

func check(tree *query.RuleGroup, catalog *fieldspec.Catalog) CheckResult {
	v := query.Validate(tree)
	res := CheckResult{Valid: v.IsValid, Violations: v.Violations}
	if catalog == nil || tree == nil {
		return res
	}

	known := options.Prepare(catalog.Fields, options.Config[options.Field]{})
	treepath.Walk(tree, func(p treepath.Path, n query.Node) bool {
		r, ok := n.(*query.Rule)
		if !ok {
			return true
		}
		if !known.Has(r.Field) {
			res.Violations = append(res.Violations, fmt.Sprintf("%s: unknown field %q", p, r.Field))
		}
		if r.ValueSource == query.ValueSourceField {
			if name := query.ValueString(r.Value); name != "" && !known.Has(name) {
				res.Violations = append(res.Violations, fmt.Sprintf("%s: value names unknown field %q", p, name))
			}
		}
		return true
	})
	res.Valid = len(res.Violations) == 0
	return res
}
