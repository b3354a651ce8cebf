package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/engine"
	"github.com/roach88/querybuilder/internal/query"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	To                string
	DefaultCombinator string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <query.json|->",
		Short: "Convert a tree between standard and independent-combinator form",
		Long: `Convert a JSON query tree to independent-combinator form (--to ic) or
back to standard form (--to standard), printing canonical JSON.

Converting to standard form groups runs of "and" before "or", so
"A and B or C" becomes "(A and B) or C".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "target form (ic|standard)")
	cmd.Flags().StringVar(&opts.DefaultCombinator, "default-combinator", string(query.And),
		"combinator for standard groups with fewer than two nodes")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *ConvertOptions, path string) error {
	out := opts.formatter(cmd)

	if opts.To != "ic" && opts.To != "standard" {
		return out.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid --to %q: must be ic or standard", opts.To), nil)
	}

	tree, err := loadTree(path, cmd.InOrStdin())
	if err != nil {
		return failLoad(out, err)
	}

	var converted *query.RuleGroup
	if opts.To == "ic" {
		converted = engine.ConvertToIC(tree)
	} else {
		converted = engine.ConvertFromIC(tree, engine.ConvertOptions{
			DefaultCombinator: query.Combinator(opts.DefaultCombinator),
		})
	}
	opts.Logger.Debug("converted tree", "to", opts.To, "id", converted.ID)

	data, err := query.MarshalCanonicalIndent(converted)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "encode tree", err)
	}
	return out.Success(json.RawMessage(data), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
