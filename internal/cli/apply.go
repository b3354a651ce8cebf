package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/querybuilder/internal/script"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Fields string
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <script.yaml>",
		Short: "Replay a builder script",
		Long: `Replay a YAML script of builder actions against a fresh builder and
print each step's events followed by the final tree.

The command exits with status 1 when any step or final expectation fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Fields, "fields", "", "field catalog (.cue or .json), overriding the script's")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions, path string) error {
	out := opts.formatter(cmd)

	s, err := script.Load(path)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeParseFailed, "load script", err)
	}
	catalog, err := loadCatalog(opts.Fields)
	if err != nil {
		return failLoad(out, err)
	}

	runOpts := []script.Option{
		script.WithFlags(opts.Flags),
		script.WithLogger(opts.Logger),
	}
	if catalog != nil {
		runOpts = append(runOpts, script.WithCatalog(catalog))
	}

	opts.Logger.Debug("replaying script", "name", s.Name, "steps", len(s.Steps))
	res, err := script.Run(s, runOpts...)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "run script", err)
	}

	if err := out.Success(res, func(w io.Writer) error {
		if err := script.FormatTrace(w, res); err != nil {
			return err
		}
		if res.Pass {
			_, err := fmt.Fprintln(w, "✓ All expectations met")
			return err
		}
		return nil
	}); err != nil {
		return err
	}

	if !res.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d expectation(s) failed", s.Name, len(res.Errors)))
	}
	return nil
}
