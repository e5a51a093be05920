package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/pipeline"
)

// sourceFlags selects and fetches the document a command works on.
type sourceFlags struct {
	model   int
	noCache bool
	refresh bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.model, "model", "m", 0, "index into the document's models array")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the HTTP response cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "refetch URLs even if cached")
}

// open loads ref into a new editing session. The caller closes the runner.
func (c *CLI) open(ctx context.Context, ref string, f sourceFlags) (*pipeline.Session, *pipeline.Runner, error) {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize runner: %w", err)
	}

	var spinner *Spinner
	if errors.IsURL(ref) {
		spinner = newSpinnerWithContext(ctx, "Fetching "+ref+"...")
		spinner.Start()
	}
	prog := newProgress(loggerFromContext(ctx))

	sess, err := runner.Open(ctx, ref, pipeline.Options{Model: f.model, Refresh: f.refresh})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		runner.Close()
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	prog.done("loaded", "source", sess.Editor.SourceName(), "model", sess.Model)
	return sess, runner, nil
}

// writeSession writes the edited document to output, or to stdout when
// output is empty.
func writeSession(cmd *cobra.Command, sess *pipeline.Session, output string) error {
	if output == "" {
		return sess.Write(cmd.OutOrStdout())
	}
	if err := sess.Save(output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	printSuccess("Wrote %s", output)
	printFile(output)
	return nil
}
