package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/io"
)

// showCommand creates the show command for printing a stack as a table.
func (c *CLI) showCommand() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "show <file|url>",
		Short: "Print the layer stack as a table",
		Long: `Print the layer stack as a table, top to bottom.

Free (fitted) parameter values are marked with '*'. Layer ids are shortened
to 8 characters; any unique prefix of 4 or more characters can be used to
address a layer in other commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), args[0], src)
		},
	}
	src.register(cmd)
	return cmd
}

func (c *CLI) runShow(ctx context.Context, ref string, src sourceFlags) error {
	sess, runner, err := c.open(ctx, ref, src)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := sess.Stack()
	if err != nil {
		return err
	}

	title := st.Name
	if title == "" {
		title = sess.Editor.SourceName()
	}
	fmt.Println(StyleTitle.Render(title))
	if n := sess.Document.ModelCount(); n > 1 {
		printKeyValue("Model", fmt.Sprintf("%d of %d", sess.Model, n))
	}
	fmt.Println(renderStackTable(st, -1))
	printStats(st, false)
	return nil
}

// normalizeCommand creates the normalize command.
func (c *CLI) normalizeCommand() *cobra.Command {
	var (
		src    sourceFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "normalize <file|url>",
		Short: "Write the normalized stack as a standalone sample document",
		Long: `Write the normalized stack as a standalone {"sample": ...} document.

Missing orders are filled from source position, missing ids are generated,
missing limits become (-inf, inf), and orders are renumbered densely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, runner, err := c.open(cmd.Context(), args[0], src)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := sess.Stack()
			if err != nil {
				return err
			}
			if output == "" {
				return io.WriteJSON(st, cmd.OutOrStdout())
			}
			if err := io.ExportJSON(st, output); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess("Normalized %d layers", st.Len())
			printFile(output)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
