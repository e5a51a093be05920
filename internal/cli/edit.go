package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/errors"
)

// editCommand creates the interactive edit command.
func (c *CLI) editCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "edit <file|url>",
		Short: "Edit a stack interactively",
		Long: `Edit a stack interactively.

Select layers with the arrow keys and move them with K/J (or shift+arrows).
'a' appends a default layer, 'r' renumbers, and 's' saves. Local files are
saved in place unless -o is given; URLs require -o.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]
			output := f.output
			if output == "" {
				if errors.IsURL(ref) {
					return errors.New(errors.ErrCodeInvalidInput, "editing a URL requires --output")
				}
				output = ref
			}

			ctx := cmd.Context()
			sess, runner, err := c.open(ctx, ref, f.src)
			if err != nil {
				return err
			}
			defer runner.Close()

			title := fmt.Sprintf("%s [model %d]", sess.Editor.SourceName(), sess.Model)
			model, cancel, err := NewEditModel(ctx, title, sess.Editor, func() (string, error) {
				return output, sess.Save(output)
			})
			if err != nil {
				return err
			}
			defer cancel()

			final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
			if err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			if m, ok := final.(EditModel); ok && m.Dirty {
				printWarning("Unsaved changes discarded")
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}
