package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/pipeline"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// editFlags are shared by the one-shot structural edit commands.
type editFlags struct {
	src    sourceFlags
	output string
}

func (f *editFlags) register(cmd *cobra.Command) {
	f.src.register(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
}

// runEdit opens ref, applies fn, and writes the updated document.
func (c *CLI) runEdit(cmd *cobra.Command, ref string, f editFlags, fn func(context.Context, *pipeline.Session) error) error {
	ctx := cmd.Context()
	sess, runner, err := c.open(ctx, ref, f.src)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := fn(ctx, sess); err != nil {
		return err
	}
	return writeSession(cmd, sess, f.output)
}

// addCommand creates the add command.
func (c *CLI) addCommand() *cobra.Command {
	var (
		f    editFlags
		name string
		from string
	)

	cmd := &cobra.Command{
		Use:   "add <file|url>",
		Short: "Append a layer to the bottom of the stack",
		Long: `Append a layer to the bottom of the stack.

Without --from, the new layer has every parameter fixed at 0 except the
interface roughness, which is free within [0, 100]. With --from, the new
layer copies the parameters of an existing layer. The new layer always gets
a fresh id and is placed last.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, args[0], f, func(ctx context.Context, sess *pipeline.Session) error {
				template, err := addTemplate(sess, name, from)
				if err != nil {
					return err
				}
				id, err := sess.Editor.AddLayer(ctx, template)
				if err != nil {
					return err
				}
				l, _ := sess.Editor.Layer(id)
				c.Logger.Info("added layer", "id", id, "name", l.Name, "order", l.Order)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "layer name (default: \""+sample.DefaultLayerName+"\" or the --from layer's name)")
	cmd.Flags().StringVar(&from, "from", "", "copy parameters from this layer (id, id prefix, or name)")
	return cmd
}

// addTemplate builds the layer to append. It returns nil when the default
// layer should be used unchanged.
func addTemplate(sess *pipeline.Session, name, from string) (*sample.Layer, error) {
	if from == "" {
		if name == "" {
			return nil, nil
		}
		if err := errors.ValidateLayerName(name); err != nil {
			return nil, err
		}
		return sample.DefaultLayer(name), nil
	}

	src, err := sess.Editor.Lookup(from)
	if err != nil {
		return nil, err
	}
	template := src.Clone()
	if name != "" {
		if err := template.Rename(name); err != nil {
			return nil, err
		}
	}
	return template, nil
}

// reorderCommand creates the reorder command.
func (c *CLI) reorderCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "reorder <file|url> <layer> <position>",
		Short: "Move a layer to a new position",
		Long: `Move a layer to a new position, counted from 0 at the top.

A position equal to the number of layers moves the layer to the bottom.
Orders are renumbered afterwards.`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeLayers,
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[2])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "position must be an integer, got %q", args[2])
			}
			return c.runEdit(cmd, args[0], f, func(ctx context.Context, sess *pipeline.Session) error {
				l, err := sess.Editor.Lookup(args[1])
				if err != nil {
					return err
				}
				if err := sess.Editor.Reorder(ctx, l.ID, pos); err != nil {
					return err
				}
				c.Logger.Info("moved layer", "name", l.Name, "position", pos)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

// renumberCommand creates the renumber command.
func (c *CLI) renumberCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "renumber <file|url>",
		Short: "Sort layers by order and renumber them 0..n-1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, args[0], f, func(ctx context.Context, sess *pipeline.Session) error {
				return sess.Editor.Renumber(ctx)
			})
		},
	}
	f.register(cmd)
	return cmd
}

// renameCommand creates the rename command.
func (c *CLI) renameCommand() *cobra.Command {
	var f editFlags

	cmd := &cobra.Command{
		Use:   "rename <file|url> <layer> <name>",
		Short: "Rename a layer and its parameters",
		Long: `Rename a layer. Parameter names that start with the old layer name
("Cu thickness", "Cu rho") are renamed to match.`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeLayers,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd, args[0], f, func(ctx context.Context, sess *pipeline.Session) error {
				l, err := sess.Editor.Lookup(args[1])
				if err != nil {
					return err
				}
				old := l.Name
				if err := sess.Editor.Rename(ctx, l.ID, args[2]); err != nil {
					return err
				}
				c.Logger.Info(fmt.Sprintf("renamed %q to %q", old, args[2]))
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}
