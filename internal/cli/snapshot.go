package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/editor"
	"github.com/matzehuels/layerstack/pkg/io"
	"github.com/matzehuels/layerstack/pkg/snapshot"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore named copies of a stack",
		Long: `Save and restore named copies of a stack.

Snapshots are stored as JSON files under ~/.config/layerstack/snapshots/ or,
when store.backend is "mongo" (or MONGODB_URI is set), in MongoDB.`,
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotExportCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

func (c *CLI) snapshotSaveCommand() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "save <file|url> <name>",
		Short: "Save a stack under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, runner, err := c.open(ctx, args[0], src)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := sess.Stack()
			if err != nil {
				return err
			}
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(ctx, args[1], st); err != nil {
				return err
			}
			printSuccess("Saved snapshot %s", StyleHighlight.Render(args[1]))
			printStats(st, false)
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(ctx)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No snapshots")
				return nil
			}
			for _, info := range list {
				printKeyValue(info.Name, fmt.Sprintf("%d layers  %s", info.Layers,
					StyleDim.Render(info.UpdatedAt.Local().Format("2006-01-02 15:04"))))
			}
			return nil
		},
	}
}

func (c *CLI) snapshotShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved snapshot as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(StyleTitle.Render(args[0]))
			fmt.Println(renderStackTable(st, -1))
			printStats(st, false)
			return nil
		},
	}
}

func (c *CLI) snapshotExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a saved snapshot as a sample document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			ed := editor.New(c.Logger)
			if err := ed.Load(ctx, snapshot.Source(store, args[0])); err != nil {
				return err
			}
			st, err := ed.Stack()
			if err != nil {
				return err
			}
			if output == "" {
				return io.WriteJSON(st, cmd.OutOrStdout())
			}
			if err := io.ExportJSON(st, output); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess("Exported snapshot %s", args[0])
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted snapshot %s", args[0])
			return nil
		},
	}
}
