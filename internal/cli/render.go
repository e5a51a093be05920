package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/render/profile"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	src      sourceFlags
	output   string // output file; "-" writes to stdout
	formats  []string
	detailed bool // include parameter values in labels
}

// renderCommand creates the render command for generating stack diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file|url>",
		Short: "Render the layer stack as a diagram",
		Long: `Render the layer stack as a top-to-bottom depth profile.

Formats are dot, svg (default), pdf, and png. PDF and PNG require librsvg
(rsvg-convert). Several formats can be given comma-separated; each is
written to <output>.<format>.

Rendered output is cached by stack content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], opts)
		},
	}

	opts.src.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path (default: <input>.<format>, '-' for stdout)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats: dot, svg, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show thickness, interface, and rho in each layer")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, ref string, opts renderOpts) error {
	ctx := cmd.Context()
	sess, runner, err := c.open(ctx, ref, opts.src)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := sess.Stack()
	if err != nil {
		return err
	}

	if opts.output == "-" {
		if len(opts.formats) != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "stdout output takes exactly one format")
		}
		out, err := runner.Render(ctx, st, opts.formats[0], profile.Options{Detailed: opts.detailed})
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	prog := newProgress(c.Logger)
	paths := outputPaths(ref, opts.output, opts.formats)
	allCached := true
	for i, format := range opts.formats {
		out, hit, err := runner.RenderWithCacheInfo(ctx, st, format, profile.Options{Detailed: opts.detailed})
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		allCached = allCached && hit
		if err := os.WriteFile(paths[i], out, 0644); err != nil {
			return fmt.Errorf("write %s: %w", paths[i], err)
		}
	}
	prog.done(fmt.Sprintf("Rendered %d layers", st.Len()))

	printSuccess("Rendered %s", strings.Join(opts.formats, ", "))
	for _, p := range paths {
		printFile(p)
	}
	printStats(st, allCached)
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{profile.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(profile.Formats, f) {
			return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %s)", f, strings.Join(profile.Formats, ", "))
		}
	}
	return nil
}

// outputPaths derives one path per format. With a single format an explicit
// output is used as is; otherwise the extension is replaced per format.
func outputPaths(input, output string, formats []string) []string {
	if output != "" && len(formats) == 1 {
		return []string{output}
	}
	base := output
	if base == "" {
		base = input
		if errors.IsURL(input) {
			base = "stack"
		}
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + "." + f
	}
	return paths
}
