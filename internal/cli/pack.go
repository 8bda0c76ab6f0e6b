package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pngsquare/pkg/pipeline"
)

// packFlags holds the command-line flags shared by pack and inspect.
type packFlags struct {
	formats  string // comma-separated output formats
	output   string // base path for json, pdf and xlsx outputs
	jobs     int    // parallel image loads
	noCache  bool   // disable the layout and artifact cache
	refresh  bool   // recompute even on a cache hit
	noVerify bool   // skip the overlap check after packing
	labels   bool   // draw sprite names in the pdf preview
}

// packCommand creates the pack command, which runs the full pipeline and
// writes every requested output.
func (c *CLI) packCommand() *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:   "pack [spec]",
		Short: "Pack the images of a spec into a sprite sheet",
		Long: `Pack reads a spec, places every listed image on a square grid and writes the
sprite sheet plus generated C loader code.

Outputs:
  png   the combined sprite sheet (spec "png" path)
  c     C source and header that load the sheet (spec "c" and "h" paths)
  json  the layout as JSON
  pdf   a one-page preview of the layout
  xlsx  a spreadsheet of placements

The png and c outputs go where the spec says. The others share a base path
given by --output, defaulting to the sheet path without its extension.`,
		Example: `  pngsquare pack textures.pngsquare
  pngsquare pack textures.toml -f png,c,json
  pngsquare pack textures.pngsquare -f pdf --labels -o build/textures`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions(cmd, args[0], flags)
			if err != nil {
				return err
			}
			return c.runPack(cmd.Context(), opts, flags.noCache)
		},
	}

	addPackFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output formats: "+strings.Join(pipeline.FormatNames(), ", ")+" (comma-separated, default png,c)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "base path for json, pdf and xlsx outputs")
	cmd.Flags().BoolVar(&flags.labels, "labels", false, "draw sprite names in the pdf preview")

	return cmd
}

// addPackFlags registers the flags pack and inspect have in common.
func addPackFlags(cmd *cobra.Command, flags *packFlags) {
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 0, "parallel image loads (default one per CPU)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&flags.noVerify, "no-verify", false, "skip the overlap check after packing")
}

// pipelineOptions merges flags over the config file into pipeline options.
func (c *CLI) pipelineOptions(cmd *cobra.Command, specPath string, flags packFlags) (pipeline.Options, error) {
	cfg := c.config()

	formats := cfg.Formats
	if cmd.Flags().Changed("format") {
		parsed, err := pipeline.ParseFormats(flags.formats)
		if err != nil {
			return pipeline.Options{}, err
		}
		formats = parsed
	}

	jobs := cfg.Jobs
	if cmd.Flags().Changed("jobs") {
		jobs = flags.jobs
	}

	return pipeline.Options{
		SpecPath:   specPath,
		Formats:    formats,
		Output:     flags.output,
		Jobs:       jobs,
		Refresh:    flags.refresh,
		SkipVerify: flags.noVerify,
		Labels:     flags.labels,
		Logger:     c.Logger,
	}, nil
}

// runPack executes the pipeline and writes its artifacts.
func (c *CLI) runPack(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Packing %s...", opts.SpecPath))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Packing failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := pipeline.WriteArtifacts(result, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d files", len(paths)))

	printSuccess("Packed %s", StyleHighlight.Render(result.Atlas.Name))
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats, result.Atlas.Width, result.Atlas.Height, result.CacheInfo.PackHit)
	if opts.SkipVerify {
		printWarning("Overlap check skipped")
	}
	return nil
}
