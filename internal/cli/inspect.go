package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pngsquare/pkg/atlas"
	"github.com/matzehuels/pngsquare/pkg/pipeline"
)

// inspectCommand creates the inspect command, which packs a spec and
// prints the placements without writing anything.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags  packFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [spec]",
		Short: "Show where every sprite of a spec lands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions(cmd, args[0], flags)
			if err != nil {
				return err
			}
			// The json artifact needs sizes only, so no pixels are decoded.
			opts.Formats = []string{pipeline.FormatJSON}
			return c.runInspect(cmd.Context(), cmd.OutOrStdout(), opts, flags.noCache, asJSON)
		},
	}

	addPackFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the layout as JSON")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, opts pipeline.Options, noCache, asJSON bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}

	if asJSON {
		_, err := w.Write(result.Artifacts[pipeline.FormatJSON])
		return err
	}

	fmt.Fprintln(w, placementTable(result.Atlas))
	printKeyValue("Canvas", fmt.Sprintf("%dx%d px", result.Atlas.Width, result.Atlas.Height))
	printKeyValue("Unit", fmt.Sprintf("%d px", result.Atlas.Unit))
	printKeyValue("Efficiency", fmt.Sprintf("%.1f%%", result.Stats.Efficiency*100))
	if opts.SkipVerify {
		printWarning("Overlap check skipped")
	}
	printNewline()
	printNextStep("Write outputs", appName+" pack "+opts.SpecPath)
	return nil
}

// placementTable renders the sprites of a in listing order.
func placementTable(a *atlas.Atlas) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("SPRITE", "X", "Y", "W", "H").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return StyleTitle.Padding(0, 1)
			case col == 0:
				return StyleValue.Padding(0, 1)
			}
			return StyleNumber.Padding(0, 1).Align(lipgloss.Right)
		})
	for _, s := range a.Sprites {
		t.Row(s.Name, strconv.Itoa(s.X), strconv.Itoa(s.Y), strconv.Itoa(s.W), strconv.Itoa(s.H))
	}
	return t.String()
}
