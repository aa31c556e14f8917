package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pixelate/internal/model"
	"pixelate/internal/palette"
	"pixelate/internal/tui"
)

var (
	paletteListColors bool
	paletteImportName string
	paletteWorkers    int
	paletteNoProgress bool
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "List, show and import palettes",
}

var paletteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the palettes the service offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()
		c := newClient(logger)

		entries, err := c.Palettes(ctx)
		if err != nil {
			return err
		}

		colors := make([][]model.Color, len(entries))
		if paletteListColors {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(8)
			for i, e := range entries {
				g.Go(func() error {
					cs, err := c.Palette(gctx, e.ID)
					if err != nil {
						logger.Warn("palette load failed", "id", e.ID, "error", err)
						return nil
					}
					colors[i] = cs
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
		}

		for i, e := range entries {
			line := fmt.Sprintf("%s  %s", paletteIDStyle.Render(fmt.Sprintf("%4s", e.ID)), paletteNameStyle.Render(e.Name))
			if paletteListColors {
				line += "  " + swatchLine(colors[i])
			}
			fmt.Fprintln(os.Stdout, line)
		}
		return nil
	},
}

var paletteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the colors of a palette",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()

		colors, err := newClient(logger).Palette(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, swatchLine(colors))
		for _, c := range colors {
			fmt.Fprintf(os.Stdout, "%s %s\n", swatch(c), c.Hex())
		}
		return nil
	},
}

var paletteImportCmd = &cobra.Command{
	Use:   "import <file|dir>",
	Short: "Import a .hex/.txt palette file, or every palette file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return importPaletteDir(cmd.Context(), path)
		}
		return importPaletteFile(cmd.Context(), path)
	},
}

func importPaletteFile(ctx context.Context, path string) error {
	logger, closer, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	if !palette.Importable(path) {
		return fmt.Errorf("%s: palette files must be .hex or .txt", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	colors, err := palette.Parse(data)
	if err != nil {
		return err
	}

	name := paletteImportName
	if name == "" {
		name = palette.DefaultName(path)
	}
	entry, err := newClient(logger).ImportPalette(ctx, name, filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Imported %s as %s (id %s)\n%s\n", path, entry.Name, entry.ID, swatchLine(colors))
	return nil
}

func importPaletteDir(ctx context.Context, dir string) error {
	logger, closer, err := newLogger(!paletteNoProgress)
	if err != nil {
		return err
	}
	defer closer.Close()
	c := newClient(logger)

	opts := palette.BatchOptions{Workers: paletteWorkers, Validate: true}

	var (
		summary palette.BatchSummary
		results []palette.BatchResult
	)
	if paletteNoProgress {
		summary, results, err = palette.ImportDir(ctx, c, dir, opts, nil)
	} else {
		updates := make(chan palette.Progress, 64)
		program := tea.NewProgram(tui.NewImportProgress(dir, updates))

		uiDone := make(chan struct{})
		go func() {
			_, _ = program.Run()
			close(uiDone)
		}()

		summary, results, err = palette.ImportDir(ctx, c, dir, opts, updates)
		<-uiDone
	}
	if err != nil {
		return err
	}

	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(os.Stdout, "%s %s: %s\n", paletteFailStyle.Render("x"), res.Path, userMessage(res.Err))
		case !res.Skipped:
			fmt.Fprintf(os.Stdout, "%s %s -> %s (id %s)\n", paletteOKStyle.Render("+"), res.Path, res.Entry.Name, res.Entry.ID)
		}
	}
	fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.BatchRows(summary)))
	return nil
}

func swatch(c model.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  ")
}

func swatchLine(colors []model.Color) string {
	var sb strings.Builder
	for _, c := range colors {
		sb.WriteString(swatch(c))
	}
	return sb.String()
}

var (
	paletteIDStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
	paletteNameStyle = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	paletteOKStyle   = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	paletteFailStyle = lipgloss.NewStyle().Foreground(tui.ColorWarn)
)

func init() {
	paletteListCmd.Flags().BoolVarP(&paletteListColors, "colors", "c", false, "fetch and draw each palette's colors")
	paletteImportCmd.Flags().StringVarP(&paletteImportName, "name", "n", "", "palette name (defaults to the file name)")
	paletteImportCmd.Flags().IntVarP(&paletteWorkers, "workers", "w", 0, "parallel uploads for directory imports")
	paletteImportCmd.Flags().BoolVar(&paletteNoProgress, "no-progress", false, "disable the progress display")

	paletteCmd.AddCommand(paletteListCmd, paletteShowCmd, paletteImportCmd)
	rootCmd.AddCommand(paletteCmd)
}
