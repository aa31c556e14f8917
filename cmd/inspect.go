package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pixelate/internal/intake"
	"pixelate/internal/sanitize"
	"pixelate/internal/tui"
	"pixelate/pkg/imgutil"
)

var inspectPreserveICC bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <image>...",
	Short: "Show what an upload of each image would carry, without sending it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for i, path := range args {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			file, err := intake.Open(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s\n", inspectFileStyle.Render(file.Name))
			printField("Type", file.MediaType)
			printField("Size", fmt.Sprintf("%d bytes", file.Size()))
			if !file.IsImage() {
				printField("Upload", "refused: not an image")
				continue
			}
			if limit := appConfig.Upload.MaxFileSize; limit > 0 && int64(file.Size()) > limit {
				printField("Upload", fmt.Sprintf("refused: larger than %d bytes", limit))
				continue
			}

			preview, err := intake.RenderPreview(file, 0, 0)
			if err != nil {
				printField("Decode", err.Error())
			} else {
				printField("Dimensions", fmt.Sprintf("%dx%d", preview.Width, preview.Height))
			}

			fmt.Fprintf(os.Stdout, "  %s\n", inspectCategoryStyle.Render("Metadata:"))
			if len(preview.Metadata) == 0 {
				fmt.Fprintf(os.Stdout, "    %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render("none"))
			}
			for _, line := range preview.Metadata {
				fmt.Fprintf(os.Stdout, "    %s %s\n", inspectBulletStyle.Render("-"), inspectValueStyle.Render(line))
			}

			kind, _ := imgutil.SniffBytes(file.Data)
			res, err := sanitize.Strip(file.Data, kind, sanitize.Options{PreserveICC: inspectPreserveICC})
			if err != nil {
				printField("Stripping", err.Error())
				continue
			}
			printField("Stripping", fmt.Sprintf("removes %d segments, %d bytes", res.Removed, res.BytesRemoved))
		}
		return nil
	},
}

func printField(label, value string) {
	fmt.Fprintf(os.Stdout, "  %s %s\n", inspectCategoryStyle.Render(label+":"), inspectValueStyle.Render(value))
}

var (
	inspectFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	inspectValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectPreserveICC, "preserve-icc", false, "keep ICC color profiles when estimating stripping")
	rootCmd.AddCommand(inspectCmd)
}
