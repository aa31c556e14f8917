package tui

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixelate/internal/model"
	"pixelate/internal/palette"
)

// renderThumbnail draws img with half blocks, two pixel rows per line.
func renderThumbnail(img image.Image) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := hexOf(img.At(x, y))
			cell := lipgloss.NewStyle().Foreground(lipgloss.Color(top))
			if y+1 < b.Max.Y {
				cell = cell.Background(lipgloss.Color(hexOf(img.At(x, y+1))))
			}
			sb.WriteString(cell.Render("▀"))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexOf(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// renderSwatches draws the swatch panel, wrapping at width cells.
func renderSwatches(s palette.Swatches, width int) string {
	switch s.Status {
	case palette.SwatchLoading:
		return dimStyle.Render("Loading palette...")
	case palette.SwatchFailed:
		return warnStyle.Render(s.Message)
	case palette.SwatchReady:
	default:
		return dimStyle.Render("No palette selected.")
	}
	if len(s.Colors) == 0 {
		return dimStyle.Render("Palette is empty.")
	}

	perLine := max(width/2, 1)
	var lines []string
	var sb strings.Builder
	for i, c := range s.Colors {
		if i > 0 && i%perLine == 0 {
			lines = append(lines, sb.String())
			sb.Reset()
		}
		sb.WriteString(swatch(c))
	}
	lines = append(lines, sb.String())
	return strings.Join(lines, "\n") + dimStyle.Render(fmt.Sprintf("  %d colors", len(s.Colors)))
}

func swatch(c model.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  ")
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := int64(n) / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
