package tui

import (
	"fmt"
	"strings"

	"pixelate/internal/model"
	"pixelate/internal/palette"
)

type SummaryRow struct {
	Label string
	Value string
}

// RenderSummary draws rows as a two column table.
func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}
	for _, row := range rows {
		line := fmt.Sprintf("%s | %s", labelStyle.Render(padRight(row.Label, labelWidth)), valueStyle.Render(padRight(row.Value, valueWidth)))
		lines = append(lines, line)
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// ConversionRows summarizes a finished conversion for headless output.
func ConversionRows(req model.ProcessingRequest, state model.ProcessingState) []SummaryRow {
	rows := []SummaryRow{
		{Label: "File", Value: req.File.Name},
		{Label: "Palette", Value: req.PaletteID},
		{Label: "Mode", Value: req.Options.Mode.String()},
		{Label: "Max resolution", Value: fmt.Sprintf("%dpx", req.Options.MaxResolution)},
		{Label: "Upscale", Value: fmt.Sprintf("%dx", req.Options.UpscaleFactor)},
		{Label: "Request ID", Value: req.ID},
		{Label: "Status", Value: state.Phase.String()},
	}
	if state.PaletteName != "" {
		rows[1].Value = fmt.Sprintf("%s (%s)", state.PaletteName, req.PaletteID)
	}
	if state.Phase == model.PhaseSucceeded {
		rows = append(rows, SummaryRow{Label: "Result", Value: state.ResultURL})
	} else if state.Message != "" {
		rows = append(rows, SummaryRow{Label: "Error", Value: state.Message})
	}
	return rows
}

// BatchRows summarizes a bulk palette import.
func BatchRows(summary palette.BatchSummary) []SummaryRow {
	return []SummaryRow{
		{Label: "Files", Value: fmt.Sprintf("%d", summary.Total)},
		{Label: "Imported", Value: fmt.Sprintf("%d", summary.Imported)},
		{Label: "Skipped", Value: fmt.Sprintf("%d", summary.Skipped)},
		{Label: "Errors", Value: fmt.Sprintf("%d", summary.Errors)},
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
