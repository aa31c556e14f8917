package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixelate/internal/apperr"
	"pixelate/internal/intake"
	"pixelate/internal/model"
	"pixelate/internal/orchestrator"
	"pixelate/internal/palette"
	"pixelate/internal/uistate"
)

// Downloader saves a processed image.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Deps wires the components the screen drives. Status must be the surface
// UI was built with.
type Deps struct {
	Intake       *intake.Intake
	Palettes     *palette.Directory
	Orchestrator *orchestrator.Orchestrator
	UI           *uistate.Controller
	Status       *StatusPane
	Downloader   Downloader
	Options      model.ProcessingOptions
	// InitialPath is opened on start when set.
	InitialPath   string
	StripMetadata bool
	Logger        *slog.Logger
}

type field int

const (
	fieldPalette field = iota
	fieldMode
	fieldResolution
	fieldUpscale
	fieldCount
)

type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogFile
	dialogPalette
)

type downloadedMsg struct {
	path  string
	bytes int64
	err   error
}

// App is the interactive converter screen.
type App struct {
	deps   Deps
	keys   KeyMap
	help   help.Model
	spin   spinner.Model
	input  textinput.Model
	logger *slog.Logger

	dialog      dialogKind
	dialogToken uint64

	focus       field
	modes       []model.QuantizationMode
	resolutions []int
	upscales    []int
	modeIdx     int
	resIdx      int
	upIdx       int

	notice   string
	width    int
	quitting bool
}

func NewApp(deps Deps) App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	in := textinput.New()
	in.CharLimit = 1024
	in.Width = 60

	a := App{
		deps:        deps,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spin:        spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(focusStyle)),
		input:       in,
		logger:      logger,
		modes:       model.QuantizationModes(),
		resolutions: withValue(model.ResolutionPresets, deps.Options.MaxResolution),
		upscales:    withValue(model.UpscaleFactors, deps.Options.UpscaleFactor),
	}
	a.modeIdx = max(slices.Index(a.modes, deps.Options.Mode), 0)
	a.resIdx = max(slices.Index(a.resolutions, deps.Options.MaxResolution), 0)
	a.upIdx = max(slices.Index(a.upscales, deps.Options.UpscaleFactor), 0)
	return a
}

// withValue returns presets plus v in ascending order.
func withValue(presets []int, v int) []int {
	out := slices.Clone(presets)
	if v > 0 && !slices.Contains(out, v) {
		out = append(out, v)
		slices.Sort(out)
	}
	return out
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.deps.Palettes.Refresh()}
	if a.deps.InitialPath != "" {
		cmds = append(cmds, a.openPath(a.deps.InitialPath))
	}
	return tea.Batch(cmds...)
}

// CurrentFile, PaletteID and Options make App the orchestrator's view of the
// user's selections. Options are read from the pickers on every call.
func (a App) CurrentFile() (model.SelectedFile, bool) {
	return a.deps.Intake.CurrentFile()
}

func (a App) PaletteID() string {
	return a.deps.Palettes.SelectedID()
}

func (a App) Options() model.ProcessingOptions {
	return model.ProcessingOptions{
		Mode:          a.modes[a.modeIdx],
		MaxResolution: a.resolutions[a.resIdx],
		UpscaleFactor: a.upscales[a.upIdx],
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil
	case tea.KeyMsg:
		if a.dialog != dialogNone {
			return a.updateDialog(msg)
		}
		return a.updateKeys(msg)

	case intake.PreviewReadyMsg:
		a.deps.Intake.ApplyPreview(msg)
		return a, nil

	case palette.ListMsg:
		cmd, err := a.deps.Palettes.ApplyList(msg)
		a.report(err)
		return a, cmd
	case palette.SwatchesMsg:
		a.deps.Palettes.ApplySwatches(msg)
		return a, nil
	case palette.ImportedMsg:
		cmd, err := a.deps.Palettes.ApplyImport(msg)
		a.report(err)
		if err == nil && cmd != nil {
			a.focus = fieldPalette
		}
		return a, cmd

	case orchestrator.ResultMsg:
		return a, a.deps.Orchestrator.Resolve(msg)
	case orchestrator.FallbackHideMsg:
		a.deps.Orchestrator.FallbackHide(msg)
		return a, nil

	case palette.DirImportedMsg:
		cmd, err := a.deps.Palettes.ApplyDirImport(msg)
		if cmd == nil {
			return a, nil
		}
		a.report(err)
		a.notice = fmt.Sprintf("Imported %d of %d palettes from %s", msg.Summary.Imported, msg.Summary.Total-msg.Summary.Skipped, msg.Dir)
		return a, cmd

	case downloadedMsg:
		if msg.err != nil {
			a.report(msg.err)
			return a, nil
		}
		a.notice = fmt.Sprintf("Saved %s (%s)", msg.path, formatBytes(int(msg.bytes)))
		return a, nil

	case spinner.TickMsg:
		if !a.deps.UI.Busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return a, tea.Quit

	case key.Matches(msg, a.keys.OpenFile):
		return a.openDialog(dialogFile)
	case key.Matches(msg, a.keys.ImportPalette):
		if a.deps.Palettes.Importing() {
			return a, nil
		}
		return a.openDialog(dialogPalette)

	case key.Matches(msg, a.keys.Submit):
		a.notice = ""
		cmd, err := a.deps.Orchestrator.Submit(a)
		if err != nil || cmd == nil {
			return a, nil
		}
		a.deps.UI.DismissError()
		return a, tea.Batch(cmd, a.spin.Tick)
	case key.Matches(msg, a.keys.Cancel):
		a.deps.Orchestrator.Cancel()
		return a, nil

	case key.Matches(msg, a.keys.Next):
		a.focus = (a.focus + 1) % fieldCount
		return a, nil
	case key.Matches(msg, a.keys.Prev):
		a.focus = (a.focus + fieldCount - 1) % fieldCount
		return a, nil
	case key.Matches(msg, a.keys.Increase):
		return a, a.step(1)
	case key.Matches(msg, a.keys.Decrease):
		return a, a.step(-1)

	case key.Matches(msg, a.keys.Refresh):
		return a, a.deps.Palettes.Refresh()
	case key.Matches(msg, a.keys.Download):
		return a, a.download()
	case key.Matches(msg, a.keys.Dismiss):
		a.deps.UI.DismissError()
		return a, nil
	}
	return a, nil
}

func (a *App) step(delta int) tea.Cmd {
	wrap := func(i, n int) int { return ((i+delta)%n + n) % n }
	switch a.focus {
	case fieldPalette:
		return a.deps.Palettes.Step(delta)
	case fieldMode:
		a.modeIdx = wrap(a.modeIdx, len(a.modes))
	case fieldResolution:
		a.resIdx = wrap(a.resIdx, len(a.resolutions))
	case fieldUpscale:
		a.upIdx = wrap(a.upIdx, len(a.upscales))
	}
	return nil
}

// openDialog shows the path prompt. A dialog that is already up keeps its
// token and a second open does nothing.
func (a App) openDialog(kind dialogKind) (tea.Model, tea.Cmd) {
	var (
		token uint64
		ok    bool
	)
	switch kind {
	case dialogFile:
		token, ok = a.deps.Intake.OpenDialog()
		a.input.Placeholder = "path to an image"
		a.input.Prompt = "Image: "
	case dialogPalette:
		token, ok = a.deps.Palettes.OpenImportDialog()
		a.input.Placeholder = "path to a .hex or .txt palette, or a directory"
		a.input.Prompt = "Palette: "
	}
	if !ok {
		return a, nil
	}
	a.dialog, a.dialogToken = kind, token
	a.input.SetValue("")
	return a, a.input.Focus()
}

func (a App) closeDialog() App {
	switch a.dialog {
	case dialogFile:
		a.deps.Intake.CloseDialog(a.dialogToken)
	case dialogPalette:
		a.deps.Palettes.CloseImportDialog(a.dialogToken)
	}
	a.dialog, a.dialogToken = dialogNone, 0
	a.input.Blur()
	return a
}

func (a App) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return a.closeDialog(), nil
	case tea.KeyCtrlC:
		a.quitting = true
		return a.closeDialog(), tea.Quit
	case tea.KeyEnter:
		value := expandHome(strings.TrimSpace(a.input.Value()))
		kind := a.dialog
		a = a.closeDialog()
		if value == "" {
			return a, nil
		}
		if kind == dialogFile {
			return a, a.openPath(value)
		}
		return a, a.importPalette(value)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) openPath(p string) tea.Cmd {
	file, err := intake.Open(p)
	if err != nil {
		a.deps.Intake.Clear()
		a.report(err)
		return nil
	}
	cmd, err := a.deps.Intake.Select(file)
	a.report(err)
	return cmd
}

func (a App) importPalette(p string) tea.Cmd {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return a.deps.Palettes.ImportDir(p, palette.BatchOptions{Validate: true})
	}
	data, err := os.ReadFile(p)
	if err != nil {
		a.report(apperr.Wrap(apperr.KindValidation, "tui.import", fmt.Sprintf("Cannot read %s.", p), err))
		return nil
	}
	cmd, err := a.deps.Palettes.ImportPalette(filepath.Base(p), data)
	a.report(err)
	return cmd
}

func (a App) download() tea.Cmd {
	st := a.deps.Orchestrator.State()
	if st.Phase != model.PhaseSucceeded || a.deps.Downloader == nil {
		return nil
	}
	dl, url := a.deps.Downloader, st.ResultURL
	target := "pixelated-" + path.Base(url)
	return func() tea.Msg {
		f, err := os.Create(target)
		if err != nil {
			return downloadedMsg{err: err}
		}
		n, err := dl.Download(context.Background(), url, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return downloadedMsg{path: target, bytes: n, err: err}
	}
}

// report routes err to the error surface.
func (a App) report(err error) {
	if err == nil {
		return
	}
	a.logger.Debug("reporting error", "error", err)
	a.deps.UI.ReportError(apperr.UserMessage(err))
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func (a App) View() string {
	if a.quitting {
		return ""
	}

	sections := []string{titleStyle.Render("pixelate")}
	sections = append(sections, a.viewFile())
	sections = append(sections, a.viewOptions())
	sections = append(sections, a.viewStatus())
	if a.notice != "" {
		sections = append(sections, dimStyle.Render(a.notice))
	}
	if msg := a.deps.Status.Error(); msg != "" {
		sections = append(sections, errorStyle.Render(msg)+"  "+dimStyle.Render("x to dismiss"))
	}
	if a.dialog != dialogNone {
		sections = append(sections, dialogStyle.Render(a.input.View()))
	}
	sections = append(sections, a.help.View(a.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (a App) viewFile() string {
	p := a.deps.Intake.Preview()
	if p.Empty() {
		return dimStyle.Render("No image selected. Press o to open one.")
	}

	header := labelStyle.Render("Image: ") + valueStyle.Render(p.FileName) +
		dimStyle.Render(fmt.Sprintf("  %s  %s", p.MediaType, formatBytes(p.Size)))
	if p.Width > 0 {
		header += dimStyle.Render(fmt.Sprintf("  %dx%d", p.Width, p.Height))
	}

	lines := []string{header}
	switch {
	case p.Pending:
		lines = append(lines, dimStyle.Render("Reading image..."))
	case p.Err != nil:
		lines = append(lines, warnStyle.Render("Preview unavailable."))
	default:
		lines = append(lines, renderThumbnail(p.Thumbnail))
	}
	if len(p.Metadata) > 0 {
		note := "Metadata that will be uploaded:"
		if a.deps.StripMetadata {
			note = "Metadata (removed before upload):"
		}
		lines = append(lines, warnStyle.Render(note))
		for _, m := range p.Metadata {
			lines = append(lines, dimStyle.Render("  "+m))
		}
	}
	return strings.Join(lines, "\n")
}

func (a App) viewOptions() string {
	row := func(f field, label, value string) string {
		marker, style := "  ", labelStyle
		if a.focus == f {
			marker, style = "> ", focusStyle
		}
		return style.Render(marker+label+": ") + valueStyle.Render(value)
	}

	paletteName := "none"
	if sel, ok := a.deps.Palettes.Selected(); ok {
		paletteName = sel.Name
	}
	opts := a.Options()
	width := a.width
	if width <= 0 {
		width = 64
	}

	return strings.Join([]string{
		row(fieldPalette, "Palette", paletteName),
		"    " + renderSwatches(a.deps.Palettes.Swatches(), width-4),
		row(fieldMode, "Mode", opts.Mode.Label()) + dimStyle.Render("  "+opts.Mode.Description()),
		row(fieldResolution, "Max resolution", fmt.Sprintf("%dpx", opts.MaxResolution)),
		row(fieldUpscale, "Upscale", fmt.Sprintf("%dx", opts.UpscaleFactor)),
	}, "\n")
}

func (a App) viewStatus() string {
	st := a.deps.Orchestrator.State()
	text := orchestrator.Describe(st)
	switch {
	case a.deps.Status.Busy():
		return a.spin.View() + " " + labelStyle.Render(text) + dimStyle.Render("  esc to cancel")
	case st.Phase == model.PhaseSucceeded:
		return successStyle.Render(text) + dimStyle.Render("  d to save")
	case st.Phase == model.PhaseFailed:
		return warnStyle.Render(text)
	default:
		return dimStyle.Render(text)
	}
}
