package tui

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"pixelate/internal/client"
	"pixelate/internal/intake"
	"pixelate/internal/model"
	"pixelate/internal/orchestrator"
	"pixelate/internal/palette"
	"pixelate/internal/testutil"
	"pixelate/internal/uistate"
)

type fakeService struct {
	uploads []model.ProcessingRequest
	// responses are answered in order before falling back to success.
	responses []client.UploadResponse
}

func (f *fakeService) Palettes(context.Context) ([]model.PaletteEntry, error) {
	return []model.PaletteEntry{{ID: "1", Name: "pico-8"}, {ID: "2", Name: "gameboy"}}, nil
}

func (f *fakeService) Palette(context.Context, string) ([]model.Color, error) {
	return []model.Color{"000000", "ffffff"}, nil
}

func (f *fakeService) ImportPalette(_ context.Context, name, _ string, _ []byte) (model.PaletteEntry, error) {
	return model.PaletteEntry{ID: "9", Name: name}, nil
}

func (f *fakeService) Upload(_ context.Context, req model.ProcessingRequest) (client.UploadResponse, error) {
	f.uploads = append(f.uploads, req)
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp, nil
	}
	return client.UploadResponse{StatusCode: 200, ProcessedImageURL: "/out/1.png"}, nil
}

func newTestApp(t *testing.T) (App, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	status := NewStatusPane()
	ui := uistate.New(status, nil)
	app := NewApp(Deps{
		Intake:       intake.New(),
		Palettes:     palette.New(svc),
		Orchestrator: orchestrator.New(svc, ui, orchestrator.Config{}),
		UI:           ui,
		Status:       status,
		Options:      model.DefaultOptions(),
	})
	return app, svc
}

// drain runs cmd and feeds every resulting message back into app, skipping
// spinner ticks.
func drain(t *testing.T, app App, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case spinner.TickMsg, nil:
		default:
			m, c := app.Update(msg)
			app = m.(App)
			queue = append(queue, c)
		}
	}
	return app
}

func press(app App, keys string) (App, tea.Cmd) {
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	m, cmd := app.Update(msg)
	return m.(App), cmd
}

func writePNG(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cat.png")
	if err := os.WriteFile(p, testutil.PNG(t, 4, 4, color.White), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConvertFlow(t *testing.T) {
	app, svc := newTestApp(t)
	app.deps.InitialPath = writePNG(t)
	app = drain(t, app, app.Init())

	if _, ok := app.CurrentFile(); !ok {
		t.Fatal("initial image not selected")
	}
	if app.PaletteID() != "1" {
		t.Fatalf("palette %q, want first entry", app.PaletteID())
	}

	app, cmd := press(app, "enter")
	if !app.deps.Status.Busy() {
		t.Fatal("busy indicator not shown after submit")
	}
	app, again := press(app, "enter")
	if again != nil {
		t.Fatal("second submit while in flight produced work")
	}

	app = drain(t, app, cmd)
	if len(svc.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(svc.uploads))
	}
	if app.deps.Status.Busy() {
		t.Fatal("busy indicator still shown")
	}
	if st := app.deps.Orchestrator.State(); st.Phase != model.PhaseSucceeded || st.ResultURL != "/out/1.png" {
		t.Fatalf("unexpected state %+v", st)
	}
	if !strings.Contains(app.View(), "/out/1.png") {
		t.Fatal("result url not rendered")
	}
}

func TestSubmitWithoutImageShowsError(t *testing.T) {
	app, svc := newTestApp(t)
	app = drain(t, app, app.Init())

	app, cmd := press(app, "enter")
	if cmd != nil {
		t.Fatal("submit without image produced work")
	}
	if len(svc.uploads) != 0 {
		t.Fatal("network contacted")
	}
	if app.deps.Status.Error() == "" || !strings.Contains(app.View(), "Please select an image first.") {
		t.Fatalf("error not shown: %q", app.deps.Status.Error())
	}

	app, _ = press(app, "x")
	if app.deps.Status.Error() != "" {
		t.Fatal("dismiss did not clear the error")
	}
}

func TestFileDialog(t *testing.T) {
	app, _ := newTestApp(t)
	path := writePNG(t)

	app, _ = press(app, "o")
	if !app.deps.Intake.DialogOpen() {
		t.Fatal("dialog not open")
	}
	// While the dialog is up keys are typed into it.
	for _, r := range path {
		app, _ = press(app, string(r))
	}
	app, cmd := press(app, "enter")
	if app.deps.Intake.DialogOpen() {
		t.Fatal("dialog token not released")
	}
	if !app.deps.Intake.Preview().Pending {
		t.Fatal("selection did not show a pending preview")
	}
	app = drain(t, app, cmd)
	if app.deps.Intake.Preview().Thumbnail == nil {
		t.Fatal("thumbnail missing")
	}

	app, _ = press(app, "o")
	app, _ = press(app, "esc")
	if app.deps.Intake.DialogOpen() {
		t.Fatal("cancel did not release the dialog")
	}
}

func TestPaletteImportDialog(t *testing.T) {
	app, _ := newTestApp(t)
	app = drain(t, app, app.Init())

	p := filepath.Join(t.TempDir(), "reds.hex")
	if err := os.WriteFile(p, []byte("ff0000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	app, _ = press(app, "i")
	app.input.SetValue(p)
	app, cmd := press(app, "enter")
	app = drain(t, app, cmd)

	sel, ok := app.deps.Palettes.Selected()
	if !ok || sel.Name != "reds" {
		t.Fatalf("imported palette not selected: %+v", sel)
	}
	if app.deps.Palettes.Swatches().Status != palette.SwatchReady {
		t.Fatal("swatches not loaded after import")
	}
}

func TestPaletteDirectoryImportIsSingleFlight(t *testing.T) {
	app, _ := newTestApp(t)
	app = drain(t, app, app.Init())

	dir := t.TempDir()
	for _, name := range []string{"reds.hex", "blues.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("ff0000\n0000ff\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	app, _ = press(app, "i")
	app.input.SetValue(dir)
	app, first := press(app, "enter")
	if first == nil {
		t.Fatal("directory import produced no work")
	}
	if !app.deps.Palettes.Importing() {
		t.Fatal("directory import did not hold the import guard")
	}

	app, cmd := press(app, "i")
	if cmd != nil || app.dialog != dialogNone {
		t.Fatal("import dialog reopened while a directory import is in flight")
	}
	if again := app.importPalette(dir); again != nil {
		t.Fatal("second directory import dispatched while the first is in flight")
	}
	if again, err := app.deps.Palettes.ImportPalette("greens.hex", []byte("00ff00\n")); again != nil || err != nil {
		t.Fatalf("single file import dispatched during a directory import: cmd=%v err=%v", again != nil, err)
	}

	app = drain(t, app, first)
	if app.deps.Palettes.Importing() {
		t.Fatal("import guard not released after the directory import finished")
	}
	if !strings.Contains(app.notice, "Imported 2 of 2") {
		t.Fatalf("notice %q", app.notice)
	}

	app, _ = press(app, "i")
	if app.dialog != dialogPalette {
		t.Fatal("import dialog unavailable after the directory import finished")
	}
}

func TestNewSubmissionClearsPreviousError(t *testing.T) {
	app, svc := newTestApp(t)
	svc.responses = []client.UploadResponse{{StatusCode: 200, Error: "unsupported mode"}}
	app.deps.InitialPath = writePNG(t)
	app = drain(t, app, app.Init())

	app, cmd := press(app, "enter")
	app = drain(t, app, cmd)
	if got := app.deps.Status.Error(); got != "unsupported mode" {
		t.Fatalf("error %q, want the service message", got)
	}

	app, cmd = press(app, "enter")
	if cmd == nil {
		t.Fatal("resubmit produced no work")
	}
	if got := app.deps.Status.Error(); got != "" {
		t.Fatalf("stale error %q still shown after a new submission", got)
	}
	app = drain(t, app, cmd)
	if st := app.deps.Orchestrator.State(); st.Phase != model.PhaseSucceeded {
		t.Fatalf("unexpected state %+v", st)
	}
	if strings.Contains(app.View(), "unsupported mode") {
		t.Fatal("stale error rendered next to the new result")
	}
}

func TestRejectedPathClearsSelection(t *testing.T) {
	app, _ := newTestApp(t)
	app.deps.InitialPath = writePNG(t)
	app = drain(t, app, app.Init())
	if !app.deps.Intake.SubmitEnabled() {
		t.Fatal("submit not enabled for a selected image")
	}

	app, _ = press(app, "o")
	app.input.SetValue(t.TempDir())
	app, cmd := press(app, "enter")
	if cmd != nil {
		t.Fatal("directory selection produced work")
	}
	if _, ok := app.CurrentFile(); ok {
		t.Fatal("previous image still selected after a rejected path")
	}
	if app.deps.Intake.SubmitEnabled() {
		t.Fatal("submit still enabled after a rejected path")
	}
	if app.deps.Status.Error() == "" {
		t.Fatal("rejected path not reported")
	}
}

func TestOptionPickers(t *testing.T) {
	app, _ := newTestApp(t)

	app, _ = press(app, "tab")
	app, _ = press(app, "right")
	if got := app.Options().Mode; got != model.ModeNatural {
		t.Fatalf("mode %s, want natural", got)
	}
	app, _ = press(app, "tab")
	app, _ = press(app, "right")
	if got := app.Options().MaxResolution; got != 512 {
		t.Fatalf("resolution %d, want 512", got)
	}
	app, _ = press(app, "tab")
	app, _ = press(app, "right")
	if got := app.Options().UpscaleFactor; got != 2 {
		t.Fatalf("upscale %d, want 2", got)
	}
}

func TestWithValueKeepsCustomSetting(t *testing.T) {
	got := withValue([]int{64, 128, 256}, 200)
	want := []int{64, 128, 200, 256}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRenderThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 4))
	out := renderThumbnail(img)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if strings.Count(lines[0], "▀") != 3 {
		t.Fatalf("expected 3 cells in %q", lines[0])
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary([]SummaryRow{{Label: "File", Value: "cat.png"}, {Label: "Status", Value: "Succeeded"}})
	if !strings.Contains(out, "File") || !strings.Contains(out, "Succeeded") {
		t.Fatalf("summary missing rows:\n%s", out)
	}
	if strings.Count(out, "\n") != 3 {
		t.Fatalf("expected 4 lines:\n%s", out)
	}
}
