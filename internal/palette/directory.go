// Package palette keeps the selectable palettes, the swatch panel of the
// selected one and palette imports. Swatch loads are tagged so only the
// latest selection's colors are shown; imports are single-flight.
package palette

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/singleflight"

	"pixelate/internal/apperr"
	"pixelate/internal/flight"
	"pixelate/internal/model"
)

// LoadFailureText is shown in the swatch panel when colors cannot be fetched.
const LoadFailureText = "Failed to load palette."

// Fetcher is the part of the conversion service client the directory uses.
type Fetcher interface {
	Palettes(ctx context.Context) ([]model.PaletteEntry, error)
	Palette(ctx context.Context, id string) ([]model.Color, error)
	ImportPalette(ctx context.Context, name, fileName string, data []byte) (model.PaletteEntry, error)
}

type SwatchStatus int

const (
	SwatchEmpty SwatchStatus = iota
	SwatchLoading
	SwatchReady
	SwatchFailed
)

// Swatches is the content of the swatch panel.
type Swatches struct {
	PaletteID string
	Status    SwatchStatus
	Colors    []model.Color
	Message   string
}

type ListMsg struct {
	Entries []model.PaletteEntry
	Err     error
}

type SwatchesMsg struct {
	Seq       uint64
	PaletteID string
	Colors    []model.Color
	Err       error
}

type ImportedMsg struct {
	Token    uint64
	FileName string
	Entry    model.PaletteEntry
	Err      error
}

// DirImportedMsg ends a directory import started by Directory.ImportDir.
type DirImportedMsg struct {
	Token   uint64
	Dir     string
	Summary BatchSummary
	Err     error
}

type Option func(*Directory)

// WithDefault selects id after a refresh when it is listed.
func WithDefault(id string) Option {
	return func(d *Directory) { d.defaultID = id }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// WithContext sets the context the directory's network commands run under.
func WithContext(ctx context.Context) Option {
	return func(d *Directory) { d.ctx = ctx }
}

type Directory struct {
	fetcher   Fetcher
	entries   []model.PaletteEntry
	selected  string
	defaultID string

	swatches  Swatches
	swatchSeq flight.Sequence
	group     singleflight.Group

	importing flight.Guard
	dialog    flight.Guard

	ctx    context.Context
	logger *slog.Logger
}

func New(fetcher Fetcher, opts ...Option) *Directory {
	d := &Directory{
		fetcher: fetcher,
		ctx:     context.Background(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Refresh lists the palettes the service offers.
func (d *Directory) Refresh() tea.Cmd {
	ctx, fetcher := d.ctx, d.fetcher
	return func() tea.Msg {
		entries, err := fetcher.Palettes(ctx)
		return ListMsg{Entries: entries, Err: err}
	}
}

// ApplyList replaces the selectable set. The previous selection survives if
// still listed, otherwise the configured default or the first entry is
// selected and its swatches are loaded.
func (d *Directory) ApplyList(msg ListMsg) (tea.Cmd, error) {
	if msg.Err != nil {
		d.logger.Warn("palette list failed", "error", msg.Err)
		return nil, apperr.Wrap(apperr.KindPaletteLoad, "palette.refresh", "Could not list palettes.", msg.Err)
	}
	d.entries = slices.Clone(msg.Entries)
	d.logger.Debug("palettes listed", "count", len(d.entries))

	switch {
	case d.indexOf(d.selected) >= 0:
		return nil, nil
	case d.indexOf(d.defaultID) >= 0:
		return d.Select(d.defaultID), nil
	case len(d.entries) > 0:
		return d.Select(d.entries[0].ID), nil
	default:
		d.selected = ""
		d.swatchSeq.Invalidate()
		d.swatches = Swatches{}
		return nil, nil
	}
}

// Select makes id the selected palette and loads its swatches. Unknown ids
// are ignored.
func (d *Directory) Select(id string) tea.Cmd {
	if d.indexOf(id) < 0 {
		return nil
	}
	d.selected = id
	return d.LoadSwatches(id)
}

// Step moves the selection by delta entries, wrapping around.
func (d *Directory) Step(delta int) tea.Cmd {
	if len(d.entries) == 0 {
		return nil
	}
	i := d.indexOf(d.selected)
	if i < 0 {
		i = 0
	} else {
		n := len(d.entries)
		i = ((i+delta)%n + n) % n
	}
	return d.Select(d.entries[i].ID)
}

// LoadSwatches fetches the colors of id. The panel shows a loading state
// until the matching SwatchesMsg is applied. Concurrent loads of one id share
// a single request.
func (d *Directory) LoadSwatches(id string) tea.Cmd {
	seq := d.swatchSeq.Next()
	d.swatches = Swatches{PaletteID: id, Status: SwatchLoading}

	ctx, fetcher, group := d.ctx, d.fetcher, &d.group
	return func() tea.Msg {
		v, err, _ := group.Do(id, func() (interface{}, error) {
			return fetcher.Palette(ctx, id)
		})
		msg := SwatchesMsg{Seq: seq, PaletteID: id, Err: err}
		if colors, ok := v.([]model.Color); ok {
			msg.Colors = colors
		}
		return msg
	}
}

// ApplySwatches installs a finished load. A stale load is dropped. A failed
// load replaces the panel with the failure indicator and is logged; it never
// reaches the error surface.
func (d *Directory) ApplySwatches(msg SwatchesMsg) bool {
	if !d.swatchSeq.IsCurrent(msg.Seq) {
		d.logger.Debug("discarding stale swatches", "palette", msg.PaletteID, "seq", msg.Seq)
		return false
	}
	if msg.Err != nil {
		d.logger.Warn("palette load failed", "palette", msg.PaletteID, "error", msg.Err)
		d.swatches = Swatches{PaletteID: msg.PaletteID, Status: SwatchFailed, Message: LoadFailureText}
		return true
	}
	d.swatches = Swatches{
		PaletteID: msg.PaletteID,
		Status:    SwatchReady,
		Colors:    slices.Clone(msg.Colors),
	}
	return true
}

// OpenImportDialog reserves the palette file dialog.
func (d *Directory) OpenImportDialog() (uint64, bool) {
	return d.dialog.Acquire()
}

func (d *Directory) CloseImportDialog(token uint64) {
	d.dialog.Release(token)
}

// ImportPalette uploads a palette file under its default name. Unsupported
// extensions fail before any network call. While an import is in flight a
// second call does nothing and returns (nil, nil).
func (d *Directory) ImportPalette(fileName string, data []byte) (tea.Cmd, error) {
	const op = "palette.import"

	if d.importing.Held() {
		d.logger.Debug("palette import already in flight", "file", fileName)
		return nil, nil
	}
	if !Importable(fileName) {
		return nil, apperr.Wrap(apperr.KindValidation, op, "Palette files must be .hex or .txt.", apperr.ErrInvalidPaletteFormat)
	}
	token, _ := d.importing.Acquire()
	name := DefaultName(fileName)
	d.logger.Info("importing palette", "file", fileName, "name", name)

	ctx, fetcher := d.ctx, d.fetcher
	return func() tea.Msg {
		entry, err := fetcher.ImportPalette(ctx, name, fileName, data)
		return ImportedMsg{Token: token, FileName: fileName, Entry: entry, Err: err}
	}, nil
}

// ApplyImport finishes an import. On success the palette is appended under a
// name no existing entry uses, selected, and its swatches are loaded.
func (d *Directory) ApplyImport(msg ImportedMsg) (tea.Cmd, error) {
	if !d.importing.Release(msg.Token) {
		return nil, nil
	}
	if msg.Err != nil {
		d.logger.Warn("palette import failed", "file", msg.FileName, "error", msg.Err)
		return nil, apperr.Wrap(apperr.KindPaletteImport, "palette.import", "Failed to import palette.", msg.Err)
	}

	entry := msg.Entry
	if i := d.indexOf(entry.ID); i >= 0 {
		d.entries[i] = entry
	} else {
		entry.Name = d.uniqueName(entry.Name)
		d.entries = append(d.entries, entry)
	}
	d.logger.Info("palette imported", "id", entry.ID, "name", entry.Name)
	return d.Select(entry.ID), nil
}

// ImportDir uploads every palette file under dir. It holds the same guard as
// ImportPalette, so while either is in flight both return nil.
func (d *Directory) ImportDir(dir string, opts BatchOptions) tea.Cmd {
	token, ok := d.importing.Acquire()
	if !ok {
		d.logger.Debug("palette import already in flight", "dir", dir)
		return nil
	}
	d.logger.Info("importing palette directory", "dir", dir)

	ctx, fetcher, logger := d.ctx, d.fetcher, d.logger
	return func() tea.Msg {
		summary, _, err := ImportDir(ctx, fetcher, dir, opts, nil)
		logger.Info("palette directory imported", "dir", dir, "imported", summary.Imported, "errors", summary.Errors)
		return DirImportedMsg{Token: token, Dir: dir, Summary: summary, Err: err}
	}
}

// ApplyDirImport releases the import guard and relists the palettes so the
// new entries become selectable. Messages from a stale token are ignored.
func (d *Directory) ApplyDirImport(msg DirImportedMsg) (tea.Cmd, error) {
	if !d.importing.Release(msg.Token) {
		return nil, nil
	}
	if msg.Err != nil {
		d.logger.Warn("palette directory import failed", "dir", msg.Dir, "error", msg.Err)
		return d.Refresh(), apperr.Wrap(apperr.KindPaletteImport, "palette.import_dir", fmt.Sprintf("Importing %s failed.", msg.Dir), msg.Err)
	}
	return d.Refresh(), nil
}

func (d *Directory) Importing() bool {
	return d.importing.Held()
}

func (d *Directory) Entries() []model.PaletteEntry {
	return slices.Clone(d.entries)
}

// Selected returns the selected entry.
func (d *Directory) Selected() (model.PaletteEntry, bool) {
	if i := d.indexOf(d.selected); i >= 0 {
		return d.entries[i], true
	}
	return model.PaletteEntry{}, false
}

func (d *Directory) SelectedID() string {
	if _, ok := d.Selected(); !ok {
		return ""
	}
	return d.selected
}

func (d *Directory) Swatches() Swatches {
	return d.swatches
}

func (d *Directory) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range d.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (d *Directory) uniqueName(name string) string {
	taken := func(candidate string) bool {
		for _, e := range d.entries {
			if e.Name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
