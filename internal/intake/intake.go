// Package intake owns the currently selected image: it validates candidates,
// keeps exactly one current file and produces its preview asynchronously.
// Preview reads are tagged so a slow read for an older selection can never
// replace the preview of a newer one.
package intake

import (
	"fmt"
	"image"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"pixelate/internal/apperr"
	"pixelate/internal/flight"
	"pixelate/internal/model"
)

// Preview is what the UI shows for the current file. Pending is true between
// selection and the completion of its read.
type Preview struct {
	Seq       uint64
	FileName  string
	MediaType string
	Size      int
	Pending   bool
	Width     int
	Height    int
	Thumbnail image.Image
	Metadata  []string
	Err       error
}

// Empty reports whether no file is being previewed.
func (p Preview) Empty() bool {
	return p.Seq == 0 && p.FileName == ""
}

// PreviewReadyMsg carries a finished read back to the event loop.
type PreviewReadyMsg struct {
	Seq     uint64
	Preview Preview
}

// Renderer turns a file into a preview. It runs off the event loop and must
// not touch Intake state.
type Renderer func(file model.SelectedFile, maxWidth, maxHeight int) (Preview, error)

type Option func(*Intake)

func WithRenderer(r Renderer) Option {
	return func(in *Intake) { in.render = r }
}

// WithMaxFileSize rejects files above n bytes; zero disables the limit.
func WithMaxFileSize(n int64) Option {
	return func(in *Intake) { in.maxFileSize = n }
}

func WithThumbnailSize(w, h int) Option {
	return func(in *Intake) { in.thumbW, in.thumbH = w, h }
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Intake) { in.logger = l }
}

type Intake struct {
	current       *model.SelectedFile
	preview       Preview
	seq           flight.Sequence
	dialog        flight.Guard
	submitEnabled bool

	render      Renderer
	maxFileSize int64
	thumbW      int
	thumbH      int
	logger      *slog.Logger
}

func New(opts ...Option) *Intake {
	in := &Intake{
		render: RenderPreview,
		thumbW: 48,
		thumbH: 32,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Select makes file the current selection. A non-image file clears any prior
// selection and disables submit. Selecting the file that is already current
// changes nothing. On acceptance the preview is replaced immediately by a
// pending one and the returned command performs the read.
func (in *Intake) Select(file model.SelectedFile) (tea.Cmd, error) {
	const op = "intake.select"

	if !file.IsImage() {
		in.Clear()
		in.logger.Info("rejected non-image file", "name", file.Name, "media_type", file.MediaType)
		return nil, apperr.Wrap(apperr.KindValidation, op, "Please select an image file.", apperr.ErrInvalidFileType)
	}
	if in.maxFileSize > 0 && int64(file.Size()) > in.maxFileSize {
		in.Clear()
		in.logger.Info("rejected oversized file", "name", file.Name, "size", file.Size(), "limit", in.maxFileSize)
		msg := fmt.Sprintf("%s is larger than the %d MB upload limit.", file.Name, in.maxFileSize/(1024*1024))
		return nil, apperr.Wrap(apperr.KindValidation, op, msg, apperr.ErrFileTooLarge)
	}
	if in.current != nil && in.current.Same(file) {
		return nil, nil
	}

	seq := in.seq.Next()
	selected := file
	in.current = &selected
	in.submitEnabled = true
	in.preview = Preview{
		Seq:       seq,
		FileName:  selected.Name,
		MediaType: selected.MediaType,
		Size:      selected.Size(),
		Pending:   true,
	}
	in.logger.Debug("file selected", "name", selected.Name, "media_type", selected.MediaType, "seq", seq)

	render, w, h := in.render, in.thumbW, in.thumbH
	return func() tea.Msg {
		p, err := render(selected, w, h)
		p.Seq = seq
		p.FileName = selected.Name
		p.MediaType = selected.MediaType
		p.Size = selected.Size()
		p.Pending = false
		p.Err = err
		return PreviewReadyMsg{Seq: seq, Preview: p}
	}, nil
}

// ApplyPreview installs a finished read if it belongs to the current
// selection. Stale reads are dropped and false is returned.
func (in *Intake) ApplyPreview(msg PreviewReadyMsg) bool {
	if in.current == nil || !in.seq.IsCurrent(msg.Seq) {
		in.logger.Debug("discarding stale preview", "seq", msg.Seq, "current", in.seq.Current())
		return false
	}
	if msg.Preview.Err != nil {
		in.logger.Warn("preview failed", "name", msg.Preview.FileName, "error", msg.Preview.Err)
	}
	in.preview = msg.Preview
	return true
}

// Clear drops the selection and its preview and disables submit. Reads still
// in flight are invalidated.
func (in *Intake) Clear() {
	in.seq.Invalidate()
	in.current = nil
	in.preview = Preview{}
	in.submitEnabled = false
}

// CurrentFile returns the current selection.
func (in *Intake) CurrentFile() (model.SelectedFile, bool) {
	if in.current == nil {
		return model.SelectedFile{}, false
	}
	return *in.current, true
}

func (in *Intake) Preview() Preview {
	return in.preview
}

func (in *Intake) SubmitEnabled() bool {
	return in.submitEnabled
}

// OpenDialog reserves the file dialog. It returns false while a dialog is
// already open, in which case the caller must do nothing.
func (in *Intake) OpenDialog() (uint64, bool) {
	return in.dialog.Acquire()
}

// CloseDialog releases the dialog when its change or cancel event fires.
func (in *Intake) CloseDialog(token uint64) {
	in.dialog.Release(token)
}

func (in *Intake) DialogOpen() bool {
	return in.dialog.Held()
}
