// Package orchestrator turns the user's selections into exactly one
// conversion request per submission and folds the asynchronous outcome back
// into a single ProcessingState.
//
// All methods run on the UI event loop. The network call itself runs inside
// the tea.Cmd returned by Submit and re-enters the loop as a ResultMsg; every
// message carries the sequence number of the submission that produced it so
// results that arrive after a cancel or a newer submission are dropped.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"pixelate/internal/apperr"
	"pixelate/internal/client"
	"pixelate/internal/flight"
	"pixelate/internal/model"
	"pixelate/internal/sanitize"
	"pixelate/pkg/imgutil"
)

// Uploader sends one conversion request.
type Uploader interface {
	Upload(ctx context.Context, req model.ProcessingRequest) (client.UploadResponse, error)
}

// UI is the busy indicator and error surface the orchestrator drives.
type UI interface {
	EnterBusy()
	ExitBusy()
	ReportError(message string)
}

// Selections is read once per submission.
type Selections interface {
	CurrentFile() (model.SelectedFile, bool)
	PaletteID() string
	Options() model.ProcessingOptions
}

type Config struct {
	// RequestTimeout bounds each upload; zero waits indefinitely.
	RequestTimeout time.Duration
	// BusyFallback delays a second, idempotent busy hide after each outcome;
	// zero disables it.
	BusyFallback  time.Duration
	StripMetadata bool
	PreserveICC   bool
}

// ResultMsg is the outcome of one upload.
type ResultMsg struct {
	Seq       uint64
	RequestID string
	Response  client.UploadResponse
	Err       error
}

// FallbackHideMsg fires BusyFallback after an outcome.
type FallbackHideMsg struct {
	Seq uint64
}

// TransitionFunc observes state changes.
type TransitionFunc func(from, to model.ProcessingState)

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithContext sets the parent context of every upload.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) { o.ctx = ctx }
}

func WithTransitionHook(fn TransitionFunc) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// WithIDGenerator replaces the request id source.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

type Orchestrator struct {
	uploader Uploader
	ui       UI
	cfg      Config

	state  model.ProcessingState
	seq    flight.Sequence
	issued model.ProcessingRequest

	ctx          context.Context
	logger       *slog.Logger
	onTransition TransitionFunc
	newID        func() string
}

func New(uploader Uploader, ui UI, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader: uploader,
		ui:       ui,
		cfg:      cfg,
		state:    model.ProcessingState{Phase: model.PhaseIdle},
		ctx:      context.Background(),
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a copy of the current state.
func (o *Orchestrator) State() model.ProcessingState {
	return o.state
}

// Issued returns the most recently issued request.
func (o *Orchestrator) Issued() (model.ProcessingRequest, bool) {
	return o.issued, o.issued.Seq != 0
}

// Submit starts a new cycle from sel. While a request is in flight it does
// nothing and returns (nil, nil). Validation failures are reported to the UI
// and returned without touching the network or the state.
func (o *Orchestrator) Submit(sel Selections) (tea.Cmd, error) {
	if o.state.Phase.InFlight() {
		o.logger.Debug("submit ignored while in flight", "seq", o.state.Seq)
		return nil, nil
	}

	req, err := o.assemble(sel)
	if err != nil {
		o.ui.ReportError(apperr.UserMessage(err))
		o.logger.Info("submit rejected", "error", err)
		return nil, err
	}

	o.transition(model.ProcessingState{Phase: model.PhaseSubmitting, Seq: req.Seq})
	o.ui.EnterBusy()
	o.issued = req
	o.logger.Info("submitting",
		"seq", req.Seq,
		"request_id", req.ID,
		"file", req.File.Name,
		"palette", req.PaletteID,
		"mode", req.Options.Mode,
		"max_resolution", req.Options.MaxResolution,
		"upscale_factor", req.Options.UpscaleFactor,
	)

	cmd := o.dispatch(req)
	o.transition(model.ProcessingState{Phase: model.PhaseAwaitingResult, Seq: req.Seq})
	return cmd, nil
}

func (o *Orchestrator) assemble(sel Selections) (model.ProcessingRequest, error) {
	const op = "orchestrator.assemble"

	file, ok := sel.CurrentFile()
	if !ok {
		return model.ProcessingRequest{}, apperr.Wrap(apperr.KindValidation, op, "Please select an image first.", apperr.ErrNoFileSelected)
	}
	paletteID := sel.PaletteID()
	if paletteID == "" {
		return model.ProcessingRequest{}, apperr.Wrap(apperr.KindValidation, op, "Please select a palette first.", apperr.ErrNoPaletteSelected)
	}
	opts := sel.Options()
	if err := opts.Validate(); err != nil {
		return model.ProcessingRequest{}, apperr.Wrap(apperr.KindValidation, op, err.Error(), fmt.Errorf("%w: %v", apperr.ErrInvalidOptions, err))
	}

	return model.ProcessingRequest{
		Seq:       o.seq.Next(),
		ID:        o.newID(),
		File:      file,
		PaletteID: paletteID,
		Options:   opts,
	}, nil
}

func (o *Orchestrator) dispatch(req model.ProcessingRequest) tea.Cmd {
	uploader, parent, cfg, logger := o.uploader, o.ctx, o.cfg, o.logger

	return func() tea.Msg {
		msg := ResultMsg{Seq: req.Seq, RequestID: req.ID}

		payload := req
		if cfg.StripMetadata {
			cleaned, err := stripPayload(req.File, cfg.PreserveICC)
			if err != nil {
				msg.Err = err
				return msg
			}
			payload.File = cleaned
		}

		ctx := parent
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, cfg.RequestTimeout)
			defer cancel()
		}

		started := time.Now()
		msg.Response, msg.Err = uploader.Upload(ctx, payload)
		logger.Debug("upload returned", "seq", req.Seq, "request_id", req.ID, "elapsed", time.Since(started))
		return msg
	}
}

// stripPayload returns a copy of file without identifying metadata. A file
// that cannot be cleaned is not sent.
func stripPayload(file model.SelectedFile, preserveICC bool) (model.SelectedFile, error) {
	kind, _ := imgutil.SniffBytes(file.Data)
	res, err := sanitize.Strip(file.Data, kind, sanitize.Options{PreserveICC: preserveICC})
	if err != nil {
		return model.SelectedFile{}, apperr.Wrap(apperr.KindValidation, "orchestrator.strip", "Could not remove metadata from the image.", err)
	}
	file.Data = res.Data
	return file, nil
}

// Resolve applies the outcome of the current request. Results for a
// cancelled or superseded submission are dropped and nil is returned.
func (o *Orchestrator) Resolve(msg ResultMsg) (cmd tea.Cmd) {
	if !o.seq.IsCurrent(msg.Seq) || o.state.Phase != model.PhaseAwaitingResult {
		o.logger.Debug("discarding stale result", "seq", msg.Seq, "request_id", msg.RequestID, "current", o.seq.Current())
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while resolving result", "seq", msg.Seq, "panic", r)
			o.transition(model.ProcessingState{Phase: model.PhaseFailed, Seq: msg.Seq, Message: GenericFailure})
			o.ui.ExitBusy()
			o.ui.ReportError(GenericFailure)
			cmd = o.fallback(msg.Seq)
		}
	}()

	next := interpret(msg, o.issued)
	o.transition(next)
	o.ui.ExitBusy()

	if next.Phase == model.PhaseFailed {
		o.logger.Warn("conversion failed", "seq", msg.Seq, "request_id", msg.RequestID, "message", next.Message, "error", msg.Err)
		o.ui.ReportError(next.Message)
	} else {
		o.logger.Info("conversion finished", "seq", msg.Seq, "request_id", msg.RequestID, "url", next.ResultURL)
	}
	return o.fallback(msg.Seq)
}

// GenericFailure is reported when an outcome cannot be interpreted.
const GenericFailure = "The conversion failed unexpectedly."

// interpret maps an upload outcome onto a resolved state. Both the transport
// status and the error field of the body are checked: a 2xx reply carrying
// an error is a failure.
func interpret(msg ResultMsg, req model.ProcessingRequest) model.ProcessingState {
	failed := func(message string) model.ProcessingState {
		return model.ProcessingState{Phase: model.PhaseFailed, Seq: msg.Seq, Message: message}
	}

	resp := msg.Response
	switch {
	case msg.Err != nil:
		return failed(apperr.UserMessage(msg.Err))
	case resp.Error != "":
		return failed(resp.Error)
	case !resp.OK():
		return failed(client.StatusMessage(resp.StatusCode))
	case resp.ProcessedImageURL == "":
		return failed("The conversion service returned no image.")
	}

	mode := resp.QuantizationMode
	if mode == "" {
		mode = req.Options.Mode.String()
	}
	return model.ProcessingState{
		Phase:       model.PhaseSucceeded,
		Seq:         msg.Seq,
		ResultURL:   resp.ProcessedImageURL,
		PaletteName: resp.PaletteName,
		Mode:        mode,
	}
}

// Cancel abandons the in-flight request: the state returns to Idle, the
// busy indicator is hidden and the eventual response will be ignored. The
// HTTP call itself is left to finish.
func (o *Orchestrator) Cancel() {
	if !o.state.Phase.InFlight() {
		return
	}
	seq := o.state.Seq
	o.seq.Invalidate()
	o.transition(model.ProcessingState{Phase: model.PhaseIdle})
	o.ui.ExitBusy()
	o.logger.Info("submission cancelled", "seq", seq, "request_id", o.issued.ID)
}

// FallbackHide hides the busy indicator unless a newer request is in flight.
func (o *Orchestrator) FallbackHide(msg FallbackHideMsg) {
	if o.state.Phase.InFlight() {
		return
	}
	o.ui.ExitBusy()
}

func (o *Orchestrator) fallback(seq uint64) tea.Cmd {
	if o.cfg.BusyFallback <= 0 {
		return nil
	}
	return tea.Tick(o.cfg.BusyFallback, func(time.Time) tea.Msg {
		return FallbackHideMsg{Seq: seq}
	})
}

func (o *Orchestrator) transition(next model.ProcessingState) {
	prev := o.state
	o.state = next
	o.logger.Debug("state transition", "from", prev.Phase, "to", next.Phase, "seq", next.Seq)
	if o.onTransition != nil {
		o.onTransition(prev, next)
	}
}

// Describe renders the state for status lines and headless output.
func Describe(s model.ProcessingState) string {
	switch s.Phase {
	case model.PhaseSubmitting:
		return "Uploading..."
	case model.PhaseAwaitingResult:
		return "Converting..."
	case model.PhaseSucceeded:
		if s.PaletteName != "" {
			return fmt.Sprintf("Done: %s (%s, %s)", s.ResultURL, s.PaletteName, s.Mode)
		}
		return fmt.Sprintf("Done: %s (%s)", s.ResultURL, s.Mode)
	case model.PhaseFailed:
		return "Failed: " + s.Message
	default:
		return "Ready"
	}
}
