// Package uistate owns the busy indicator and the error surface. It knows
// nothing about files or the network; the orchestrator drives it.
package uistate

import (
	"log/slog"
	"strings"
)

// GenericError is shown when a caller reports an empty message.
const GenericError = "Something went wrong. Please try again."

// Surface is the single modal/indicator the controller renders through.
type Surface interface {
	SetBusy(busy bool)
	ShowError(message string)
}

type Controller struct {
	surface   Surface
	logger    *slog.Logger
	busy      bool
	lastError string
}

func New(surface Surface, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{surface: surface, logger: logger}
}

// EnterBusy shows the busy indicator. Calling it while busy does nothing.
func (c *Controller) EnterBusy() {
	if c.busy {
		return
	}
	c.busy = true
	if c.surface != nil {
		c.surface.SetBusy(true)
	}
}

// ExitBusy hides the busy indicator. Hiding an already hidden indicator does
// nothing, so success, error and fallback paths may all call it.
func (c *Controller) ExitBusy() {
	if !c.busy {
		return
	}
	c.busy = false
	if c.surface != nil {
		c.surface.SetBusy(false)
	}
}

// ReportError records message and makes the error surface visible. It never
// panics, including when no surface is attached.
func (c *Controller) ReportError(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = GenericError
	}
	if message == c.lastError {
		return
	}
	c.lastError = message
	c.logger.Warn("error reported", "message", message)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("error surface panicked", "panic", r)
		}
	}()
	if c.surface != nil {
		c.surface.ShowError(message)
	}
}

// DismissError clears the recorded message.
func (c *Controller) DismissError() {
	if c.lastError == "" {
		return
	}
	c.lastError = ""
	if c.surface != nil {
		c.surface.ShowError("")
	}
}

func (c *Controller) Busy() bool {
	return c.busy
}

func (c *Controller) LastError() string {
	return c.lastError
}
