package tui

// StatusPane is the one busy indicator and error box of the screen. It is
// written only through uistate.Controller and read by View.
type StatusPane struct {
	busy    bool
	message string
}

func NewStatusPane() *StatusPane {
	return &StatusPane{}
}

func (s *StatusPane) SetBusy(busy bool) {
	s.busy = busy
}

// ShowError displays message; an empty message hides the box.
func (s *StatusPane) ShowError(message string) {
	s.message = message
}

func (s *StatusPane) Busy() bool {
	return s.busy
}

func (s *StatusPane) Error() string {
	return s.message
}
