package model

// ProcessingRequest is assembled once per submission and never modified after
// it is issued.
type ProcessingRequest struct {
	Seq       uint64
	ID        string
	File      SelectedFile
	PaletteID string
	Options   ProcessingOptions
}
