package model

import (
	"bytes"
	"strings"
)

// SelectedFile is the image the user picked. It is replaced wholesale, never
// edited, so the Data slice may be shared by snapshots.
type SelectedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// Size returns the payload length in bytes.
func (f SelectedFile) Size() int {
	return len(f.Data)
}

// IsImage reports whether the declared media type is an image type.
func (f SelectedFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.MediaType)), "image/")
}

// Same reports whether two selections carry the same name, type and bytes.
func (f SelectedFile) Same(other SelectedFile) bool {
	return f.Name == other.Name && f.MediaType == other.MediaType && bytes.Equal(f.Data, other.Data)
}
