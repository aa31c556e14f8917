// Package sanitize removes identifying metadata (EXIF, XMP, IPTC, PNG text
// and time chunks) from an image payload before it leaves the machine.
package sanitize

import (
	"bytes"
	"fmt"

	"pixelate/pkg/imgutil"
)

type Options struct {
	PreserveICC bool
}

// Result describes what a Strip call removed.
type Result struct {
	Data         []byte
	Removed      int
	BytesRemoved int
}

// Strip returns a cleaned copy of data. Kinds without a stripper are returned
// unchanged; the input slice is never modified.
func Strip(data []byte, kind imgutil.Kind, opts Options) (Result, error) {
	var (
		out     bytes.Buffer
		removed int
		err     error
	)
	out.Grow(len(data))

	switch kind {
	case imgutil.KindJPEG:
		removed, err = stripJPEG(bytes.NewReader(data), &out, opts.PreserveICC)
	case imgutil.KindPNG:
		removed, err = stripPNG(bytes.NewReader(data), &out, opts.PreserveICC)
	default:
		return Result{Data: data}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("strip %s metadata: %w", kind, err)
	}

	return Result{
		Data:         out.Bytes(),
		Removed:      removed,
		BytesRemoved: len(data) - out.Len(),
	}, nil
}

func hasPrefix(buf, prefix []byte) bool {
	return bytes.HasPrefix(buf, prefix)
}
