package intake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
	"pixelate/pkg/imgutil"
)

// Open reads a file from disk into a SelectedFile. The media type is taken
// from the image signature, or from general content detection when the
// signature is unknown, so non-images are labelled rather than refused here.
func Open(path string) (model.SelectedFile, error) {
	const op = "intake.open"

	info, err := os.Stat(path)
	if err != nil {
		return model.SelectedFile{}, apperr.Wrap(apperr.KindValidation, op, fmt.Sprintf("Cannot open %s.", path), err)
	}
	if info.IsDir() {
		return model.SelectedFile{}, apperr.Wrap(apperr.KindValidation, op, fmt.Sprintf("%s is a directory.", path), apperr.ErrInvalidFileType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.SelectedFile{}, apperr.Wrap(apperr.KindValidation, op, fmt.Sprintf("Cannot read %s.", path), err)
	}

	return model.SelectedFile{
		Name:      filepath.Base(path),
		MediaType: DetectMediaType(data),
		Data:      data,
	}, nil
}

// DetectMediaType names the content type of data.
func DetectMediaType(data []byte) string {
	if kind, err := imgutil.SniffBytes(data); err == nil && kind != imgutil.KindUnknown {
		return kind.MediaType()
	}
	return mimetype.Detect(data).String()
}
