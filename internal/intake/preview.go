package intake

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixelate/internal/model"
	"pixelate/pkg/imgutil"
)

// RenderPreview decodes file, scales it to fit maxWidth×maxHeight and
// summarizes its metadata. A decode failure returns the partial preview
// together with the error.
func RenderPreview(file model.SelectedFile, maxWidth, maxHeight int) (Preview, error) {
	var p Preview

	kind, _ := imgutil.SniffBytes(file.Data)
	if lines, err := readMetadata(file.Data, kind); err == nil {
		p.Metadata = lines
	}

	img, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return p, fmt.Errorf("decode %s: %w", file.Name, err)
	}
	b := img.Bounds()
	p.Width, p.Height = b.Dx(), b.Dy()
	p.Thumbnail = Thumbnail(img, maxWidth, maxHeight)
	return p, nil
}

// Thumbnail scales img down to fit within maxWidth×maxHeight keeping its
// aspect ratio. Images that already fit are returned as is.
func Thumbnail(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || maxWidth <= 0 || maxHeight <= 0 {
		return img
	}
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	tw, th := maxWidth, h*maxWidth/w
	if th > maxHeight {
		tw, th = w*maxHeight/h, maxHeight
	}
	tw, th = max(tw, 1), max(th, 1)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
