package mockserver

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"pixelate/internal/model"
	"pixelate/internal/testutil"
)

func TestConvertModes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.Gray{Y: uint8(x * 32)})
		}
	}
	colors := []model.Color{"000000", "ffffff"}

	for _, mode := range model.QuantizationModes() {
		t.Run(string(mode), func(t *testing.T) {
			out := Convert(src, colors, Params{Mode: mode, MaxResolution: 8, UpscaleFactor: 2})
			assert.Equal(t, image.Rect(0, 0, 16, 16), out.Bounds())
			assert.Len(t, out.Palette, 2)

			dark := out.ColorIndexAt(0, 0)
			light := out.ColorIndexAt(15, 0)
			assert.Equal(t, uint8(0), dark, "left edge should map to black")
			assert.Equal(t, uint8(1), light, "right edge should map to white")
		})
	}
}

func TestConvertFitsMaxResolution(t *testing.T) {
	src := testutil.Solid(100, 50, color.White)
	out := Convert(src, []model.Color{"ffffff"}, Params{Mode: model.ModeContrast, MaxResolution: 20, UpscaleFactor: 1})
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}
