package mockserver

import (
	"image"
	"image/color"
	"sort"

	"golang.org/x/image/draw"

	"pixelate/internal/model"
)

// Params are the conversion settings of one upload.
type Params struct {
	Mode          model.QuantizationMode
	MaxResolution int
	UpscaleFactor int
}

// Convert downsizes src to fit MaxResolution, maps it onto colors and
// upscales the result by UpscaleFactor with nearest neighbour sampling.
func Convert(src image.Image, colors []model.Color, p Params) *image.Paletted {
	pal := make(color.Palette, 0, len(colors))
	for _, c := range colors {
		r, g, b := c.RGB()
		pal = append(pal, color.RGBA{R: r, G: g, B: b, A: 0xff})
	}

	img := fit(src, p.MaxResolution)
	rect := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, rect.Dx(), rect.Dy()), pal)

	switch p.Mode {
	case model.ModeNatural:
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, rect.Min)
	case model.ModeKMeans:
		kmeansMap(dst, img, pal, false)
	case model.ModeKMeansBrightness:
		kmeansMap(dst, img, pal, true)
	default:
		draw.Draw(dst, dst.Bounds(), contrast(img, 1.5), image.Point{}, draw.Src)
	}

	if p.UpscaleFactor <= 1 {
		return dst
	}
	b := dst.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx()*p.UpscaleFactor, b.Dy()*p.UpscaleFactor), pal)
	draw.NearestNeighbor.Scale(out, out.Bounds(), dst, b, draw.Src, nil)
	return out
}

func fit(src image.Image, maxRes int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxRes <= 0 || (w <= maxRes && h <= maxRes) {
		return src
	}
	tw, th := maxRes, h*maxRes/w
	if th > maxRes {
		tw, th = w*maxRes/h, maxRes
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(tw, 1), max(th, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func contrast(src image.Image, factor float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	adjust := func(v uint32) uint8 {
		f := (float64(v>>8)-128)*factor + 128
		switch {
		case f < 0:
			return 0
		case f > 255:
			return 255
		}
		return uint8(f)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: adjust(r), G: adjust(g), B: adjust(bl), A: uint8(a >> 8)})
		}
	}
	return dst
}

type rgb [3]float64

func luminance(c rgb) float64 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

func toRGB(c color.Color) rgb {
	r, g, b, _ := c.RGBA()
	return rgb{float64(r >> 8), float64(g >> 8), float64(b >> 8)}
}

// kmeansMap clusters the pixels of img into at most 16 groups and paints each
// group with one palette color: the nearest one, or with byBrightness the one
// at the same brightness rank.
func kmeansMap(dst *image.Paletted, img image.Image, pal color.Palette, byBrightness bool) {
	b := img.Bounds()
	pixels := make([]rgb, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pixels = append(pixels, toRGB(img.At(x, y)))
		}
	}
	k := min(16, len(pal), len(pixels))
	if k == 0 {
		return
	}
	centers, labels := kmeans(pixels, k, 10)

	mapping := make([]uint8, k)
	if byBrightness {
		clusterOrder := brightnessOrder(centers)
		palRGB := make([]rgb, len(pal))
		for i, c := range pal {
			palRGB[i] = toRGB(c)
		}
		palOrder := brightnessOrder(palRGB)
		for rank, ci := range clusterOrder {
			mapping[ci] = uint8(palOrder[min(rank, len(palOrder)-1)])
		}
	} else {
		for i, c := range centers {
			mapping[i] = uint8(pal.Index(color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 0xff}))
		}
	}

	w := b.Dx()
	for i, label := range labels {
		dst.SetColorIndex(i%w, i/w, mapping[label])
	}
}

func brightnessOrder(colors []rgb) []int {
	order := make([]int, len(colors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return luminance(colors[order[a]]) < luminance(colors[order[b]])
	})
	return order
}

// kmeans runs Lloyd's algorithm with centers seeded at brightness quantiles.
func kmeans(pixels []rgb, k, iterations int) ([]rgb, []int) {
	order := brightnessOrder(pixels)
	centers := make([]rgb, k)
	for i := range centers {
		centers[i] = pixels[order[(2*i+1)*len(pixels)/(2*k)]]
	}
	labels := make([]int, len(pixels))

	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, p := range pixels {
			best, bestDist := 0, -1.0
			for ci, c := range centers {
				d := sq(p[0]-c[0]) + sq(p[1]-c[1]) + sq(p[2]-c[2])
				if bestDist < 0 || d < bestDist {
					best, bestDist = ci, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([]rgb, k)
		counts := make([]int, k)
		for i, p := range pixels {
			l := labels[i]
			sums[l][0] += p[0]
			sums[l][1] += p[1]
			sums[l][2] += p[2]
			counts[l]++
		}
		for ci := range centers {
			if counts[ci] == 0 {
				continue
			}
			n := float64(counts[ci])
			centers[ci] = rgb{sums[ci][0] / n, sums[ci][1] / n, sums[ci][2] / n}
		}
	}
	return centers, labels
}

func sq(v float64) float64 {
	return v * v
}
