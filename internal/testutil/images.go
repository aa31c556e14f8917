// Package testutil builds small image fixtures shared by package tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// PNG encodes a solid w×h PNG.
func PNG(t testing.TB, w, h int, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Solid(w, h, c)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// PaddedPNG returns a decodable PNG of at least size bytes; the padding is a
// private ancillary chunk.
func PaddedPNG(t testing.TB, size int) []byte {
	t.Helper()
	data := PNG(t, 8, 8, color.RGBA{R: 0x40, G: 0x80, B: 0xc0, A: 0xff})
	if len(data) >= size {
		return data
	}
	pad := Chunk("prVt", make([]byte, size-len(data)))
	return insertBeforeIEND(data, pad)
}

// PNGWithMetadata returns a PNG carrying tEXt Model, tIME and eXIf chunks.
func PNGWithMetadata(t testing.TB) []byte {
	t.Helper()
	data := PNG(t, 2, 2, color.RGBA{R: 0xff, A: 0xff})

	var extra []byte
	extra = append(extra, Chunk("tEXt", []byte("Model\x00TestCam"))...)
	extra = append(extra, Chunk("tIME", []byte{0x07, 0xE8, 0x01, 0x02, 0x03, 0x04, 0x05})...)
	extra = append(extra, Chunk("eXIf", ExifTIFF())...)
	return insertBeforeIEND(data, extra)
}

// JPEGWithExif returns a decodable 4×4 JPEG with an APP1 EXIF segment naming
// the camera model and capture time.
func JPEGWithExif(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Solid(4, 4, color.RGBA{G: 0xff, A: 0xff}), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	plain := buf.Bytes()

	exif := append([]byte("Exif\x00\x00"), ExifTIFF()...)
	var out bytes.Buffer
	out.Write(plain[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(exif)+2))
	out.Write(exif)
	out.Write(plain[2:])
	return out.Bytes()
}

// ExifTIFF is a little-endian TIFF block with Model=TestCam and a DateTime.
func ExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}

// Chunk frames data as a PNG chunk with a valid CRC.
func Chunk(chunkType string, data []byte) []byte {
	typeBytes := []byte(chunkType)
	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, typeBytes...)
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(append(typeBytes, data...)))
	return chunk
}

func insertBeforeIEND(data, extra []byte) []byte {
	insertAt := len(data) - 12
	out := append([]byte{}, data[:insertAt]...)
	out = append(out, extra...)
	return append(out, data[insertAt:]...)
}
