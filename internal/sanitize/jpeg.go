package sanitize

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

var (
	jpegExifHeader = []byte("Exif\x00\x00")
	jpegXmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	jpegPhotoshop  = []byte("Photoshop 3.0\x00")
	jpegICCHeader  = []byte("ICC_PROFILE\x00")
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP1 = 0xe1
	markerAPP2 = 0xe2
	markerAPPD = 0xed
)

// stripJPEG copies segments up to the start of scan, dropping APP1 EXIF/XMP,
// APP13 Photoshop/IPTC and (optionally) APP2 ICC segments. Entropy coded data
// after SOS is copied untouched.
func stripJPEG(r io.Reader, w io.Writer, preserveICC bool) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return 0, err
	}
	if soi[0] != 0xff || soi[1] != markerSOI {
		return 0, errors.New("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return 0, err
	}

	for {
		marker, err := nextMarker(br)
		if err != nil {
			return removed, err
		}

		switch {
		case marker == markerEOI:
			if _, err := bw.Write([]byte{0xff, markerEOI}); err != nil {
				return removed, err
			}
			return removed, bw.Flush()
		case marker == markerSOS:
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return removed, err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return removed, err
			}
			return removed, bw.Flush()
		case marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7):
			// Standalone markers carry no length.
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return removed, err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return removed, err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return removed, errors.New("invalid JPEG segment length")
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return removed, err
		}

		if dropJPEGSegment(marker, payload, preserveICC) {
			removed++
			continue
		}
		for _, part := range [][]byte{{0xff, marker}, lenBuf, payload} {
			if _, err := bw.Write(part); err != nil {
				return removed, err
			}
		}
	}
}

// nextMarker skips fill bytes and returns the next marker code.
func nextMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	for b != 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	for b == 0xff {
		if b, err = br.ReadByte(); err != nil {
			return 0, err
		}
	}
	return b, nil
}

func dropJPEGSegment(marker byte, payload []byte, preserveICC bool) bool {
	switch marker {
	case markerAPP1:
		return hasPrefix(payload, jpegExifHeader) || hasPrefix(payload, jpegXmpHeader)
	case markerAPPD:
		return hasPrefix(payload, jpegPhotoshop)
	case markerAPP2:
		return !preserveICC && hasPrefix(payload, jpegICCHeader)
	default:
		return false
	}
}
