package sanitize

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// stripPNG copies chunks from r to w, dropping metadata chunks.
func stripPNG(r io.Reader, w io.Writer, preserveICC bool) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	removed := 0

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return 0, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return 0, errors.New("invalid PNG signature")
	}
	if _, err := bw.Write(sig); err != nil {
		return 0, err
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				break
			}
			return removed, err
		}
		length := int64(binary.BigEndian.Uint32(header[:4]))
		name := string(header[4:8])

		// Payload plus CRC.
		if dropPNGChunk(name, preserveICC) {
			if _, err := io.CopyN(io.Discard, br, length+4); err != nil {
				return removed, err
			}
			removed++
			continue
		}

		if _, err := bw.Write(header); err != nil {
			return removed, err
		}
		if _, err := io.CopyN(bw, br, length+4); err != nil {
			return removed, err
		}
		if name == "IEND" {
			break
		}
	}

	return removed, bw.Flush()
}

func dropPNGChunk(name string, preserveICC bool) bool {
	switch name {
	case "tEXt", "zTXt", "iTXt", "eXIf", "tIME":
		return true
	case "iCCP":
		return !preserveICC
	default:
		return false
	}
}
