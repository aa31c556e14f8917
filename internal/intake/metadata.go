package intake

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"pixelate/pkg/imgutil"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// metadataFacts records identifying metadata an upload would carry.
type metadataFacts struct {
	Camera      string
	Captured    string
	GPSTags     int
	SerialCount int
	TextKeys    []string
}

func (f metadataFacts) lines() []string {
	var out []string
	if f.Camera != "" {
		out = append(out, "Camera: "+f.Camera)
	}
	if f.Captured != "" {
		out = append(out, "Captured: "+f.Captured)
	}
	if f.GPSTags > 0 {
		out = append(out, fmt.Sprintf("GPS location (%d tags)", f.GPSTags))
	}
	if f.SerialCount > 0 {
		out = append(out, "Device serial number")
	}
	if len(f.TextKeys) > 0 {
		out = append(out, "Text: "+strings.Join(f.TextKeys, ", "))
	}
	return out
}

// readMetadata summarizes the identifying metadata in data. Unreadable
// metadata yields an empty summary, never an error: the preview is advisory.
func readMetadata(data []byte, kind imgutil.Kind) ([]string, error) {
	var (
		facts metadataFacts
		err   error
	)
	switch kind {
	case imgutil.KindPNG:
		err = scanPNGMetadata(bytes.NewReader(data), &facts)
	case imgutil.KindJPEG, imgutil.KindTIFF, imgutil.KindWEBP:
		err = analyzeExif(bytes.NewReader(data), &facts)
	}
	return facts.lines(), err
}

func analyzeExif(rs io.ReadSeeker, facts *metadataFacts) error {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		if errorsIsNoExif(err) {
			return nil
		}
		return err
	}
	applyExifTags(tags, facts)
	return nil
}

func applyExifTags(tags []exif.ExifTag, facts *metadataFacts) {
	for _, tag := range tags {
		name := tag.TagName
		switch {
		case strings.HasPrefix(name, "GPS") || strings.Contains(tag.IfdPath, "GPS"):
			facts.GPSTags++
		case name == "Model" || name == "CameraModelName":
			facts.Camera = strings.TrimSpace(tag.FormattedFirst)
		case name == "DateTimeOriginal" || name == "DateTimeDigitized" || name == "DateTime":
			if facts.Captured == "" {
				facts.Captured = strings.TrimSpace(tag.FormattedFirst)
			}
		case strings.Contains(strings.ToLower(name), "serial"):
			facts.SerialCount++
		}
	}
}

func scanPNGMetadata(r io.Reader, facts *metadataFacts) error {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return errors.New("invalid PNG signature")
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(header[:4])
		chunkName := string(header[4:8])

		switch chunkName {
		case "tEXt", "zTXt", "iTXt", "eXIf":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return err
			}
			if _, err := br.Discard(4); err != nil {
				return err
			}
			if chunkName == "eXIf" {
				if tags, _, err := exif.GetFlatExifData(data, nil); err == nil {
					applyExifTags(tags, facts)
				}
				continue
			}
			applyPNGText(facts, chunkName, data)
		case "tIME":
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return err
			}
			if _, err := br.Discard(4); err != nil {
				return err
			}
			if facts.Captured == "" && len(data) == 7 {
				facts.Captured = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
					binary.BigEndian.Uint16(data[:2]), data[2], data[3], data[4], data[5], data[6])
			}
		default:
			if _, err := br.Discard(int(length) + 4); err != nil {
				return err
			}
		}

		if chunkName == "IEND" {
			return nil
		}
	}
}

func applyPNGText(facts *metadataFacts, chunkName string, data []byte) {
	idx := bytes.IndexByte(data, 0)
	if idx <= 0 {
		return
	}
	key := string(data[:idx])
	lower := strings.ToLower(key)

	switch {
	case strings.Contains(lower, "gps") || strings.Contains(lower, "latitude") || strings.Contains(lower, "longitude"):
		facts.GPSTags++
	case lower == "model" || lower == "make":
		// only tEXt values are stored uncompressed
		if chunkName == "tEXt" && facts.Camera == "" {
			facts.Camera = string(data[idx+1:])
		}
	case strings.Contains(lower, "serial"):
		facts.SerialCount++
	default:
		facts.TextKeys = append(facts.TextKeys, key)
	}
}

func errorsIsNoExif(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
