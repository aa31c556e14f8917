package palette

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
)

// Extensions lists the palette file types that may be imported.
var Extensions = []string{".hex", ".txt"}

// Importable reports whether fileName has an importable extension.
func Importable(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DefaultName derives a palette name from a file name by dropping the
// directory and extension.
func DefaultName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse reads one hex color per line. Blank lines and ';' comments are
// skipped; 8-digit AARRGGBB entries lose their alpha byte.
func Parse(data []byte) ([]model.Color, error) {
	var colors []model.Color
	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, ";") {
			continue
		}
		text = strings.TrimPrefix(text, "#")
		if len(text) == 8 {
			text = text[2:]
		}
		c, err := model.ParseColor(text)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "palette.parse", fmt.Sprintf("line %d: %v", line, err), apperr.ErrInvalidPaletteFormat)
		}
		colors = append(colors, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return nil, apperr.Wrap(apperr.KindValidation, "palette.parse", "palette has no colors", apperr.ErrInvalidPaletteFormat)
	}
	return colors, nil
}
