package model

import (
	"fmt"
	"strings"
)

// Color is a six digit hex triple without the leading '#'.
type Color string

// ParseColor normalizes a hex triple, accepting an optional '#' prefix.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return "", fmt.Errorf("color %q must have 6 hex digits", s)
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return "", fmt.Errorf("color %q is not hexadecimal", s)
		}
	}
	return Color(strings.ToLower(s)), nil
}

// Hex returns the color with a leading '#'.
func (c Color) Hex() string {
	return "#" + string(c)
}

// RGB splits the color into its components. Invalid colors yield black.
func (c Color) RGB() (r, g, b uint8) {
	if len(c) != 6 {
		return 0, 0, 0
	}
	var v [3]uint8
	for i := 0; i < 3; i++ {
		v[i] = hexByte(c[i*2])<<4 | hexByte(c[i*2+1])
	}
	return v[0], v[1], v[2]
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexByte(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// PaletteEntry is one selectable palette.
type PaletteEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PaletteRef is a palette id plus its cached colors.
type PaletteRef struct {
	ID     string
	Name   string
	Colors []Color
}

// ImportedPalette is what a successful import adds to the directory.
type ImportedPalette struct {
	PaletteEntry
	Colors []Color
}
