package palette

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
)

func TestParse(t *testing.T) {
	got, err := Parse([]byte("; paint.net palette\nFFFF0000\n#00ff00\n\n0000FF\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []model.Color{"ff0000", "00ff00", "0000ff"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("colors mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejects(t *testing.T) {
	for _, input := range []string{"", "\n\n", "zzzzzz", "12345"} {
		if _, err := Parse([]byte(input)); !errors.Is(err, apperr.ErrInvalidPaletteFormat) {
			t.Errorf("Parse(%q) = %v, want ErrInvalidPaletteFormat", input, err)
		}
	}
}

func TestDefaultName(t *testing.T) {
	tests := map[string]string{
		"reds.hex":            "reds",
		"/tmp/x/Game Boy.txt": "Game Boy",
		"noext":               "noext",
	}
	for in, want := range tests {
		if got := DefaultName(in); got != want {
			t.Errorf("DefaultName(%q) = %q, want %q", in, got, want)
		}
	}
	if !Importable("A.HEX") || Importable("a.gpl") {
		t.Error("extension check is wrong")
	}
}
