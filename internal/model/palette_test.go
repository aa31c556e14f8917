package model

import "testing"

func TestParseColor(t *testing.T) {
	tests := []struct {
		input   string
		want    Color
		wantErr bool
	}{
		{"ff0000", "ff0000", false},
		{"#00FF7f", "00ff7f", false},
		{"  123abc ", "123abc", false},
		{"fff", "", true},
		{"zz0000", "", true},
	}

	for _, test := range tests {
		got, err := ParseColor(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", test.input, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("ParseColor(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestColorRGB(t *testing.T) {
	r, g, b := Color("1a2b3c").RGB()
	if r != 0x1a || g != 0x2b || b != 0x3c {
		t.Fatalf("RGB() = %x %x %x", r, g, b)
	}
	if Color("1a2b3c").Hex() != "#1a2b3c" {
		t.Fatalf("Hex() = %s", Color("1a2b3c").Hex())
	}
}

func TestSelectedFileSame(t *testing.T) {
	a := SelectedFile{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2, 3}}
	b := SelectedFile{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2, 3}}
	c := SelectedFile{Name: "a.png", MediaType: "image/png", Data: []byte{1, 2, 4}}

	if !a.Same(b) {
		t.Error("identical selections should be the same")
	}
	if a.Same(c) {
		t.Error("different payloads should differ")
	}
	if !a.IsImage() {
		t.Error("image/png should be an image")
	}
	if (SelectedFile{MediaType: "text/plain"}).IsImage() {
		t.Error("text/plain is not an image")
	}
}
