package sanitize

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"testing"

	"pixelate/internal/testutil"
	"pixelate/pkg/imgutil"
)

func TestStripJPEG(t *testing.T) {
	src := testutil.JPEGWithExif(t)
	original := append([]byte{}, src...)

	res, err := Strip(src, imgutil.KindJPEG, Options{})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if res.Removed != 1 {
		t.Fatalf("expected one segment removed, got %d", res.Removed)
	}
	if bytes.Contains(res.Data, []byte("TestCam")) {
		t.Fatal("camera model survived stripping")
	}
	if res.BytesRemoved <= 0 {
		t.Fatalf("expected bytes removed, got %d", res.BytesRemoved)
	}
	if !bytes.Equal(src, original) {
		t.Fatal("input slice was modified")
	}
	if _, _, err := image.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Fatalf("stripped JPEG no longer decodes: %v", err)
	}
}

func TestStripPNG(t *testing.T) {
	src := testutil.PNGWithMetadata(t)

	res, err := Strip(src, imgutil.KindPNG, Options{})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if res.Removed != 3 {
		t.Fatalf("expected tEXt, tIME and eXIf removed, got %d", res.Removed)
	}
	for _, marker := range []string{"tEXt", "tIME", "eXIf"} {
		if bytes.Contains(res.Data, []byte(marker)) {
			t.Errorf("%s chunk survived", marker)
		}
	}
	if _, _, err := image.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Fatalf("stripped PNG no longer decodes: %v", err)
	}
}

func TestStripPreservesICCWhenAsked(t *testing.T) {
	base := testutil.PNG(t, 1, 1, image.Black.C)
	iccp := testutil.Chunk("iCCP", []byte("profile\x00\x00data"))
	src := append(append(append([]byte{}, base[:33]...), iccp...), base[33:]...)

	kept, err := Strip(src, imgutil.KindPNG, Options{PreserveICC: true})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if !bytes.Contains(kept.Data, []byte("iCCP")) {
		t.Fatal("iCCP dropped despite PreserveICC")
	}

	dropped, err := Strip(src, imgutil.KindPNG, Options{})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if bytes.Contains(dropped.Data, []byte("iCCP")) {
		t.Fatal("iCCP kept without PreserveICC")
	}
}

func TestStripPassesThroughOtherKinds(t *testing.T) {
	src := []byte("GIF89a....")
	res, err := Strip(src, imgutil.KindGIF, Options{})
	if err != nil {
		t.Fatalf("strip: %v", err)
	}
	if !bytes.Equal(res.Data, src) || res.Removed != 0 {
		t.Fatalf("gif payload should pass through unchanged")
	}
}

func TestStripRejectsCorruptInput(t *testing.T) {
	if _, err := Strip([]byte("not a jpeg at all"), imgutil.KindJPEG, Options{}); err == nil {
		t.Fatal("expected error for invalid JPEG")
	}
}
