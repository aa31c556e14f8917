package intake

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
	"pixelate/internal/testutil"
	"pixelate/pkg/imgutil"
)

func imageFile(t *testing.T, name string) model.SelectedFile {
	t.Helper()
	return model.SelectedFile{Name: name, MediaType: "image/png", Data: testutil.PNG(t, 4, 4, color.White)}
}

func TestSelectShowsPendingPreviewImmediately(t *testing.T) {
	in := New()
	file := imageFile(t, "a.png")

	cmd, err := in.Select(file)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if cmd == nil {
		t.Fatal("expected a preview command")
	}
	if !in.SubmitEnabled() {
		t.Fatal("submit should be enabled")
	}
	p := in.Preview()
	if !p.Pending || p.FileName != "a.png" {
		t.Fatalf("expected pending preview for a.png, got %+v", p)
	}

	msg, ok := cmd().(PreviewReadyMsg)
	if !ok {
		t.Fatal("command did not return PreviewReadyMsg")
	}
	if !in.ApplyPreview(msg) {
		t.Fatal("current preview was discarded")
	}
	p = in.Preview()
	if p.Pending || p.Width != 4 || p.Height != 4 || p.Thumbnail == nil {
		t.Fatalf("unexpected ready preview %+v", p)
	}
}

func TestLatestSelectionWinsPreviewRace(t *testing.T) {
	in := New()

	cmdA, err := in.Select(imageFile(t, "a.png"))
	if err != nil {
		t.Fatalf("select a: %v", err)
	}
	b := model.SelectedFile{Name: "b.png", MediaType: "image/png", Data: testutil.PNG(t, 6, 3, color.Black)}
	cmdB, err := in.Select(b)
	if err != nil {
		t.Fatalf("select b: %v", err)
	}

	// B finishes first, then the slower A read arrives.
	msgB := cmdB().(PreviewReadyMsg)
	msgA := cmdA().(PreviewReadyMsg)

	if !in.ApplyPreview(msgB) {
		t.Fatal("b preview rejected")
	}
	if in.ApplyPreview(msgA) {
		t.Fatal("stale a preview applied")
	}
	if got := in.Preview().FileName; got != "b.png" {
		t.Fatalf("preview shows %q, want b.png", got)
	}
	if cur, _ := in.CurrentFile(); cur.Name != "b.png" {
		t.Fatalf("current file %q, want b.png", cur.Name)
	}
}

func TestSelectNonImageClearsSelection(t *testing.T) {
	in := New()
	cmd, _ := in.Select(imageFile(t, "a.png"))
	in.ApplyPreview(cmd().(PreviewReadyMsg))

	cmd, err := in.Select(model.SelectedFile{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hi")})
	if cmd != nil {
		t.Fatal("rejected file must not start a read")
	}
	if !errors.Is(err, apperr.ErrInvalidFileType) || !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if in.SubmitEnabled() {
		t.Fatal("submit still enabled")
	}
	if !in.Preview().Empty() {
		t.Fatalf("preview not cleared: %+v", in.Preview())
	}
	if _, ok := in.CurrentFile(); ok {
		t.Fatal("previous file still current")
	}
}

func TestSelectRejectsOversizedFile(t *testing.T) {
	in := New(WithMaxFileSize(1024))
	file := model.SelectedFile{Name: "big.png", MediaType: "image/png", Data: testutil.PaddedPNG(t, 4096)}

	_, err := in.Select(file)
	if !errors.Is(err, apperr.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if in.SubmitEnabled() {
		t.Fatal("submit enabled for oversized file")
	}
}

func TestSelectSameFileIsNoop(t *testing.T) {
	reads := 0
	in := New(WithRenderer(func(model.SelectedFile, int, int) (Preview, error) {
		reads++
		return Preview{}, nil
	}))
	file := imageFile(t, "a.png")

	cmd, _ := in.Select(file)
	cmd()
	seq := in.Preview().Seq

	again, err := in.Select(file)
	if err != nil || again != nil {
		t.Fatalf("reselect should be a no-op, got cmd=%v err=%v", again != nil, err)
	}
	if in.Preview().Seq != seq {
		t.Fatal("reselect issued a new sequence number")
	}
	if reads != 1 {
		t.Fatalf("expected one read, got %d", reads)
	}
}

func TestClearDropsInFlightRead(t *testing.T) {
	in := New()
	cmd, _ := in.Select(imageFile(t, "a.png"))
	in.Clear()

	if in.ApplyPreview(cmd().(PreviewReadyMsg)) {
		t.Fatal("read finished after clear was applied")
	}
	if in.SubmitEnabled() {
		t.Fatal("submit enabled after clear")
	}
}

func TestPreviewReportsDecodeFailure(t *testing.T) {
	in := New()
	cmd, err := in.Select(model.SelectedFile{Name: "broken.png", MediaType: "image/png", Data: []byte("not really")})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	in.ApplyPreview(cmd().(PreviewReadyMsg))

	p := in.Preview()
	if p.Err == nil {
		t.Fatal("expected decode error on preview")
	}
	if !in.SubmitEnabled() {
		t.Fatal("a preview failure must not disable submit")
	}
}

func TestDialogGuard(t *testing.T) {
	in := New()
	tok, ok := in.OpenDialog()
	if !ok {
		t.Fatal("first open refused")
	}
	if _, ok := in.OpenDialog(); ok {
		t.Fatal("second open allowed while dialog is up")
	}
	in.CloseDialog(tok)
	if in.DialogOpen() {
		t.Fatal("dialog still held after close")
	}
}

func TestOpenDetectsMediaType(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "photo.bin")
	if err := os.WriteFile(png, testutil.PNG(t, 2, 2, color.White), 0o644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "notes.png")
	if err := os.WriteFile(txt, []byte("just some text\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := Open(png)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	if file.MediaType != "image/png" || file.Name != "photo.bin" {
		t.Fatalf("unexpected file %q %q", file.Name, file.MediaType)
	}

	file, err = Open(txt)
	if err != nil {
		t.Fatalf("open txt: %v", err)
	}
	if !strings.HasPrefix(file.MediaType, "text/plain") {
		t.Fatalf("extension must not decide the type, got %q", file.MediaType)
	}

	if _, err := Open(dir); !errors.Is(err, apperr.ErrInvalidFileType) {
		t.Fatalf("expected directory rejection, got %v", err)
	}
}

func TestThumbnailKeepsAspect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	got := Thumbnail(img, 40, 40).Bounds()
	if got.Dx() != 40 || got.Dy() != 20 {
		t.Fatalf("thumbnail %dx%d, want 40x20", got.Dx(), got.Dy())
	}

	small := image.NewRGBA(image.Rect(0, 0, 8, 8))
	if Thumbnail(small, 40, 40) != image.Image(small) {
		t.Fatal("small image should be returned unchanged")
	}
}

func TestPNGMetadataSummary(t *testing.T) {
	lines, err := readMetadata(testutil.PNGWithMetadata(t), imgutil.KindPNG)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "Camera: TestCam") {
		t.Errorf("camera missing from %q", joined)
	}
	if !strings.Contains(joined, "Captured: 2024-01-02 03:04:05") {
		t.Errorf("capture time missing from %q", joined)
	}
}

func TestPlainPNGHasNoMetadata(t *testing.T) {
	lines, err := readMetadata(testutil.PNG(t, 2, 2, color.White), imgutil.KindPNG)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no metadata, got %v", lines)
	}
}
