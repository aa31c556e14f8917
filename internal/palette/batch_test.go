package palette

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "reds.hex"), "ff0000\n")
	writeFile(t, filepath.Join(dir, "nested", "blues.txt"), "0000ff\n")
	writeFile(t, filepath.Join(dir, "readme.md"), "# palettes\n")
	writeFile(t, filepath.Join(dir, "broken.hex"), "not a color\n")

	f := &fakeFetcher{}
	updates := make(chan Progress, 64)
	summary, results, err := ImportDir(context.Background(), f, dir, BatchOptions{Workers: 2, Validate: true}, updates)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}

	if summary.Total != 4 || summary.Imported != 2 || summary.Skipped != 1 || summary.Errors != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	sort.Strings(f.imports)
	if len(f.imports) != 2 || f.imports[0] != "blues|blues.txt" || f.imports[1] != "reds|reds.hex" {
		t.Fatalf("unexpected uploads %v", f.imports)
	}

	var total, imported int
	for p := range updates {
		total += p.TotalDelta
		imported += p.ImportedDelta
	}
	if total != 4 || imported != 2 {
		t.Fatalf("progress total=%d imported=%d", total, imported)
	}
}

func TestImportDirCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "reds.hex"), "ff0000\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ImportDir(ctx, &fakeFetcher{}, dir, BatchOptions{Workers: 1}, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
