package palette

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"pixelate/internal/model"
)

// Importer uploads one palette file.
type Importer interface {
	ImportPalette(ctx context.Context, name, fileName string, data []byte) (model.PaletteEntry, error)
}

type BatchOptions struct {
	Workers int
	// Validate parses files locally and skips those without valid colors.
	Validate bool
}

// Progress is a delta sent while a batch import runs.
type Progress struct {
	TotalDelta    int
	ImportedDelta int
	SkippedDelta  int
	ErrorDelta    int
}

type BatchSummary struct {
	Total    int
	Imported int
	Skipped  int
	Errors   int
}

// BatchResult is the outcome for one file.
type BatchResult struct {
	Path    string
	Entry   model.PaletteEntry
	Skipped bool
	Err     error
}

type batchJob struct {
	Path    string
	Display string
}

// ImportDir imports every palette file under root, or root itself when it is
// a file. Files with other extensions are skipped. updates, when non-nil,
// receives progress deltas and is closed when the import finishes.
func ImportDir(ctx context.Context, importer Importer, root string, opts BatchOptions, updates chan<- Progress) (BatchSummary, []BatchResult, error) {
	if updates != nil {
		defer close(updates)
	}
	summary := BatchSummary{}
	var results []BatchResult

	info, err := os.Stat(root)
	if err != nil {
		return summary, nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return summary, nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 4)
	}

	jobs := make(chan batchJob)
	done := make(chan BatchResult)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			batchWorker(ctx, importer, opts, jobs, done)
		}()
	}

	send := func(p Progress) {
		if updates != nil {
			updates <- p
		}
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range done {
			summary.Total++
			switch {
			case res.Skipped:
				summary.Skipped++
				send(Progress{SkippedDelta: 1})
			case res.Err != nil:
				summary.Errors++
				send(Progress{ErrorDelta: 1})
			default:
				summary.Imported++
				send(Progress{ImportedDelta: 1})
			}
			results = append(results, res)
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		sendJob := func(job batchJob) error {
			send(Progress{TotalDelta: 1})
			select {
			case jobs <- job:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !info.IsDir() {
			producerErr <- sendJob(batchJob{Path: absRoot, Display: filepath.Base(absRoot)})
			return
		}

		producerErr <- fs.WalkDir(os.DirFS(absRoot), ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			return sendJob(batchJob{Path: filepath.Join(absRoot, path), Display: path})
		})
	}()

	perr := <-producerErr
	wg.Wait()
	close(done)
	<-collectorDone

	if perr != nil && !errors.Is(perr, context.Canceled) {
		return summary, results, perr
	}
	return summary, results, ctx.Err()
}

func batchWorker(ctx context.Context, importer Importer, opts BatchOptions, jobs <-chan batchJob, done chan<- BatchResult) {
	for job := range jobs {
		res := BatchResult{Path: job.Display}
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			done <- res
			continue
		}
		if !Importable(job.Path) {
			res.Skipped = true
			done <- res
			continue
		}

		data, err := os.ReadFile(job.Path)
		if err != nil {
			res.Err = err
			done <- res
			continue
		}
		if opts.Validate {
			if _, err := Parse(data); err != nil {
				res.Err = err
				done <- res
				continue
			}
		}

		res.Entry, res.Err = importer.ImportPalette(ctx, DefaultName(job.Path), filepath.Base(job.Path), data)
		done <- res
	}
}
