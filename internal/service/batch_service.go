package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
)

// ProgressFunc is called once per file, in input order, after the file is done.
// index is 1-based.
type ProgressFunc func(index, total int, result *domain.ExtractionResult)

// BatchSummary totals a finished batch.
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	LineItems int
	// AmountTotal sums every line item amount that parses as a number.
	AmountTotal decimal.Decimal
}

// BatchService runs extraction over many PDFs.
type BatchService interface {
	Discover(dir string) ([]string, error)
	Run(ctx context.Context, paths []string, progress ProgressFunc) ([]domain.ExtractionResult, error)
}

type batchService struct {
	extractor   ExtractionService
	concurrency int
	log         logrus.FieldLogger
}

// NewBatchService creates a BatchService running at most concurrency files at once.
func NewBatchService(extractor ExtractionService, concurrency int, logger logrus.FieldLogger) BatchService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &batchService{extractor: extractor, concurrency: concurrency, log: logger}
}

// Discover lists *.pdf and *.PDF files directly inside dir, deduplicated and sorted.
func (s *batchService) Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputDirMissing, dir)
		}
		return nil, fmt.Errorf("batchService.Discover: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInputDirMissing, dir)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range []string{"*.pdf", "*.PDF"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("batchService.Discover: %w", err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrNoPDFFiles, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run extracts every path. Results keep input order. Per-file failures are
// recorded on their result; once ctx is done no new files start and the
// remaining results carry the context error.
func (s *batchService) Run(ctx context.Context, paths []string, progress ProgressFunc) ([]domain.ExtractionResult, error) {
	results := make([]domain.ExtractionResult, len(paths))
	done := make([]chan struct{}, len(paths))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	go func() {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				results[i] = domain.ExtractionResult{
					Filename: filepath.Base(path),
					FilePath: path,
					Error:    err.Error(),
				}
				close(done[i])
				continue
			}
			g.Go(func() error {
				defer close(done[i])
				results[i] = s.extractor.ExtractFile(ctx, path)
				return nil
			})
		}
	}()

	for i := range paths {
		<-done[i]
		if progress != nil {
			progress(i+1, len(paths), &results[i])
		}
	}
	_ = g.Wait()

	s.log.WithFields(logrus.Fields{
		"files":       len(paths),
		"concurrency": s.concurrency,
	}).Debug("batchService.Run: batch finished")

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batchService.Run: %w", err)
	}
	return results, nil
}

// Summarize totals a batch.
func Summarize(results []domain.ExtractionResult) BatchSummary {
	sum := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.Failed() {
			sum.Failed++
			continue
		}
		sum.Succeeded++
		sum.LineItems += len(r.LineItems)
		for _, li := range r.LineItems {
			if d, ok := extraction.ExtractNumber(li.Amount); ok {
				sum.AmountTotal = sum.AmountTotal.Add(d)
			}
		}
	}
	return sum
}
