package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
	"invoicegrid/mocks"
)

// delayedExtractor finishes earlier paths last so completion order differs from input order.
type delayedExtractor struct {
	calls atomic.Int32
}

func (d *delayedExtractor) ExtractFile(_ context.Context, path string) domain.ExtractionResult {
	d.calls.Add(1)
	switch filepath.Base(path) {
	case "a.pdf":
		time.Sleep(30 * time.Millisecond)
	case "b.pdf":
		time.Sleep(10 * time.Millisecond)
	}
	return domain.ExtractionResult{
		Filename:  filepath.Base(path),
		FilePath:  path,
		LineItems: []domain.LineItem{{Description: "Item " + filepath.Base(path), Amount: "1.50"}},
	}
}

func (d *delayedExtractor) ExtractUpload(context.Context, service.UploadInput) (*domain.ExtractionResult, error) {
	return nil, nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o600))
	}
}

// --- Discover ---

func TestBatchService_Discover(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "c.pdf", "a.pdf", "B.PDF", "notes.txt", "archive.pdf.bak")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))
	touch(t, filepath.Join(dir, "nested"), "deep.pdf")

	svc := service.NewBatchService(new(mocks.MockExtractionService), 1, testLogger())
	paths, err := svc.Discover(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "B.PDF"),
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "c.pdf"),
	}, paths)
}

func TestBatchService_Discover_Errors(t *testing.T) {
	empty := t.TempDir()
	touch(t, empty, "readme.md")
	file := filepath.Join(t.TempDir(), "file.pdf")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	tests := []struct {
		name string
		dir  string
		want error
	}{
		{"missing directory", filepath.Join(t.TempDir(), "nope"), domain.ErrInputDirMissing},
		{"not a directory", file, domain.ErrInputDirMissing},
		{"no pdfs", empty, domain.ErrNoPDFFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewBatchService(new(mocks.MockExtractionService), 1, testLogger())
			_, err := svc.Discover(tt.dir)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// --- Run ---

func TestBatchService_Run_PreservesInputOrder(t *testing.T) {
	paths := []string{"/in/a.pdf", "/in/b.pdf", "/in/c.pdf", "/in/d.pdf"}
	extractor := &delayedExtractor{}
	svc := service.NewBatchService(extractor, 3, testLogger())

	var seen []int
	results, err := svc.Run(context.Background(), paths, func(index, total int, result *domain.ExtractionResult) {
		assert.Equal(t, 4, total)
		assert.Equal(t, filepath.Base(paths[index-1]), result.Filename)
		seen = append(seen, index)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, paths[i], r.FilePath)
	}
	assert.Equal(t, int32(4), extractor.calls.Load())
}

func TestBatchService_Run_FailuresDoNotAbort(t *testing.T) {
	extractor := new(mocks.MockExtractionService)
	extractor.On("ExtractFile", mock.Anything, "bad.pdf").
		Return(domain.ExtractionResult{Filename: "bad.pdf", Error: "corrupt"})
	extractor.On("ExtractFile", mock.Anything, "good.pdf").
		Return(domain.ExtractionResult{Filename: "good.pdf", LineItems: []domain.LineItem{{Description: "Widget", Amount: "2"}}})
	svc := service.NewBatchService(extractor, 1, testLogger())

	results, err := svc.Run(context.Background(), []string{"bad.pdf", "good.pdf"}, nil)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Failed())
	assert.False(t, results[1].Failed())
	extractor.AssertExpectations(t)
}

func TestBatchService_Run_CancelledContext(t *testing.T) {
	extractor := new(mocks.MockExtractionService)
	svc := service.NewBatchService(extractor, 2, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var progressCalls int
	results, err := svc.Run(ctx, []string{"/in/a.pdf", "/in/b.pdf"}, func(int, int, *domain.ExtractionResult) {
		progressCalls++
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].Filename)
	assert.Equal(t, context.Canceled.Error(), results[1].Error)
	assert.Equal(t, 2, progressCalls)
	extractor.AssertNotCalled(t, "ExtractFile", mock.Anything, mock.Anything)
}

// --- Summarize ---

func TestSummarize(t *testing.T) {
	results := []domain.ExtractionResult{
		{LineItems: []domain.LineItem{{Amount: "1,234.56"}, {Amount: "12,34"}, {Amount: ""}}},
		{Error: "boom", LineItems: []domain.LineItem{{Amount: "999"}}},
		{},
	}

	sum := service.Summarize(results)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, sum.LineItems)
	assert.Equal(t, "1246.9", sum.AmountTotal.String())
}
