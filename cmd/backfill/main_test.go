package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
	"invoicegrid/mocks"
)

type backfillDeps struct {
	repo      *mocks.MockSessionRepo
	storage   *mocks.MockObjectStorage
	extractor *mocks.MockExtractionService
	exporter  *mocks.MockExportService
	session   *domain.Session
	files     []domain.ProcessedFile
}

func newBackfillDeps() *backfillDeps {
	sessionID := uuid.New()
	d := &backfillDeps{
		repo:      new(mocks.MockSessionRepo),
		storage:   new(mocks.MockObjectStorage),
		extractor: new(mocks.MockExtractionService),
		exporter:  new(mocks.MockExportService),
		session: &domain.Session{
			ID:           sessionID,
			Status:       domain.SessionStatusCompleted,
			OutputBucket: "test-bucket",
			OutputKey:    "sessions/" + sessionID.String() + "/extracted_data.xlsx",
		},
		files: []domain.ProcessedFile{
			{ID: uuid.New(), SessionID: sessionID, Filename: "a.pdf", StorageBucket: "test-bucket", StorageKey: "uploads/a.pdf", Status: domain.FileStatusCompleted},
			{ID: uuid.New(), SessionID: sessionID, Filename: "b.pdf", Status: domain.FileStatusFailed, ErrorMessage: "malformed PDF"},
		},
	}
	d.repo.On("ListFiles", mock.Anything, sessionID).Return(d.files, nil)
	return d
}

func (d *backfillDeps) run(t *testing.T) (int, error) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return backfillSession(context.Background(), d.repo, d.storage, d.extractor, d.exporter, t.TempDir(), d.session, logger)
}

func TestBackfillSession_RegeneratesWorkbook(t *testing.T) {
	d := newBackfillDeps()
	fresh := domain.ExtractionResult{
		Metadata:  domain.DocumentMetadata{Pages: 2},
		LineItems: []domain.LineItem{{Description: "Widget A", Amount: "30.00"}, {Description: "Widget B", Amount: "12.00"}},
	}
	d.storage.On("Download", mock.Anything, "test-bucket", "uploads/a.pdf").Return([]byte("%PDF-1.4"), nil)
	d.extractor.On("ExtractFile", mock.Anything, mock.AnythingOfType("string")).Return(fresh)
	d.repo.On("SaveResult", mock.Anything, d.files[0].ID, mock.MatchedBy(func(r *domain.ExtractionResult) bool {
		return r.Filename == "a.pdf" && len(r.LineItems) == 2
	})).Return(nil)
	d.repo.On("UpdateFile", mock.Anything, mock.MatchedBy(func(f *domain.ProcessedFile) bool {
		return f.NumLineItems == 2 && f.NumPages == 2 && f.ProcessedAt != nil
	})).Return(nil)
	d.exporter.On("Upload", mock.Anything, service.FormatXLSX, mock.MatchedBy(func(rs []domain.ExtractionResult) bool {
		return len(rs) == 2 &&
			rs[0].Filename == "a.pdf" && len(rs[0].LineItems) == 2 &&
			rs[1].Filename == "b.pdf" && rs[1].Failed()
	}), "test-bucket", d.session.OutputKey).Return(nil)

	n, err := d.run(t)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	d.repo.AssertExpectations(t)
	d.exporter.AssertExpectations(t)
}

func TestBackfillSession_SkippedFileLeavesWorkbook(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *backfillDeps)
	}{
		{
			name: "download failed",
			setup: func(d *backfillDeps) {
				d.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
			},
		},
		{
			name: "extraction failed",
			setup: func(d *backfillDeps) {
				d.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
				d.extractor.On("ExtractFile", mock.Anything, mock.Anything).Return(domain.ExtractionResult{Error: "corrupt"})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newBackfillDeps()
			tt.setup(d)

			n, err := d.run(t)

			require.NoError(t, err)
			assert.Equal(t, 0, n)
			d.repo.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything, mock.Anything)
			d.exporter.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBackfillSession_ExportError(t *testing.T) {
	d := newBackfillDeps()
	d.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	d.extractor.On("ExtractFile", mock.Anything, mock.Anything).
		Return(domain.ExtractionResult{LineItems: []domain.LineItem{{Description: "Widget A", Amount: "30.00"}}})
	d.repo.On("SaveResult", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	d.repo.On("UpdateFile", mock.Anything, mock.Anything).Return(nil)
	d.exporter.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrUploadFailed)

	n, err := d.run(t)

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Equal(t, 1, n)
}
