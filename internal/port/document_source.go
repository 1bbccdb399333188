package port

import (
	"context"

	"invoicegrid/internal/domain"
)

// DocumentSource reads page text and table grids out of a PDF.
// Implementations must tolerate pages with no text and no tables.
type DocumentSource interface {
	Open(ctx context.Context, path string) (*domain.Document, error)
}
