package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/service"
	"invoicegrid/mocks"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func bothEnabled() config.ExtractionConfig {
	return config.ExtractionConfig{ExtractTables: true, ExtractText: true, HeaderMode: "strict"}
}

func grid(rows ...[]string) [][]*string {
	out := make([][]*string, len(rows))
	for i, r := range rows {
		out[i] = make([]*string, len(r))
		for j := range r {
			v := r[j]
			out[i][j] = &v
		}
	}
	return out
}

func invoiceDocument() *domain.Document {
	return &domain.Document{
		PageCount: 2,
		Metadata:  domain.DocumentMetadata{Pages: 2, Title: "Invoice", FileSizeBytes: 4096},
		Pages: []domain.Page{
			{
				Number: 1,
				Text:   "ACME SUPPLIES\nInvoice #: INV-1001\nDescription Quantity Unit Price Amount\nWidget A 3 10.00 30.00",
				Tables: [][][]*string{grid(
					[]string{"Description", "Quantity", "Unit Price", "Amount"},
					[]string{"Widget A", "3", "10.00", "30.00"},
				)},
				DetectionMethod: domain.DetectionRuled,
			},
			{Number: 2, Text: "Total: 30.00"},
		},
	}
}

func newExtractionService(source *mocks.MockDocumentSource, cfg config.ExtractionConfig) service.ExtractionService {
	return service.NewExtractionService(source, extraction.NewPipeline(extraction.DefaultRules(), nil), cfg, 1, nil, testLogger())
}

// pdfContent returns minimal bytes that sniff as a PDF.
func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

// --- ExtractFile ---

func TestExtractionService_ExtractFile_Success(t *testing.T) {
	source := new(mocks.MockDocumentSource)
	source.On("Open", mock.Anything, "/in/acme.pdf").Return(invoiceDocument(), nil)
	svc := newExtractionService(source, bothEnabled())

	result := svc.ExtractFile(context.Background(), "/in/acme.pdf")

	assert.False(t, result.Failed())
	assert.Equal(t, "acme.pdf", result.Filename)
	assert.Equal(t, "/in/acme.pdf", result.FilePath)
	assert.Equal(t, "Invoice", result.Metadata.Title)
	assert.True(t, strings.HasPrefix(result.Text, "Page 1:\nACME SUPPLIES\n"))
	assert.Contains(t, result.Text, "\n\nPage 2:\nTotal: 30.00\n")

	require.Len(t, result.Tables, 1)
	assert.Equal(t, 1, result.Tables[0].Page)
	assert.Equal(t, 1, result.Tables[0].TableNumber)
	assert.Equal(t, domain.DetectionRuled, result.Tables[0].DetectionMethod)

	require.Len(t, result.LineItems, 1)
	assert.Equal(t, "Widget A", result.LineItems[0].Description)
	assert.Equal(t, domain.SourceTableParsing, result.LineItems[0].Source)
	assert.Equal(t, "INV-1001", result.Invoice.InvoiceNumber)
	source.AssertExpectations(t)
}

func TestExtractionService_ExtractFile_SourceErrorIsRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

	source := new(mocks.MockDocumentSource)
	source.On("Open", mock.Anything, path).Return(nil, errors.New("pdfsource.Open: malformed PDF"))
	svc := newExtractionService(source, bothEnabled())

	result := svc.ExtractFile(context.Background(), path)

	assert.True(t, result.Failed())
	assert.Equal(t, "pdfsource.Open: malformed PDF", result.Error)
	assert.NotNil(t, result.LineItems)
	assert.Empty(t, result.LineItems)
	assert.Equal(t, int64(9), result.Metadata.FileSizeBytes)
}

func TestExtractionService_ExtractFile_TablesDisabledUsesTextFallback(t *testing.T) {
	doc := &domain.Document{PageCount: 1, Pages: []domain.Page{{
		Number: 1,
		Text:   "Consulting services rendered this month    $1,250.00",
		Tables: [][][]*string{grid([]string{"Description", "Amount"}, []string{"Widget A", "30.00"})},
	}}}
	source := new(mocks.MockDocumentSource)
	source.On("Open", mock.Anything, "x.pdf").Return(doc, nil)
	cfg := bothEnabled()
	cfg.ExtractTables = false
	svc := newExtractionService(source, cfg)

	result := svc.ExtractFile(context.Background(), "x.pdf")

	assert.Empty(t, result.Tables)
	require.Len(t, result.LineItems, 1)
	assert.Equal(t, domain.SourceTextParsing, result.LineItems[0].Source)
	assert.Equal(t, "1,250.00", result.LineItems[0].Amount)
}

func TestExtractionService_ExtractFile_TextDisabled(t *testing.T) {
	source := new(mocks.MockDocumentSource)
	source.On("Open", mock.Anything, "x.pdf").Return(invoiceDocument(), nil)
	cfg := bothEnabled()
	cfg.ExtractText = false
	svc := newExtractionService(source, cfg)

	result := svc.ExtractFile(context.Background(), "x.pdf")

	assert.Empty(t, result.Text)
	assert.Equal(t, domain.InvoiceMetadata{}, result.Invoice)
	assert.Len(t, result.LineItems, 1)
}

// --- ExtractUpload ---

func TestExtractionService_ExtractUpload(t *testing.T) {
	source := new(mocks.MockDocumentSource)
	source.On("Open", mock.Anything, mock.MatchedBy(func(p string) bool {
		return filepath.Base(p) == "march.pdf"
	})).Return(invoiceDocument(), nil)
	svc := newExtractionService(source, bothEnabled())

	result, err := svc.ExtractUpload(context.Background(), service.UploadInput{
		Filename: "march.pdf",
		Size:     int64(len(pdfContent())),
		Body:     bytes.NewReader(pdfContent()),
	})

	require.NoError(t, err)
	assert.Equal(t, "march.pdf", result.Filename)
	assert.Equal(t, "march.pdf", result.FilePath)
	assert.Len(t, result.LineItems, 1)
}

func TestExtractionService_ExtractUpload_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		input service.UploadInput
		want  error
	}{
		{"wrong extension", service.UploadInput{Filename: "photo.png", Size: 10, Body: bytes.NewReader(pdfContent())}, domain.ErrUnsupportedFileType},
		{"declared too large", service.UploadInput{Filename: "big.pdf", Size: 2 * 1024 * 1024, Body: bytes.NewReader(pdfContent())}, domain.ErrFileTooLarge},
		{"not really a pdf", service.UploadInput{Filename: "fake.pdf", Size: 5, Body: strings.NewReader("hello")}, domain.ErrUnsupportedFileType},
		{"body larger than declared", service.UploadInput{Filename: "sneaky.pdf", Size: 10, Body: bytes.NewReader(append(pdfContent(), make([]byte, 2*1024*1024)...))}, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(mocks.MockDocumentSource)
			svc := newExtractionService(source, bothEnabled())

			_, err := svc.ExtractUpload(context.Background(), tt.input)

			assert.ErrorIs(t, err, tt.want)
			source.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
		})
	}
}
