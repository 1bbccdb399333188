package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// multipartBody builds a form with each file under field and the given extra values.
func multipartBody(t *testing.T, field string, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4 test content")
}

// --- MapDomainError ---

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{domain.ErrFileNotFound, http.StatusNotFound, "FILE_NOT_FOUND"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrNoFiles, http.StatusBadRequest, "MISSING_FILE"},
		{fmt.Errorf("%w: unexpected EOF", domain.ErrMalformedUpload), http.StatusBadRequest, "INVALID_REQUEST"},
		{fmt.Errorf("scan.docx: %w", domain.ErrUnsupportedFileType), http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrOutputNotReady, http.StatusConflict, "OUTPUT_NOT_READY"},
		{domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED"},
		{domain.ErrExportFailed, http.StatusInternalServerError, "EXPORT_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, msg := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.NotEmpty(t, msg)
		})
	}
}

// --- Health ---

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		pinger stubPinger
		call   func(h *handler.HealthHandler, c *gin.Context)
		want   int
	}{
		{"liveness", stubPinger{}, (*handler.HealthHandler).Liveness, http.StatusOK},
		{"readiness ok", stubPinger{}, (*handler.HealthHandler).Readiness, http.StatusOK},
		{"readiness db down", stubPinger{err: errors.New("refused")}, (*handler.HealthHandler).Readiness, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.pinger)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)

			tt.call(h, c)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
