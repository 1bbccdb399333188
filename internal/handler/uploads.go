package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// multiFileFields are the form fields accepted for multi-file uploads.
var multiFileFields = []string{"files[]", "files"}

// formUploads opens every uploaded file of a multi-file form.
// The returned close func must be called once the bodies are consumed.
// A request that is not multipart at all yields no uploads; a multipart body
// that cannot be parsed yields domain.ErrMalformedUpload.
func formUploads(c *gin.Context) ([]service.UploadInput, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, fmt.Errorf("%w: %w", domain.ErrMalformedUpload, err)
	}

	var headers []*multipart.FileHeader
	for _, field := range multiFileFields {
		headers = append(headers, form.File[field]...)
	}

	uploads := make([]service.UploadInput, 0, len(headers))
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		uploads = append(uploads, service.UploadInput{Filename: h.Filename, Size: h.Size, Body: f})
	}
	return uploads, closeAll, nil
}
