package service

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"invoicegrid/internal/domain"
)

// UploadInput is one PDF received over HTTP.
type UploadInput struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// spooledFile is an upload written to local disk for the PDF reader.
type spooledFile struct {
	Filename string
	Path     string
	Size     int64
	Data     []byte
}

// validateUpload checks the name and declared size before any bytes are read.
func validateUpload(in UploadInput, maxBytes int64) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if ext != domain.FileTypePDF {
		return domain.ErrUnsupportedFileType
	}
	if maxBytes > 0 && in.Size > maxBytes {
		return domain.ErrFileTooLarge
	}
	return nil
}

// spoolPDF reads an upload, checks its magic bytes, and writes it under dir.
// Each upload gets its own subdirectory so duplicate names cannot collide.
func spoolPDF(dir string, index int, in UploadInput, maxBytes int64) (*spooledFile, error) {
	if err := validateUpload(in, maxBytes); err != nil {
		return nil, err
	}

	reader := in.Body
	if maxBytes > 0 {
		reader = io.LimitReader(in.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", in.Filename, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if detected := http.DetectContentType(head); detected != domain.ContentTypePDF || !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, domain.ErrUnsupportedFileType
	}

	fileDir := filepath.Join(dir, fmt.Sprintf("%03d", index))
	if err := os.MkdirAll(fileDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating spool dir: %w", err)
	}
	name := filepath.Base(filepath.Clean("/" + in.Filename))
	path := filepath.Join(fileDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("spooling %s: %w", name, err)
	}

	return &spooledFile{Filename: name, Path: path, Size: int64(len(data)), Data: data}, nil
}
