package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrFileNotFound        = errors.New("processed file not found")
	ErrInputDirMissing     = errors.New("input directory does not exist")
	ErrNoPDFFiles          = errors.New("no PDF files found")
	ErrNoFiles             = errors.New("no files provided")
	ErrMalformedUpload     = errors.New("malformed multipart upload")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrExportFailed        = errors.New("export failed")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrOutputNotReady      = errors.New("session output is not available")
	ErrCipherKeyMissing    = errors.New("field cipher passphrase is not configured")
	ErrDecryptFailed       = errors.New("field decryption failed")
)
