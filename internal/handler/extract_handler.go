package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicegrid/internal/csvexport"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// ExtractHandler handles one-shot extraction and export endpoints.
type ExtractHandler struct {
	extractor service.ExtractionService
	exporter  service.ExportService
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(extractor service.ExtractionService, exporter service.ExportService) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, exporter: exporter}
}

// Extract handles POST /api/v1/extract
// @Summary Extract line items from a PDF
// @Description Extract text, tables, invoice fields, and line items from a single PDF
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF invoice"
// @Success 200 {object} Response{data=domain.ExtractionResult} "Extraction result; a failed extraction carries its error"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Router /extract [post]
func (h *ExtractHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.extractor.ExtractUpload(c.Request.Context(), service.UploadInput{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Export handles POST /api/v1/export
// @Summary Extract several PDFs and download the report
// @Description Runs extraction on every uploaded PDF and returns a workbook (default) or CSV of the results
// @Tags extraction
// @Accept multipart/form-data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param files[] formData file true "PDF invoices"
// @Param format formData string false "Output format" Enums(xlsx, csv) default(xlsx)
// @Param name formData string false "Download name without extension"
// @Success 200 {file} file "Workbook or CSV attachment"
// @Failure 400 {object} ErrorResponseBody "Missing files, malformed form, unsupported type, or unknown format"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Export failed"
// @Router /export [post]
func (h *ExtractHandler) Export(c *gin.Context) {
	format := c.DefaultPostForm("format", service.FormatXLSX)
	if format != service.FormatXLSX && format != service.FormatCSV {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}

	uploads, closeAll, err := formUploads(c)
	defer closeAll()
	if err != nil {
		HandleError(c, err)
		return
	}
	if len(uploads) == 0 {
		HandleError(c, domain.ErrNoFiles)
		return
	}

	ctx := c.Request.Context()
	results := make([]domain.ExtractionResult, 0, len(uploads))
	for _, u := range uploads {
		result, err := h.extractor.ExtractUpload(ctx, u)
		if err != nil {
			HandleError(c, fmt.Errorf("%s: %w", u.Filename, err))
			return
		}
		results = append(results, *result)
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(ctx, format, results, &buf); err != nil {
		HandleError(c, err)
		return
	}

	name := csvexport.BuildFilename(c.DefaultPostForm("name", "extracted_data"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, service.ContentType(format), buf.Bytes())
}
