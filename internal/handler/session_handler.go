package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// SessionHandler handles upload session endpoints.
type SessionHandler struct {
	sessions service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /api/v1/sessions
// @Summary Process a batch of PDFs as a session
// @Description Stores the uploads, extracts every file, persists the line items, and builds the session workbook
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param files[] formData file true "PDF invoices"
// @Success 201 {object} Response{data=domain.SessionDetail} "Completed session"
// @Failure 400 {object} ErrorResponseBody "Missing files or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Processing failed"
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
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

	detail, err := h.sessions.Process(c.Request.Context(), uploads)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, detail)
}

// List handles GET /api/v1/sessions
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Session,meta=PagMeta} "List of sessions"
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	sessions, total, err := h.sessions.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	RespondPaginated(c, sessions, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/sessions/:id
// @Summary Get a session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=domain.SessionDetail}
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, detail)
}

// ListLineItems handles GET /api/v1/sessions/:id/files/:fileId/line-items
// @Summary List the stored line items of a processed file
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param fileId path string true "File ID"
// @Success 200 {object} Response{data=[]domain.StoredLineItem}
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "File not found"
// @Router /sessions/{id}/files/{fileId}/line-items [get]
func (h *SessionHandler) ListLineItems(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}

	items, err := h.sessions.ListLineItems(c.Request.Context(), sessionID, fileID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if items == nil {
		items = []domain.StoredLineItem{}
	}

	RespondOK(c, items)
}

// GetInvoice handles GET /api/v1/sessions/:id/files/:fileId/invoice
// @Summary Get the stored invoice fields of a processed file
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param fileId path string true "File ID"
// @Success 200 {object} Response{data=domain.StoredInvoice}
// @Failure 404 {object} ErrorResponseBody "File or invoice not found"
// @Router /sessions/{id}/files/{fileId}/invoice [get]
func (h *SessionHandler) GetInvoice(c *gin.Context) {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseID(c, "fileId")
	if !ok {
		return
	}

	invoice, err := h.sessions.GetInvoice(c.Request.Context(), sessionID, fileID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, invoice)
}

// Download handles GET /api/v1/sessions/:id/download
// @Summary Get a download URL for the session workbook
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} Response{data=DownloadURLResponse}
// @Failure 404 {object} ErrorResponseBody "Session not found"
// @Failure 409 {object} ErrorResponseBody "Workbook not ready"
// @Router /sessions/{id}/download [get]
func (h *SessionHandler) Download(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	url, err := h.sessions.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, DownloadURLResponse{DownloadURL: url})
}

// parseID reads a UUID path parameter, responding 400 when it is malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}
