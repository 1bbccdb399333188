package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/handler"
	"invoicegrid/internal/service"
	"invoicegrid/mocks"
)

// --- Create ---

func TestSessionHandler_Create_Success(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)
	sessionID := uuid.New()
	detail := &domain.SessionDetail{
		Session: domain.Session{ID: sessionID, Status: domain.SessionStatusCompleted, TotalFiles: 2, ProcessedFiles: 2},
		Files:   []domain.ProcessedFile{{Filename: "a.pdf"}, {Filename: "b.pdf"}},
	}
	svc.On("Process", mock.Anything, mock.MatchedBy(func(in []service.UploadInput) bool {
		return len(in) == 2
	})).Return(detail, nil)

	body, contentType := multipartBody(t, "files[]", map[string][]byte{"a.pdf": pdfBytes(), "b.pdf": pdfBytes()}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool                 `json:"success"`
		Data    domain.SessionDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, sessionID, resp.Data.Session.ID)
	assert.Len(t, resp.Data.Files, 2)
	svc.AssertExpectations(t)
}

func TestSessionHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no files", domain.ErrNoFiles, http.StatusBadRequest},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"storage down", domain.ErrUploadFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockSessionService)
			h := handler.NewSessionHandler(svc)
			svc.On("Process", mock.Anything, mock.Anything).Return(nil, tt.err)

			body, contentType := multipartBody(t, "files[]", map[string][]byte{"a.pdf": pdfBytes()}, nil)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sessions", body)
			c.Request.Header.Set("Content-Type", contentType)

			h.Create(c)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSessionHandler_Create_NotMultipart(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sessions", http.NoBody)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_FILE")
	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestSessionHandler_Create_MalformedMultipart(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("not a multipart body"))
	c.Request.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

// --- List ---

func TestSessionHandler_List_ClampsPagination(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)
	svc.On("List", mock.Anything, 0, 20).Return(nil, 0, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/sessions?offset=-5&limit=1000", http.NoBody)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []interface{}{}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 20, resp.Meta.Limit)
	svc.AssertExpectations(t)
}

// --- GetByID ---

func TestSessionHandler_GetByID(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name  string
		param string
		setup func(svc *mocks.MockSessionService)
		want  int
	}{
		{
			name:  "found",
			param: id.String(),
			setup: func(svc *mocks.MockSessionService) {
				svc.On("Get", mock.Anything, id).Return(&domain.SessionDetail{Session: domain.Session{ID: id}}, nil)
			},
			want: http.StatusOK,
		},
		{
			name:  "not found",
			param: id.String(),
			setup: func(svc *mocks.MockSessionService) {
				svc.On("Get", mock.Anything, id).Return(nil, domain.ErrSessionNotFound)
			},
			want: http.StatusNotFound,
		},
		{
			name:  "invalid id",
			param: "not-a-uuid",
			setup: func(*mocks.MockSessionService) {},
			want:  http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockSessionService)
			tt.setup(svc)
			h := handler.NewSessionHandler(svc)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/sessions/"+tt.param, http.NoBody)
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			h.GetByID(c)

			assert.Equal(t, tt.want, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

// --- File resources ---

func TestSessionHandler_ListLineItems(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)
	sessionID, fileID := uuid.New(), uuid.New()
	items := []domain.StoredLineItem{{FileID: fileID, Position: 1, LineItem: domain.LineItem{Description: "Widget A", Amount: "30.00"}}}
	svc.On("ListLineItems", mock.Anything, sessionID, fileID).Return(items, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: sessionID.String()}, {Key: "fileId", Value: fileID.String()}}

	h.ListLineItems(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []domain.StoredLineItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Widget A", resp.Data[0].Description)
}

func TestSessionHandler_ListLineItems_InvalidFileID(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}, {Key: "fileId", Value: "x"}}

	h.ListLineItems(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid fileId format")
}

func TestSessionHandler_GetInvoice_FileNotFound(t *testing.T) {
	svc := new(mocks.MockSessionService)
	h := handler.NewSessionHandler(svc)
	svc.On("GetInvoice", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrFileNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: uuid.NewString()}, {Key: "fileId", Value: uuid.NewString()}}

	h.GetInvoice(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_NOT_FOUND")
}

// --- Download ---

func TestSessionHandler_Download(t *testing.T) {
	tests := []struct {
		name string
		url  string
		err  error
		want int
	}{
		{"ready", "https://example.com/signed", nil, http.StatusOK},
		{"not ready", "", domain.ErrOutputNotReady, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockSessionService)
			h := handler.NewSessionHandler(svc)
			id := uuid.New()
			svc.On("GetDownloadURL", mock.Anything, id).Return(tt.url, tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodGet, "/", http.NoBody)
			c.Params = gin.Params{{Key: "id", Value: id.String()}}

			h.Download(c)

			assert.Equal(t, tt.want, w.Code)
			if tt.url != "" {
				assert.Contains(t, w.Body.String(), tt.url)
			}
		})
	}
}
