package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// DownloadURLResponse carries a presigned link to a session workbook.
type DownloadURLResponse struct {
	DownloadURL string `json:"download_url" example:"https://invoicegrid-uploads.s3.amazonaws.com/sessions/...?X-Amz-Signature=..."`
}

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
