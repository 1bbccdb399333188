package domain

// LineItemSource records which strategy produced a line item.
type LineItemSource string

const (
	SourceTableParsing LineItemSource = "table_parsing"
	SourceTextParsing  LineItemSource = "text_parsing"
)

// Canonical line item field keys.
const (
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unit_price"
	FieldVAT         = "vat"
	FieldAmount      = "amount"
)

// CanonicalFields lists the canonical keys in the order exports show them.
var CanonicalFields = []string{FieldDescription, FieldQuantity, FieldUnitPrice, FieldVAT, FieldAmount}

// InternalFields are record keys that never surface as export columns.
var InternalFields = map[string]bool{
	"filename":     true,
	"page":         true,
	"table_number": true,
	"row_number":   true,
	"source":       true,
}

// Table detection methods reported by the acquisition layer.
const (
	DetectionRuled = "ruled"
	DetectionText  = "text-based"
)

// SessionStatus tracks processing of an upload session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// FileStatus tracks processing of a single file within a session.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// Accepted upload type and produced artifact content types.
const (
	FileTypePDF     = "pdf"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)
