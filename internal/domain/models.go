package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawTable is one table grid detected on a PDF page. A nil cell is an absent cell.
type RawTable struct {
	Page            int         `json:"page"`
	TableNumber     int         `json:"table_number"`
	Rows            [][]*string `json:"rows"`
	DetectionMethod string      `json:"detection_method,omitempty"`
}

// RowCount returns the number of rows in the grid.
func (t *RawTable) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the width of the first row, matching how the grid was reported.
func (t *RawTable) ColumnCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// HeaderRow is the row of a RawTable judged to hold column labels.
type HeaderRow struct {
	RowIndex int
	Labels   []string
}

// Provenance records where an extracted record came from.
type Provenance struct {
	Page        int `json:"page,omitempty"`
	TableNumber int `json:"table_number,omitempty"`
	RowNumber   int `json:"row_number,omitempty"`
}

// CandidateRecord maps cleaned header keys to raw cell values for one data row.
// Keys preserves column order so iteration is deterministic.
type CandidateRecord struct {
	Fields     map[string]string
	Keys       []string
	Provenance Provenance
}

// NewCandidateRecord creates an empty record for the given provenance.
func NewCandidateRecord(prov Provenance) CandidateRecord {
	return CandidateRecord{Fields: make(map[string]string), Provenance: prov}
}

// Set stores value under key. A repeated key overwrites the value but keeps its position.
func (r *CandidateRecord) Set(key, value string) {
	if _, exists := r.Fields[key]; !exists {
		r.Keys = append(r.Keys, key)
	}
	r.Fields[key] = value
}

// Values returns the field values in column order.
func (r *CandidateRecord) Values() []string {
	out := make([]string, 0, len(r.Keys))
	for _, k := range r.Keys {
		out = append(out, r.Fields[k])
	}
	return out
}

// LineItem is one purchased product or service extracted from an invoice.
type LineItem struct {
	Description string            `json:"description"`
	Quantity    string            `json:"quantity,omitempty"`
	UnitPrice   string            `json:"unit_price,omitempty"`
	Amount      string            `json:"amount,omitempty"`
	VAT         string            `json:"vat,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
	Source      LineItemSource    `json:"source"`
	Provenance
}

// Field returns the value of a canonical or extra field by key.
func (li *LineItem) Field(key string) (string, bool) {
	var v string
	switch key {
	case FieldDescription:
		v = li.Description
	case FieldQuantity:
		v = li.Quantity
	case FieldUnitPrice:
		v = li.UnitPrice
	case FieldAmount:
		v = li.Amount
	case FieldVAT:
		v = li.VAT
	default:
		v = li.Extra[key]
	}
	return v, v != ""
}

// Keys returns the keys of every populated field on the item.
func (li *LineItem) Keys() []string {
	var keys []string
	for _, k := range CanonicalFields {
		if _, ok := li.Field(k); ok {
			keys = append(keys, k)
		}
	}
	for k, v := range li.Extra {
		if v != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Valid reports whether the item satisfies the minimum line item contract.
func (li *LineItem) Valid() bool {
	return len(li.Description) > 3 && (li.UnitPrice != "" || li.Amount != "")
}

// InvoiceMetadata holds invoice-level fields pulled from the document text.
type InvoiceMetadata struct {
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Date          string `json:"date,omitempty"`
	Vendor        string `json:"vendor,omitempty"`
	TotalAmount   string `json:"total_amount,omitempty"`
}

// DocumentMetadata describes the PDF itself.
type DocumentMetadata struct {
	Pages         int    `json:"pages"`
	Title         string `json:"title,omitempty"`
	Author        string `json:"author,omitempty"`
	Creator       string `json:"creator,omitempty"`
	CreationDate  string `json:"creation_date,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Page is the acquisition output for a single PDF page.
type Page struct {
	Number          int
	Text            string
	Tables          [][][]*string
	DetectionMethod string
}

// Document is everything the acquisition layer could read from one PDF.
type Document struct {
	PageCount int
	Pages     []Page
	Metadata  DocumentMetadata
}

// ExtractionResult is the per-file aggregate handed to exporters and stores.
type ExtractionResult struct {
	Filename    string           `json:"filename"`
	FilePath    string           `json:"file_path"`
	Text        string           `json:"text"`
	Tables      []RawTable       `json:"tables"`
	LineItems   []LineItem       `json:"line_items"`
	Invoice     InvoiceMetadata  `json:"invoice"`
	Metadata    DocumentMetadata `json:"metadata"`
	ExtractedAt time.Time        `json:"extracted_at"`
	Error       string           `json:"error,omitempty"`
}

// Failed reports whether extraction of the file failed.
func (r *ExtractionResult) Failed() bool {
	return r.Error != ""
}

// HasText reports whether any non-blank text was extracted.
func (r *ExtractionResult) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// Session is one batch of uploaded PDFs processed together.
type Session struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	Status         SessionStatus `db:"status" json:"status"`
	TotalFiles     int           `db:"total_files" json:"total_files"`
	ProcessedFiles int           `db:"processed_files" json:"processed_files"`
	OutputBucket   string        `db:"output_bucket" json:"-"`
	OutputKey      string        `db:"output_key" json:"output_key,omitempty"`
	ErrorMessage   string        `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
	CompletedAt    *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
}

// ProcessedFile tracks one PDF within a session.
type ProcessedFile struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	SessionID     uuid.UUID  `db:"session_id" json:"session_id"`
	Filename      string     `db:"filename" json:"filename"`
	StorageBucket string     `db:"storage_bucket" json:"-"`
	StorageKey    string     `db:"storage_key" json:"storage_key"`
	FileSize      int64      `db:"file_size" json:"file_size"`
	Status        FileStatus `db:"status" json:"status"`
	ErrorMessage  string     `db:"error_message" json:"error_message,omitempty"`
	NumPages      int        `db:"num_pages" json:"num_pages"`
	NumTables     int        `db:"num_tables" json:"num_tables"`
	NumLineItems  int        `db:"num_line_items" json:"num_line_items"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// SessionDetail bundles a session with its files.
type SessionDetail struct {
	Session Session         `json:"session"`
	Files   []ProcessedFile `json:"files"`
}

// StoredLineItem is a line item as persisted for a processed file.
type StoredLineItem struct {
	ID          uuid.UUID        `json:"id"`
	FileID      uuid.UUID        `json:"file_id"`
	Position    int              `json:"position"`
	AmountValue *decimal.Decimal `json:"amount_value,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	LineItem
}

// StoredInvoice is the invoice metadata persisted for a processed file.
type StoredInvoice struct {
	FileID     uuid.UUID        `json:"file_id"`
	TotalValue *decimal.Decimal `json:"total_value,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	InvoiceMetadata
}
