package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/port"
)

// lineItemRow is the line_items table shape. Description holds ciphertext.
type lineItemRow struct {
	ID          uuid.UUID        `db:"id"`
	FileID      uuid.UUID        `db:"file_id"`
	Position    int              `db:"position"`
	Description string           `db:"description"`
	Quantity    string           `db:"quantity"`
	UnitPrice   string           `db:"unit_price"`
	VAT         string           `db:"vat"`
	Amount      string           `db:"amount"`
	AmountValue *decimal.Decimal `db:"amount_value"`
	Extra       json.RawMessage  `db:"extra"`
	Source      string           `db:"source"`
	Page        int              `db:"page"`
	TableNumber int              `db:"table_number"`
	RowNumber   int              `db:"row_number"`
	CreatedAt   time.Time        `db:"created_at"`
}

func newLineItemRow(c port.FieldCipher, fileID uuid.UUID, position int, li *domain.LineItem, now time.Time) (lineItemRow, error) {
	desc, err := c.Encrypt(li.Description)
	if err != nil {
		return lineItemRow{}, fmt.Errorf("encrypting description: %w", err)
	}
	extra := json.RawMessage("{}")
	if len(li.Extra) > 0 {
		if extra, err = json.Marshal(li.Extra); err != nil {
			return lineItemRow{}, fmt.Errorf("encoding extra fields: %w", err)
		}
	}
	return lineItemRow{
		ID:          uuid.New(),
		FileID:      fileID,
		Position:    position,
		Description: desc,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		VAT:         li.VAT,
		Amount:      li.Amount,
		AmountValue: parseAmount(li.Amount),
		Extra:       extra,
		Source:      string(li.Source),
		Page:        li.Page,
		TableNumber: li.TableNumber,
		RowNumber:   li.RowNumber,
		CreatedAt:   now,
	}, nil
}

func (row *lineItemRow) toDomain(c port.FieldCipher) (domain.StoredLineItem, error) {
	desc, err := c.Decrypt(row.Description)
	if err != nil {
		return domain.StoredLineItem{}, fmt.Errorf("line item %s: %w", row.ID, err)
	}
	var extra map[string]string
	if len(row.Extra) > 0 {
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return domain.StoredLineItem{}, fmt.Errorf("line item %s extra: %w", row.ID, err)
		}
		if len(extra) == 0 {
			extra = nil
		}
	}
	return domain.StoredLineItem{
		ID:          row.ID,
		FileID:      row.FileID,
		Position:    row.Position,
		AmountValue: row.AmountValue,
		CreatedAt:   row.CreatedAt,
		LineItem: domain.LineItem{
			Description: desc,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
			VAT:         row.VAT,
			Amount:      row.Amount,
			Extra:       extra,
			Source:      domain.LineItemSource(row.Source),
			Provenance: domain.Provenance{
				Page:        row.Page,
				TableNumber: row.TableNumber,
				RowNumber:   row.RowNumber,
			},
		},
	}, nil
}

// invoiceRow is the invoices table shape. InvoiceNumber and Vendor hold ciphertext.
type invoiceRow struct {
	FileID        uuid.UUID        `db:"file_id"`
	InvoiceNumber string           `db:"invoice_number"`
	Date          string           `db:"invoice_date"`
	Vendor        string           `db:"vendor"`
	TotalAmount   string           `db:"total_amount"`
	TotalValue    *decimal.Decimal `db:"total_value"`
	CreatedAt     time.Time        `db:"created_at"`
}

func newInvoiceRow(c port.FieldCipher, fileID uuid.UUID, meta domain.InvoiceMetadata, now time.Time) (invoiceRow, error) {
	number, err := c.Encrypt(meta.InvoiceNumber)
	if err != nil {
		return invoiceRow{}, fmt.Errorf("encrypting invoice number: %w", err)
	}
	vendor, err := c.Encrypt(meta.Vendor)
	if err != nil {
		return invoiceRow{}, fmt.Errorf("encrypting vendor: %w", err)
	}
	return invoiceRow{
		FileID:        fileID,
		InvoiceNumber: number,
		Date:          meta.Date,
		Vendor:        vendor,
		TotalAmount:   meta.TotalAmount,
		TotalValue:    parseAmount(meta.TotalAmount),
		CreatedAt:     now,
	}, nil
}

func (row *invoiceRow) toDomain(c port.FieldCipher) (*domain.StoredInvoice, error) {
	number, err := c.Decrypt(row.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("invoice number: %w", err)
	}
	vendor, err := c.Decrypt(row.Vendor)
	if err != nil {
		return nil, fmt.Errorf("vendor: %w", err)
	}
	return &domain.StoredInvoice{
		FileID:     row.FileID,
		TotalValue: row.TotalValue,
		CreatedAt:  row.CreatedAt,
		InvoiceMetadata: domain.InvoiceMetadata{
			InvoiceNumber: number,
			Date:          row.Date,
			Vendor:        vendor,
			TotalAmount:   row.TotalAmount,
		},
	}, nil
}

func parseAmount(s string) *decimal.Decimal {
	d, ok := extraction.ExtractNumber(s)
	if !ok {
		return nil
	}
	return &d
}
