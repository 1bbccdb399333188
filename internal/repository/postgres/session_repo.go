package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/port"
)

type sessionRepo struct {
	db     *sqlx.DB
	cipher port.FieldCipher
}

// NewSessionRepo creates a PostgreSQL-backed SessionRepository. Sensitive
// line item and invoice fields pass through cipher on the way in and out.
func NewSessionRepo(db *sqlx.DB, cipher port.FieldCipher) port.SessionRepository {
	return &sessionRepo{db: db, cipher: cipher}
}

func (r *sessionRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	query := `INSERT INTO sessions (id, status, total_files, processed_files, output_bucket, output_key,
			error_message, created_at, updated_at, completed_at)
		VALUES (:id, :status, :total_files, :processed_files, :output_bucket, :output_key,
			:error_message, :created_at, :updated_at, :completed_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("sessionRepo.CreateSession: %w", err)
	}
	return nil
}

func (r *sessionRepo) UpdateSession(ctx context.Context, s *domain.Session) error {
	s.UpdatedAt = time.Now().UTC()

	query := `UPDATE sessions SET status = :status, total_files = :total_files,
			processed_files = :processed_files, output_bucket = :output_bucket, output_key = :output_key,
			error_message = :error_message, updated_at = :updated_at, completed_at = :completed_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateSession: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	err := r.db.GetContext(ctx, &s, "SELECT * FROM sessions WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetSession: %w", err)
	}
	return &s, nil
}

func (r *sessionRepo) ListSessions(ctx context.Context, offset, limit int) ([]domain.Session, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sessions"); err != nil {
		return nil, 0, fmt.Errorf("sessionRepo.ListSessions count: %w", err)
	}

	var sessions []domain.Session
	err := r.db.SelectContext(ctx, &sessions,
		"SELECT * FROM sessions ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sessionRepo.ListSessions: %w", err)
	}
	return sessions, total, nil
}

func (r *sessionRepo) CreateFile(ctx context.Context, f *domain.ProcessedFile) error {
	f.CreatedAt = time.Now().UTC()

	query := `INSERT INTO processed_files (id, session_id, filename, storage_bucket, storage_key, file_size,
			status, error_message, num_pages, num_tables, num_line_items, created_at, processed_at)
		VALUES (:id, :session_id, :filename, :storage_bucket, :storage_key, :file_size,
			:status, :error_message, :num_pages, :num_tables, :num_line_items, :created_at, :processed_at)`

	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("sessionRepo.CreateFile: %w", err)
	}
	return nil
}

func (r *sessionRepo) UpdateFile(ctx context.Context, f *domain.ProcessedFile) error {
	query := `UPDATE processed_files SET storage_bucket = :storage_bucket, storage_key = :storage_key,
			file_size = :file_size, status = :status, error_message = :error_message, num_pages = :num_pages,
			num_tables = :num_tables, num_line_items = :num_line_items, processed_at = :processed_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, f)
	if err != nil {
		return fmt.Errorf("sessionRepo.UpdateFile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

func (r *sessionRepo) GetFile(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.ProcessedFile, error) {
	var f domain.ProcessedFile
	err := r.db.GetContext(ctx, &f,
		"SELECT * FROM processed_files WHERE id = $1 AND session_id = $2", fileID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetFile: %w", err)
	}
	return &f, nil
}

func (r *sessionRepo) ListFiles(ctx context.Context, sessionID uuid.UUID) ([]domain.ProcessedFile, error) {
	var files []domain.ProcessedFile
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM processed_files WHERE session_id = $1 ORDER BY created_at, filename", sessionID)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListFiles: %w", err)
	}
	return files, nil
}

func (r *sessionRepo) SaveResult(ctx context.Context, fileID uuid.UUID, result *domain.ExtractionResult) error {
	now := time.Now().UTC()

	items := make([]lineItemRow, 0, len(result.LineItems))
	for i := range result.LineItems {
		row, err := newLineItemRow(r.cipher, fileID, i, &result.LineItems[i], now)
		if err != nil {
			return fmt.Errorf("sessionRepo.SaveResult: %w", err)
		}
		items = append(items, row)
	}
	invoice, err := newInvoiceRow(r.cipher, fileID, result.Invoice, now)
	if err != nil {
		return fmt.Errorf("sessionRepo.SaveResult: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sessionRepo.SaveResult begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE file_id = $1", fileID); err != nil {
		return fmt.Errorf("sessionRepo.SaveResult clear items: %w", err)
	}
	if len(items) > 0 {
		query := `INSERT INTO line_items (id, file_id, position, description, quantity, unit_price, vat, amount,
				amount_value, extra, source, page, table_number, row_number, created_at)
			VALUES (:id, :file_id, :position, :description, :quantity, :unit_price, :vat, :amount,
				:amount_value, :extra, :source, :page, :table_number, :row_number, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, items); err != nil {
			return fmt.Errorf("sessionRepo.SaveResult items: %w", err)
		}
	}

	query := `INSERT INTO invoices (file_id, invoice_number, invoice_date, vendor, total_amount, total_value, created_at)
		VALUES (:file_id, :invoice_number, :invoice_date, :vendor, :total_amount, :total_value, :created_at)
		ON CONFLICT (file_id) DO UPDATE SET
			invoice_number = EXCLUDED.invoice_number,
			invoice_date = EXCLUDED.invoice_date,
			vendor = EXCLUDED.vendor,
			total_amount = EXCLUDED.total_amount,
			total_value = EXCLUDED.total_value`
	if _, err := tx.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("sessionRepo.SaveResult invoice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sessionRepo.SaveResult commit: %w", err)
	}
	return nil
}

func (r *sessionRepo) ListLineItems(ctx context.Context, fileID uuid.UUID) ([]domain.StoredLineItem, error) {
	var rows []lineItemRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM line_items WHERE file_id = $1 ORDER BY position", fileID)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListLineItems: %w", err)
	}

	items := make([]domain.StoredLineItem, 0, len(rows))
	for i := range rows {
		item, err := rows[i].toDomain(r.cipher)
		if err != nil {
			return nil, fmt.Errorf("sessionRepo.ListLineItems: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *sessionRepo) GetInvoice(ctx context.Context, fileID uuid.UUID) (*domain.StoredInvoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM invoices WHERE file_id = $1", fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetInvoice: %w", err)
	}

	inv, err := row.toDomain(r.cipher)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.GetInvoice: %w", err)
	}
	return inv, nil
}

func (r *sessionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
