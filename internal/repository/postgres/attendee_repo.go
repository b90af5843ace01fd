package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventcertificates/internal/domain"
)

const attendeeColumns = `id, certificate_id, name, surname, email, extra, public_id, pdf_path, issued_at, issue_failed_at, issue_error, created_at, updated_at`

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendee(row rowScanner) (*domain.Attendee, error) {
	a := &domain.Attendee{}
	var emailNull, extraNull, pdfNull, issueErrNull sql.NullString
	var issuedNull, failedNull sql.NullTime
	err := row.Scan(
		&a.ID, &a.CertificateID, &a.Name, &a.Surname, &emailNull, &extraNull,
		&a.PublicID, &pdfNull, &issuedNull, &failedNull, &issueErrNull, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if emailNull.Valid {
		a.Email = &emailNull.String
	}
	if extraNull.Valid {
		a.Extra = &extraNull.String
	}
	if pdfNull.Valid {
		a.PDFPath = &pdfNull.String
	}
	if issuedNull.Valid {
		a.IssuedAt = &issuedNull.Time
	}
	if failedNull.Valid {
		a.IssueFailedAt = &failedNull.Time
	}
	if issueErrNull.Valid {
		a.IssueError = &issueErrNull.String
	}
	return a, nil
}

func (r *attendeeRepository) Create(ctx context.Context, a *domain.Attendee) error {
	query := `
		INSERT INTO attendees (certificate_id, name, surname, email, extra, public_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		a.CertificateID, a.Name, a.Surname, a.Email, a.Extra, a.PublicID, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *attendeeRepository) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE id = $1`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE public_id = $1`
	a, err := scanAttendee(r.DB.QueryRowContext(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) ListByCertificateID(ctx context.Context, certificateID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM attendees WHERE certificate_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, certificateID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE certificate_id = $1
		ORDER BY name, surname
		LIMIT $2 OFFSET $3
	`
	attendees, err := r.list(ctx, query, certificateID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	return attendees, total, nil
}

func (r *attendeeRepository) ListPending(ctx context.Context, f domain.PendingFilter) ([]*domain.Attendee, error) {
	query := `
		SELECT ` + attendeeColumns + `
		FROM attendees
		WHERE (pdf_path IS NULL OR issued_at IS NULL)
		  AND ($1 = '' OR certificate_id::text = $1)
		  AND ($2 OR issue_failed_at IS NULL)
		ORDER BY issue_failed_at NULLS FIRST, created_at
		LIMIT $3
	`
	return r.list(ctx, query, f.CertificateID, f.RetryFailed, f.Limit)
}

func (r *attendeeRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Attendee, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attendees, nil
}

func (r *attendeeRepository) UpdateIssuance(ctx context.Context, a *domain.Attendee) error {
	query := `
		UPDATE attendees
		SET public_id = $1, pdf_path = $2, issued_at = $3, updated_at = $4,
		    issue_failed_at = NULL, issue_error = NULL
		WHERE id = $5
	`
	res, err := r.DB.ExecContext(ctx, query, a.PublicID, a.PDFPath, a.IssuedAt, a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *attendeeRepository) MarkIssueFailed(ctx context.Context, id string, at time.Time, reason string) error {
	query := `UPDATE attendees SET issue_failed_at = $1, issue_error = $2 WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, at, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
