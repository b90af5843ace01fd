package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventcertificates/internal/domain"
)

type certificateRepository struct {
	DB *sql.DB
}

func NewCertificateRepository(db *sql.DB) domain.CertificateRepository {
	return &certificateRepository{DB: db}
}

func (r *certificateRepository) Create(ctx context.Context, c *domain.CertificateDefinition) error {
	query := `
		INSERT INTO certificates (event_id, description, template_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.EventID, c.Description, c.TemplatePath, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *certificateRepository) GetByID(ctx context.Context, id string) (*domain.CertificateDefinition, error) {
	query := `
		SELECT c.id, c.event_id, e.hashtag, c.description, c.template_path, c.created_at, c.updated_at
		FROM certificates c
		JOIN events e ON e.id = c.event_id
		WHERE c.id = $1
	`
	c := &domain.CertificateDefinition{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.EventID, &c.EventHashtag, &c.Description, &c.TemplatePath, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *certificateRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.CertificateDefinition, error) {
	query := `
		SELECT c.id, c.event_id, e.hashtag, c.description, c.template_path, c.created_at, c.updated_at
		FROM certificates c
		JOIN events e ON e.id = c.event_id
		WHERE c.event_id = $1
		ORDER BY c.description
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	certs := make([]*domain.CertificateDefinition, 0)
	for rows.Next() {
		c := &domain.CertificateDefinition{}
		if err := rows.Scan(&c.ID, &c.EventID, &c.EventHashtag, &c.Description, &c.TemplatePath, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *certificateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		if isPQError(err, pqForeignKeyViolation) {
			return domain.ErrCertificateInUse
		}
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
