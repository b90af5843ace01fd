package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventcertificates/internal/domain"
)

var certificateCols = []string{"id", "event_id", "hashtag", "description", "template_path", "created_at", "updated_at"}

func TestCertificateRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		errIs   error
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO certificates \(event_id, description, template_path, created_at, updated_at\)`).
					WithArgs("ev-1", "Attendance", "events/pycon/attendance.svg", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("cert-1"))
			},
			wantID: "cert-1",
		},
		{
			name: "unknown event",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO certificates`).WillReturnError(&pq.Error{Code: "23503"})
			},
			wantErr: true,
			errIs:   domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			cert := &domain.CertificateDefinition{
				EventID:      "ev-1",
				Description:  "Attendance",
				TemplatePath: "events/pycon/attendance.svg",
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			err = NewCertificateRepository(db).Create(ctx, cert)
			if tt.wantErr {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.wantID, cert.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCertificateRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM certificates c\s+JOIN events e ON e.id = c.event_id\s+WHERE c.id = \$1`).
		WithArgs("cert-1").
		WillReturnRows(sqlmock.NewRows(certificateCols).AddRow("cert-1", "ev-1", "pycon", "Attendance", "events/pycon/a.svg", now, now))
	mock.ExpectQuery(`FROM certificates c`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	repo := NewCertificateRepository(db)
	cert, err := repo.GetByID(ctx, "cert-1")
	require.NoError(t, err)
	require.Equal(t, "pycon", cert.EventHashtag)
	require.Equal(t, "events/pycon/a.svg", cert.TemplatePath)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepository_ListByEventID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`WHERE c.event_id = \$1\s+ORDER BY c.description`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows(certificateCols).
			AddRow("cert-1", "ev-1", "pycon", "Attendance", "events/pycon/a.svg", now, now).
			AddRow("cert-2", "ev-1", "pycon", "Speaker", "events/pycon/s.svg", now, now))

	certs, err := NewCertificateRepository(db).ListByEventID(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Len(t, certs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepository_Delete(t *testing.T) {
	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM certificates WHERE id = \$1`).
					WithArgs("cert-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "referenced by attendees",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM certificates`).WillReturnError(&pq.Error{Code: "23503"})
			},
			errIs: domain.ErrCertificateInUse,
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM certificates`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			errIs: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewCertificateRepository(db).Delete(context.Background(), "cert-1")
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
