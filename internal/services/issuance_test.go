package services

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eventcertificates/internal/domain"
)

const testTemplate = `<svg>{{ full_name }}|{{ email }}|{{ extra }}|{{ uuid }}</svg>`

type issuanceFixture struct {
	certs     *fakeCertRepo
	attendees *fakeAttendeeRepo
	storage   *memStorage
	renderer  *fakeRenderer
	converter *fakeConverter
	email     *fakeEmailService
	tempDir   string
	svc       *issuanceService
}

func newIssuanceFixture(t *testing.T, attendees ...*domain.Attendee) *issuanceFixture {
	t.Helper()
	f := &issuanceFixture{
		certs: newFakeCertRepo(
			&domain.CertificateDefinition{ID: "cert-1", EventID: "ev-1", EventHashtag: "pycon25", Description: "Attendance", TemplatePath: "events/pycon25/attendance.svg"},
			&domain.CertificateDefinition{ID: "cert-2", EventID: "ev-1", EventHashtag: "pycon25", Description: "Speaker", TemplatePath: "events/pycon25/missing.svg"},
		),
		attendees: newFakeAttendeeRepo(attendees...),
		storage:   newMemStorage(),
		renderer:  &fakeRenderer{},
		converter: &fakeConverter{},
		email:     &fakeEmailService{},
		tempDir:   t.TempDir(),
	}
	f.storage.files["events/pycon25/attendance.svg"] = []byte(testTemplate)

	templates := NewCertificateService(newFakeEventRepo(), f.certs, f.storage, discardLogger(), time.Second)
	svc := NewIssuanceService(f.certs, f.attendees, templates, f.renderer, f.converter, f.storage, f.email, discardLogger(),
		IssuanceOptions{TempDir: f.tempDir, PublicBaseURL: "https://certs.example.org/"})
	f.svc = svc.(*issuanceService)
	return f
}

func (f *issuanceFixture) requireTempDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func unissued(id, certificateID string) *domain.Attendee {
	now := time.Now()
	return &domain.Attendee{ID: id, CertificateID: certificateID, Name: "Ada", Surname: "Lovelace", PublicID: "registered-id", CreatedAt: now, UpdatedAt: now}
}

func issued(id, pdfPath string) *domain.Attendee {
	a := unissued(id, "cert-1")
	a.PublicID = "old-id"
	issuedAt := time.Now().Add(-24 * time.Hour)
	a.PDFPath = &pdfPath
	a.IssuedAt = &issuedAt
	return a
}

func TestIssuanceService_Issue_FirstIssue(t *testing.T) {
	attendee := unissued("att-1", "cert-1")
	f := newIssuanceFixture(t, attendee)
	f.svc.newID = func() string { return "0b6f3a52-7d1e-4c55-9a3e-2f1d9c6b8e10" }

	before := time.Now()
	require.NoError(t, f.svc.Issue(context.Background(), attendee))

	require.Equal(t, "0b6f3a52-7d1e-4c55-9a3e-2f1d9c6b8e10", attendee.PublicID)
	require.NotNil(t, attendee.PDFPath)
	require.Equal(t, "events/pycon25/0b6f3a52-7d1e-4c55-9a3e-2f1d9c6b8e10.pdf", *attendee.PDFPath)
	require.NotNil(t, attendee.IssuedAt)
	require.False(t, attendee.IssuedAt.Before(before))
	require.True(t, attendee.IsIssued())

	require.Empty(t, f.storage.deleted)
	stored := string(f.storage.files[*attendee.PDFPath])
	require.True(t, strings.HasPrefix(stored, "%PDF-"))
	require.Contains(t, stored, "0b6f3a52-7d1e-4c55-9a3e-2f1d9c6b8e10")

	saved, err := f.attendees.GetByID(context.Background(), "att-1")
	require.NoError(t, err)
	require.Equal(t, attendee.PublicID, saved.PublicID)
	require.Equal(t, *attendee.PDFPath, *saved.PDFPath)
	require.Equal(t, 1, f.certs.gets)
	f.requireTempDirEmpty(t)
}

func TestIssuanceService_Issue_ReplacesPreviousArtifact(t *testing.T) {
	attendee := issued("att-1", "events/pycon25/old.pdf")
	f := newIssuanceFixture(t, attendee)
	f.storage.files["events/pycon25/old.pdf"] = []byte("%PDF-old")
	oldIssuedAt := *attendee.IssuedAt

	require.NoError(t, f.svc.Issue(context.Background(), attendee))

	require.NotEqual(t, "old-id", attendee.PublicID)
	require.Equal(t, "events/pycon25/"+attendee.PublicID+".pdf", *attendee.PDFPath)
	require.True(t, attendee.IssuedAt.After(oldIssuedAt))
	require.Equal(t, []string{"events/pycon25/old.pdf"}, f.storage.deleted)
	require.False(t, f.storage.has("events/pycon25/old.pdf"))
	require.True(t, f.storage.has(*attendee.PDFPath))
}

func TestIssuanceService_Issue_FreshIdentifierEachTime(t *testing.T) {
	attendee := unissued("att-1", "cert-1")
	f := newIssuanceFixture(t, attendee)

	require.NoError(t, f.svc.Issue(context.Background(), attendee))
	first := attendee.PublicID
	firstPath := *attendee.PDFPath
	require.NoError(t, f.svc.Issue(context.Background(), attendee))

	require.NotEqual(t, first, attendee.PublicID)
	require.NotEqual(t, firstPath, *attendee.PDFPath)
	require.Equal(t, []string{firstPath}, f.storage.deleted)
	require.Len(t, f.converter.inputs, 2)
	require.Contains(t, f.converter.inputs[1], attendee.PublicID)
}

func TestIssuanceService_Issue_EmptyOptionalFields(t *testing.T) {
	attendee := unissued("att-1", "cert-1")
	f := newIssuanceFixture(t, attendee)
	f.svc.newID = func() string { return "id-1" }

	require.NoError(t, f.svc.Issue(context.Background(), attendee))
	require.Equal(t, []string{"<svg>Ada Lovelace|||id-1</svg>"}, f.converter.inputs)
	require.Empty(t, f.email.sent)
}

func TestIssuanceService_Issue_Failures(t *testing.T) {
	tests := []struct {
		name      string
		attendee  *domain.Attendee
		setup     func(f *issuanceFixture)
		wantErr   error
		converted bool
		// removed lists artifacts the failed attempt is expected to delete.
		removed []string
	}{
		{
			name:     "template file missing",
			attendee: func() *domain.Attendee { a := issued("att-1", "events/pycon25/old.pdf"); a.CertificateID = "cert-2"; return a }(),
			wantErr:  domain.ErrDefinitionMisconfigured,
		},
		{
			name:     "definition missing",
			attendee: func() *domain.Attendee { a := issued("att-1", "events/pycon25/old.pdf"); a.CertificateID = "cert-9"; return a }(),
			wantErr:  domain.ErrDefinitionMisconfigured,
		},
		{
			name:     "template not utf-8",
			attendee: issued("att-1", "events/pycon25/old.pdf"),
			setup: func(f *issuanceFixture) {
				f.storage.files["events/pycon25/attendance.svg"] = []byte("<svg>\xff\xfe{{ name }}</svg>")
			},
			wantErr: domain.ErrDefinitionMisconfigured,
		},
		{
			name:     "render fails",
			attendee: issued("att-1", "events/pycon25/old.pdf"),
			setup:    func(f *issuanceFixture) { f.renderer.err = errors.New("bad template") },
			wantErr:  domain.ErrDefinitionMisconfigured,
		},
		{
			name:      "converter fails",
			attendee:  issued("att-1", "events/pycon25/old.pdf"),
			setup:     func(f *issuanceFixture) { f.converter.err = errors.New("exit status 1") },
			wantErr:   domain.ErrConversionFailed,
			converted: true,
		},
		{
			name:      "store fails",
			attendee:  issued("att-1", "events/pycon25/old.pdf"),
			setup:     func(f *issuanceFixture) { f.storage.storeErr = errors.New("disk full") },
			wantErr:   domain.ErrStorageFailed,
			converted: true,
		},
		{
			name:      "record save fails",
			attendee:  issued("att-1", "events/pycon25/old.pdf"),
			setup:     func(f *issuanceFixture) { f.attendees.updateErr = errors.New("connection reset") },
			wantErr:   domain.ErrStorageFailed,
			converted: true,
			removed:   []string{"events/pycon25/new-id.pdf"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuanceFixture(t, tt.attendee)
			f.storage.files["events/pycon25/old.pdf"] = []byte("%PDF-old")
			f.svc.newID = func() string { return "new-id" }
			if tt.setup != nil {
				tt.setup(f)
			}
			before := *tt.attendee

			err := f.svc.Issue(context.Background(), tt.attendee)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)

			require.Equal(t, before, *tt.attendee)
			require.Zero(t, f.attendees.updates)
			require.True(t, f.storage.has("events/pycon25/old.pdf"))
			require.Equal(t, tt.removed, f.storage.deleted)
			require.False(t, f.storage.has("events/pycon25/new-id.pdf"))
			if tt.converted {
				require.Len(t, f.converter.inputs, 1)
			} else {
				require.Empty(t, f.converter.inputs)
			}
			require.Empty(t, f.email.sent)
			f.requireTempDirEmpty(t)
		})
	}
}

func TestIssuanceService_Issue_OldArtifactDeleteFailureIsNotFatal(t *testing.T) {
	attendee := issued("att-1", "events/pycon25/old.pdf")
	f := newIssuanceFixture(t, attendee)
	f.storage.deleteErr = errors.New("permission denied")

	require.NoError(t, f.svc.Issue(context.Background(), attendee))
	require.True(t, attendee.IsIssued())
	require.Equal(t, []string{"events/pycon25/old.pdf"}, f.storage.deleted)
}

func TestIssuanceService_Issue_SendsNotification(t *testing.T) {
	email := "ada@example.com"
	attendee := unissued("att-1", "cert-1")
	attendee.Email = &email
	f := newIssuanceFixture(t, attendee)
	f.svc.newID = func() string { return "id-7" }
	f.email.err = errors.New("mail relay down")

	require.NoError(t, f.svc.Issue(context.Background(), attendee))
	require.Len(t, f.email.sent, 1)
	require.Equal(t, &domain.CertificateIssuedEmailData{
		Email:       "ada@example.com",
		FullName:    "Ada Lovelace",
		Description: "Attendance",
		URL:         "https://certs.example.org/certificates/id-7",
	}, f.email.sent[0])
	require.True(t, attendee.IsIssued())
}

func TestIssuanceService_IssueByID(t *testing.T) {
	f := newIssuanceFixture(t, unissued("att-1", "cert-1"))

	_, err := f.svc.IssueByID(context.Background(), "att-404")
	require.ErrorIs(t, err, domain.ErrNotFound)

	attendee, err := f.svc.IssueByID(context.Background(), "att-1")
	require.NoError(t, err)
	require.True(t, attendee.IsIssued())
	require.Equal(t, 1, f.attendees.updates)
}

func TestIssuanceService_IssuePending(t *testing.T) {
	f := newIssuanceFixture(t,
		unissued("att-1", "cert-1"),
		unissued("att-2", "cert-1"),
		unissued("att-3", "cert-2"),
		issued("att-4", "events/pycon25/old.pdf"),
	)
	ctx := context.Background()

	summary, err := f.svc.IssuePending(ctx, domain.PendingFilter{CertificateID: "cert-1", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{Issued: 2}, summary)

	summary, err = f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{Failed: 1}, summary)

	att3, err := f.attendees.GetByID(ctx, "att-3")
	require.NoError(t, err)
	require.NotNil(t, att3.IssueFailedAt)
	require.Contains(t, *att3.IssueError, domain.ErrDefinitionMisconfigured.Error())

	// A recorded failure is not attempted again without RetryFailed.
	summary, err = f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{}, summary)

	summary, err = f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 10, RetryFailed: true})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{Failed: 1}, summary)

	_, err = f.svc.IssuePending(ctx, domain.PendingFilter{CertificateID: "cert-404", Limit: 10})
	require.ErrorIs(t, err, domain.ErrNotFound)

	// att-4 was already issued and must be left alone.
	att4, err := f.attendees.GetByID(ctx, "att-4")
	require.NoError(t, err)
	require.Equal(t, "old-id", att4.PublicID)
}

func TestIssuanceService_IssuePending_FailuresDoNotBlockLaterAttendees(t *testing.T) {
	f := newIssuanceFixture(t,
		unissued("att-1", "cert-2"),
		unissued("att-2", "cert-2"),
		unissued("att-3", "cert-1"),
	)
	ctx := context.Background()

	summary, err := f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{Failed: 2}, summary)

	for i := 0; i < 3; i++ {
		_, err = f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 2})
		require.NoError(t, err)
	}
	att3, err := f.attendees.GetByID(ctx, "att-3")
	require.NoError(t, err)
	require.True(t, att3.IsIssued())

	// Retrying puts never attempted attendees first and failed ones after them.
	f.attendees.byID["att-4"] = unissued("att-4", "cert-1")
	pending, err := f.attendees.ListPending(ctx, domain.PendingFilter{Limit: 10, RetryFailed: true})
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, "att-4", pending[0].ID)
}

func TestIssuanceService_IssuePending_SuccessClearsFailure(t *testing.T) {
	attendee := unissued("att-1", "cert-1")
	f := newIssuanceFixture(t, attendee)
	ctx := context.Background()

	f.converter.err = errors.New("inkscape crashed")
	summary, err := f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Failed)

	f.converter.err = nil
	summary, err = f.svc.IssuePending(ctx, domain.PendingFilter{Limit: 10, RetryFailed: true})
	require.NoError(t, err)
	require.Equal(t, domain.IssueSummary{Issued: 1}, summary)

	stored, err := f.attendees.GetByID(ctx, "att-1")
	require.NoError(t, err)
	require.True(t, stored.IsIssued())
	require.Nil(t, stored.IssueFailedAt)
	require.Nil(t, stored.IssueError)
}

func TestIssuanceService_IssuePending_Limit(t *testing.T) {
	f := newIssuanceFixture(t, unissued("att-1", "cert-1"), unissued("att-2", "cert-1"), unissued("att-3", "cert-1"))

	summary, err := f.svc.IssuePending(context.Background(), domain.PendingFilter{Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Issued)

	pending, err := f.attendees.ListPending(context.Background(), domain.PendingFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
