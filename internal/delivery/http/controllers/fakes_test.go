package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"eventcertificates/internal/delivery/http/helpers"
	"eventcertificates/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID    = "3f8e2b1a-6c1d-4e2f-9a8b-1c2d3e4f5a6b"
	testCertID     = "9a7b6c5d-4e3f-4a2b-8c1d-0e9f8a7b6c5d"
	testAttendeeID = "1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e"
	testPublicID   = "c0ffee00-1234-4abc-9def-0123456789ab"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if data != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Error
}

type fakeEventService struct {
	created   *domain.Event
	events    []*domain.Event
	err       error
	lastName  string
	lastTag   string
	lastGetID string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, name, hashtag string) (*domain.Event, error) {
	f.lastName, f.lastTag = name, hashtag
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	f.lastGetID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return f.events, f.err
}

type fakeCertificateService struct {
	cert            *domain.CertificateDefinition
	certs           []*domain.CertificateDefinition
	err             error
	lastEventID     string
	lastDescription string
	lastFilename    string
	lastTemplate    string
	lastDeletedID   string
}

func (f *fakeCertificateService) ReadTemplate(ctx context.Context, certificateID string) (string, error) {
	return "", f.err
}

func (f *fakeCertificateService) ReadDefinitionTemplate(ctx context.Context, cert *domain.CertificateDefinition) (string, error) {
	return "", f.err
}

func (f *fakeCertificateService) CreateCertificate(ctx context.Context, eventID, description, templateName string, template io.Reader) (*domain.CertificateDefinition, error) {
	f.lastEventID, f.lastDescription, f.lastFilename = eventID, description, templateName
	b, _ := io.ReadAll(template)
	f.lastTemplate = string(b)
	if f.err != nil {
		return nil, f.err
	}
	return f.cert, nil
}

func (f *fakeCertificateService) GetCertificate(ctx context.Context, id string) (*domain.CertificateDefinition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cert, nil
}

func (f *fakeCertificateService) ListCertificates(ctx context.Context, eventID string) ([]*domain.CertificateDefinition, error) {
	f.lastEventID = eventID
	return f.certs, f.err
}

func (f *fakeCertificateService) DeleteCertificate(ctx context.Context, id string) error {
	f.lastDeletedID = id
	return f.err
}

type fakeAttendeeService struct {
	attendee   *domain.Attendee
	list       []*domain.Attendee
	total      int
	issued     *domain.IssuedCertificate
	pdf        string
	err        error
	lastReg    domain.AttendeeRegistration
	lastParams domain.PaginationParams
}

func (f *fakeAttendeeService) RegisterAttendee(ctx context.Context, certificateID string, reg domain.AttendeeRegistration) (*domain.Attendee, error) {
	f.lastReg = reg
	if f.err != nil {
		return nil, f.err
	}
	return f.attendee, nil
}

func (f *fakeAttendeeService) ListAttendees(ctx context.Context, certificateID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	f.lastParams = p
	return f.list, f.total, f.err
}

func (f *fakeAttendeeService) GetIssuedCertificate(ctx context.Context, publicID string) (*domain.IssuedCertificate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.issued, nil
}

func (f *fakeAttendeeService) OpenCertificatePDF(ctx context.Context, publicID string) (io.ReadCloser, *domain.Attendee, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.pdf)), f.issued.Attendee, nil
}

type fakeIssuanceService struct {
	attendee       *domain.Attendee
	summary        domain.IssueSummary
	err            error
	lastFilter     domain.PendingFilter
	lastAttendeeID string
}

func (f *fakeIssuanceService) Issue(ctx context.Context, a *domain.Attendee) error { return f.err }

func (f *fakeIssuanceService) IssueByID(ctx context.Context, attendeeID string) (*domain.Attendee, error) {
	f.lastAttendeeID = attendeeID
	if f.err != nil {
		return nil, f.err
	}
	return f.attendee, nil
}

func (f *fakeIssuanceService) IssuePending(ctx context.Context, filter domain.PendingFilter) (domain.IssueSummary, error) {
	f.lastFilter = filter
	return f.summary, f.err
}
