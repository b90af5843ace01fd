package domain

import (
	"context"
	"io"
	"time"
)

// Attendee is a person entitled to a certificate.
// PDFPath and IssuedAt are set and cleared together; see IsIssued.
// swagger:model Attendee
type Attendee struct {
	ID            string     `json:"id"`
	CertificateID string     `json:"certificate_id"`
	Name          string     `json:"name"`
	Surname       string     `json:"surname"`
	Email         *string    `json:"email"`
	Extra         *string    `json:"extra"`
	PublicID      string     `json:"public_id"`
	PDFPath       *string    `json:"pdf_path"`
	IssuedAt      *time.Time `json:"issued_at"`
	// IssueFailedAt and IssueError record the last failed batch attempt. A successful issuance clears them.
	IssueFailedAt *time.Time `json:"issue_failed_at,omitempty"`
	IssueError    *string    `json:"issue_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewAttendee returns a new, not yet issued Attendee. ID is typically set by the repository on create.
func NewAttendee(certificateID, name, surname string, email, extra *string, publicID string, createdAt, updatedAt time.Time) *Attendee {
	return &Attendee{
		CertificateID: certificateID,
		Name:          name,
		Surname:       surname,
		Email:         email,
		Extra:         extra,
		PublicID:      publicID,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// FullName returns "name surname".
func (a *Attendee) FullName() string {
	return a.Name + " " + a.Surname
}

// IsIssued reports whether a certificate document has been issued for the attendee.
func (a *Attendee) IsIssued() bool {
	return a.PDFPath != nil && a.IssuedAt != nil
}

// TemplateData returns the values a certificate template can interpolate.
// Unset optional fields map to the empty string.
func (a *Attendee) TemplateData(publicID string) map[string]string {
	return map[string]string{
		"id":          a.ID,
		"certificate": a.CertificateID,
		"name":        a.Name,
		"surname":     a.Surname,
		"full_name":   a.FullName(),
		"email":       deref(a.Email),
		"extra":       deref(a.Extra),
		"uuid":        publicID,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PendingFilter selects attendees awaiting issuance.
type PendingFilter struct {
	// CertificateID restricts the batch to one definition. Empty means every definition.
	CertificateID string
	Limit         int
	// RetryFailed includes attendees whose last attempt failed, after the never attempted ones.
	RetryFailed bool
}

// AttendeeRegistration holds the fields supplied when registering an attendee.
type AttendeeRegistration struct {
	Name    string
	Surname string
	Email   *string
	Extra   *string
}

// IssuedCertificate is the public view of an issued certificate, resolved from its public identifier.
type IssuedCertificate struct {
	Attendee    *Attendee
	Certificate *CertificateDefinition
}

// AttendeeRepository defines storage operations for attendees.
type AttendeeRepository interface {
	Create(ctx context.Context, attendee *Attendee) error
	GetByID(ctx context.Context, id string) (*Attendee, error)
	GetByPublicID(ctx context.Context, publicID string) (*Attendee, error)
	// ListByCertificateID returns one page of attendees and the total count.
	ListByCertificateID(ctx context.Context, certificateID string, p PaginationParams) ([]*Attendee, int, error)
	// ListPending returns attendees without an issued certificate, never attempted ones first.
	ListPending(ctx context.Context, filter PendingFilter) ([]*Attendee, error)
	// UpdateIssuance persists PublicID, PDFPath and IssuedAt and clears any recorded failure.
	UpdateIssuance(ctx context.Context, attendee *Attendee) error
	// MarkIssueFailed records a failed issuance attempt.
	MarkIssueFailed(ctx context.Context, id string, at time.Time, reason string) error
}

// AttendeeService defines attendee registration and the public certificate lookup.
type AttendeeService interface {
	RegisterAttendee(ctx context.Context, certificateID string, reg AttendeeRegistration) (*Attendee, error)
	ListAttendees(ctx context.Context, certificateID string, p PaginationParams) ([]*Attendee, int, error)
	// GetIssuedCertificate returns ErrNotFound for unknown or not yet issued public identifiers.
	GetIssuedCertificate(ctx context.Context, publicID string) (*IssuedCertificate, error)
	// OpenCertificatePDF opens the issued document. The caller closes the reader.
	OpenCertificatePDF(ctx context.Context, publicID string) (io.ReadCloser, *Attendee, error)
}
