package domain

import (
	"context"
	"io"
	"path"
	"time"
)

// CertificateDefinition describes one kind of certificate an event hands out, rendered from an SVG template.
// swagger:model CertificateDefinition
type CertificateDefinition struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	EventHashtag string    `json:"event_hashtag"`
	Description  string    `json:"description"`
	TemplatePath string    `json:"template_path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EventFilePath returns the storage path of a file that belongs to the definition's event.
func EventFilePath(hashtag, filename string) string {
	return path.Join("events", hashtag, path.Base(filename))
}

// ArtifactPath returns where the certificate issued under publicID is stored.
func (c *CertificateDefinition) ArtifactPath(publicID string) string {
	return EventFilePath(c.EventHashtag, publicID+".pdf")
}

// CertificateRepository defines storage operations for certificate definitions.
// Reads populate EventHashtag from the owning event.
type CertificateRepository interface {
	Create(ctx context.Context, cert *CertificateDefinition) error
	GetByID(ctx context.Context, id string) (*CertificateDefinition, error)
	ListByEventID(ctx context.Context, eventID string) ([]*CertificateDefinition, error)
	// Delete returns ErrCertificateInUse while attendees reference the definition.
	Delete(ctx context.Context, id string) error
}

// TemplateStore supplies the raw template text of a certificate definition.
type TemplateStore interface {
	// ReadTemplate returns ErrNotFound if the definition or its template file is absent.
	ReadTemplate(ctx context.Context, certificateID string) (string, error)
	// ReadDefinitionTemplate reads the template of an already loaded definition.
	// A template that is too large or not UTF-8 yields ErrInvalidInput.
	ReadDefinitionTemplate(ctx context.Context, cert *CertificateDefinition) (string, error)
}

// CertificateService manages certificate definitions and their templates.
type CertificateService interface {
	TemplateStore
	CreateCertificate(ctx context.Context, eventID, description, templateName string, template io.Reader) (*CertificateDefinition, error)
	GetCertificate(ctx context.Context, id string) (*CertificateDefinition, error)
	ListCertificates(ctx context.Context, eventID string) ([]*CertificateDefinition, error)
	DeleteCertificate(ctx context.Context, id string) error
}
