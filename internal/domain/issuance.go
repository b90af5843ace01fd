package domain

import (
	"context"
	"io"
)

// DocumentRenderer fills a template with values, producing SVG document text.
// Implementations must not perform I/O.
type DocumentRenderer interface {
	Render(templateText string, data map[string]string) (string, error)
}

// DocumentConverter converts the SVG file at inputPath into a PDF written to outputPath,
// exporting the whole page. On error outputPath must not hold a usable file.
type DocumentConverter interface {
	Convert(ctx context.Context, inputPath, outputPath string) error
}

// ArtifactStorage stores templates and issued documents under slash separated names.
type ArtifactStorage interface {
	// Store writes r under name and returns the path it was stored at.
	Store(ctx context.Context, name string, r io.Reader) (string, error)
	// Open returns ErrNotFound if nothing is stored at path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes path. Deleting a missing path is not an error.
	Delete(ctx context.Context, path string) error
}

// IssueSummary reports the outcome of a batch issuance.
type IssueSummary struct {
	Issued int `json:"issued"`
	Failed int `json:"failed"`
}

// IssuanceService generates certificate documents for attendees.
type IssuanceService interface {
	// Issue renders, converts and stores a new certificate for attendee, replacing any previous one.
	// Every issuance assigns a fresh public identifier. On success attendee is updated in place.
	Issue(ctx context.Context, attendee *Attendee) error
	IssueByID(ctx context.Context, attendeeID string) (*Attendee, error)
	// IssuePending issues up to filter.Limit attendees that have no certificate yet.
	// Individual failures are counted and recorded on the attendee, not returned.
	// Attendees with a recorded failure are skipped unless filter.RetryFailed is set.
	IssuePending(ctx context.Context, filter PendingFilter) (IssueSummary, error)
}
