package domain

import "errors"

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateHashtag = errors.New("hashtag already in use")

	// ErrCertificateInUse is returned when deleting a certificate definition that attendees still reference.
	ErrCertificateInUse = errors.New("certificate has attendees")
)

// Issuance failures. Each is terminal for the attempt that produced it.
var (
	// ErrDefinitionMisconfigured means the certificate template is missing, unreadable or cannot be rendered.
	ErrDefinitionMisconfigured = errors.New("certificate definition misconfigured")
	// ErrConversionFailed means the document converter did not produce a PDF.
	ErrConversionFailed = errors.New("document conversion failed")
	// ErrStorageFailed means the artifact or the attendee record could not be written.
	ErrStorageFailed = errors.New("storage failed")
)
