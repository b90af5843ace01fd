package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventcertificates/internal/domain"
)

const defaultIssueBatchSize = 100

// IssuanceOptions configures the issuance engine.
type IssuanceOptions struct {
	// TempDir is where per-issuance scratch directories are created. Empty means os.TempDir.
	TempDir string
	// PublicBaseURL prefixes the certificate link sent to attendees.
	PublicBaseURL string
}

type issuanceService struct {
	certRepo     domain.CertificateRepository
	attendeeRepo domain.AttendeeRepository
	templates    domain.TemplateStore
	renderer     domain.DocumentRenderer
	converter    domain.DocumentConverter
	storage      domain.ArtifactStorage
	emailService domain.EmailService
	logger       *slog.Logger
	opts         IssuanceOptions
	newID        func() string
	now          func() time.Time
}

// NewIssuanceService wires the issuance engine. emailService may be nil to disable notifications.
func NewIssuanceService(
	certRepo domain.CertificateRepository,
	attendeeRepo domain.AttendeeRepository,
	templates domain.TemplateStore,
	renderer domain.DocumentRenderer,
	converter domain.DocumentConverter,
	storage domain.ArtifactStorage,
	emailService domain.EmailService,
	logger *slog.Logger,
	opts IssuanceOptions,
) domain.IssuanceService {
	return &issuanceService{
		certRepo:     certRepo,
		attendeeRepo: attendeeRepo,
		templates:    templates,
		renderer:     renderer,
		converter:    converter,
		storage:      storage,
		emailService: emailService,
		logger:       logger,
		opts:         opts,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

func (s *issuanceService) Issue(ctx context.Context, attendee *domain.Attendee) error {
	cert, err := s.certRepo.GetByID(ctx, attendee.CertificateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: certificate %s: %w", domain.ErrDefinitionMisconfigured, attendee.CertificateID, err)
		}
		return fmt.Errorf("get certificate: %w", err)
	}
	tmpl, err := s.templates.ReadDefinitionTemplate(ctx, cert)
	if err != nil {
		return fmt.Errorf("%w: read template: %w", domain.ErrDefinitionMisconfigured, err)
	}

	publicID := s.newID()
	doc, err := s.renderer.Render(tmpl, attendee.TemplateData(publicID))
	if err != nil {
		return fmt.Errorf("%w: render template: %w", domain.ErrDefinitionMisconfigured, err)
	}

	pdf, err := s.convert(ctx, doc)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
	}

	storedPath, err := s.storage.Store(ctx, cert.ArtifactPath(publicID), bytes.NewReader(pdf))
	if err != nil {
		return fmt.Errorf("%w: store certificate: %w", domain.ErrStorageFailed, err)
	}

	previous := attendee.PDFPath
	now := s.now()
	updated := *attendee
	updated.PublicID = publicID
	updated.PDFPath = &storedPath
	updated.IssuedAt = &now
	updated.UpdatedAt = now
	if err := s.attendeeRepo.UpdateIssuance(ctx, &updated); err != nil {
		if delErr := s.storage.Delete(ctx, storedPath); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove unreferenced certificate", "path", storedPath, "err", delErr)
		}
		return fmt.Errorf("%w: save attendee: %w", domain.ErrStorageFailed, err)
	}
	*attendee = updated

	if previous != nil && *previous != "" && *previous != storedPath {
		if err := s.storage.Delete(ctx, *previous); err != nil {
			s.logger.WarnContext(ctx, "failed to remove superseded certificate",
				"attendee_id", attendee.ID, "path", *previous, "err", err)
		}
	}
	s.logger.InfoContext(ctx, "certificate issued", "attendee_id", attendee.ID, "public_id", publicID, "path", storedPath)

	s.notify(ctx, attendee, cert)
	return nil
}

// convert writes doc into a scratch directory, runs the converter and returns the PDF bytes.
// The directory is removed on every path.
func (s *issuanceService) convert(ctx context.Context, doc string) ([]byte, error) {
	dir, err := os.MkdirTemp(s.opts.TempDir, "issue-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "certificate.svg")
	out := filepath.Join(dir, "certificate.pdf")
	if err := os.WriteFile(in, []byte(doc), 0o600); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	if err := s.converter.Convert(ctx, in, out); err != nil {
		return nil, err
	}
	pdf, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read converted document: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("converter produced an empty document")
	}
	return pdf, nil
}

func (s *issuanceService) notify(ctx context.Context, attendee *domain.Attendee, cert *domain.CertificateDefinition) {
	if s.emailService == nil || attendee.Email == nil || *attendee.Email == "" {
		return
	}
	data := &domain.CertificateIssuedEmailData{
		Email:       *attendee.Email,
		FullName:    attendee.FullName(),
		Description: cert.Description,
		URL:         strings.TrimRight(s.opts.PublicBaseURL, "/") + "/certificates/" + attendee.PublicID,
	}
	if err := s.emailService.SendCertificateIssued(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "failed to send certificate issued email", "attendee_id", attendee.ID, "err", err)
	}
}

func (s *issuanceService) IssueByID(ctx context.Context, attendeeID string) (*domain.Attendee, error) {
	attendee, err := s.attendeeRepo.GetByID(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if err := s.Issue(ctx, attendee); err != nil {
		return nil, err
	}
	return attendee, nil
}

func (s *issuanceService) IssuePending(ctx context.Context, filter domain.PendingFilter) (domain.IssueSummary, error) {
	var summary domain.IssueSummary
	if filter.Limit <= 0 {
		filter.Limit = defaultIssueBatchSize
	}
	if filter.CertificateID != "" {
		if _, err := s.certRepo.GetByID(ctx, filter.CertificateID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return summary, domain.ErrNotFound
			}
			return summary, fmt.Errorf("get certificate: %w", err)
		}
	}

	pending, err := s.attendeeRepo.ListPending(ctx, filter)
	if err != nil {
		return summary, fmt.Errorf("list pending attendees: %w", err)
	}
	for _, attendee := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.Issue(ctx, attendee); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			summary.Failed++
			s.logger.ErrorContext(ctx, "certificate issuance failed", "attendee_id", attendee.ID, "err", err)
			s.recordFailure(ctx, attendee, err)
			continue
		}
		summary.Issued++
	}
	return summary, nil
}

// recordFailure marks the attendee so later batches move past it.
func (s *issuanceService) recordFailure(ctx context.Context, attendee *domain.Attendee, cause error) {
	at := s.now()
	reason := cause.Error()
	if err := s.attendeeRepo.MarkIssueFailed(ctx, attendee.ID, at, reason); err != nil {
		s.logger.WarnContext(ctx, "failed to record issuance failure", "attendee_id", attendee.ID, "err", err)
		return
	}
	attendee.IssueFailedAt = &at
	attendee.IssueError = &reason
}
