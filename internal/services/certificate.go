package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"eventcertificates/internal/domain"
)

const (
	maxDescriptionLen = 256
	// maxTemplateBytes bounds uploaded templates and template reads.
	maxTemplateBytes = 5 << 20
)

type certificateService struct {
	eventRepo      domain.EventRepository
	certRepo       domain.CertificateRepository
	storage        domain.ArtifactStorage
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewCertificateService returns a CertificateService keeping templates in storage.
// It also serves as the TemplateStore of the issuance engine.
func NewCertificateService(
	eventRepo domain.EventRepository,
	certRepo domain.CertificateRepository,
	storage domain.ArtifactStorage,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CertificateService {
	return &certificateService{
		eventRepo:      eventRepo,
		certRepo:       certRepo,
		storage:        storage,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *certificateService) CreateCertificate(ctx context.Context, eventID, description, templateName string, template io.Reader) (*domain.CertificateDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	description = strings.TrimSpace(description)
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, fmt.Errorf("%w: description is required and must be at most %d characters", domain.ErrInvalidInput, maxDescriptionLen)
	}
	templateName = path.Base(strings.ReplaceAll(templateName, "\\", "/"))
	if !strings.EqualFold(path.Ext(templateName), ".svg") {
		return nil, fmt.Errorf("%w: template must be an .svg file", domain.ErrInvalidInput)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	body, err := readTemplateText(template)
	if err != nil {
		return nil, err
	}
	storedPath, err := s.storage.Store(ctx, domain.EventFilePath(event.Hashtag, templateName), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}

	now := time.Now()
	cert := &domain.CertificateDefinition{
		EventID:      event.ID,
		EventHashtag: event.Hashtag,
		Description:  description,
		TemplatePath: storedPath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.certRepo.Create(ctx, cert); err != nil {
		if delErr := s.storage.Delete(ctx, storedPath); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned template", "path", storedPath, "err", delErr)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return cert, nil
}

func (s *certificateService) GetCertificate(ctx context.Context, id string) (*domain.CertificateDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	cert, err := s.certRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return cert, nil
}

func (s *certificateService) ListCertificates(ctx context.Context, eventID string) ([]*domain.CertificateDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	certs, err := s.certRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	if certs == nil {
		certs = []*domain.CertificateDefinition{}
	}
	return certs, nil
}

func (s *certificateService) DeleteCertificate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	cert, err := s.certRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get certificate: %w", err)
	}
	if err := s.certRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return domain.ErrNotFound
		case errors.Is(err, domain.ErrCertificateInUse):
			return domain.ErrCertificateInUse
		}
		return fmt.Errorf("delete certificate: %w", err)
	}
	if cert.TemplatePath != "" {
		if err := s.storage.Delete(ctx, cert.TemplatePath); err != nil {
			s.logger.WarnContext(ctx, "failed to remove template", "certificate_id", id, "path", cert.TemplatePath, "err", err)
		}
	}
	return nil
}

// ReadTemplate loads the definition's template text from storage.
func (s *certificateService) ReadTemplate(ctx context.Context, certificateID string) (string, error) {
	cert, err := s.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("get certificate: %w", err)
	}
	return s.ReadDefinitionTemplate(ctx, cert)
}

func (s *certificateService) ReadDefinitionTemplate(ctx context.Context, cert *domain.CertificateDefinition) (string, error) {
	if cert.TemplatePath == "" {
		return "", domain.ErrNotFound
	}
	rc, err := s.storage.Open(ctx, cert.TemplatePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("open template: %w", err)
	}
	defer rc.Close()

	b, err := readTemplateText(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readTemplateText reads at most maxTemplateBytes of UTF-8 text.
func readTemplateText(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxTemplateBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	if len(b) > maxTemplateBytes {
		return nil, fmt.Errorf("%w: template exceeds %d bytes", domain.ErrInvalidInput, maxTemplateBytes)
	}
	if !utf8.Valid(b) {
		return nil, fmt.Errorf("%w: template is not valid UTF-8", domain.ErrInvalidInput)
	}
	return b, nil
}
