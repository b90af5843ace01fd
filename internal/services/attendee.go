package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"eventcertificates/internal/domain"
)

const (
	maxNameLen    = 256
	maxSurnameLen = 384
	maxEmailLen   = 256
	maxExtraLen   = 512
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type attendeeService struct {
	certRepo       domain.CertificateRepository
	attendeeRepo   domain.AttendeeRepository
	storage        domain.ArtifactStorage
	newID          func() string
	contextTimeout time.Duration
}

// NewAttendeeService creates an AttendeeService with the given repositories and artifact storage.
func NewAttendeeService(
	certRepo domain.CertificateRepository,
	attendeeRepo domain.AttendeeRepository,
	storage domain.ArtifactStorage,
	timeout time.Duration,
) domain.AttendeeService {
	return &attendeeService{
		certRepo:       certRepo,
		attendeeRepo:   attendeeRepo,
		storage:        storage,
		newID:          uuid.NewString,
		contextTimeout: timeout,
	}
}

func (s *attendeeService) RegisterAttendee(ctx context.Context, certificateID string, reg domain.AttendeeRegistration) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	reg, err := normalizeRegistration(reg)
	if err != nil {
		return nil, err
	}
	if _, err := s.certRepo.GetByID(ctx, certificateID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}

	now := time.Now()
	attendee := domain.NewAttendee(certificateID, reg.Name, reg.Surname, reg.Email, reg.Extra, s.newID(), now, now)
	if err := s.attendeeRepo.Create(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	return attendee, nil
}

func normalizeRegistration(reg domain.AttendeeRegistration) (domain.AttendeeRegistration, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Surname = strings.TrimSpace(reg.Surname)
	if reg.Name == "" || utf8.RuneCountInString(reg.Name) > maxNameLen {
		return reg, fmt.Errorf("%w: name is required and must be at most %d characters", domain.ErrInvalidInput, maxNameLen)
	}
	if reg.Surname == "" || utf8.RuneCountInString(reg.Surname) > maxSurnameLen {
		return reg, fmt.Errorf("%w: surname is required and must be at most %d characters", domain.ErrInvalidInput, maxSurnameLen)
	}
	reg.Email = trimOptional(reg.Email)
	if reg.Email != nil && (utf8.RuneCountInString(*reg.Email) > maxEmailLen || !emailPattern.MatchString(*reg.Email)) {
		return reg, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	reg.Extra = trimOptional(reg.Extra)
	if reg.Extra != nil && utf8.RuneCountInString(*reg.Extra) > maxExtraLen {
		return reg, fmt.Errorf("%w: extra must be at most %d characters", domain.ErrInvalidInput, maxExtraLen)
	}
	return reg, nil
}

// trimOptional returns nil for absent or blank values.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *attendeeService) ListAttendees(ctx context.Context, certificateID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.certRepo.GetByID(ctx, certificateID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get certificate: %w", err)
	}
	attendees, total, err := s.attendeeRepo.ListByCertificateID(ctx, certificateID, p.Normalized())
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, total, nil
}

func (s *attendeeService) GetIssuedCertificate(ctx context.Context, publicID string) (*domain.IssuedCertificate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	attendee, err := s.issuedAttendee(ctx, publicID)
	if err != nil {
		return nil, err
	}
	cert, err := s.certRepo.GetByID(ctx, attendee.CertificateID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return &domain.IssuedCertificate{Attendee: attendee, Certificate: cert}, nil
}

// OpenCertificatePDF is not bounded by the service timeout; the caller streams the reader.
func (s *attendeeService) OpenCertificatePDF(ctx context.Context, publicID string) (io.ReadCloser, *domain.Attendee, error) {
	attendee, err := s.issuedAttendee(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Open(ctx, *attendee.PDFPath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open certificate: %w", err)
	}
	return rc, attendee, nil
}

func (s *attendeeService) issuedAttendee(ctx context.Context, publicID string) (*domain.Attendee, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, domain.ErrNotFound
	}
	attendee, err := s.attendeeRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if !attendee.IsIssued() {
		return nil, domain.ErrNotFound
	}
	return attendee, nil
}
