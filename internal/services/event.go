package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"eventcertificates/internal/domain"
)

var hashtagPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

const (
	maxEventNameLen    = 256
	maxEventHashtagLen = 64
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, name, hashtag string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	hashtag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hashtag), "#"))
	if name == "" || utf8.RuneCountInString(name) > maxEventNameLen {
		return nil, fmt.Errorf("%w: name is required and must be at most %d characters", domain.ErrInvalidInput, maxEventNameLen)
	}
	if len(hashtag) > maxEventHashtagLen || !hashtagPattern.MatchString(hashtag) {
		return nil, fmt.Errorf("%w: hashtag must match [a-z0-9-]+", domain.ErrInvalidInput)
	}

	now := time.Now()
	event := domain.NewEvent(name, hashtag, now, now)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrDuplicateHashtag) {
			return nil, domain.ErrDuplicateHashtag
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
