package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"eventcertificates/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	getErr    error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Hashtag == e.Hashtag {
			return domain.ErrDuplicateHashtag
		}
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeCertRepo is an in-memory CertificateRepository for tests.
type fakeCertRepo struct {
	byID      map[string]*domain.CertificateDefinition
	nextID    int
	createErr error
	deleteErr error
	gets      int
}

func newFakeCertRepo(certs ...*domain.CertificateDefinition) *fakeCertRepo {
	f := &fakeCertRepo{byID: make(map[string]*domain.CertificateDefinition), nextID: 1}
	for _, c := range certs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCertRepo) Create(ctx context.Context, c *domain.CertificateDefinition) error {
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = fmt.Sprintf("cert-%d", f.nextID)
	f.nextID++
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCertRepo) GetByID(ctx context.Context, id string) (*domain.CertificateDefinition, error) {
	f.gets++
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCertRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.CertificateDefinition, error) {
	var out []*domain.CertificateDefinition
	for _, c := range f.byID {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCertRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeAttendeeRepo is an in-memory AttendeeRepository for tests.
type fakeAttendeeRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Attendee
	nextID    int
	updateErr error
	updates   int
}

func newFakeAttendeeRepo(attendees ...*domain.Attendee) *fakeAttendeeRepo {
	f := &fakeAttendeeRepo{byID: make(map[string]*domain.Attendee), nextID: 1}
	for _, a := range attendees {
		cp := *a
		f.byID[a.ID] = &cp
	}
	return f
}

func (f *fakeAttendeeRepo) Create(ctx context.Context, a *domain.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = fmt.Sprintf("att-%d", f.nextID)
	f.nextID++
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAttendeeRepo) GetByID(ctx context.Context, id string) (*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.Attendee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.PublicID == publicID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAttendeeRepo) ListByCertificateID(ctx context.Context, certificateID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	all := f.sorted(func(a *domain.Attendee) bool { return a.CertificateID == certificateID })
	total := len(all)
	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if p.PageSize <= 0 || end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeAttendeeRepo) ListPending(ctx context.Context, filter domain.PendingFilter) ([]*domain.Attendee, error) {
	out := f.sorted(func(a *domain.Attendee) bool {
		return !a.IsIssued() &&
			(filter.CertificateID == "" || a.CertificateID == filter.CertificateID) &&
			(filter.RetryFailed || a.IssueFailedAt == nil)
	})
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := out[i].IssueFailedAt, out[j].IssueFailedAt
		if fi == nil || fj == nil {
			return fi == nil && fj != nil
		}
		return fi.Before(*fj)
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeAttendeeRepo) MarkIssueFailed(ctx context.Context, id string, at time.Time, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	stored.IssueFailedAt = &at
	stored.IssueError = &reason
	return nil
}

func (f *fakeAttendeeRepo) sorted(keep func(*domain.Attendee) bool) []*domain.Attendee {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Attendee
	for _, a := range f.byID {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAttendeeRepo) UpdateIssuance(ctx context.Context, a *domain.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.PublicID = a.PublicID
	stored.PDFPath = a.PDFPath
	stored.IssuedAt = a.IssuedAt
	stored.UpdatedAt = a.UpdatedAt
	stored.IssueFailedAt = nil
	stored.IssueError = nil
	f.updates++
	return nil
}

// memStorage is an in-memory ArtifactStorage for tests.
type memStorage struct {
	mu        sync.Mutex
	files     map[string][]byte
	stored    []string
	deleted   []string
	storeErr  error
	deleteErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = b
	m.stored = append(m.stored, name)
	return name, nil
}

func (m *memStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, path)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, path)
	return nil
}

func (m *memStorage) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// fakeRenderer substitutes "{{ key }}" placeholders.
type fakeRenderer struct {
	err error
}

func (r *fakeRenderer) Render(templateText string, data map[string]string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	out := templateText
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{ "+k+" }}", v)
	}
	return out, nil
}

// fakeConverter records its input document and writes "%PDF-" followed by it.
type fakeConverter struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (c *fakeConverter) Convert(ctx context.Context, inputPath, outputPath string) error {
	b, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.inputs = append(c.inputs, string(b))
	c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(outputPath, append([]byte("%PDF-"), b...), 0o600)
}

// fakeEmailService records the notifications it was asked to send.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.CertificateIssuedEmailData
	err  error
}

func (f *fakeEmailService) SendCertificateIssued(ctx context.Context, data *domain.CertificateIssuedEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return f.err
}
