package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oromiahinlala/tourism-backend/internal/mailer"
	"github.com/oromiahinlala/tourism-backend/internal/model"
	"github.com/oromiahinlala/tourism-backend/internal/queue"
	"github.com/oromiahinlala/tourism-backend/internal/repository"
)

// memCheckouts is an in-memory CheckoutStore that enforces the same unique
// constraints as the MySQL schema.
type memCheckouts struct {
	mu      sync.Mutex
	nextID  uint64
	rows    map[uint64]model.Checkout
	creates int

	// afterExists, when set, runs once a pre-check lookup has returned,
	// outside the lock, with the column that was checked.
	afterExists func(column string)
}

func newMemCheckouts() *memCheckouts {
	return &memCheckouts{rows: map[uint64]model.Checkout{}}
}

func (m *memCheckouts) violation(c *model.Checkout) error {
	for id, row := range m.rows {
		if id == c.ID {
			continue
		}
		if row.PhoneNumber == c.PhoneNumber {
			return &repository.UniqueViolationError{Table: "checkouts", Column: "phone_number"}
		}
		if row.Email == c.Email {
			return &repository.UniqueViolationError{Table: "checkouts", Column: "email"}
		}
	}
	return nil
}

func (m *memCheckouts) Create(_ context.Context, c *model.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if err := m.violation(c); err != nil {
		return err
	}
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.rows[c.ID] = *c
	return nil
}

func (m *memCheckouts) GetByID(_ context.Context, id uint64) (*model.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memCheckouts) GetByEmail(_ context.Context, email string) (*model.Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == email {
			r := row
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memCheckouts) exists(column string, match func(model.Checkout) bool, excludeID uint64) bool {
	found := m.lookup(match, excludeID)
	if m.afterExists != nil {
		m.afterExists(column)
	}
	return found
}

func (m *memCheckouts) lookup(match func(model.Checkout) bool, excludeID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if id != excludeID && match(row) {
			return true
		}
	}
	return false
}

func (m *memCheckouts) ExistsByPhone(_ context.Context, phone string, excludeID uint64) (bool, error) {
	return m.exists("phone_number", func(c model.Checkout) bool { return c.PhoneNumber == phone }, excludeID), nil
}

func (m *memCheckouts) ExistsByEmail(_ context.Context, email string, excludeID uint64) (bool, error) {
	return m.exists("email", func(c model.Checkout) bool { return c.Email == email }, excludeID), nil
}

func (m *memCheckouts) filter(keep func(model.Checkout) bool) []*model.Checkout {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Checkout{}
	for _, row := range m.rows {
		if keep(row) {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memCheckouts) List(context.Context) ([]*model.Checkout, error) {
	return m.filter(func(model.Checkout) bool { return true }), nil
}

func (m *memCheckouts) Search(_ context.Context, q string) ([]*model.Checkout, error) {
	q = strings.ToLower(q)
	return m.filter(func(c model.Checkout) bool {
		return strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Country), q)
	}), nil
}

func (m *memCheckouts) ListByPaymentStatus(_ context.Context, paid bool) ([]*model.Checkout, error) {
	return m.filter(func(c model.Checkout) bool { return c.HasPaid == paid }), nil
}

func (m *memCheckouts) Update(_ context.Context, c *model.Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := m.violation(c); err != nil {
		return err
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *memCheckouts) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memImages is an in-memory ImageStore.
type memImages struct {
	mu        sync.Mutex
	nextID    uint64
	rows      map[uint64]model.Image
	deleteErr error
	deleted   []uint64
}

func newMemImages() *memImages { return &memImages{rows: map[uint64]model.Image{}} }

func (m *memImages) Save(_ context.Context, up *model.Upload) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	img := model.Image{ID: m.nextID, ImageID: up.Filename, ImageURL: "/uploads/" + up.Filename}
	m.rows[img.ID] = img
	return &img, nil
}

func (m *memImages) Get(_ context.Context, id uint64) (*model.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.rows[id]
	if !ok {
		return nil, ErrImageNotFound
	}
	return &img, nil
}

func (m *memImages) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return ErrImageNotFound
	}
	delete(m.rows, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memImages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingMailer) messages() []mailer.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mailer.Message(nil), r.sent...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.CheckoutCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishCheckoutCreated(_ context.Context, ev queue.CheckoutCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")
