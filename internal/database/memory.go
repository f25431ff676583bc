package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ieraasyl/StreamLink/internal/models"
)

// MemoryStore is an in-process credential store for local development and
// tests. Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// FindByEmail returns a copy of the stored user, or (nil, nil).
func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	user := *m.users[id]
	return &user, nil
}

// Create stores a new user. The email check and the insert happen under one
// lock so that concurrent registrations cannot both succeed.
func (m *MemoryStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	created := *user
	created.Email = models.NormalizeEmail(created.Email)
	if err := created.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[created.Email]; exists {
		return nil, models.ErrDuplicateEmail
	}

	created.ID = uuid.New()
	created.CreatedAt = m.now().UTC()
	created.UpdatedAt = created.CreatedAt

	stored := created
	m.users[created.ID] = &stored
	m.byEmail[created.Email] = created.ID

	return &created, nil
}

// Update applies the non-nil fields of fields.
func (m *MemoryStore) Update(_ context.Context, id uuid.UUID, fields models.UserFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return models.ErrUserNotFound
	}

	if fields.GoogleID != nil {
		user.GoogleID = *fields.GoogleID
	}
	if fields.Name != nil {
		user.Name = *fields.Name
	}
	if fields.Picture != nil {
		user.Picture = *fields.Picture
	}
	user.UpdatedAt = m.now().UTC()

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored users.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
