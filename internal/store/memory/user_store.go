package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var _ store.UserStore = (*UserStore)(nil)

// UserStore implements store.UserStore using in-memory storage.
// This implementation is for development and testing - data is lost on restart.
type UserStore struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*models.User // user_id -> User
	usersByEmail map[string]*models.User    // lower(email) -> User
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:        make(map[uuid.UUID]*models.User),
		usersByEmail: make(map[string]*models.User),
	}
}

// Create creates a new user in memory.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.UserID]; exists {
		return store.ErrUserAlreadyExists
	}

	emailKey := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[emailKey]; exists {
		return store.ErrUserAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *user
	s.users[user.UserID] = &clone
	s.usersByEmail[emailKey] = &clone

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// Update updates an existing user.
func (s *UserStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.UserID]
	if !exists {
		return store.ErrUserNotFound
	}

	oldKey := strings.ToLower(existing.Email)
	newKey := strings.ToLower(user.Email)
	if newKey != oldKey {
		if _, taken := s.usersByEmail[newKey]; taken {
			return store.ErrUserAlreadyExists
		}
	}

	user.UpdatedAt = time.Now()

	clone := *user
	// Password hash and creation time are not changed by Update
	if clone.PasswordHash == "" {
		clone.PasswordHash = existing.PasswordHash
	}
	clone.CreatedAt = existing.CreatedAt

	delete(s.usersByEmail, oldKey)
	s.users[user.UserID] = &clone
	s.usersByEmail[newKey] = &clone

	return nil
}

// List returns all users ordered by creation time.
func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		clone := *user
		users = append(users, &clone)
	}

	slices.SortFunc(users, func(a, b *models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})

	return users, nil
}
