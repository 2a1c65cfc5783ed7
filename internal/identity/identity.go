// Package identity checks email and password credentials against the user store.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/store"
)

var (
	ErrNotFound        = errors.New("no account with that email")
	ErrWrongCredential = errors.New("wrong password")
	ErrInactive        = errors.New("account is inactive")
	ErrUnavailable     = errors.New("identity service unavailable")
)

// Verifier authenticates a user by email and password.
type Verifier interface {
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

// StoreVerifier verifies bcrypt password hashes held in a UserStore.
type StoreVerifier struct {
	users store.UserStore

	// dummyHash is compared when the email is unknown so both failure paths
	// cost one bcrypt comparison.
	dummyHash []byte
}

var _ Verifier = (*StoreVerifier)(nil)

// NewStoreVerifier creates a verifier backed by users.
func NewStoreVerifier(users store.UserStore) *StoreVerifier {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	return &StoreVerifier{users: users, dummyHash: dummy}
}

// Verify returns the user when password matches. Failures map to
// ErrNotFound, ErrWrongCredential, ErrInactive or ErrUnavailable.
func (v *StoreVerifier) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := v.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to look up user")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrWrongCredential
		}
		log.Error().Err(err).Str("user_id", user.UserID.String()).Msg("Stored password hash is unusable")
		return nil, ErrWrongCredential
	}

	if !user.IsActive() {
		return nil, ErrInactive
	}

	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
