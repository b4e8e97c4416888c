// Package auth implements password hashing, access-token issuance and
// validation, and the ownership check used by the task endpoints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Anton0729/ToDo-List-Project/internal/models"
	"github.com/Anton0729/ToDo-List-Project/internal/storage/sqlite"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password, so a login failure never reveals which one it was.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// Authenticator verifies credentials against the user store and mints
// access tokens on success.
type Authenticator struct {
	store *sqlite.Store
	codec *Codec
	ttl   time.Duration
}

// NewAuthenticator wires the authenticator to its store and token codec.
func NewAuthenticator(store *sqlite.Store, codec *Codec, ttl time.Duration) *Authenticator {
	return &Authenticator{store: store, codec: codec, ttl: ttl}
}

// Authenticate resolves the username and checks the password. An unknown
// user short-circuits before any hash work is done.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := a.store.FindUserByUsername(ctx, username)
	if errors.Is(err, sqlite.ErrUserNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("authenticate: %w", err)
	}
	if !VerifyPassword(password, user.HashedPassword) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and issues an access token with the
// configured ttl.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return a.codec.Issue(user.Username, a.ttl)
}

// Register creates a new user with a hashed password. Returns
// sqlite.ErrUsernameTaken when the username is already registered.
func (a *Authenticator) Register(ctx context.Context, username, firstName, lastName, password string) (models.User, error) {
	if _, err := a.store.FindUserByUsername(ctx, username); err == nil {
		return models.User{}, sqlite.ErrUsernameTaken
	} else if !errors.Is(err, sqlite.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("register: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	return a.store.CreateUser(ctx, models.User{
		Username:       username,
		FirstName:      firstName,
		LastName:       lastName,
		HashedPassword: hash,
	})
}

// Authorize reports whether the principal owns the resource. Task mutation
// and deletion must pass this check before touching the row.
func Authorize(principal models.User, resourceOwnerID int64) bool {
	return principal.ID == resourceOwnerID
}
