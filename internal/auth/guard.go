package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/model"
	"github.com/iliyamo/notes-api/internal/repository"
)

// IdentityStore is the part of the record store the guard needs.
type IdentityStore interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// Guard resolves bearer tokens to identities and enforces policies.
type Guard struct {
	tokens *TokenService
	users  IdentityStore
}

func NewGuard(tokens *TokenService, users IdentityStore) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate validates raw and loads the identity it names. A missing
// user yields the same error as a bad token; a record store failure yields
// apperr.ErrDependencyUnavailable.
func (g *Guard) Authenticate(ctx context.Context, raw string) (model.User, error) {
	username, err := g.tokens.Validate(raw)
	if err != nil {
		return model.User{}, err
	}
	u, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperr.ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("%w: load identity: %v", apperr.ErrDependencyUnavailable, err)
	}
	return u, nil
}

// Authorize returns the identity unchanged when its role equals the
// policy's required role and apperr.ErrForbidden otherwise.
func (g *Guard) Authorize(u model.User, p Policy) (model.User, error) {
	if u.Role != p.RequiredRole {
		return model.User{}, apperr.ErrForbidden
	}
	return u, nil
}
