package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/roomchat/internal/core"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Gate authenticates connections before any of their events are handled.
type Gate struct {
	verifier core.IdentityVerifier
	users    core.UserStore
}

func NewGate(verifier core.IdentityVerifier, users core.UserStore) *Gate {
	return &Gate{verifier: verifier, users: users}
}

// Authenticate resolves token to a live user record. Every failure other
// than a store outage is reported as core.ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no token", core.ErrUnauthenticated)
	}
	uid, err := g.verifier.VerifyToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthenticated, err)
	}
	user, err := g.users.FindUser(ctx, uid)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", core.ErrUnauthenticated, err)
		}
		return nil, core.Persistence("find user", err)
	}
	return user, nil
}

// MarkOnline sets the durable online flag for an admitted connection.
func (g *Gate) MarkOnline(ctx context.Context, user *domain.User) {
	g.setOnline(ctx, user.ID, true)
	user.Online = true
}

// Release marks the user offline after their last connection ends.
func (g *Gate) Release(ctx context.Context, uid domain.UserID) {
	g.setOnline(ctx, uid, false)
}

func (g *Gate) setOnline(ctx context.Context, uid domain.UserID, online bool) {
	if err := g.users.SetOnline(ctx, uid, online); err != nil {
		log.Error().Err(err).Str("module", "app.gate").Str("user", string(uid)).Bool("online", online).Msg("failed to update online flag")
	}
}
