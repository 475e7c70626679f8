package services

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenService issues and validates the self-service access tokens sent
// to policy actors by email.
type TokenService struct {
	db     *gorm.DB
	logger *zap.Logger
	ttl    time.Duration
}

func NewTokenService(db *gorm.DB, logger *zap.Logger, ttl time.Duration) *TokenService {
	return &TokenService{
		db:     db,
		logger: logger.With(zap.String("service", "token_service")),
		ttl:    ttl,
	}
}

// NewToken generates a fresh token value and its expiry.
func (ts *TokenService) NewToken() (string, time.Time) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is unusable anyway
		panic(err)
	}
	return hex.EncodeToString(buf), time.Now().Add(ts.ttl)
}

// Assign stamps a fresh token on the actor row inside the given tx.
func (ts *TokenService) Assign(tx *gorm.DB, kind models.ActorKind, actorID string) (string, error) {
	token, expiry := ts.NewToken()
	err := updateActorColumns(tx, kind, actorID, map[string]any{
		"access_token": token,
		"token_expiry": expiry,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Regenerate invalidates the current token and issues a new one; used
// after an actor is replaced so distributed links stop working.
func (ts *TokenService) Regenerate(kind models.ActorKind, actorID string) (string, error) {
	token, err := ts.Assign(ts.db, kind, actorID)
	if err != nil {
		return "", err
	}
	ts.logger.Info("access token regenerated",
		zap.String("actor_kind", string(kind)),
		zap.String("actor_id", actorID))
	return token, nil
}

// Resolve validates a token and returns the actor it belongs to.
func (ts *TokenService) Resolve(token string) (*Actor, error) {
	if token == "" {
		return nil, NewError(ErrInvalidToken, "access token required")
	}
	actor, err := LoadActorByToken(ts.db, token)
	if err != nil {
		return nil, err
	}
	if actor.Common.TokenExpiry != nil && actor.Common.TokenExpiry.Before(time.Now()) {
		return nil, NewError(ErrTokenExpired, "access token expired")
	}
	return actor, nil
}

// ResolveForEditing additionally rejects actors that already submitted.
func (ts *TokenService) ResolveForEditing(token string) (*Actor, error) {
	actor, err := ts.Resolve(token)
	if err != nil {
		return nil, err
	}
	if actor.Common.InformationComplete {
		return nil, NewError(ErrAlreadyComplete, "information already submitted for this %s", kindLabel(actor.Kind))
	}
	return actor, nil
}
