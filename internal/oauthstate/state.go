// Package oauthstate emite y consume el parámetro state del flujo OAuth.
//
// El state tiene la forma "<clientID>:<uuid>". Además de la cookie, se guarda
// un registro server-side de un solo uso con TTL; Consume lo borra
// atómicamente, así un state ya usado o vencido no vuelve a validar.
package oauthstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/brandkit/internal/cache"
)

const keyPrefix = "oauth_state:"

var (
	// ErrUnknownState: no existe registro (nunca emitido, vencido o ya consumido).
	ErrUnknownState = errors.New("oauthstate: unknown or consumed state")
	// ErrClientMismatch: el registro pertenece a otro cliente.
	ErrClientMismatch = errors.New("oauthstate: state issued for another client")
)

// Store emite y consume states.
type Store struct {
	cache cache.Client
	ttl   time.Duration
}

// New crea un Store sobre el cache. ttl <= 0 usa 15 minutos.
func New(c cache.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{cache: c, ttl: ttl}
}

// TTL es la vida del state; la cookie usa el mismo valor.
func (s *Store) TTL() time.Duration { return s.ttl }

// Issue genera un state nuevo para clientID y lo registra.
func (s *Store) Issue(ctx context.Context, clientID string) (string, error) {
	state := clientID + ":" + uuid.NewString()
	if err := s.cache.Set(ctx, keyPrefix+state, clientID, s.ttl); err != nil {
		return "", fmt.Errorf("oauthstate: save: %w", err)
	}
	return state, nil
}

// Consume quema el registro del state. Solo la primera llamada tiene éxito.
func (s *Store) Consume(ctx context.Context, state, clientID string) error {
	owner, err := s.cache.Take(ctx, keyPrefix+state)
	if cache.IsNotFound(err) {
		return ErrUnknownState
	}
	if err != nil {
		return fmt.Errorf("oauthstate: take: %w", err)
	}
	if owner != clientID {
		return ErrClientMismatch
	}
	return nil
}

// Discard borra el registro sin validar (estados terminales).
func (s *Store) Discard(ctx context.Context, state string) {
	if state == "" {
		return
	}
	_ = s.cache.Delete(ctx, keyPrefix+state)
}

// HasClientPrefix reporta si state pertenece a clientID ("<clientID>:...").
func HasClientPrefix(state, clientID string) bool {
	return clientID != "" && strings.HasPrefix(state, clientID+":")
}
