package middlewares

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
)

// MembershipResolver resuelve el cliente del usuario: primero la claim
// configurada y, si no viene, client_users. Los resultados (incluido "sin
// cliente") se cachean con TTL y las búsquedas concurrentes se colapsan.
type MembershipResolver struct {
	repo  repository.MembershipRepository
	claim string
	cache *expirable.LRU[string, string]
	group singleflight.Group
}

// NewMembershipResolver crea el resolver. size <= 0 usa 1024.
func NewMembershipResolver(repo repository.MembershipRepository, claim string, size int, ttl time.Duration) *MembershipResolver {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MembershipResolver{
		repo:  repo,
		claim: claim,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (m *MembershipResolver) ResolveTenant(ctx context.Context, userID string, claims map[string]any) (string, error) {
	if m.claim != "" {
		if v := ClaimString(claims, m.claim); v != "" {
			return v, nil
		}
	}
	if v, ok := m.cache.Get(userID); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(userID, func() (any, error) {
		clientID, err := m.repo.ClientIDForUser(ctx, userID)
		if err != nil {
			if !repository.IsNotFound(err) {
				return "", err
			}
			clientID = ""
		}
		m.cache.Add(userID, clientID)
		return clientID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Forget invalida la entrada cacheada de un usuario.
func (m *MembershipResolver) Forget(userID string) {
	m.cache.Remove(userID)
}
