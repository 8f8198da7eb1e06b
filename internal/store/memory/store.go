// Package memory implementa los repositorios en memoria.
// Se usa en tests y con storage.driver=memory en desarrollo local.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

// Store guarda todo bajo un único mutex.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]social.Account
	snapshots map[snapKey]social.DailySnapshot
	members   map[string]string
	now       func() time.Time
}

type snapKey struct {
	accountID string
	date      string
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:  make(map[string]social.Account),
		snapshots: make(map[snapKey]social.DailySnapshot),
		members:   make(map[string]string),
		now:       time.Now,
	}
}

// AddMember registra userID como miembro de clientID.
func (s *Store) AddMember(userID, clientID string) {
	s.mu.Lock()
	s.members[userID] = clientID
	s.mu.Unlock()
}

func (s *Store) Accounts() repository.AccountRepository       { return (*accountRepo)(s) }
func (s *Store) Snapshots() repository.SnapshotRepository     { return (*snapshotRepo)(s) }
func (s *Store) Memberships() repository.MembershipRepository { return (*membershipRepo)(s) }
func (s *Store) Ping(context.Context) error                   { return nil }
func (s *Store) Close() error                                 { return nil }

// clone copia la metadata vía JSON para que nadie comparta punteros con el store.
func clone(a social.Account) social.Account {
	b, err := json.Marshal(a.Metadata)
	if err == nil {
		var m social.Metadata
		if json.Unmarshal(b, &m) == nil {
			a.Metadata = m
		}
	}
	return a
}

func eqPtr(p *string, v string) bool { return p != nil && *p == v }

type accountRepo Store

func (r *accountRepo) find(match func(social.Account) bool) (*social.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if match(a) {
			c := clone(a)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *accountRepo) FindByExternalID(_ context.Context, clientID string, platform social.Platform, externalID string) (*social.Account, error) {
	return r.find(func(a social.Account) bool {
		return a.ClientID == clientID && a.Platform == platform && eqPtr(a.ExternalAccountID, externalID)
	})
}

// FindByHandle prefiere la fila sin external id, igual que el ORDER BY de pg.
func (r *accountRepo) FindByHandle(_ context.Context, clientID string, platform social.Platform, handle string) (*social.Account, error) {
	match := func(a social.Account) bool {
		return a.ClientID == clientID && a.Platform == platform && eqPtr(a.AccountHandle, handle)
	}
	acc, err := r.find(func(a social.Account) bool { return match(a) && a.ExternalAccountID == nil })
	if err == nil {
		return acc, nil
	}
	return r.find(match)
}

// conflicts replica los índices únicos parciales de la migración.
func (r *accountRepo) conflicts(skipID, clientID string, platform social.Platform, handle, externalID *string) bool {
	for id, a := range r.accounts {
		if id == skipID || a.ClientID != clientID || a.Platform != platform {
			continue
		}
		if externalID != nil && eqPtr(a.ExternalAccountID, *externalID) {
			return true
		}
		// handle único solo entre filas sin external id
		if handle != nil && externalID == nil && a.ExternalAccountID == nil && eqPtr(a.AccountHandle, *handle) {
			return true
		}
	}
	return false
}

func (r *accountRepo) Insert(_ context.Context, in repository.InsertAccountInput) (*social.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts("", in.ClientID, in.Platform, in.AccountHandle, in.ExternalAccountID) {
		return nil, fmt.Errorf("%w: social_accounts unique", repository.ErrConflict)
	}
	now := r.now()
	a := social.Account{
		ID:                uuid.NewString(),
		ClientID:          in.ClientID,
		Platform:          in.Platform,
		AccountName:       in.AccountName,
		AccountHandle:     in.AccountHandle,
		ExternalAccountID: in.ExternalAccountID,
		Status:            in.Status,
		ConnectedAt:       now,
		UpdatedAt:         now,
		Metadata:          in.Metadata,
	}
	a = clone(a)
	r.accounts[a.ID] = a
	out := clone(a)
	return &out, nil
}

func (r *accountRepo) Update(_ context.Context, in repository.UpdateAccountInput) (*social.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[in.ID]
	if !ok || a.ClientID != in.ClientID {
		return nil, repository.ErrNotFound
	}
	if r.conflicts(in.ID, a.ClientID, a.Platform, in.AccountHandle, in.ExternalAccountID) {
		return nil, fmt.Errorf("%w: social_accounts unique", repository.ErrConflict)
	}
	a.AccountName = in.AccountName
	a.AccountHandle = in.AccountHandle
	a.ExternalAccountID = in.ExternalAccountID
	a.Status = in.Status
	a.Metadata = in.Metadata
	a.UpdatedAt = r.now()
	a = clone(a)
	r.accounts[a.ID] = a
	out := clone(a)
	return &out, nil
}

func (r *accountRepo) list(match func(social.Account) bool) []social.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []social.Account
	for _, a := range r.accounts {
		if match(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnectedAt.After(out[j].ConnectedAt)
	})
	return out
}

func (r *accountRepo) ListByClient(_ context.Context, clientID string) ([]social.Account, error) {
	return r.list(func(a social.Account) bool { return a.ClientID == clientID }), nil
}

func (r *accountRepo) ListConnected(_ context.Context, clientID string, platform social.Platform) ([]social.Account, error) {
	return r.list(func(a social.Account) bool {
		return (clientID == "" || a.ClientID == clientID) && a.Platform == platform && a.Status == social.StatusConnected
	}), nil
}

type snapshotRepo Store

func (r *snapshotRepo) Upsert(_ context.Context, s social.DailySnapshot) error {
	if _, err := time.Parse(social.SnapshotDateLayout, s.SnapshotDate); err != nil {
		return fmt.Errorf("%w: snapshot date %q", repository.ErrInvalidInput, s.SnapshotDate)
	}
	r.mu.Lock()
	r.snapshots[snapKey{s.SocialAccountID, s.SnapshotDate}] = s
	r.mu.Unlock()
	return nil
}

func (r *snapshotRepo) History(_ context.Context, clientID string, accountIDs []string, fromDate string) (map[string][]social.DailySnapshot, error) {
	want := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		want[id] = struct{}{}
	}
	out := make(map[string][]social.DailySnapshot, len(accountIDs))

	r.mu.RLock()
	for k, s := range r.snapshots {
		if _, ok := want[k.accountID]; !ok || s.ClientID != clientID || k.date < fromDate {
			continue
		}
		out[k.accountID] = append(out[k.accountID], s)
	}
	r.mu.RUnlock()

	for id := range out {
		pts := out[id]
		// YYYY-MM-DD ordena lexicográficamente
		sort.Slice(pts, func(i, j int) bool { return pts[i].SnapshotDate < pts[j].SnapshotDate })
	}
	return out, nil
}

type membershipRepo Store

func (r *membershipRepo) ClientIDForUser(_ context.Context, userID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.members[userID]; ok {
		return c, nil
	}
	return "", repository.ErrNotFound
}
