package repository

import (
	"context"

	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

// InsertAccountInput contiene los datos para crear una cuenta social.
type InsertAccountInput struct {
	ClientID          string
	Platform          social.Platform
	AccountName       string
	AccountHandle     *string
	ExternalAccountID *string
	Status            social.Status
	Metadata          social.Metadata
}

// UpdateAccountInput reemplaza los campos de display, el estado y la metadata.
type UpdateAccountInput struct {
	ID                string
	ClientID          string
	AccountName       string
	AccountHandle     *string
	ExternalAccountID *string
	Status            social.Status
	Metadata          social.Metadata
}

// AccountRepository define operaciones sobre social_accounts.
type AccountRepository interface {
	// FindByExternalID busca por (client, platform, external_account_id).
	// Retorna ErrNotFound si no existe.
	FindByExternalID(ctx context.Context, clientID string, platform social.Platform, externalID string) (*social.Account, error)

	// FindByHandle busca por (client, platform, account_handle).
	// Retorna ErrNotFound si no existe.
	FindByHandle(ctx context.Context, clientID string, platform social.Platform, handle string) (*social.Account, error)

	// Insert crea una cuenta. Retorna ErrConflict ante violación de unicidad.
	Insert(ctx context.Context, in InsertAccountInput) (*social.Account, error)

	// Update actualiza una cuenta del cliente. Retorna ErrNotFound si no pertenece al cliente.
	Update(ctx context.Context, in UpdateAccountInput) (*social.Account, error)

	// ListByClient lista las cuentas del cliente ordenadas por connected_at desc.
	ListByClient(ctx context.Context, clientID string) ([]social.Account, error)

	// ListConnected lista cuentas conectadas de una plataforma.
	// clientID vacío lista todos los clientes (harvest programado).
	ListConnected(ctx context.Context, clientID string, platform social.Platform) ([]social.Account, error)
}

// SnapshotRepository define operaciones sobre social_account_daily_snapshots.
type SnapshotRepository interface {
	// Upsert inserta o pisa la fila (social_account_id, snapshot_date).
	Upsert(ctx context.Context, s social.DailySnapshot) error

	// History devuelve los snapshots de las cuentas con snapshot_date >= fromDate,
	// agrupados por cuenta y ordenados por fecha ascendente.
	History(ctx context.Context, clientID string, accountIDs []string, fromDate string) (map[string][]social.DailySnapshot, error)
}

// MembershipRepository resuelve a qué cliente pertenece un usuario (client_users).
type MembershipRepository interface {
	// ClientIDForUser retorna ErrNotFound si el usuario no tiene cliente.
	ClientIDForUser(ctx context.Context, userID string) (string, error)
}

// Store agrupa los repositorios y el ciclo de vida del backend.
type Store interface {
	Accounts() AccountRepository
	Snapshots() SnapshotRepository
	Memberships() MembershipRepository
	Ping(ctx context.Context) error
	Close() error
}
