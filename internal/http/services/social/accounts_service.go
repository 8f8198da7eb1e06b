package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/brandkit/internal/audit"
	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
	dto "github.com/dropDatabas3/brandkit/internal/http/dto/social"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
	"github.com/dropDatabas3/brandkit/internal/validation"
)

const maxFieldLen = 120

var (
	ErrAccountConflict = errors.New("social account already exists")
	ErrAccountInvalid  = errors.New("invalid social account")
)

// AccountsService lista y registra cuentas sociales del cliente.
type AccountsService interface {
	List(ctx context.Context, tenantID string) ([]dto.Account, error)
	Register(ctx context.Context, tenantID string, in dto.RegisterRequest) (*dto.Account, error)
}

type accountsService struct {
	accounts repository.AccountRepository
}

func NewAccountsService(accounts repository.AccountRepository) AccountsService {
	return &accountsService{accounts: accounts}
}

func (s *accountsService) List(ctx context.Context, tenantID string) ([]dto.Account, error) {
	rows, err := s.accounts.ListByClient(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]dto.Account, 0, len(rows))
	for i := range rows {
		out = append(out, ToDTO(&rows[i]))
	}
	return out, nil
}

func (s *accountsService) Register(ctx context.Context, tenantID string, in dto.RegisterRequest) (*dto.Account, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.accounts"), logger.Op("Register"))

	platform := social.Platform(in.Platform)
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: platform must be instagram or facebook", ErrAccountInvalid)
	}
	name := strings.TrimSpace(in.AccountName)
	if !validation.LenBetween(in.AccountName, 1, maxFieldLen) || name == "" {
		return nil, fmt.Errorf("%w: accountName must have 1..%d characters", ErrAccountInvalid, maxFieldLen)
	}
	handle := strings.TrimSpace(deref(in.AccountHandle))
	if !validation.MaxLen(handle, maxFieldLen) {
		return nil, fmt.Errorf("%w: accountHandle too long", ErrAccountInvalid)
	}
	externalID := strings.TrimSpace(deref(in.ExternalAccountID))
	if !validation.MaxLen(externalID, maxFieldLen) {
		return nil, fmt.Errorf("%w: externalAccountId too long", ErrAccountInvalid)
	}

	var md social.Metadata
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: metadata", ErrAccountInvalid)
		}
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, fmt.Errorf("%w: metadata", ErrAccountInvalid)
		}
	}

	acc, err := s.accounts.Insert(ctx, repository.InsertAccountInput{
		ClientID:          tenantID,
		Platform:          platform,
		AccountName:       name,
		AccountHandle:     social.NullIfEmpty(handle),
		ExternalAccountID: social.NullIfEmpty(externalID),
		Status:            social.StatusConnected,
		Metadata:          md,
	})
	switch {
	case err == nil:
	case repository.IsConflict(err):
		return nil, ErrAccountConflict
	case errors.Is(err, repository.ErrInvalidInput):
		return nil, fmt.Errorf("%w: %v", ErrAccountInvalid, err)
	default:
		return nil, fmt.Errorf("insert account: %w", err)
	}

	log.Info("social account registered", logger.AccountID(acc.ID), logger.Platform(string(platform)))
	audit.Log(ctx, audit.EventAccountRegistered, logger.AccountID(acc.ID), logger.Platform(string(platform)))
	out := ToDTO(acc)
	return &out, nil
}

// ToDTO convierte una cuenta al formato público, sanitizando la metadata.
func ToDTO(a *social.Account) dto.Account {
	return dto.Account{
		ID:                a.ID,
		ClientID:          a.ClientID,
		Platform:          string(a.Platform),
		AccountName:       a.AccountName,
		AccountHandle:     a.AccountHandle,
		ExternalAccountID: a.ExternalAccountID,
		Status:            string(a.Status),
		ConnectedAt:       a.ConnectedAt,
		UpdatedAt:         a.UpdatedAt,
		Metadata:          SanitizeMetadata(a.Metadata),
	}
}
