package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/brandkit/internal/domain/repository"
	"github.com/dropDatabas3/brandkit/internal/domain/social"
)

var (
	ErrLinkLookup = errors.New("link: lookup failed")
	ErrLinkUpdate = errors.New("link: update failed")
	ErrLinkInsert = errors.New("link: insert failed")
)

// LinkInput es el perfil verificado contra Meta que se vincula al cliente.
type LinkInput struct {
	ClientID   string
	Platform   social.Platform
	ExternalID string
	Username   string
	OAuth      *social.OAuthMetadata
}

// LinkResult indica qué fila quedó vinculada.
type LinkResult struct {
	Account *social.Account
	Created bool
}

// Linker hace el upsert de la cuenta: busca por external id, después por
// handle "@username" y si no hay fila inserta una nueva.
type Linker struct {
	accounts repository.AccountRepository
}

func NewLinker(accounts repository.AccountRepository) *Linker {
	return &Linker{accounts: accounts}
}

func (l *Linker) Link(ctx context.Context, in LinkInput) (LinkResult, error) {
	current, err := l.find(ctx, in)
	if err != nil {
		return LinkResult{}, err
	}
	if current != nil {
		return l.update(ctx, current, in)
	}

	handle := social.HandleFor(in.Username)
	acc, err := l.accounts.Insert(ctx, repository.InsertAccountInput{
		ClientID:          in.ClientID,
		Platform:          in.Platform,
		AccountName:       in.Username,
		AccountHandle:     &handle,
		ExternalAccountID: &in.ExternalID,
		Status:            social.StatusConnected,
		Metadata:          social.Metadata{OAuth: in.OAuth},
	})
	if err == nil {
		return LinkResult{Account: acc, Created: true}, nil
	}
	if !repository.IsConflict(err) {
		return LinkResult{}, fmt.Errorf("%w: %v", ErrLinkInsert, err)
	}

	// Otra request vinculó la misma cuenta entre el find y el insert.
	current, err = l.find(ctx, in)
	if err != nil {
		return LinkResult{}, err
	}
	if current == nil {
		return LinkResult{}, fmt.Errorf("%w: conflict without matching row", ErrLinkInsert)
	}
	return l.update(ctx, current, in)
}

func (l *Linker) find(ctx context.Context, in LinkInput) (*social.Account, error) {
	acc, err := l.accounts.FindByExternalID(ctx, in.ClientID, in.Platform, in.ExternalID)
	if err == nil {
		return acc, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %v", ErrLinkLookup, err)
	}

	acc, err = l.accounts.FindByHandle(ctx, in.ClientID, in.Platform, social.HandleFor(in.Username))
	if err == nil {
		return acc, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %v", ErrLinkLookup, err)
	}
	return nil, nil
}

func (l *Linker) update(ctx context.Context, current *social.Account, in LinkInput) (LinkResult, error) {
	handle := social.HandleFor(in.Username)
	acc, err := l.accounts.Update(ctx, repository.UpdateAccountInput{
		ID:                current.ID,
		ClientID:          in.ClientID,
		AccountName:       in.Username,
		AccountHandle:     &handle,
		ExternalAccountID: &in.ExternalID,
		Status:            social.StatusConnected,
		Metadata:          current.Metadata.WithOAuth(in.OAuth),
	})
	if err != nil {
		return LinkResult{}, fmt.Errorf("%w: %v", ErrLinkUpdate, err)
	}
	return LinkResult{Account: acc}, nil
}
