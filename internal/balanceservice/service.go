// Package balanceservice derives account balances from the entry ledger.
package balanceservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by balance service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package balanceservice
type Repo interface {
	ListByOwner(ctx context.Context, owner string) ([]domain.Entry, error)
}

// AccountDirectory reports whether an account exists.
type AccountDirectory interface {
	Exists(ctx context.Context, owner string) (bool, error)
}

// Service facilitates balance service layer logic.
type Service struct {
	repo     Repo
	accounts AccountDirectory
}

// New returns balance service struct to derive balances.
func New(er Repo, ad AccountDirectory) *Service {
	return &Service{
		repo:     er,
		accounts: ad,
	}
}

// Sum returns the signed total of entries: deposits minus withdrawals and transfers.
func Sum(entries []domain.Entry) decimal.Decimal {
	balance := decimal.Zero

	for _, e := range entries {
		if e.Kind.IsDebit() {
			balance = balance.Sub(e.Amount)
			continue
		}

		balance = balance.Add(e.Amount)
	}

	return balance
}

// Balance returns the owner's balance together with the full entry history it
// was derived from.
func (s *Service) Balance(ctx context.Context, owner string) (domain.Balance, error) {
	l := zerolog.Ctx(ctx)

	exists, err := s.accounts.Exists(ctx, owner)
	if err != nil {
		return domain.Balance{}, err
	}

	if !exists {
		l.Info().Str("owner", owner).Err(domain.ErrAccountNotFound).Send()
		return domain.Balance{}, domain.ErrAccountNotFound
	}

	entries, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return domain.Balance{}, err
	}

	if entries == nil {
		entries = []domain.Entry{}
	}

	return domain.Balance{
		Entries: entries,
		Balance: Sum(entries),
	}, nil
}
