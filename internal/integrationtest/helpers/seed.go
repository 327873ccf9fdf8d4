// Package helpers provides seeding helpers used in integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/internal/sessionrepo"
	"github.com/go-petr/pet-ledger/internal/userrepo"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/passpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/shopspring/decimal"
)

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	return SeedUserWith(t, tx, randompkg.Owner(), randompkg.String(32))
}

// SeedUserWith creates User with the given username and password inside a test transaction.
func SeedUserWith(t *testing.T, tx dbpkg.SQLInterface, username, password string) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		t.Fatalf("passpkg.Hash(%v) returned error: %v", password, err)
	}

	arg := domain.CreateUserParams{
		Username:       username,
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	userRepo := userrepo.NewRepoPGS(tx)

	user, err := userRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedEntry appends Entry inside a test transaction.
func SeedEntry(t *testing.T, tx dbpkg.SQLInterface, owner string, kind domain.EntryKind, amount decimal.Decimal) domain.Entry {
	t.Helper()

	arg := domain.CreateEntryParams{
		Owner:       owner,
		Kind:        kind,
		Amount:      amount,
		Description: randompkg.Description(),
	}

	entryRepo := entryrepo.NewTxRepoPGS(tx)

	entry, err := entryRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("entryRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return entry
}

// SeedDeposits appends count deposits with random amounts inside a test transaction.
func SeedDeposits(t *testing.T, tx dbpkg.SQLInterface, owner string, count int) []domain.Entry {
	t.Helper()

	entries := make([]domain.Entry, count)

	for i := range entries {
		entries[i] = SeedEntry(t, tx, owner, domain.KindDeposit, randompkg.Amount(1, 1000))
	}

	return entries
}

// SeedSession creates Session from arg inside a test transaction.
func SeedSession(t *testing.T, tx dbpkg.SQLInterface, arg domain.CreateSessionParams) domain.Session {
	t.Helper()

	session, err := sessionrepo.NewRepoPGS(tx).Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}
