package entryrepo

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoMem is an in-memory append-only entry log.
//
// Entries live in a single arena in insertion order. Per-owner indexes and
// running balances are kept alongside so reads and the conditional debit check
// never scan other owners' entries.
type RepoMem struct {
	mu       sync.RWMutex
	entries  []domain.Entry
	byID     map[uuid.UUID]int
	byOwner  map[string][]int
	balances map[string]decimal.Decimal
	now      func() time.Time
}

// NewRepoMem returns an empty in-memory entry log.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		byID:     make(map[uuid.UUID]int),
		byOwner:  make(map[string][]int),
		balances: make(map[string]decimal.Decimal),
		now:      time.Now,
	}
}

// Create appends the entry and then returns it.
//
// Debit entries are rejected with domain.ErrInsufficientFunds when the owner's
// balance at write time does not cover the amount.
func (r *RepoMem) Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	if !arg.Kind.Valid() {
		return domain.Entry{}, domain.ErrInvalidEntryKind
	}

	if !arg.Amount.IsPositive() {
		return domain.Entry{}, domain.ErrNegativeAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	balance := r.balances[arg.Owner]

	if arg.Kind.IsDebit() {
		if balance.LessThan(arg.Amount) {
			zerolog.Ctx(ctx).Info().
				Str("owner", arg.Owner).
				Str("balance", balance.String()).
				Str("amount", arg.Amount.String()).
				Msg("debit rejected at write time")

			return domain.Entry{}, domain.ErrInsufficientFunds
		}

		balance = balance.Sub(arg.Amount)
	} else {
		balance = balance.Add(arg.Amount)
	}

	now := r.now().UTC()
	e := domain.Entry{
		ID:          uuid.New(),
		Owner:       arg.Owner,
		Kind:        arg.Kind,
		Amount:      arg.Amount,
		Description: arg.Description,
		Recipient:   arg.Recipient,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	idx := len(r.entries)
	r.entries = append(r.entries, e)
	r.byID[e.ID] = idx
	r.byOwner[e.Owner] = append(r.byOwner[e.Owner], idx)
	r.balances[e.Owner] = balance

	return e, nil
}

// Get returns the entry with the given id.
func (r *RepoMem) Get(_ context.Context, id uuid.UUID) (domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return domain.Entry{}, domain.ErrEntryNotFound
	}

	return r.entries[idx], nil
}

// ListByOwner returns a copy of the owner's entries in insertion order.
func (r *RepoMem) ListByOwner(_ context.Context, owner string) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idxs := r.byOwner[owner]
	items := make([]domain.Entry, 0, len(idxs))

	for _, idx := range idxs {
		items = append(items, r.entries[idx])
	}

	return items, nil
}
