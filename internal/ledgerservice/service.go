// Package ledgerservice manages deposits, withdrawals, transfers and ledger
// reads for user accounts.
//
// Debits are serialized per account: the balance check and the append of a
// withdraw or transfer run while holding the owner's key in a lock table, and
// the repository re-checks the balance at write time.
package ledgerservice

import (
	"context"
	"errors"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/lockpkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Entry, error)
}

// AccountDirectory reports whether an account exists.
type AccountDirectory interface {
	Exists(ctx context.Context, owner string) (bool, error)
}

// BalanceCalculator derives the balance of an account.
type BalanceCalculator interface {
	Balance(ctx context.Context, owner string) (domain.Balance, error)
}

// Publisher announces appended entries.
type Publisher interface {
	Publish(ctx context.Context, event domain.EntryCreated) error
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo      Repo
	accounts  AccountDirectory
	balances  BalanceCalculator
	publisher Publisher
	locks     *lockpkg.KeyedMutex
}

// New returns ledger service struct to manage ledger business logic.
//
// A nil publisher disables entry events.
func New(er Repo, ad AccountDirectory, bc BalanceCalculator, p Publisher) *Service {
	return &Service{
		repo:      er,
		accounts:  ad,
		balances:  bc,
		publisher: p,
		locks:     lockpkg.NewKeyedMutex(),
	}
}

func parseAmount(ctx context.Context, amount string) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	d, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return decimal.Zero, domain.ErrInvalidAmount
	}

	if !d.IsPositive() {
		l.Info().Str("amount", amount).Err(domain.ErrNegativeAmount).Send()
		return decimal.Zero, domain.ErrNegativeAmount
	}

	if !domain.AmountFits(d, domain.MaxAmountFractionDigits) {
		l.Info().Int32("exponent", d.Exponent()).Err(domain.ErrInvalidAmount).Msg("amount out of range")
		return decimal.Zero, domain.ErrInvalidAmount
	}

	return d, nil
}

// resolve returns notFound when the directory does not know the account.
func (s *Service) resolve(ctx context.Context, owner string, notFound error) error {
	exists, err := s.accounts.Exists(ctx, owner)
	if err != nil {
		return err
	}

	if !exists {
		zerolog.Ctx(ctx).Info().Str("owner", owner).Err(notFound).Send()
		return notFound
	}

	return nil
}

// Deposit appends a deposit entry to the owner's ledger.
func (s *Service) Deposit(ctx context.Context, owner, amount, description string) (domain.Entry, error) {
	d, err := parseAmount(ctx, amount)
	if err != nil {
		return domain.Entry{}, err
	}

	if err := s.resolve(ctx, owner, domain.ErrAccountNotFound); err != nil {
		return domain.Entry{}, err
	}

	arg := domain.CreateEntryParams{
		Owner:       owner,
		Kind:        domain.KindDeposit,
		Amount:      d,
		Description: description,
	}

	e, err := s.repo.Create(ctx, arg)
	if err != nil {
		return e, err
	}

	s.publish(ctx, e)

	return e, nil
}

// Withdraw appends a withdraw entry if the owner's balance covers the amount.
func (s *Service) Withdraw(ctx context.Context, owner, amount, description string) (domain.Entry, error) {
	d, err := parseAmount(ctx, amount)
	if err != nil {
		return domain.Entry{}, err
	}

	if err := s.resolve(ctx, owner, domain.ErrAccountNotFound); err != nil {
		return domain.Entry{}, err
	}

	arg := domain.CreateEntryParams{
		Owner:       owner,
		Kind:        domain.KindWithdraw,
		Amount:      d,
		Description: description,
	}

	e, err := s.debit(ctx, arg, domain.ErrAccountNotFound)
	if err != nil {
		return e, err
	}

	s.publish(ctx, e)

	return e, nil
}

// Transfer appends a single transfer entry to the sender's ledger.
//
// The recipient must exist and is recorded on the entry, but no credit entry
// is appended to the recipient's ledger.
func (s *Service) Transfer(ctx context.Context, sender, recipient, amount, description string) (domain.Entry, error) {
	d, err := parseAmount(ctx, amount)
	if err != nil {
		return domain.Entry{}, err
	}

	if err := s.resolve(ctx, sender, domain.ErrSenderNotFound); err != nil {
		return domain.Entry{}, err
	}

	if err := s.resolve(ctx, recipient, domain.ErrRecipientNotFound); err != nil {
		return domain.Entry{}, err
	}

	arg := domain.CreateEntryParams{
		Owner:       sender,
		Kind:        domain.KindTransfer,
		Amount:      d,
		Description: description,
		Recipient:   recipient,
	}

	e, err := s.debit(ctx, arg, domain.ErrSenderNotFound)
	if err != nil {
		return e, err
	}

	s.publish(ctx, e)

	return e, nil
}

// debit runs the balance check and the append as one critical section on the owner.
func (s *Service) debit(ctx context.Context, arg domain.CreateEntryParams, notFound error) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	unlock := s.locks.Lock(arg.Owner)
	defer unlock()

	b, err := s.balances.Balance(ctx, arg.Owner)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Entry{}, notFound
		}

		return domain.Entry{}, err
	}

	if b.Balance.LessThan(arg.Amount) {
		l.Info().
			Str("owner", arg.Owner).
			Str("balance", b.Balance.String()).
			Str("amount", arg.Amount.String()).
			Err(domain.ErrInsufficientFunds).
			Send()

		return domain.Entry{}, domain.ErrInsufficientFunds
	}

	e, err := s.repo.Create(ctx, arg)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return e, notFound
	}

	return e, err
}

func (s *Service) publish(ctx context.Context, e domain.Entry) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, domain.NewEntryCreated(e)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("entry_id", e.ID.String()).Msg("publish entry event")
	}
}

// GetBalance returns the owner's balance and entry history.
func (s *Service) GetBalance(ctx context.Context, owner string) (domain.Balance, error) {
	return s.balances.Balance(ctx, owner)
}

// GetEntry returns the owner's entry with the given id.
//
// Entries of other owners are reported as domain.ErrEntryNotFound.
func (s *Service) GetEntry(ctx context.Context, owner string, id uuid.UUID) (domain.Entry, error) {
	if err := s.resolve(ctx, owner, domain.ErrAccountNotFound); err != nil {
		return domain.Entry{}, err
	}

	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Entry{}, err
	}

	if e.Owner != owner {
		zerolog.Ctx(ctx).Info().Str("owner", owner).Str("entry_id", id.String()).Msg("entry owned by another account")
		return domain.Entry{}, domain.ErrEntryNotFound
	}

	return e, nil
}
