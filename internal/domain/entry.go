package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrEntryNotFound indicates that no entry with the given id exists for the owner.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInsufficientFunds indicates that the balance does not cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount indicates an amount that is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrInvalidEntryKind indicates an unknown entry kind.
	ErrInvalidEntryKind = errors.New("invalid entry kind")
)

// Amount bounds. Values beyond them are rejected before they are ever
// rendered in full, so an exponent such as 1e1000000 costs nothing.
const (
	MaxAmountIntegerDigits  = 15
	MaxAmountFractionDigits = 18
)

// AmountFits reports whether d has at most MaxAmountIntegerDigits integer
// digits and at most maxScale significant fractional digits. Trailing
// fractional zeros do not count, so 10.500 fits a scale of 2.
func AmountFits(d decimal.Decimal, maxScale int32) bool {
	coef := d.Coefficient()
	if coef.Sign() == 0 {
		return true
	}

	digits := int64(len(coef.Abs(coef).String()))
	exp := int64(d.Exponent())

	if digits+exp > MaxAmountIntegerDigits {
		return false
	}

	scale := -exp
	if scale <= int64(maxScale) {
		return true
	}

	// The coefficient cannot end in more zeros than it has digits.
	if scale-int64(maxScale) >= digits {
		return false
	}

	return d.Equal(d.Truncate(maxScale))
}

// EntryKind is the kind of balance movement an entry records.
type EntryKind string

// Entry kinds.
const (
	KindDeposit  EntryKind = "deposit"
	KindWithdraw EntryKind = "withdraw"
	KindTransfer EntryKind = "transfer"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransfer:
		return true
	}

	return false
}

// IsDebit reports whether entries of kind k decrease the owner's balance.
func (k EntryKind) IsDebit() bool {
	return k == KindWithdraw || k == KindTransfer
}

// Entry is an immutable record of a balance movement on one account.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	Owner       string          `json:"owner"`
	Kind        EntryKind       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	// Recipient is set on transfer entries only.
	Recipient string    `json:"recipient,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateEntryParams is the input data to append an entry.
type CreateEntryParams struct {
	Owner       string
	Kind        EntryKind
	Amount      decimal.Decimal
	Description string
	Recipient   string
}

// Balance is the derived balance of an account with the entries it was computed from.
type Balance struct {
	Entries []Entry         `json:"statement"`
	Balance decimal.Decimal `json:"balance"`
}

// EntryCreated is emitted after an entry has been appended.
type EntryCreated struct {
	EntryID    uuid.UUID       `json:"entry_id"`
	Owner      string          `json:"owner"`
	Kind       EntryKind       `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Recipient  string          `json:"recipient,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewEntryCreated builds the event describing e.
func NewEntryCreated(e Entry) EntryCreated {
	return EntryCreated{
		EntryID:    e.ID,
		Owner:      e.Owner,
		Kind:       e.Kind,
		Amount:     e.Amount,
		Recipient:  e.Recipient,
		OccurredAt: e.CreatedAt,
	}
}
