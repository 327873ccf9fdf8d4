package ledgerdelivery

import (
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxAmountScale is the number of fractional digits accepted in request amounts.
const MaxAmountScale = 2

// ValidAmount validates whether the field holds a positive decimal with at
// most MaxAmountScale fractional digits and domain.MaxAmountIntegerDigits
// integer digits.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return d.IsPositive() && domain.AmountFits(d, MaxAmountScale)
}
