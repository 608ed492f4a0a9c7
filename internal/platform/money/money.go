// Package money implements the fixed-point monetary amount used across
// ledger postings, SEPA/SWIFT fee calculation and AML thresholds. Amounts are
// never floats: every arithmetic path goes through shopspring/decimal so
// rounding is explicit and deterministic.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places ledger postings are stored and
// compared at. Zero-decimal currencies (JPY et al.) are not handled;
// every currency here is scale-2.
const Scale = 2

// Amount is a non-negative-or-negative fixed-point quantity in a single
// currency. The zero value is 0.00 and is safe to use.
type Amount struct {
	Currency string
	Value    decimal.Decimal
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Amount {
	return Amount{Currency: currency, Value: decimal.Zero}
}

// New parses amount (e.g. "100.50") into an Amount rounded to Scale using
// banker's rounding (round-half-to-even), so amounts are normalized before
// they hit storage.
func New(currency, amount string) (Amount, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parse %q: %w", amount, err)
	}

	return Amount{Currency: currency, Value: d.RoundBank(Scale)}, nil
}

// FromDecimal wraps an already-computed decimal.Decimal, rounding to Scale.
func FromDecimal(currency string, d decimal.Decimal) Amount {
	return Amount{Currency: currency, Value: d.RoundBank(Scale)}
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.StringFixed(Scale), a.Currency)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.Value.IsZero() }

// IsNegative reports whether the amount is strictly less than zero.
func (a Amount) IsNegative() bool { return a.Value.IsNegative() }

// SameCurrency reports whether a and b share a currency code.
func (a Amount) SameCurrency(b Amount) bool { return a.Currency == b.Currency }

// Add returns a+b. Panics if currencies differ — callers validate currency
// match at the domain boundary (CurrencyMismatch is a validation error, not
// an arithmetic one).
func (a Amount) Add(b Amount) Amount {
	a.mustMatch(b)
	return FromDecimal(a.Currency, a.Value.Add(b.Value))
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount {
	a.mustMatch(b)
	return FromDecimal(a.Currency, a.Value.Sub(b.Value))
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return FromDecimal(a.Currency, a.Value.Neg())
}

// Cmp returns -1, 0 or 1 comparing a to b, per decimal.Decimal.Cmp.
func (a Amount) Cmp(b Amount) int {
	a.mustMatch(b)
	return a.Value.Cmp(b.Value)
}

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.Cmp(b) > 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

func (a Amount) mustMatch(b Amount) {
	if a.Currency != b.Currency {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", a.Currency, b.Currency))
	}
}

// ApplyPercentage returns a rounded to Scale after multiplying by pct/100,
// used for SWIFT percentage fees and AML amount-ratio thresholds.
func (a Amount) ApplyPercentage(pct decimal.Decimal) Amount {
	factor := pct.Div(decimal.NewFromInt(100))
	return FromDecimal(a.Currency, a.Value.Mul(factor))
}
