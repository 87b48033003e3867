package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SscSPs/billing_backoffice/internal/apperrors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money is an immutable amount held in integer minor units (cents for USD)
// together with its ISO 4217 currency code.
type Money struct {
	minor    int64
	currency string
}

// NewMoney creates a Money value from minor units and a 3-letter ISO currency code.
func NewMoney(minorUnits int64, currencyCode string) (Money, error) {
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return Money{}, err
	}
	return Money{minor: minorUnits, currency: code}, nil
}

// MustMoney is like NewMoney but panics on an invalid currency code.
// Intended for fixtures and tests.
func MustMoney(minorUnits int64, currencyCode string) Money {
	m, err := NewMoney(minorUnits, currencyCode)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currencyCode string) (Money, error) {
	return NewMoney(0, currencyCode)
}

// MoneyFromDecimal converts a major-unit decimal (e.g. 25.50) into Money.
// Amounts with more fractional digits than the currency allows are rejected
// instead of being rounded.
func MoneyFromDecimal(amount decimal.Decimal, currencyCode string) (Money, error) {
	code, err := normalizeCurrency(currencyCode)
	if err != nil {
		return Money{}, err
	}
	shifted := amount.Shift(int32(currencyScale(code)))
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: amount %s has more precision than %s allows", apperrors.ErrValidation, amount.String(), code)
	}
	if shifted.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || shifted.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return Money{}, fmt.Errorf("%w: amount %s is out of range", apperrors.ErrValidation, amount.String())
	}
	return Money{minor: shifted.IntPart(), currency: code}, nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: currency code %q must have 3 letters", apperrors.ErrValidation, code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: unknown currency code %q", apperrors.ErrValidation, code)
	}
	return unit.String(), nil
}

// currencyScale is the number of minor-unit digits for an already validated code.
func currencyScale(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// MinorUnits returns the amount in minor units.
func (m Money) MinorUnits() int64 { return m.minor }

// Currency returns the ISO 4217 currency code. Empty for the zero value.
func (m Money) Currency() string { return m.currency }

// Scale returns the number of fractional digits of the currency.
func (m Money) Scale() int { return currencyScale(m.currency) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.minor == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.minor < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.minor > 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(o Money) bool { return m.minor == o.minor && m.currency == o.currency }

// Add returns m + o.
func (m Money) Add(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", apperrors.ErrCurrencyMismatch, o.currency, m.currency)
	}
	sum := m.minor + o.minor
	if (o.minor > 0 && sum < m.minor) || (o.minor < 0 && sum > m.minor) {
		return Money{}, fmt.Errorf("%w: amount overflow", apperrors.ErrValidation)
	}
	return Money{minor: sum, currency: m.currency}, nil
}

// Subtract returns m - o.
func (m Money) Subtract(o Money) (Money, error) {
	if m.currency != o.currency {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", apperrors.ErrCurrencyMismatch, o.currency, m.currency)
	}
	if o.minor == math.MinInt64 {
		return Money{}, fmt.Errorf("%w: amount overflow", apperrors.ErrValidation)
	}
	return m.Add(Money{minor: -o.minor, currency: o.currency})
}

// Negate returns -m.
func (m Money) Negate() Money {
	return Money{minor: -m.minor, currency: m.currency}
}

// Abs returns the absolute amount.
func (m Money) Abs() Money {
	if m.minor < 0 {
		return m.Negate()
	}
	return m
}

// Sum adds up all amounts. An empty list yields zero in defaultCurrency, or
// ErrEmptyCurrencyUnknown when no default is given. The first element that
// does not share the currency of the first element fails the whole sum.
func Sum(amounts []Money, defaultCurrency string) (Money, error) {
	if len(amounts) == 0 {
		if defaultCurrency == "" {
			return Money{}, apperrors.ErrEmptyCurrencyUnknown
		}
		return ZeroMoney(defaultCurrency)
	}
	total := Money{currency: amounts[0].currency}
	for i, a := range amounts {
		next, err := total.Add(a)
		if err != nil {
			return Money{}, fmt.Errorf("summing element %d: %w", i, err)
		}
		total = next
	}
	return total, nil
}

// Decimal returns the amount in major units, e.g. 2550 USD -> 25.50.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -int32(m.Scale()))
}

// String renders the amount for logs, e.g. "25.50 USD".
func (m Money) String() string {
	return m.Decimal().StringFixed(int32(m.Scale())) + " " + m.currency
}

// Display formats the amount for people using the digits, grouping and
// decimal separator of locale, e.g. "$25.50" for en-US and "€25,50" for
// de-DE. The currency symbol always leads. Unknown locales fall back to
// English.
func (m Money) Display(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	scale := m.Scale()

	pow := int64(1)
	for range scale {
		pow *= 10
	}
	whole, frac := m.minor/pow, m.minor%pow
	sign := ""
	magnitude := uint64(whole)
	if m.IsNegative() {
		sign = "-"
		frac = -frac
	}
	if whole < 0 {
		magnitude = uint64(-(whole + 1)) + 1
	}

	amount := p.Sprint(number.Decimal(magnitude))
	if scale > 0 {
		amount += decimalSeparator(p) + p.Sprint(number.Decimal(frac,
			number.MinIntegerDigits(scale),
			number.NoSeparator(),
		))
	}

	unit, err := currency.ParseISO(m.currency)
	if err != nil {
		return sign + amount
	}
	return sign + p.Sprint(currency.Symbol(unit)) + amount
}

// decimalSeparator extracts the locale's separator from a formatted 0.5,
// which is exact in binary.
func decimalSeparator(p *message.Printer) string {
	half := p.Sprint(number.Decimal(0.5, number.MinIntegerDigits(1), number.MinFractionDigits(1)))
	zero := p.Sprint(number.Decimal(0))
	five := p.Sprint(number.Decimal(5))
	return strings.TrimSuffix(strings.TrimPrefix(half, zero), five)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON encodes Money as {"amount":"25.5","currency":"USD"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Decimal(), Currency: m.currency})
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := MoneyFromDecimal(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
