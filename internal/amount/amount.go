// Package amount normalizes monetary input into fixed-point money.Amount values.
//
// Every monetary field in the ledger has two decimal places. Input is rounded
// half-up (ties move away from zero), so 10.005 becomes 10.01 and -10.005
// becomes -10.01. Values are persisted as integer minor units.
package amount

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/bukubesar/internal/errs"
)

// Currency is the single currency every ledger amount is denominated in.
const Currency = "IDR"

// Scale is the number of decimal places kept for every amount.
const Scale = 2

var (
	halfStep = decimal.MustNew(5, Scale+1)
	unitStep = decimal.MustNew(1, Scale)
)

// Zero returns a zero amount in the ledger currency.
func Zero() money.Amount { return MustFromMinor(0) }

// Parse converts v to a non-negative fixed-point amount. Zero is accepted here;
// rejecting zero line amounts is the caller's validation concern.
func Parse(v any) (money.Amount, error) {
	a, err := ParseSigned(v)
	if err != nil {
		return money.Amount{}, err
	}
	if a.IsNeg() {
		return money.Amount{}, fmt.Errorf("%w: %s is negative", errs.ErrInvalidAmount, String(a))
	}
	return a, nil
}

// ParseSigned is Parse without the sign restriction. It is used for derived
// figures such as net income which can legitimately be negative.
func ParseSigned(v any) (money.Amount, error) {
	d, err := toDecimal(v)
	if err != nil {
		return money.Amount{}, err
	}
	d, err = roundHalfUp(d)
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: %v", errs.ErrInvalidAmount, err)
	}
	a, err := money.NewAmountFromDecimal(money.MustParseCurr(Currency), d)
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: %v", errs.ErrInvalidAmount, err)
	}
	return a, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case money.Amount:
		return x.Decimal(), nil
	case string:
		return parseString(x)
	case json.Number:
		return parseString(x.String())
	case int:
		return decimal.New(int64(x), 0)
	case int32:
		return decimal.New(int64(x), 0)
	case int64:
		return decimal.New(x, 0)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case nil:
		return decimal.Decimal{}, fmt.Errorf("%w: missing value", errs.ErrInvalidAmount)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: unsupported type %T", errs.ErrInvalidAmount, v)
	}
}

func parseString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", errs.ErrInvalidAmount, s)
	}
	return d, nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: not a finite number", errs.ErrInvalidAmount)
	}
	// shortest representation that round-trips; avoids binary float artifacts like 0.1+0.2
	return parseString(strconv.FormatFloat(f, 'f', -1, 64))
}

func roundHalfUp(d decimal.Decimal) (decimal.Decimal, error) {
	if d.Scale() <= Scale {
		return d, nil
	}
	t := d.Trunc(Scale)
	rem, err := d.Sub(t)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if rem.Abs().Cmp(halfStep) < 0 {
		return t, nil
	}
	if d.IsNeg() {
		return t.Sub(unitStep)
	}
	return t.Add(unitStep)
}

// FromMinor builds an amount from integer minor units (1/100 of the currency unit).
func FromMinor(units int64) (money.Amount, error) {
	return money.NewAmountFromMinorUnits(Currency, units)
}

// MustFromMinor is FromMinor for values known to be valid.
func MustFromMinor(units int64) money.Amount {
	a, err := FromMinor(units)
	if err != nil {
		panic(err)
	}
	return a
}

// Minor returns a in minor units.
func Minor(a money.Amount) int64 {
	units, _ := a.MinorUnits()
	return units
}

// norm maps the zero value of money.Amount (which carries no currency) to Zero().
func norm(a money.Amount) money.Amount {
	if a.IsZero() && a.Curr().Code() != Currency {
		return Zero()
	}
	return a
}

// Add returns a+b.
func Add(a, b money.Amount) (money.Amount, error) {
	a, b = norm(a), norm(b)
	s, err := a.Add(b)
	if err != nil {
		return money.Amount{}, fmt.Errorf("add %s + %s: %w", String(a), String(b), err)
	}
	return s, nil
}

// Sub returns a-b.
func Sub(a, b money.Amount) (money.Amount, error) {
	a, b = norm(a), norm(b)
	d, err := a.Sub(b)
	if err != nil {
		return money.Amount{}, fmt.Errorf("sub %s - %s: %w", String(a), String(b), err)
	}
	return d, nil
}

// Neg returns -a.
func Neg(a money.Amount) money.Amount { return norm(a).Neg() }

// Abs returns |a|.
func Abs(a money.Amount) money.Amount { return norm(a).Abs() }

// Equal compares two amounts by value.
func Equal(a, b money.Amount) bool { return Minor(a) == Minor(b) }

// String renders a with exactly two decimal places and no currency code, e.g. "-12.50".
func String(a money.Amount) string {
	units := Minor(a)
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/100, units%100)
}
