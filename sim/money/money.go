// Package money defines the single integer-cent monetary type used
// everywhere in the simulator core. No floating-point value is ever
// permitted to represent or participate in a settlement, cost, or policy
// comparison on money.
package money

import "math"

// Cents is a signed integer amount of cents. All balances, caps, posted
// collateral, costs, and settlement amounts are Cents.
type Cents int64

// Zero is the additive identity.
const Zero Cents = 0

// Add returns c + other.
func (c Cents) Add(other Cents) Cents {
	return c + other
}

// Sub returns c - other.
func (c Cents) Sub(other Cents) Cents {
	return c - other
}

// Neg returns -c.
func (c Cents) Neg() Cents {
	return -c
}

// Min returns the smaller of c and other.
func (c Cents) Min(other Cents) Cents {
	if c < other {
		return c
	}
	return other
}

// Max returns the larger of c and other.
func (c Cents) Max(other Cents) Cents {
	if c > other {
		return c
	}
	return other
}

// Positive returns c if c > 0, else 0. Used for overdraft cost accrual
// where only the negative-balance magnitude matters.
func Positive(c Cents) Cents {
	if c > 0 {
		return c
	}
	return 0
}

// TruncRatio converts a ratio in [0,1] multiplied by a cents base into an
// integer cents amount, truncating toward zero. This is the single
// documented rounding rule for ratio→cents conversion (spec §3, §9) — every
// call site that turns a float ratio parameter into money MUST go through
// this function.
func TruncRatio(ratio float64, base Cents) Cents {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	product := ratio * float64(base)
	return Cents(math.Trunc(product))
}

// Bps computes rateBps * base / 10_000, truncated toward zero — the shape
// used throughout spec §4.5's cost formulas (delay, overdraft, collateral
// costs accrue per tick this way; deadline and EOD penalties apply it once).
func Bps(rateBps int64, base Cents) Cents {
	// int64 division already truncates toward zero for Go; base and rate
	// are both small enough in practice (rate_bps bounded, base bounded by
	// realistic cent ledgers) that the int64 product will not overflow for
	// any sane scenario config.
	return Cents(int64(base) * rateBps / 10_000)
}
