// Package policy implements the typed expression/action tree interpreter
// (spec §4.2): condition/action trees evaluated against a context of agent
// and transaction fields. Structurally modeled on the teacher's
// chain/config/genesis.go JSON-struct-plus-Validate() convention (trees are
// themselves declarative, validated config) and on its closed-enum
// SignatureAlgorithm/TransactionType pattern, generalized into the tagged
// Expr/Action sum types spec §9 requires ("encode as tagged variants...so
// every match is exhaustive").
package policy

import "fmt"

// ScalarType distinguishes the three leaf value types the expression
// grammar supports (spec §4.2).
type ScalarType uint8

const (
	TInt ScalarType = iota
	TFloat
	TStr
)

// Scalar is a typed leaf value: exactly one of I, F, S is meaningful,
// selected by Type.
type Scalar struct {
	Type ScalarType
	I    int64
	F    float64
	S    string
}

// IntScalar wraps an integer value.
func IntScalar(v int64) Scalar { return Scalar{Type: TInt, I: v} }

// FloatScalar wraps a float value.
func FloatScalar(v float64) Scalar { return Scalar{Type: TFloat, F: v} }

// StrScalar wraps a string value.
func StrScalar(v string) Scalar { return Scalar{Type: TStr, S: v} }

// AsFloat returns the scalar's numeric value as a float64. Reserved for
// the TFloat/TFloat comparison and compute paths — TInt/TInt operands
// must go through compareInt/computeInt instead, never through here
// (spec §3/§9: no floating-point value participates in a comparison or
// arithmetic op on money). Callers must have already checked the type
// compatibility rule — AsFloat itself does not enforce it.
func (s Scalar) AsFloat() float64 {
	if s.Type == TInt {
		return float64(s.I)
	}
	return s.F
}

func (s Scalar) String() string {
	switch s.Type {
	case TInt:
		return fmt.Sprintf("%d", s.I)
	case TFloat:
		return fmt.Sprintf("%g", s.F)
	default:
		return s.S
	}
}

// sameNumericKind reports whether a and b are "both integer" or "both
// float" — the operand-type rule the spec's comparison and compute grammar
// requires (cross-type comparison with a string is always an error; mixing
// int and float is likewise rejected rather than silently widened, so a
// scenario author's typo is surfaced as a warning instead of silently
// coerced).
func sameNumericKind(a, b Scalar) bool {
	return (a.Type == TInt && b.Type == TInt) || (a.Type == TFloat && b.Type == TFloat)
}
