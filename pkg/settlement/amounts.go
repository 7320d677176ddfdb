package settlement

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var errNegativeAmount = errors.New("amount must be non-negative")

// Token is an opaque 20-byte token address.
type Token = common.Address

// Amount is a non-negative 256-bit unsigned integer. All arithmetic on
// Amount is checked: callers must treat overflow/underflow as a fatal
// error for the enclosing trade or interaction rather than silently
// wrapping.
type Amount = uint256.Int

// zero returns a fresh zero-valued Amount. uint256.Int's zero value is
// already zero, but this keeps call sites explicit about intent.
func zero() *Amount { return new(Amount) }

// Zero returns a fresh zero-valued Amount, for callers outside the
// package that need an explicit zero (e.g. a call with no native value).
func Zero() *Amount { return new(Amount) }

// FromUint64 builds an Amount from a small non-negative literal.
func FromUint64(v uint64) *Amount { return mustFromUint64(v) }

// mustFromUint64 builds an Amount from a small non-negative literal, used
// for constants like GAS_PER_ORDER that are always representable.
func mustFromUint64(v uint64) *Amount { return new(Amount).SetUint64(v) }

// checkedAdd returns a+b, or ok=false if the addition overflows 256 bits.
func checkedAdd(a, b *Amount) (sum *Amount, ok bool) {
	sum = new(Amount)
	_, overflow := sum.AddOverflow(a, b)
	return sum, !overflow
}

// checkedSub returns a-b, or ok=false if b > a (would underflow).
func checkedSub(a, b *Amount) (diff *Amount, ok bool) {
	if a.Lt(b) {
		return nil, false
	}
	diff = new(Amount).Sub(a, b)
	return diff, true
}

// checkedMul returns a*b, or ok=false if the product overflows 256 bits.
func checkedMul(a, b *Amount) (product *Amount, ok bool) {
	product = new(Amount)
	_, overflow := product.MulOverflow(a, b)
	return product, !overflow
}

// floorDiv returns a/b truncating toward zero. b must be non-zero; callers
// check for division by zero before calling (it signals FeeScalingFailed
// or a distinct arithmetic error depending on context).
func floorDiv(a, b *Amount) *Amount {
	return new(Amount).Div(a, b)
}

// ceilDiv computes ceil(a/b) = (a+b-1)/b, guarding the intermediate
// a+b-1 against overflow per the spec's explicit warning about this
// computation.
func ceilDiv(a, b *Amount) (quotient *Amount, ok bool) {
	one := mustFromUint64(1)
	bMinus1, ok := checkedSub(b, one)
	if !ok {
		// b == 0; division by zero is the caller's concern, not ours.
		return nil, false
	}
	numerator, ok := checkedAdd(a, bMinus1)
	if !ok {
		return nil, false
	}
	return floorDiv(numerator, b), true
}

// mulDiv computes floor(a*b/c) using a checked multiply followed by an
// unchecked (but non-overflowing, since it only shrinks) divide.
func mulDiv(a, b, c *Amount) (result *Amount, ok bool) {
	product, ok := checkedMul(a, b)
	if !ok {
		return nil, false
	}
	if c.IsZero() {
		return nil, false
	}
	return floorDiv(product, c), true
}

// mulCeilDiv computes ceil(a*b/c).
func mulCeilDiv(a, b, c *Amount) (result *Amount, ok bool) {
	product, ok := checkedMul(a, b)
	if !ok {
		return nil, false
	}
	if c.IsZero() {
		return nil, false
	}
	return ceilDiv(product, c)
}

// uint256FromDecimal parses a non-negative base-10 integer string into an
// Amount, used to lossily convert a floating-point gas price into the
// 256-bit integer domain before the final checked multiply.
func uint256FromDecimal(s string) (*Amount, error) {
	if len(s) > 0 && s[0] == '-' {
		return nil, errNegativeAmount
	}
	return uint256.FromDecimal(s)
}
