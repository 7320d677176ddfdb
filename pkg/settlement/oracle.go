package settlement

import "math/big"

// PriceOracle supplies reference prices for surplus denomination. It is
// constructed with a native-token identifier and a table of token
// reference prices; the core only ever calls TradeSurplusInNativeToken.
type PriceOracle interface {
	// NativeToken is the token in which all surplus values are denominated.
	NativeToken() Token
	// TradeSurplusInNativeToken returns the rational surplus this trade
	// contributes, expressed in the native token. Liquidity orders always
	// return zero (they execute exactly at their limit, by construction of
	// their clearing-price substitution in C1).
	TradeSurplusInNativeToken(order *Order, executedAmount *Amount, clearingPrices ClearingPrices) (*big.Rat, error)
}
