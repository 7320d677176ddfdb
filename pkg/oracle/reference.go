package oracle

import (
	"fmt"
	"math/big"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// ReferencePrices is a reference PriceOracle implementation backed by a
// fixed table of external reference prices, one per token, expressed as
// "native-token units per whole token". It is the stand-in the
// reference order source and tests use in place of a live price feed.
type ReferencePrices struct {
	native Token
	prices map[Token]*big.Rat
}

type Token = settlement.Token

// NewReferencePrices builds an oracle denominating surplus in
// nativeToken, using prices as the external reference price table. A
// token's own price should be set even for nativeToken itself (typically
// 1/1) so conversions are uniform.
func NewReferencePrices(nativeToken Token, prices map[Token]*big.Rat) *ReferencePrices {
	return &ReferencePrices{native: nativeToken, prices: prices}
}

func (o *ReferencePrices) NativeToken() Token { return o.native }

// TradeSurplusInNativeToken computes the surplus a trade delivers beyond
// its own posted limit, expressed in native-token units:
//
//   - Sell orders: the executed sell amount is fixed. The order's limit
//     ratio implies a minimum acceptable buy amount for that sell amount;
//     any buy amount actually delivered above that minimum is surplus,
//     converted via the buy token's external price.
//   - Buy orders: the executed buy amount is fixed. The order's limit
//     ratio implies a maximum acceptable sell amount for that buy amount;
//     any sell amount actually charged below that maximum is surplus,
//     converted via the sell token's external price.
//
// Liquidity orders always return zero: C1 substitutes their own limit
// price as the clearing price, so they trade exactly at their limit by
// construction.
func (o *ReferencePrices) TradeSurplusInNativeToken(
	order *settlement.Order,
	executedAmount *settlement.Amount,
	clearingPrices settlement.ClearingPrices,
) (*big.Rat, error) {
	if order.IsLiquidityOrder {
		return new(big.Rat), nil
	}

	sellPrice, ok := clearingPrices[order.SellToken]
	if !ok {
		return nil, &settlement.MissingClearingPriceError{Token: order.SellToken, OrderUID: order.UID, WhichSide: "sell"}
	}
	buyPrice, ok := clearingPrices[order.BuyToken]
	if !ok {
		return nil, &settlement.MissingClearingPriceError{Token: order.BuyToken, OrderUID: order.UID, WhichSide: "buy"}
	}

	switch order.Kind {
	case settlement.Sell:
		executedSell := new(big.Rat).SetInt(executedAmount.ToBig())
		orderSell := new(big.Rat).SetInt(order.SellAmount.ToBig())
		orderBuy := new(big.Rat).SetInt(order.BuyAmount.ToBig())

		// Minimum acceptable buy amount at the order's own limit ratio.
		minBuy := new(big.Rat).Mul(executedSell, orderBuy)
		minBuy.Quo(minBuy, orderSell)

		// Actual buy amount delivered at clearing prices.
		actualBuy := new(big.Rat).Mul(executedSell, new(big.Rat).SetInt(sellPrice.ToBig()))
		actualBuy.Quo(actualBuy, new(big.Rat).SetInt(buyPrice.ToBig()))

		surplusBuyUnits := new(big.Rat).Sub(actualBuy, minBuy)
		if surplusBuyUnits.Sign() < 0 {
			surplusBuyUnits.SetInt64(0)
		}
		return o.convert(order.BuyToken, surplusBuyUnits)

	default: // Buy
		executedBuy := new(big.Rat).SetInt(executedAmount.ToBig())
		orderSell := new(big.Rat).SetInt(order.SellAmount.ToBig())
		orderBuy := new(big.Rat).SetInt(order.BuyAmount.ToBig())

		// Maximum acceptable sell amount at the order's own limit ratio.
		maxSell := new(big.Rat).Mul(executedBuy, orderSell)
		maxSell.Quo(maxSell, orderBuy)

		// Actual sell amount charged at clearing prices.
		actualSell := new(big.Rat).Mul(executedBuy, new(big.Rat).SetInt(buyPrice.ToBig()))
		actualSell.Quo(actualSell, new(big.Rat).SetInt(sellPrice.ToBig()))

		surplusSellUnits := new(big.Rat).Sub(maxSell, actualSell)
		if surplusSellUnits.Sign() < 0 {
			surplusSellUnits.SetInt64(0)
		}
		return o.convert(order.SellToken, surplusSellUnits)
	}
}

func (o *ReferencePrices) convert(token Token, units *big.Rat) (*big.Rat, error) {
	price, ok := o.prices[token]
	if !ok {
		return nil, fmt.Errorf("no external reference price for token %s", token)
	}
	return new(big.Rat).Mul(units, price), nil
}
