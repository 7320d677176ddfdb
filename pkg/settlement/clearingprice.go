package settlement

// ClearingPrices maps a token to its clearing price. Prices are pure
// ratios — only relative values matter, the scale is arbitrary.
type ClearingPrices map[Token]*Amount

// TradeExecution is the materialized result of C1/C2 for one trade: the
// exact amounts that will move if this trade is included in the
// settlement.
type TradeExecution struct {
	SellToken  Token
	BuyToken   Token
	SellAmount *Amount
	BuyAmount  *Amount
	FeeAmount  *Amount
}

// buyTokenPrice selects the price used on the buy side of a trade. User
// orders use the batch clearing price of their buy token directly;
// liquidity orders are pinned to their own posted limit price so they
// never receive surplus.
func buyTokenPrice(order *Order, prices ClearingPrices) (*Amount, error) {
	if !order.IsLiquidityOrder {
		price, ok := prices[order.BuyToken]
		if !ok {
			return nil, &MissingClearingPriceError{Token: order.BuyToken, OrderUID: order.UID, WhichSide: "buy"}
		}
		return price, nil
	}

	sellPrice, ok := prices[order.SellToken]
	if !ok {
		return nil, &MissingClearingPriceError{Token: order.SellToken, OrderUID: order.UID, WhichSide: "sell"}
	}
	limitPrice, ok := mulDiv(sellPrice, order.SellAmount, order.BuyAmount)
	if !ok {
		return nil, &ArithmeticOverflowError{Op: "liquidity order limit price", OrderUID: order.UID}
	}
	return limitPrice, nil
}

// computeExecution runs C1: derive the executed (sell, buy, fee) amounts
// for a trade from its clearing prices, then enforces the limit-price
// post-check against the order's remaining amounts.
func computeExecution(trade *TradedOrder, prices ClearingPrices, remaining RemainingAmounts) (*TradeExecution, error) {
	order := trade.Order

	sellPrice, ok := prices[order.SellToken]
	if !ok {
		return nil, &MissingClearingPriceError{Token: order.SellToken, OrderUID: order.UID, WhichSide: "sell"}
	}
	buyPrice, err := buyTokenPrice(order, prices)
	if err != nil {
		return nil, err
	}

	var sellAmount, buyAmount *Amount
	switch order.Kind {
	case Sell:
		sellAmount = trade.ExecutedAmount
		buyAmount, ok = mulCeilDiv(trade.ExecutedAmount, sellPrice, buyPrice)
		if !ok {
			return nil, &ArithmeticOverflowError{Op: "sell-order buy amount", OrderUID: order.UID}
		}
	case Buy:
		buyAmount = trade.ExecutedAmount
		sellAmount, ok = mulDiv(trade.ExecutedAmount, buyPrice, sellPrice)
		if !ok {
			return nil, &ArithmeticOverflowError{Op: "buy-order sell amount", OrderUID: order.UID}
		}
	}

	feeAmount, err := computeFee(order, trade.ExecutedAmount)
	if err != nil {
		return nil, err
	}

	if sellAmount.Gt(remaining.Sell) || buyAmount.Lt(remaining.Buy) {
		return nil, &LimitPriceViolatedError{
			OrderUID:      order.UID,
			SellAmount:    sellAmount.String(),
			RemainingSell: remaining.Sell.String(),
			BuyAmount:     buyAmount.String(),
			RemainingBuy:  remaining.Buy.String(),
		}
	}

	return &TradeExecution{
		SellToken:  order.SellToken,
		BuyToken:   order.BuyToken,
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		FeeAmount:  feeAmount,
	}, nil
}

// computeFee scales the order's limit fee linearly by the fraction of the
// order's target side being filled, always flooring.
func computeFee(order *Order, executedAmount *Amount) (*Amount, error) {
	var divisor *Amount
	switch order.Kind {
	case Sell:
		divisor = order.SellAmount
	case Buy:
		divisor = order.BuyAmount
	}
	if divisor.IsZero() {
		return nil, &FeeScalingFailedError{OrderUID: order.UID, Reason: "division by zero fillable amount"}
	}
	fee, ok := mulDiv(order.FeeAmount, executedAmount, divisor)
	if !ok {
		return nil, &FeeScalingFailedError{OrderUID: order.UID, Reason: "fee computation overflow"}
	}
	return fee, nil
}
