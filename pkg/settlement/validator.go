package settlement

import "fmt"

// validateTrade runs C2: it defers to the order source's
// VerifyExecutedAmount predicate, then enforces the per-kind
// remaining-amount bound from the data model invariants, and only then
// hands off to C1's clearing-price arithmetic.
func validateTrade(trade *TradedOrder, prices ClearingPrices, source OrderSource) (*TradeExecution, error) {
	order := trade.Order

	if err := source.VerifyExecutedAmount(order, trade.ExecutedAmount); err != nil {
		return nil, &InvalidExecutedAmountError{OrderUID: order.UID, Reason: err.Error()}
	}

	remaining, err := source.RemainingAmounts(order)
	if err != nil {
		return nil, fmt.Errorf("fetching remaining amounts for order %s: %w", order.UID, err)
	}

	switch order.Kind {
	case Sell:
		if trade.ExecutedAmount.Gt(remaining.Sell) {
			return nil, &InvalidExecutedAmountError{OrderUID: order.UID, Reason: "executed amount exceeds remaining sell amount"}
		}
	case Buy:
		if trade.ExecutedAmount.Gt(remaining.Buy) {
			return nil, &InvalidExecutedAmountError{OrderUID: order.UID, Reason: "executed amount exceeds remaining buy amount"}
		}
	}

	execution, err := computeExecution(trade, prices, remaining)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", order.UID, err)
	}
	return execution, nil
}
