package settlement

import (
	"fmt"
	"math"
	"math/big"
)

// DefaultGasPerOrder is the per-order on-chain transfer cost used when a
// deployment does not override it via configuration. It is the value
// consistent with both worked gas-reimbursement fixtures:
// 2*(1+66315) = 132632 and 2*(3+66315) = 132636.
const DefaultGasPerOrder = 66315

// BufferSnapshot is the settlement contract's token balances before a
// proposal's execution plan runs.
type BufferSnapshot map[Token]*Amount

// SettlementSummary is the output of a successful simulation: the
// aggregate surplus delivered, the gas reimbursement owed to the solver,
// and the list of order uids settled, in trade order.
type SettlementSummary struct {
	Surplus          float64
	GasReimbursement *Amount
	SettledOrders    []string
}

// IntoSettlementSummary runs the full C4 algorithm: precompute every
// trade's execution, fold the execution plan over a cloned balance
// ledger, debit final payouts, check buffer preservation, then compute
// surplus and gas reimbursement. gasPerOrder lets the caller pin the
// constant to a specific on-chain cost model; pass DefaultGasPerOrder when
// none is configured.
func (p *SettlementProposal) IntoSettlementSummary(
	source OrderSource,
	oracle PriceOracle,
	gasPriceWei float64,
	buffer BufferSnapshot,
	gasPerOrder *Amount,
) (*SettlementSummary, error) {
	executions := make([]*TradeExecution, len(p.Trades))
	for i, trade := range p.Trades {
		execution, err := validateTrade(trade, p.ClearingPrices, source)
		if err != nil {
			return nil, fmt.Errorf("trade %d (order %s): %w", i, trade.Order.UID, err)
		}
		executions[i] = execution
	}

	balances := make(map[Token]*Amount, len(buffer))
	for token, amount := range buffer {
		balances[token] = new(Amount).Set(amount)
	}

	// Step 3: credit sold tokens (plus fees) into the ledger before any
	// interaction runs — the user's sell-side transfer lands in the
	// contract first.
	for i, execution := range executions {
		credit, ok := checkedAdd(execution.SellAmount, execution.FeeAmount)
		if !ok {
			return nil, fmt.Errorf("trade %d: %w", i, &ArithmeticOverflowError{Op: "sell+fee credit", OrderUID: p.Trades[i].Order.UID})
		}
		current, present := balances[execution.SellToken]
		if !present {
			current = zero()
		}
		updated, ok := checkedAdd(current, credit)
		if !ok {
			return nil, fmt.Errorf("trade %d: %w", i, &ArithmeticOverflowError{Op: "sell token credit", OrderUID: p.Trades[i].Order.UID})
		}
		balances[execution.SellToken] = updated
	}

	gasUsed := zero()
	for i, proposal := range p.ExecutionPlan {
		meta := proposal.Metadata()
		for _, in := range meta.Inputs {
			current, present := balances[in.Token]
			if !present {
				return nil, &MissingBalanceForInteractionError{Token: in.Token, InteractionIndex: i}
			}
			updated, ok := checkedSub(current, in.Amount)
			if !ok {
				return nil, &ArithmeticUnderflowError{Token: in.Token, Have: current.String(), Want: in.Amount.String(), Context: fmt.Sprintf("interaction %d input", i)}
			}
			balances[in.Token] = updated
		}
		for _, out := range meta.Outputs {
			current, present := balances[out.Token]
			if !present {
				current = zero()
			}
			updated, ok := checkedAdd(current, out.Amount)
			if !ok {
				return nil, fmt.Errorf("interaction %d output: %w", i, &ArithmeticOverflowError{Op: "interaction output credit"})
			}
			balances[out.Token] = updated
		}
		sum, ok := checkedAdd(gasUsed, meta.GasUsed)
		if !ok {
			return nil, &ArithmeticOverflowError{Op: "interaction gas accumulation"}
		}
		gasUsed = sum
	}

	for i, execution := range executions {
		order := p.Trades[i].Order
		current, present := balances[execution.BuyToken]
		if !present {
			return nil, &MissingBalanceForPayoutError{Token: execution.BuyToken, OrderUID: order.UID}
		}
		updated, ok := checkedSub(current, execution.BuyAmount)
		if !ok {
			return nil, &ArithmeticUnderflowError{Token: execution.BuyToken, Have: current.String(), Want: execution.BuyAmount.String(), Context: fmt.Sprintf("payout for order %s", order.UID)}
		}
		balances[execution.BuyToken] = updated

		sum, ok := checkedAdd(gasUsed, gasPerOrder)
		if !ok {
			return nil, &ArithmeticOverflowError{Op: "per-order gas accumulation", OrderUID: order.UID}
		}
		gasUsed = sum
	}

	for token, pre := range buffer {
		post, present := balances[token]
		if !present {
			post = zero()
		}
		if post.Lt(pre) {
			return nil, &BufferDrainedError{Token: token, Pre: pre.String(), Post: post.String()}
		}
	}

	surplusTotal := new(big.Rat)
	for i, trade := range p.Trades {
		tradeSurplus, err := oracle.TradeSurplusInNativeToken(trade.Order, trade.ExecutedAmount, p.ClearingPrices)
		if err != nil {
			return nil, fmt.Errorf("surplus for trade %d: %w", i, err)
		}
		surplusTotal.Add(surplusTotal, tradeSurplus)
	}
	surplus, err := ratToFiniteFloat(surplusTotal)
	if err != nil {
		return nil, err
	}

	gasPrice, err := uint256FromDecimal(fmt.Sprintf("%.0f", math.Round(gasPriceWei)))
	if err != nil {
		return nil, fmt.Errorf("gas price %v does not fit in 256 bits: %w", gasPriceWei, err)
	}
	gasReimbursement, ok := checkedMul(gasUsed, gasPrice)
	if !ok {
		return nil, &ArithmeticOverflowError{Op: "gas reimbursement"}
	}

	settledOrders := make([]string, len(p.Trades))
	for i, trade := range p.Trades {
		settledOrders[i] = trade.Order.UID
	}

	return &SettlementSummary{
		Surplus:          surplus,
		GasReimbursement: gasReimbursement,
		SettledOrders:    settledOrders,
	}, nil
}
