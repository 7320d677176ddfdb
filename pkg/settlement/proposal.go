package settlement

import (
	"math"
	"math/big"
)

// SettlementProposal bundles a clearing-price vector, the list of trades
// it settles, and an ordered execution plan of interaction proposals. A
// proposal owns its trades; execution-plan entries may be shared across
// proposals exploring alternative solutions, so they are carried as
// interface values wrapping shared pointers rather than deep-copied.
type SettlementProposal struct {
	ClearingPrices ClearingPrices
	Trades         []*TradedOrder
	ExecutionPlan  []InteractionProposal
}

// NewSettlementProposal constructs a proposal from its three parts. It
// performs no validation itself — validation happens lazily, in
// IntoSettlementSummary, the way the rest of the core defers all checking
// to the point of use.
func NewSettlementProposal(prices ClearingPrices, trades []*TradedOrder, plan []InteractionProposal) *SettlementProposal {
	return &SettlementProposal{ClearingPrices: prices, Trades: trades, ExecutionPlan: plan}
}

// Surplus computes only the surplus portion of a settlement summary,
// without touching the balance ledger or the execution plan. Useful for a
// solver ranking candidate proposals before committing to a full
// simulation.
func (p *SettlementProposal) Surplus(oracle PriceOracle) (float64, error) {
	total := new(big.Rat)
	for _, trade := range p.Trades {
		tradeSurplus, err := oracle.TradeSurplusInNativeToken(trade.Order, trade.ExecutedAmount, p.ClearingPrices)
		if err != nil {
			return 0, err
		}
		total.Add(total, tradeSurplus)
	}
	return ratToFiniteFloat(total)
}

// ratToFiniteFloat converts a big.Rat surplus total to float64, failing
// closed per SurplusNotFinite if the magnitude cannot be represented as a
// finite value.
func ratToFiniteFloat(r *big.Rat) (float64, error) {
	f, _ := r.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, &SurplusNotFiniteError{Numerator: r.Num().String(), Denominator: r.Denom().String()}
	}
	return f, nil
}
