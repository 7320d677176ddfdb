package settlement

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EncodedTrade is a kind-aware trade record added to a SettlementEncoder.
// Liquidity-order and user-order adds are distinguished because the
// on-chain encoding differs between them even though the core's own
// validation treats both uniformly.
type EncodedTrade struct {
	Order       *Order
	RemainingFee *Amount // remaining.fee_amount, not the executed fee
	IsLiquidity bool
}

// SettlementEncoder is the lower-level, call-data-oriented structure
// consumed by the submission collaborator. The core only ever builds one
// via IntoEncoder; it never inspects or mutates an encoder's contents
// beyond appending to it.
type SettlementEncoder struct {
	ClearingPrices ClearingPrices
	Trades         []EncodedTrade
	ExecutionPlan  []CallRecord
}

// AddTrade appends a trade to the encoder, passing the order's remaining
// fee budget rather than the amount actually executed in this batch — the
// on-chain contract charges against the full remaining allowance, not the
// partial fill.
func (e *SettlementEncoder) AddTrade(order *Order, remainingFee *Amount) {
	e.Trades = append(e.Trades, EncodedTrade{
		Order:        order,
		RemainingFee: remainingFee,
		IsLiquidity:  order.IsLiquidityOrder,
	})
}

// Settlement is a thin wrapper over a finalized encoder, representing the
// fully-committed transaction ready for submission.
type Settlement struct {
	Encoder *SettlementEncoder
}

// IntoEncoder consumes the proposal and produces a SettlementEncoder: it
// seeds the encoder with clearing prices, adds every trade kind-aware, and
// finalizes every interaction proposal concurrently. This is the core's
// one suspension phase (§5) — finalization tasks run in parallel goroutines
// joined by an errgroup, and the first failure cancels the context passed
// to the remaining Finalize calls.
func (p *SettlementProposal) IntoEncoder(ctx context.Context, source OrderSource) (*SettlementEncoder, error) {
	encoder := &SettlementEncoder{ClearingPrices: p.ClearingPrices}

	for _, trade := range p.Trades {
		remaining, err := source.RemainingAmounts(trade.Order)
		if err != nil {
			return nil, err
		}
		encoder.AddTrade(trade.Order, remaining.Fee)
	}

	interactions := make([]Interaction, len(p.ExecutionPlan))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, proposal := range p.ExecutionPlan {
		i, proposal := i, proposal
		group.Go(func() error {
			finalized, err := proposal.Finalize(groupCtx)
			if err != nil {
				return &FinalizationFailedError{InteractionIndex: i, Cause: err}
			}
			interactions[i] = finalized
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for _, interaction := range interactions {
		encoder.ExecutionPlan = append(encoder.ExecutionPlan, interaction.Calls...)
	}

	return encoder, nil
}

// IntoSettlement is a thin wrapper over IntoEncoder, matching the source's
// split between the encoder and the final settlement object — callers
// that only need call data use IntoEncoder directly.
func (p *SettlementProposal) IntoSettlement(ctx context.Context, source OrderSource) (*Settlement, error) {
	encoder, err := p.IntoEncoder(ctx, source)
	if err != nil {
		return nil, err
	}
	return &Settlement{Encoder: encoder}, nil
}
