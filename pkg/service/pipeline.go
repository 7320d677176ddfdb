package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/nuvana-labs/solverd/pkg/audit"
	"github.com/nuvana-labs/solverd/pkg/buffers"
	"github.com/nuvana-labs/solverd/pkg/interactions"
	"github.com/nuvana-labs/solverd/pkg/orders"
	"github.com/nuvana-labs/solverd/pkg/proposalqueue"
	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// Pipeline wires the reference order source (D3/D4), the buffer ledger
// (D1), the audit trail (D6), and a price oracle around the settlement
// core, turning a wire-format ProposalEnvelope into a persisted
// SettlementSummary. It is the component the submission API calls into.
type Pipeline struct {
	Book        *orders.Book
	Buffers     *buffers.Manager
	Ledger      *audit.Ledger
	Oracle      settlement.PriceOracle
	Allowances  *interactions.AllowanceCache
	Quoter      interactions.Quoter
	GasPriceWei float64
	GasPerOrder *settlement.Amount
}

// Submit resolves an envelope against the reference order book, runs
// C1-C4 via the settlement core, persists the resulting summary to the
// audit ledger, and returns it. Any error is one of the typed core
// errors or a resolution/decode error — callers map it to an HTTP status
// via kindForError.
func (p *Pipeline) Submit(ctx context.Context, envelope *proposalqueue.ProposalEnvelope) (*settlement.SettlementSummary, error) {
	prices, err := resolveClearingPrices(envelope.ClearingPrices)
	if err != nil {
		return nil, errors.Wrap(err, "resolving clearing prices")
	}

	trades, err := resolveTrades(p.Book, envelope.Trades)
	if err != nil {
		return nil, errors.Wrap(err, "resolving trades")
	}

	plan, err := resolveExecutionPlan(envelope.ExecutionPlan, p.Allowances, p.Quoter)
	if err != nil {
		return nil, errors.Wrap(err, "resolving execution plan")
	}

	proposal := settlement.NewSettlementProposal(prices, trades, plan)

	buffer, err := p.Buffers.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading buffer snapshot")
	}

	summary, err := proposal.IntoSettlementSummary(p.Book, p.Oracle, p.GasPriceWei, settlement.BufferSnapshot(buffer), p.GasPerOrder)
	if err != nil {
		return nil, err
	}

	for i, trade := range trades {
		if err := p.Book.RecordFill(trade.Order.UID, trade.ExecutedAmount); err != nil {
			return nil, errors.Wrapf(err, "recording fill for trade %d", i)
		}
	}

	record := &audit.Record{
		ProposalID: envelope.ID,
		Summary:    summary,
		ProducedAt: time.Now(),
	}
	if err := p.Ledger.Append(record); err != nil {
		return nil, errors.Wrap(err, "persisting audit record")
	}

	return summary, nil
}

// Finalize runs a successful proposal through the export path, producing
// the low-level calls a submitter would send on-chain. Kept separate from
// Submit since most proposals only need a summary for ranking, and export
// is the only step that performs network-shaped work.
func (p *Pipeline) Finalize(ctx context.Context, envelope *proposalqueue.ProposalEnvelope) (*settlement.SettlementEncoder, error) {
	prices, err := resolveClearingPrices(envelope.ClearingPrices)
	if err != nil {
		return nil, errors.Wrap(err, "resolving clearing prices")
	}
	trades, err := resolveTrades(p.Book, envelope.Trades)
	if err != nil {
		return nil, errors.Wrap(err, "resolving trades")
	}
	plan, err := resolveExecutionPlan(envelope.ExecutionPlan, p.Allowances, p.Quoter)
	if err != nil {
		return nil, errors.Wrap(err, "resolving execution plan")
	}

	proposal := settlement.NewSettlementProposal(prices, trades, plan)
	return proposal.IntoEncoder(ctx, p.Book)
}
