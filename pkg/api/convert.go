package api

import (
	"time"

	"github.com/nuvana-labs/solverd/pkg/audit"
	"github.com/nuvana-labs/solverd/pkg/settlement"
	"github.com/nuvana-labs/solverd/pkg/tokenpairs"
)

func summaryToInfo(s *settlement.SettlementSummary) SettlementSummaryInfo {
	orders := make([]TradedOrderInfo, len(s.SettledOrders))
	for i, uid := range s.SettledOrders {
		orders[i] = TradedOrderInfo{OrderUID: uid}
	}
	return SettlementSummaryInfo{
		Surplus:          s.Surplus,
		GasReimbursement: s.GasReimbursement.String(),
		SettledOrders:    orders,
	}
}

func recordToInfo(r *audit.Record) SummaryRecordInfo {
	return SummaryRecordInfo{
		ProposalID: r.ProposalID,
		Summary:    summaryToInfo(r.Summary),
		ProducedAt: r.ProducedAt.Format(time.RFC3339),
	}
}

func bufferToInfo(asOf time.Time, snapshot settlement.BufferSnapshot) BufferSnapshotInfo {
	balances := make(map[string]string, len(snapshot))
	for token, amount := range snapshot {
		balances[token.Hex()] = amount.String()
	}
	return BufferSnapshotInfo{AsOf: asOf.Format(time.RFC3339), Balances: balances}
}

func pairToInfo(p *tokenpairs.TokenPair) TokenPairInfo {
	return TokenPairInfo{
		Symbol:        p.Symbol,
		Base:          p.Base.Hex(),
		Quote:         p.Quote.Hex(),
		BaseDecimals:  int(p.BaseDecimals),
		QuoteDecimals: int(p.QuoteDecimals),
	}
}
