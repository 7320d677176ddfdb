package audit

import (
	"time"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// Record is the persisted audit entry for a finalized settlement summary:
// {proposalID, summary, producedAt}, keyed by proposal ID for lookup and
// by producedAt for chronological listing.
type Record struct {
	ProposalID string                       `json:"proposalId"`
	Summary    *settlement.SettlementSummary `json:"summary"`
	ProducedAt time.Time                    `json:"producedAt"`
}
