// Package interactions implements the closed set of InteractionProposal
// variants: a constant-data swap, a router call, and a quoted RFQ trade.
package interactions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// ConstantSwap is the simplest InteractionProposal variant: its call data
// is fully known up front, so Finalize is an identity operation. It models
// a pre-encoded interaction such as a settlement contract's internal token
// transfer or a pre-signed call whose inputs never need a late refresh.
type ConstantSwap struct {
	metadata settlement.InteractionMetadata
	target   common.Address
	callData []byte
	value    *settlement.Amount
}

// NewConstantSwap builds a ConstantSwap from its declared balance effect
// and its pre-encoded call.
func NewConstantSwap(meta settlement.InteractionMetadata, target common.Address, callData []byte, value *settlement.Amount) *ConstantSwap {
	return &ConstantSwap{metadata: meta, target: target, callData: callData, value: value}
}

func (c *ConstantSwap) Metadata() settlement.InteractionMetadata { return c.metadata }

func (c *ConstantSwap) Finalize(ctx context.Context) (settlement.Interaction, error) {
	return settlement.Interaction{
		Calls: []settlement.CallRecord{
			{Target: c.target, CallData: c.callData, Value: c.value},
		},
	}, nil
}
