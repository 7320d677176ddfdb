package settlement

import "context"

// TokenAmount is a (token, amount) pair, used for interaction inputs and
// outputs.
type TokenAmount struct {
	Token  Token
	Amount *Amount
}

// InteractionMetadata describes the balance-level side effects of an
// on-chain interaction: which tokens it consumes, which it produces, and
// its gas cost. Metadata must be cheap to compute and stable — repeated
// calls against the same proposal return equal data.
type InteractionMetadata struct {
	Inputs  []TokenAmount
	Outputs []TokenAmount
	GasUsed *Amount
}

// CallRecord is one low-level encoded call produced by a finalized
// interaction. The core does not interpret its contents; it only carries
// them through to the encoder for the submission collaborator.
type CallRecord struct {
	Target   Token
	CallData []byte
	Value    *Amount
}

// Interaction is the concrete, committed form of an InteractionProposal
// after finalization.
type Interaction struct {
	Calls []CallRecord
}

// InteractionProposal is the capability-based contract C3 describes:
// cheap synchronous metadata, plus a deferred, possibly-failing
// finalization step. Implementations are a closed set of variants
// (ConstantSwap, RouterCall, RfqQuote); the core never downcasts a
// proposal to learn which.
type InteractionProposal interface {
	Metadata() InteractionMetadata
	Finalize(ctx context.Context) (Interaction, error)
}
