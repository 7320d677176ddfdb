package proposalqueue

import "time"

// TradeRef is the wire form of a trade: an order UID resolved against the
// reference order book plus the executed amount the proposer claims for
// it, matching the core's TradedOrder shape without depending on the
// settlement package's in-memory Order type directly.
type TradeRef struct {
	OrderUID       string `json:"orderUid"`
	ExecutedAmount string `json:"executedAmount"` // decimal uint256 string
}

// TokenAmountRef is the wire form of a (token, amount) pair.
type TokenAmountRef struct {
	Token  string `json:"token"`
	Amount string `json:"amount"` // decimal uint256 string
}

// InteractionRef names one entry of a proposal's execution plan by
// variant: exactly one of ConstantSwap, RouterCall, RfqQuote is set.
// Metadata declares the interaction's balance-level effect up front, per
// the capability-based interaction contract; it is supplied by the
// proposer and not recomputed by the resolver.
type InteractionRef struct {
	Kind         string             `json:"kind"` // "constant_swap" | "router_call" | "rfq_quote"
	Inputs       []TokenAmountRef   `json:"inputs"`
	Outputs      []TokenAmountRef   `json:"outputs"`
	GasUsed      string             `json:"gasUsed"` // decimal uint256 string
	ConstantSwap *ConstantSwapRef   `json:"constantSwap,omitempty"`
	RouterCall   *RouterCallRef     `json:"routerCall,omitempty"`
	RfqQuote     *RfqQuoteRef       `json:"rfqQuote,omitempty"`
}

type ConstantSwapRef struct {
	Target   string `json:"target"`
	CallData string `json:"callData"` // hex
	Value    string `json:"value"`    // decimal uint256 string
}

type RouterCallRef struct {
	Router            string `json:"router"`
	SellToken         string `json:"sellToken"`
	MinBuyAmount      string `json:"minBuyAmount"`
	RequiredAllowance string `json:"requiredAllowance"`
}

type RfqQuoteRef struct {
	SellToken string `json:"sellToken"`
	BuyToken  string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
	BuyAmount  string `json:"buyAmount"`
	Expiry     int64  `json:"expiry"` // unix seconds
	Maker      string `json:"maker"`
	Signature  string `json:"signature"` // hex, filled in once signed
}

// ProposalEnvelope is the wire form of a SettlementProposal accepted over
// the submission API: clearing prices as decimal strings keyed by token
// address, trades as order references resolved against the reference
// order book, and a named execution plan.
type ProposalEnvelope struct {
	ID             string            `json:"id"`
	ClearingPrices map[string]string `json:"clearingPrices"` // token hex -> decimal string
	Trades         []TradeRef        `json:"trades"`
	ExecutionPlan  []InteractionRef  `json:"executionPlan"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}
