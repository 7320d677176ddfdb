package api

// API response and request types for the settlement submission service.

// ==============================
// REST Response Types
// ==============================

// TokenPairInfo is the wire form of a registered token pair.
type TokenPairInfo struct {
	Symbol        string `json:"symbol"`
	Base          string `json:"base"`
	Quote         string `json:"quote"`
	BaseDecimals  int    `json:"baseDecimals"`
	QuoteDecimals int    `json:"quoteDecimals"`
}

// BufferSnapshotInfo is the current contract token buffer, amounts as
// decimal strings since they may exceed 64 bits.
type BufferSnapshotInfo struct {
	AsOf     string            `json:"asOf"` // RFC3339
	Balances map[string]string `json:"balances"` // token hex -> decimal amount
}

// SettlementSummaryInfo mirrors settlement.SettlementSummary over the
// wire: amounts as decimal strings, surplus as a float (already reduced
// to the native token by the core).
type SettlementSummaryInfo struct {
	Surplus          float64              `json:"surplus"`
	GasReimbursement string               `json:"gasReimbursement"`
	SettledOrders    []TradedOrderInfo    `json:"settledOrders"`
}

// TradedOrderInfo is the wire form of a settled trade.
type TradedOrderInfo struct {
	OrderUID       string `json:"orderUid"`
	ExecutedAmount string `json:"executedAmount"`
}

// SummaryRecordInfo is a persisted audit entry.
type SummaryRecordInfo struct {
	ProposalID string                `json:"proposalId"`
	Summary    SettlementSummaryInfo `json:"summary"`
	ProducedAt string                `json:"producedAt"` // RFC3339
}

// ==============================
// WebSocket Message Types
// ==============================

// WSMessage is the base structure for all WebSocket messages.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// WSSubscribeRequest is sent by a client to subscribe to channels.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g. ["summaries"]
}

// SummaryBroadcast is pushed to the "summaries" channel as each
// settlement proposal is finalized.
type SummaryBroadcast struct {
	Type   string            `json:"type"` // "summary"
	Record SummaryRecordInfo `json:"record"`
}

// ==============================
// REST Request Types
// ==============================

// POST /api/v1/proposals has no request type of its own: the body is
// decoded straight into a proposalqueue.ProposalEnvelope before being
// handed to the summarization pipeline.

// ErrorResponse is returned for every failed request. Kind is one of the
// eleven core error kinds for proposal-content failures, "decode_error"
// for malformed input, or "internal_error" for unexpected store/transport
// failures.
type ErrorResponse struct {
	Kind    string      `json:"error"`
	Message string      `json:"message"`
	Context interface{} `json:"context,omitempty"`
}
