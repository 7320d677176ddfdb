package settlement

// OrderKind distinguishes which side of an order's trade the executed
// amount fills.
type OrderKind int

const (
	// Sell orders fix the sell side; the executed amount is the sell amount.
	Sell OrderKind = iota
	// Buy orders fix the buy side; the executed amount is the buy amount.
	Buy
)

func (k OrderKind) String() string {
	if k == Buy {
		return "buy"
	}
	return "sell"
}

// Order is an immutable limit order as seen by the settlement core. The
// core never mutates an Order and never discovers one itself — it is
// supplied by the external order source.
type Order struct {
	UID              string
	SellToken        Token
	BuyToken         Token
	SellAmount       *Amount
	BuyAmount        *Amount
	FeeAmount        *Amount
	Kind             OrderKind
	IsLiquidityOrder bool
}

// RemainingAmounts is the still-fillable (sell, buy, fee) triple for an
// order after accounting for any prior partial fills. The core treats this
// as given by the order source; it never derives it itself.
type RemainingAmounts struct {
	Sell *Amount
	Buy  *Amount
	Fee  *Amount
}

// OrderSource is the external collaborator supplying orders and the two
// predicates the core relies on: how much of an order is still fillable,
// and whether a proposed executed amount is acceptable at all (independent
// of clearing prices — zero fills, over-fills, and wrong-side fills are
// rejected here, before C1 ever runs).
type OrderSource interface {
	RemainingAmounts(order *Order) (RemainingAmounts, error)
	VerifyExecutedAmount(order *Order, executedAmount *Amount) error
}

// TradedOrder pairs an Order with the amount of its target side being
// filled in this batch.
type TradedOrder struct {
	Order          *Order
	ExecutedAmount *Amount
}
