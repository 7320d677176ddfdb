package settlement

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func addr(b byte) Token {
	var a common.Address
	a[len(a)-1] = b
	return a
}

func amt(v uint64) *Amount { return FromUint64(v) }

// fakeSource is an OrderSource stub giving every order full remaining
// amounts equal to its own limit amounts, unless overridden per-UID.
type fakeSource struct {
	remaining map[string]RemainingAmounts
	rejectUID map[string]error
}

func newFakeSource() *fakeSource {
	return &fakeSource{remaining: map[string]RemainingAmounts{}, rejectUID: map[string]error{}}
}

func (f *fakeSource) RemainingAmounts(order *Order) (RemainingAmounts, error) {
	if r, ok := f.remaining[order.UID]; ok {
		return r, nil
	}
	return RemainingAmounts{Sell: order.SellAmount, Buy: order.BuyAmount, Fee: order.FeeAmount}, nil
}

func (f *fakeSource) VerifyExecutedAmount(order *Order, executedAmount *Amount) error {
	if err, ok := f.rejectUID[order.UID]; ok {
		return err
	}
	if executedAmount.IsZero() {
		return errors.New("executed amount must be positive")
	}
	return nil
}

// fakeOracle returns a fixed rational surplus per order UID, for tests that
// only care about the balance-ledger/validation behavior of C4.
type fakeOracle struct {
	native   Token
	surplus  map[string]*big.Rat
	fallback *big.Rat
}

func (o *fakeOracle) NativeToken() Token { return o.native }

func (o *fakeOracle) TradeSurplusInNativeToken(order *Order, _ *Amount, _ ClearingPrices) (*big.Rat, error) {
	if order.IsLiquidityOrder {
		return new(big.Rat), nil
	}
	if s, ok := o.surplus[order.UID]; ok {
		return s, nil
	}
	if o.fallback != nil {
		return o.fallback, nil
	}
	return new(big.Rat), nil
}

// noopInteraction is an InteractionProposal with fixed declared metadata and
// no real finalization work, used to drive the balance ledger.
type noopInteraction struct {
	meta        InteractionMetadata
	finalizeErr error
}

func (n *noopInteraction) Metadata() InteractionMetadata { return n.meta }

func (n *noopInteraction) Finalize(ctx context.Context) (Interaction, error) {
	if n.finalizeErr != nil {
		return Interaction{}, n.finalizeErr
	}
	return Interaction{Calls: []CallRecord{{Target: addr(0xAA), CallData: []byte("noop"), Value: Zero()}}}, nil
}

var tokenA = addr(1)
var tokenB = addr(2)
var tokenC = addr(3)

// TestS1_BasicSellOrderSurplus reproduces the worked example: a Sell order
// with sell/buy 60/50 fully executed against clearing prices where the
// buy-token leg produces exactly the example's surplus.
func TestS1_BasicSellOrderSurplus(t *testing.T) {
	order := &Order{
		UID:        "order-1",
		SellToken:  tokenB,
		BuyToken:   tokenC,
		SellAmount: amt(60),
		BuyAmount:  amt(50),
		FeeAmount:  amt(0),
		Kind:       Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(60)}

	prices := ClearingPrices{
		tokenB: amt(100),
		tokenC: amt(100),
	}

	// An interaction supplies exactly the tokenC the payout needs (the
	// executed buy amount at these clearing prices is 60, not the order's
	// own 50 minimum), so the pre-existing tokenC buffer is left untouched.
	supplyC := &noopInteraction{meta: InteractionMetadata{
		Outputs: []TokenAmount{{Token: tokenC, Amount: amt(60)}},
		GasUsed: amt(0),
	}}

	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, []InteractionProposal{supplyC})

	source := newFakeSource()
	oracle := &fakeOracle{native: tokenA, surplus: map[string]*big.Rat{"order-1": big.NewRat(1000, 1)}}

	buffer := BufferSnapshot{tokenC: amt(1_000_000)}

	summary, err := proposal.IntoSettlementSummary(source, oracle, 0, buffer, FromUint64(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Surplus != 1000.0 {
		t.Errorf("surplus = %v, want 1000.0", summary.Surplus)
	}
	if len(summary.SettledOrders) != 1 || summary.SettledOrders[0] != "order-1" {
		t.Errorf("unexpected settled orders: %+v", summary.SettledOrders)
	}
}

func TestIntoSettlementSummary_BufferDrainedRejected(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(10)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}
	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, nil)

	source := newFakeSource()
	oracle := &fakeOracle{native: tokenA}

	// The buffer covers the payout of 10 tokenB, but no interaction
	// replenishes it and the trade only credits tokenA, so tokenB's
	// post-balance (15-10=5) falls below its pre-balance of 15.
	buffer := BufferSnapshot{tokenB: amt(15)}

	_, err := proposal.IntoSettlementSummary(source, oracle, 0, buffer, FromUint64(0))
	var drained *BufferDrainedError
	if !errors.As(err, &drained) {
		t.Fatalf("expected BufferDrainedError, got %T: %v", err, err)
	}
}

func TestIntoSettlementSummary_MissingClearingPrice(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(10)}
	proposal := NewSettlementProposal(ClearingPrices{}, []*TradedOrder{trade}, nil)

	_, err := proposal.IntoSettlementSummary(newFakeSource(), &fakeOracle{native: tokenA}, 0, BufferSnapshot{}, FromUint64(0))
	var missing *MissingClearingPriceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingClearingPriceError, got %T: %v", err, err)
	}
}

func TestIntoSettlementSummary_InvalidExecutedAmountZero(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(0)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}
	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, nil)

	_, err := proposal.IntoSettlementSummary(newFakeSource(), &fakeOracle{native: tokenA}, 0, BufferSnapshot{}, FromUint64(0))
	var invalid *InvalidExecutedAmountError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidExecutedAmountError, got %T: %v", err, err)
	}
}

func TestIntoSettlementSummary_OverfillRejected(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(20)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}
	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, nil)

	source := newFakeSource()
	source.remaining["o1"] = RemainingAmounts{Sell: amt(10), Buy: amt(10), Fee: amt(0)}

	_, err := proposal.IntoSettlementSummary(source, &fakeOracle{native: tokenA}, 0, BufferSnapshot{}, FromUint64(0))
	var invalid *InvalidExecutedAmountError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidExecutedAmountError for overfill, got %T: %v", err, err)
	}
}

func TestIntoSettlementSummary_InteractionConsumesDeclaredInput(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(100), BuyAmount: amt(100), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(100)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}

	// The interaction consumes exactly the tokenA the trade sold in and
	// produces exactly the tokenB the payout needs, so both pre-existing
	// buffers end up unchanged.
	interaction := &noopInteraction{meta: InteractionMetadata{
		Inputs:  []TokenAmount{{Token: tokenA, Amount: amt(100)}},
		Outputs: []TokenAmount{{Token: tokenB, Amount: amt(100)}},
		GasUsed: amt(21000),
	}}

	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, []InteractionProposal{interaction})
	buffer := BufferSnapshot{tokenA: amt(500), tokenB: amt(500)}

	summary, err := proposal.IntoSettlementSummary(newFakeSource(), &fakeOracle{native: tokenA}, 1, buffer, FromUint64(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantGas := new(Amount).Mul(amt(21000), amt(1))
	if summary.GasReimbursement.Cmp(wantGas) != 0 {
		t.Errorf("gas reimbursement = %s, want %s", summary.GasReimbursement, wantGas)
	}
}

func TestIntoSettlementSummary_InteractionMissingInputBalance(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(10)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}

	interaction := &noopInteraction{meta: InteractionMetadata{
		Inputs:  []TokenAmount{{Token: tokenC, Amount: amt(1)}},
		GasUsed: amt(0),
	}}

	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, []InteractionProposal{interaction})
	buffer := BufferSnapshot{tokenB: amt(10)}

	_, err := proposal.IntoSettlementSummary(newFakeSource(), &fakeOracle{native: tokenA}, 0, buffer, FromUint64(0))
	var missing *MissingBalanceForInteractionError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingBalanceForInteractionError, got %T: %v", err, err)
	}
}

func TestIntoSettlementSummary_LiquidityOrderZeroSurplus(t *testing.T) {
	order := &Order{
		UID: "liq-1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(60), BuyAmount: amt(50), FeeAmount: amt(0),
		Kind: Sell, IsLiquidityOrder: true,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(60)}
	prices := ClearingPrices{tokenA: amt(100), tokenB: amt(100)}

	// The payout is funded entirely by a fresh interaction; no pre-existing
	// tokenB buffer is tracked, so preservation is not at stake here.
	supplyB := &noopInteraction{meta: InteractionMetadata{
		Outputs: []TokenAmount{{Token: tokenB, Amount: amt(50)}},
		GasUsed: amt(0),
	}}
	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, []InteractionProposal{supplyB})

	buffer := BufferSnapshot{}
	summary, err := proposal.IntoSettlementSummary(newFakeSource(), &fakeOracle{native: tokenA, fallback: big.NewRat(500, 1)}, 0, buffer, FromUint64(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Surplus != 0 {
		t.Errorf("liquidity order surplus = %v, want 0", summary.Surplus)
	}
}

func TestSurplusNotFiniteError(t *testing.T) {
	huge := new(big.Rat).SetFrac(new(big.Int).Lsh(big.NewInt(1), 2000), big.NewInt(1))
	_, err := ratToFiniteFloat(huge)
	var notFinite *SurplusNotFiniteError
	if !errors.As(err, &notFinite) {
		t.Fatalf("expected SurplusNotFiniteError, got %T: %v", err, err)
	}
}

func TestIntoEncoder_FinalizesAllInteractionsConcurrently(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(1), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(10)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}

	interactions := []InteractionProposal{
		&noopInteraction{meta: InteractionMetadata{GasUsed: amt(0)}},
		&noopInteraction{meta: InteractionMetadata{GasUsed: amt(0)}},
		&noopInteraction{meta: InteractionMetadata{GasUsed: amt(0)}},
	}

	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, interactions)
	source := newFakeSource()
	source.remaining["o1"] = RemainingAmounts{Sell: amt(10), Buy: amt(10), Fee: amt(1)}

	encoder, err := proposal.IntoEncoder(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoder.ExecutionPlan) != 3 {
		t.Errorf("expected 3 finalized calls, got %d", len(encoder.ExecutionPlan))
	}
	if len(encoder.Trades) != 1 || encoder.Trades[0].RemainingFee.Cmp(amt(1)) != 0 {
		t.Errorf("unexpected encoded trade: %+v", encoder.Trades)
	}
}

func TestIntoEncoder_FinalizationFailurePropagates(t *testing.T) {
	order := &Order{
		UID: "o1", SellToken: tokenA, BuyToken: tokenB,
		SellAmount: amt(10), BuyAmount: amt(10), FeeAmount: amt(0), Kind: Sell,
	}
	trade := &TradedOrder{Order: order, ExecutedAmount: amt(10)}
	prices := ClearingPrices{tokenA: amt(1), tokenB: amt(1)}

	interactions := []InteractionProposal{
		&noopInteraction{meta: InteractionMetadata{GasUsed: amt(0)}, finalizeErr: errors.New("rpc timeout")},
	}
	proposal := NewSettlementProposal(prices, []*TradedOrder{trade}, interactions)

	_, err := proposal.IntoEncoder(context.Background(), newFakeSource())
	var failed *FinalizationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FinalizationFailedError, got %T: %v", err, err)
	}
}

// TestUint256Arithmetic_OverflowChecks exercises the checked-arithmetic
// helpers directly against uint256's own max value, independent of any
// settlement scenario.
func TestUint256Arithmetic_OverflowChecks(t *testing.T) {
	max := new(Amount).SetAllOne()

	if _, ok := checkedAdd(max, amt(1)); ok {
		t.Error("expected overflow adding 1 to max uint256")
	}
	if _, ok := checkedSub(amt(1), amt(2)); ok {
		t.Error("expected underflow subtracting 2 from 1")
	}
	if _, ok := checkedMul(max, amt(2)); ok {
		t.Error("expected overflow multiplying max uint256 by 2")
	}

	sum, ok := checkedAdd(amt(2), amt(3))
	if !ok || sum.Cmp(amt(5)) != 0 {
		t.Errorf("checkedAdd(2,3) = %v, %v; want 5, true", sum, ok)
	}
}

func TestCeilDivAndMulCeilDiv(t *testing.T) {
	q, ok := ceilDiv(amt(7), amt(2))
	if !ok || q.Cmp(amt(4)) != 0 {
		t.Errorf("ceilDiv(7,2) = %v, %v; want 4, true", q, ok)
	}

	q, ok = mulCeilDiv(amt(5), amt(3), amt(2))
	if !ok || q.Cmp(amt(8)) != 0 {
		t.Errorf("mulCeilDiv(5,3,2) = %v, %v; want 8, true", q, ok)
	}

	if _, ok := ceilDiv(amt(1), amt(0)); ok {
		t.Error("expected ceilDiv by zero to fail")
	}
}

func TestUint256FromDecimal_RejectsNegative(t *testing.T) {
	if _, err := uint256FromDecimal("-1"); err == nil {
		t.Error("expected error parsing negative decimal amount")
	}
	v, err := uint256FromDecimal("12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := uint256.FromDecimal("12345")
	if v.Cmp(want) != 0 {
		t.Errorf("uint256FromDecimal(12345) = %v, want %v", v, want)
	}
}
