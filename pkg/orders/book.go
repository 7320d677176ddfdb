package orders

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/crypto"
	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// SignedOrder is a reference Order plus the EIP-712 signature and signer
// address that admitted it, used by the reference order source to accept
// orders and to verify they were authorized by their claimed owner. The
// settlement core itself never sees a signature — it treats remaining
// amounts as given.
type SignedOrder struct {
	Order     settlement.Order
	Signature []byte
	Owner     common.Address
}

// Book is the reference order source: a registry of admitted signed
// orders plus the running tally of how much of each has already been
// filled across prior settlements. It implements settlement.OrderSource.
// Shaped on the account manager's map+RWMutex pattern rather than the
// continuous-matching order book — batch settlement has no live matching
// loop, only admission and remaining-amount bookkeeping.
type Book struct {
	mu      sync.RWMutex
	orders  map[string]*SignedOrder
	filled  map[string]*settlement.Amount // order UID -> cumulative filled amount, on the order's fixed side
	signer  *crypto.EIP712Signer
}

// NewBook creates an empty reference order book that verifies admitted
// orders against the given EIP-712 domain signer.
func NewBook(signer *crypto.EIP712Signer) *Book {
	return &Book{
		orders: make(map[string]*SignedOrder),
		filled: make(map[string]*settlement.Amount),
		signer: signer,
	}
}

// Admit validates a signed order's signature against its claimed owner
// and, if valid, registers it for later settlement. Re-admitting the same
// UID with an identical signature is a no-op; a conflicting signature for
// an already-known UID is rejected.
func (b *Book) Admit(signed *SignedOrder) error {
	eipOrder := toEIP712(&signed.Order, signed.Owner)

	ok, err := b.signer.VerifyOrderSignature(eipOrder, signed.Signature)
	if err != nil {
		return fmt.Errorf("verifying signature for order %s: %w", signed.Order.UID, err)
	}
	if !ok {
		return fmt.Errorf("invalid signature for order %s", signed.Order.UID)
	}

	recovered, err := b.signer.RecoverOrderSigner(eipOrder, signed.Signature)
	if err != nil {
		return fmt.Errorf("recovering signer for order %s: %w", signed.Order.UID, err)
	}
	if recovered != signed.Owner {
		return fmt.Errorf("order %s signed by %s, claimed owner %s", signed.Order.UID, recovered.Hex(), signed.Owner.Hex())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.orders[signed.Order.UID]; ok {
		if string(existing.Signature) != string(signed.Signature) {
			return fmt.Errorf("order %s already admitted with a different signature", signed.Order.UID)
		}
		return nil
	}

	b.orders[signed.Order.UID] = signed
	b.filled[signed.Order.UID] = settlement.Zero()
	return nil
}

// Get returns the admitted order for a UID, or an error if unknown.
func (b *Book) Get(uid string) (*SignedOrder, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[uid]
	if !ok {
		return nil, fmt.Errorf("order %s not found", uid)
	}
	return o, nil
}

// RemainingAmounts implements settlement.OrderSource: the still-fillable
// (sell, buy, fee) triple for an order, derived from its full amounts
// minus whatever has already been filled on its fixed side.
func (b *Book) RemainingAmounts(order *settlement.Order) (settlement.RemainingAmounts, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	filled, ok := b.filled[order.UID]
	if !ok {
		return settlement.RemainingAmounts{}, fmt.Errorf("order %s not admitted", order.UID)
	}

	return remainingFor(order, filled)
}

// VerifyExecutedAmount implements settlement.OrderSource: rejects a
// proposed executed amount that is zero or exceeds what remains fillable
// on the order's fixed side, independent of clearing prices.
func (b *Book) VerifyExecutedAmount(order *settlement.Order, executedAmount *settlement.Amount) error {
	if executedAmount.IsZero() {
		return &settlement.InvalidExecutedAmountError{OrderUID: order.UID, Reason: "executed amount is zero"}
	}

	remaining, err := b.RemainingAmounts(order)
	if err != nil {
		return err
	}

	fixedRemaining := remaining.Sell
	if order.Kind == settlement.Buy {
		fixedRemaining = remaining.Buy
	}
	if executedAmount.Gt(fixedRemaining) {
		return &settlement.InvalidExecutedAmountError{
			OrderUID: order.UID,
			Reason:   fmt.Sprintf("executed amount %s exceeds remaining %s", executedAmount.String(), fixedRemaining.String()),
		}
	}
	return nil
}

// RecordFill advances an order's cumulative filled amount. The core itself
// never calls this; the service pipeline calls it for each trade as soon
// as a proposal's settlement summary has been computed.
func (b *Book) RecordFill(uid string, executedAmount *settlement.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prior, ok := b.filled[uid]
	if !ok {
		return fmt.Errorf("order %s not admitted", uid)
	}

	sum, overflow := new(settlement.Amount).AddOverflow(prior, executedAmount)
	if overflow {
		return fmt.Errorf("recording fill for order %s overflows", uid)
	}
	b.filled[uid] = sum
	return nil
}

func remainingFor(order *settlement.Order, filled *settlement.Amount) (settlement.RemainingAmounts, error) {
	switch order.Kind {
	case settlement.Sell:
		remainingSell := new(settlement.Amount).Sub(order.SellAmount, filled)
		if filled.Gt(order.SellAmount) {
			remainingSell = settlement.Zero()
		}
		remainingBuy := scaleRemaining(remainingSell, order.SellAmount, order.BuyAmount)
		remainingFee := scaleRemaining(remainingSell, order.SellAmount, order.FeeAmount)
		return settlement.RemainingAmounts{Sell: remainingSell, Buy: remainingBuy, Fee: remainingFee}, nil
	default: // Buy
		remainingBuy := new(settlement.Amount).Sub(order.BuyAmount, filled)
		if filled.Gt(order.BuyAmount) {
			remainingBuy = settlement.Zero()
		}
		remainingSell := scaleRemaining(remainingBuy, order.BuyAmount, order.SellAmount)
		remainingFee := scaleRemaining(remainingBuy, order.BuyAmount, order.FeeAmount)
		return settlement.RemainingAmounts{Sell: remainingSell, Buy: remainingBuy, Fee: remainingFee}, nil
	}
}

// scaleRemaining computes floor(remaining * total / fullAmount), used to
// pro-rate the non-fixed side and the fee as the fixed side is consumed.
func scaleRemaining(remaining, fullAmount, total *settlement.Amount) *settlement.Amount {
	if fullAmount.IsZero() {
		return settlement.Zero()
	}
	product := new(settlement.Amount).Mul(remaining, total)
	return new(settlement.Amount).Div(product, fullAmount)
}

func toEIP712(order *settlement.Order, owner common.Address) *crypto.OrderEIP712 {
	return &crypto.OrderEIP712{
		UID:        order.UID,
		SellToken:  order.SellToken,
		BuyToken:   order.BuyToken,
		SellAmount: order.SellAmount.ToBig(),
		BuyAmount:  order.BuyAmount.ToBig(),
		FeeAmount:  order.FeeAmount.ToBig(),
		Kind:       crypto.KindToUint8(order.Kind.String()),
		Nonce:      big.NewInt(0),
		Deadline:   big.NewInt(0),
		Owner:      owner,
	}
}
