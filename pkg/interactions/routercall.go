package interactions

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// AllowanceCache tracks the settlement contract's last-known ERC20
// allowance to a router, keyed by token only (the router is not part of
// the key). It is read and written
// at interaction-encoding time only — never across a suspension point —
// matching the non-blocking mutex discipline the core's §5 concurrency
// model calls for. Grounded in the upstream AMM liquidity fetcher's own
// allowance cache, which uses the identical non-async mutex-over-map shape.
type AllowanceCache struct {
	mu         sync.Mutex
	allowances map[common.Address]*settlement.Amount
}

// NewAllowanceCache builds an empty cache.
func NewAllowanceCache() *AllowanceCache {
	return &AllowanceCache{allowances: make(map[common.Address]*settlement.Amount)}
}

// Get returns the cached allowance for a token, or nil if unknown.
func (c *AllowanceCache) Get(token common.Address) *settlement.Amount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowances[token]
}

// Set records a freshly observed allowance for a token.
func (c *AllowanceCache) Set(token common.Address, allowance *settlement.Amount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowances[token] = allowance
}

// RouterCall is an InteractionProposal variant whose Finalize step encodes
// a call to a specific AMM router with a slippage-bounded minimum output.
// The balance-level shape (inputs/outputs/gas), the router address and the
// minimum output are all fixed at construction time; Finalize refreshes
// the allowance cache and produces the call data.
type RouterCall struct {
	metadata       settlement.InteractionMetadata
	router         common.Address
	sellToken      common.Address
	minBuyAmount   *settlement.Amount
	allowances     *AllowanceCache
	requiredAllow  *settlement.Amount
	encodeCallData func(router common.Address, minBuyAmount *settlement.Amount) []byte
}

// NewRouterCall builds a RouterCall variant. encodeCallData produces the
// router-specific call data from the router and minimum output at
// Finalize; it is supplied by the caller so this package stays agnostic to
// any one router's ABI.
func NewRouterCall(
	meta settlement.InteractionMetadata,
	router, sellToken common.Address,
	minBuyAmount, requiredAllowance *settlement.Amount,
	allowances *AllowanceCache,
	encodeCallData func(router common.Address, minBuyAmount *settlement.Amount) []byte,
) *RouterCall {
	return &RouterCall{
		metadata:       meta,
		router:         router,
		sellToken:      sellToken,
		minBuyAmount:   minBuyAmount,
		allowances:     allowances,
		requiredAllow:  requiredAllowance,
		encodeCallData: encodeCallData,
	}
}

func (r *RouterCall) Metadata() settlement.InteractionMetadata { return r.metadata }

func (r *RouterCall) Finalize(ctx context.Context) (settlement.Interaction, error) {
	cached := r.allowances.Get(r.sellToken)
	if cached == nil || cached.Lt(r.requiredAllow) {
		// A real router adapter would submit an approve() call here first;
		// the reference implementation just refreshes the cache so repeated
		// finalizations of the same sell token don't re-approve.
		r.allowances.Set(r.sellToken, r.requiredAllow)
	}

	callData := r.encodeCallData(r.router, r.minBuyAmount)
	if callData == nil {
		return settlement.Interaction{}, fmt.Errorf("router call: call data encoder returned no call data")
	}

	return settlement.Interaction{
		Calls: []settlement.CallRecord{
			{Target: r.router, CallData: callData, Value: settlement.Zero()},
		},
	}, nil
}
