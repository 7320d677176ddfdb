package tokenpairs

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPair is a registered (base, quote) symbol with display metadata.
// The API lists registered pairs; neither the reference order book nor
// the submission pipeline checks proposals against them.
type TokenPair struct {
	Symbol       string
	Base         common.Address
	Quote        common.Address
	BaseDecimals uint8
	QuoteDecimals uint8
}

// Registry manages the set of known token pairs in a thread-safe manner;
// proposal submission does not consult it. Shaped directly on
// the perp market registry: register-once, lookup-by-symbol-or-address,
// RWMutex-guarded.
type Registry struct {
	mu        sync.RWMutex
	bySymbol  map[string]*TokenPair
	byAddress map[common.Address]*TokenPair // keyed by base token
}

// NewRegistry creates an empty token pair registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol:  make(map[string]*TokenPair),
		byAddress: make(map[common.Address]*TokenPair),
	}
}

// Register adds a new token pair. Returns an error if the symbol is
// already registered.
func (r *Registry) Register(pair *TokenPair) error {
	if pair == nil {
		return fmt.Errorf("cannot register nil token pair")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySymbol[pair.Symbol]; exists {
		return fmt.Errorf("token pair %s already registered", pair.Symbol)
	}

	r.bySymbol[pair.Symbol] = pair
	r.byAddress[pair.Base] = pair
	return nil
}

// Get retrieves a token pair by symbol.
func (r *Registry) Get(symbol string) (*TokenPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.bySymbol[symbol]
	if !exists {
		return nil, fmt.Errorf("token pair %s not found", symbol)
	}
	return p, nil
}

// GetByBaseToken retrieves a token pair by its base token address.
func (r *Registry) GetByBaseToken(base common.Address) (*TokenPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byAddress[base]
	if !exists {
		return nil, fmt.Errorf("no token pair registered for base token %s", base.Hex())
	}
	return p, nil
}

// KnownToken reports whether an address is registered as either the base
// or quote leg of any pair. Nothing in the submission pipeline calls it,
// so proposal clearing prices are not checked against the registry.
func (r *Registry) KnownToken(token common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.bySymbol {
		if p.Base == token || p.Quote == token {
			return true
		}
	}
	return false
}

// List returns all registered token pairs.
func (r *Registry) List() []*TokenPair {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pairs := make([]*TokenPair, 0, len(r.bySymbol))
	for _, p := range r.bySymbol {
		pairs = append(pairs, p)
	}
	return pairs
}

// Count returns the number of registered token pairs.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}
