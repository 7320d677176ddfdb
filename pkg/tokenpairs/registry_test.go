package tokenpairs

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func samplePair(symbol string, base, quote byte) *TokenPair {
	var b, q common.Address
	b[len(b)-1] = base
	q[len(q)-1] = quote
	return &TokenPair{Symbol: symbol, Base: b, Quote: q, BaseDecimals: 18, QuoteDecimals: 6}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	pair := samplePair("WETH-USDC", 1, 2)

	if err := reg.Register(pair); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := reg.Get("WETH-USDC")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != pair {
		t.Errorf("got %+v, want %+v", got, pair)
	}
}

func TestRegistry_Register_NilRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected error registering nil pair")
	}
}

func TestRegistry_Register_DuplicateSymbolRejected(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(samplePair("WETH-USDC", 1, 2)); err != nil {
		t.Fatalf("register first: %v", err)
	}
	if err := reg.Register(samplePair("WETH-USDC", 3, 4)); err == nil {
		t.Fatal("expected error registering duplicate symbol")
	}
}

func TestRegistry_Get_UnknownSymbolErrors(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Get("GHOST"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestRegistry_GetByBaseToken(t *testing.T) {
	reg := NewRegistry()
	pair := samplePair("WETH-USDC", 1, 2)
	if err := reg.Register(pair); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := reg.GetByBaseToken(pair.Base)
	if err != nil {
		t.Fatalf("get by base: %v", err)
	}
	if got != pair {
		t.Errorf("got %+v, want %+v", got, pair)
	}

	if _, err := reg.GetByBaseToken(pair.Quote); err == nil {
		t.Fatal("expected error looking up a quote token as a base token")
	}
}

func TestRegistry_KnownToken(t *testing.T) {
	reg := NewRegistry()
	pair := samplePair("WETH-USDC", 1, 2)
	if err := reg.Register(pair); err != nil {
		t.Fatalf("register: %v", err)
	}

	if !reg.KnownToken(pair.Base) {
		t.Error("expected base token to be known")
	}
	if !reg.KnownToken(pair.Quote) {
		t.Error("expected quote token to be known")
	}
	var unknown common.Address
	unknown[19] = 0xFF
	if reg.KnownToken(unknown) {
		t.Error("expected unregistered token to be unknown")
	}
}

func TestRegistry_ListAndCount(t *testing.T) {
	reg := NewRegistry()
	if reg.Count() != 0 {
		t.Fatalf("expected empty registry, got count %d", reg.Count())
	}

	if err := reg.Register(samplePair("A-B", 1, 2)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(samplePair("C-D", 3, 4)); err != nil {
		t.Fatalf("register: %v", err)
	}

	if reg.Count() != 2 {
		t.Errorf("expected count 2, got %d", reg.Count())
	}
	if len(reg.List()) != 2 {
		t.Errorf("expected list of 2, got %d", len(reg.List()))
	}
}
