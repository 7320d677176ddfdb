package service

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/crypto"
	"github.com/nuvana-labs/solverd/pkg/proposalqueue"
	"github.com/nuvana-labs/solverd/pkg/settlement"
)

func toRfqQuote(ref *proposalqueue.RfqQuoteRef) (*crypto.RfqQuoteEIP712, error) {
	sellAmount, ok := new(big.Int).SetString(ref.SellAmount, 10)
	if !ok {
		return nil, fmt.Errorf("rfq quote: invalid sellAmount %q", ref.SellAmount)
	}
	buyAmount, ok := new(big.Int).SetString(ref.BuyAmount, 10)
	if !ok {
		return nil, fmt.Errorf("rfq quote: invalid buyAmount %q", ref.BuyAmount)
	}

	return &crypto.RfqQuoteEIP712{
		SellToken:  common.HexToAddress(ref.SellToken),
		BuyToken:   common.HexToAddress(ref.BuyToken),
		SellAmount: sellAmount,
		BuyAmount:  buyAmount,
		Expiry:     big.NewInt(ref.Expiry),
		Quoter:     common.HexToAddress(ref.Maker),
	}, nil
}

// encodeRouterSwap is a placeholder router call-data encoder: the
// reference deployment has no concrete router ABI wired in, so it emits
// a recognizable marker rather than a real swap selector. A production
// deployment supplies its own encodeCallData closure per router.
func encodeRouterSwap(router common.Address, minBuyAmount *settlement.Amount) []byte {
	return append([]byte("swap:minOut="), minBuyAmount.Bytes()...)
}

// encodeRfqFill encodes a fill call against a signed RFQ quote. Like
// encodeRouterSwap, this is a reference placeholder; a real deployment
// encodes the maker contract's actual fill selector and calldata layout.
func encodeRfqFill(quote *crypto.RfqQuoteEIP712, signature []byte) []byte {
	out := append([]byte("rfqFill:"), signature...)
	return out
}
