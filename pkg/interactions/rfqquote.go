package interactions

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/crypto"
	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// Quoter is the network-shaped collaborator an RfqQuote interaction calls
// during Finalize to obtain a fresh signature over its swap terms. A real
// deployment backs this with an HTTP round trip to the market maker; tests
// back it with an in-process signer.
type Quoter interface {
	RequestSignature(ctx context.Context, quote *crypto.RfqQuoteEIP712) ([]byte, error)
}

// RfqQuote is the InteractionProposal variant representing a quoted
// request-for-quote trade: its balance effect is known ahead of time
// (the maker committed to a rate), but the signature authorizing the
// maker's transfer is fetched from the Quoter at finalization. A quote
// whose expiry has passed is rejected by Finalize rather than re-quoted.
// This is the variant that performs genuine
// network-shaped work and therefore the one that exercises the export
// path's parallel fan-out (§5).
type RfqQuote struct {
	metadata  settlement.InteractionMetadata
	quote     *crypto.RfqQuoteEIP712
	quoter    Quoter
	maker     common.Address
	encodeFillCall func(quote *crypto.RfqQuoteEIP712, signature []byte) []byte
}

// NewRfqQuote builds an RfqQuote variant from its declared balance effect
// and the terms the maker quoted.
func NewRfqQuote(
	meta settlement.InteractionMetadata,
	quote *crypto.RfqQuoteEIP712,
	quoter Quoter,
	encodeFillCall func(quote *crypto.RfqQuoteEIP712, signature []byte) []byte,
) *RfqQuote {
	return &RfqQuote{metadata: meta, quote: quote, quoter: quoter, maker: quote.Quoter, encodeFillCall: encodeFillCall}
}

func (r *RfqQuote) Metadata() settlement.InteractionMetadata { return r.metadata }

func (r *RfqQuote) Finalize(ctx context.Context) (settlement.Interaction, error) {
	if r.quote.Expiry.Cmp(big.NewInt(0)) > 0 && time.Now().Unix() >= r.quote.Expiry.Int64() {
		return settlement.Interaction{}, fmt.Errorf("rfq quote from %s expired at %s", r.maker.Hex(), r.quote.Expiry.String())
	}

	signature, err := r.quoter.RequestSignature(ctx, r.quote)
	if err != nil {
		return settlement.Interaction{}, fmt.Errorf("requesting rfq signature from %s: %w", r.maker.Hex(), err)
	}

	callData := r.encodeFillCall(r.quote, signature)
	return settlement.Interaction{
		Calls: []settlement.CallRecord{
			{Target: r.maker, CallData: callData, Value: settlement.Zero()},
		},
	}, nil
}

// SigningQuoter is a Quoter backed by a local EIP712Signer and Signer
// keypair — used by the reference order source and by tests, standing in
// for a real market maker's signing service.
type SigningQuoter struct {
	Signer       *crypto.Signer
	EIP712Signer *crypto.EIP712Signer
}

func (q *SigningQuoter) RequestSignature(ctx context.Context, quote *crypto.RfqQuoteEIP712) ([]byte, error) {
	return q.EIP712Signer.SignRfqQuote(q.Signer, quote)
}
