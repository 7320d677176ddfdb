package crypto

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP712Domain represents the domain separator for EIP-712 typed data.
// This prevents replay attacks across different chains/contracts.
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// OrderEIP712 is the typed data structure a user signs in their wallet to
// place a reference limit order against the reference order book.
type OrderEIP712 struct {
	UID        string
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount *big.Int
	BuyAmount  *big.Int
	FeeAmount  *big.Int
	Kind       uint8 // 0 = Sell, 1 = Buy
	Nonce      *big.Int
	Deadline   *big.Int // Unix seconds, 0 = no expiry
	Owner      common.Address
}

// RfqQuoteEIP712 is the typed data structure an RFQ maker signs to commit
// to filling a specific swap at a specific rate until expiry. An
// InteractionProposal of the RfqQuote variant fetches a fresh signature
// over one of these during Finalize.
type RfqQuoteEIP712 struct {
	SellToken  common.Address
	BuyToken   common.Address
	SellAmount *big.Int
	BuyAmount  *big.Int
	Expiry     *big.Int // Unix seconds
	Quoter     common.Address
}

// CancelEIP712 represents a reference-order cancellation request.
type CancelEIP712 struct {
	OrderUID string
	Nonce    *big.Int
	Owner    common.Address
}

// EIP712Signer handles EIP-712 typed data signing for orders and RFQ quotes.
type EIP712Signer struct {
	domain EIP712Domain
}

// NewEIP712Signer creates a new EIP-712 signer with the given domain.
func NewEIP712Signer(domain EIP712Domain) *EIP712Signer {
	return &EIP712Signer{domain: domain}
}

// DefaultDomain returns the default EIP-712 domain for the reference order
// source and RFQ signing used in local development and tests.
func DefaultDomain() EIP712Domain {
	return EIP712Domain{
		Name:              "SolverdSettlement",
		Version:           "1",
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.Address{},
	}
}

func (e *EIP712Signer) domainTypedData() (apitypes.Types, apitypes.TypedDataDomain) {
	types := apitypes.Types{
		"EIP712Domain": []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
	}
	domain := apitypes.TypedDataDomain{
		Name:              e.domain.Name,
		Version:           e.domain.Version,
		ChainId:           (*math.HexOrDecimal256)(e.domain.ChainID),
		VerifyingContract: e.domain.VerifyingContract.Hex(),
	}
	return types, domain
}

func (e *EIP712Signer) digest(primaryType string, types apitypes.Types, domain apitypes.TypedDataDomain, message apitypes.TypedDataMessage) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData).Bytes(), nil
}

// HashOrder hashes a reference order according to EIP-712, returning the
// digest that should be signed.
func (e *EIP712Signer) HashOrder(order *OrderEIP712) ([]byte, error) {
	types, domain := e.domainTypedData()
	types["Order"] = []apitypes.Type{
		{Name: "uid", Type: "string"},
		{Name: "sellToken", Type: "address"},
		{Name: "buyToken", Type: "address"},
		{Name: "sellAmount", Type: "uint256"},
		{Name: "buyAmount", Type: "uint256"},
		{Name: "feeAmount", Type: "uint256"},
		{Name: "kind", Type: "uint8"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
		{Name: "owner", Type: "address"},
	}
	message := apitypes.TypedDataMessage{
		"uid":        order.UID,
		"sellToken":  order.SellToken.Hex(),
		"buyToken":   order.BuyToken.Hex(),
		"sellAmount": order.SellAmount.String(),
		"buyAmount":  order.BuyAmount.String(),
		"feeAmount":  order.FeeAmount.String(),
		"kind":       fmt.Sprintf("%d", order.Kind),
		"nonce":      order.Nonce.String(),
		"deadline":   order.Deadline.String(),
		"owner":      order.Owner.Hex(),
	}
	return e.digest("Order", types, domain, message)
}

// SignOrder signs an order and returns the signature.
func (e *EIP712Signer) SignOrder(signer *Signer, order *OrderEIP712) ([]byte, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return nil, fmt.Errorf("hash order: %w", err)
	}
	return signer.Sign(hash)
}

// VerifyOrderSignature reports whether signature matches order and its
// claimed owner.
func (e *EIP712Signer) VerifyOrderSignature(order *OrderEIP712, signature []byte) (bool, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return false, fmt.Errorf("hash order: %w", err)
	}
	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		return false, fmt.Errorf("recover address: %w", err)
	}
	return recovered == order.Owner, nil
}

// RecoverOrderSigner recovers the address that signed an order.
func (e *EIP712Signer) RecoverOrderSigner(order *OrderEIP712, signature []byte) (common.Address, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return common.Address{}, fmt.Errorf("hash order: %w", err)
	}
	return RecoverAddress(hash, signature)
}

// OrderToJSON converts an order to the typed-data JSON format wallets use
// for eth_signTypedData_v4.
func (e *EIP712Signer) OrderToJSON(order *OrderEIP712) (string, error) {
	typedData := map[string]interface{}{
		"types": map[string]interface{}{
			"EIP712Domain": []map[string]string{
				{"name": "name", "type": "string"},
				{"name": "version", "type": "string"},
				{"name": "chainId", "type": "uint256"},
				{"name": "verifyingContract", "type": "address"},
			},
			"Order": []map[string]string{
				{"name": "uid", "type": "string"},
				{"name": "sellToken", "type": "address"},
				{"name": "buyToken", "type": "address"},
				{"name": "sellAmount", "type": "uint256"},
				{"name": "buyAmount", "type": "uint256"},
				{"name": "feeAmount", "type": "uint256"},
				{"name": "kind", "type": "uint8"},
				{"name": "nonce", "type": "uint256"},
				{"name": "deadline", "type": "uint256"},
				{"name": "owner", "type": "address"},
			},
		},
		"primaryType": "Order",
		"domain": map[string]interface{}{
			"name":              e.domain.Name,
			"version":           e.domain.Version,
			"chainId":           e.domain.ChainID.String(),
			"verifyingContract": e.domain.VerifyingContract.Hex(),
		},
		"message": map[string]interface{}{
			"uid":        order.UID,
			"sellToken":  order.SellToken.Hex(),
			"buyToken":   order.BuyToken.Hex(),
			"sellAmount": order.SellAmount.String(),
			"buyAmount":  order.BuyAmount.String(),
			"feeAmount":  order.FeeAmount.String(),
			"kind":       order.Kind,
			"nonce":      order.Nonce.String(),
			"deadline":   order.Deadline.String(),
			"owner":      order.Owner.Hex(),
		},
	}

	jsonBytes, err := json.MarshalIndent(typedData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// HashRfqQuote hashes an RFQ quote according to EIP-712.
func (e *EIP712Signer) HashRfqQuote(quote *RfqQuoteEIP712) ([]byte, error) {
	types, domain := e.domainTypedData()
	types["RfqQuote"] = []apitypes.Type{
		{Name: "sellToken", Type: "address"},
		{Name: "buyToken", Type: "address"},
		{Name: "sellAmount", Type: "uint256"},
		{Name: "buyAmount", Type: "uint256"},
		{Name: "expiry", Type: "uint256"},
		{Name: "quoter", Type: "address"},
	}
	message := apitypes.TypedDataMessage{
		"sellToken":  quote.SellToken.Hex(),
		"buyToken":   quote.BuyToken.Hex(),
		"sellAmount": quote.SellAmount.String(),
		"buyAmount":  quote.BuyAmount.String(),
		"expiry":     quote.Expiry.String(),
		"quoter":     quote.Quoter.Hex(),
	}
	return e.digest("RfqQuote", types, domain, message)
}

// SignRfqQuote signs an RFQ quote with the quoter's key.
func (e *EIP712Signer) SignRfqQuote(signer *Signer, quote *RfqQuoteEIP712) ([]byte, error) {
	hash, err := e.HashRfqQuote(quote)
	if err != nil {
		return nil, fmt.Errorf("hash rfq quote: %w", err)
	}
	return signer.Sign(hash)
}

// VerifyRfqQuoteSignature reports whether signature matches quote and its
// claimed quoter.
func (e *EIP712Signer) VerifyRfqQuoteSignature(quote *RfqQuoteEIP712, signature []byte) (bool, error) {
	hash, err := e.HashRfqQuote(quote)
	if err != nil {
		return false, fmt.Errorf("hash rfq quote: %w", err)
	}
	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		return false, fmt.Errorf("recover address: %w", err)
	}
	return recovered == quote.Quoter, nil
}

// HashCancel hashes a reference-order cancellation according to EIP-712.
func (e *EIP712Signer) HashCancel(cancel *CancelEIP712) ([]byte, error) {
	types, domain := e.domainTypedData()
	types["CancelOrder"] = []apitypes.Type{
		{Name: "orderUid", Type: "string"},
		{Name: "nonce", Type: "uint256"},
		{Name: "owner", Type: "address"},
	}
	message := apitypes.TypedDataMessage{
		"orderUid": cancel.OrderUID,
		"nonce":    cancel.Nonce.String(),
		"owner":    cancel.Owner.Hex(),
	}
	return e.digest("CancelOrder", types, domain, message)
}

// VerifyCancelSignature reports whether signature matches cancel and its
// claimed owner.
func (e *EIP712Signer) VerifyCancelSignature(cancel *CancelEIP712, signature []byte) (bool, error) {
	hash, err := e.HashCancel(cancel)
	if err != nil {
		return false, fmt.Errorf("hash cancel: %w", err)
	}
	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		return false, fmt.Errorf("recover address: %w", err)
	}
	return recovered == cancel.Owner, nil
}

// KindToUint8 converts a settlement order kind name to its EIP-712 uint8 encoding.
func KindToUint8(kind string) uint8 {
	if kind == "buy" {
		return 1
	}
	return 0
}

// Uint8ToKind converts the EIP-712 uint8 encoding back to a kind name.
func Uint8ToKind(kind uint8) string {
	if kind == 1 {
		return "buy"
	}
	return "sell"
}
