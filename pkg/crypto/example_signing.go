package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ExampleSignOrder demonstrates how to sign a reference order with EIP-712.
func ExampleSignOrder() {
	signer, err := GenerateKey()
	if err != nil {
		panic(err)
	}

	fmt.Printf("Generated address: %s\n", signer.Address().Hex())
	fmt.Printf("Private key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	eip712Signer := NewEIP712Signer(DefaultDomain())

	order := &OrderEIP712{
		UID:        "order-1",
		SellToken:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
		BuyToken:   common.HexToAddress("0x0000000000000000000000000000000000000003"),
		SellAmount: big.NewInt(60),
		BuyAmount:  big.NewInt(50),
		FeeAmount:  big.NewInt(1),
		Kind:       0, // Sell
		Nonce:      big.NewInt(1),
		Deadline:   big.NewInt(0),
		Owner:      signer.Address(),
	}

	signature, err := eip712Signer.SignOrder(signer, order)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Order signed!\n")
	fmt.Printf("Signature: 0x%x\n\n", signature)

	valid, err := eip712Signer.VerifyOrderSignature(order, signature)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Signature valid: %v\n", valid)

	recoveredAddr, err := eip712Signer.RecoverOrderSigner(order, signature)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Recovered address: %s\n", recoveredAddr.Hex())
	fmt.Printf("Matches original: %v\n\n", recoveredAddr == signer.Address())

	typedJSON, err := eip712Signer.OrderToJSON(order)
	if err != nil {
		panic(err)
	}
	fmt.Printf("EIP-712 JSON for MetaMask:\n%s\n", typedJSON)
}

// ExampleVerifySubmittedOrder demonstrates verifying a signed order as the
// API would before admitting it to the reference order book.
func ExampleVerifySubmittedOrder() {
	userAddress := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
	order := &OrderEIP712{
		UID:        "order-42",
		SellToken:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
		BuyToken:   common.HexToAddress("0x0000000000000000000000000000000000000003"),
		SellAmount: big.NewInt(3000),
		BuyAmount:  big.NewInt(2900),
		FeeAmount:  big.NewInt(5),
		Kind:       1, // Buy
		Nonce:      big.NewInt(42),
		Deadline:   big.NewInt(1735689600),
		Owner:      userAddress,
	}

	signer, _ := GenerateKey()
	eip712Signer := NewEIP712Signer(DefaultDomain())
	signature, _ := eip712Signer.SignOrder(signer, order)

	fmt.Println("API: verifying order signature...")

	valid, err := eip712Signer.VerifyOrderSignature(order, signature)
	if err != nil {
		fmt.Printf("verification error: %v\n", err)
		return
	}
	if !valid {
		fmt.Println("REJECTED: signature does not match claimed owner")
		return
	}

	recoveredAddr, err := eip712Signer.RecoverOrderSigner(order, signature)
	if err != nil {
		fmt.Printf("recovery error: %v\n", err)
		return
	}
	if recoveredAddr != order.Owner {
		fmt.Printf("REJECTED: recovered signer %s != claimed owner %s\n", recoveredAddr.Hex(), order.Owner.Hex())
		return
	}

	fmt.Println("signature valid, order accepted")
	fmt.Printf("  signer: %s\n", recoveredAddr.Hex())
	fmt.Printf("  kind: %s\n", Uint8ToKind(order.Kind))
	fmt.Printf("  sellAmount: %s\n", order.SellAmount.String())
	fmt.Printf("  buyAmount: %s\n", order.BuyAmount.String())
}

// ExampleReplayProtection demonstrates nonce-based replay protection for
// reference orders.
func ExampleReplayProtection() {
	signer, _ := GenerateKey()
	eip712Signer := NewEIP712Signer(DefaultDomain())

	order1 := &OrderEIP712{
		UID:        "order-1",
		SellToken:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
		BuyToken:   common.HexToAddress("0x0000000000000000000000000000000000000003"),
		SellAmount: big.NewInt(60),
		BuyAmount:  big.NewInt(50),
		FeeAmount:  big.NewInt(1),
		Kind:       0,
		Nonce:      big.NewInt(1),
		Deadline:   big.NewInt(0),
		Owner:      signer.Address(),
	}
	sig1, _ := eip712Signer.SignOrder(signer, order1)

	usedNonces := make(map[common.Address]map[uint64]bool)
	usedNonces[signer.Address()] = make(map[uint64]bool)

	fmt.Println("processing order with nonce 1...")
	if usedNonces[signer.Address()][order1.Nonce.Uint64()] {
		fmt.Println("REJECTED: nonce already used (replay attack)")
	} else if valid, _ := eip712Signer.VerifyOrderSignature(order1, sig1); valid {
		fmt.Println("order accepted")
		usedNonces[signer.Address()][order1.Nonce.Uint64()] = true
	}

	fmt.Println("\nattacker replays same order...")
	if usedNonces[signer.Address()][order1.Nonce.Uint64()] {
		fmt.Println("REJECTED: nonce already used (replay attack prevented)")
	}
}
