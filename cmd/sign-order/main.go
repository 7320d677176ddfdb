package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/crypto"
)

func main() {
	fmt.Println("Generating new keypair...")
	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	order := &crypto.OrderEIP712{
		UID:        "0x01",
		SellToken:  common.HexToAddress("0x1000000000000000000000000000000000000000"),
		BuyToken:   common.HexToAddress("0x2000000000000000000000000000000000000000"),
		SellAmount: big.NewInt(60),
		BuyAmount:  big.NewInt(50),
		FeeAmount:  big.NewInt(1),
		Kind:       crypto.KindToUint8("sell"),
		Nonce:      big.NewInt(1),
		Deadline:   big.NewInt(0), // no expiry
		Owner:      signer.Address(),
	}

	fmt.Println("Order Details:")
	fmt.Printf("  UID: %s\n", order.UID)
	fmt.Printf("  Kind: %s\n", crypto.Uint8ToKind(order.Kind))
	fmt.Printf("  Sell: %s of %s\n", order.SellAmount.String(), order.SellToken.Hex())
	fmt.Printf("  Buy: %s of %s\n", order.BuyAmount.String(), order.BuyToken.Hex())
	fmt.Printf("  Fee: %s\n", order.FeeAmount.String())
	fmt.Printf("  Owner: %s\n\n", order.Owner.Hex())

	eip712Signer := crypto.NewEIP712Signer(crypto.DefaultDomain())
	signature, err := eip712Signer.SignOrder(signer, order)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signature: 0x%x\n\n", signature)

	orderJSON, err := eip712Signer.OrderToJSON(order)
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}

	signed := map[string]interface{}{
		"order":     json.RawMessage(orderJSON),
		"signature": fmt.Sprintf("0x%x", signature),
	}
	signedJSON, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling signed order: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Signed Order (JSON):")
	fmt.Println(string(signedJSON))
	fmt.Println()

	fmt.Println("Verifying signature...")
	ok, err := eip712Signer.VerifyOrderSignature(order, signature)
	if err != nil {
		fmt.Printf("Error verifying: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("signature INVALID")
		os.Exit(1)
	}

	recovered, err := eip712Signer.RecoverOrderSigner(order, signature)
	if err != nil {
		fmt.Printf("Error recovering signer: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("signature VALID")
	fmt.Printf("  Signer: %s\n", recovered.Hex())
	fmt.Printf("  Matches owner: %v\n\n", recovered == order.Owner)

	fmt.Println("Submit the admitted order's signed envelope to a settlement proposal via:")
	fmt.Println("  POST /api/v1/proposals")
}
