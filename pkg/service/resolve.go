package service

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/nuvana-labs/solverd/pkg/interactions"
	"github.com/nuvana-labs/solverd/pkg/orders"
	"github.com/nuvana-labs/solverd/pkg/proposalqueue"
	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// resolveClearingPrices parses an envelope's decimal-string clearing
// price table into settlement.ClearingPrices.
func resolveClearingPrices(raw map[string]string) (settlement.ClearingPrices, error) {
	prices := make(settlement.ClearingPrices, len(raw))
	for hexAddr, decimal := range raw {
		amount, err := uint256.FromDecimal(decimal)
		if err != nil {
			return nil, errors.Wrapf(err, "clearing price for %s", hexAddr)
		}
		prices[common.HexToAddress(hexAddr)] = amount
	}
	return prices, nil
}

// resolveTrades looks up each trade reference against the reference
// order book and parses its executed amount.
func resolveTrades(book *orders.Book, refs []proposalqueue.TradeRef) ([]*settlement.TradedOrder, error) {
	trades := make([]*settlement.TradedOrder, len(refs))
	for i, ref := range refs {
		signed, err := book.Get(ref.OrderUID)
		if err != nil {
			return nil, errors.Wrapf(err, "trade %d", i)
		}
		executed, err := uint256.FromDecimal(ref.ExecutedAmount)
		if err != nil {
			return nil, errors.Wrapf(err, "trade %d: executed amount", i)
		}
		order := signed.Order
		trades[i] = &settlement.TradedOrder{Order: &order, ExecutedAmount: executed}
	}
	return trades, nil
}

// resolveExecutionPlan turns each wire interaction reference into the
// corresponding InteractionProposal variant.
func resolveExecutionPlan(refs []proposalqueue.InteractionRef, allowances *interactions.AllowanceCache, quoter interactions.Quoter) ([]settlement.InteractionProposal, error) {
	plan := make([]settlement.InteractionProposal, len(refs))
	for i, ref := range refs {
		meta, err := resolveMetadata(ref)
		if err != nil {
			return nil, errors.Wrapf(err, "interaction %d", i)
		}

		switch ref.Kind {
		case "constant_swap":
			if ref.ConstantSwap == nil {
				return nil, fmt.Errorf("interaction %d: missing constant_swap payload", i)
			}
			value, err := uint256.FromDecimal(ref.ConstantSwap.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "interaction %d: value", i)
			}
			callData := common.FromHex(ref.ConstantSwap.CallData)
			plan[i] = interactions.NewConstantSwap(meta, common.HexToAddress(ref.ConstantSwap.Target), callData, value)

		case "router_call":
			if ref.RouterCall == nil {
				return nil, fmt.Errorf("interaction %d: missing router_call payload", i)
			}
			minBuy, err := uint256.FromDecimal(ref.RouterCall.MinBuyAmount)
			if err != nil {
				return nil, errors.Wrapf(err, "interaction %d: minBuyAmount", i)
			}
			requiredAllowance, err := uint256.FromDecimal(ref.RouterCall.RequiredAllowance)
			if err != nil {
				return nil, errors.Wrapf(err, "interaction %d: requiredAllowance", i)
			}
			plan[i] = interactions.NewRouterCall(
				meta,
				common.HexToAddress(ref.RouterCall.Router),
				common.HexToAddress(ref.RouterCall.SellToken),
				minBuy,
				requiredAllowance,
				allowances,
				encodeRouterSwap,
			)

		case "rfq_quote":
			if ref.RfqQuote == nil {
				return nil, fmt.Errorf("interaction %d: missing rfq_quote payload", i)
			}
			quote, err := toRfqQuote(ref.RfqQuote)
			if err != nil {
				return nil, errors.Wrapf(err, "interaction %d", i)
			}
			plan[i] = interactions.NewRfqQuote(meta, quote, quoter, encodeRfqFill)

		default:
			return nil, fmt.Errorf("interaction %d: unknown kind %q", i, ref.Kind)
		}
	}
	return plan, nil
}

func resolveMetadata(ref proposalqueue.InteractionRef) (settlement.InteractionMetadata, error) {
	inputs, err := resolveTokenAmounts(ref.Inputs)
	if err != nil {
		return settlement.InteractionMetadata{}, errors.Wrap(err, "inputs")
	}
	outputs, err := resolveTokenAmounts(ref.Outputs)
	if err != nil {
		return settlement.InteractionMetadata{}, errors.Wrap(err, "outputs")
	}
	gasUsed, err := uint256.FromDecimal(ref.GasUsed)
	if err != nil {
		return settlement.InteractionMetadata{}, errors.Wrap(err, "gasUsed")
	}
	return settlement.InteractionMetadata{Inputs: inputs, Outputs: outputs, GasUsed: gasUsed}, nil
}

func resolveTokenAmounts(refs []proposalqueue.TokenAmountRef) ([]settlement.TokenAmount, error) {
	out := make([]settlement.TokenAmount, len(refs))
	for i, ref := range refs {
		amount, err := uint256.FromDecimal(ref.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		out[i] = settlement.TokenAmount{Token: common.HexToAddress(ref.Token), Amount: amount}
	}
	return out, nil
}
