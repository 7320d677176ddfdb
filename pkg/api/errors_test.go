package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

func TestKindForError_MapsAllCoreErrorsTo422(t *testing.T) {
	tok := common.HexToAddress("0x01")
	cases := []struct {
		name string
		err  error
		kind string
	}{
		{"MissingClearingPrice", &settlement.MissingClearingPriceError{Token: tok}, "MissingClearingPrice"},
		{"ArithmeticOverflow", &settlement.ArithmeticOverflowError{Op: "add"}, "ArithmeticOverflow"},
		{"ArithmeticUnderflow", &settlement.ArithmeticUnderflowError{Token: tok, Have: "1", Want: "2", Context: "x"}, "ArithmeticUnderflow"},
		{"InvalidExecutedAmount", &settlement.InvalidExecutedAmountError{OrderUID: "o1", Reason: "zero"}, "InvalidExecutedAmount"},
		{"LimitPriceViolated", &settlement.LimitPriceViolatedError{OrderUID: "o1"}, "LimitPriceViolated"},
		{"MissingBalanceForInteraction", &settlement.MissingBalanceForInteractionError{Token: tok, InteractionIndex: 0}, "MissingBalanceForInteraction"},
		{"MissingBalanceForPayout", &settlement.MissingBalanceForPayoutError{Token: tok, OrderUID: "o1"}, "MissingBalanceForPayout"},
		{"BufferDrained", &settlement.BufferDrainedError{Token: tok, Pre: "10", Post: "5"}, "BufferDrained"},
		{"FeeScalingFailed", &settlement.FeeScalingFailedError{OrderUID: "o1"}, "FeeScalingFailed"},
		{"SurplusNotFinite", &settlement.SurplusNotFiniteError{}, "SurplusNotFinite"},
		{"FinalizationFailed", &settlement.FinalizationFailedError{InteractionIndex: 0, Cause: errors.New("boom")}, "FinalizationFailed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, status := kindForError(tc.err)
			if kind != tc.kind {
				t.Errorf("kind = %q, want %q", kind, tc.kind)
			}
			if status != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want %d", status, http.StatusUnprocessableEntity)
			}
		})
	}
}

func TestKindForError_WrappedErrorsStillClassify(t *testing.T) {
	wrapped := fmt.Errorf("resolving trades: %w", &settlement.InvalidExecutedAmountError{OrderUID: "o1", Reason: "zero"})

	kind, status := kindForError(wrapped)
	if kind != "InvalidExecutedAmount" {
		t.Errorf("kind = %q, want InvalidExecutedAmount", kind)
	}
	if status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", status)
	}
}

func TestKindForError_UnknownErrorIsInternal(t *testing.T) {
	kind, status := kindForError(errors.New("something unexpected"))
	if kind != "internal_error" {
		t.Errorf("kind = %q, want internal_error", kind)
	}
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
}
