package api

import (
	"errors"
	"net/http"

	"github.com/nuvana-labs/solverd/pkg/settlement"
)

// kindForError classifies an error from the summarization pipeline into
// its §7 error kind and HTTP status. All eleven core error kinds map to
// 422 Unprocessable Entity, since each is a proposal-content failure
// rather than a caller-fault or transport error.
func kindForError(err error) (kind string, status int) {
	switch {
	case errors.As(err, new(*settlement.MissingClearingPriceError)):
		return "MissingClearingPrice", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.ArithmeticOverflowError)):
		return "ArithmeticOverflow", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.ArithmeticUnderflowError)):
		return "ArithmeticUnderflow", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.InvalidExecutedAmountError)):
		return "InvalidExecutedAmount", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.LimitPriceViolatedError)):
		return "LimitPriceViolated", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.MissingBalanceForInteractionError)):
		return "MissingBalanceForInteraction", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.MissingBalanceForPayoutError)):
		return "MissingBalanceForPayout", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.BufferDrainedError)):
		return "BufferDrained", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.FeeScalingFailedError)):
		return "FeeScalingFailed", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.SurplusNotFiniteError)):
		return "SurplusNotFinite", http.StatusUnprocessableEntity
	case errors.As(err, new(*settlement.FinalizationFailedError)):
		return "FinalizationFailed", http.StatusUnprocessableEntity
	default:
		return "internal_error", http.StatusInternalServerError
	}
}
