package services

import (
	"fmt"
	"math"
	"strings"

	"showingcover/contexts/coverage/claim-service/domain/entities"
	domainerrors "showingcover/contexts/coverage/claim-service/domain/errors"

	"github.com/shopspring/decimal"
)

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ResolvePayout returns the approved amount in cents: the requested amount
// when given, otherwise the claim's maximum.
func ResolvePayout(requested *decimal.Decimal, maxPayout int64) (int64, error) {
	if requested == nil {
		return maxPayout, nil
	}
	cents, err := ToCents(*requested)
	if err != nil {
		return 0, err
	}
	if cents > maxPayout {
		return 0, fmt.Errorf("%w: exceeds the claim maximum of %s", domainerrors.ErrInvalidPayout, Amount(maxPayout).StringFixed(2))
	}
	return cents, nil
}

// ToCents converts a positive currency amount with at most two decimal places.
func ToCents(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: at most two decimal places", domainerrors.ErrInvalidPayout)
	}
	if !shifted.IsPositive() || shifted.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: amount out of range", domainerrors.ErrInvalidPayout)
	}
	return shifted.IntPart(), nil
}

// Amount is the currency value of a cents count.
func Amount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// EnsurePending rejects transitions out of a terminal state.
func EnsurePending(claim entities.Claim) error {
	if claim.Status != entities.StatusPending {
		return domainerrors.ErrAlreadyProcessed
	}
	return nil
}

// DenialNoteText combines the mandatory reason with the optional admin note.
func DenialNoteText(reason string, note string) string {
	reason = strings.TrimSpace(reason)
	note = strings.TrimSpace(note)
	if note == "" {
		return reason
	}
	return reason + "\n\n" + note
}
