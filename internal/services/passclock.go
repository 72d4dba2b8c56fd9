package services

import (
	"errors"
	"time"
)

var ErrInvalidTimestamp = errors.New("invalid timestamp")

// IsPassActive reports whether a validity window is still open at now.
// A nil window means the user never held a pass.
func IsPassActive(validUntil *time.Time, now time.Time) bool {
	if validUntil == nil {
		return false
	}
	return !now.After(*validUntil)
}

// ExtendPass computes the new expiry after buying days of validity. Renewing
// an active pass stacks on top of the remaining window so early renewal never
// wastes days; an expired or absent pass restarts from now.
func ExtendPass(validUntil *time.Time, days int, now time.Time) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, ErrInvalidTimestamp
	}
	if now.IsZero() || (validUntil != nil && validUntil.IsZero()) {
		return time.Time{}, ErrInvalidTimestamp
	}

	base := now
	if IsPassActive(validUntil, now) {
		base = *validUntil
	}
	return base.AddDate(0, 0, days), nil
}
