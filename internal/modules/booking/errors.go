package booking

import "errors"

var (
	ErrValidation = errors.New("validation error")

	// ErrSlotTaken: a concurrent commit won the station/time; the caller
	// should re-fetch slots and retry with a fresh one.
	ErrSlotTaken = errors.New("slot no longer available")

	// ErrCodeSpaceExhausted: the allocator gave up after its retry bound.
	// Practically unreachable with 10^7 codes; fatal to the commit.
	ErrCodeSpaceExhausted = errors.New("confirmation code allocation exhausted")

	// ErrNotVerified: the direct-commit path found the customer's verified
	// flag stale or missing; the caller falls back to issuing an OTP.
	ErrNotVerified = errors.New("phone not verified")

	ErrNotFound = errors.New("not found")
)
