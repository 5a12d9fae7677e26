package verification

import "errors"

var (
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrBadCodeFormat: the candidate is not a 4-digit code. Reported
	// separately from a non-matching code so the widget can validate input.
	ErrBadCodeFormat = errors.New("code must be 4 digits")

	// ErrInvalidOrExpired covers a wrong code, an expired one and an
	// already-consumed one; the caller cannot tell them apart.
	ErrInvalidOrExpired = errors.New("code invalid or expired")

	// ErrDeliveryFailed: the OTP SMS could not be sent; the caller should
	// retry the start operation.
	ErrDeliveryFailed = errors.New("verification sms delivery failed")
)
