package booking

import "carwash/internal/domain"

// CommitRequest is the verified booking intent. The verification module
// serializes it into the VerificationCode payload, so the commit always runs
// from what the customer confirmed rather than a later, possibly mutated,
// client request.
type CommitRequest struct {
	InstanceID int64           `json:"instance_id"`
	ServiceID  int64           `json:"service_id"`
	AddonIDs   []int64         `json:"addon_ids,omitempty"`
	CarSize    domain.CarSize  `json:"car_size,omitempty"`
	StationID  *int64          `json:"station_id,omitempty"`

	Date      string `json:"date"`       // 2006-01-02
	StartTime string `json:"start_time"` // 15:04

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Vehicle       string `json:"vehicle,omitempty"`
	Source        string `json:"source,omitempty"`

	// IdempotencyKey dedupes double-submits on the direct-commit path. The
	// OTP path leaves it empty: single-use codes already prevent replays.
	IdempotencyKey string `json:"idempotency_key,omitempty"`

	// RequireVerifiedPhone makes the commit re-check the customer's
	// verified flag and fail with ErrNotVerified when it is stale. Set on
	// the direct path only; the OTP path has just proven ownership.
	RequireVerifiedPhone bool `json:"require_verified_phone,omitempty"`
}
