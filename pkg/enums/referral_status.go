package enums

import "fmt"

// ReferralStatus tracks a referral through the intake pipeline.
type ReferralStatus string

const (
	ReferralStatusReceived  ReferralStatus = "received"
	ReferralStatusContacted ReferralStatus = "contacted"
	ReferralStatusScheduled ReferralStatus = "scheduled"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusLost      ReferralStatus = "lost"
)

var validReferralStatuses = []ReferralStatus{
	ReferralStatusReceived,
	ReferralStatusContacted,
	ReferralStatusScheduled,
	ReferralStatusCompleted,
	ReferralStatusLost,
}

// referralTransitions lists the allowed forward moves for each status.
var referralTransitions = map[ReferralStatus][]ReferralStatus{
	ReferralStatusReceived:  {ReferralStatusContacted, ReferralStatusLost},
	ReferralStatusContacted: {ReferralStatusScheduled, ReferralStatusLost},
	ReferralStatusScheduled: {ReferralStatusCompleted, ReferralStatusLost},
	ReferralStatusCompleted: {},
	ReferralStatusLost:      {},
}

// String implements fmt.Stringer.
func (r ReferralStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReferralStatus.
func (r ReferralStatus) IsValid() bool {
	for _, candidate := range validReferralStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the pipeline allows moving to next.
func (r ReferralStatus) CanTransitionTo(next ReferralStatus) bool {
	for _, candidate := range referralTransitions[r] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseReferralStatus converts raw input into a ReferralStatus.
func ParseReferralStatus(value string) (ReferralStatus, error) {
	for _, candidate := range validReferralStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid referral status %q", value)
}
