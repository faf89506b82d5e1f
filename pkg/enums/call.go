package enums

import "fmt"

// CallDirection distinguishes inbound from outbound calls.
type CallDirection string

const (
	CallDirectionInbound  CallDirection = "inbound"
	CallDirectionOutbound CallDirection = "outbound"
)

var validCallDirections = []CallDirection{
	CallDirectionInbound,
	CallDirectionOutbound,
}

// String implements fmt.Stringer.
func (c CallDirection) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CallDirection.
func (c CallDirection) IsValid() bool {
	for _, candidate := range validCallDirections {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCallDirection converts raw input into a CallDirection.
func ParseCallDirection(value string) (CallDirection, error) {
	for _, candidate := range validCallDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid call direction %q", value)
}

// CallOutcome records how a tracked call resolved.
type CallOutcome string

const (
	CallOutcomeAnswered  CallOutcome = "answered"
	CallOutcomeMissed    CallOutcome = "missed"
	CallOutcomeVoicemail CallOutcome = "voicemail"
	CallOutcomeBooked    CallOutcome = "booked"
)

var validCallOutcomes = []CallOutcome{
	CallOutcomeAnswered,
	CallOutcomeMissed,
	CallOutcomeVoicemail,
	CallOutcomeBooked,
}

// String implements fmt.Stringer.
func (c CallOutcome) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CallOutcome.
func (c CallOutcome) IsValid() bool {
	for _, candidate := range validCallOutcomes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCallOutcome converts raw input into a CallOutcome.
func ParseCallOutcome(value string) (CallOutcome, error) {
	for _, candidate := range validCallOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid call outcome %q", value)
}
