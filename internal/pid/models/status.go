package models

import "fmt"

// Status is the lifecycle state of a persistent identifier.
type Status string

const (
	StatusNew        Status = "new"
	StatusReserved   Status = "reserved"
	StatusRegistered Status = "registered"
	StatusDeleted    Status = "deleted"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusReserved, StatusRegistered, StatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the local lifecycle:
//
//	new -> reserved -> registered -> deleted
//	new -> registered
//	any -> deleted
//	deleted -> registered (reactivation)
func (s Status) CanTransitionTo(next Status) bool {
	switch next {
	case StatusReserved:
		return s == StatusNew || s == StatusReserved
	case StatusRegistered:
		return s == StatusNew || s == StatusReserved || s == StatusDeleted
	case StatusDeleted:
		return s.IsValid()
	default:
		return false
	}
}

// Code returns the single-letter storage code.
func (s Status) Code() string {
	switch s {
	case StatusNew:
		return "N"
	case StatusReserved:
		return "K"
	case StatusRegistered:
		return "R"
	case StatusDeleted:
		return "D"
	}
	return ""
}

// ParseStatusCode is the inverse of Status.Code.
func ParseStatusCode(code string) (Status, error) {
	switch code {
	case "N":
		return StatusNew, nil
	case "K":
		return StatusReserved, nil
	case "R":
		return StatusRegistered, nil
	case "D":
		return StatusDeleted, nil
	}
	return "", fmt.Errorf("unknown status code %q", code)
}

// ParseStatus accepts the lowercase status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
