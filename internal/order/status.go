package order

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// happyPath is the forward order of non-cancelled statuses.
var happyPath = []Status{
	StatusRequested,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusCompleted,
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) rank() int {
	for i, st := range happyPath {
		if st == s {
			return i
		}
	}
	return -1
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// ParseStatuses parses a list of status names, e.g. the values of a
// comma-separated query parameter. Blank entries are skipped.
func ParseStatuses(names []string) ([]Status, error) {
	statuses := make([]Status, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		st, err := ParseStatus(name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Transition is a requested status change as submitted by a vendor or admin.
type Transition struct {
	Status     string
	EtaMinutes *int
	VendorNote *string
}

type Policy int

const (
	// PolicyLenient lets a non-terminal order move to any status.
	PolicyLenient Policy = iota
	// PolicyStrict allows only forward moves along the happy path, steps may
	// be skipped, plus cancellation from any non-terminal status.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}

// Validate checks t against the current status and returns the target
// status. Checks run in a fixed order: the target name, then terminal
// state, then the ETA, then the policy.
func (p Policy) Validate(current Status, t Transition) (Status, error) {
	target, err := ParseStatus(t.Status)
	if err != nil {
		return "", err
	}

	if current.IsTerminal() {
		return "", fmt.Errorf("%w: order is %s", ErrOrderAlreadyTerminal, current)
	}

	if t.EtaMinutes != nil && *t.EtaMinutes <= 0 {
		return "", fmt.Errorf("%w: must be a positive number of minutes", ErrInvalidEta)
	}
	if current == StatusRequested && target == StatusConfirmed && t.EtaMinutes == nil {
		return "", fmt.Errorf("%w: required when confirming an order", ErrInvalidEta)
	}

	if p == PolicyStrict && target != StatusCancelled && target.rank() < current.rank() {
		return "", fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
	}

	return target, nil
}
