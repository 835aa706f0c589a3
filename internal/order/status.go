package order

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusCompleted, StatusCancelled}

var (
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrIllegalTransition = errors.New("order: illegal status transition")
)

// ParseStatus accepts the wire names case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no other status may follow s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string { return string(s) }

// CanTransition: PENDING may move anywhere; a terminal status only accepts
// itself.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from.IsTerminal() {
		return from == to
	}
	return true
}
