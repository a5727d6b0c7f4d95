package orders

import "errors"

// Status is the closed order lifecycle enumeration.
type Status string

const (
	StatusNew        Status = "new"
	StatusCooking    Status = "cooking"
	StatusReady      Status = "ready"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"

	// Explicit regressions. They are transient: applying one re-enters the
	// status it names, which is also what gets persisted.
	StatusReturnToNew     Status = "return_to_new"
	StatusReturnToCooking Status = "return_to_cooking"
)

var (
	// ErrTerminalStatus is returned for any transition out of completed or
	// cancelled.
	ErrTerminalStatus = errors.New("orders: order is in a terminal status")

	// ErrInvalidTransition is returned when the target status is not
	// reachable from the current one.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
)

// Canonical resolves the transient regression aliases to the status they
// re-enter. All other statuses map to themselves.
func (s Status) Canonical() Status {
	switch s {
	case StatusReturnToNew:
		return StatusNew
	case StatusReturnToCooking:
		return StatusCooking
	}
	return s
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusCooking, StatusReady, StatusDelivering,
		StatusCompleted, StatusCancelled, StatusReturnToNew, StatusReturnToCooking:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusNew:        {StatusCooking, StatusCancelled},
	StatusCooking:    {StatusReady, StatusCancelled, StatusReturnToNew},
	StatusReady:      {StatusDelivering, StatusCompleted, StatusCancelled, StatusReturnToCooking},
	StatusDelivering: {StatusCompleted, StatusCancelled},
}

// Transition validates a status change and returns the canonical status to
// persist. Terminal states reject everything; regressions resolve to the
// status they re-enter.
func Transition(from, to Status) (Status, error) {
	if from.Terminal() {
		return "", ErrTerminalStatus
	}
	for _, allowed := range transitions[from.Canonical()] {
		if allowed == to {
			return to.Canonical(), nil
		}
	}
	return "", ErrInvalidTransition
}
