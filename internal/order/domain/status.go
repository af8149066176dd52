package domain

import "strings"

// Status is an order's fulfilment state.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPaymentPending Status = "payment_pending"
	StatusInProgress     Status = "in_progress"
	StatusShipped        Status = "shipped"
	StatusDispatched     Status = "dispatched"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
)

var knownStatuses = map[Status]struct{}{
	StatusPending:        {},
	StatusPaymentPending: {},
	StatusInProgress:     {},
	StatusShipped:        {},
	StatusDispatched:     {},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusRefunded:       {},
}

// forward lists the happy-path successors of each status.
var forward = map[Status][]Status{
	StatusPending:        {StatusPaymentPending},
	StatusPaymentPending: {StatusInProgress},
	StatusInProgress:     {StatusShipped, StatusDispatched},
	StatusShipped:        {StatusCompleted},
	StatusDispatched:     {StatusCompleted},
}

// ParseStatus normalizes raw and reports whether it names a known status.
// Hyphens are accepted in place of underscores, so "payment-pending" parses
// as StatusPaymentPending.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	_, ok := knownStatuses[s]
	return s, ok
}

func (s Status) Valid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Terminal statuses have no further expected transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// OnPath reports whether from -> to is an expected transition. Cancelling or
// refunding is expected from any non-terminal status.
func OnPath(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled || to == StatusRefunded {
		return true
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the expected successors of s.
func (s Status) Next() []Status {
	if s.Terminal() || !s.Valid() {
		return nil
	}
	out := append([]Status(nil), forward[s]...)
	return append(out, StatusCancelled, StatusRefunded)
}
