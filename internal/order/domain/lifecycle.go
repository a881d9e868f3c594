package domain

import "slices"

// Forward skips are allowed; every non-terminal state may be cancelled.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from current to target.
// Staying in the same state is always allowed and treated as a no-op.
func CanTransition(current, target Status) bool {
	if current == target {
		return true
	}
	return slices.Contains(statusTransitions[current], target)
}

func (p PaymentStatus) Valid() bool {
	return p == PaymentStatusUnpaid || p == PaymentStatusPaid
}

// CanTransitionPayment only allows unpaid -> paid.
func CanTransitionPayment(current, target PaymentStatus) bool {
	if current == target {
		return true
	}
	return current == PaymentStatusUnpaid && target == PaymentStatusPaid
}
