package chat

import "errors"

var (
	// ErrInvalidMessage rejects a malformed send payload. The event is
	// dropped with no persisted record and no broadcast.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrForbidden rejects a join for a user who is not a participant of
	// the order.
	ErrForbidden = errors.New("not a participant of this order")

	// ErrOrderNotFound rejects a join for an order that does not exist.
	ErrOrderNotFound = errors.New("order not found")
)
