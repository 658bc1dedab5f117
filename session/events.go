package session

// Event is a notification pushed to the events channel. Every state
// transition pushes exactly one event, in the order the transitions occur.
// TickEvent, BalanceUpdatedEvent, and BalanceErrorEvent are advisory and do
// not correspond to a transition.
type Event interface{}

// StartedEvent occurs when a session has been started and is waiting for
// funds to arrive at the ephemeral address.
type StartedEvent struct {
	Snapshot Snapshot
}

// TickEvent occurs once per countdown second while the session is waiting.
type TickEvent struct {
	Snapshot Snapshot
}

// BalanceUpdatedEvent occurs when a poll observes a balance different from
// the last observed balance, but still below the target amount.
type BalanceUpdatedEvent struct {
	Snapshot Snapshot
}

// BalanceErrorEvent occurs when a poll fails to query the balance. The
// failure is transient and the poll is retried on the next tick.
type BalanceErrorEvent struct {
	Err      error
	Snapshot Snapshot
}

// ForwardingEvent occurs when the observed balance meets the target amount
// and the session begins forwarding funds to the destination address.
type ForwardingEvent struct {
	Snapshot Snapshot
}

// ForwardedEvent occurs when the forward transaction has been confirmed and
// the session has reached its successful terminal state.
type ForwardedEvent struct {
	TxID     string
	Snapshot Snapshot
}

// ForwardFailedEvent occurs when a forward attempt fails and the session
// reverts to waiting. The payment window is not extended, so a session that
// repeatedly fails to forward can still expire.
type ForwardFailedEvent struct {
	Err      error
	Snapshot Snapshot
}

// ExpiredEvent occurs when the payment window elapses before funds are
// forwarded. Any balance received but never forwarded remains at the
// ephemeral address; the session does not recover it.
type ExpiredEvent struct {
	Snapshot Snapshot
}

// ResetEvent occurs when a terminal session is discarded and the slot is
// ready for a new start.
type ResetEvent struct {
	Snapshot Snapshot
}
