package session

// State is the lifecycle state of a payment session.
//
// Transitions are monotonic along the graph below. A session only returns to
// StateSetup by an explicit Reset from a terminal state, which discards the
// session and its key material.
//
//	Setup --start--> Waiting
//	Waiting --balance >= target--> Forwarding
//	Waiting --window elapsed--> Expired
//	Forwarding --transfer confirmed--> Forwarded
//	Forwarding --transfer failed--> Waiting
//	Forwarded, Expired --reset--> Setup
type State int

const (
	// StateSetup is the initial state before a session has been started.
	StateSetup State = iota
	// StateWaiting is the state while polling the ephemeral address for the
	// target amount to arrive.
	StateWaiting
	// StateForwarding is the state while the forward transaction is in
	// flight.
	StateForwarding
	// StateForwarded is the successful terminal state.
	StateForwarded
	// StateExpired is the terminal state reached when the payment window
	// elapses before funds are forwarded.
	StateExpired
)

// Terminal reports whether the state is one the session cannot leave except
// by reset.
func (s State) Terminal() bool {
	return s == StateForwarded || s == StateExpired
}

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateWaiting:
		return "waiting"
	case StateForwarding:
		return "forwarding"
	case StateForwarded:
		return "forwarded"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}
