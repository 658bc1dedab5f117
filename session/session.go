// Package session implements the lifecycle of a single ephemeral-address
// payment collection: provision a single-use receiving address, poll it for
// an incoming transfer meeting a target amount within a bounded window, and
// on sufficient funds forward them, minus a fee reserve, to a configured
// destination address.
//
// A Session holds one session slot. It is driven by a countdown tick and a
// poll tick consumed by a single goroutine, so a poll is never in flight
// concurrently with another poll or with the countdown. Consumers observe the
// session through the events channel, which receives exactly one event per
// state transition, in order.
package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stellar/go/amount"
	"github.com/stellar/go/keypair"
)

// AddressCreator generates a fresh keypair for use as an ephemeral receiving
// address. Addresses are never reused across sessions.
type AddressCreator interface {
	CreateAddress() (*keypair.Full, error)
}

// BalanceCollector gets the current confirmed balance of an account.
type BalanceCollector interface {
	GetBalance(account *keypair.FromAddress) (int64, error)
}

// Transferrer submits a transfer of the given amount from the ephemeral
// account to the destination and waits for it to be accepted, returning the
// transaction id.
type Transferrer interface {
	Transfer(from *keypair.Full, to *keypair.FromAddress, amount int64) (string, error)
}

// Defaults applied by NewSession for config fields left at their zero value.
const (
	DefaultPaymentWindow = 300 * time.Second
	DefaultPollInterval  = 5 * time.Second
	DefaultFeeReserve    = 5000
	DefaultMaxAmount     = 100_0000000
)

const countdownInterval = time.Second

type Config struct {
	// PaymentWindow is how long a session accepts incoming funds before
	// expiring.
	PaymentWindow time.Duration
	// PollInterval is how often the ephemeral address balance is checked.
	PollInterval time.Duration
	// FeeReserve is withheld from the forwarded amount so the forward
	// transaction itself can be paid for, in stroops.
	FeeReserve int64
	// MaxAmount is the largest target amount a session accepts, in stroops.
	MaxAmount int64

	AddressCreator   AddressCreator
	BalanceCollector BalanceCollector
	Transferrer      Transferrer

	Clock  clock.Clock
	Ticker Ticker

	LogWriter io.Writer

	Events chan<- Event
}

// NewSession constructs an idle session slot in the setup state. Config
// fields left at their zero value take the package defaults. Changing the
// config after construction does not affect a running session.
func NewSession(c Config) *Session {
	if c.PaymentWindow == 0 {
		c.PaymentWindow = DefaultPaymentWindow
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FeeReserve == 0 {
		c.FeeReserve = DefaultFeeReserve
	}
	if c.MaxAmount == 0 {
		c.MaxAmount = DefaultMaxAmount
	}
	if c.Clock == nil {
		c.Clock = clock.NewDefaultClock()
	}
	if c.Ticker == nil {
		c.Ticker = TimeTicker{}
	}
	if c.LogWriter == nil {
		c.LogWriter = io.Discard
	}
	return &Session{
		paymentWindow: c.PaymentWindow,
		pollInterval:  c.PollInterval,
		feeReserve:    c.FeeReserve,
		maxAmount:     c.MaxAmount,

		addressCreator:   c.AddressCreator,
		balanceCollector: c.BalanceCollector,
		transferrer:      c.Transferrer,

		clock:  c.Clock,
		ticker: c.Ticker,

		logWriter: c.LogWriter,

		events: c.Events,

		state: StateSetup,
	}
}

// Session is a single ephemeral-address payment session slot. One session is
// active at a time; a new session may begin only after the previous one
// reaches a terminal state and is reset.
type Session struct {
	paymentWindow time.Duration
	pollInterval  time.Duration
	feeReserve    int64
	maxAmount     int64

	addressCreator   AddressCreator
	balanceCollector BalanceCollector
	transferrer      Transferrer

	clock  clock.Clock
	ticker Ticker

	logWriter io.Writer

	events chan<- Event

	// mu is a lock for the mutable fields of this type. It should be locked
	// when reading or writing any of the mutable fields, which are listed
	// below. It is released around ledger calls, and gen is re-checked after
	// re-acquiring so that the result of a stale call is never applied to a
	// session that has since moved on.
	mu sync.Mutex

	id              uuid.UUID
	ephemeralKey    *keypair.Full
	destination     *keypair.FromAddress
	target          int64
	deadline        time.Time
	observedBalance int64
	state           State
	forwardTxID     string
	lastErr         error

	// gen is incremented on every start and reset, fencing off results of
	// ledger calls that were in flight for a previous session.
	gen uint64

	pollC           <-chan time.Time
	countdownC      <-chan time.Time
	cancelPoll      func()
	cancelCountdown func()
	done            chan struct{}
}

// Snapshot is an immutable view of the session, pushed inside every event and
// available on demand for display.
type Snapshot struct {
	ID                 string
	State              State
	ObservedBalance    int64
	TargetAmount       int64
	RemainingSeconds   int64
	DestinationAddress string
	EphemeralAddress   string
	ForwardTxID        string
	LastError          string
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:           s.state,
		ObservedBalance: s.observedBalance,
		TargetAmount:    s.target,
		ForwardTxID:     s.forwardTxID,
	}
	if s.id != uuid.Nil {
		snapshot.ID = s.id.String()
	}
	if s.destination != nil {
		snapshot.DestinationAddress = s.destination.Address()
	}
	if s.ephemeralKey != nil {
		snapshot.EphemeralAddress = s.ephemeralKey.Address()
	}
	if s.state == StateWaiting || s.state == StateForwarding {
		remaining := s.deadline.Sub(s.clock.Now())
		if remaining > 0 {
			snapshot.RemainingSeconds = int64(remaining / time.Second)
		}
	}
	if s.lastErr != nil {
		snapshot.LastError = s.lastErr.Error()
	}
	return snapshot
}

// Start validates the destination address and target amount, and on success
// provisions a fresh ephemeral address, arms the countdown and poll signals,
// and moves the session to the waiting state. The target amount is a decimal
// string in whole units, e.g. "0.01".
//
// On a validation failure Start returns a *ValidationError scoped to the
// field that failed, no address is generated, and the session stays in the
// setup state.
func (s *Session) Start(destination string, targetAmount string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSetup {
		return ErrSessionActive
	}

	dest, err := keypair.ParseAddress(destination)
	if err != nil {
		return &ValidationError{Field: "destination", Reason: ReasonInvalidAddress, Err: err}
	}
	target, err := amount.ParseInt64(targetAmount)
	if err != nil {
		return &ValidationError{Field: "amount", Reason: ReasonInvalidAmount, Err: err}
	}
	if target <= 0 || target > s.maxAmount {
		return &ValidationError{
			Field:  "amount",
			Reason: ReasonInvalidAmount,
			Err:    fmt.Errorf("amount %s not in (0, %s]", amount.StringFromInt64(target), amount.StringFromInt64(s.maxAmount)),
		}
	}

	key, err := s.addressCreator.CreateAddress()
	if err != nil {
		return fmt.Errorf("creating ephemeral address: %w", err)
	}

	s.id = uuid.New()
	s.ephemeralKey = key
	s.destination = dest
	s.target = target
	s.deadline = s.clock.Now().Add(s.paymentWindow)
	s.observedBalance = 0
	s.forwardTxID = ""
	s.lastErr = nil
	s.state = StateWaiting
	s.gen++
	s.armLocked()
	s.done = make(chan struct{})
	go s.run(s.gen, s.done)

	fmt.Fprintf(s.logWriter, "session %s: waiting on %s for %s, window %s\n",
		s.id, key.Address(), amount.StringFromInt64(target), s.paymentWindow)
	s.emit(StartedEvent{Snapshot: s.snapshotLocked()})
	return nil
}

// Reset discards a terminal session, including its key material, and returns
// the slot to the setup state ready for a new start. Reset fails with
// ErrNotResettable if the session is not forwarded or expired.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Terminal() {
		return ErrNotResettable
	}

	s.gen++
	s.stopLocked()
	s.discardKeyLocked()
	fmt.Fprintf(s.logWriter, "session %s: reset from %s\n", s.id, s.state)
	s.id = uuid.Nil
	s.destination = nil
	s.target = 0
	s.deadline = time.Time{}
	s.observedBalance = 0
	s.forwardTxID = ""
	s.lastErr = nil
	s.state = StateSetup
	s.emit(ResetEvent{Snapshot: s.snapshotLocked()})
	return nil
}

// armLocked starts the countdown and poll signals. Must be called with mu
// held and the session in the waiting state.
func (s *Session) armLocked() {
	s.pollC, s.cancelPoll = s.ticker.Tick(s.pollInterval)
	s.countdownC, s.cancelCountdown = s.ticker.Tick(countdownInterval)
}

// disarmLocked cancels both signals. Must be called with mu held. It is a
// no-op if the signals are not armed.
func (s *Session) disarmLocked() {
	if s.cancelPoll != nil {
		s.cancelPoll()
		s.cancelPoll = nil
	}
	if s.cancelCountdown != nil {
		s.cancelCountdown()
		s.cancelCountdown = nil
	}
	s.pollC = nil
	s.countdownC = nil
}

// stopLocked cancels both signals and stops the run goroutine. Must be called
// with mu held, on every transition into a terminal state and on reset.
func (s *Session) stopLocked() {
	s.disarmLocked()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

// discardKeyLocked irrecoverably drops the ephemeral private key material.
// Must be called with mu held. Called on every transition into a terminal
// state and on reset; the key is never retained past the session lifetime and
// never written to the log.
func (s *Session) discardKeyLocked() {
	s.ephemeralKey = nil
}

// run consumes the countdown and poll signals until the session reaches a
// terminal state or is reset. A single goroutine consumes both, which
// serializes polls with each other and with countdown handling; while this
// goroutine is inside a poll's forward attempt no tick can be handled. The
// signal channels are re-read every iteration because a failed forward
// re-arms them.
func (s *Session) run(gen uint64, done <-chan struct{}) {
	for {
		s.mu.Lock()
		pollC, countdownC := s.pollC, s.countdownC
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-countdownC:
			s.tickCountdown(gen)
		case <-pollC:
			s.poll(gen)
		}
	}
}

// tickCountdown handles one countdown second: it expires the session if the
// payment window has elapsed, and otherwise reports the remaining time.
func (s *Session) tickCountdown(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StateWaiting {
		return
	}
	if !s.clock.Now().Before(s.deadline) {
		s.stopLocked()
		s.discardKeyLocked()
		s.state = StateExpired
		fmt.Fprintf(s.logWriter, "session %s: expired with balance %s\n",
			s.id, amount.StringFromInt64(s.observedBalance))
		s.emit(ExpiredEvent{Snapshot: s.snapshotLocked()})
		return
	}
	s.emit(TickEvent{Snapshot: s.snapshotLocked()})
}

// poll handles one poll tick: it checks the balance of the ephemeral address
// and forwards the funds if the balance meets the target amount.
func (s *Session) poll(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.state != StateWaiting {
		s.mu.Unlock()
		return
	}
	account := s.ephemeralKey.FromAddress()
	s.mu.Unlock()

	balance, err := s.balanceCollector.GetBalance(account)

	s.mu.Lock()
	if s.gen != gen || s.state != StateWaiting {
		// The session moved on while the balance check was in flight.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.lastErr = &NetworkError{Err: err}
		fmt.Fprintf(s.logWriter, "session %s: %v, retrying on next poll\n", s.id, s.lastErr)
		s.emit(BalanceErrorEvent{Err: s.lastErr, Snapshot: s.snapshotLocked()})
		s.mu.Unlock()
		return
	}
	if balance != s.observedBalance {
		s.observedBalance = balance
		if balance < s.target {
			s.emit(BalanceUpdatedEvent{Snapshot: s.snapshotLocked()})
		}
	}
	if balance < s.target {
		s.mu.Unlock()
		return
	}

	forwardAmount := balance - s.feeReserve
	if forwardAmount <= 0 {
		s.lastErr = &TransferError{Err: fmt.Errorf(
			"balance %s does not cover fee reserve %s",
			amount.StringFromInt64(balance), amount.StringFromInt64(s.feeReserve))}
		fmt.Fprintf(s.logWriter, "session %s: %v\n", s.id, s.lastErr)
		s.emit(ForwardFailedEvent{Err: s.lastErr, Snapshot: s.snapshotLocked()})
		s.mu.Unlock()
		return
	}

	// Threshold met. The balance at the decision instant determines the
	// forwarded amount, and both signals stop before the transfer goes out so
	// no second poll can race it.
	s.disarmLocked()
	s.lastErr = nil
	s.state = StateForwarding
	fmt.Fprintf(s.logWriter, "session %s: balance %s meets target %s, forwarding %s to %s\n",
		s.id, amount.StringFromInt64(balance), amount.StringFromInt64(s.target),
		amount.StringFromInt64(forwardAmount), s.destination.Address())
	s.emit(ForwardingEvent{Snapshot: s.snapshotLocked()})
	key := s.ephemeralKey
	dest := s.destination
	s.mu.Unlock()

	txID, err := s.transferrer.Transfer(key, dest, forwardAmount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	if err != nil {
		s.lastErr = &TransferError{Err: err}
		s.state = StateWaiting
		s.armLocked()
		fmt.Fprintf(s.logWriter, "session %s: %v, returning to waiting\n", s.id, s.lastErr)
		s.emit(ForwardFailedEvent{Err: s.lastErr, Snapshot: s.snapshotLocked()})
		return
	}
	s.forwardTxID = txID
	s.lastErr = nil
	s.stopLocked()
	s.discardKeyLocked()
	s.state = StateForwarded
	fmt.Fprintf(s.logWriter, "session %s: forwarded %s in tx %s\n",
		s.id, amount.StringFromInt64(forwardAmount), txID)
	s.emit(ForwardedEvent{TxID: txID, Snapshot: s.snapshotLocked()})
}

func (s *Session) emit(e Event) {
	if s.events != nil {
		s.events <- e
	}
}
