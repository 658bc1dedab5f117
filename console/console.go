// Package console is a line-oriented presenter for a payment session. It
// reads start and reset intents from its input, renders every session event
// to its output, and copies the ephemeral address to the clipboard on
// request. Clipboard copies have no effect on the session.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/stellar/go/amount"
	"github.com/thejustinson/temp-wallet-test/session"
)

type Presenter struct {
	Session *session.Session
	Events  <-chan session.Event

	In  io.Reader
	Out io.Writer

	// Copy copies a string to the clipboard. Defaults to the system
	// clipboard.
	Copy func(string) error
}

// RenderEvents renders session events until the events channel is closed.
func (p *Presenter) RenderEvents() {
	for e := range p.Events {
		p.render(e)
	}
}

func (p *Presenter) render(e session.Event) {
	switch e := e.(type) {
	case session.StartedEvent:
		fmt.Fprintf(p.Out, "waiting for %s, send to:\n", amount.StringFromInt64(e.Snapshot.TargetAmount))
		fmt.Fprintf(p.Out, "  %s\n", e.Snapshot.EphemeralAddress)
		fmt.Fprintf(p.Out, "expires in %ds\n", e.Snapshot.RemainingSeconds)
	case session.TickEvent:
		if e.Snapshot.RemainingSeconds%30 == 0 || e.Snapshot.RemainingSeconds <= 10 {
			fmt.Fprintf(p.Out, "%ds remaining\n", e.Snapshot.RemainingSeconds)
		}
	case session.BalanceUpdatedEvent:
		fmt.Fprintf(p.Out, "received %s of %s\n",
			amount.StringFromInt64(e.Snapshot.ObservedBalance),
			amount.StringFromInt64(e.Snapshot.TargetAmount))
	case session.BalanceErrorEvent:
		fmt.Fprintf(p.Out, "note: %v\n", e.Err)
	case session.ForwardingEvent:
		fmt.Fprintf(p.Out, "payment received, forwarding to %s...\n", e.Snapshot.DestinationAddress)
	case session.ForwardedEvent:
		fmt.Fprintf(p.Out, "forwarded, tx %s\n", e.TxID)
		fmt.Fprintf(p.Out, "type 'reset' to start a new payment\n")
	case session.ForwardFailedEvent:
		fmt.Fprintf(p.Out, "error: %v, will retry while time remains\n", e.Err)
	case session.ExpiredEvent:
		fmt.Fprintf(p.Out, "payment window expired\n")
		if e.Snapshot.ObservedBalance > 0 {
			// Funds that arrived but were never forwarded stay at the
			// ephemeral address.
			fmt.Fprintf(p.Out, "warning: %s was received but not forwarded\n",
				amount.StringFromInt64(e.Snapshot.ObservedBalance))
		}
		fmt.Fprintf(p.Out, "type 'reset' to start a new payment\n")
	case session.ResetEvent:
		fmt.Fprintf(p.Out, "session reset\n")
	}
}

// ReadCommands reads intents from the input until EOF or the exit command.
func (p *Presenter) ReadCommands() error {
	fmt.Fprintf(p.Out, "type 'help' for commands\n")
	br := bufio.NewReader(p.In)
	for {
		fmt.Fprintf(p.Out, "> ")
		line, err := br.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		params := strings.Fields(line)
		if len(params) == 0 {
			continue
		}
		switch params[0] {
		case "help":
			fmt.Fprintf(p.Out, "start <destination> <amount> - start collecting a payment\n")
			fmt.Fprintf(p.Out, "reset - discard a finished session\n")
			fmt.Fprintf(p.Out, "status - display the session\n")
			fmt.Fprintf(p.Out, "copy - copy the receiving address to the clipboard\n")
			fmt.Fprintf(p.Out, "exit - exit the application\n")
		case "start":
			if len(params) != 3 {
				fmt.Fprintf(p.Out, "error: start requires <destination> <amount>\n")
				continue
			}
			err := p.Session.Start(params[1], params[2])
			if err != nil {
				fmt.Fprintf(p.Out, "error: %v\n", err)
			}
		case "reset":
			err := p.Session.Reset()
			if err != nil {
				fmt.Fprintf(p.Out, "error: %v\n", err)
			}
		case "status":
			p.printStatus()
		case "copy":
			p.copyAddress()
		case "exit":
			return nil
		default:
			fmt.Fprintf(p.Out, "error: unknown command %q\n", params[0])
		}
	}
}

func (p *Presenter) printStatus() {
	s := p.Session.Snapshot()
	fmt.Fprintf(p.Out, "state: %s\n", s.State)
	if s.State == session.StateSetup {
		return
	}
	fmt.Fprintf(p.Out, "receiving address: %s\n", s.EphemeralAddress)
	fmt.Fprintf(p.Out, "destination: %s\n", s.DestinationAddress)
	fmt.Fprintf(p.Out, "target: %s\n", amount.StringFromInt64(s.TargetAmount))
	fmt.Fprintf(p.Out, "received: %s\n", amount.StringFromInt64(s.ObservedBalance))
	fmt.Fprintf(p.Out, "remaining: %ds\n", s.RemainingSeconds)
	if s.ForwardTxID != "" {
		fmt.Fprintf(p.Out, "forward tx: %s\n", s.ForwardTxID)
	}
	if s.LastError != "" {
		fmt.Fprintf(p.Out, "last error: %s\n", s.LastError)
	}
}

func (p *Presenter) copyAddress() {
	s := p.Session.Snapshot()
	if s.EphemeralAddress == "" {
		fmt.Fprintf(p.Out, "error: no session address to copy\n")
		return
	}
	copyFn := p.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	err := copyFn(s.EphemeralAddress)
	if err != nil {
		fmt.Fprintf(p.Out, "error: copying address: %v\n", err)
		return
	}
	fmt.Fprintf(p.Out, "address copied\n")
}
