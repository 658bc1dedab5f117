// Command tempwallet collects a payment at a single-use address and forwards
// it, minus a fee reserve, to a destination address.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/thejustinson/temp-wallet-test/console"
	"github.com/thejustinson/temp-wallet-test/horizon"
	"github.com/thejustinson/temp-wallet-test/session"
	"github.com/thejustinson/temp-wallet-test/sessionhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
}

func run() error {
	showHelp := false
	horizonURL := "https://horizon-testnet.stellar.org"
	destination := ""
	targetAmount := ""
	window := session.DefaultPaymentWindow
	pollInterval := session.DefaultPollInterval
	feeReserve := int64(session.DefaultFeeReserve)
	maxAmountStr := amount.StringFromInt64(session.DefaultMaxAmount)
	httpListen := ""
	verbose := false

	fs := flag.NewFlagSet("tempwallet", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.BoolVar(&showHelp, "h", showHelp, "Show this help")
	fs.StringVar(&horizonURL, "horizon-url", horizonURL, "Horizon URL")
	fs.StringVar(&destination, "destination", destination, "Destination G address to start a session with immediately")
	fs.StringVar(&targetAmount, "amount", targetAmount, "Target amount to start a session with immediately")
	fs.DurationVar(&window, "window", window, "Payment window before a session expires")
	fs.DurationVar(&pollInterval, "poll-interval", pollInterval, "Interval between balance checks")
	fs.Int64Var(&feeReserve, "fee-reserve", feeReserve, "Stroops withheld from the forwarded amount to pay the forward tx")
	fs.StringVar(&maxAmountStr, "max-amount", maxAmountStr, "Largest target amount a session accepts")
	fs.StringVar(&httpListen, "http-listen", httpListen, "Address to serve the session snapshot on over HTTP, disabled if empty")
	fs.BoolVar(&verbose, "v", verbose, "Log session activity to stderr")
	err := fs.Parse(os.Args[1:])
	if err != nil {
		return err
	}
	if showHelp {
		fs.Usage()
		return nil
	}

	maxAmount, err := amount.ParseInt64(maxAmountStr)
	if err != nil {
		return fmt.Errorf("cannot parse -max-amount: %w", err)
	}

	client := &horizonclient.Client{HorizonURL: horizonURL}
	networkDetails, err := client.Root()
	if err != nil {
		return fmt.Errorf("getting network details: %w", err)
	}

	logWriter := io.Writer(io.Discard)
	if verbose {
		logWriter = os.Stderr
	}

	events := make(chan session.Event, 1024)
	sess := session.NewSession(session.Config{
		PaymentWindow: window,
		PollInterval:  pollInterval,
		FeeReserve:    feeReserve,
		MaxAmount:     maxAmount,

		AddressCreator:   horizon.AddressCreator{},
		BalanceCollector: &horizon.BalanceCollector{HorizonClient: client},
		Transferrer: &horizon.Transferrer{
			HorizonClient:     client,
			NetworkPassphrase: networkDetails.NetworkPassphrase,
		},

		LogWriter: logWriter,
		Events:    events,
	})

	presenter := &console.Presenter{
		Session: sess,
		Events:  events,
		In:      os.Stdin,
		Out:     os.Stdout,
	}
	go presenter.RenderEvents()

	if destination != "" || targetAmount != "" {
		err = sess.Start(destination, targetAmount)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := new(errgroup.Group)
	g.Go(func() error {
		defer cancel()
		return presenter.ReadCommands()
	})
	if httpListen != "" {
		srv := &http.Server{Addr: httpListen, Handler: sessionhttp.New(sess)}
		g.Go(func() error {
			err := srv.ListenAndServe()
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
