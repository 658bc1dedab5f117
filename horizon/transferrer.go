package horizon

import (
	"fmt"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"github.com/thejustinson/temp-wallet-test/session"
)

var _ session.Transferrer = &Transferrer{}

// Transferrer implements the session's interface for forwarding funds by
// building a native payment from the ephemeral account to the destination,
// signing it with the ephemeral key, and submitting it via Horizon. The
// submission waits for the transaction to be included, so a nil error means
// the transfer is confirmed.
//
// The BaseFee is the fee bid for the forward transaction. It is paid from the
// balance the session withholds as its fee reserve.
type Transferrer struct {
	HorizonClient     horizonclient.ClientInterface
	NetworkPassphrase string
	BaseFee           int64
}

// transferTimeout bounds how long a submitted forward transaction stays
// valid. A transaction that outlives it can never be included, so a
// submission failure is final and safe to re-attempt.
const transferTimeout = 60

// Transfer submits a payment of the given amount from the ephemeral account
// to the destination and returns the hash of the confirmed transaction.
func (t *Transferrer) Transfer(from *keypair.Full, to *keypair.FromAddress, transferAmount int64) (string, error) {
	account, err := t.HorizonClient.AccountDetail(horizonclient.AccountRequest{AccountID: from.Address()})
	if err != nil {
		return "", fmt.Errorf("getting sequence number of %s: %w", from.Address(), buildErr(err))
	}
	seqNum, err := account.GetSequenceNumber()
	if err != nil {
		return "", fmt.Errorf("reading sequence number of %s: %w", from.Address(), err)
	}
	baseFee := t.BaseFee
	if baseFee == 0 {
		baseFee = txnbuild.MinBaseFee
	}
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount: &txnbuild.SimpleAccount{
			AccountID: from.Address(),
			Sequence:  seqNum,
		},
		IncrementSequenceNum: true,
		BaseFee:              baseFee,
		Timebounds:           txnbuild.NewTimeout(transferTimeout),
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: to.Address(),
				Amount:      amount.StringFromInt64(transferAmount),
				Asset:       txnbuild.NativeAsset{},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("building payment tx: %w", err)
	}
	tx, err = tx.Sign(t.NetworkPassphrase, from)
	if err != nil {
		return "", fmt.Errorf("signing payment tx: %w", err)
	}
	txResp, err := t.HorizonClient.SubmitTransaction(tx)
	if err != nil {
		return "", fmt.Errorf("submitting payment tx: %w", buildErr(err))
	}
	return txResp.Hash, nil
}

func buildErr(err error) error {
	if hErr := horizonclient.GetError(err); hErr != nil {
		resultString, rErr := hErr.ResultString()
		if rErr != nil {
			resultString = "<error getting result string: " + rErr.Error() + ">"
		}
		return fmt.Errorf("%w (%v)", err, resultString)
	}
	return err
}
