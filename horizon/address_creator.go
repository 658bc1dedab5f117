// Package horizon provides implementations of the session's ledger
// interfaces backed by the Stellar network, via Horizon's API.
package horizon

import (
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/thejustinson/temp-wallet-test/session"
)

var _ session.AddressCreator = AddressCreator{}

// AddressCreator implements the session's interface for provisioning
// ephemeral receiving addresses by generating a random keypair. Generation is
// local; the account exists on the network once the incoming payment creates
// it.
type AddressCreator struct{}

// CreateAddress generates a fresh keypair.
func (AddressCreator) CreateAddress() (*keypair.Full, error) {
	key, err := keypair.Random()
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	return key, nil
}
