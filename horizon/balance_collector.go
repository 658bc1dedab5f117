package horizon

import (
	"fmt"

	"github.com/stellar/go/amount"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/thejustinson/temp-wallet-test/session"
)

var _ session.BalanceCollector = &BalanceCollector{}

// BalanceCollector implements the session's interface for collecting
// balances by querying Horizon's accounts endpoint for the native balance.
type BalanceCollector struct {
	HorizonClient horizonclient.ClientInterface
}

// GetBalance queries Horizon for the native balance of the given account. An
// account that does not exist yet has received no funds, so not found is
// reported as a zero balance rather than an error.
func (h *BalanceCollector) GetBalance(accountID *keypair.FromAddress) (int64, error) {
	account, err := h.HorizonClient.AccountDetail(horizonclient.AccountRequest{AccountID: accountID.Address()})
	if horizonclient.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting account details of %s: %w", accountID.Address(), err)
	}
	for _, b := range account.Balances {
		if b.Asset.Type != "native" {
			continue
		}
		balance, err := amount.ParseInt64(b.Balance)
		if err != nil {
			return 0, fmt.Errorf("parsing native balance of %s: %w", accountID.Address(), err)
		}
		return balance, nil
	}
	return 0, nil
}
