package horizon

import (
	"errors"
	"testing"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/support/render/problem"
	"github.com/stellar/go/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddressCreator_createAddress(t *testing.T) {
	creator := AddressCreator{}

	key1, err := creator.CreateAddress()
	require.NoError(t, err)
	key2, err := creator.CreateAddress()
	require.NoError(t, err)

	assert.NotEmpty(t, key1.Address())
	assert.NotEmpty(t, key2.Address())
	assert.NotEqual(t, key1.Address(), key2.Address())
}

func TestBalanceCollector_getBalance(t *testing.T) {
	account := keypair.MustRandom().FromAddress()
	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: account.Address()},
	).Return(horizon.Account{
		AccountID: account.Address(),
		Balances: []horizon.Balance{
			{Balance: "5.0000000", Asset: base.Asset{Type: "credit_alphanum4", Code: "USD"}},
			{Balance: "1.2345000", Asset: base.Asset{Type: "native"}},
		},
	}, nil)

	collector := &BalanceCollector{HorizonClient: client}
	balance, err := collector.GetBalance(account)
	require.NoError(t, err)
	assert.Equal(t, int64(12345000), balance)
}

func TestBalanceCollector_accountNotFoundIsZero(t *testing.T) {
	// The ephemeral account does not exist until the incoming payment
	// creates it, so not found means no funds have arrived yet.
	account := keypair.MustRandom().FromAddress()
	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: account.Address()},
	).Return(horizon.Account{}, &horizonclient.Error{
		Problem: problem.P{
			Type:   "https://stellar.org/horizon-errors/not_found",
			Title:  "Resource Missing",
			Status: 404,
		},
	})

	collector := &BalanceCollector{HorizonClient: client}
	balance, err := collector.GetBalance(account)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestBalanceCollector_transportError(t *testing.T) {
	account := keypair.MustRandom().FromAddress()
	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: account.Address()},
	).Return(horizon.Account{}, errors.New("connection refused"))

	collector := &BalanceCollector{HorizonClient: client}
	_, err := collector.GetBalance(account)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting account details")
}

func TestTransferrer_transfer(t *testing.T) {
	from := keypair.MustRandom()
	to := keypair.MustRandom().FromAddress()

	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: from.Address()},
	).Return(horizon.Account{
		AccountID: from.Address(),
		Sequence:  "41",
	}, nil)
	var submitted *txnbuild.Transaction
	client.On("SubmitTransaction", mock.Anything).Return(horizon.Transaction{
		Hash: "3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889",
	}, nil).Run(func(args mock.Arguments) {
		submitted = args[0].(*txnbuild.Transaction)
	})

	transferrer := &Transferrer{
		HorizonClient:     client,
		NetworkPassphrase: network.TestNetworkPassphrase,
	}
	txID, err := transferrer.Transfer(from, to, 95000)
	require.NoError(t, err)
	assert.Equal(t, "3389e9f0f1a65f19736cacf544c2e825313e8447f569233bb8db39aa607c8889", txID)

	require.NotNil(t, submitted)
	require.Len(t, submitted.Operations(), 1)
	payment := submitted.Operations()[0].(*txnbuild.Payment)
	assert.Equal(t, to.Address(), payment.Destination)
	assert.Equal(t, "0.0095000", payment.Amount)
	assert.Equal(t, txnbuild.NativeAsset{}, payment.Asset)
	assert.Len(t, submitted.Signatures(), 1)
}

func TestTransferrer_submitError(t *testing.T) {
	from := keypair.MustRandom()
	to := keypair.MustRandom().FromAddress()

	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: from.Address()},
	).Return(horizon.Account{
		AccountID: from.Address(),
		Sequence:  "41",
	}, nil)
	client.On("SubmitTransaction", mock.Anything).Return(horizon.Transaction{}, errors.New("tx_insufficient_balance"))

	transferrer := &Transferrer{
		HorizonClient:     client,
		NetworkPassphrase: network.TestNetworkPassphrase,
	}
	_, err := transferrer.Transfer(from, to, 95000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submitting payment tx")
}

func TestTransferrer_sequenceNumberError(t *testing.T) {
	from := keypair.MustRandom()
	to := keypair.MustRandom().FromAddress()

	client := &horizonclient.MockClient{}
	client.On(
		"AccountDetail",
		horizonclient.AccountRequest{AccountID: from.Address()},
	).Return(horizon.Account{}, errors.New("connection refused"))

	transferrer := &Transferrer{
		HorizonClient:     client,
		NetworkPassphrase: network.TestNetworkPassphrase,
	}
	_, err := transferrer.Transfer(from, to, 95000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting sequence number")
}
