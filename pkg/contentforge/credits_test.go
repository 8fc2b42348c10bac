package contentforge

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCredits_Balance(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/credits", mock.Anything, nil, mock.Anything).
		Return(`{"balance":120,"total_used":380}`, nil).Once()

	balance, err := client.Credits.Balance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 120, balance.Balance)
	assert.Equal(t, 380, balance.TotalUsed)

	// Served from cache on the second read.
	_, err = client.Credits.Balance(context.Background())
	require.NoError(t, err)
	mockTransport.AssertNumberOfCalls(t, "Do", 1)
}

func TestCredits_Transactions(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/credits/transactions",
		url.Values{"limit": []string{"25"}}, nil, mock.Anything).
		Return(`[
			{"id":"t-1","amount":-10,"balance_after":120,"type":"generation","tokens_consumed":4200},
			{"id":"t-2","amount":100,"balance_after":130,"type":"purchase","tokens_consumed":null}
		]`, nil).Once()

	transactions, err := client.Credits.Transactions(context.Background(), 25)

	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, -10, transactions[0].Amount)
	require.NotNil(t, transactions[0].TokensConsumed)
	assert.Equal(t, 4200, *transactions[0].TokensConsumed)
	assert.Nil(t, transactions[1].TokensConsumed, "purchases consume no tokens")
	mockTransport.AssertExpectations(t)
}

func TestCredits_PurchaseInvalidatesBalanceAndLedger(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newTestClient(mockTransport)

	mockTransport.On("Do", mock.Anything, http.MethodGet, "/credits", mock.Anything, nil, mock.Anything).
		Return(`{"balance":20}`, nil).Once()
	mockTransport.On("Do", mock.Anything, http.MethodPost, "/credits/purchase", mock.Anything, nil, nil).
		Return(nil, nil).Once()
	mockTransport.On("Do", mock.Anything, http.MethodGet, "/credits", mock.Anything, nil, mock.Anything).
		Return(`{"balance":120}`, nil).Once()

	balance, err := client.Credits.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, balance.Balance)

	require.NoError(t, client.Credits.Purchase(context.Background()))

	balance, err = client.Credits.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, balance.Balance)
	mockTransport.AssertExpectations(t)
}
