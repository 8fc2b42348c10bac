package contentforge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
)

// creditService implements the CreditService interface
type creditService struct {
	client *Client
}

const creditBalanceKey = "credit-balance"

func creditTransactionsKey(limit int) string {
	return fmt.Sprintf("credit-transactions?limit=%d", limit)
}

// Balance retrieves the current credit balance.
func (s *creditService) Balance(ctx context.Context) (*CreditBalance, error) {
	return cachedFetch(ctx, s.client, creditBalanceKey, func(ctx context.Context) (*CreditBalance, error) {
		var balance CreditBalance
		if err := s.client.do(ctx, http.MethodGet, "/credits", nil, nil, &balance); err != nil {
			return nil, errors.Wrap(err, "failed to get credit balance")
		}
		return &balance, nil
	})
}

// Transactions retrieves recent ledger entries.
func (s *creditService) Transactions(ctx context.Context, limit int) ([]*CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	return cachedFetch(ctx, s.client, creditTransactionsKey(limit), func(ctx context.Context) ([]*CreditTransaction, error) {
		query := url.Values{"limit": []string{strconv.Itoa(limit)}}

		var transactions []*CreditTransaction
		if err := s.client.do(ctx, http.MethodGet, "/credits/transactions", query, nil, &transactions); err != nil {
			return nil, errors.Wrap(err, "failed to list credit transactions")
		}
		return transactions, nil
	})
}

// Purchase starts a credit purchase and invalidates the balance and ledger.
func (s *creditService) Purchase(ctx context.Context) error {
	if err := s.client.do(ctx, http.MethodPost, "/credits/purchase", nil, nil, nil); err != nil {
		return errors.Wrap(err, "failed to purchase credits")
	}

	s.client.cache.invalidate(creditBalanceKey)
	s.client.cache.invalidatePrefix("credit-transactions?")
	return nil
}
