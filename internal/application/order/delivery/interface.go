// Package delivery defines the external fulfillment contract invoked after
// a non-deposit order is paid. The collaborator is assumed idempotent per
// order and reports per-recipient success or failure.
package delivery

import (
	"context"

	"settlo/internal/domain/order"
)

// RecipientResult is the outcome of delivering to a single recipient.
type RecipientResult struct {
	Recipient string
	Success   bool
	Error     string
}

// Deliverer performs the external fulfillment call for a paid order
// (subscription issuance, network-fee transfer, currency swap payout).
type Deliverer interface {
	Deliver(ctx context.Context, o *order.Order) ([]RecipientResult, error)
}

// AllSucceeded reports whether every recipient was delivered.
func AllSucceeded(results []RecipientResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return len(results) > 0
}
