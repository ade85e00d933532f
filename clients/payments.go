package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/clients"
	"github.com/ThreeDotsLabs/go-event-driven/common/clients/payments"

	"tours/entity"
)

type PaymentsClient struct {
	client payments.ClientWithResponsesInterface
}

func NewPaymentsClient(c *clients.Clients) PaymentsClient {
	return PaymentsClient{
		client: c.Payments,
	}
}

// RefundPayment asks the provider to return amount. The idempotency key makes retries safe.
func (c PaymentsClient) RefundPayment(ctx context.Context, idempotencyKey, paymentID string, amount entity.Money) error {
	res, err := c.client.PutRefundsWithResponse(ctx, payments.PaymentRefundRequest{
		PaymentReference: paymentID,
		Reason:           fmt.Sprintf("booking cancelled, refund %s %s", amount.Amount.StringFixed(2), amount.Currency),
		DeduplicationId:  &idempotencyKey,
	})
	if err != nil {
		return fmt.Errorf("put refund request: %w", err)
	}

	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", res.StatusCode())
	}

	return nil
}
