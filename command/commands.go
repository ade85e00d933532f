package command

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"tours/entity"
)

type header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func newHeader(idempotencyKey string) header {
	return header{
		ID:             watermill.NewUUID(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

// RefundPayment asks the payment provider to return amount of a completed payment.
type RefundPayment struct {
	Header    header       `json:"header"`
	PaymentID string       `json:"payment_id"`
	BookingID string       `json:"booking_id"`
	HostID    string       `json:"host_id"`
	Amount    entity.Money `json:"amount"`
}

func NewRefundPayment(idempotencyKey, paymentID, bookingID, hostID string, amount entity.Money) RefundPayment {
	return RefundPayment{
		Header:    newHeader(idempotencyKey),
		PaymentID: paymentID,
		BookingID: bookingID,
		HostID:    hostID,
		Amount:    amount,
	}
}

func (c RefundPayment) IdempotencyKey() string {
	return c.Header.IdempotencyKey
}
