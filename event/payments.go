package event

import (
	"time"

	"tours/entity"
)

type PaymentCompleted struct {
	Header      Header             `json:"header"`
	PaymentID   string             `json:"payment_id"`
	Kind        entity.PaymentKind `json:"kind"`
	ReferenceID string             `json:"reference_id"`
	UserID      string             `json:"user_id"`
	HostID      string             `json:"host_id"`
	Amount      entity.Money       `json:"amount"`
}

// NewPaymentCompleted is published for a settled payment; hostID is the host who earns it
// for bookings and the subscriber for subscriptions.
func NewPaymentCompleted(p entity.Payment, hostID string) PaymentCompleted {
	return PaymentCompleted{
		Header:      NewHeader(""),
		PaymentID:   p.ID,
		Kind:        p.Kind,
		ReferenceID: p.ReferenceID,
		UserID:      p.UserID,
		HostID:      hostID,
		Amount:      p.AmountMoney(),
	}
}

type PaymentFailed struct {
	Header      Header               `json:"header"`
	PaymentID   string               `json:"payment_id"`
	Kind        entity.PaymentKind   `json:"kind"`
	ReferenceID string               `json:"reference_id"`
	UserID      string               `json:"user_id"`
	Status      entity.PaymentStatus `json:"status"`
}

func NewPaymentFailed(p entity.Payment) PaymentFailed {
	return PaymentFailed{
		Header:      NewHeader(""),
		PaymentID:   p.ID,
		Kind:        p.Kind,
		ReferenceID: p.ReferenceID,
		UserID:      p.UserID,
		Status:      p.Status,
	}
}

type PaymentRefunded struct {
	Header       Header       `json:"header"`
	PaymentID    string       `json:"payment_id"`
	BookingID    string       `json:"booking_id"`
	HostID       string       `json:"host_id"`
	RefundAmount entity.Money `json:"refund_amount"`
}

func NewPaymentRefunded(idempotencyKey string, p entity.Payment, hostID string) PaymentRefunded {
	return PaymentRefunded{
		Header:       NewHeader(idempotencyKey),
		PaymentID:    p.ID,
		BookingID:    p.ReferenceID,
		HostID:       hostID,
		RefundAmount: entity.NewMoney(p.RefundAmount, p.Currency),
	}
}

type SubscriptionActivated struct {
	Header         Header    `json:"header"`
	SubscriptionID string    `json:"subscription_id"`
	HostID         string    `json:"host_id"`
	PlanID         string    `json:"plan_id"`
	EndsAt         time.Time `json:"ends_at"`
}

func NewSubscriptionActivated(s entity.Subscription) SubscriptionActivated {
	e := SubscriptionActivated{
		Header:         NewHeader(""),
		SubscriptionID: s.ID,
		HostID:         s.HostID,
		PlanID:         s.PlanID,
	}
	if s.EndsAt != nil {
		e.EndsAt = *s.EndsAt
	}
	return e
}
