package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted:  {PaymentRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Open reports whether a payment in this status may still complete.
func (s PaymentStatus) Open() bool {
	return s == PaymentPending || s == PaymentProcessing
}

type PaymentKind string

const (
	PaymentForBooking      PaymentKind = "BOOKING"
	PaymentForSubscription PaymentKind = "SUBSCRIPTION"
)

type Payment struct {
	ID            string          `json:"id" db:"payment_id"`
	Kind          PaymentKind     `json:"kind" db:"kind"`
	ReferenceID   string          `json:"reference_id" db:"reference_id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      string          `json:"currency" db:"currency"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transaction_id,omitempty" db:"transaction_id"`
	RefundAmount  decimal.Decimal `json:"refund_amount" db:"refund_amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (p Payment) AmountMoney() Money {
	return NewMoney(p.Amount, p.Currency)
}

// Apply moves the payment to status to. Repeating the current status is a no-op so
// provider callbacks can be delivered more than once.
func (p *Payment) Apply(to PaymentStatus) (changed bool, err error) {
	if p.Status == to {
		return false, nil
	}
	if !p.Status.CanTransition(to) {
		return false, InvalidTransitionError{Kind: "payment", From: string(p.Status), To: string(to)}
	}
	p.Status = to
	return true, nil
}

type PaymentFilter struct {
	UserID string
	Kind   PaymentKind
	Status PaymentStatus
}
