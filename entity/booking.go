package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID                 string          `json:"id" db:"booking_id"`
	TourID             string          `json:"tour_id" db:"tour_id"`
	TouristID          string          `json:"tourist_id" db:"tourist_id"`
	HostID             string          `json:"host_id" db:"host_id"`
	People             int             `json:"people" db:"people"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	EndDate            time.Time       `json:"end_date" db:"end_date"`
	Amount             decimal.Decimal `json:"amount" db:"amount"`
	Currency           string          `json:"currency" db:"currency"`
	Status             BookingStatus   `json:"status" db:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status" db:"payment_status"`
	IdempotencyKey     string          `json:"-" db:"idempotency_key"`
	CancelledBy        *Role           `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	RefundAmount       decimal.Decimal `json:"refund_amount" db:"refund_amount"`
	VoucherFileID      string          `json:"voucher_file_id,omitempty" db:"voucher_file_id"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

func (b Booking) AmountMoney() Money {
	return NewMoney(b.Amount, b.Currency)
}

// TransitionTo moves the booking to status to, rejecting edges the lifecycle does not allow.
func (b *Booking) TransitionTo(to BookingStatus) error {
	if !b.Status.CanTransition(to) {
		return InvalidTransitionError{Kind: "booking", From: string(b.Status), To: string(to)}
	}
	b.Status = to
	return nil
}

func (b Booking) IsParticipant(u User) bool {
	return b.TouristID == u.ID || b.HostID == u.ID
}

// Cancel cancels the booking on behalf of by and records the refund owed.
// The refund is only owed when the booking was already paid for; an open payment is cancelled.
func (b *Booking) Cancel(now time.Time, by Role, reason string) (RefundQuote, error) {
	quote, err := b.RefundQuote(now, by)
	if err != nil {
		return RefundQuote{}, err
	}
	if err := b.TransitionTo(BookingCancelled); err != nil {
		return RefundQuote{}, err
	}

	b.CancelledBy = &by
	b.CancellationReason = reason
	if b.PaymentStatus == PaymentCompleted {
		b.RefundAmount = quote.Amount.Amount
	} else {
		quote.Amount = NewMoney(decimal.Zero, b.Currency)
		b.RefundAmount = decimal.Zero
	}
	if b.PaymentStatus.Open() {
		b.PaymentStatus = PaymentCancelled
	}

	return quote, nil
}

type RefundQuote struct {
	Percent  int   `json:"percent"`
	Amount   Money `json:"amount"`
	DaysLeft int   `json:"days_left"`
}

func (b Booking) RefundQuote(now time.Time, by Role) (RefundQuote, error) {
	days := DaysUntil(now, b.StartDate)
	if by == RoleTourist && days < 0 {
		return RefundQuote{}, ErrBookingStarted
	}

	percent := RefundPercent(days, by)
	return RefundQuote{
		Percent:  percent,
		Amount:   b.AmountMoney().Percent(percent),
		DaysLeft: days,
	}, nil
}

const (
	FullRefundDays = 7
	HalfRefundDays = 3
)

// RefundPercent is the share of the booking amount returned on cancellation.
// Hosts and admins always refund in full.
func RefundPercent(daysLeft int, by Role) int {
	if by != RoleTourist {
		return 100
	}

	switch {
	case daysLeft >= FullRefundDays:
		return 100
	case daysLeft >= HalfRefundDays:
		return 50
	default:
		return 0
	}
}

// DaysUntil counts whole days from now until the start of day start.
// Negative once the start day has begun, including its first instant.
func DaysUntil(now, start time.Time) int {
	d := Date(start).Sub(now.UTC())
	if d <= 0 {
		return -1
	}
	return int(d / (24 * time.Hour))
}

type BookingFilter struct {
	TouristID     string
	HostID        string
	TourID        string
	Status        BookingStatus
	PaymentStatus PaymentStatus
}

// Voucher is what a tourist presents on the first day of the tour.
type Voucher struct {
	BookingID string
	TourID    string
	People    int
	StartDate time.Time
	EndDate   time.Time
	Amount    Money
}
