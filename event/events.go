package event

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"

	"tours/entity"
)

type Header struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewHeader(idempotencyKey string) Header {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	return Header{
		ID:             watermill.NewUUID(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type BookingCreated struct {
	Header    Header       `json:"header"`
	BookingID string       `json:"booking_id"`
	TourID    string       `json:"tour_id"`
	TourTitle string       `json:"tour_title"`
	HostID    string       `json:"host_id"`
	TouristID string       `json:"tourist_id"`
	People    int          `json:"people"`
	StartDate time.Time    `json:"start_date"`
	Amount    entity.Money `json:"amount"`
}

func NewBookingCreated(idempotencyKey string, b entity.Booking, tourTitle string) BookingCreated {
	return BookingCreated{
		Header:    NewHeader(idempotencyKey),
		BookingID: b.ID,
		TourID:    b.TourID,
		TourTitle: tourTitle,
		HostID:    b.HostID,
		TouristID: b.TouristID,
		People:    b.People,
		StartDate: b.StartDate,
		Amount:    b.AmountMoney(),
	}
}

type BookingConfirmed struct {
	Header    Header       `json:"header"`
	BookingID string       `json:"booking_id"`
	TourID    string       `json:"tour_id"`
	HostID    string       `json:"host_id"`
	TouristID string       `json:"tourist_id"`
	People    int          `json:"people"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Amount    entity.Money `json:"amount"`
}

func NewBookingConfirmed(b entity.Booking) BookingConfirmed {
	return BookingConfirmed{
		Header:    NewHeader(""),
		BookingID: b.ID,
		TourID:    b.TourID,
		HostID:    b.HostID,
		TouristID: b.TouristID,
		People:    b.People,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Amount:    b.AmountMoney(),
	}
}

type BookingCancelled struct {
	Header        Header               `json:"header"`
	BookingID     string               `json:"booking_id"`
	TourID        string               `json:"tour_id"`
	HostID        string               `json:"host_id"`
	TouristID     string               `json:"tourist_id"`
	CancelledBy   entity.Role          `json:"cancelled_by"`
	Reason        string               `json:"reason"`
	WasConfirmed  bool                 `json:"was_confirmed"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	Amount        entity.Money         `json:"amount"`
	RefundAmount  entity.Money         `json:"refund_amount"`
}

func NewBookingCancelled(b entity.Booking, wasConfirmed bool) BookingCancelled {
	e := BookingCancelled{
		Header:        NewHeader(""),
		BookingID:     b.ID,
		TourID:        b.TourID,
		HostID:        b.HostID,
		TouristID:     b.TouristID,
		Reason:        b.CancellationReason,
		WasConfirmed:  wasConfirmed,
		PaymentStatus: b.PaymentStatus,
		Amount:        b.AmountMoney(),
		RefundAmount:  entity.NewMoney(b.RefundAmount, b.Currency),
	}
	if b.CancelledBy != nil {
		e.CancelledBy = *b.CancelledBy
	}
	return e
}

type BookingCompleted struct {
	Header    Header       `json:"header"`
	BookingID string       `json:"booking_id"`
	TourID    string       `json:"tour_id"`
	HostID    string       `json:"host_id"`
	TouristID string       `json:"tourist_id"`
	Amount    entity.Money `json:"amount"`
}

func NewBookingCompleted(b entity.Booking) BookingCompleted {
	return BookingCompleted{
		Header:    NewHeader(""),
		BookingID: b.ID,
		TourID:    b.TourID,
		HostID:    b.HostID,
		TouristID: b.TouristID,
		Amount:    b.AmountMoney(),
	}
}

type BookingVoucherGenerated struct {
	Header    Header `json:"header"`
	BookingID string `json:"booking_id"`
	FileID    string `json:"file_id"`
}

func NewBookingVoucherGenerated(idempotencyKey, bookingID, fileID string) BookingVoucherGenerated {
	return BookingVoucherGenerated{
		Header:    NewHeader(idempotencyKey),
		BookingID: bookingID,
		FileID:    fileID,
	}
}
