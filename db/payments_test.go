package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/db"
	"tours/entity"
	"tours/event"
)

func TestPaymentRepo_ApplyStatus_booking_confirmed_by_admin(t *testing.T) {
	ctx := context.Background()
	host := addUser(t, entity.RoleHost)
	tourist := addUser(t, entity.RoleTourist)
	tour := addTour(t, host.ID, 10)

	outbox := &recordingOutbox{}
	bookings := db.NewBookingRepo(testDB, outbox)
	payments := db.NewPaymentRepo(testDB, outbox)

	b, err := bookings.Add(ctx, tour, newBooking(tour, tourist.ID, 2, time.Now().AddDate(0, 0, 20)))
	require.NoError(t, err)

	paymentID := uuid.NewString()
	require.NoError(t, payments.AddForBooking(ctx, entity.Payment{
		ID:          paymentID,
		Kind:        entity.PaymentForBooking,
		ReferenceID: b.ID,
		UserID:      tourist.ID,
		Amount:      b.Amount,
		Currency:    b.Currency,
		Status:      entity.PaymentPending,
	}))
	_, _, err = payments.ApplyStatus(ctx, paymentID, entity.PaymentProcessing, "")
	require.NoError(t, err)

	_, err = bookings.Update(ctx, b.ID, func(b *entity.Booking) ([]any, error) {
		if err := b.TransitionTo(entity.BookingConfirmed); err != nil {
			return nil, err
		}
		return []any{event.NewBookingConfirmed(*b)}, nil
	})
	require.NoError(t, err)

	p, changed, err := payments.ApplyStatus(ctx, paymentID, entity.PaymentCompleted, "tx-late")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, entity.PaymentCompleted, p.Status)

	stored, err := bookings.ByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingConfirmed, stored.Status)
	assert.Equal(t, entity.PaymentCompleted, stored.PaymentStatus)

	var confirmations int
	var paid *event.PaymentCompleted
	for _, e := range outbox.published() {
		switch e := e.(type) {
		case event.BookingConfirmed:
			if e.BookingID == b.ID {
				confirmations++
			}
		case event.PaymentCompleted:
			if e.PaymentID == paymentID {
				paid = &e
			}
		}
	}
	assert.Equal(t, 1, confirmations, "the booking is confirmed once")
	require.NotNil(t, paid)
	assert.Equal(t, host.ID, paid.HostID)
}

func TestSubscriptionRepo_Cancel_cancels_open_payment(t *testing.T) {
	ctx := context.Background()
	host := addUser(t, entity.RoleHost)

	plan := entity.SubscriptionPlan{
		ID:           uuid.NewString(),
		Name:         "Pro " + uuid.NewString(),
		Price:        decimal.RequireFromString("49.00"),
		Currency:     "EUR",
		DurationDays: 30,
		TourLimit:    10,
		Active:       true,
	}
	require.NoError(t, db.NewPlanRepo(testDB).Add(ctx, plan))

	payments := db.NewPaymentRepo(testDB, &recordingOutbox{})
	subscriptions := db.NewSubscriptionRepo(testDB)

	sub := entity.Subscription{
		ID:     uuid.NewString(),
		HostID: host.ID,
		PlanID: plan.ID,
		Status: entity.SubscriptionPending,
	}
	paymentID := uuid.NewString()
	require.NoError(t, payments.AddForSubscription(ctx, sub, entity.Payment{
		ID:          paymentID,
		Kind:        entity.PaymentForSubscription,
		ReferenceID: sub.ID,
		UserID:      host.ID,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      entity.PaymentPending,
	}))

	require.NoError(t, subscriptions.Cancel(ctx, sub.ID))

	stored, err := subscriptions.ByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionCancelled, stored.Status)

	p, err := payments.ByID(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentCancelled, p.Status)

	t.Run("repeated cancellation callback is acknowledged", func(t *testing.T) {
		_, changed, err := payments.ApplyStatus(ctx, paymentID, entity.PaymentCancelled, "")
		require.NoError(t, err)
		assert.False(t, changed)
	})
}
