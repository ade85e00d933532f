package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tours/entity"
	"tours/event"
)

const bookingColumns = `booking_id, tour_id, tourist_id, host_id, people, start_date, end_date,
	amount, currency, status, payment_status, idempotency_key, cancelled_by, cancellation_reason,
	refund_amount, voucher_file_id, created_at, updated_at`

type BookingRepo struct {
	db     *sqlx.DB
	outbox Outbox
}

func NewBookingRepo(db *sqlx.DB, outbox Outbox) BookingRepo {
	return BookingRepo{
		db:     db,
		outbox: outbox,
	}
}

// Add books seats on a departure of tour. A repeated idempotency key returns the
// booking stored the first time.
func (r BookingRepo) Add(ctx context.Context, tour entity.Tour, booking entity.Booking) (entity.Booking, error) {
	var stored entity.Booking
	err := inTx(ctx, r.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var err error
		stored, err = r.add(ctx, tx, tour, booking)
		return err
	})
	if err != nil {
		return entity.Booking{}, err
	}
	return stored, nil
}

func (r BookingRepo) add(ctx context.Context, tx *sqlx.Tx, tour entity.Tour, booking entity.Booking) (entity.Booking, error) {
	var existing entity.Booking
	err := tx.GetContext(ctx, &existing, "SELECT "+bookingColumns+" FROM bookings WHERE idempotency_key = $1", booking.IdempotencyKey)
	if err == nil {
		if existing.TouristID != booking.TouristID {
			return entity.Booking{}, fmt.Errorf("idempotency key reused by another tourist: %w", entity.ErrConflict)
		}
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return entity.Booking{}, fmt.Errorf("looking up idempotency key: %w", err)
	}

	var seatsBooked int
	err = tx.GetContext(ctx, &seatsBooked, `SELECT COALESCE(SUM(people), 0)
		FROM bookings WHERE tour_id = $1 AND start_date = $2 AND status <> $3`,
		booking.TourID, booking.StartDate, entity.BookingCancelled)
	if err != nil {
		return entity.Booking{}, fmt.Errorf("counting seats booked: %w", err)
	}

	seatsAvailable := tour.MaxGroupSize - seatsBooked
	if booking.People > seatsAvailable {
		return entity.Booking{}, entity.NotEnoughSeatsError{
			SeatsAvailable: max(seatsAvailable, 0),
			SeatsRequested: booking.People,
		}
	}

	err = tx.GetContext(ctx, &booking, `INSERT INTO bookings
		(booking_id, tour_id, tourist_id, host_id, people, start_date, end_date,
		amount, currency, status, payment_status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+bookingColumns,
		booking.ID, booking.TourID, booking.TouristID, booking.HostID, booking.People,
		booking.StartDate, booking.EndDate, booking.Amount, booking.Currency,
		booking.Status, booking.PaymentStatus, booking.IdempotencyKey)
	if err != nil {
		return entity.Booking{}, fmt.Errorf("inserting booking: %w", err)
	}

	e := event.NewBookingCreated(booking.IdempotencyKey, booking, tour.Title)
	if err := r.outbox.PublishInTx(ctx, tx.Tx, e); err != nil {
		return entity.Booking{}, fmt.Errorf("publishing event in transaction: %w", err)
	}

	return booking, nil
}

func (r BookingRepo) ByID(ctx context.Context, id string) (entity.Booking, error) {
	var b entity.Booking
	err := r.db.GetContext(ctx, &b, "SELECT "+bookingColumns+" FROM bookings WHERE booking_id = $1", id)
	if err != nil {
		return entity.Booking{}, notFound(err, "booking "+id)
	}
	return b, nil
}

func (r BookingRepo) List(ctx context.Context, f entity.BookingFilter, page entity.Page) ([]entity.Booking, int, error) {
	var c conditions
	c.addIf(f.TouristID != "", "tourist_id = ?", f.TouristID)
	c.addIf(f.HostID != "", "host_id = ?", f.HostID)
	c.addIf(f.TourID != "", "tour_id = ?", f.TourID)
	c.addIf(f.Status != "", "status = ?", f.Status)
	c.addIf(f.PaymentStatus != "", "payment_status = ?", f.PaymentStatus)

	return paged[entity.Booking](ctx, r.db, bookingColumns, "bookings", c, "created_at DESC", page)
}

// Update locks the booking, lets fn change it and stores the result together with the
// events fn returns. Open payments of a cancelled booking are cancelled as well.
func (r BookingRepo) Update(
	ctx context.Context,
	id string,
	fn func(b *entity.Booking) ([]any, error),
) (entity.Booking, error) {
	var b entity.Booking
	err := inTx(ctx, r.db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &b, "SELECT "+bookingColumns+" FROM bookings WHERE booking_id = $1 FOR UPDATE", id)
		if err != nil {
			return notFound(err, "booking "+id)
		}

		events, err := fn(&b)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE bookings SET
			status = $1, payment_status = $2, cancelled_by = $3, cancellation_reason = $4,
			refund_amount = $5, updated_at = NOW()
			WHERE booking_id = $6`,
			b.Status, b.PaymentStatus, b.CancelledBy, b.CancellationReason, b.RefundAmount, b.ID)
		if err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}

		if b.Status == entity.BookingCancelled {
			_, err = tx.ExecContext(ctx, `UPDATE payments SET status = $1, updated_at = NOW()
				WHERE kind = $2 AND reference_id = $3 AND status IN ($4, $5)`,
				entity.PaymentCancelled, entity.PaymentForBooking, b.ID, entity.PaymentPending, entity.PaymentProcessing)
			if err != nil {
				return fmt.Errorf("cancelling open payments: %w", err)
			}
		}

		if len(events) == 0 {
			return nil
		}
		return r.outbox.PublishInTx(ctx, tx.Tx, events...)
	})
	if err != nil {
		return entity.Booking{}, err
	}
	return b, nil
}

// SetVoucher stores the voucher file; repeating it with the same file is harmless.
func (r BookingRepo) SetVoucher(ctx context.Context, id, fileID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET voucher_file_id = $1, updated_at = NOW()
		WHERE booking_id = $2`, fileID, id)
	if err != nil {
		return fmt.Errorf("setting voucher: %w", err)
	}
	return checkAffected(res, "booking "+id)
}

// DueForCompletion lists confirmed bookings whose last day is over.
func (r BookingRepo) DueForCompletion(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT booking_id FROM bookings
		WHERE status = $1 AND end_date < $2 ORDER BY end_date`,
		entity.BookingConfirmed, entity.Date(now))
	if err != nil {
		return nil, fmt.Errorf("selecting bookings due for completion: %w", err)
	}
	return ids, nil
}
