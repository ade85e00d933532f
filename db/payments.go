package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tours/entity"
	"tours/event"
)

const paymentColumns = `payment_id, kind, reference_id, user_id, amount, currency, status,
	transaction_id, refund_amount, created_at, updated_at`

type PaymentRepo struct {
	db     *sqlx.DB
	outbox Outbox
	now    func() time.Time
}

func NewPaymentRepo(db *sqlx.DB, outbox Outbox) PaymentRepo {
	return PaymentRepo{
		db:     db,
		outbox: outbox,
		now:    time.Now,
	}
}

func insertPayment(ctx context.Context, tx *sqlx.Tx, p entity.Payment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO payments
		(payment_id, kind, reference_id, user_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		p.ID, p.Kind, p.ReferenceID, p.UserID, p.Amount, p.Currency, p.Status)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

// AddForBooking starts paying for a pending booking. Only one payment may be open or
// completed per booking.
func (r PaymentRepo) AddForBooking(ctx context.Context, p entity.Payment) error {
	return inTx(ctx, r.db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		var b entity.Booking
		err := tx.GetContext(ctx, &b, "SELECT "+bookingColumns+" FROM bookings WHERE booking_id = $1 FOR UPDATE", p.ReferenceID)
		if err != nil {
			return notFound(err, "booking "+p.ReferenceID)
		}
		if b.Status != entity.BookingPending {
			return fmt.Errorf("booking is %s: %w", b.Status, entity.ErrConflict)
		}

		var active int
		err = tx.GetContext(ctx, &active, `SELECT COUNT(*) FROM payments
			WHERE kind = $1 AND reference_id = $2 AND status IN ($3, $4, $5)`,
			entity.PaymentForBooking, b.ID, entity.PaymentPending, entity.PaymentProcessing, entity.PaymentCompleted)
		if err != nil {
			return fmt.Errorf("counting booking payments: %w", err)
		}
		if active > 0 {
			return fmt.Errorf("booking %s already has a payment in progress: %w", b.ID, entity.ErrConflict)
		}

		if err := insertPayment(ctx, tx, p); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, "UPDATE bookings SET payment_status = $1, updated_at = NOW() WHERE booking_id = $2", p.Status, b.ID)
		if err != nil {
			return fmt.Errorf("updating booking payment status: %w", err)
		}
		return nil
	})
}

// AddForSubscription stores a pending subscription with the payment that activates it.
func (r PaymentRepo) AddForSubscription(ctx context.Context, s entity.Subscription, p entity.Payment) error {
	return inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO subscriptions
			(subscription_id, host_id, plan_id, status)
			VALUES ($1, $2, $3, $4);`,
			s.ID, s.HostID, s.PlanID, s.Status)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("plan %s: %w", s.PlanID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("inserting subscription: %w", err)
		}

		return insertPayment(ctx, tx, p)
	})
}

func (r PaymentRepo) ByID(ctx context.Context, id string) (entity.Payment, error) {
	var p entity.Payment
	err := r.db.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE payment_id = $1", id)
	if err != nil {
		return entity.Payment{}, notFound(err, "payment "+id)
	}
	return p, nil
}

// LatestByReference returns the newest payment for a booking or subscription.
func (r PaymentRepo) LatestByReference(ctx context.Context, kind entity.PaymentKind, referenceID string) (entity.Payment, error) {
	var p entity.Payment
	err := r.db.GetContext(ctx, &p, "SELECT "+paymentColumns+` FROM payments
		WHERE kind = $1 AND reference_id = $2 ORDER BY created_at DESC LIMIT 1`, kind, referenceID)
	if err != nil {
		return entity.Payment{}, notFound(err, "payment for "+referenceID)
	}
	return p, nil
}

func (r PaymentRepo) List(ctx context.Context, f entity.PaymentFilter, page entity.Page) ([]entity.Payment, int, error) {
	var c conditions
	c.addIf(f.UserID != "", "user_id = ?", f.UserID)
	c.addIf(f.Kind != "", "kind = ?", f.Kind)
	c.addIf(f.Status != "", "status = ?", f.Status)

	return paged[entity.Payment](ctx, r.db, paymentColumns, "payments", c, "created_at DESC", page)
}

// ApplyStatus records a status reported by the payment provider and moves whatever the
// payment was for along with it. Repeated callbacks report changed == false.
func (r PaymentRepo) ApplyStatus(ctx context.Context, id string, status entity.PaymentStatus, transactionID string) (p entity.Payment, changed bool, err error) {
	err = inTx(ctx, r.db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE payment_id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, "payment "+id)
		}

		changed, err = p.Apply(status)
		if err != nil || !changed {
			return err
		}
		if transactionID != "" {
			p.TransactionID = transactionID
		}

		_, err = tx.ExecContext(ctx, `UPDATE payments SET status = $1, transaction_id = $2, updated_at = NOW()
			WHERE payment_id = $3`, p.Status, p.TransactionID, p.ID)
		if err != nil {
			return fmt.Errorf("updating payment: %w", err)
		}

		var events []any
		switch p.Kind {
		case entity.PaymentForBooking:
			events, err = r.applyToBooking(ctx, tx, p)
		case entity.PaymentForSubscription:
			events, err = r.applyToSubscription(ctx, tx, p)
		}
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		return r.outbox.PublishInTx(ctx, tx.Tx, events...)
	})
	if err != nil {
		return entity.Payment{}, false, err
	}
	return p, changed, nil
}

func (r PaymentRepo) applyToBooking(ctx context.Context, tx *sqlx.Tx, p entity.Payment) ([]any, error) {
	var b entity.Booking
	err := tx.GetContext(ctx, &b, "SELECT "+bookingColumns+" FROM bookings WHERE booking_id = $1 FOR UPDATE", p.ReferenceID)
	if err != nil {
		return nil, notFound(err, "booking "+p.ReferenceID)
	}

	var events []any
	b.PaymentStatus = p.Status
	switch p.Status {
	case entity.PaymentCompleted:
		events = append(events, event.NewPaymentCompleted(p, b.HostID))
		// An admin may have confirmed the booking before the money arrived.
		if b.Status != entity.BookingConfirmed {
			if err := b.TransitionTo(entity.BookingConfirmed); err != nil {
				return nil, err
			}
			events = append(events, event.NewBookingConfirmed(b))
		}
	case entity.PaymentFailed, entity.PaymentCancelled:
		events = append(events, event.NewPaymentFailed(p))
	}

	_, err = tx.ExecContext(ctx, `UPDATE bookings SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE booking_id = $3`, b.Status, b.PaymentStatus, b.ID)
	if err != nil {
		return nil, fmt.Errorf("updating booking: %w", err)
	}
	return events, nil
}

func (r PaymentRepo) applyToSubscription(ctx context.Context, tx *sqlx.Tx, p entity.Payment) ([]any, error) {
	var s entity.Subscription
	err := tx.GetContext(ctx, &s, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE subscription_id = $1 FOR UPDATE", p.ReferenceID)
	if err != nil {
		return nil, notFound(err, "subscription "+p.ReferenceID)
	}

	switch p.Status {
	case entity.PaymentCompleted:
		var durationDays int
		err := tx.GetContext(ctx, &durationDays, "SELECT duration_days FROM subscription_plans WHERE plan_id = $1", s.PlanID)
		if err != nil {
			return nil, notFound(err, "plan "+s.PlanID)
		}
		if err := s.Activate(r.now(), durationDays); err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `UPDATE subscriptions SET status = $1
			WHERE host_id = $2 AND status = $3 AND subscription_id <> $4`,
			entity.SubscriptionCancelled, s.HostID, entity.SubscriptionActive, s.ID)
		if err != nil {
			return nil, fmt.Errorf("replacing active subscription: %w", err)
		}
		if err := updateSubscription(ctx, tx, s); err != nil {
			return nil, err
		}
		return []any{event.NewPaymentCompleted(p, s.HostID), event.NewSubscriptionActivated(s)}, nil

	case entity.PaymentFailed, entity.PaymentCancelled:
		if s.Status == entity.SubscriptionPending {
			s.Status = entity.SubscriptionCancelled
			if err := updateSubscription(ctx, tx, s); err != nil {
				return nil, err
			}
		}
		return []any{event.NewPaymentFailed(p)}, nil
	}

	return nil, nil
}

// MarkRefunded records a refund the provider accepted. Refunding twice is a no-op.
func (r PaymentRepo) MarkRefunded(ctx context.Context, id string, amount decimal.Decimal, idempotencyKey, hostID string) error {
	return inTx(ctx, r.db, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		var p entity.Payment
		if err := tx.GetContext(ctx, &p, "SELECT "+paymentColumns+" FROM payments WHERE payment_id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, "payment "+id)
		}

		changed, err := p.Apply(entity.PaymentRefunded)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		if amount.GreaterThan(p.Amount) {
			return entity.NewValidationError(fmt.Sprintf("refund %s exceeds payment %s", amount, p.Amount))
		}
		p.RefundAmount = amount

		_, err = tx.ExecContext(ctx, `UPDATE payments SET status = $1, refund_amount = $2, updated_at = NOW()
			WHERE payment_id = $3`, p.Status, p.RefundAmount, p.ID)
		if err != nil {
			return fmt.Errorf("updating payment: %w", err)
		}

		if p.Kind == entity.PaymentForBooking {
			_, err = tx.ExecContext(ctx, "UPDATE bookings SET payment_status = $1, updated_at = NOW() WHERE booking_id = $2",
				entity.PaymentRefunded, p.ReferenceID)
			if err != nil {
				return fmt.Errorf("updating booking payment status: %w", err)
			}
		}

		return r.outbox.PublishInTx(ctx, tx.Tx, event.NewPaymentRefunded(idempotencyKey, p, hostID))
	})
}
