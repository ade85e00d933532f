package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tours/entity"
)

const subscriptionColumns = `subscription_id, host_id, plan_id, status, starts_at, ends_at, created_at`

type SubscriptionRepo struct {
	db *sqlx.DB
}

func NewSubscriptionRepo(db *sqlx.DB) SubscriptionRepo {
	return SubscriptionRepo{
		db: db,
	}
}

func updateSubscription(ctx context.Context, tx *sqlx.Tx, s entity.Subscription) error {
	_, err := tx.ExecContext(ctx, `UPDATE subscriptions SET status = $1, starts_at = $2, ends_at = $3
		WHERE subscription_id = $4`, s.Status, s.StartsAt, s.EndsAt, s.ID)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	return nil
}

func (r SubscriptionRepo) ByID(ctx context.Context, id string) (entity.Subscription, error) {
	var s entity.Subscription
	err := r.db.GetContext(ctx, &s, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE subscription_id = $1", id)
	if err != nil {
		return entity.Subscription{}, notFound(err, "subscription "+id)
	}
	return s, nil
}

// ActiveForHost returns the host's running subscription and its plan.
func (r SubscriptionRepo) ActiveForHost(ctx context.Context, hostID string, now time.Time) (entity.Subscription, entity.SubscriptionPlan, error) {
	var s entity.Subscription
	err := r.db.GetContext(ctx, &s, "SELECT "+subscriptionColumns+` FROM subscriptions
		WHERE host_id = $1 AND status = $2 AND ends_at > $3
		ORDER BY ends_at DESC LIMIT 1`, hostID, entity.SubscriptionActive, now)
	if err != nil {
		return entity.Subscription{}, entity.SubscriptionPlan{}, notFound(err, "active subscription")
	}

	var p entity.SubscriptionPlan
	err = r.db.GetContext(ctx, &p, "SELECT "+planColumns+" FROM subscription_plans WHERE plan_id = $1", s.PlanID)
	if err != nil {
		return entity.Subscription{}, entity.SubscriptionPlan{}, notFound(err, "plan "+s.PlanID)
	}
	return s, p, nil
}

// Quota resolves what the host may create: the active plan's limits, or free otherwise.
func (r SubscriptionRepo) Quota(ctx context.Context, hostID string, now time.Time, free entity.Quota) (entity.Quota, *entity.Subscription, error) {
	s, p, err := r.ActiveForHost(ctx, hostID, now)
	if errors.Is(err, entity.ErrNotFound) {
		return free, nil, nil
	}
	if err != nil {
		return entity.Quota{}, nil, err
	}
	return p.Quota(), &s, nil
}

func (r SubscriptionRepo) List(ctx context.Context, hostID string, status entity.SubscriptionStatus, page entity.Page) ([]entity.Subscription, int, error) {
	var c conditions
	c.addIf(hostID != "", "host_id = ?", hostID)
	c.addIf(status != "", "status = ?", status)

	return paged[entity.Subscription](ctx, r.db, subscriptionColumns, "subscriptions", c, "created_at DESC", page)
}

// ExpireDue ends active subscriptions whose period is over and returns how many it ended.
func (r SubscriptionRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET status = $1
		WHERE status = $2 AND ends_at <= $3`, entity.SubscriptionExpired, entity.SubscriptionActive, now)
	if err != nil {
		return 0, fmt.Errorf("expiring subscriptions: %w", err)
	}
	return res.RowsAffected()
}

// Cancel stops a subscription that is still pending or active, together with any payment
// for it the provider has not settled yet.
func (r SubscriptionRepo) Cancel(ctx context.Context, id string) error {
	return inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		var s entity.Subscription
		err := tx.GetContext(ctx, &s, "SELECT "+subscriptionColumns+" FROM subscriptions WHERE subscription_id = $1 FOR UPDATE", id)
		if err != nil {
			return notFound(err, "subscription "+id)
		}
		if s.Status != entity.SubscriptionPending && s.Status != entity.SubscriptionActive {
			return entity.InvalidTransitionError{Kind: "subscription", From: string(s.Status), To: string(entity.SubscriptionCancelled)}
		}
		s.Status = entity.SubscriptionCancelled
		if err := updateSubscription(ctx, tx, s); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE payments SET status = $1, updated_at = NOW()
			WHERE kind = $2 AND reference_id = $3 AND status IN ($4, $5)`,
			entity.PaymentCancelled, entity.PaymentForSubscription, s.ID, entity.PaymentPending, entity.PaymentProcessing)
		if err != nil {
			return fmt.Errorf("cancelling open payments: %w", err)
		}
		return nil
	})
}
