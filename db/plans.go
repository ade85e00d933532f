package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tours/entity"
)

const planColumns = `plan_id, name, description, price_amount, price_currency, duration_days,
	tour_limit, blog_limit, active, created_at`

type PlanRepo struct {
	db *sqlx.DB
}

func NewPlanRepo(db *sqlx.DB) PlanRepo {
	return PlanRepo{
		db: db,
	}
}

func (r PlanRepo) Add(ctx context.Context, p entity.SubscriptionPlan) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO subscription_plans
		(plan_id, name, description, price_amount, price_currency, duration_days, tour_limit, blog_limit, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		p.ID, p.Name, p.Description, p.Price, p.Currency, p.DurationDays, p.TourLimit, p.BlogLimit, p.Active)
	if isUniqueViolation(err) {
		return fmt.Errorf("plan %s already exists: %w", p.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

func (r PlanRepo) ByID(ctx context.Context, id string) (entity.SubscriptionPlan, error) {
	var p entity.SubscriptionPlan
	err := r.db.GetContext(ctx, &p, "SELECT "+planColumns+" FROM subscription_plans WHERE plan_id = $1", id)
	if err != nil {
		return entity.SubscriptionPlan{}, notFound(err, "plan "+id)
	}
	return p, nil
}

func (r PlanRepo) List(ctx context.Context, activeOnly bool) ([]entity.SubscriptionPlan, error) {
	var c conditions
	c.addIf(activeOnly, "active = ?", true)

	plans := []entity.SubscriptionPlan{}
	query := sqlx.Rebind(sqlx.DOLLAR, "SELECT "+planColumns+" FROM subscription_plans"+c.where()+" ORDER BY price_amount")
	if err := r.db.SelectContext(ctx, &plans, query, c.args...); err != nil {
		return nil, fmt.Errorf("selecting plans: %w", err)
	}
	return plans, nil
}

func (r PlanRepo) Update(ctx context.Context, p entity.SubscriptionPlan) error {
	res, err := r.db.ExecContext(ctx, `UPDATE subscription_plans SET
		name = $1, description = $2, price_amount = $3, price_currency = $4, duration_days = $5,
		tour_limit = $6, blog_limit = $7, active = $8
		WHERE plan_id = $9`,
		p.Name, p.Description, p.Price, p.Currency, p.DurationDays, p.TourLimit, p.BlogLimit, p.Active, p.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("plan %s already exists: %w", p.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}
	return checkAffected(res, "plan "+p.ID)
}

// Delete removes a plan nobody subscribed to. Plans with subscribers should be deactivated.
func (r PlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscription_plans WHERE plan_id = $1", id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("plan %s has subscriptions, deactivate it instead: %w", id, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("executing delete query: %w", err)
	}
	return checkAffected(res, "plan "+id)
}
