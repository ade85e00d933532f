package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tours/entity"
	"tours/event"
)

const reviewColumns = `review_id, tour_id, booking_id, tourist_id, rating, comment, status, created_at`

type ReviewRepo struct {
	db     *sqlx.DB
	outbox Outbox
}

func NewReviewRepo(db *sqlx.DB, outbox Outbox) ReviewRepo {
	return ReviewRepo{
		db:     db,
		outbox: outbox,
	}
}

func (r ReviewRepo) Add(ctx context.Context, rv entity.Review) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO reviews
		(review_id, tour_id, booking_id, tourist_id, rating, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		rv.ID, rv.TourID, rv.BookingID, rv.TouristID, rv.Rating, rv.Comment, rv.Status)
	if isUniqueViolation(err) {
		return fmt.Errorf("booking %s already reviewed: %w", rv.BookingID, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

func (r ReviewRepo) ByID(ctx context.Context, id string) (entity.Review, error) {
	var rv entity.Review
	err := r.db.GetContext(ctx, &rv, "SELECT "+reviewColumns+" FROM reviews WHERE review_id = $1", id)
	if err != nil {
		return entity.Review{}, notFound(err, "review "+id)
	}
	return rv, nil
}

func (r ReviewRepo) List(ctx context.Context, f entity.ReviewFilter, page entity.Page) ([]entity.Review, int, error) {
	var c conditions
	c.addIf(f.TourID != "", "tour_id = ?", f.TourID)
	c.addIf(f.TouristID != "", "tourist_id = ?", f.TouristID)
	c.addIf(f.Status != "", "status = ?", f.Status)

	return paged[entity.Review](ctx, r.db, reviewColumns, "reviews", c, "created_at DESC", page)
}

// UpdateStatus moderates a review. Approving or un-approving changes the tour rating.
func (r ReviewRepo) UpdateStatus(ctx context.Context, id string, status entity.ReviewStatus) (entity.Review, error) {
	var rv entity.Review
	err := inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &rv, "SELECT "+reviewColumns+" FROM reviews WHERE review_id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, "review "+id)
		}
		if rv.Status == status {
			return nil
		}

		previous := rv.Status
		rv.Status = status
		if _, err := tx.ExecContext(ctx, "UPDATE reviews SET status = $1 WHERE review_id = $2", status, id); err != nil {
			return fmt.Errorf("updating review status: %w", err)
		}

		switch {
		case status == entity.ReviewApproved:
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewReviewApproved(rv.ID, rv.TourID, rv.Rating))
		case previous == entity.ReviewApproved:
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewReviewRemoved(rv.ID, rv.TourID))
		}
		return nil
	})
	if err != nil {
		return entity.Review{}, err
	}
	return rv, nil
}

func (r ReviewRepo) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		var rv entity.Review
		err := tx.GetContext(ctx, &rv, "DELETE FROM reviews WHERE review_id = $1 RETURNING "+reviewColumns, id)
		if err != nil {
			return notFound(err, "review "+id)
		}

		if rv.Status == entity.ReviewApproved {
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewReviewRemoved(rv.ID, rv.TourID))
		}
		return nil
	})
}

// RatingForTour averages the approved reviews of a tour.
func (r ReviewRepo) RatingForTour(ctx context.Context, tourID string) (decimal.Decimal, int, error) {
	var row struct {
		Average decimal.Decimal `db:"average"`
		Count   int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS average, COUNT(*) AS count
		FROM reviews WHERE tour_id = $1 AND status = $2`, tourID, entity.ReviewApproved)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("computing tour rating: %w", err)
	}
	return row.Average, row.Count, nil
}
