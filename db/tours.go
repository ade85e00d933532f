package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tours/entity"
	"tours/event"
)

const tourColumns = `tour_id, host_id, destination_id, title, description, price_amount, price_currency,
	duration_days, max_group_size, available_from, available_to, itinerary, included, excluded,
	status, rating_average, rating_count, created_at, updated_at`

var tourSorts = map[string]string{
	"":           "created_at DESC",
	"newest":     "created_at DESC",
	"price_asc":  "price_amount ASC",
	"price_desc": "price_amount DESC",
	"rating":     "rating_average DESC, rating_count DESC",
	"title":      "title ASC",
}

type TourRepo struct {
	db     *sqlx.DB
	outbox Outbox
}

func NewTourRepo(db *sqlx.DB, outbox Outbox) TourRepo {
	return TourRepo{
		db:     db,
		outbox: outbox,
	}
}

// Add stores a new tour unless the host has used up quota.
func (r TourRepo) Add(ctx context.Context, t entity.Tour, quota entity.Quota) error {
	return inTx(ctx, r.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		used, err := countActiveTours(ctx, tx, t.HostID)
		if err != nil {
			return err
		}
		if !quota.AllowsTour(used) {
			return fmt.Errorf("host has %d of %d tours: %w", used, quota.Tours, entity.ErrQuotaExceeded)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO tours
			(tour_id, host_id, destination_id, title, description, price_amount, price_currency,
			duration_days, max_group_size, available_from, available_to, itinerary, included, excluded, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
			t.ID, t.HostID, t.DestinationID, t.Title, t.Description, t.Price, t.Currency,
			t.DurationDays, t.MaxGroupSize, t.AvailableFrom, t.AvailableTo, t.Itinerary, t.Included, t.Excluded, t.Status)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("destination %s: %w", t.DestinationID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("inserting tour: %w", err)
		}

		if t.Status == entity.TourPublished {
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewTourPublished(t.ID, t.HostID))
		}
		return nil
	})
}

func countActiveTours(ctx context.Context, q sqlx.QueryerContext, hostID string) (int, error) {
	var used int
	err := sqlx.GetContext(ctx, q, &used, `SELECT COUNT(*) FROM tours
		WHERE host_id = $1 AND status <> $2`, hostID, entity.TourArchived)
	if err != nil {
		return 0, fmt.Errorf("counting host tours: %w", err)
	}
	return used, nil
}

func (r TourRepo) CountActiveByHost(ctx context.Context, hostID string) (int, error) {
	return countActiveTours(ctx, r.db, hostID)
}

func (r TourRepo) ByID(ctx context.Context, id string) (entity.Tour, error) {
	var t entity.Tour
	err := r.db.GetContext(ctx, &t, "SELECT "+tourColumns+" FROM tours WHERE tour_id = $1", id)
	if err != nil {
		return entity.Tour{}, notFound(err, "tour "+id)
	}
	return t, nil
}

func (r TourRepo) List(ctx context.Context, f entity.TourFilter, page entity.Page) ([]entity.Tour, int, error) {
	var c conditions
	c.addIf(f.DestinationID != "", "destination_id = ?", f.DestinationID)
	c.addIf(f.HostID != "", "host_id = ?", f.HostID)
	c.addIf(f.Status != "", "status = ?", f.Status)
	c.addIf(f.MinPrice != nil, "price_amount >= ?", f.MinPrice)
	c.addIf(f.MaxPrice != nil, "price_amount <= ?", f.MaxPrice)
	if f.Query != "" {
		q := "%" + f.Query + "%"
		c.add("(title ILIKE ? OR description ILIKE ?)", q, q)
	}
	if len(f.IDs) > 0 {
		query, args, err := sqlx.In("tour_id IN (?)", f.IDs)
		if err != nil {
			return nil, 0, fmt.Errorf("expanding tour ids: %w", err)
		}
		c.add(query, args...)
	}

	orderBy, ok := tourSorts[f.Sort]
	if !ok {
		return nil, 0, entity.NewValidationError("unknown sort " + f.Sort)
	}

	return paged[entity.Tour](ctx, r.db, tourColumns, "tours", c, orderBy, page)
}

// Update overwrites the editable fields of a tour.
func (r TourRepo) Update(ctx context.Context, t entity.Tour) error {
	return inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE tours SET
			destination_id = $1, title = $2, description = $3, price_amount = $4, price_currency = $5,
			duration_days = $6, max_group_size = $7, available_from = $8, available_to = $9,
			itinerary = $10, included = $11, excluded = $12, updated_at = NOW()
			WHERE tour_id = $13`,
			t.DestinationID, t.Title, t.Description, t.Price, t.Currency,
			t.DurationDays, t.MaxGroupSize, t.AvailableFrom, t.AvailableTo,
			t.Itinerary, t.Included, t.Excluded, t.ID)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("destination %s: %w", t.DestinationID, entity.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("updating tour: %w", err)
		}
		if err := checkAffected(res, "tour "+t.ID); err != nil {
			return err
		}

		if t.Status == entity.TourPublished {
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewTourUpdated(t.ID))
		}
		return nil
	})
}

// UpdateStatus moves a tour between draft, published and archived.
// Reactivating an archived tour counts against quota again.
func (r TourRepo) UpdateStatus(ctx context.Context, id string, status entity.TourStatus, quota entity.Quota) (entity.Tour, error) {
	var t entity.Tour
	err := inTx(ctx, r.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &t, "SELECT "+tourColumns+" FROM tours WHERE tour_id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, "tour "+id)
		}
		if t.Status == status {
			return nil
		}

		if t.Status == entity.TourArchived {
			used, err := countActiveTours(ctx, tx, t.HostID)
			if err != nil {
				return err
			}
			if !quota.AllowsTour(used) {
				return fmt.Errorf("host has %d of %d tours: %w", used, quota.Tours, entity.ErrQuotaExceeded)
			}
		}

		previous := t.Status
		t.Status = status
		if _, err := tx.ExecContext(ctx, "UPDATE tours SET status = $1, updated_at = NOW() WHERE tour_id = $2", status, id); err != nil {
			return fmt.Errorf("updating tour status: %w", err)
		}

		switch {
		case status == entity.TourPublished:
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewTourPublished(t.ID, t.HostID))
		case previous == entity.TourPublished:
			return r.outbox.PublishInTx(ctx, tx.Tx, event.NewTourWithdrawn(t.ID))
		}
		return nil
	})
	if err != nil {
		return entity.Tour{}, err
	}
	return t, nil
}

// Delete removes a tour nobody has booked. A tour whose bookings are all cancelled or
// completed is archived instead so their history keeps pointing at it.
func (r TourRepo) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var status entity.TourStatus
		if err := tx.GetContext(ctx, &status, "SELECT status FROM tours WHERE tour_id = $1 FOR UPDATE", id); err != nil {
			return notFound(err, "tour "+id)
		}

		var counts struct {
			Active int `db:"active"`
			Total  int `db:"total"`
		}
		err := tx.GetContext(ctx, &counts, `SELECT
			COUNT(*) FILTER (WHERE status IN ($2, $3)) AS active,
			COUNT(*) AS total
			FROM bookings WHERE tour_id = $1`, id, entity.BookingPending, entity.BookingConfirmed)
		if err != nil {
			return fmt.Errorf("counting tour bookings: %w", err)
		}
		if counts.Active > 0 {
			return fmt.Errorf("tour %s has %d active bookings: %w", id, counts.Active, entity.ErrConflict)
		}

		if counts.Total > 0 {
			if status == entity.TourArchived {
				return nil
			}
			_, err = tx.ExecContext(ctx, "UPDATE tours SET status = $1, updated_at = NOW() WHERE tour_id = $2", entity.TourArchived, id)
			if err != nil {
				return fmt.Errorf("archiving tour: %w", err)
			}
		} else {
			_, err = tx.ExecContext(ctx, "DELETE FROM tours WHERE tour_id = $1", id)
			if isForeignKeyViolation(err) {
				return fmt.Errorf("tour %s is still referenced: %w", id, entity.ErrConflict)
			}
			if err != nil {
				return fmt.Errorf("executing delete query: %w", err)
			}
		}

		return r.outbox.PublishInTx(ctx, tx.Tx, event.NewTourWithdrawn(id))
	})
}

// RefreshRating recomputes the average over approved reviews.
func (r TourRepo) RefreshRating(ctx context.Context, tourID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tours SET
		rating_average = COALESCE((SELECT ROUND(AVG(rating)::numeric, 2) FROM reviews WHERE tour_id = $1 AND status = $2), 0),
		rating_count = (SELECT COUNT(*) FROM reviews WHERE tour_id = $1 AND status = $2)
		WHERE tour_id = $1`, tourID, entity.ReviewApproved)
	if err != nil {
		return fmt.Errorf("refreshing tour rating: %w", err)
	}
	return nil
}
