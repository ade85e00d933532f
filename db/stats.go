package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tours/entity"
)

const hostStatsColumns = `host_id, total_bookings, confirmed_bookings, cancelled_bookings,
	completed_bookings, revenue, refunded`

type HostStatsRepo struct {
	db *sqlx.DB
}

func NewHostStatsRepo(db *sqlx.DB) HostStatsRepo {
	return HostStatsRepo{
		db: db,
	}
}

// Apply runs fn on the host's stats once per (eventID, handler); redelivered events are skipped.
func (r HostStatsRepo) Apply(ctx context.Context, eventID, handler, hostID string, fn func(s *entity.HostStats)) error {
	return inTx(ctx, r.db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO processed_events (event_id, handler)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, eventID, handler)
		if err != nil {
			return fmt.Errorf("recording processed event: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		} else if n == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO host_stats (host_id) VALUES ($1) ON CONFLICT DO NOTHING", hostID)
		if err != nil {
			return fmt.Errorf("creating host stats: %w", err)
		}

		var s entity.HostStats
		err = tx.GetContext(ctx, &s, "SELECT "+hostStatsColumns+" FROM host_stats WHERE host_id = $1 FOR UPDATE", hostID)
		if err != nil {
			return fmt.Errorf("getting host stats: %w", err)
		}

		fn(&s)

		_, err = tx.ExecContext(ctx, `UPDATE host_stats SET
			total_bookings = $1, confirmed_bookings = $2, cancelled_bookings = $3,
			completed_bookings = $4, revenue = $5, refunded = $6
			WHERE host_id = $7`,
			s.TotalBookings, s.ConfirmedBookings, s.CancelledBookings,
			s.CompletedBookings, s.Revenue, s.Refunded, s.HostID)
		if err != nil {
			return fmt.Errorf("updating host stats: %w", err)
		}
		return nil
	})
}

// ByHost returns zeroed stats for hosts without any bookings yet.
func (r HostStatsRepo) ByHost(ctx context.Context, hostID string) (entity.HostStats, error) {
	var s entity.HostStats
	err := r.db.GetContext(ctx, &s, "SELECT "+hostStatsColumns+" FROM host_stats WHERE host_id = $1", hostID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.HostStats{HostID: hostID, Revenue: decimal.Zero, Refunded: decimal.Zero}, nil
	}
	if err != nil {
		return entity.HostStats{}, fmt.Errorf("getting host stats: %w", err)
	}
	return s, nil
}

type statusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}

func countByColumn(ctx context.Context, db *sqlx.DB, column, table string) ([]statusCount, error) {
	var rows []statusCount
	query := fmt.Sprintf("SELECT %s AS status, COUNT(*) AS count FROM %s GROUP BY %s", column, table, column)
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("counting %s by %s: %w", table, column, err)
	}
	return rows, nil
}

// AdminStats aggregates the whole marketplace straight from the source tables.
func (r HostStatsRepo) AdminStats(ctx context.Context) (entity.AdminStats, error) {
	stats := entity.AdminStats{
		UsersByRole:      map[entity.Role]int{},
		ToursByStatus:    map[entity.TourStatus]int{},
		BookingsByStatus: map[entity.BookingStatus]int{},
	}

	users, err := countByColumn(ctx, r.db, "role", "users")
	if err != nil {
		return entity.AdminStats{}, err
	}
	for _, row := range users {
		stats.UsersByRole[entity.Role(row.Status)] = row.Count
	}

	tours, err := countByColumn(ctx, r.db, "status", "tours")
	if err != nil {
		return entity.AdminStats{}, err
	}
	for _, row := range tours {
		stats.ToursByStatus[entity.TourStatus(row.Status)] = row.Count
	}

	bookings, err := countByColumn(ctx, r.db, "status", "bookings")
	if err != nil {
		return entity.AdminStats{}, err
	}
	for _, row := range bookings {
		stats.BookingsByStatus[entity.BookingStatus(row.Status)] = row.Count
	}

	err = r.db.GetContext(ctx, &stats.PendingReviews, "SELECT COUNT(*) FROM reviews WHERE status = $1", entity.ReviewPending)
	if err != nil {
		return entity.AdminStats{}, fmt.Errorf("counting pending reviews: %w", err)
	}
	err = r.db.GetContext(ctx, &stats.PendingBlogs, "SELECT COUNT(*) FROM blogs WHERE status = $1", entity.BlogPending)
	if err != nil {
		return entity.AdminStats{}, fmt.Errorf("counting pending blogs: %w", err)
	}

	var money struct {
		Gross    decimal.Decimal `db:"gross"`
		Refunded decimal.Decimal `db:"refunded"`
	}
	err = r.db.GetContext(ctx, &money, `SELECT COALESCE(SUM(amount), 0) AS gross, COALESCE(SUM(refund_amount), 0) AS refunded
		FROM payments WHERE kind = $1 AND status IN ($2, $3)`,
		entity.PaymentForBooking, entity.PaymentCompleted, entity.PaymentRefunded)
	if err != nil {
		return entity.AdminStats{}, fmt.Errorf("summing payments: %w", err)
	}
	stats.Refunded = money.Refunded
	stats.Revenue = money.Gross.Sub(money.Refunded)

	return stats, nil
}
