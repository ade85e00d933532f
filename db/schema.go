package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var tables = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		user_id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		telegram_chat_id BIGINT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"destinations", `CREATE TABLE IF NOT EXISTS destinations (
		destination_id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		country VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"tours", `CREATE TABLE IF NOT EXISTS tours (
		tour_id UUID PRIMARY KEY,
		host_id UUID NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		destination_id UUID NOT NULL REFERENCES destinations (destination_id),
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_amount NUMERIC(10, 2) NOT NULL,
		price_currency CHAR(3) NOT NULL,
		duration_days INTEGER NOT NULL,
		max_group_size INTEGER NOT NULL,
		available_from DATE NOT NULL,
		available_to DATE NOT NULL,
		itinerary JSONB NOT NULL DEFAULT '[]',
		included JSONB NOT NULL DEFAULT '[]',
		excluded JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(16) NOT NULL,
		rating_average NUMERIC(3, 2) NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
		booking_id UUID PRIMARY KEY,
		tour_id UUID NOT NULL REFERENCES tours (tour_id),
		tourist_id UUID NOT NULL REFERENCES users (user_id),
		host_id UUID NOT NULL REFERENCES users (user_id),
		people INTEGER NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		amount NUMERIC(10, 2) NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		payment_status VARCHAR(16) NOT NULL,
		idempotency_key VARCHAR(255) NOT NULL UNIQUE,
		cancelled_by VARCHAR(16),
		cancellation_reason TEXT NOT NULL DEFAULT '',
		refund_amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
		voucher_file_id VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"payments", `CREATE TABLE IF NOT EXISTS payments (
		payment_id UUID PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		reference_id UUID NOT NULL,
		user_id UUID NOT NULL REFERENCES users (user_id),
		amount NUMERIC(10, 2) NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL,
		transaction_id VARCHAR(255) NOT NULL DEFAULT '',
		refund_amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"reviews", `CREATE TABLE IF NOT EXISTS reviews (
		review_id UUID PRIMARY KEY,
		tour_id UUID NOT NULL REFERENCES tours (tour_id) ON DELETE CASCADE,
		booking_id UUID NOT NULL UNIQUE REFERENCES bookings (booking_id),
		tourist_id UUID NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"blogs", `CREATE TABLE IF NOT EXISTS blogs (
		blog_id UUID PRIMARY KEY,
		author_id UUID NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		destination_id UUID REFERENCES destinations (destination_id) ON DELETE SET NULL,
		title VARCHAR(255) NOT NULL,
		content TEXT NOT NULL,
		cover_image TEXT NOT NULL DEFAULT '',
		tags JSONB NOT NULL DEFAULT '[]',
		status VARCHAR(16) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"subscription_plans", `CREATE TABLE IF NOT EXISTS subscription_plans (
		plan_id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price_amount NUMERIC(10, 2) NOT NULL,
		price_currency CHAR(3) NOT NULL,
		duration_days INTEGER NOT NULL,
		tour_limit INTEGER NOT NULL,
		blog_limit INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"subscriptions", `CREATE TABLE IF NOT EXISTS subscriptions (
		subscription_id UUID PRIMARY KEY,
		host_id UUID NOT NULL REFERENCES users (user_id) ON DELETE CASCADE,
		plan_id UUID NOT NULL REFERENCES subscription_plans (plan_id),
		status VARCHAR(16) NOT NULL,
		starts_at TIMESTAMP WITH TIME ZONE,
		ends_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);`},
	{"host_stats", `CREATE TABLE IF NOT EXISTS host_stats (
		host_id UUID PRIMARY KEY,
		total_bookings INTEGER NOT NULL DEFAULT 0,
		confirmed_bookings INTEGER NOT NULL DEFAULT 0,
		cancelled_bookings INTEGER NOT NULL DEFAULT 0,
		completed_bookings INTEGER NOT NULL DEFAULT 0,
		revenue NUMERIC(12, 2) NOT NULL DEFAULT 0,
		refunded NUMERIC(12, 2) NOT NULL DEFAULT 0
	);`},
	{"processed_events", `CREATE TABLE IF NOT EXISTS processed_events (
		event_id VARCHAR(255) NOT NULL,
		handler VARCHAR(255) NOT NULL,
		processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		PRIMARY KEY (event_id, handler)
	);`},
}

func InitialiseDB(ctx context.Context, db *sqlx.DB) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.name, err)
		}
	}

	return nil
}
