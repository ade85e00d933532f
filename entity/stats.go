package entity

import "github.com/shopspring/decimal"

type HostStats struct {
	HostID            string          `json:"host_id" db:"host_id"`
	TotalBookings     int             `json:"total_bookings" db:"total_bookings"`
	ConfirmedBookings int             `json:"confirmed_bookings" db:"confirmed_bookings"`
	CancelledBookings int             `json:"cancelled_bookings" db:"cancelled_bookings"`
	CompletedBookings int             `json:"completed_bookings" db:"completed_bookings"`
	Revenue           decimal.Decimal `json:"revenue" db:"revenue"`
	Refunded          decimal.Decimal `json:"refunded" db:"refunded"`
}

type AdminStats struct {
	UsersByRole      map[Role]int          `json:"users_by_role"`
	ToursByStatus    map[TourStatus]int    `json:"tours_by_status"`
	BookingsByStatus map[BookingStatus]int `json:"bookings_by_status"`
	PendingReviews   int                   `json:"pending_reviews"`
	PendingBlogs     int                   `json:"pending_blogs"`
	Revenue          decimal.Decimal       `json:"revenue"`
	Refunded         decimal.Decimal       `json:"refunded"`
}
