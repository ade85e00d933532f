package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TourStatus string

const (
	TourDraft     TourStatus = "DRAFT"
	TourPublished TourStatus = "PUBLISHED"
	TourArchived  TourStatus = "ARCHIVED"
)

func (s TourStatus) Valid() bool {
	switch s {
	case TourDraft, TourPublished, TourArchived:
		return true
	}
	return false
}

type ItineraryDay struct {
	Day         int        `json:"day"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Activities  StringList `json:"activities"`
}

type Itinerary []ItineraryDay

func (it Itinerary) Value() (driver.Value, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(it)
}

func (it *Itinerary) Scan(src any) error {
	return scanJSON(src, it)
}

// Normalize renumbers the days 1..n in slice order.
func (it Itinerary) Normalize() Itinerary {
	out := make(Itinerary, len(it))
	for i, d := range it {
		d.Day = i + 1
		out[i] = d
	}
	return out
}

// Move relocates the day at 1-based position from to position to.
func (it Itinerary) Move(from, to int) (Itinerary, error) {
	n := len(it)
	if from < 1 || from > n || to < 1 || to > n {
		return nil, NewValidationError(fmt.Sprintf("itinerary positions must be between 1 and %d", n))
	}

	out := make(Itinerary, 0, n)
	moved := it[from-1]
	for i, d := range it {
		if i != from-1 {
			out = append(out, d)
		}
	}
	out = append(out[:to-1], append(Itinerary{moved}, out[to-1:]...)...)

	return out.Normalize(), nil
}

type Tour struct {
	ID            string          `json:"id" db:"tour_id"`
	HostID        string          `json:"host_id" db:"host_id"`
	DestinationID string          `json:"destination_id" db:"destination_id"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price_amount"`
	Currency      string          `json:"currency" db:"price_currency"`
	DurationDays  int             `json:"duration_days" db:"duration_days"`
	MaxGroupSize  int             `json:"max_group_size" db:"max_group_size"`
	AvailableFrom time.Time       `json:"available_from" db:"available_from"`
	AvailableTo   time.Time       `json:"available_to" db:"available_to"`
	Itinerary     Itinerary       `json:"itinerary" db:"itinerary"`
	Included      StringList      `json:"included" db:"included"`
	Excluded      StringList      `json:"excluded" db:"excluded"`
	Status        TourStatus      `json:"status" db:"status"`
	RatingAverage decimal.Decimal `json:"rating_average" db:"rating_average"`
	RatingCount   int             `json:"rating_count" db:"rating_count"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (t Tour) PriceMoney() Money {
	return NewMoney(t.Price, t.Currency)
}

func (t Tour) Validate() error {
	var problems []string
	if strings.TrimSpace(t.Title) == "" {
		problems = append(problems, "title is required")
	}
	if !t.Price.IsPositive() {
		problems = append(problems, "price must be greater than zero")
	}
	if t.DurationDays < 1 {
		problems = append(problems, "duration_days must be at least 1")
	}
	if t.MaxGroupSize < 1 {
		problems = append(problems, "max_group_size must be at least 1")
	}
	if Date(t.AvailableTo).Before(Date(t.AvailableFrom)) {
		problems = append(problems, "available_to must not be before available_from")
	}
	if len(t.Itinerary) > t.DurationDays {
		problems = append(problems, fmt.Sprintf("itinerary has %d days but the tour lasts %d", len(t.Itinerary), t.DurationDays))
	}
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

func (t Tour) DepartureAllowed(start time.Time) bool {
	d := Date(start)
	return !d.Before(Date(t.AvailableFrom)) && !d.After(Date(t.AvailableTo))
}

// EndDate is the last day of a departure starting on start.
func (t Tour) EndDate(start time.Time) time.Time {
	return Date(start).AddDate(0, 0, t.DurationDays-1)
}

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type TourFilter struct {
	DestinationID string
	HostID        string
	Status        TourStatus
	Query         string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Sort          string
	IDs           []string
}
