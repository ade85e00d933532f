package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	ID           string          `json:"id" db:"plan_id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price_amount"`
	Currency     string          `json:"currency" db:"price_currency"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	TourLimit    int             `json:"tour_limit" db:"tour_limit"`
	BlogLimit    int             `json:"blog_limit" db:"blog_limit"`
	Active       bool            `json:"active" db:"active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

func (p SubscriptionPlan) PriceMoney() Money {
	return NewMoney(p.Price, p.Currency)
}

func (p SubscriptionPlan) Validate() error {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if p.DurationDays < 1 {
		problems = append(problems, "duration_days must be at least 1")
	}
	if p.TourLimit < 0 || p.BlogLimit < 0 {
		problems = append(problems, "limits must not be negative")
	}
	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

func (p SubscriptionPlan) Quota() Quota {
	return Quota{Tours: p.TourLimit, Blogs: p.BlogLimit}
}

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "PENDING"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

type Subscription struct {
	ID        string             `json:"id" db:"subscription_id"`
	HostID    string             `json:"host_id" db:"host_id"`
	PlanID    string             `json:"plan_id" db:"plan_id"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	StartsAt  *time.Time         `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt    *time.Time         `json:"ends_at,omitempty" db:"ends_at"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}

// Activate starts the subscription at now for durationDays.
func (s *Subscription) Activate(now time.Time, durationDays int) error {
	if s.Status != SubscriptionPending {
		return InvalidTransitionError{Kind: "subscription", From: string(s.Status), To: string(SubscriptionActive)}
	}

	start := now.UTC()
	end := start.AddDate(0, 0, durationDays)
	s.StartsAt = &start
	s.EndsAt = &end
	s.Status = SubscriptionActive
	return nil
}

func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndsAt != nil && now.Before(*s.EndsAt)
}

// Quota caps how many tours and blogs a host may keep; zero means unlimited.
type Quota struct {
	Tours int `json:"tours"`
	Blogs int `json:"blogs"`
}

func (q Quota) AllowsTour(used int) bool {
	return allows(q.Tours, used)
}

func (q Quota) AllowsBlog(used int) bool {
	return allows(q.Blogs, used)
}

func allows(limit, used int) bool {
	return limit == 0 || used < limit
}

type QuotaUsage struct {
	Quota        Quota         `json:"quota"`
	ToursUsed    int           `json:"tours_used"`
	BlogsUsed    int           `json:"blogs_used"`
	Subscription *Subscription `json:"subscription,omitempty"`
}
