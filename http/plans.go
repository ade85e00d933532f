package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"tours/entity"
)

type planRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	DurationDays int             `json:"duration_days" validate:"required,min=1"`
	TourLimit    int             `json:"tour_limit" validate:"gte=0"`
	BlogLimit    int             `json:"blog_limit" validate:"gte=0"`
	Active       *bool           `json:"active"`
}

func (r planRequest) apply(p *entity.SubscriptionPlan) error {
	currency := strings.ToUpper(r.Currency)
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price.Round(2)
	p.Currency = currency
	p.DurationDays = r.DurationDays
	p.TourLimit = r.TourLimit
	p.BlogLimit = r.BlogLimit
	if r.Active != nil {
		p.Active = *r.Active
	}

	return p.Validate()
}

func (h handler) ListPlans(c echo.Context) error {
	plans, err := h.plans.List(c.Request().Context(), true)
	if err != nil {
		return toHTTPError(err)
	}
	if plans == nil {
		plans = []entity.SubscriptionPlan{}
	}
	return c.JSON(http.StatusOK, plans)
}

func (h handler) ListAllPlans(c echo.Context) error {
	plans, err := h.plans.List(c.Request().Context(), false)
	if err != nil {
		return toHTTPError(err)
	}
	if plans == nil {
		plans = []entity.SubscriptionPlan{}
	}
	return c.JSON(http.StatusOK, plans)
}

func (h handler) CreatePlan(c echo.Context) error {
	var request planRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	p := entity.SubscriptionPlan{ID: uuid.NewString(), Active: true, CreatedAt: h.now().UTC()}
	if err := request.apply(&p); err != nil {
		return toHTTPError(err)
	}

	if err := h.plans.Add(c.Request().Context(), p); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h handler) UpdatePlan(c echo.Context) error {
	var request planRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	p, err := h.plans.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if err := request.apply(&p); err != nil {
		return toHTTPError(err)
	}

	if err := h.plans.Update(ctx, p); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h handler) DeletePlan(c echo.Context) error {
	if err := h.plans.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func subscriptionStatusFromQuery(c echo.Context) (entity.SubscriptionStatus, error) {
	status := entity.SubscriptionStatus(strings.ToUpper(c.QueryParam("status")))
	switch status {
	case "", entity.SubscriptionPending, entity.SubscriptionActive, entity.SubscriptionExpired, entity.SubscriptionCancelled:
		return status, nil
	}
	return "", entity.NewValidationError(fmt.Sprintf("unknown status %s", status))
}

func (h handler) listSubscriptions(c echo.Context, hostID string) error {
	status, err := subscriptionStatusFromQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	page := pageFromQuery(c)
	subs, total, err := h.subscriptions.List(c.Request().Context(), hostID, status, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, subs, total, page)
}

func (h handler) ListMySubscriptions(c echo.Context) error {
	return h.listSubscriptions(c, mustUser(c).ID)
}

func (h handler) ListAllSubscriptions(c echo.Context) error {
	return h.listSubscriptions(c, c.QueryParam("host_id"))
}

func (h handler) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	u := mustUser(c)

	s, err := h.subscriptions.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if !u.IsAdmin() && s.HostID != u.ID {
		return toHTTPError(fmt.Errorf("subscription %s: %w", s.ID, entity.ErrForbidden))
	}

	if err := h.subscriptions.Cancel(ctx, s.ID); err != nil {
		return toHTTPError(err)
	}

	s, err = h.subscriptions.ByID(ctx, s.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, s)
}

// GetQuota shows the host what they may still create.
func (h handler) GetQuota(c echo.Context) error {
	ctx := c.Request().Context()
	u := mustUser(c)

	quota, sub, err := h.quotaFor(ctx, u.ID)
	if err != nil {
		return toHTTPError(err)
	}

	toursUsed, err := h.tours.CountActiveByHost(ctx, u.ID)
	if err != nil {
		return toHTTPError(err)
	}
	blogsUsed, err := h.blogs.CountActiveByAuthor(ctx, u.ID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, entity.QuotaUsage{
		Quota:        quota,
		ToursUsed:    toursUsed,
		BlogsUsed:    blogsUsed,
		Subscription: sub,
	})
}
