package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"tours/entity"
)

const dateLayout = "2006-01-02"

type itineraryDayRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	Description string   `json:"description"`
	Activities  []string `json:"activities"`
}

type tourRequest struct {
	DestinationID string                `json:"destination_id" validate:"required,uuid"`
	Title         string                `json:"title" validate:"required,max=255"`
	Description   string                `json:"description"`
	Price         decimal.Decimal       `json:"price"`
	Currency      string                `json:"currency" validate:"omitempty,len=3"`
	DurationDays  int                   `json:"duration_days" validate:"required,min=1"`
	MaxGroupSize  int                   `json:"max_group_size" validate:"required,min=1"`
	AvailableFrom string                `json:"available_from" validate:"required,datetime=2006-01-02"`
	AvailableTo   string                `json:"available_to" validate:"required,datetime=2006-01-02"`
	Itinerary     []itineraryDayRequest `json:"itinerary" validate:"dive"`
	Included      []string              `json:"included"`
	Excluded      []string              `json:"excluded"`
}

// apply copies the request onto t and checks the tour rules.
func (r tourRequest) apply(t *entity.Tour) error {
	// Layout already checked by the validator.
	from, _ := time.Parse(dateLayout, r.AvailableFrom)
	to, _ := time.Parse(dateLayout, r.AvailableTo)

	itinerary := make(entity.Itinerary, 0, len(r.Itinerary))
	for _, d := range r.Itinerary {
		itinerary = append(itinerary, entity.ItineraryDay{
			Title:       d.Title,
			Description: d.Description,
			Activities:  d.Activities,
		})
	}

	currency := strings.ToUpper(r.Currency)
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	t.DestinationID = r.DestinationID
	t.Title = r.Title
	t.Description = r.Description
	t.Price = r.Price.Round(2)
	t.Currency = currency
	t.DurationDays = r.DurationDays
	t.MaxGroupSize = r.MaxGroupSize
	t.AvailableFrom = from
	t.AvailableTo = to
	t.Itinerary = itinerary.Normalize()
	t.Included = r.Included
	t.Excluded = r.Excluded

	return t.Validate()
}

type createTourRequest struct {
	tourRequest
	Status string `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
}

type tourStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}

type moveDayRequest struct {
	From int `json:"from" validate:"required,min=1"`
	To   int `json:"to" validate:"required,min=1"`
}

func tourFilterFromQuery(c echo.Context) (entity.TourFilter, error) {
	f := entity.TourFilter{
		DestinationID: c.QueryParam("destination_id"),
		HostID:        c.QueryParam("host_id"),
		Status:        entity.TourStatus(strings.ToUpper(c.QueryParam("status"))),
		Query:         strings.TrimSpace(c.QueryParam("q")),
		Sort:          c.QueryParam("sort"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status))
	}

	for param, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return f, entity.NewValidationError(param + " must be a number")
		}
		*dst = &v
	}

	return f, nil
}

// ListTours lists published tours. Admins, and hosts filtering on themselves, see every status.
func (h handler) ListTours(c echo.Context) error {
	f, err := tourFilterFromQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	u, ok := currentUser(c)
	seesAll := ok && (u.IsAdmin() || (u.Role == entity.RoleHost && f.HostID == u.ID))
	if !seesAll {
		f.Status = entity.TourPublished
	}

	page := pageFromQuery(c)
	tours, total, err := h.tours.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, tours, total, page)
}

func (h handler) ListHostTours(c echo.Context) error {
	f, err := tourFilterFromQuery(c)
	if err != nil {
		return toHTTPError(err)
	}
	f.HostID = mustUser(c).ID

	page := pageFromQuery(c)
	tours, total, err := h.tours.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, tours, total, page)
}

// SearchTours ranks published tours by relevance, falling back to a plain text match
// when no search index is configured.
func (h handler) SearchTours(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))
	page := pageFromQuery(c)

	if h.search == nil || q == "" {
		f := entity.TourFilter{Status: entity.TourPublished, Query: q}
		tours, total, err := h.tours.List(ctx, f, page)
		if err != nil {
			return toHTTPError(err)
		}
		return list(c, tours, total, page)
	}

	ids, total, err := h.search.Search(ctx, q, page)
	if err != nil {
		return toHTTPError(err)
	}
	if len(ids) == 0 {
		return list(c, []entity.Tour{}, total, page)
	}

	found, _, err := h.tours.List(ctx, entity.TourFilter{Status: entity.TourPublished, IDs: ids}, entity.Page{Page: 1, Limit: len(ids)})
	if err != nil {
		return toHTTPError(err)
	}

	byID := make(map[string]entity.Tour, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	tours := make([]entity.Tour, 0, len(found))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tours = append(tours, t)
		}
	}

	return list(c, tours, total, page)
}

func canManageTour(u entity.User, t entity.Tour) bool {
	return u.IsAdmin() || t.HostID == u.ID
}

func (h handler) GetTour(c echo.Context) error {
	t, err := h.tours.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}

	if t.Status != entity.TourPublished {
		u, ok := currentUser(c)
		if !ok || !canManageTour(u, t) {
			return toHTTPError(fmt.Errorf("tour %s: %w", t.ID, entity.ErrNotFound))
		}
	}

	return c.JSON(http.StatusOK, t)
}

// ownTour loads the tour and checks that the caller may manage it.
func (h handler) ownTour(c echo.Context) (entity.Tour, error) {
	t, err := h.tours.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return entity.Tour{}, toHTTPError(err)
	}
	if !canManageTour(mustUser(c), t) {
		return entity.Tour{}, toHTTPError(fmt.Errorf("tour %s: %w", t.ID, entity.ErrForbidden))
	}
	return t, nil
}

func (h handler) CreateTour(c echo.Context) error {
	var request createTourRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	u := mustUser(c)
	now := h.now().UTC()
	t := entity.Tour{
		ID:        uuid.NewString(),
		HostID:    u.ID,
		Status:    entity.TourStatus(request.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Status == "" {
		t.Status = entity.TourDraft
	}
	if err := request.apply(&t); err != nil {
		return toHTTPError(err)
	}

	ctx := c.Request().Context()
	quota, _, err := h.quotaFor(ctx, u.ID)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.tours.Add(ctx, t, quota); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, t)
}

func (h handler) UpdateTour(c echo.Context) error {
	var request tourRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	t, err := h.ownTour(c)
	if err != nil {
		return err
	}
	if err := request.apply(&t); err != nil {
		return toHTTPError(err)
	}
	t.UpdatedAt = h.now().UTC()

	if err := h.tours.Update(c.Request().Context(), t); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h handler) UpdateTourStatus(c echo.Context) error {
	var request tourStatusRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	t, err := h.ownTour(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	quota, _, err := h.quotaFor(ctx, t.HostID)
	if err != nil {
		return toHTTPError(err)
	}

	updated, err := h.tours.UpdateStatus(ctx, t.ID, entity.TourStatus(request.Status), quota)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// MoveItineraryDay moves one day of the itinerary and renumbers the rest.
func (h handler) MoveItineraryDay(c echo.Context) error {
	var request moveDayRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	t, err := h.ownTour(c)
	if err != nil {
		return err
	}

	moved, err := t.Itinerary.Move(request.From, request.To)
	if err != nil {
		return toHTTPError(err)
	}
	t.Itinerary = moved
	t.UpdatedAt = h.now().UTC()

	if err := h.tours.Update(c.Request().Context(), t); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h handler) DeleteTour(c echo.Context) error {
	t, err := h.ownTour(c)
	if err != nil {
		return err
	}

	if err := h.tours.Delete(c.Request().Context(), t.ID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
