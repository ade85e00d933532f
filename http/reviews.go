package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"tours/entity"
)

type createReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=5000"`
}

type moderateReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// CreateReview accepts one review per completed booking, held for moderation.
func (h handler) CreateReview(c echo.Context) error {
	var request createReviewRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u := mustUser(c)

	b, err := h.bookings.ByID(ctx, request.BookingID)
	if err != nil {
		return toHTTPError(err)
	}
	if err := entity.CanReview(b, u.ID); err != nil {
		return toHTTPError(err)
	}

	r := entity.Review{
		ID:        uuid.NewString(),
		TourID:    b.TourID,
		BookingID: b.ID,
		TouristID: u.ID,
		Rating:    request.Rating,
		Comment:   request.Comment,
		Status:    entity.ReviewPending,
		CreatedAt: h.now().UTC(),
	}
	if err := r.Validate(); err != nil {
		return toHTTPError(err)
	}

	if err := h.reviews.Add(ctx, r); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h handler) ListTourReviews(c echo.Context) error {
	f := entity.ReviewFilter{TourID: c.Param("id"), Status: entity.ReviewApproved}

	page := pageFromQuery(c)
	reviews, total, err := h.reviews.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, reviews, total, page)
}

func (h handler) ListAllReviews(c echo.Context) error {
	f := entity.ReviewFilter{
		TourID:    c.QueryParam("tour_id"),
		TouristID: c.QueryParam("tourist_id"),
		Status:    entity.ReviewStatus(strings.ToUpper(c.QueryParam("status"))),
	}
	if f.Status != "" && !f.Status.Valid() {
		return toHTTPError(entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status)))
	}

	page := pageFromQuery(c)
	reviews, total, err := h.reviews.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, reviews, total, page)
}

func (h handler) ModerateReview(c echo.Context) error {
	var request moderateReviewRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	r, err := h.reviews.UpdateStatus(c.Request().Context(), c.Param("id"), entity.ReviewStatus(request.Status))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h handler) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	u := mustUser(c)

	r, err := h.reviews.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if !u.IsAdmin() && r.TouristID != u.ID {
		return toHTTPError(fmt.Errorf("review %s: %w", r.ID, entity.ErrForbidden))
	}

	if err := h.reviews.Delete(ctx, r.ID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
