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
	"tours/event"
)

const headerIdempotencyKey = "Idempotency-Key"

type createBookingRequest struct {
	TourID    string `json:"tour_id" validate:"required,uuid"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	People    int    `json:"people" validate:"required,min=1"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type cancelBookingResponse struct {
	Booking entity.Booking     `json:"booking"`
	Refund  entity.RefundQuote `json:"refund"`
}

func bookingFilterFromQuery(c echo.Context) (entity.BookingFilter, error) {
	f := entity.BookingFilter{
		TourID:        c.QueryParam("tour_id"),
		Status:        entity.BookingStatus(strings.ToUpper(c.QueryParam("status"))),
		PaymentStatus: entity.PaymentStatus(strings.ToUpper(c.QueryParam("payment_status"))),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status))
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return f, entity.NewValidationError(fmt.Sprintf("unknown payment_status %s", f.PaymentStatus))
	}
	return f, nil
}

func (h handler) CreateBooking(c echo.Context) error {
	var request createBookingRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u := mustUser(c)
	now := h.now().UTC()

	t, err := h.tours.ByID(ctx, request.TourID)
	if err != nil {
		return toHTTPError(err)
	}
	if t.Status != entity.TourPublished {
		return toHTTPError(entity.NewValidationError("tour is not open for booking"))
	}

	start, _ := time.Parse(dateLayout, request.StartDate)
	if !start.After(entity.Date(now)) {
		return toHTTPError(entity.NewValidationError("start_date must be in the future"))
	}
	if !t.DepartureAllowed(start) {
		return toHTTPError(entity.NewValidationError(fmt.Sprintf(
			"start_date must be between %s and %s",
			t.AvailableFrom.Format(dateLayout), t.AvailableTo.Format(dateLayout),
		)))
	}

	idempotencyKey := c.Request().Header.Get(headerIdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	amount := t.PriceMoney().Mul(request.People)
	b := entity.Booking{
		ID:             uuid.NewString(),
		TourID:         t.ID,
		TouristID:      u.ID,
		HostID:         t.HostID,
		People:         request.People,
		StartDate:      start,
		EndDate:        t.EndDate(start),
		Amount:         amount.Amount,
		Currency:       amount.Currency,
		Status:         entity.BookingPending,
		PaymentStatus:  entity.PaymentPending,
		IdempotencyKey: idempotencyKey,
		RefundAmount:   decimal.Zero,
	}

	stored, err := h.bookings.Add(ctx, t, b)
	if err != nil {
		return toHTTPError(err)
	}

	if stored.ID != b.ID {
		return c.JSON(http.StatusOK, stored)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (h handler) listBookings(c echo.Context, scope func(f *entity.BookingFilter)) error {
	f, err := bookingFilterFromQuery(c)
	if err != nil {
		return toHTTPError(err)
	}
	scope(&f)

	page := pageFromQuery(c)
	bookings, total, err := h.bookings.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, bookings, total, page)
}

func (h handler) ListMyBookings(c echo.Context) error {
	return h.listBookings(c, func(f *entity.BookingFilter) { f.TouristID = mustUser(c).ID })
}

func (h handler) ListHostBookings(c echo.Context) error {
	return h.listBookings(c, func(f *entity.BookingFilter) { f.HostID = mustUser(c).ID })
}

func (h handler) ListAllBookings(c echo.Context) error {
	return h.listBookings(c, func(f *entity.BookingFilter) {
		f.TouristID = c.QueryParam("tourist_id")
		f.HostID = c.QueryParam("host_id")
	})
}

// visibleBooking loads a booking the caller takes part in, or any booking for admins.
func (h handler) visibleBooking(c echo.Context) (entity.Booking, error) {
	b, err := h.bookings.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return entity.Booking{}, toHTTPError(err)
	}

	u := mustUser(c)
	if !u.IsAdmin() && !b.IsParticipant(u) {
		return entity.Booking{}, toHTTPError(fmt.Errorf("booking %s: %w", b.ID, entity.ErrForbidden))
	}
	return b, nil
}

func (h handler) GetBooking(c echo.Context) error {
	b, err := h.visibleBooking(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

// GetRefundQuote tells the caller what cancelling now would refund.
func (h handler) GetRefundQuote(c echo.Context) error {
	b, err := h.visibleBooking(c)
	if err != nil {
		return err
	}
	if !b.Status.CanTransition(entity.BookingCancelled) {
		return toHTTPError(entity.InvalidTransitionError{Kind: "booking", From: string(b.Status), To: string(entity.BookingCancelled)})
	}

	quote, err := b.RefundQuote(h.now(), mustUser(c).Role)
	if err != nil {
		return toHTTPError(err)
	}
	if b.PaymentStatus != entity.PaymentCompleted {
		quote.Amount = entity.NewMoney(decimal.Zero, b.Currency)
	}

	return c.JSON(http.StatusOK, quote)
}

func (h handler) CancelBooking(c echo.Context) error {
	var request cancelBookingRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	if _, err := h.visibleBooking(c); err != nil {
		return err
	}

	u := mustUser(c)
	var quote entity.RefundQuote
	b, err := h.bookings.Update(c.Request().Context(), c.Param("id"), func(b *entity.Booking) ([]any, error) {
		wasConfirmed := b.Status == entity.BookingConfirmed

		var err error
		quote, err = b.Cancel(h.now(), u.Role, request.Reason)
		if err != nil {
			return nil, err
		}

		return []any{event.NewBookingCancelled(*b, wasConfirmed)}, nil
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, cancelBookingResponse{Booking: b, Refund: quote})
}

// CompleteBooking marks a confirmed booking as travelled. It cannot happen before the tour starts.
func (h handler) CompleteBooking(c echo.Context) error {
	if _, err := h.visibleBooking(c); err != nil {
		return err
	}

	now := h.now()
	b, err := h.bookings.Update(c.Request().Context(), c.Param("id"), func(b *entity.Booking) ([]any, error) {
		if now.Before(entity.Date(b.StartDate)) {
			return nil, entity.NewValidationError("booking cannot be completed before the tour starts")
		}
		if err := b.TransitionTo(entity.BookingCompleted); err != nil {
			return nil, err
		}
		return []any{event.NewBookingCompleted(*b)}, nil
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, b)
}

// ConfirmBooking lets an admin confirm a booking without a completed payment.
func (h handler) ConfirmBooking(c echo.Context) error {
	b, err := h.bookings.Update(c.Request().Context(), c.Param("id"), func(b *entity.Booking) ([]any, error) {
		if err := b.TransitionTo(entity.BookingConfirmed); err != nil {
			return nil, err
		}
		return []any{event.NewBookingConfirmed(*b)}, nil
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, b)
}
