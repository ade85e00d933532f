package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"tours/entity"
)

const headerWebhookSecret = "X-Webhook-Secret"

type createSubscriptionRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

type createSubscriptionResponse struct {
	Subscription entity.Subscription `json:"subscription"`
	Payment      entity.Payment      `json:"payment"`
}

type paymentWebhookRequest struct {
	PaymentID     string `json:"payment_id" validate:"required,uuid"`
	Status        string `json:"status" validate:"required,oneof=PROCESSING COMPLETED FAILED CANCELLED"`
	TransactionID string `json:"transaction_id" validate:"max=255"`
}

type paymentWebhookResponse struct {
	Payment entity.Payment `json:"payment"`
	Changed bool           `json:"changed"`
}

func (h handler) newPayment(kind entity.PaymentKind, referenceID, userID string, amount entity.Money) entity.Payment {
	now := h.now().UTC()
	return entity.Payment{
		ID:           uuid.NewString(),
		Kind:         kind,
		ReferenceID:  referenceID,
		UserID:       userID,
		Amount:       amount.Amount,
		Currency:     amount.Currency,
		Status:       entity.PaymentPending,
		RefundAmount: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateBookingPayment opens the payment the provider will report back on through the webhook.
func (h handler) CreateBookingPayment(c echo.Context) error {
	ctx := c.Request().Context()
	u := mustUser(c)

	b, err := h.bookings.ByID(ctx, c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	if b.TouristID != u.ID {
		return toHTTPError(fmt.Errorf("booking %s: %w", b.ID, entity.ErrForbidden))
	}

	p := h.newPayment(entity.PaymentForBooking, b.ID, u.ID, b.AmountMoney())
	if err := h.payments.AddForBooking(ctx, p); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (h handler) CreateSubscription(c echo.Context) error {
	var request createSubscriptionRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u := mustUser(c)

	plan, err := h.plans.ByID(ctx, request.PlanID)
	if err != nil {
		return toHTTPError(err)
	}
	if !plan.Active {
		return toHTTPError(entity.NewValidationError("plan is not available"))
	}

	s := entity.Subscription{
		ID:        uuid.NewString(),
		HostID:    u.ID,
		PlanID:    plan.ID,
		Status:    entity.SubscriptionPending,
		CreatedAt: h.now().UTC(),
	}
	p := h.newPayment(entity.PaymentForSubscription, s.ID, u.ID, plan.PriceMoney())

	if err := h.payments.AddForSubscription(ctx, s, p); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, createSubscriptionResponse{Subscription: s, Payment: p})
}

// PaymentWebhook receives status callbacks from the payment provider.
// Repeated callbacks with the current status are acknowledged without side effects.
func (h handler) PaymentWebhook(c echo.Context) error {
	secret := c.Request().Header.Get(headerWebhookSecret)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid webhook secret"}
	}

	var request paymentWebhookRequest
	if err := h.bind(c, &request); err != nil {
		return err
	}

	p, changed, err := h.payments.ApplyStatus(
		c.Request().Context(),
		request.PaymentID,
		entity.PaymentStatus(request.Status),
		request.TransactionID,
	)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, paymentWebhookResponse{Payment: p, Changed: changed})
}

func paymentFilterFromQuery(c echo.Context) (entity.PaymentFilter, error) {
	f := entity.PaymentFilter{
		Kind:   entity.PaymentKind(strings.ToUpper(c.QueryParam("kind"))),
		Status: entity.PaymentStatus(strings.ToUpper(c.QueryParam("status"))),
	}
	if f.Kind != "" && f.Kind != entity.PaymentForBooking && f.Kind != entity.PaymentForSubscription {
		return f, entity.NewValidationError(fmt.Sprintf("unknown kind %s", f.Kind))
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, entity.NewValidationError(fmt.Sprintf("unknown status %s", f.Status))
	}
	return f, nil
}

func (h handler) listPayments(c echo.Context, userID string) error {
	f, err := paymentFilterFromQuery(c)
	if err != nil {
		return toHTTPError(err)
	}
	f.UserID = userID

	page := pageFromQuery(c)
	payments, total, err := h.payments.List(c.Request().Context(), f, page)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, payments, total, page)
}

func (h handler) ListMyPayments(c echo.Context) error {
	return h.listPayments(c, mustUser(c).ID)
}

func (h handler) ListAllPayments(c echo.Context) error {
	return h.listPayments(c, c.QueryParam("user_id"))
}
