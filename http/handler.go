package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tours/auth"
	"tours/entity"
)

type TokenIssuer interface {
	Issue(user entity.User) (string, error)
	Parse(token string) (auth.Claims, error)
}

type UserRepo interface {
	Add(ctx context.Context, u entity.User) error
	ByID(ctx context.Context, id string) (entity.User, error)
	ByEmail(ctx context.Context, email string) (entity.User, error)
	List(ctx context.Context, f entity.UserFilter, page entity.Page) ([]entity.User, int, error)
	UpdateStatus(ctx context.Context, id string, status entity.UserStatus) error
	UpdateRole(ctx context.Context, id string, role entity.Role) error
	UpdateProfile(ctx context.Context, id, name string, telegramChatID *int64) error
	Delete(ctx context.Context, id string) error
}

type DestinationRepo interface {
	Add(ctx context.Context, d entity.Destination) error
	ByID(ctx context.Context, id string) (entity.Destination, error)
	List(ctx context.Context, query string, page entity.Page) ([]entity.Destination, int, error)
	Update(ctx context.Context, d entity.Destination) error
	Delete(ctx context.Context, id string) error
}

type TourRepo interface {
	Add(ctx context.Context, t entity.Tour, quota entity.Quota) error
	ByID(ctx context.Context, id string) (entity.Tour, error)
	List(ctx context.Context, f entity.TourFilter, page entity.Page) ([]entity.Tour, int, error)
	Update(ctx context.Context, t entity.Tour) error
	UpdateStatus(ctx context.Context, id string, status entity.TourStatus, quota entity.Quota) (entity.Tour, error)
	Delete(ctx context.Context, id string) error
	CountActiveByHost(ctx context.Context, hostID string) (int, error)
}

type TourSearch interface {
	Search(ctx context.Context, query string, page entity.Page) ([]string, int, error)
}

type BookingRepo interface {
	Add(ctx context.Context, tour entity.Tour, b entity.Booking) (entity.Booking, error)
	ByID(ctx context.Context, id string) (entity.Booking, error)
	List(ctx context.Context, f entity.BookingFilter, page entity.Page) ([]entity.Booking, int, error)
	Update(ctx context.Context, id string, fn func(b *entity.Booking) ([]any, error)) (entity.Booking, error)
}

type PaymentRepo interface {
	AddForBooking(ctx context.Context, p entity.Payment) error
	AddForSubscription(ctx context.Context, s entity.Subscription, p entity.Payment) error
	ByID(ctx context.Context, id string) (entity.Payment, error)
	List(ctx context.Context, f entity.PaymentFilter, page entity.Page) ([]entity.Payment, int, error)
	ApplyStatus(ctx context.Context, id string, status entity.PaymentStatus, transactionID string) (entity.Payment, bool, error)
}

type ReviewRepo interface {
	Add(ctx context.Context, r entity.Review) error
	ByID(ctx context.Context, id string) (entity.Review, error)
	List(ctx context.Context, f entity.ReviewFilter, page entity.Page) ([]entity.Review, int, error)
	UpdateStatus(ctx context.Context, id string, status entity.ReviewStatus) (entity.Review, error)
	Delete(ctx context.Context, id string) error
}

type BlogRepo interface {
	Add(ctx context.Context, b entity.Blog, quota *entity.Quota) error
	ByID(ctx context.Context, id string) (entity.Blog, error)
	List(ctx context.Context, f entity.BlogFilter, page entity.Page) ([]entity.Blog, int, error)
	Update(ctx context.Context, b entity.Blog) error
	UpdateStatus(ctx context.Context, id string, status entity.BlogStatus) error
	Delete(ctx context.Context, id string) error
	CountActiveByAuthor(ctx context.Context, authorID string) (int, error)
}

type PlanRepo interface {
	Add(ctx context.Context, p entity.SubscriptionPlan) error
	ByID(ctx context.Context, id string) (entity.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]entity.SubscriptionPlan, error)
	Update(ctx context.Context, p entity.SubscriptionPlan) error
	Delete(ctx context.Context, id string) error
}

type SubscriptionRepo interface {
	ByID(ctx context.Context, id string) (entity.Subscription, error)
	Cancel(ctx context.Context, id string) error
	Quota(ctx context.Context, hostID string, now time.Time, free entity.Quota) (entity.Quota, *entity.Subscription, error)
	List(ctx context.Context, hostID string, status entity.SubscriptionStatus, page entity.Page) ([]entity.Subscription, int, error)
}

type StatsRepo interface {
	ByHost(ctx context.Context, hostID string) (entity.HostStats, error)
	AdminStats(ctx context.Context) (entity.AdminStats, error)
}

type handler struct {
	tokens        TokenIssuer
	users         UserRepo
	destinations  DestinationRepo
	tours         TourRepo
	search        TourSearch
	bookings      BookingRepo
	payments      PaymentRepo
	reviews       ReviewRepo
	blogs         BlogRepo
	plans         PlanRepo
	subscriptions SubscriptionRepo
	stats         StatsRepo
	freeQuota     entity.Quota
	webhookSecret string
	now           func() time.Time
}

type listResponse[T any] struct {
	Data []T            `json:"data"`
	Meta entity.PageMeta `json:"meta"`
}

func list[T any](c echo.Context, items []T, total int, page entity.Page) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, listResponse[T]{Data: items, Meta: page.Meta(total)})
}

func pageFromQuery(c echo.Context) entity.Page {
	var page, limit int
	// Malformed values fall back to the defaults.
	_ = echo.QueryParamsBinder(c).Int("page", &page).Int("limit", &limit).BindError()
	return entity.NewPage(page, limit)
}

func (h handler) bind(c echo.Context, request any) error {
	if err := c.Bind(request); err != nil {
		return &echo.HTTPError{
			Code:     http.StatusBadRequest,
			Message:  "failed to parse request",
			Internal: fmt.Errorf("failed to bind request: %w", err),
		}
	}

	if err := c.Validate(request); err != nil {
		return toHTTPError(err)
	}

	return nil
}

// toHTTPError maps domain errors to status codes; anything unknown is a 500.
func toHTTPError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var validationErr entity.ValidationError
	var seatsErr entity.NotEnoughSeatsError
	var transitionErr entity.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: validationErr.Problems, Internal: err}
	case errors.As(err, &seatsErr):
		return &echo.HTTPError{Code: http.StatusConflict, Message: seatsErr.Error(), Internal: err}
	case errors.As(err, &transitionErr):
		return &echo.HTTPError{Code: http.StatusConflict, Message: transitionErr.Error(), Internal: err}
	case errors.Is(err, entity.ErrNotFound):
		return &echo.HTTPError{Code: http.StatusNotFound, Message: "not found", Internal: err}
	case errors.Is(err, entity.ErrInvalidCredentials):
		return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "invalid credentials", Internal: err}
	case errors.Is(err, entity.ErrUserBlocked):
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "user is blocked", Internal: err}
	case errors.Is(err, entity.ErrForbidden):
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "forbidden", Internal: err}
	case errors.Is(err, entity.ErrQuotaExceeded):
		return &echo.HTTPError{Code: http.StatusForbidden, Message: "quota exceeded, upgrade your subscription", Internal: err}
	case errors.Is(err, entity.ErrConflict):
		return &echo.HTTPError{Code: http.StatusConflict, Message: err.Error(), Internal: err}
	case errors.Is(err, entity.ErrBookingStarted):
		return &echo.HTTPError{Code: http.StatusConflict, Message: "booking has already started", Internal: err}
	}

	return &echo.HTTPError{
		Code:     http.StatusInternalServerError,
		Message:  http.StatusText(http.StatusInternalServerError),
		Internal: err,
	}
}

// quotaFor resolves the creation quota of a host.
func (h handler) quotaFor(ctx context.Context, hostID string) (entity.Quota, *entity.Subscription, error) {
	return h.subscriptions.Quota(ctx, hostID, h.now(), h.freeQuota)
}
