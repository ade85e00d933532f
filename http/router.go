package http

import (
	"net/http"
	"time"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"

	"tours/entity"
)

var ErrServerClosed = http.ErrServerClosed

type Deps struct {
	Tokens        TokenIssuer
	Users         UserRepo
	Destinations  DestinationRepo
	Tours         TourRepo
	Search        TourSearch
	Bookings      BookingRepo
	Payments      PaymentRepo
	Reviews       ReviewRepo
	Blogs         BlogRepo
	Plans         PlanRepo
	Subscriptions SubscriptionRepo
	Stats         StatsRepo

	FreeQuota     entity.Quota
	WebhookSecret string

	// Now defaults to time.Now.
	Now func() time.Time
}

func NewRouter(deps Deps) *echo.Echo {
	server := commonHTTP.NewEcho()
	server.Validator = newRequestValidator()

	server.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	h := handler{
		tokens:        deps.Tokens,
		users:         deps.Users,
		destinations:  deps.Destinations,
		tours:         deps.Tours,
		search:        deps.Search,
		bookings:      deps.Bookings,
		payments:      deps.Payments,
		reviews:       deps.Reviews,
		blogs:         deps.Blogs,
		plans:         deps.Plans,
		subscriptions: deps.Subscriptions,
		stats:         deps.Stats,
		freeQuota:     deps.FreeQuota,
		webhookSecret: deps.WebhookSecret,
		now:           now,
	}

	admin := requireRole(entity.RoleAdmin)
	host := requireRole(entity.RoleHost)
	tourist := requireRole(entity.RoleTourist)
	hostOrAdmin := requireRole(entity.RoleHost, entity.RoleAdmin)

	server.POST("/auth/register", h.Register)
	server.POST("/auth/login", h.Login)
	server.GET("/auth/me", h.Me, h.authenticate)
	server.PATCH("/auth/me", h.UpdateMe, h.authenticate)

	server.GET("/destinations", h.ListDestinations)
	server.GET("/destinations/:id", h.GetDestination)
	server.POST("/destinations", h.CreateDestination, h.authenticate, admin)
	server.PUT("/destinations/:id", h.UpdateDestination, h.authenticate, admin)
	server.DELETE("/destinations/:id", h.DeleteDestination, h.authenticate, admin)

	server.GET("/tours", h.ListTours, h.identify)
	server.GET("/tours/search", h.SearchTours)
	server.GET("/tours/:id", h.GetTour, h.identify)
	server.GET("/tours/:id/reviews", h.ListTourReviews)
	server.POST("/tours", h.CreateTour, h.authenticate, host)
	server.PUT("/tours/:id", h.UpdateTour, h.authenticate, host)
	server.PATCH("/tours/:id/status", h.UpdateTourStatus, h.authenticate, hostOrAdmin)
	server.POST("/tours/:id/itinerary/move", h.MoveItineraryDay, h.authenticate, host)
	server.DELETE("/tours/:id", h.DeleteTour, h.authenticate, hostOrAdmin)

	server.POST("/bookings", h.CreateBooking, h.authenticate, tourist)
	server.GET("/bookings/my", h.ListMyBookings, h.authenticate, tourist)
	server.GET("/bookings/:id", h.GetBooking, h.authenticate)
	server.GET("/bookings/:id/refund-quote", h.GetRefundQuote, h.authenticate)
	server.POST("/bookings/:id/cancel", h.CancelBooking, h.authenticate)
	server.POST("/bookings/:id/complete", h.CompleteBooking, h.authenticate, hostOrAdmin)
	server.POST("/bookings/:id/confirm", h.ConfirmBooking, h.authenticate, admin)
	server.POST("/bookings/:id/payments", h.CreateBookingPayment, h.authenticate, tourist)

	server.POST("/payments/webhook", h.PaymentWebhook)
	server.GET("/payments/my", h.ListMyPayments, h.authenticate)

	server.POST("/reviews", h.CreateReview, h.authenticate, tourist)
	server.DELETE("/reviews/:id", h.DeleteReview, h.authenticate)

	server.GET("/blogs", h.ListBlogs, h.identify)
	server.GET("/blogs/:id", h.GetBlog, h.identify)
	server.POST("/blogs", h.CreateBlog, h.authenticate, hostOrAdmin)
	server.PUT("/blogs/:id", h.UpdateBlog, h.authenticate, hostOrAdmin)
	server.DELETE("/blogs/:id", h.DeleteBlog, h.authenticate, hostOrAdmin)

	server.GET("/plans", h.ListPlans)
	server.POST("/subscriptions", h.CreateSubscription, h.authenticate, host)
	server.GET("/subscriptions/my", h.ListMySubscriptions, h.authenticate, host)
	server.POST("/subscriptions/:id/cancel", h.CancelSubscription, h.authenticate, hostOrAdmin)

	hostGroup := server.Group("/host", h.authenticate, host)
	hostGroup.GET("/tours", h.ListHostTours)
	hostGroup.GET("/bookings", h.ListHostBookings)
	hostGroup.GET("/quota", h.GetQuota)
	hostGroup.GET("/stats", h.GetHostStats)

	adminGroup := server.Group("/admin", h.authenticate, admin)
	adminGroup.GET("/bookings", h.ListAllBookings)
	adminGroup.GET("/payments", h.ListAllPayments)
	adminGroup.GET("/reviews", h.ListAllReviews)
	adminGroup.PATCH("/reviews/:id", h.ModerateReview)
	adminGroup.PATCH("/blogs/:id", h.ModerateBlog)
	adminGroup.POST("/plans", h.CreatePlan)
	adminGroup.GET("/plans", h.ListAllPlans)
	adminGroup.PUT("/plans/:id", h.UpdatePlan)
	adminGroup.DELETE("/plans/:id", h.DeletePlan)
	adminGroup.GET("/subscriptions", h.ListAllSubscriptions)
	adminGroup.GET("/users", h.ListUsers)
	adminGroup.PATCH("/users/:id/status", h.UpdateUserStatus)
	adminGroup.PATCH("/users/:id/role", h.UpdateUserRole)
	adminGroup.DELETE("/users/:id", h.DeleteUser)
	adminGroup.GET("/stats", h.GetAdminStats)

	return server
}
