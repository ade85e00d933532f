package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/auth"
	"tours/entity"
	"tours/event"
	toursHTTP "tours/http"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

const webhookSecret = "webhook-secret"

type testAPI struct {
	t        *testing.T
	server   *echo.Echo
	issuer   auth.Issuer
	users    *fakeUsers
	tours    *fakeTours
	bookings *fakeBookings
	payments *fakePayments
	reviews  *fakeReviews
	blogs    *fakeBlogs
	plans    *fakePlans
}

func newTestAPI(t *testing.T, search toursHTTP.TourSearch) *testAPI {
	t.Helper()

	api := &testAPI{
		t:        t,
		issuer:   auth.NewIssuer("test-secret", time.Hour),
		users:    newFakeUsers(),
		tours:    newFakeTours(),
		bookings: newFakeBookings(),
		payments: newFakePayments(),
		reviews:  newFakeReviews(),
		blogs:    newFakeBlogs(),
		plans:    newFakePlans(),
	}
	api.server = toursHTTP.NewRouter(toursHTTP.Deps{
		Tokens:        api.issuer,
		Users:         api.users,
		Tours:         api.tours,
		Search:        search,
		Bookings:      api.bookings,
		Payments:      api.payments,
		Reviews:       api.reviews,
		Blogs:         api.blogs,
		Plans:         api.plans,
		Subscriptions: fakeSubscriptions{},
		FreeQuota:     entity.Quota{Tours: 1, Blogs: 1},
		WebhookSecret: webhookSecret,
		Now:           func() time.Time { return testNow },
	})
	return api
}

func (a *testAPI) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) addUser(role entity.Role) (entity.User, string) {
	a.t.Helper()

	u := entity.User{
		ID:     uuid.NewString(),
		Name:   string(role) + " user",
		Email:  uuid.NewString() + "@example.com",
		Role:   role,
		Status: entity.UserActive,
	}
	require.NoError(a.t, a.users.Add(context.Background(), u))

	token, err := a.issuer.Issue(u)
	require.NoError(a.t, err)
	return u, token
}

func (a *testAPI) addTour(hostID string, status entity.TourStatus) entity.Tour {
	a.t.Helper()

	t := entity.Tour{
		ID:            uuid.NewString(),
		HostID:        hostID,
		DestinationID: uuid.NewString(),
		Title:         "Alpine trek",
		Price:         decimal.RequireFromString("100"),
		Currency:      "EUR",
		DurationDays:  3,
		MaxGroupSize:  4,
		AvailableFrom: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableTo:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Itinerary: entity.Itinerary{
			{Day: 1, Title: "A"},
			{Day: 2, Title: "B"},
			{Day: 3, Title: "C"},
		},
		Status: status,
	}
	a.tours.tours[t.ID] = t
	return t
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type listBody[T any] struct {
	Data []T            `json:"data"`
	Meta entity.PageMeta `json:"meta"`
}

type authBody struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	api := newTestAPI(t, nil)

	register := map[string]any{
		"name":     "Ann",
		"email":    "Ann@Example.com",
		"password": "secret-pass",
		"role":     "TOURIST",
	}

	rec := api.do(http.MethodPost, "/auth/register", register, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	registered := decode[authBody](t, rec)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "ann@example.com", registered.User.Email)
	assert.Equal(t, entity.RoleTourist, registered.User.Role)

	t.Run("email taken", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/auth/register", register, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("admins cannot self register", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/auth/register", map[string]any{
			"name":     "Eve",
			"email":    "eve@example.com",
			"password": "secret-pass",
			"role":     "ADMIN",
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/auth/login", map[string]any{"email": "ann@example.com", "password": "wrong-pass"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodPost, "/auth/login", map[string]any{"email": "ANN@example.com", "password": "secret-pass"}, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, registered.User.ID, decode[authBody](t, rec).User.ID)
	})

	t.Run("me", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodGet, "/auth/me", nil, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodGet, "/auth/me", nil, registered.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, registered.User.ID, decode[entity.User](t, rec).ID)
	})

	t.Run("update profile", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/auth/me", map[string]any{"name": "Ann B", "telegram_chat_id": 42}, registered.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		u, err := api.users.ByID(context.Background(), registered.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann B", u.Name)
		require.NotNil(t, u.TelegramChatID)
		assert.Equal(t, int64(42), *u.TelegramChatID)
	})

	t.Run("blocked user", func(t *testing.T) {
		require.NoError(t, api.users.UpdateStatus(context.Background(), registered.User.ID, entity.UserBlocked))

		rec := api.do(http.MethodGet, "/auth/me", nil, registered.Token)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = api.do(http.MethodPost, "/auth/login", map[string]any{"email": "ann@example.com", "password": "secret-pass"}, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func tourBody() map[string]any {
	return map[string]any{
		"destination_id": uuid.NewString(),
		"title":          "Coastal walk",
		"price":          "120.50",
		"currency":       "eur",
		"duration_days":  3,
		"max_group_size": 8,
		"available_from": "2026-06-01",
		"available_to":   "2026-09-30",
		"itinerary": []map[string]any{
			{"title": "Arrival"},
			{"title": "Cliffs", "activities": []string{"hike"}},
		},
	}
}

func TestCreateTour(t *testing.T) {
	api := newTestAPI(t, nil)
	_, hostToken := api.addUser(entity.RoleHost)
	_, touristToken := api.addUser(entity.RoleTourist)

	t.Run("validation", func(t *testing.T) {
		body := tourBody()
		delete(body, "title")
		body["available_from"] = "01/06/2026"
		rec := api.do(http.MethodPost, "/tours", body, hostToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		body = tourBody()
		body["duration_days"] = 1
		rec = api.do(http.MethodPost, "/tours", body, hostToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "itinerary longer than the tour")
	})

	t.Run("tourists cannot create tours", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/tours", tourBody(), touristToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	rec := api.do(http.MethodPost, "/tours", tourBody(), hostToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tour := decode[entity.Tour](t, rec)
	assert.Equal(t, entity.TourDraft, tour.Status)
	assert.Equal(t, "EUR", tour.Currency)
	assert.True(t, decimal.RequireFromString("120.50").Equal(tour.Price))
	require.Len(t, tour.Itinerary, 2)
	assert.Equal(t, 1, tour.Itinerary[0].Day)
	assert.Equal(t, 2, tour.Itinerary[1].Day)

	t.Run("free quota used up", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/tours", tourBody(), hostToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListTours_visibility(t *testing.T) {
	api := newTestAPI(t, nil)
	host, hostToken := api.addUser(entity.RoleHost)
	_, otherToken := api.addUser(entity.RoleHost)
	_, adminToken := api.addUser(entity.RoleAdmin)

	api.addTour(host.ID, entity.TourPublished)
	draft := api.addTour(host.ID, entity.TourDraft)

	rec := api.do(http.MethodGet, "/tours", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[listBody[entity.Tour]](t, rec).Meta.Total)

	rec = api.do(http.MethodGet, "/tours?host_id="+host.ID, nil, hostToken)
	assert.Equal(t, 2, decode[listBody[entity.Tour]](t, rec).Meta.Total)

	rec = api.do(http.MethodGet, "/tours?host_id="+host.ID, nil, otherToken)
	assert.Equal(t, 1, decode[listBody[entity.Tour]](t, rec).Meta.Total)

	rec = api.do(http.MethodGet, "/tours?status=DRAFT", nil, adminToken)
	assert.Equal(t, 1, decode[listBody[entity.Tour]](t, rec).Meta.Total)

	rec = api.do(http.MethodGet, "/tours/"+draft.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/tours/"+draft.ID, nil, hostToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/host/tours", nil, hostToken)
	assert.Equal(t, 2, decode[listBody[entity.Tour]](t, rec).Meta.Total)
}

func TestSearchTours(t *testing.T) {
	setup := func(search func(ids ...string) toursHTTP.TourSearch) (*testAPI, entity.Tour, entity.Tour) {
		api := newTestAPI(t, nil)
		host, _ := api.addUser(entity.RoleHost)
		first := api.addTour(host.ID, entity.TourPublished)
		second := api.addTour(host.ID, entity.TourPublished)
		second.Title = "Desert nights"
		api.tours.tours[second.ID] = second

		if search != nil {
			api = &testAPI{t: t, issuer: api.issuer, users: api.users, tours: api.tours, bookings: api.bookings, payments: api.payments}
			api.server = toursHTTP.NewRouter(toursHTTP.Deps{
				Tokens: api.issuer,
				Users:  api.users,
				Tours:  api.tours,
				Search: search(second.ID, first.ID),
				Now:    func() time.Time { return testNow },
			})
		}
		return api, first, second
	}

	t.Run("keeps relevance order", func(t *testing.T) {
		api, first, second := setup(func(ids ...string) toursHTTP.TourSearch { return fakeSearch{ids: ids} })

		rec := api.do(http.MethodGet, "/tours/search?q=trek", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listBody[entity.Tour]](t, rec)
		require.Len(t, body.Data, 2)
		assert.Equal(t, second.ID, body.Data[0].ID)
		assert.Equal(t, first.ID, body.Data[1].ID)
	})

	t.Run("falls back to text match", func(t *testing.T) {
		api, _, second := setup(nil)

		rec := api.do(http.MethodGet, "/tours/search?q=desert", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listBody[entity.Tour]](t, rec)
		require.Len(t, body.Data, 1)
		assert.Equal(t, second.ID, body.Data[0].ID)
	})
}

func TestMoveItineraryDay(t *testing.T) {
	api := newTestAPI(t, nil)
	host, hostToken := api.addUser(entity.RoleHost)
	_, otherToken := api.addUser(entity.RoleHost)
	tour := api.addTour(host.ID, entity.TourPublished)

	path := "/tours/" + tour.ID + "/itinerary/move"

	rec := api.do(http.MethodPost, path, map[string]int{"from": 3, "to": 1}, otherToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, path, map[string]int{"from": 3, "to": 4}, hostToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, path, map[string]int{"from": 3, "to": 1}, hostToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	moved := decode[entity.Tour](t, rec).Itinerary
	require.Len(t, moved, 3)
	for i, want := range []string{"C", "A", "B"} {
		assert.Equal(t, want, moved[i].Title)
		assert.Equal(t, i+1, moved[i].Day)
	}
}

func TestCreateBooking(t *testing.T) {
	api := newTestAPI(t, nil)
	host, hostToken := api.addUser(entity.RoleHost)
	tourist, touristToken := api.addUser(entity.RoleTourist)
	tour := api.addTour(host.ID, entity.TourPublished)
	draft := api.addTour(host.ID, entity.TourDraft)

	book := func(tourID, start string, people int, key string) *httptest.ResponseRecorder {
		return api.do(http.MethodPost, "/bookings", map[string]any{
			"tour_id":    tourID,
			"start_date": start,
			"people":     people,
		}, touristToken, "Idempotency-Key", key)
	}

	testCases := []struct {
		name   string
		tourID string
		start  string
		people int
	}{
		{"outside availability", tour.ID, "2027-01-10", 1},
		{"not in the future", tour.ID, "2026-05-01", 1},
		{"no people", tour.ID, "2026-06-01", 0},
		{"unpublished tour", draft.ID, "2026-06-01", 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := book(tc.tourID, tc.start, tc.people, uuid.NewString())
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := book(tour.ID, "2026-06-01", 2, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode[entity.Booking](t, rec)
	assert.Equal(t, tourist.ID, booking.TouristID)
	assert.Equal(t, host.ID, booking.HostID)
	assert.Equal(t, entity.BookingPending, booking.Status)
	assert.Equal(t, entity.PaymentPending, booking.PaymentStatus)
	assert.True(t, decimal.RequireFromString("200").Equal(booking.Amount))
	assert.Equal(t, time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), booking.EndDate.UTC())

	t.Run("replay returns the same booking", func(t *testing.T) {
		rec := book(tour.ID, "2026-06-01", 2, "key-1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, booking.ID, decode[entity.Booking](t, rec).ID)
	})

	t.Run("not enough seats", func(t *testing.T) {
		rec := book(tour.ID, "2026-06-01", 3, "key-2")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("hosts cannot book", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bookings", map[string]any{
			"tour_id":    tour.ID,
			"start_date": "2026-06-01",
			"people":     1,
		}, hostToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("page limit is capped", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/bookings/my?limit=1000", nil, touristToken)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[listBody[entity.Booking]](t, rec)
		assert.Equal(t, entity.MaxPageLimit, body.Meta.Limit)
		assert.Equal(t, 1, body.Meta.Page)
		assert.Equal(t, 1, body.Meta.Total)
	})
}

func (a *testAPI) addBooking(touristID, hostID string, status entity.BookingStatus, payment entity.PaymentStatus, start time.Time) entity.Booking {
	b := entity.Booking{
		ID:            uuid.NewString(),
		TourID:        uuid.NewString(),
		TouristID:     touristID,
		HostID:        hostID,
		People:        2,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 2),
		Amount:        decimal.RequireFromString("250"),
		Currency:      "EUR",
		Status:        status,
		PaymentStatus: payment,
	}
	a.bookings.put(b)
	return b
}

func TestCancelBooking(t *testing.T) {
	api := newTestAPI(t, nil)
	host, _ := api.addUser(entity.RoleHost)
	tourist, touristToken := api.addUser(entity.RoleTourist)
	_, strangerToken := api.addUser(entity.RoleTourist)

	b := api.addBooking(tourist.ID, host.ID, entity.BookingConfirmed, entity.PaymentCompleted, testNow.AddDate(0, 0, 5))

	rec := api.do(http.MethodGet, "/bookings/"+b.ID+"/refund-quote", nil, touristToken)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := decode[entity.RefundQuote](t, rec)
	assert.Equal(t, 50, quote.Percent)

	rec = api.do(http.MethodPost, "/bookings/"+b.ID+"/cancel", map[string]string{"reason": "sick"}, strangerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/bookings/"+b.ID+"/cancel", map[string]string{"reason": "sick"}, touristToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cancelled struct {
		Booking entity.Booking     `json:"booking"`
		Refund  entity.RefundQuote `json:"refund"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, entity.BookingCancelled, cancelled.Booking.Status)
	assert.Equal(t, 50, cancelled.Refund.Percent)
	assert.True(t, decimal.RequireFromString("125").Equal(cancelled.Refund.Amount.Amount))

	require.Len(t, api.bookings.events, 1)
	e, ok := api.bookings.events[0].(event.BookingCancelled)
	require.True(t, ok)
	assert.True(t, e.WasConfirmed)
	assert.Equal(t, entity.RoleTourist, e.CancelledBy)
	assert.Equal(t, "sick", e.Reason)

	rec = api.do(http.MethodPost, "/bookings/"+b.ID+"/cancel", map[string]string{}, touristToken)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCompleteBooking(t *testing.T) {
	api := newTestAPI(t, nil)
	host, hostToken := api.addUser(entity.RoleHost)
	tourist, touristToken := api.addUser(entity.RoleTourist)

	upcoming := api.addBooking(tourist.ID, host.ID, entity.BookingConfirmed, entity.PaymentCompleted, testNow.AddDate(0, 0, 3))
	travelled := api.addBooking(tourist.ID, host.ID, entity.BookingConfirmed, entity.PaymentCompleted, testNow.AddDate(0, 0, -3))

	rec := api.do(http.MethodPost, "/bookings/"+travelled.ID+"/complete", nil, touristToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/bookings/"+upcoming.ID+"/complete", nil, hostToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/bookings/"+travelled.ID+"/complete", nil, hostToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.BookingCompleted, decode[entity.Booking](t, rec).Status)

	require.Len(t, api.bookings.events, 1)
	assert.IsType(t, event.BookingCompleted{}, api.bookings.events[0])
}

func TestConfirmBooking(t *testing.T) {
	api := newTestAPI(t, nil)
	host, hostToken := api.addUser(entity.RoleHost)
	tourist, _ := api.addUser(entity.RoleTourist)
	_, adminToken := api.addUser(entity.RoleAdmin)

	b := api.addBooking(tourist.ID, host.ID, entity.BookingPending, entity.PaymentPending, testNow.AddDate(0, 1, 0))

	rec := api.do(http.MethodPost, "/bookings/"+b.ID+"/confirm", nil, hostToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/bookings/"+b.ID+"/confirm", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.BookingConfirmed, decode[entity.Booking](t, rec).Status)
	require.Len(t, api.bookings.events, 1)
	assert.IsType(t, event.BookingConfirmed{}, api.bookings.events[0])
}

func TestBookingPayment(t *testing.T) {
	api := newTestAPI(t, nil)
	host, _ := api.addUser(entity.RoleHost)
	tourist, touristToken := api.addUser(entity.RoleTourist)
	_, strangerToken := api.addUser(entity.RoleTourist)

	b := api.addBooking(tourist.ID, host.ID, entity.BookingPending, entity.PaymentPending, testNow.AddDate(0, 1, 0))
	path := "/bookings/" + b.ID + "/payments"

	rec := api.do(http.MethodPost, path, nil, strangerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, path, nil, touristToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decode[entity.Payment](t, rec)
	assert.Equal(t, entity.PaymentForBooking, payment.Kind)
	assert.Equal(t, b.ID, payment.ReferenceID)
	assert.True(t, b.Amount.Equal(payment.Amount))

	rec = api.do(http.MethodPost, path, nil, touristToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	t.Run("webhook", func(t *testing.T) {
		body := map[string]string{"payment_id": payment.ID, "status": "COMPLETED", "transaction_id": "tx-1"}

		rec := api.do(http.MethodPost, "/payments/webhook", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodPost, "/payments/webhook", body, "", "X-Webhook-Secret", "guess")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodPost, "/payments/webhook", map[string]string{"payment_id": payment.ID, "status": "REFUNDED"}, "", "X-Webhook-Secret", webhookSecret)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		type webhookBody struct {
			Payment entity.Payment `json:"payment"`
			Changed bool           `json:"changed"`
		}

		rec = api.do(http.MethodPost, "/payments/webhook", body, "", "X-Webhook-Secret", webhookSecret)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		first := decode[webhookBody](t, rec)
		assert.True(t, first.Changed)
		assert.Equal(t, entity.PaymentCompleted, first.Payment.Status)
		assert.Equal(t, "tx-1", first.Payment.TransactionID)

		rec = api.do(http.MethodPost, "/payments/webhook", body, "", "X-Webhook-Secret", webhookSecret)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[webhookBody](t, rec).Changed)

		body["status"] = "FAILED"
		rec = api.do(http.MethodPost, "/payments/webhook", body, "", "X-Webhook-Secret", webhookSecret)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAdminUsers(t *testing.T) {
	api := newTestAPI(t, nil)
	admin, adminToken := api.addUser(entity.RoleAdmin)
	host, hostToken := api.addUser(entity.RoleHost)

	rec := api.do(http.MethodGet, "/admin/users", nil, hostToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPatch, "/admin/users/"+admin.ID+"/status", map[string]string{"status": "BLOCKED"}, adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPatch, "/admin/users/"+host.ID+"/status", map[string]string{"status": "BLOCKED"}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, entity.UserBlocked, decode[entity.User](t, rec).Status)

	rec = api.do(http.MethodGet, "/host/tours", nil, hostToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodDelete, "/admin/users/"+host.ID, nil, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
