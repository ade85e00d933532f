package tests_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/lithammer/shortuuid/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/auth"
	"tours/clients"
	"tours/config"
	"tours/db"
	"tours/entity"
	"tours/search"
	"tours/service"
)

const (
	baseURL       = "http://localhost:8080"
	webhookSecret = "component-webhook-secret"
)

type gatewayMocks struct {
	payments     *MockPaymentsClient
	receipts     *MockReceiptIssuer
	spreadsheets *MockSpreadsheetAppender
	vouchers     *MockVoucherGenerator
}

func newGatewayMocks() gatewayMocks {
	return gatewayMocks{
		payments:     &MockPaymentsClient{},
		receipts:     &MockReceiptIssuer{},
		spreadsheets: &MockSpreadsheetAppender{},
		vouchers:     &MockVoucherGenerator{},
	}
}

func setupDB(t *testing.T) *sqlx.DB {
	t.Helper()

	url := os.Getenv("TOURS_POSTGRES_URL")
	if url == "" {
		t.Skip("TOURS_POSTGRES_URL not set")
	}

	dbConn, err := sqlx.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbConn.Close()
	})

	require.NoError(t, db.InitialiseDB(context.Background(), dbConn))
	return dbConn
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TOURS_REDIS_ADDR")
	if addr == "" {
		t.Skip("TOURS_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func startService(t *testing.T, dbConn *sqlx.DB, rdb *redis.Client, mocks gatewayMocks) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc, err := service.New(service.Deps{
		Config: config.Config{
			HTTP:     config.HTTPConfig{Addr: ":8080"},
			JWT:      config.JWTConfig{Secret: "component-test", TTL: time.Hour},
			Payments: config.PaymentsConfig{WebhookSecret: webhookSecret},
			Quota:    config.QuotaConfig{FreeTours: 5, FreeBlogs: 5},
			Bookings: config.BookingsConfig{CompletionInterval: time.Hour},
		},
		Logger:              watermill.NewStdLogger(false, false),
		DB:                  dbConn,
		RedisClient:         rdb,
		PaymentsClient:      mocks.payments,
		ReceiptsClient:      mocks.receipts,
		SpreadsheetAppender: mocks.spreadsheets,
		VoucherGenerator:    mocks.vouchers,
		Notifier:            clients.NoopNotifier{},
		TourIndex:           search.Disabled{},
	})
	require.NoError(t, err)

	go func() {
		assert.NoError(t, svc.Run(ctx))
	}()

	waitForHttpServer(t)
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(baseURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode)
		},
		time.Second*10,
		time.Millisecond*50,
	)
}

// call sends a JSON request and decodes a successful response into out when it is not nil.
// It returns 0 when the request could not be made.
func call(t assert.TestingT, method, path, token string, body any, out any, headers ...string) int {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if !assert.NoError(t, err) {
			return 0
		}
	}

	req, err := http.NewRequest(method, baseURL+path, bytes.NewBuffer(payload))
	if !assert.NoError(t, err) {
		return 0
	}

	req.Header.Set("Correlation-ID", shortuuid.New())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if !assert.NoError(t, err) {
		return 0
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if !assert.NoError(t, err) {
		return 0
	}

	if out != nil && resp.StatusCode < 300 {
		assert.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

type authResponse struct {
	Token string      `json:"token"`
	User  entity.User `json:"user"`
}

func register(t *testing.T, role entity.Role) authResponse {
	t.Helper()

	var resp authResponse
	code := call(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     string(role) + " " + shortuuid.New(),
		"email":    uuid.NewString() + "@example.com",
		"password": "component-pass",
		"role":     string(role),
	}, &resp)
	require.Equal(t, http.StatusCreated, code)

	return resp
}

func createAdmin(t *testing.T, dbConn *sqlx.DB) authResponse {
	t.Helper()

	hash, err := auth.HashPassword("component-pass")
	require.NoError(t, err)

	email := uuid.NewString() + "@example.com"
	err = db.NewUserRepo(dbConn).Add(context.Background(), entity.User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		Status:       entity.UserActive,
	})
	require.NoError(t, err)

	var resp authResponse
	code := call(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "component-pass",
	}, &resp)
	require.Equal(t, http.StatusOK, code)

	return resp
}

func eventually(t *testing.T, condition func(t *assert.CollectT)) {
	t.Helper()
	assert.EventuallyWithT(t, condition, 10*time.Second, 100*time.Millisecond)
}
