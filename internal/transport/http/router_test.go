package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/domain"
	jwtinfra "github.com/clearlot-api/internal/infrastructure/jwt"
	appmiddleware "github.com/clearlot-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

// --- fakes ---

type fakeTokens map[string]*jwtinfra.Claims

func (f fakeTokens) Sign(userID, _, _ string) (string, error) { return "tok-" + userID, nil }

func (f fakeTokens) Verify(token string) (*jwtinfra.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type emptyStore struct{}

func (emptyStore) Add(context.Context, domain.NotificationInput) (string, time.Time, error) {
	return "n1", time.Now(), nil
}
func (emptyStore) List(context.Context, string) ([]domain.Notification, error) { return nil, nil }
func (emptyStore) Subscribe(context.Context, string, func(domain.NotificationChange)) (func(), error) {
	return func() {}, nil
}
func (emptyStore) MarkAsRead(context.Context, string) error    { return nil }
func (emptyStore) MarkAllAsRead(context.Context, string) error { return nil }
func (emptyStore) Delete(context.Context, string) error        { return nil }
func (emptyStore) DeleteAll(context.Context, string) error     { return nil }

type noRepo struct{}

func (noRepo) Get(context.Context, string) (*domain.User, error)        { return nil, domain.ErrNotFound }
func (noRepo) GetByEmail(context.Context, string) (*domain.User, error) { return nil, domain.ErrNotFound }
func (noRepo) UpdateStatus(context.Context, string, string) error       { return domain.ErrNotFound }

type noPurchases struct{}

func (noPurchases) Get(context.Context, string) (*domain.Purchase, error) {
	return nil, domain.ErrNotFound
}
func (noPurchases) ScanPage(context.Context, int32, string) ([]domain.Purchase, string, error) {
	return nil, "", nil
}
func (noPurchases) UpdateStatus(context.Context, string, string) error { return domain.ErrNotFound }

type noOffers struct{}

func (noOffers) Get(context.Context, string) (*domain.Offer, error) { return nil, domain.ErrNotFound }
func (noOffers) UpdateStatus(context.Context, string, string) error { return domain.ErrNotFound }
func (noOffers) UpdatePrice(context.Context, string, float64) error { return domain.ErrNotFound }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	hub := notification.NewHub(emptyStore{}, notification.NewBus(), notification.HubOptions{})
	t.Cleanup(hub.Shutdown)
	rl := appmiddleware.NewRateLimiter(rate.Limit(100), 100)
	t.Cleanup(rl.Stop)

	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, &Deps{
		UserRepo:     noRepo{},
		PurchaseRepo: noPurchases{},
		OfferRepo:    noOffers{},
		JWTProvider: fakeTokens{
			"buyer": {UserID: "u1", Role: domain.RoleBuyer},
			"admin": {UserID: "a1", Role: domain.RoleAdmin},
		},
		Hub:          hub,
		LoginLimiter: rl,
	})
}

func TestRouter_Access(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/v1/health-check/ping", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"notifications need a token", http.MethodGet, "/v1/notifications", "", http.StatusUnauthorized},
		{"notifications with token", http.MethodGet, "/v1/notifications", "buyer", http.StatusOK},
		{"unread count", http.MethodGet, "/v1/notifications/unread-count", "buyer", http.StatusOK},
		{"admin route rejects buyer", http.MethodGet, "/v1/admin/purchases", "buyer", http.StatusForbidden},
		{"admin route admits admin", http.MethodGet, "/v1/admin/purchases", "admin", http.StatusOK},
		{"invoice for missing purchase", http.MethodGet, "/v1/admin/purchases/p9/invoice", "admin", http.StatusNotFound},
		{"uploads disabled without store", http.MethodPost, "/v1/uploads/logos", "buyer", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				r.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, r)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRouter_LoginUnknownUser(t *testing.T) {
	router := newTestRouter(t)
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions/login",
		strings.NewReader(`{"email":"nobody@example.com","password":"secret123"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
