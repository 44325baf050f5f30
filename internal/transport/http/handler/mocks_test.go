package handler

import (
	"context"
	"net/http"

	"github.com/clearlot-api/internal/application/auth"
	"github.com/clearlot-api/internal/application/invoice"
	"github.com/clearlot-api/internal/application/marketplace"
	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/application/upload"
	"github.com/clearlot-api/internal/domain"
	jwtinfra "github.com/clearlot-api/internal/infrastructure/jwt"
	"github.com/clearlot-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockNotificationSvc struct {
	mock.Mock
	watch func(fn func(notification.View)) // optional override for Watch
}

func (m *mockNotificationSvc) List(ctx context.Context, userID string) (notification.View, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(notification.View), args.Error(1)
}

func (m *mockNotificationSvc) Publish(ctx context.Context, in domain.NotificationInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func (m *mockNotificationSvc) MarkAllAsRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockNotificationSvc) Delete(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func (m *mockNotificationSvc) ClearAll(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockNotificationSvc) Watch(ctx context.Context, userID string, fn func(notification.View)) (func(), error) {
	if m.watch != nil {
		m.watch(fn)
		return func() {}, nil
	}
	args := m.Called(ctx, userID)
	return func() {}, args.Error(0)
}

type mockMarketSvc struct{ mock.Mock }

func (m *mockMarketSvc) ListPurchases(ctx context.Context, limit int32, cursor string) (*marketplace.PurchasePage, error) {
	args := m.Called(ctx, limit, cursor)
	if p, _ := args.Get(0).(*marketplace.PurchasePage); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMarketSvc) UpdatePurchaseStatus(ctx context.Context, purchaseID, status string) error {
	return m.Called(ctx, purchaseID, status).Error(0)
}

func (m *mockMarketSvc) NotifyPurchase(ctx context.Context, purchaseID string) error {
	return m.Called(ctx, purchaseID).Error(0)
}

func (m *mockMarketSvc) UpdateOfferStatus(ctx context.Context, offerID, status string) error {
	return m.Called(ctx, offerID, status).Error(0)
}

func (m *mockMarketSvc) UpdateOfferPrice(ctx context.Context, offerID string, price float64) error {
	return m.Called(ctx, offerID, price).Error(0)
}

func (m *mockMarketSvc) UpdateAccountStatus(ctx context.Context, userID, status string, verification bool) error {
	return m.Called(ctx, userID, status, verification).Error(0)
}

func (m *mockMarketSvc) Announce(ctx context.Context, a marketplace.Announcement) (int, error) {
	args := m.Called(ctx, a)
	return args.Int(0), args.Error(1)
}

type mockInvoiceSvc struct{ mock.Mock }

func (m *mockInvoiceSvc) Generate(ctx context.Context, purchaseID string, format invoice.Format) (*invoice.File, error) {
	args := m.Called(ctx, purchaseID, format)
	if f, _ := args.Get(0).(*invoice.File); f != nil {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInvoiceSvc) Archive(ctx context.Context, purchaseID string, format invoice.Format) (string, error) {
	args := m.Called(ctx, purchaseID, format)
	return args.String(0), args.Error(1)
}

func (m *mockInvoiceSvc) Template() domain.InvoiceTemplate { return domain.InvoiceTemplate{} }

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUploadSvc struct{ mock.Mock }

func (m *mockUploadSvc) Upload(ctx context.Context, in upload.Input) (*upload.Result, error) {
	args := m.Called(ctx, in)
	if r, _ := args.Get(0).(*upload.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// asUser attaches claims for userID/role to r, as middleware.Auth would.
func asUser(r *http.Request, userID, role string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Email: userID + "@example.com", Role: role}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

// withURLParams injects chi URL params into the request context.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
