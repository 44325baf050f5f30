package marketplace

import (
	"context"
	"errors"
	"testing"

	"github.com/clearlot-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPurchases struct{ mock.Mock }

func (m *mockPurchases) Get(ctx context.Context, id string) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Purchase)
	return p, args.Error(1)
}

func (m *mockPurchases) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Purchase, string, error) {
	args := m.Called(ctx, limit, cursor)
	ps, _ := args.Get(0).([]domain.Purchase)
	return ps, args.String(1), args.Error(2)
}

func (m *mockPurchases) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockOffers struct{ mock.Mock }

func (m *mockOffers) Get(ctx context.Context, id string) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Offer)
	return o, args.Error(1)
}

func (m *mockOffers) UpdatePrice(ctx context.Context, id string, price float64) error {
	return m.Called(ctx, id, price).Error(0)
}

func (m *mockOffers) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in domain.NotificationInput) error {
	return m.Called(ctx, in).Error(0)
}

type passEnricher struct{}

func (passEnricher) Enrich(_ context.Context, ps []domain.Purchase) []domain.EnrichedPurchase {
	out := make([]domain.EnrichedPurchase, len(ps))
	for i, p := range ps {
		out[i] = domain.EnrichedPurchase{Purchase: p}
	}
	return out
}

type fixture struct {
	purchases *mockPurchases
	offers    *mockOffers
	users     *mockUsers
	pub       *mockPublisher
	svc       Service
}

func newFixture() *fixture {
	f := &fixture{purchases: &mockPurchases{}, offers: &mockOffers{}, users: &mockUsers{}, pub: &mockPublisher{}}
	f.svc = NewService(ServiceDeps{Purchases: f.purchases, Offers: f.offers, Users: f.users, Enricher: passEnricher{}, Publisher: f.pub})
	return f
}

func ofType(t domain.NotificationType) interface{} {
	return mock.MatchedBy(func(in domain.NotificationInput) bool { return in.Type == t })
}

// --- purchases ---

func TestListPurchases_ClampsLimit(t *testing.T) {
	f := newFixture()
	f.purchases.On("ScanPage", mock.Anything, int32(20), "").Return([]domain.Purchase{{PurchaseID: "p1"}}, "next", nil)

	page, err := f.svc.ListPurchases(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, "next", page.NextCursor)
	assert.Equal(t, "p1", page.Items[0].PurchaseID)
}

func TestUpdatePurchaseStatus_PublishesMatchingTrigger(t *testing.T) {
	cases := []struct {
		status string
		want   domain.NotificationType
	}{
		{domain.PurchaseStatusPaid, domain.NotificationPayment},
		{domain.PurchaseStatusApproved, domain.NotificationPaymentApproved},
		{domain.PurchaseStatusShipped, domain.NotificationOrderStatus},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			f := newFixture()
			f.purchases.On("Get", mock.Anything, "p1").Return(&domain.Purchase{PurchaseID: "p1", BuyerID: "b1", Status: domain.PurchaseStatusPending}, nil)
			f.purchases.On("UpdateStatus", mock.Anything, "p1", tc.status).Return(nil)
			f.pub.On("Publish", mock.Anything, ofType(tc.want)).Return(nil).Once()

			require.NoError(t, f.svc.UpdatePurchaseStatus(context.Background(), "p1", tc.status))
			f.pub.AssertExpectations(t)
		})
	}
}

func TestUpdatePurchaseStatus_Unchanged(t *testing.T) {
	f := newFixture()
	f.purchases.On("Get", mock.Anything, "p1").Return(&domain.Purchase{PurchaseID: "p1", Status: domain.PurchaseStatusShipped}, nil)

	require.NoError(t, f.svc.UpdatePurchaseStatus(context.Background(), "p1", domain.PurchaseStatusShipped))
	f.purchases.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdatePurchaseStatus_UnknownStatus(t *testing.T) {
	err := newFixture().svc.UpdatePurchaseStatus(context.Background(), "p1", "lost")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdatePurchaseStatus_PublishFailureIsNotAnError(t *testing.T) {
	f := newFixture()
	f.purchases.On("Get", mock.Anything, "p1").Return(&domain.Purchase{PurchaseID: "p1", Status: domain.PurchaseStatusPaid}, nil)
	f.purchases.On("UpdateStatus", mock.Anything, "p1", domain.PurchaseStatusCancelled).Return(nil)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(domain.ErrUnavailable)

	assert.NoError(t, f.svc.UpdatePurchaseStatus(context.Background(), "p1", domain.PurchaseStatusCancelled))
}

func TestNotifyPurchase_BuyerAndSeller(t *testing.T) {
	f := newFixture()
	f.purchases.On("Get", mock.Anything, "p1").Return(&domain.Purchase{PurchaseID: "p1", OfferID: "o1", BuyerID: "b1", SellerID: "s1"}, nil)
	f.offers.On("Get", mock.Anything, "o1").Return(nil, domain.ErrNotFound)
	f.pub.On("Publish", mock.Anything, ofType(domain.NotificationPurchase)).Return(nil).Once()
	f.pub.On("Publish", mock.Anything, ofType(domain.NotificationOfferPurchased)).Return(nil).Once()

	require.NoError(t, f.svc.NotifyPurchase(context.Background(), "p1"))
	f.pub.AssertExpectations(t)
}

// --- offers and accounts ---

func TestUpdateOfferStatus(t *testing.T) {
	f := newFixture()
	f.offers.On("UpdateStatus", mock.Anything, "o1", "sold_out").Return(nil)
	f.offers.On("Get", mock.Anything, "o1").Return(&domain.Offer{OfferID: "o1", SellerID: "s1", Status: "sold_out"}, nil)
	f.pub.On("Publish", mock.Anything, ofType(domain.NotificationOfferSalesStatus)).Return(nil).Once()

	require.NoError(t, f.svc.UpdateOfferStatus(context.Background(), "o1", "sold_out"))
	f.pub.AssertExpectations(t)
}

func TestUpdateOfferPrice(t *testing.T) {
	f := newFixture()
	f.offers.On("UpdatePrice", mock.Anything, "o1", 80.0).Return(nil)

	require.NoError(t, f.svc.UpdateOfferPrice(context.Background(), "o1", 80))
	assert.ErrorIs(t, f.svc.UpdateOfferPrice(context.Background(), "o1", 0), domain.ErrBadRequest)
	f.offers.AssertExpectations(t)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestUpdateAccountStatus(t *testing.T) {
	f := newFixture()
	f.users.On("UpdateStatus", mock.Anything, "u1", domain.UserStatusVerified).Return(nil)
	f.pub.On("Publish", mock.Anything, ofType(domain.NotificationVerificationStatus)).Return(nil).Once()

	require.NoError(t, f.svc.UpdateAccountStatus(context.Background(), "u1", domain.UserStatusVerified, true))
	f.pub.AssertExpectations(t)
}

func TestUpdateAccountStatus_StoreFailure(t *testing.T) {
	f := newFixture()
	f.users.On("UpdateStatus", mock.Anything, "u1", domain.UserStatusBlocked).Return(domain.ErrNotFound)

	err := f.svc.UpdateAccountStatus(context.Background(), "u1", domain.UserStatusBlocked, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// --- announcements ---

func TestAnnounce_CountsDeliveries(t *testing.T) {
	f := newFixture()
	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool { return in.UserID == "u1" })).Return(nil)
	f.pub.On("Publish", mock.Anything, mock.MatchedBy(func(in domain.NotificationInput) bool { return in.UserID == "u2" })).Return(errors.New("down"))

	n, err := f.svc.Announce(context.Background(), Announcement{UserIDs: []string{"u1", "u2"}, Title: "Maintenance", Message: "Tonight"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnnounce_AllFailed(t *testing.T) {
	f := newFixture()
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(domain.ErrUnavailable)

	_, err := f.svc.Announce(context.Background(), Announcement{UserIDs: []string{"u1"}, Title: "x", Message: "y"})
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
