package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

type MockSubscriptionStore struct {
	mock.Mock
}

func (m *MockSubscriptionStore) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	args := m.Called(ctx, userID)
	if sub := args.Get(0); sub != nil {
		return sub.(*domain.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubscriptionStore) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockSubscriptionStore) SetSubscribedByCustomer(ctx context.Context, customerID string, subscribed bool) error {
	return m.Called(ctx, customerID, subscribed).Error(0)
}

func (m *MockSubscriptionStore) SetTrialEnd(ctx context.Context, userID string, end *time.Time) error {
	return m.Called(ctx, userID, end).Error(0)
}

const webhookSecret = "whsec_test"

// signPayload builds a Stripe-Signature header for a payload using the
// documented v1 scheme: HMAC-SHA256 over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookService(store *MockSubscriptionStore) *Service {
	return NewService(store, Config{WebhookSecret: webhookSecret})
}

func TestWebhookCheckoutCompletedActivatesSubscription(t *testing.T) {
	store := new(MockSubscriptionStore)
	store.On("SetSubscribedByCustomer", mock.Anything, "cus_123", true).Return(nil)
	svc := newWebhookService(store)

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"customer":"cus_123"}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret))

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestWebhookSubscriptionDeletedCancels(t *testing.T) {
	store := new(MockSubscriptionStore)
	store.On("SetSubscribedByCustomer", mock.Anything, "cus_123", false).Return(nil)
	svc := newWebhookService(store)

	payload := []byte(`{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"customer":"cus_123"}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret))

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := new(MockSubscriptionStore)
	svc := newWebhookService(store)

	payload := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"customer":"cus_123"}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, "whsec_other"))

	assert.Error(t, err)
	store.AssertNotCalled(t, "SetSubscribedByCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookIgnoresUnhandledEvents(t *testing.T) {
	store := new(MockSubscriptionStore)
	svc := newWebhookService(store)

	payload := []byte(`{"id":"evt_4","type":"invoice.paid","data":{"object":{}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret))

	assert.NoError(t, err)
	store.AssertNotCalled(t, "SetSubscribedByCustomer", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookMissingCustomer(t *testing.T) {
	store := new(MockSubscriptionStore)
	svc := newWebhookService(store)

	payload := []byte(`{"id":"evt_5","type":"checkout.session.completed","data":{"object":{}}}`)
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, webhookSecret))

	assert.Error(t, err)
}

func TestWebhookRequiresSecret(t *testing.T) {
	store := new(MockSubscriptionStore)
	svc := NewService(store, Config{})

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckoutRequiresConfiguration(t *testing.T) {
	store := new(MockSubscriptionStore)
	svc := NewService(store, Config{})

	_, err := svc.CreateCheckout(context.Background(), "user-1", "writer@example.com")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPortalFallsBackToLoginURL(t *testing.T) {
	store := new(MockSubscriptionStore)
	store.On("Get", mock.Anything, "user-1").Return(&domain.Subscription{UserID: "user-1"}, nil)
	svc := NewService(store, Config{
		FrontendURL:    "https://example.com",
		PortalLoginURL: "https://billing.stripe.com/p/login/test",
	})

	url, err := svc.CreatePortal(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/login/test", url)
}

func TestPortalWithoutCustomerOrLoginURL(t *testing.T) {
	store := new(MockSubscriptionStore)
	store.On("Get", mock.Anything, "user-1").Return(&domain.Subscription{UserID: "user-1"}, nil)
	svc := NewService(store, Config{FrontendURL: "https://example.com"})

	_, err := svc.CreatePortal(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoCustomer)
}
