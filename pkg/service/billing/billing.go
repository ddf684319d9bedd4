// Package billing integrates Stripe subscriptions: checkout with a free
// trial, the customer portal, and webhook-driven plan changes.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

var (
	ErrNotConfigured = errors.New("billing is not configured")
	ErrNoCustomer    = errors.New("no billing customer for user")
)

// SubscriptionStore is the persistence surface billing needs.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*domain.Subscription, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscribedByCustomer(ctx context.Context, customerID string, subscribed bool) error
	SetTrialEnd(ctx context.Context, userID string, end *time.Time) error
}

// Config carries the Stripe account settings.
type Config struct {
	SecretKey      string
	WebhookSecret  string
	PriceIDMonthly string
	FrontendURL    string
	PortalLoginURL string
	TrialDays      int
}

// Service drives checkout, portal, and webhook flows against Stripe.
type Service struct {
	subs SubscriptionStore
	cfg  Config
	now  func() time.Time
}

// NewService wires the Stripe API key and returns the billing service.
func NewService(subs SubscriptionStore, cfg Config) *Service {
	if cfg.SecretKey != "" {
		stripe.Key = cfg.SecretKey
	}
	return &Service{subs: subs, cfg: cfg, now: time.Now}
}

// ensureCustomer finds or creates the Stripe Customer for a user and
// stores its id on the subscription record.
func (s *Service) ensureCustomer(ctx context.Context, userID, email string) (string, error) {
	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.StripeCustomerID != "" {
		return sub.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{"user_id": userID},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	if err := s.subs.SetStripeCustomerID(ctx, userID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CreateCheckout starts a subscription checkout session. First-time
// subscribers get the configured free-trial period; anyone whose trial
// window has already been opened checks out without one.
func (s *Service) CreateCheckout(ctx context.Context, userID, email string) (string, error) {
	frontendURL := strings.TrimRight(s.cfg.FrontendURL, "/")
	if s.cfg.PriceIDMonthly == "" || frontendURL == "" {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}

	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceIDMonthly),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontendURL + "/billing/success"),
		CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
	}

	withTrial := s.cfg.TrialDays > 0 && sub.TrialEndDate == nil
	if withTrial {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(int64(s.cfg.TrialDays)),
		}
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	if withTrial {
		end := s.now().UTC().AddDate(0, 0, s.cfg.TrialDays)
		if err := s.subs.SetTrialEnd(ctx, userID, &end); err != nil {
			log.Printf("failed to record trial end for user %s: %v", userID, err)
		}
	}

	return sess.URL, nil
}

// CreatePortal opens a Stripe customer portal session so the user can
// manage or cancel their subscription.
func (s *Service) CreatePortal(ctx context.Context, userID string) (string, error) {
	frontendURL := strings.TrimRight(s.cfg.FrontendURL, "/")
	if frontendURL == "" {
		return "", ErrNotConfigured
	}

	sub, err := s.subs.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.StripeCustomerID == "" {
		if s.cfg.PortalLoginURL != "" {
			return s.cfg.PortalLoginURL, nil
		}
		return "", ErrNoCustomer
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(frontendURL + "/settings/billing"),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook verifies a Stripe webhook payload and applies the plan
// change it describes. Unhandled event types are ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("invalid checkout session payload: %w", err)
		}
		customerID := customerIDOf(sess.Customer)
		if customerID == "" {
			return errors.New("checkout session missing customer id")
		}
		return s.subs.SetSubscribedByCustomer(ctx, customerID, true)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("invalid subscription payload: %w", err)
		}
		customerID := customerIDOf(sub.Customer)
		if customerID == "" {
			return errors.New("subscription event missing customer id")
		}
		return s.subs.SetSubscribedByCustomer(ctx, customerID, false)
	}

	return nil
}

func customerIDOf(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
