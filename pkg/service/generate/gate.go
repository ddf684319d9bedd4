package generate

import (
	"context"
	"errors"

	"github.com/writestuff/writestuff-api/pkg/repository/subscriptions"
)

// Deny reasons shown to the user, matching the product copy.
const (
	ReasonNotAuthenticated = "Not authenticated"
	ReasonSubscribe        = "Please subscribe or renew to continue."
)

// DeniedError is returned when the entitlement gate blocks an action.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Decision is the gate's verdict for one intended query.
type Decision struct {
	Allowed bool
	Reason  string
	// Metered marks queries that must consume one unit of quota once the
	// downstream generation succeeds. Admins and subscribers are not
	// metered.
	Metered bool
}

// Gate decides whether a user may issue a paid query. First match wins:
// admin, subscriber, remaining trial quota, otherwise deny.
type Gate struct {
	subs SubscriptionStore
}

func NewGate(subs SubscriptionStore) *Gate {
	return &Gate{subs: subs}
}

// Check reads the user's entitlement record and returns the admission
// decision. It never mutates counters; consumption happens separately
// after the generation call succeeds.
func (g *Gate) Check(ctx context.Context, userID string) (Decision, error) {
	if userID == "" {
		return Decision{Reason: ReasonNotAuthenticated}, nil
	}

	sub, err := g.subs.Get(ctx, userID)
	if err != nil {
		// No record means no entitlement, not a system failure.
		if errors.Is(err, subscriptions.ErrUserNotFound) {
			return Decision{Reason: ReasonSubscribe}, nil
		}
		return Decision{}, err
	}

	switch {
	case sub.IsAdmin, sub.IsSubscribed:
		return Decision{Allowed: true}, nil
	case sub.QueriesRemaining > 0:
		return Decision{Allowed: true, Metered: true}, nil
	default:
		return Decision{Reason: ReasonSubscribe}, nil
	}
}
