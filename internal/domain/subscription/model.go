package subscription

import (
	"time"

	ierr "github.com/billforge/billforge/internal/errors"
	"github.com/billforge/billforge/internal/types"
)

// SubscriptionStatus is the lifecycle status of a subscription
type SubscriptionStatus string

const (
	StatusActive     SubscriptionStatus = "active"
	StatusTerminated SubscriptionStatus = "terminated"
	StatusCanceled   SubscriptionStatus = "canceled"
)

// Subscription links a customer to a plan. Period boundary resolution
// happens upstream; the core consumes already resolved boundaries.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// CustomerID is the customer the subscription bills
	CustomerID string `db:"customer_id" json:"customer_id"`

	// PlanID is the subscribed plan
	PlanID string `db:"plan_id" json:"plan_id"`

	// BillingEntityID scopes invoice numbering and defaults
	BillingEntityID string `db:"billing_entity_id" json:"billing_entity_id"`

	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// StartedAt and TerminatedAt bound the service life; mid-period
	// values drive proration
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	TerminatedAt *time.Time `db:"terminated_at" json:"terminated_at"`

	types.BaseModel
}

func (s *Subscription) Validate() error {
	if s.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Please provide a customer identifier").
			Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Please provide a plan identifier").
			Mark(ierr.ErrValidation)
	}
	if s.StartedAt.IsZero() {
		return ierr.NewError("started_at is required").
			WithHint("Please provide a subscription start").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminated reports whether the subscription ended before the given time
func (s *Subscription) IsTerminated(at time.Time) bool {
	return s.TerminatedAt != nil && s.TerminatedAt.Before(at)
}
