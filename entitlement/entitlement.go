// Package entitlement decides what a user's subscription allows.
package entitlement

import (
	"context"
	"time"

	"github.com/seo-optimizer/seoscan/errs"
	"github.com/seo-optimizer/seoscan/models"
)

// Unlimited is the ProjectLimit of plans without a cap.
const Unlimited = -1

// StarterProductID is the billing product of the Starter plan.
const StarterProductID = "prod_TH9wmvuriJwECc"

const starterProjectLimit = 10

type Checker interface {
	// Check returns an errs.SubscriptionRequired error unless user may run
	// project analyses.
	Check(ctx context.Context, user models.User) error
	// ProjectLimit is the number of active projects user may own.
	ProjectLimit(user models.User) int
}

// PlanChecker reads the subscription fields stored on the user.
type PlanChecker struct {
	StarterProductID string
	now              func() time.Time
}

func NewPlanChecker() *PlanChecker {
	return &PlanChecker{StarterProductID: StarterProductID, now: time.Now}
}

func (c *PlanChecker) active(user models.User) bool {
	if !user.Subscribed {
		return false
	}
	return user.SubscriptionEnd == nil || user.SubscriptionEnd.After(c.now())
}

func (c *PlanChecker) Check(_ context.Context, user models.User) error {
	if !c.active(user) {
		return errs.New(errs.SubscriptionRequired, "user "+user.ID+" has no active subscription")
	}
	return nil
}

func (c *PlanChecker) ProjectLimit(user models.User) int {
	switch {
	case !c.active(user):
		return 0
	case user.ProductID == c.StarterProductID:
		return starterProjectLimit
	default:
		return Unlimited
	}
}

// Allows reports whether a user owning count projects may add another.
func Allows(limit int, count int64) bool {
	return limit == Unlimited || count < int64(limit)
}
