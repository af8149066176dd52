package engine

import (
	"time"

	"github.com/smallbiznis/storefront/internal/pricing/domain"
)

// Gate checks the active flag, activation window, minimum order value and,
// for capped rules, the usage counter. It returns nil when the rule may be
// applied and the first failing reason otherwise.
func Gate(rule domain.Gated, ctx domain.OrderContext, now time.Time) *domain.Rejection {
	if !rule.Active() {
		return domain.NewRejection(rule, domain.ReasonInactive)
	}

	window := rule.ActivationWindow()
	if window.StartsAt != nil && now.Before(*window.StartsAt) {
		return domain.NewRejection(rule, domain.ReasonNotStarted)
	}
	if window.EndsAt != nil && now.After(*window.EndsAt) {
		return domain.NewRejection(rule, domain.ReasonExpired)
	}

	if min := rule.MinimumOrderValue(); min != nil && ctx.PreDiscountSubtotal.LessThan(*min) {
		return domain.NewRejection(rule, domain.ReasonMinOrderValueNotMet)
	}

	if capped, ok := rule.(domain.Capped); ok {
		limit, count := capped.UsageCap()
		if limit != nil && count >= *limit {
			return domain.NewRejection(rule, domain.ReasonExhausted)
		}
	}

	return nil
}

// IsValid is Gate reduced to a boolean.
func IsValid(rule domain.Gated, ctx domain.OrderContext, now time.Time) bool {
	return Gate(rule, ctx, now) == nil
}
