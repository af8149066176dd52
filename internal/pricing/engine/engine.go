// Package engine prices a cart against a store's rule snapshot.
//
// Everything here is a pure function of cart, snapshot, policy and the
// supplied timestamp. No I/O, no clocks, no rounding before the caller asks
// for OrderTotals.Rounded.
package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/pricing/domain"
)

// TaxBase selects which amount percentage taxes are levied on.
type TaxBase string

const (
	TaxBasePostDiscount TaxBase = "post_discount"
	TaxBasePreDiscount  TaxBase = "pre_discount"
)

// Policy holds the store-independent pricing switches.
type Policy struct {
	CascadeToSubcategories bool
	TaxBase                TaxBase
}

// DefaultPolicy matches categories exactly and taxes the discounted amount.
func DefaultPolicy() Policy {
	return Policy{CascadeToSubcategories: false, TaxBase: TaxBasePostDiscount}
}

type Engine struct {
	policy Policy
}

func New(policy Policy) *Engine {
	if policy.TaxBase != TaxBasePreDiscount {
		policy.TaxBase = TaxBasePostDiscount
	}
	return &Engine{policy: policy}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// ledger tracks how much of each line has been discounted so far.
type ledger struct {
	items     []domain.LineItem
	totals    []decimal.Decimal
	allocated []decimal.Decimal
}

func newLedger(items []domain.LineItem) *ledger {
	l := &ledger{
		items:     items,
		totals:    make([]decimal.Decimal, len(items)),
		allocated: make([]decimal.Decimal, len(items)),
	}
	for i, item := range items {
		l.totals[i] = item.LineTotal()
		l.allocated[i] = decimal.Zero
	}
	return l
}

func (l *ledger) gross(idx []int) []MatchedLine {
	out := make([]MatchedLine, 0, len(idx))
	for _, i := range idx {
		out = append(out, MatchedLine{Item: l.items[i], Base: l.totals[i]})
	}
	return out
}

func (l *ledger) net(idx []int) []MatchedLine {
	out := make([]MatchedLine, 0, len(idx))
	for _, i := range idx {
		out = append(out, MatchedLine{Item: l.items[i], Base: l.totals[i].Sub(l.allocated[i])})
	}
	return out
}

// room is the part of the subtotal not yet discounted.
func (l *ledger) room() decimal.Decimal {
	out := decimal.Zero
	for i := range l.totals {
		out = out.Add(l.totals[i].Sub(l.allocated[i]))
	}
	return out
}

// allocate books amount against the lines, capped at the undiscounted
// remainder of the subtotal, and returns the amount booked. The amount is
// spread over the matched lines in proportion to their totals, the last
// matched line taking the remainder; whatever a full line cannot take moves
// to matched lines with room left, then to the rest of the cart.
func (l *ledger) allocate(amount decimal.Decimal, idx []int) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	if room := l.room(); amount.GreaterThan(room) {
		amount = room
	}
	if !amount.IsPositive() {
		return decimal.Zero
	}

	matched := decimal.Zero
	for _, i := range idx {
		matched = matched.Add(l.totals[i])
	}

	left := amount
	if matched.IsPositive() {
		rest := amount
		for n, i := range idx {
			share := rest
			if n < len(idx)-1 {
				share = amount.Mul(l.totals[i]).Div(matched)
			}
			rest = rest.Sub(share)
			left = left.Sub(l.book(i, share))
		}
	}
	left = l.spill(left, idx)
	if left.IsPositive() {
		all := make([]int, len(l.totals))
		for i := range all {
			all[i] = i
		}
		left = l.spill(left, all)
	}
	return amount.Sub(left)
}

// book adds up to share to line i without exceeding its total.
func (l *ledger) book(i int, share decimal.Decimal) decimal.Decimal {
	room := l.totals[i].Sub(l.allocated[i])
	if share.GreaterThan(room) {
		share = room
	}
	if !share.IsPositive() {
		return decimal.Zero
	}
	l.allocated[i] = l.allocated[i].Add(share)
	return share
}

// spill spreads amount over idx in proportion to each line's room. The last
// line with room takes the remainder. It returns what did not fit.
func (l *ledger) spill(amount decimal.Decimal, idx []int) decimal.Decimal {
	if !amount.IsPositive() {
		return amount
	}
	var open []int
	room := decimal.Zero
	for _, i := range idx {
		if r := l.totals[i].Sub(l.allocated[i]); r.IsPositive() {
			open = append(open, i)
			room = room.Add(r)
		}
	}
	if len(open) == 0 {
		return amount
	}

	left := amount
	for n, i := range open {
		share := left
		if n < len(open)-1 {
			share = amount.Mul(l.totals[i].Sub(l.allocated[i])).Div(room)
		}
		left = left.Sub(l.book(i, share))
	}
	return left
}

// Price folds the snapshot over the cart: subtotal, coupon, discounts,
// shipping, taxes, total. A missing shipping rate is returned as an
// unshippable *domain.Rejection; a refused coupon is reported on the
// totals and pricing continues without it.
func (e *Engine) Price(cart domain.Cart, snapshot domain.Snapshot, now time.Time) (*domain.OrderTotals, error) {
	for _, item := range cart.Items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidLineItem
		}
	}

	matcher := NewMatcher(snapshot.Categories, e.policy.CascadeToSubcategories)
	led := newLedger(cart.Items)

	subtotal := decimal.Zero
	for _, t := range led.totals {
		subtotal = subtotal.Add(t)
	}
	orderCtx := domain.OrderContext{PreDiscountSubtotal: subtotal}

	totals := &domain.OrderTotals{
		Currency:     cart.Currency,
		Subtotal:     subtotal,
		Discounts:    []domain.AppliedRule{},
		TaxBreakdown: []domain.TaxLine{},
	}

	discountTotal := decimal.Zero

	if code := domain.NormalizeCouponCode(cart.CouponCode); code != "" {
		coupon, rejection := resolveCoupon(code, snapshot.Coupons, orderCtx, now)
		if rejection != nil {
			totals.CouponRejection = rejection
		} else {
			idx := matcher.MatchIndexes(coupon, cart.Items)
			effect := ComputeEffect(coupon, led.gross(idx))
			applied := led.allocate(effect.Amount, idx)
			discountTotal = discountTotal.Add(applied)
			totals.Coupon = &domain.AppliedRule{
				Kind:   domain.RuleKindCoupon,
				RuleID: coupon.ID,
				Label:  coupon.Code,
				Amount: applied,
				Basis:  effect.Basis,
			}
		}
	}

	for _, discount := range snapshot.Discounts {
		if Gate(discount, orderCtx, now) != nil {
			continue
		}
		idx := matcher.MatchIndexes(discount, cart.Items)
		if len(idx) == 0 {
			continue
		}
		effect := ComputeEffect(discount, led.gross(idx))
		applied := led.allocate(effect.Amount, idx)
		discountTotal = discountTotal.Add(applied)
		totals.Discounts = append(totals.Discounts, domain.AppliedRule{
			Kind:   domain.RuleKindDiscount,
			RuleID: discount.ID,
			Label:  discount.Name,
			Amount: applied,
			Basis:  effect.Basis,
		})
	}

	totals.DiscountTotal = discountTotal
	totals.DiscountedSubtotal = subtotal.Sub(discountTotal)

	rate, ok := e.resolveShipping(cart, snapshot.ShippingRates, orderCtx, now)
	if !ok {
		return nil, &domain.Rejection{Kind: domain.RuleKindShipping, Reason: domain.ReasonUnshippable}
	}
	totals.Shipping = domain.ShippingSelection{RateID: rate.ID, Name: rate.Name, Price: rate.Price}
	totals.ShippingCost = rate.Price

	taxTotal := decimal.Zero
	for _, tax := range snapshot.Taxes {
		if Gate(tax, orderCtx, now) != nil {
			continue
		}
		idx := matcher.MatchIndexes(tax, cart.Items)
		if len(idx) == 0 {
			continue
		}
		lines := led.net(idx)
		if e.policy.TaxBase == TaxBasePreDiscount {
			lines = led.gross(idx)
		}
		effect := ComputeEffect(tax, lines)
		taxTotal = taxTotal.Add(effect.Amount)
		totals.TaxBreakdown = append(totals.TaxBreakdown, domain.TaxLine{
			TaxID:        tax.ID,
			Code:         tax.Code,
			Name:         tax.Name,
			Kind:         tax.TaxKind,
			Rate:         tax.Value,
			ApplyPerItem: tax.ApplyPerItem,
			MatchedUnits: effect.MatchedUnits,
			Basis:        effect.Basis,
			Amount:       effect.Amount,
		})
	}
	totals.TaxTotal = taxTotal

	totals.Lines = make([]domain.PricedLine, len(cart.Items))
	for i, item := range cart.Items {
		totals.Lines[i] = domain.PricedLine{
			LineItem:  item,
			LineTotal: led.totals[i],
			Discount:  led.allocated[i],
			Net:       led.totals[i].Sub(led.allocated[i]),
		}
	}

	totals.Total = totals.DiscountedSubtotal.Add(totals.ShippingCost).Add(taxTotal)
	return totals, nil
}

func resolveCoupon(code string, coupons []domain.Coupon, ctx domain.OrderContext, now time.Time) (domain.Coupon, *domain.Rejection) {
	for _, c := range coupons {
		if domain.NormalizeCouponCode(c.Code) != code {
			continue
		}
		if rej := Gate(c, ctx, now); rej != nil {
			return domain.Coupon{}, rej
		}
		return c, nil
	}
	return domain.Coupon{}, &domain.Rejection{Kind: domain.RuleKindCoupon, Reason: domain.ReasonNotFound}
}

// resolveShipping picks one rate for the destination: a regional match
// beats a country-wide rate; ties go to the cheaper, then older, rate.
func (e *Engine) resolveShipping(cart domain.Cart, rates []domain.ShippingRate, ctx domain.OrderContext, now time.Time) (domain.ShippingRate, bool) {
	country := strings.TrimSpace(cart.Destination.Country)
	region := strings.TrimSpace(cart.Destination.Region)
	if country == "" {
		return domain.ShippingRate{}, false
	}

	type candidate struct {
		rate     domain.ShippingRate
		regional bool
	}
	var candidates []candidate
	for _, rate := range rates {
		if !strings.EqualFold(strings.TrimSpace(rate.Country), country) {
			continue
		}
		if cart.CashOnDelivery && !rate.AcceptsCOD {
			continue
		}
		if Gate(rate, ctx, now) != nil {
			continue
		}
		regional := false
		if rate.Region != nil && strings.TrimSpace(*rate.Region) != "" {
			if !strings.EqualFold(strings.TrimSpace(*rate.Region), region) {
				continue
			}
			regional = true
		}
		candidates = append(candidates, candidate{rate: rate, regional: regional})
	}
	if len(candidates) == 0 {
		return domain.ShippingRate{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.regional != b.regional {
			return a.regional
		}
		if !a.rate.Price.Equal(b.rate.Price) {
			return a.rate.Price.LessThan(b.rate.Price)
		}
		return a.rate.ID < b.rate.ID
	})
	return candidates[0].rate, true
}
