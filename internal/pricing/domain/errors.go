package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLineItem     = errors.New("invalid_line_item")
	ErrInvalidStore        = errors.New("invalid_store")
	ErrMissingDestination  = errors.New("missing_destination")
	ErrInvalidQuoteRequest = errors.New("invalid_quote_request")
)

// RejectionReason is a typed reason a rule or order could not be applied.
type RejectionReason string

const (
	ReasonNotFound            RejectionReason = "not_found"
	ReasonInactive            RejectionReason = "inactive"
	ReasonNotStarted          RejectionReason = "not_started"
	ReasonExpired             RejectionReason = "expired"
	ReasonMinOrderValueNotMet RejectionReason = "min_order_value_not_met"
	ReasonExhausted           RejectionReason = "exhausted"
	ReasonUnshippable         RejectionReason = "unshippable"
)

// Rejection is returned instead of a generic error whenever a rule is
// refused. Code() yields identifiers such as "coupon_expired".
type Rejection struct {
	Kind   RuleKind        `json:"kind"`
	RuleID int64           `json:"rule_id,omitempty,string"`
	Reason RejectionReason `json:"reason"`
}

func (r *Rejection) Code() string {
	return fmt.Sprintf("%s_%s", r.Kind, r.Reason)
}

func (r *Rejection) Error() string {
	return r.Code()
}

// NewRejection builds a rejection for rule with the given reason.
func NewRejection(rule Rule, reason RejectionReason) *Rejection {
	return &Rejection{Kind: rule.Kind(), RuleID: rule.RuleID(), Reason: reason}
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
