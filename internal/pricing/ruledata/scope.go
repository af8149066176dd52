// Package ruledata holds the persistence shapes shared by the coupon,
// discount and tax tables: scope columns, activation windows and amount
// validation.
package ruledata

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"gorm.io/datatypes"
)

// ScopeColumns is embedded into every scoped rule row.
type ScopeColumns struct {
	ScopeKind          pricingdomain.ScopeKind    `gorm:"column:scope_kind;type:text;not null"`
	ProductIDs         datatypes.JSONSlice[int64] `gorm:"column:product_ids;not null"`
	CategoryIDs        datatypes.JSONSlice[int64] `gorm:"column:category_ids;not null"`
	ExcludedProductIDs datatypes.JSONSlice[int64] `gorm:"column:excluded_product_ids;not null"`
}

type ScopeRequest struct {
	Kind               string   `json:"kind"`
	ProductIDs         []string `json:"product_ids,omitempty"`
	CategoryIDs        []string `json:"category_ids,omitempty"`
	ExcludedProductIDs []string `json:"excluded_product_ids,omitempty"`
}

type ScopeResponse struct {
	Kind               pricingdomain.ScopeKind `json:"kind"`
	ProductIDs         []string                `json:"product_ids"`
	CategoryIDs        []string                `json:"category_ids"`
	ExcludedProductIDs []string                `json:"excluded_product_ids"`
}

// ParseScope validates a scope request. Sets the kind does not select are
// dropped so stale selections never reach storage.
func ParseScope(req ScopeRequest) (ScopeColumns, error) {
	kind := pricingdomain.ScopeKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if kind == "" {
		kind = pricingdomain.ScopeAll
	}
	if !kind.Valid() {
		return ScopeColumns{}, ErrInvalidScope
	}

	products, err := parseIDs(req.ProductIDs)
	if err != nil {
		return ScopeColumns{}, err
	}
	categories, err := parseIDs(req.CategoryIDs)
	if err != nil {
		return ScopeColumns{}, err
	}
	excluded, err := parseIDs(req.ExcludedProductIDs)
	if err != nil {
		return ScopeColumns{}, err
	}

	effective := pricingdomain.Scope{
		Kind:               kind,
		ProductIDs:         products,
		CategoryIDs:        categories,
		ExcludedProductIDs: excluded,
	}.Effective()

	return ScopeColumns{
		ScopeKind:          effective.Kind,
		ProductIDs:         nonNil(effective.ProductIDs),
		CategoryIDs:        nonNil(effective.CategoryIDs),
		ExcludedProductIDs: nonNil(effective.ExcludedProductIDs),
	}, nil
}

func (s ScopeColumns) ToScope() pricingdomain.Scope {
	return pricingdomain.Scope{
		Kind:               s.ScopeKind,
		ProductIDs:         []int64(s.ProductIDs),
		CategoryIDs:        []int64(s.CategoryIDs),
		ExcludedProductIDs: []int64(s.ExcludedProductIDs),
	}
}

func (s ScopeColumns) ToResponse() ScopeResponse {
	return ScopeResponse{
		Kind:               s.ScopeKind,
		ProductIDs:         formatIDs(s.ProductIDs),
		CategoryIDs:        formatIDs(s.CategoryIDs),
		ExcludedProductIDs: formatIDs(s.ExcludedProductIDs),
	}
}

func parseIDs(values []string) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{}, len(values))
	out := make([]int64, 0, len(values))
	for _, raw := range values {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil || id <= 0 {
			return nil, ErrInvalidScopeID
		}
		if _, dup := seen[id.Int64()]; dup {
			continue
		}
		seen[id.Int64()] = struct{}{}
		out = append(out, id.Int64())
	}
	return out, nil
}

func formatIDs(ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, snowflake.ID(id).String())
	}
	return out
}

func nonNil(ids []int64) datatypes.JSONSlice[int64] {
	if ids == nil {
		return datatypes.JSONSlice[int64]{}
	}
	return datatypes.JSONSlice[int64](ids)
}
