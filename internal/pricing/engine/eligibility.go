package engine

import (
	"github.com/smallbiznis/storefront/internal/catalog/tree"
	"github.com/smallbiznis/storefront/internal/pricing/domain"
)

// Matcher decides whether a scoped rule applies to a line item.
type Matcher struct {
	cascade bool
	forest  *tree.Forest[domain.Category]
}

// NewMatcher builds a matcher. With cascade set, a category-scoped rule
// also matches items filed under any descendant of an included category.
func NewMatcher(categories []domain.Category, cascade bool) *Matcher {
	m := &Matcher{cascade: cascade}
	if cascade {
		m.forest = tree.Build(categories)
	}
	return m
}

func (m *Matcher) Matches(rule domain.Scoped, item domain.LineItem) bool {
	scope := rule.RuleScope().Effective()

	switch scope.Kind {
	case domain.ScopeAll:
		return !containsID(scope.ExcludedProductIDs, item.ProductID)
	case domain.ScopeSpecificProducts:
		return containsID(scope.ProductIDs, item.ProductID)
	case domain.ScopeSpecificCategories:
		if item.CategoryID == nil {
			return false
		}
		if containsID(scope.ExcludedProductIDs, item.ProductID) {
			return false
		}
		return m.categoryIncluded(scope.CategoryIDs, *item.CategoryID)
	default:
		return false
	}
}

// MatchIndexes returns the positions of items the rule applies to.
func (m *Matcher) MatchIndexes(rule domain.Scoped, items []domain.LineItem) []int {
	var out []int
	for i, item := range items {
		if m.Matches(rule, item) {
			out = append(out, i)
		}
	}
	return out
}

func (m *Matcher) categoryIncluded(included []int64, categoryID int64) bool {
	if containsID(included, categoryID) {
		return true
	}
	if !m.cascade || m.forest == nil {
		return false
	}
	for _, ancestor := range m.forest.Ancestors(categoryID) {
		if containsID(included, ancestor) {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
