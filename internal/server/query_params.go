package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// listQuery holds the filters shared by every rule listing endpoint.
type listQuery struct {
	IsActive *bool
	SortBy   string
	OrderBy  string
}

func parseListQuery(c *gin.Context) (listQuery, error) {
	isActive, err := parseOptionalBool(c.Query("is_active"))
	if err != nil {
		return listQuery{}, newValidationError("is_active", "invalid_is_active", "invalid is_active")
	}

	orderBy := strings.ToLower(strings.TrimSpace(c.Query("order_by")))
	switch orderBy {
	case "", "asc", "desc":
	default:
		return listQuery{}, newValidationError("order_by", "invalid_order_by", "order_by must be asc or desc")
	}

	return listQuery{
		IsActive: isActive,
		SortBy:   strings.TrimSpace(c.Query("sort_by")),
		OrderBy:  orderBy,
	}, nil
}
