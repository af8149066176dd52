package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	discountdomain "github.com/smallbiznis/storefront/internal/discount/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/smallbiznis/storefront/internal/pricing/ruledata"
	shippingdomain "github.com/smallbiznis/storefront/internal/shipping/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

// validationErrors are domain sentinels that describe a bad request body,
// query or path parameter.
var validationErrors = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,

	catalogdomain.ErrInvalidStore,
	catalogdomain.ErrInvalidID,
	catalogdomain.ErrInvalidName,
	catalogdomain.ErrInvalidSlug,
	catalogdomain.ErrInvalidPrice,
	catalogdomain.ErrInvalidParent,
	catalogdomain.ErrInvalidCategory,

	coupondomain.ErrInvalidStore,
	coupondomain.ErrInvalidID,
	coupondomain.ErrInvalidCode,
	coupondomain.ErrInvalidUsageLimit,

	discountdomain.ErrInvalidStore,
	discountdomain.ErrInvalidID,
	discountdomain.ErrInvalidName,

	taxdomain.ErrInvalidStore,
	taxdomain.ErrInvalidID,
	taxdomain.ErrInvalidName,
	taxdomain.ErrInvalidTaxCode,
	taxdomain.ErrInvalidTaxKind,
	taxdomain.ErrInvalidTaxRate,

	shippingdomain.ErrInvalidStore,
	shippingdomain.ErrInvalidID,
	shippingdomain.ErrInvalidName,
	shippingdomain.ErrInvalidCountry,
	shippingdomain.ErrInvalidPrice,

	ruledata.ErrInvalidScope,
	ruledata.ErrInvalidScopeID,
	ruledata.ErrInvalidWindow,
	ruledata.ErrInvalidAmountKind,
	ruledata.ErrInvalidValue,
	ruledata.ErrInvalidMinOrderValue,

	pricingdomain.ErrInvalidStore,
	pricingdomain.ErrInvalidLineItem,
	pricingdomain.ErrMissingDestination,
	pricingdomain.ErrInvalidQuoteRequest,
	pricingdomain.ErrEmptyCart,
	pricingdomain.ErrUnknownProduct,
	pricingdomain.ErrInactiveProduct,
	pricingdomain.ErrInvalidQuantity,

	orderdomain.ErrInvalidStore,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrInvalidComment,
	orderdomain.ErrInvalidIdempotencyKey,
}

var notFoundErrors = []error{
	ErrNotFound,
	catalogdomain.ErrNotFound,
	coupondomain.ErrNotFound,
	discountdomain.ErrNotFound,
	taxdomain.ErrNotFound,
	shippingdomain.ErrNotFound,
	orderdomain.ErrNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	ErrConflict,
	catalogdomain.ErrSlugTaken,
	catalogdomain.ErrCategoryCycle,
	coupondomain.ErrCodeTaken,
	taxdomain.ErrTaxCodeTaken,
	orderdomain.ErrCheckoutInProgress,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if rej, ok := pricingdomain.AsRejection(err); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "rejected",
			Code:    rej.Code(),
			Message: "order cannot be priced",
		}
	}

	if isValidationError(err) {
		code := err.Error()
		if errors.Is(err, ErrInvalidRequest) {
			code = ErrInvalidRequest.Error()
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case matchesAny(err, conflictErrors):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type and code the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if code == "" {
		code = payload.Type
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	return matchesAny(err, validationErrors)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func conflictCode(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ErrConflict.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "empty_cart":
		return "cart has no items"
	case "unknown_product":
		return "product does not exist"
	case "inactive_product":
		return "product is not for sale"
	case "missing_destination":
		return "destination country is required"
	default:
		return "invalid value"
	}
}
