package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/authorization"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	reportingdomain "github.com/smallbiznis/storefront/internal/reporting/domain"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrDuplicateRequest   = errors.New("duplicate_request")
	ErrInternal           = errors.New("internal_error")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

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

	if code, ok := validationErrorCode(err); ok {
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

	if code, ok := businessRuleCode(err); ok {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Code:    code,
			Message: businessRuleMessage(code),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden), errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type and code the
// client receives.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
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

var validationErrs = []error{
	ErrInvalidRequest,
	authorization.ErrInvalidRole,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidSKU,
	productdomain.ErrInvalidPrice,
	productdomain.ErrInvalidStock,
	productdomain.ErrInvalidID,
	coupondomain.ErrInvalidCode,
	coupondomain.ErrInvalidDiscountType,
	coupondomain.ErrInvalidDiscount,
	coupondomain.ErrInvalidWindow,
	coupondomain.ErrInvalidID,
	paymentmethoddomain.ErrInvalidCode,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrInvalidCustomer,
	orderdomain.ErrInvalidEmail,
	orderdomain.ErrEmptyOrder,
	orderdomain.ErrInvalidQuantity,
	orderdomain.ErrInvalidNote,
	reportingdomain.ErrInvalidPeriod,
	reportingdomain.ErrInvalidRange,
	reportingdomain.ErrInvalidCustomer,
}

func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if code == "empty_order" {
		return "items"
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
	case "empty_order":
		return "order has no items"
	case "invalid_quantity":
		return "quantity must be positive"
	case "invalid_status":
		return "unknown order status"
	default:
		return "invalid value"
	}
}

// Errors for requests that are well formed but break a store rule.
var businessRuleErrs = []error{
	orderdomain.ErrProductUnavailable,
	coupondomain.ErrCouponInactive,
	coupondomain.ErrCouponExpired,
	coupondomain.ErrCouponNotYetValid,
	paymentmethoddomain.ErrPaymentMethodInactive,
	paymentmethoddomain.ErrPaymentProofRequired,
}

func businessRuleCode(err error) (string, bool) {
	for _, target := range businessRuleErrs {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func businessRuleMessage(code string) string {
	switch code {
	case "product_unavailable":
		return "one or more products are unavailable"
	case "coupon_inactive", "coupon_expired", "coupon_not_yet_valid":
		return "coupon cannot be used"
	case "payment_method_inactive":
		return "payment method is not available"
	case "payment_proof_required":
		return "payment proof is required for this payment method"
	default:
		return "request cannot be processed"
	}
}

func isConflictError(err error) bool {
	return conflictCode(err) != ""
}

func conflictCode(err error) string {
	for _, target := range []error{
		ErrDuplicateRequest,
		productdomain.ErrSKUExists,
		productdomain.ErrSlugExists,
		coupondomain.ErrCodeExists,
		orderdomain.ErrConcurrentTransition,
		orderdomain.ErrDuplicateOrderNumber,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ""
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, coupondomain.ErrCouponNotFound),
		errors.Is(err, paymentmethoddomain.ErrPaymentMethodNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNoteNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
