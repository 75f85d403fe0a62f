package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
)

func (s *Server) CreateCoupon(c *gin.Context) {
	var req coupondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.couponSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCoupons(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.couponSvc.List(c.Request.Context(), activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) SetCouponActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "active is required"))
		return
	}

	resp, err := s.couponSvc.SetActive(c.Request.Context(), strings.TrimSpace(c.Param("id")), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ValidateCoupon previews the discount a code would grant on the given
// total without reserving anything.
func (s *Server) ValidateCoupon(c *gin.Context) {
	total, err := parseOptionalDecimal(c.Query("total"))
	if err != nil || total.IsNegative() {
		AbortWithError(c, newValidationError("total", "invalid_total", "invalid total"))
		return
	}

	resp, err := s.couponSvc.Preview(c.Request.Context(), strings.TrimSpace(c.Param("code")), total)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
