package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListActivePaymentMethods serves the checkout page. The service caches the
// active list in process.
func (s *Server) ListActivePaymentMethods(c *gin.Context) {
	methods, err := s.paymentMethodSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if ttl := s.cfg.Checkout.PaymentCacheTTL; ttl > 0 {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", ttl))
	}
	c.JSON(http.StatusOK, gin.H{"data": methods})
}

func (s *Server) ListPaymentMethods(c *gin.Context) {
	methods, err := s.paymentMethodSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": methods})
}

func (s *Server) SetPaymentMethodActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "active is required"))
		return
	}

	code := strings.TrimSpace(c.Param("code"))
	if err := s.paymentMethodSvc.SetActive(c.Request.Context(), code, *req.Active); err != nil {
		AbortWithError(c, err)
		return
	}

	method, err := s.paymentMethodSvc.GetByCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": method})
}
