package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportingdomain "github.com/smallbiznis/storefront/internal/reporting/domain"
)

func (s *Server) GetSalesReport(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"))
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from date"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"))
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to date"))
		return
	}

	resp, err := s.reportingSvc.SalesSummary(c.Request.Context(), reportingdomain.SalesRequest{
		Period: c.Query("period"),
		From:   from,
		To:     to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerReport(c *gin.Context) {
	userID, err := parseOptionalID(c.Query("user_id"))
	if err != nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user id"))
		return
	}

	resp, err := s.reportingSvc.CustomerStats(c.Request.Context(), reportingdomain.CustomerRequest{
		UserID: userID,
		Email:  strings.TrimSpace(c.Query("email")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
