package server

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/notification"
)

// ReportAuthEvent receives sign-in events from the auth host and raises the
// admin login alert. Delivery is best effort and never fails the request.
func (s *Server) ReportAuthEvent(c *gin.Context) {
	var event notification.LoginEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(event.Username) == "" {
		AbortWithError(c, newValidationError("username", "invalid_username", "username is required"))
		return
	}
	if strings.ContainsFunc(event.Username, unicode.IsControl) {
		AbortWithError(c, newValidationError("username", "invalid_username", "username must not contain control characters"))
		return
	}
	if strings.ContainsFunc(event.Email, unicode.IsControl) {
		AbortWithError(c, newValidationError("email", "invalid_email", "email must not contain control characters"))
		return
	}
	if event.At.IsZero() {
		event.At = s.now()
	}

	s.loginAlerts.AdminLogin(c.Request.Context(), event)
	c.Status(http.StatusAccepted)
}
