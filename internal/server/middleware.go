package server

import (
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/authorization"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
)

const (
	HeaderActor      = "X-Actor-ID"
	HeaderActorRole  = "X-Actor-Role"
	contextUserIDKey = "user_id"
	contextRoleKey   = "actor_role"
)

// AdminAuthRequired checks the static admin bearer token. An empty token in
// config locks the admin surface entirely.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(s.cfg.AdminToken)
		if expected == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))
		c.Set(contextRoleKey, role)

		if raw := strings.TrimSpace(c.GetHeader(HeaderActor)); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				AbortWithError(c, newValidationError("actor_id", "invalid_actor", "invalid actor id"))
				return
			}
			c.Set(contextUserIDKey, id)
			actorType := role
			if actorType == "" {
				actorType = authorization.RoleStaff
			}
			c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), actorType, raw))
		}
		c.Next()
	}
}

// authorize checks the admin actor against the role policy. It must run
// after AdminAuthRequired.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		actor := authorization.Actor{
			ID:   actorID(c),
			Role: c.GetString(contextRoleKey),
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// actorID returns the admin user set by AdminAuthRequired, if any.
func actorID(c *gin.Context) *int64 {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}
