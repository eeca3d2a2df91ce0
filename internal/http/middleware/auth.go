package middleware

import (
	"net/http"

	"ridedesk/internal/domain"
	"ridedesk/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	sessionKey = "session"
	userKey    = "user"
)

// TokenParser validates a session token.
type TokenParser interface {
	ParseToken(raw string) (domain.RequestContext, error)
}

// Session reads the session cookies into the gin context and, when the token
// is valid, the authenticated user. It never rejects a request.
func Session(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.Init(c.Request)
		c.Set(sessionKey, s)
		if s.Authenticated() && parser != nil {
			if user, err := parser.ParseToken(s.Token); err == nil {
				c.Set(userKey, user)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid session token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":    "authentication required",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

// RequireRoles lets through only users whose role is one of allowed.
// RequireAuth must run first.
func RequireRoles(allowed ...domain.Role) gin.HandlerFunc {
	set := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[domain.NormalizeRole(string(r))] = struct{}{}
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if _, ok := set[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message":    "role " + string(user.Role) + " is not allowed here",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	u, ok := v.(domain.RequestContext)
	return u, ok
}

func CurrentSession(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Init(c.Request)
}
