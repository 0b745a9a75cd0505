package http

import (
	"strings"

	"github.com/dkeye/roomchat/internal/adapters/signal"
	"github.com/dkeye/roomchat/internal/app"
	"github.com/dkeye/roomchat/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionTokenKey = "token"
	userKey         = "user"
)

// bearerToken looks in the Authorization header, then the token query
// parameter (browsers cannot set headers on a websocket handshake), then
// the cookie session.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if q := c.Query("token"); q != "" {
		return q
	}
	if tok, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
		return tok
	}
	return ""
}

func BearerTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(signal.TokenKey, bearerToken(c))
		c.Next()
	}
}

// RequireUser rejects requests whose token does not resolve to a user.
func RequireUser(gate *app.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.Authenticate(c.Request.Context(), c.GetString(signal.TokenKey))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Get(userKey)
	user, _ := u.(*domain.User)
	return user
}
