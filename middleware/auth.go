package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"vault/models"
	"vault/utils"
)

const sessionKey = "session"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// Auth resolves the bearer token to a live session and stores it on the
// context for GetSession.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		sess, err := a.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			utils.Error(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func GetSession(c *gin.Context) *models.Session {
	sess, _ := c.Get(sessionKey)
	s, _ := sess.(*models.Session)
	return s
}

func GetUserID(c *gin.Context) string {
	if s := GetSession(c); s != nil {
		return s.UserID
	}
	return ""
}
