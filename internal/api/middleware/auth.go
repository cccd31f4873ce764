package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Tonkaw007/Pabu/internal/auth"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	identityKey             = "identity"
)

// Authenticate 校验 Bearer 令牌并把调用者身份写入上下文
func Authenticate(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := strings.Fields(c.GetHeader(AuthorizationHeaderKey))
		if len(fields) != 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			WriteError(c, http.StatusUnauthorized, "unauthorized", "Missing or malformed authorization header")
			return
		}

		id, err := tokens.Parse(fields[1])
		if err != nil {
			WriteError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAdmin 仅管理员可访问，需在 Authenticate 之后
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			WriteError(c, http.StatusUnauthorized, "unauthorized", "Missing or malformed authorization header")
			return
		}
		if !id.IsAdmin() {
			WriteError(c, http.StatusForbidden, "forbidden", "You are not allowed to access this resource")
			return
		}
		c.Next()
	}
}

// CurrentIdentity 当前调用者
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
