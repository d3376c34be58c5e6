package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/pkg/jwt"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
)

// Auth 校验 Bearer 令牌并把用户 ID 写入上下文
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			reject(c, "请提供认证信息")
			return
		}

		token, ok := bearerToken(header)
		if !ok {
			reject(c, "认证格式错误")
			return
		}

		claims, err := jwt.ParseToken(token, jwtSecret)
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			reject(c, "登录已过期，请重新登录")
			return
		case err != nil:
			reject(c, "认证失败")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// bearerToken 协议名不区分大小写
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c *gin.Context, message string) {
	response.AuthError(c, message)
	c.Abort()
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}
