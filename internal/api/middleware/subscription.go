package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
)

// SubscriptionReader 读取用户订阅，未订阅时返回 nil, nil
type SubscriptionReader interface {
	Get(ctx context.Context, userID int64) (*model.Subscription, error)
}

// RequireActiveSubscription 订阅失效时拒绝消耗额度的请求
func RequireActiveSubscription(subs SubscriptionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		sub, err := subs.Get(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			response.ServerError(c, "订阅检查失败")
			c.Abort()
			return
		}

		if sub == nil || !sub.IsActive(time.Now()) {
			response.QuotaError(c, "订阅已过期或未开通")
			c.Abort()
			return
		}

		c.Next()
	}
}
