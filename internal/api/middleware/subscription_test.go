package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
)

type stubSubscriptions struct {
	sub *model.Subscription
	err error
}

func (s stubSubscriptions) Get(context.Context, int64) (*model.Subscription, error) {
	return s.sub, s.err
}

func guardedRouter(subs SubscriptionReader, authenticated bool) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if authenticated {
			c.Set(UserIDKey, int64(1))
		}
		c.Next()
	})
	router.Use(RequireActiveSubscription(subs))
	router.POST("/test", func(c *gin.Context) {
		response.Success(c, nil)
	})
	return router
}

func TestRequireActiveSubscription(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		subs     stubSubscriptions
		wantCode int
		wantHTTP int
	}{
		{"active", stubSubscriptions{sub: &model.Subscription{Status: model.SubscriptionActive, ExpiresAt: &future}}, response.CodeSuccess, http.StatusOK},
		{"no expiry", stubSubscriptions{sub: &model.Subscription{Status: model.SubscriptionActive}}, response.CodeSuccess, http.StatusOK},
		{"expired", stubSubscriptions{sub: &model.Subscription{Status: model.SubscriptionActive, ExpiresAt: &past}}, response.CodeQuotaExceeded, http.StatusTooManyRequests},
		{"cancelled", stubSubscriptions{sub: &model.Subscription{Status: model.SubscriptionCancelled}}, response.CodeQuotaExceeded, http.StatusTooManyRequests},
		{"missing", stubSubscriptions{}, response.CodeQuotaExceeded, http.StatusTooManyRequests},
		{"lookup error", stubSubscriptions{err: errors.New("db down")}, response.CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			guardedRouter(tt.subs, true).ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))

			assert.Equal(t, tt.wantHTTP, w.Code)
			assert.Equal(t, tt.wantCode, parseResponse(t, w).Code)
		})
	}
}

func TestRequireActiveSubscription_Unauthenticated(t *testing.T) {
	w := httptest.NewRecorder()
	guardedRouter(stubSubscriptions{}, false).ServeHTTP(w, httptest.NewRequest("POST", "/test", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
