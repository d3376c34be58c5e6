package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/internal/pkg/jwt"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testJWTSecret = "test-secret-key-for-middleware"

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestAuth_Success(t *testing.T) {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		assert.True(t, ok)
		assert.Equal(t, int64(123), userID)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	token, err := jwt.GenerateToken(123, testJWTSecret, 24)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_Rejected(t *testing.T) {
	wrongSecret, err := jwt.GenerateToken(123, "different-secret", 24)
	require.NoError(t, err)
	// 0 小时即刻过期
	expired, err := jwt.GenerateToken(123, testJWTSecret, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "请提供认证信息"},
		{"no bearer prefix", "some-token-without-bearer", "认证格式错误"},
		{"other scheme", "Basic dXNlcjpwYXNz", "认证格式错误"},
		{"empty token", "Bearer   ", "认证格式错误"},
		{"invalid token", "Bearer invalid-token", "认证失败"},
		{"wrong secret", "Bearer " + wrongSecret, "认证失败"},
		{"expired token", "Bearer " + expired, "登录已过期，请重新登录"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			router := gin.New()
			router.Use(Auth(testJWTSecret))
			router.GET("/test", func(c *gin.Context) {
				reached = true
				c.JSON(http.StatusOK, gin.H{})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			resp := parseResponse(t, w)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, response.CodeAuthFailed, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.False(t, reached)
		})
	}
}

func TestAuth_LowercaseScheme(t *testing.T) {
	router := gin.New()
	router.Use(Auth(testJWTSecret))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	token, err := jwt.GenerateToken(7, testJWTSecret, 1)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		set    bool
		wantID int64
		wantOK bool
	}{
		{"not set", nil, false, 0, false},
		{"wrong type", "not-an-int64", true, 0, false},
		{"valid int64", int64(789), true, 789, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tt.set {
				c.Set(UserIDKey, tt.value)
			}

			userID, ok := GetUserID(c)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, userID)
		})
	}
}
