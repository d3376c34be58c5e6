package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/api/middleware"
	"github.com/qs3c/fbsched_server/internal/pkg/ai"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/pkg/logger"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/pkg/storage"
	"github.com/qs3c/fbsched_server/internal/repository"
	"github.com/qs3c/fbsched_server/internal/service"
	"github.com/qs3c/fbsched_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const mb = 1024 * 1024

type stubGenerator struct {
	caption string
	err     error
}

func (g *stubGenerator) GenerateCaption(context.Context, ai.Params) (string, error) {
	return g.caption, g.err
}

type testContext struct {
	cfg          *config.Config
	repos        *repository.Repositories
	generator    *stubGenerator
	auth         *AuthHandler
	user         *UserHandler
	settings     *SettingsHandler
	video        *VideoHandler
	schedule     *ScheduleHandler
	caption      *CaptionHandler
	subscription *SubscriptionHandler
	usage        *UsageHandler
}

func setupHandlers(t *testing.T) *testContext {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret-key", ExpireHours: 24},
		Upload: config.UploadConfig{
			MaxSize:          10 * mb,
			AllowedMimeTypes: []string{"video/mp4"},
		},
		AI:    config.AIConfig{TimeoutSeconds: 5, DefaultCreativity: 0.7},
		Quota: config.QuotaConfig{Enforce: true},
		Plans: config.DefaultPlans(),
	}

	repos := testutil.MemoryRepositories()
	locker := keylock.NewLocal()
	log := logger.Nop()

	files, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	generator := &stubGenerator{caption: "Golden hour at the beach"}

	usageService := service.NewUsageService(repos, locker, log)
	subscriptionService := service.NewSubscriptionService(repos, cfg, log)
	videoService := service.NewVideoService(repos, usageService, files, locker, cfg, log)

	return &testContext{
		cfg:          cfg,
		repos:        repos,
		generator:    generator,
		auth:         NewAuthHandler(service.NewAuthService(repos, subscriptionService, usageService, cfg, log)),
		user:         NewUserHandler(service.NewUserService(repos)),
		settings:     NewSettingsHandler(service.NewSettingsService(repos, locker)),
		video:        NewVideoHandler(videoService),
		schedule:     NewScheduleHandler(videoService),
		caption:      NewCaptionHandler(service.NewCaptionService(repos, usageService, generator, cfg, log)),
		subscription: NewSubscriptionHandler(subscriptionService),
		usage:        NewUsageHandler(usageService),
	}
}

func mockAuth(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

// router 挂载全部接口，userID 为 0 时不注入登录用户
func (tc *testContext) router(userID int64) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", tc.auth.Register)
	r.POST("/auth/login", tc.auth.Login)
	r.GET("/plans", tc.subscription.ListPlans)

	g := r.Group("")
	if userID != 0 {
		g.Use(mockAuth(userID))
	}
	g.GET("/user", tc.user.GetProfile)
	g.PATCH("/user", tc.user.UpdateProfile)
	g.GET("/facebook-settings", tc.settings.Get)
	g.POST("/facebook-settings", tc.settings.Upsert)
	g.GET("/videos", tc.video.List)
	g.POST("/videos", tc.video.Upload)
	g.GET("/videos/:id", tc.video.Get)
	g.DELETE("/videos/:id", tc.video.Delete)
	g.GET("/schedule", tc.schedule.List)
	g.POST("/schedule", tc.schedule.Schedule)
	g.DELETE("/schedule/:id", tc.schedule.Unschedule)
	g.GET("/captions", tc.caption.List)
	g.POST("/captions", tc.caption.Create)
	g.DELETE("/captions/:id", tc.caption.Delete)
	g.POST("/ai/generate-caption", tc.caption.Generate)
	g.GET("/subscription", tc.subscription.Get)
	g.PUT("/subscription", tc.subscription.ChangePlan)
	g.DELETE("/subscription", tc.subscription.Cancel)
	g.GET("/usage-metrics", tc.usage.Metrics)
	g.GET("/usage-metrics/utilization", tc.usage.Utilization)
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 取出响应中的对象数据
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// dataList 取出响应中的数组数据
func dataList(t *testing.T, resp response.Response) []interface{} {
	t.Helper()
	data, ok := resp.Data.([]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// uploadRequest 构造视频上传请求，filename 为空时不附带文件
func uploadRequest(t *testing.T, title, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", title))
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename="%s"`, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/videos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
