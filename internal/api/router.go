package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/api/handler"
	"github.com/qs3c/fbsched_server/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	settingsHandler     *handler.SettingsHandler
	videoHandler        *handler.VideoHandler
	scheduleHandler     *handler.ScheduleHandler
	captionHandler      *handler.CaptionHandler
	subscriptionHandler *handler.SubscriptionHandler
	usageHandler        *handler.UsageHandler
	subscriptions       middleware.SubscriptionReader
	cfg                 *config.Config
	log                 zerolog.Logger
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	settingsHandler *handler.SettingsHandler,
	videoHandler *handler.VideoHandler,
	scheduleHandler *handler.ScheduleHandler,
	captionHandler *handler.CaptionHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	usageHandler *handler.UsageHandler,
	subscriptions middleware.SubscriptionReader,
	cfg *config.Config,
	log zerolog.Logger,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		settingsHandler:     settingsHandler,
		videoHandler:        videoHandler,
		scheduleHandler:     scheduleHandler,
		captionHandler:      captionHandler,
		subscriptionHandler: subscriptionHandler,
		usageHandler:        usageHandler,
		subscriptions:       subscriptions,
		cfg:                 cfg,
		log:                 log,
	}
}

// guarded 配额强制开启时，消耗配额的接口要求有效订阅
func (r *Router) guarded(h gin.HandlerFunc) []gin.HandlerFunc {
	if !r.cfg.Quota.Enforce {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{middleware.RequireActiveSubscription(r.subscriptions), h}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
		}

		// 公开接口 - 套餐
		api.GET("/plans", r.subscriptionHandler.ListPlans)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			authenticated.GET("/user", r.userHandler.GetProfile)
			authenticated.PATCH("/user", r.userHandler.UpdateProfile)

			// Facebook 配置
			authenticated.GET("/facebook-settings", r.settingsHandler.Get)
			authenticated.POST("/facebook-settings", r.settingsHandler.Upsert)

			// 视频
			videos := authenticated.Group("/videos")
			{
				videos.GET("", r.videoHandler.List)
				videos.POST("", r.guarded(r.videoHandler.Upload)...)
				videos.GET("/:id", r.videoHandler.Get)
				videos.DELETE("/:id", r.videoHandler.Delete)
			}

			// 排期
			schedule := authenticated.Group("/schedule")
			{
				schedule.GET("", r.scheduleHandler.List)
				schedule.POST("", r.scheduleHandler.Schedule)
				schedule.DELETE("/:id", r.scheduleHandler.Unschedule)
			}

			// 文案
			captions := authenticated.Group("/captions")
			{
				captions.GET("", r.captionHandler.List)
				captions.POST("", r.captionHandler.Create)
				captions.DELETE("/:id", r.captionHandler.Delete)
			}
			authenticated.POST("/ai/generate-caption", r.guarded(r.captionHandler.Generate)...)

			// 订阅
			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("", r.subscriptionHandler.Get)
				subscription.PUT("", r.subscriptionHandler.ChangePlan)
				subscription.DELETE("", r.subscriptionHandler.Cancel)
			}

			// 用量
			authenticated.GET("/usage-metrics", r.usageHandler.Metrics)
			authenticated.GET("/usage-metrics/utilization", r.usageHandler.Utilization)
		}
	}

	return engine
}
