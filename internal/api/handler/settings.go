package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
	}
}

// Get 获取 Facebook 配置，未配置时返回空对象
// GET /api/v1/facebook-settings
func (h *SettingsHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	settings, err := h.settingsService.Get(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if settings == nil {
		response.Success(c, gin.H{})
		return
	}

	response.Success(c, settings)
}

// Upsert 创建或更新 Facebook 配置
// POST /api/v1/facebook-settings
func (h *SettingsHandler) Upsert(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.FacebookSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	settings, created, err := h.settingsService.Upsert(c.Request.Context(), userID, model.FacebookSettingsPatch{
		AccessToken:     req.AccessToken,
		PageID:          req.PageID,
		UploadFrequency: req.UploadFrequency,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	if created {
		response.Created(c, settings)
		return
	}
	response.Success(c, settings)
}
