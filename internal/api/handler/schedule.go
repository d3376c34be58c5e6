package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type ScheduleHandler struct {
	videoService *service.VideoService
}

func NewScheduleHandler(videoService *service.VideoService) *ScheduleHandler {
	return &ScheduleHandler{
		videoService: videoService,
	}
}

// List 已排期视频，按时段升序
// GET /api/v1/schedule
func (h *ScheduleHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	scheduled, err := h.videoService.ListScheduled(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, scheduled)
}

// Schedule 为视频排期
// POST /api/v1/schedule
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	video, err := h.videoService.Schedule(c.Request.Context(), userID, req.VideoID, req.ScheduledFor)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, video)
}

// Unschedule 取消排期
// DELETE /api/v1/schedule/:id
func (h *ScheduleHandler) Unschedule(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "无效的视频ID")
	if !ok {
		return
	}

	video, err := h.videoService.Unschedule(c.Request.Context(), userID, videoID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, video)
}
