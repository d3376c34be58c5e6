package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type VideoHandler struct {
	videoService *service.VideoService
}

func NewVideoHandler(videoService *service.VideoService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
	}
}

// List 视频列表
// GET /api/v1/videos
func (h *VideoHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	videos, err := h.videoService.List(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, videos)
}

// Upload 上传视频，multipart 字段 video 与 title
// POST /api/v1/videos
func (h *VideoHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("video")
	if err != nil {
		response.ParamError(c, "请上传视频文件")
		return
	}
	defer file.Close()

	video, err := h.videoService.Upload(c.Request.Context(), userID, service.UploadInput{
		Title:       c.PostForm("title"),
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, video)
}

// Get 视频详情
// GET /api/v1/videos/:id
func (h *VideoHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "无效的视频ID")
	if !ok {
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), userID, videoID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, video)
}

// Delete 删除视频并退还存储用量
// DELETE /api/v1/videos/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "无效的视频ID")
	if !ok {
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), userID, videoID); err != nil {
		response.Fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
