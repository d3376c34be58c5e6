package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type CaptionHandler struct {
	captionService *service.CaptionService
}

func NewCaptionHandler(captionService *service.CaptionService) *CaptionHandler {
	return &CaptionHandler{
		captionService: captionService,
	}
}

// List 文案列表
// GET /api/v1/captions
func (h *CaptionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	captions, err := h.captionService.List(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, captions)
}

// Create 保存文案
// POST /api/v1/captions
func (h *CaptionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, service.ErrContentRequired.Message)
		return
	}

	caption, err := h.captionService.Save(c.Request.Context(), userID, req.Content)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, caption)
}

// Delete 删除文案
// DELETE /api/v1/captions/:id
func (h *CaptionHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	captionID, ok := pathID(c, "无效的文案ID")
	if !ok {
		return
	}

	if err := h.captionService.Remove(c.Request.Context(), userID, captionID); err != nil {
		response.Fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Generate AI 生成文案，结果不会自动保存
// POST /api/v1/ai/generate-caption
func (h *CaptionHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.GenerateCaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	caption, err := h.captionService.Generate(c.Request.Context(), userID, service.GenerateInput{
		Prompt:        req.Prompt,
		Tone:          req.Tone,
		Length:        req.Length,
		Keywords:      req.Keywords,
		Creativity:    req.Creativity,
		LanguageStyle: req.LanguageStyle,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, dto.GenerateCaptionResponse{Caption: caption})
}
