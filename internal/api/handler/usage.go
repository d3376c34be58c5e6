package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type UsageHandler struct {
	usageService *service.UsageService
}

func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
	}
}

// Metrics 当前用量，没有记录时为零
// GET /api/v1/usage-metrics
func (h *UsageHandler) Metrics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	metrics, err := h.usageService.GetMetrics(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, metrics)
}

// Utilization 用量占比
// GET /api/v1/usage-metrics/utilization
func (h *UsageHandler) Utilization(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	utilization, err := h.usageService.GetUtilization(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, utilization)
}
