package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
	"github.com/qs3c/fbsched_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// ListPlans 可选套餐
// GET /api/v1/plans
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	response.Success(c, h.subscriptionService.ListPlans())
}

// Get 当前订阅，未订阅时返回空对象
// GET /api/v1/subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Get(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if sub == nil {
		response.Success(c, gin.H{})
		return
	}

	response.Success(c, sub)
}

// ChangePlan 切换套餐
// PUT /api/v1/subscription
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, sub)
}

// Cancel 取消订阅
// DELETE /api/v1/subscription
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, sub)
}
