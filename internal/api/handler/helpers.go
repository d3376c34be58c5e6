package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fbsched_server/internal/api/middleware"
	"github.com/qs3c/fbsched_server/internal/pkg/response"
)

// currentUser 取当前登录用户，未登录时已写出响应
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return 0, false
	}
	return userID, true
}

// pathID 解析路径参数 :id，非法时已写出响应
func pathID(c *gin.Context, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, message)
		return 0, false
	}
	return id, true
}
