package service

import (
	"github.com/qs3c/fbsched_server/internal/pkg/errs"
)

var (
	ErrUserNotFound       = errs.NotFound("用户不存在")
	ErrUsernameTaken      = errs.Conflict("用户名已被使用")
	ErrInvalidCredentials = errs.Validation("用户名或密码错误")

	ErrVideoNotFound       = errs.NotFound("视频不存在")
	ErrVideoDenied         = errs.Permission("无权操作该视频")
	ErrTitleRequired       = errs.Validation("标题不能为空")
	ErrInvalidFilesize     = errs.Validation("文件大小无效")
	ErrFileTooLarge        = errs.Validation("文件大小超过限制")
	ErrInvalidFileType     = errs.Validation("仅支持 MP4 视频")
	ErrSlotTaken           = errs.Conflict("该时段已有视频排期")
	ErrVideoNotSchedulable = errs.Conflict("视频正在发布或已发布，无法排期")
	ErrVideoPublishing     = errs.Conflict("视频正在发布，无法取消排期")

	ErrCaptionNotFound = errs.NotFound("文案不存在")
	ErrCaptionDenied   = errs.Permission("无权操作该文案")
	ErrContentRequired = errs.Validation("文案内容不能为空")
	ErrPromptRequired  = errs.Validation("提示词不能为空")
	ErrInvalidLength   = errs.Validation("长度仅支持 short、medium、long")

	ErrUsageNotFound        = errs.NotFound("用量记录不存在")
	ErrStorageQuotaExceeded = errs.QuotaExceeded("存储空间不足")
	ErrTaskQuotaExceeded    = errs.QuotaExceeded("任务次数已用完")

	ErrSubscriptionNotFound = errs.NotFound("订阅不存在")
	ErrPlanNotFound         = errs.Validation("套餐不存在")

	ErrInvalidUploadFrequency = errs.Validation("发布频率需在 1 到 1440 分钟之间")
)
