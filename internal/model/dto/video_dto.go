package dto

import "time"

// ScheduleRequest 排期请求，scheduled_for 为 RFC3339 时间
type ScheduleRequest struct {
	VideoID      int64     `json:"video_id" binding:"required,min=1"`
	ScheduledFor time.Time `json:"scheduled_for" binding:"required"`
}

// ScheduledVideo 排期视图
type ScheduledVideo struct {
	ID           int64     `json:"id"`
	VideoID      int64     `json:"video_id"`
	Title        string    `json:"title"`
	ScheduledFor time.Time `json:"scheduled_for"`
}
