package model

import (
	"database/sql"
	"time"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusScheduled  VideoStatus = "scheduled"
	VideoStatusPublished  VideoStatus = "published"
	VideoStatusFailed     VideoStatus = "failed"
)

// OccupiesSlot 处于该状态的视频占用其发布时段
func (s VideoStatus) OccupiesSlot() bool {
	return s == VideoStatusScheduled || s == VideoStatusProcessing
}

func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusPublished || s == VideoStatusFailed
}

type Video struct {
	ID            int64       `gorm:"primaryKey" json:"id"`
	UserID        int64       `gorm:"not null;index" json:"user_id"`
	Title         string      `gorm:"size:255;not null" json:"title"`
	Filename      string      `gorm:"size:255;not null" json:"filename"`
	Filesize      int64       `gorm:"not null" json:"filesize"` // 字节
	Status        VideoStatus `gorm:"size:20;default:pending;index" json:"status"`
	ScheduledFor  *time.Time  `gorm:"index" json:"scheduled_for"`
	PublishedAt   *time.Time  `json:"published_at,omitempty"`
	FailureReason string      `gorm:"size:500" json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (Video) TableName() string {
	return "videos"
}

func (v *Video) OwnerID() int64 {
	return v.UserID
}

// VideoPatch 视频的部分更新；ScheduledFor 非 nil 且 Valid 为 false 表示清空排期
type VideoPatch struct {
	Title         *string
	Status        *VideoStatus
	ScheduledFor  *sql.NullTime
	PublishedAt   *time.Time
	FailureReason *string
}

func (p VideoPatch) Apply(v *Video) {
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.ScheduledFor != nil {
		if p.ScheduledFor.Valid {
			t := p.ScheduledFor.Time
			v.ScheduledFor = &t
		} else {
			v.ScheduledFor = nil
		}
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		v.PublishedAt = &t
	}
	if p.FailureReason != nil {
		v.FailureReason = *p.FailureReason
	}
}

func (p VideoPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.ScheduledFor != nil {
		if p.ScheduledFor.Valid {
			fields["scheduled_for"] = p.ScheduledFor.Time
		} else {
			fields["scheduled_for"] = nil
		}
	}
	if p.PublishedAt != nil {
		fields["published_at"] = *p.PublishedAt
	}
	if p.FailureReason != nil {
		fields["failure_reason"] = *p.FailureReason
	}
	return fields
}

// ScheduleAt 构造设置排期的补丁
func ScheduleAt(slot time.Time) VideoPatch {
	status := VideoStatusScheduled
	return VideoPatch{
		Status:       &status,
		ScheduledFor: &sql.NullTime{Time: slot, Valid: true},
	}
}

// ClearSchedule 构造取消排期的补丁
func ClearSchedule() VideoPatch {
	status := VideoStatusPending
	return VideoPatch{
		Status:       &status,
		ScheduledFor: &sql.NullTime{},
	}
}
