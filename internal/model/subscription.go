package model

import (
	"database/sql"
	"time"
)

const (
	PlanTrial   = "trial"
	PlanBasic   = "basic"
	PlanPro     = "pro"
	PlanFiveDay = "5day"
)

const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription 每个用户一条，Storage 单位为 MB
type Subscription struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	UserID    int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	Plan      string     `gorm:"size:20;not null;default:trial" json:"plan"`          // trial, basic, pro, 5day
	Status    string     `gorm:"size:20;not null;default:active;index" json:"status"` // active, expired, cancelled
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
	Storage   int        `gorm:"not null" json:"storage"`
	Tasks     int        `gorm:"not null" json:"tasks"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// IsActive 状态为 active 且未过期
func (s *Subscription) IsActive(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

type SubscriptionPatch struct {
	Plan      *string
	Status    *string
	ExpiresAt *sql.NullTime
	Storage   *int
	Tasks     *int
}

func (p SubscriptionPatch) Apply(s *Subscription) {
	if p.Plan != nil {
		s.Plan = *p.Plan
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.ExpiresAt != nil {
		if p.ExpiresAt.Valid {
			t := p.ExpiresAt.Time
			s.ExpiresAt = &t
		} else {
			s.ExpiresAt = nil
		}
	}
	if p.Storage != nil {
		s.Storage = *p.Storage
	}
	if p.Tasks != nil {
		s.Tasks = *p.Tasks
	}
}

func (p SubscriptionPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Plan != nil {
		fields["plan"] = *p.Plan
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.ExpiresAt != nil {
		if p.ExpiresAt.Valid {
			fields["expires_at"] = p.ExpiresAt.Time
		} else {
			fields["expires_at"] = nil
		}
	}
	if p.Storage != nil {
		fields["storage"] = *p.Storage
	}
	if p.Tasks != nil {
		fields["tasks"] = *p.Tasks
	}
	return fields
}
