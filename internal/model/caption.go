package model

import (
	"time"
)

type Caption struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Caption) TableName() string {
	return "captions"
}

func (c *Caption) OwnerID() int64 {
	return c.UserID
}
