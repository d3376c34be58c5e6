package model

// UsageMetrics 每个用户一条，StorageUsed 单位为字节
type UsageMetrics struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	UserID      int64 `gorm:"not null;uniqueIndex" json:"user_id"`
	StorageUsed int64 `gorm:"not null;default:0" json:"storage_used"`
	TasksUsed   int   `gorm:"not null;default:0" json:"tasks_used"`
}

func (UsageMetrics) TableName() string {
	return "usage_metrics"
}

type UsageMetricsPatch struct {
	StorageUsed *int64
	TasksUsed   *int
}

func (p UsageMetricsPatch) Apply(m *UsageMetrics) {
	if p.StorageUsed != nil {
		m.StorageUsed = *p.StorageUsed
	}
	if p.TasksUsed != nil {
		m.TasksUsed = *p.TasksUsed
	}
}

func (p UsageMetricsPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.StorageUsed != nil {
		fields["storage_used"] = *p.StorageUsed
	}
	if p.TasksUsed != nil {
		fields["tasks_used"] = *p.TasksUsed
	}
	return fields
}
