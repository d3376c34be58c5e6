package dto

// FacebookSettingsRequest Facebook 配置的部分更新
type FacebookSettingsRequest struct {
	AccessToken     *string `json:"access_token,omitempty"`
	PageID          *string `json:"page_id,omitempty"`
	UploadFrequency *int    `json:"upload_frequency,omitempty"`
}

// ChangePlanRequest 切换套餐请求
type ChangePlanRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// PlanInfo 套餐信息，Storage 单位为 MB
type PlanInfo struct {
	Plan         string  `json:"plan"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Storage      int     `json:"storage"`
	Tasks        int     `json:"tasks"`
	DurationDays int     `json:"duration_days"`
}

// Utilization 用量占比（百分比，上限 100）
type Utilization struct {
	StoragePct float64 `json:"storage_pct"`
	TasksPct   float64 `json:"tasks_pct"`
}
