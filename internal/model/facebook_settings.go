package model

const DefaultUploadFrequency = 60

// FacebookSettings 每个用户至多一条
type FacebookSettings struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	UserID          int64  `gorm:"not null;uniqueIndex" json:"user_id"`
	AccessToken     string `gorm:"type:text" json:"access_token"`
	PageID          string `gorm:"size:100" json:"page_id"`
	UploadFrequency int    `gorm:"default:60" json:"upload_frequency" validate:"min=1,max=1440"` // 分钟
}

func (FacebookSettings) TableName() string {
	return "facebook_settings"
}

type FacebookSettingsPatch struct {
	AccessToken     *string
	PageID          *string
	UploadFrequency *int
}

func (p FacebookSettingsPatch) Apply(s *FacebookSettings) {
	if p.AccessToken != nil {
		s.AccessToken = *p.AccessToken
	}
	if p.PageID != nil {
		s.PageID = *p.PageID
	}
	if p.UploadFrequency != nil {
		s.UploadFrequency = *p.UploadFrequency
	}
}

func (p FacebookSettingsPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.AccessToken != nil {
		fields["access_token"] = *p.AccessToken
	}
	if p.PageID != nil {
		fields["page_id"] = *p.PageID
	}
	if p.UploadFrequency != nil {
		fields["upload_frequency"] = *p.UploadFrequency
	}
	return fields
}
