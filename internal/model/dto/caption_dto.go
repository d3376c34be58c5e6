package dto

// CreateCaptionRequest 保存文案请求
type CreateCaptionRequest struct {
	Content string `json:"content" binding:"required"`
}

// GenerateCaptionRequest AI 生成文案请求
type GenerateCaptionRequest struct {
	Prompt        string   `json:"prompt"`
	Tone          string   `json:"tone,omitempty"`
	Length        string   `json:"length,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	Creativity    *float64 `json:"creativity,omitempty"`
	LanguageStyle string   `json:"language_style,omitempty"`
}

// GenerateCaptionResponse AI 生成文案响应
type GenerateCaptionResponse struct {
	Caption string `json:"caption"`
}
