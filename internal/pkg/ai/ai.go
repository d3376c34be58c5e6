// Package ai 调用 OpenAI 兼容的 chat/completions 接口生成社媒文案。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/qs3c/fbsched_server/config"
)

type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// MaxTokens 各长度对应的输出上限
func (l Length) MaxTokens() int {
	switch l {
	case LengthShort:
		return 100
	case LengthLong:
		return 350
	default:
		return 200
	}
}

var ErrEmptyCaption = errors.New("provider returned an empty caption")

// Params 生成参数，Creativity 取值 [0,1]
type Params struct {
	Prompt        string
	Tone          string
	Length        Length
	Keywords      []string
	Creativity    float64
	LanguageStyle string
}

// Generator 文案生成
type Generator interface {
	GenerateCaption(ctx context.Context, params Params) (string, error)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
}

// NewClient 超时由调用方通过 ctx 控制
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		referer:    cfg.Referer,
		title:      cfg.Title,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// SystemPrompt 组装系统提示词
func SystemPrompt(p Params) string {
	length := p.Length
	if length == "" {
		length = LengthMedium
	}
	tone := p.Tone
	if tone == "" {
		tone = "friendly"
	}
	style := p.LanguageStyle
	if style == "" {
		style = "casual"
	}

	prompt := fmt.Sprintf("You are an expert social media content writer specializing in creating engaging Facebook captions.\n"+
		"Create a %s-length caption in a %s tone with a %s language style.", length, tone, style)
	if len(p.Keywords) > 0 {
		prompt += fmt.Sprintf(" Include these keywords naturally: %s.", strings.Join(p.Keywords, ", "))
	}
	return prompt
}

func (c *Client) GenerateCaption(ctx context.Context, p Params) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(p)},
			{Role: "user", Content: "Write a caption for this content: " + p.Prompt},
		},
		Temperature: p.Creativity,
		MaxTokens:   p.Length.MaxTokens(),
	}

	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call provider: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCaption
	}
	caption := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if caption == "" {
		return "", ErrEmptyCaption
	}
	return caption, nil
}
