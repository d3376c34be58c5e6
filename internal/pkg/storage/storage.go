// Package storage 保存上传的视频文件，支持本地磁盘、阿里云 OSS 与 S3 兼容存储。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/qs3c/fbsched_server/config"
)

// FileStore 视频文件存储
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New 按配置选择存储实现
func New(ctx context.Context, cfg config.StorageConfig) (FileStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir)
	case "oss":
		return NewOSS(cfg.OSS)
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ObjectKey 生成用户维度且不重复的对象 key
func ObjectKey(userID int64, filename string) string {
	return fmt.Sprintf("%d/%s_%s", userID, uuid.NewString(), SanitizeFilename(filename))
}

// SanitizeFilename 去掉路径部分，只保留字母数字与 . _ -
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return "video"
	}
	return cleaned
}

func joinPrefix(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
