package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/fbsched_server/config"
)

// OSS 阿里云对象存储
type OSS struct {
	bucket *oss.Bucket
	prefix string
}

func NewOSS(cfg config.OSSConfig) (*OSS, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSS{bucket: bucket, prefix: cfg.Prefix}, nil
}

func (o *OSS) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opts := []oss.Option{oss.WithContext(ctx), oss.ContentType(contentType)}
	if size > 0 {
		opts = append(opts, oss.ContentLength(size))
	}
	if err := o.bucket.PutObject(joinPrefix(o.prefix, key), r, opts...); err != nil {
		return fmt.Errorf("failed to upload video: %w", err)
	}
	return nil
}

func (o *OSS) Delete(ctx context.Context, key string) error {
	if err := o.bucket.DeleteObject(joinPrefix(o.prefix, key), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
