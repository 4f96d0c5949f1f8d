package storage

import (
	"context"
	"fmt"
)

// R2Config holds R2 connection configuration
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
}

// NewR2Archive creates an archive on Cloudflare R2.
func NewR2Archive(ctx context.Context, cfg R2Config) (*S3Archive, error) {
	// R2 endpoint format: https://<account_id>.r2.cloudflarestorage.com
	return NewS3Archive(ctx, Config{
		Bucket:    cfg.BucketName,
		Region:    "auto",
		Endpoint:  fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID),
		AccessKey: cfg.AccessKeyID,
		SecretKey: cfg.AccessKeySecret,
	})
}
