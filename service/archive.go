package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Jency96/Form-Management/config"
)

// ArchiveService keeps generated documents and confirmed photos in an
// object-storage bucket so finished reports survive the device. The
// archive is best-effort: the download path never depends on it.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// StoreDocument archives one generated PDF under the task number and
// filename it was downloaded as.
func (s *ArchiveService) StoreDocument(ctx context.Context, taskNo, filename string, pdfBytes []byte) (string, error) {
	if taskNo == "" {
		taskNo = "unknown"
	}
	objectName := fmt.Sprintf("documents/%s/%d-%s", taskNo, time.Now().UnixMilli(), filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(pdfBytes), int64(len(pdfBytes)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("failed to archive document: %w", err)
	}
	return objectName, nil
}

// StorePhoto archives a confirmed photo attachment.
func (s *ArchiveService) StorePhoto(ctx context.Context, taskNo, format string, data []byte) (string, error) {
	if taskNo == "" {
		taskNo = "unknown"
	}
	objectName := fmt.Sprintf("photos/%s/%d.%s", taskNo, time.Now().UnixMilli(), format)

	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "image/" + format})
	if err != nil {
		return "", fmt.Errorf("failed to archive photo: %w", err)
	}
	return objectName, nil
}

// GetPresignedURL generates a presigned URL for an archived object.
func (s *ArchiveService) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}
