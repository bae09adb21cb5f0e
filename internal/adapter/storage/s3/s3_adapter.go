package s3

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

// objectClient is the slice of *minio.Client the storage operations need.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	EndpointURL() *url.URL
}

// S3Storage is the MinIO-backed remote store the property media lives in.
// Object keys double as the MediaAsset PublicID.
type S3Storage struct {
	client objectClient
	bucket string
	logger *logger.Logger
}

// NewS3Storage connects to MinIO and ensures the bucket exists.
func NewS3Storage(endpoint, accessKey, secretKey, bucketName string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 MinIO storage",
		zap.String("endpoint", endpoint), zap.String("bucket", bucketName), zap.Bool("use_ssl", useSSL))

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucketName)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucketName, err, errBucketExists)
		}
		log.Info("Bucket already exists", zap.String("bucket", bucketName))
	}

	return &S3Storage{
		client: client,
		bucket: bucketName,
		logger: log.Named("S3Storage"),
	}, nil
}

// Upload pushes one scratch-stored attachment to the bucket under a fresh
// uuid key and returns the resulting asset. The attachment itself is left on
// local storage; scratch cleanup is the caller's responsibility.
func (s *S3Storage) Upload(ctx context.Context, att domain.Attachment) (domain.MediaAsset, error) {
	ext := filepath.Ext(att.StoredName)
	objectKey := fmt.Sprintf("properties/%s%s", uuid.New().String(), ext)

	file, err := os.Open(att.Path)
	if err != nil {
		return domain.MediaAsset{}, fmt.Errorf("failed to open attachment %s: %w", att.StoredName, err)
	}
	defer file.Close()

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, objectKey, file, att.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		// A client-side failure such as a timeout can leave the object stored
		// remotely with nobody holding its key. Best-effort delete closes
		// that orphan window, detached from the request's cancellation.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if rmErr := s.client.RemoveObject(cleanupCtx, s.bucket, objectKey, minio.RemoveObjectOptions{}); rmErr != nil && !isNoSuchKey(rmErr) {
			s.logger.Warn("Failed to clean up object after upload error", zap.String("key", objectKey), zap.Error(rmErr))
		}
		return domain.MediaAsset{}, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Debug("Object uploaded",
		zap.String("bucket", info.Bucket), zap.String("key", info.Key), zap.Int64("size", info.Size))

	fileURL := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)
	return domain.MediaAsset{URL: fileURL, PublicID: objectKey}, nil
}

// Remove deletes one object by its key. An already-deleted or unknown key is
// treated as already satisfied.
func (s *S3Storage) Remove(ctx context.Context, publicID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		s.logger.Error("RemoveObject failed", zap.String("key", publicID), zap.Error(err))
		return fmt.Errorf("failed to remove object %s: %w", publicID, err)
	}
	return nil
}

// RemoveMany bulk-deletes objects by key. Unknown keys are skipped; the first
// real failure is returned after the whole batch has been attempted.
func (s *S3Storage) RemoveMany(ctx context.Context, publicIDs []string) error {
	if len(publicIDs) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(publicIDs))
	for _, id := range publicIDs {
		objectsCh <- minio.ObjectInfo{Key: id}
	}
	close(objectsCh)

	var firstErr error
	for rErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err == nil || isNoSuchKey(rErr.Err) {
			continue
		}
		s.logger.Error("Bulk remove failed for object", zap.String("key", rErr.ObjectName), zap.Error(rErr.Err))
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to remove object %s: %w", rErr.ObjectName, rErr.Err)
		}
	}
	return firstErr
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey"
}
