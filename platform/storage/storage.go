package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"docpipe_backend/config"
	"docpipe_backend/models"
	"docpipe_backend/pkg/logging"
	"docpipe_backend/utils"

	"github.com/minio/minio-go/v7"
)

type Service struct {
	Client           *minio.Client
	Config           *minio.Options
	Bucket           string
	StorageType      string
	Endpoint         string
	UseSSL           bool
	FileKeyGenerator *utils.FileKeyGenerator
}

func InitStorageService(cfg *config.Config) (*Service, error) {
	var minioClient *minio.Client
	var err error

	// local vs s3
	switch cfg.StorageType {
	case "minio":
		minioClient, err = utils.CreateMinIOClient(cfg)
	case "s3":
		minioClient, err = utils.CreateS3Client(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}
	if err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}

	keyGenerator := utils.NewFileKeyGenerator(utils.StrategyUserBased, "documents")
	ss := &Service{
		Client:           minioClient,
		Config:           &minio.Options{Region: cfg.BucketRegion},
		Bucket:           cfg.BucketName,
		StorageType:      cfg.StorageType,
		Endpoint:         cfg.BucketEndpoint,
		UseSSL:           cfg.UseSSL,
		FileKeyGenerator: keyGenerator,
	}
	if err := ss.EnsureBucketExists(); err != nil {
		logging.Logger.Error("fail InitStorageService", "error", err)
		return nil, err
	}
	logging.Logger.Info("Storage service initialized",
		"type", cfg.StorageType,
		"bucket", cfg.BucketName,
		"region", cfg.BucketRegion,
	)

	return ss, nil
}

func (ss *Service) EnsureBucketExists() error {
	ctx := context.Background()
	exists, err := ss.Client.BucketExists(ctx, ss.Bucket)
	if err != nil {
		logging.Logger.Error("fail EnsureBucketExists", "error", err)
		return err
	}
	if exists {
		return nil
	}
	err = ss.Client.MakeBucket(ctx, ss.Bucket, minio.MakeBucketOptions{
		Region: ss.Config.Region,
	})
	if err != nil {
		if ss.StorageType == "s3" {
			logging.Logger.Warn("Could not create S3 bucket (might exist or no permission)",
				"bucket", ss.Bucket, "error", err)
			return nil
		}
		logging.Logger.Error("fail EnsureBucketExists", "error", err)
		return err
	}
	logging.Logger.Info("Bucket created", "bucket", ss.Bucket)
	return nil
}

// GeneratePresignedUpload builds the presigned POST the browser uses to
// push bytes straight to the bucket, bounded by size and content type.
func (ss *Service) GeneratePresignedUpload(filename, userID, contentType string, maxFileSize int64, docID string) (*models.UploadResp, error) {
	fileKey := ss.FileKeyGenerator.GenerateFileKey(filename, userID)

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(ss.Bucket); err != nil {
		return nil, err
	}
	if err := policy.SetKey(fileKey); err != nil {
		return nil, err
	}
	expires := time.Now().Add(15 * time.Minute)
	if err := policy.SetExpires(expires); err != nil {
		return nil, err
	}
	if maxFileSize > 0 {
		if err := policy.SetContentLengthRange(1, maxFileSize); err != nil {
			return nil, err
		}
	}
	if err := policy.SetContentType(contentType); err != nil {
		return nil, err
	}

	postURL, formData, err := ss.Client.PresignedPostPolicy(context.Background(), policy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned POST: %w", err)
	}

	return &models.UploadResp{
		DocID:     docID,
		UploadURL: postURL.String(),
		FileKey:   fileKey,
		Fields:    formData,
		Expires:   expires,
		Provider:  ss.StorageType,
	}, nil
}

func (ss *Service) GeneratePresignedGetDownload(fileKey string, expiration time.Time) (string, error) {
	duration := time.Until(expiration)
	if duration <= 0 {
		return "", fmt.Errorf("expiration %v already passed", expiration)
	}
	presignedURL, err := ss.Client.PresignedGetObject(
		context.Background(),
		ss.Bucket,
		fileKey,
		duration,
		nil,
	)
	if err != nil {
		logging.Logger.Error("fail GeneratePresignedGetDownload", "error", err)
		return "", err
	}
	return presignedURL.String(), nil
}

func (ss *Service) FileExists(fileKey string) (bool, error) {
	_, err := ss.Client.StatObject(context.Background(), ss.Bucket, fileKey, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ss *Service) DownloadObject(ctx context.Context, fileKey string) ([]byte, error) {
	obj, err := ss.Client.GetObject(ctx, ss.Bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", fileKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", fileKey, err)
	}
	return data, nil
}

func (ss *Service) UploadObject(ctx context.Context, fileKey string, data []byte, contentType string) error {
	_, err := ss.Client.PutObject(ctx, ss.Bucket, fileKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", fileKey, err)
	}
	return nil
}

func (ss *Service) RemoveObject(ctx context.Context, fileKey string) error {
	return ss.Client.RemoveObject(ctx, ss.Bucket, fileKey, minio.RemoveObjectOptions{})
}

// PublicObjectURL builds the stable download URL for a key. The bucket
// carries a public read policy, so no signing is involved and the URL
// can be persisted on the document.
func (ss *Service) PublicObjectURL(fileKey string) string {
	scheme := "http"
	if ss.UseSSL {
		scheme = "https"
	}
	if ss.StorageType == "s3" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", ss.Bucket, fileKey)
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, ss.Endpoint, ss.Bucket, fileKey)
}
