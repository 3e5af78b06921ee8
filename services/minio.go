package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

const (
	MINIO_SVC = "minio_svc"

	MaxImageSize = 5 * 1024 * 1024
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ObjectStore is the subset of the MinIO client used for uploads.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type MinIOService struct {
	appContext.DefaultService
	client     ObjectStore
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
	publicURL  string
	now        func() time.Time
}

func NewMinIOService(client ObjectStore, bucketName, publicURL string) *MinIOService {
	return &MinIOService{
		client:     client,
		bucketName: bucketName,
		publicURL:  strings.TrimRight(publicURL, "/"),
		now:        time.Now,
	}
}

func (svc MinIOService) Id() string {
	return MINIO_SVC
}

func (svc *MinIOService) Configure(ctx *appContext.Context) error {
	svc.endpoint = envOr("MINIO_ENDPOINT", "localhost:9000")
	svc.accessKey = envOr("MINIO_ACCESS_KEY", "admin")
	svc.secretKey = envOr("MINIO_SECRET_KEY", "password123")
	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"
	svc.bucketName = envOr("MINIO_BUCKET_NAME", "storefront")

	scheme := "http"
	if svc.useSSL {
		scheme = "https"
	}
	svc.publicURL = strings.TrimRight(envOr("MINIO_PUBLIC_URL", fmt.Sprintf("%s://%s/%s", scheme, svc.endpoint, svc.bucketName)), "/")
	svc.now = time.Now

	return svc.DefaultService.Configure(ctx)
}

func (svc *MinIOService) Start() error {
	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}
	svc.client = client

	// Uploads are optional; the storefront keeps taking orders without them.
	if err := svc.ensureBucket(); err != nil {
		log.WithField("endpoint", svc.endpoint).WithError(err).Warn("MinIO bucket unavailable, image uploads will fail")
		return nil
	}

	log.WithFields(log.Fields{"endpoint": svc.endpoint, "bucket": svc.bucketName}).Info("MinIO service started")
	return nil
}

func (svc *MinIOService) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.WithField("bucket", svc.bucketName).Info("Created MinIO bucket")
	}
	return nil
}

// UploadImage stores a customer personalisation image and returns its public URL.
func (svc *MinIOService) UploadImage(ctx context.Context, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if file == nil {
		return nil, shared.NewBadRequestError(nil, "Image file is required")
	}
	if file.Size <= 0 {
		return nil, shared.NewBadRequestError(nil, "Image file is empty")
	}
	if file.Size > MaxImageSize {
		return nil, shared.NewBadRequestError(nil, "Image file too large. Maximum size: 5MB")
	}

	src, err := file.Open()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to open uploaded file")
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, shared.NewInternalError(err, "Failed to read uploaded file")
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, shared.NewBadRequestError(nil, "Invalid image format. Supported: JPG, PNG, WEBP")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, shared.NewInternalError(err, "Failed to read uploaded file")
	}

	if svc.client == nil {
		return nil, shared.NewServiceUnavailableError(nil, "Image storage unavailable")
	}

	id, _ := uuid.NewV7()
	now := svc.now().UTC()
	key := fmt.Sprintf("orders/%04d/%02d/%s.%s", now.Year(), int(now.Month()), id.String(), ext)

	info, err := svc.client.PutObject(ctx, svc.bucketName, key, src, file.Size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.WithField("key", key).WithError(err).Error("Failed to upload image")
		return nil, shared.NewServiceUnavailableError(err, "Image storage unavailable")
	}

	log.WithFields(log.Fields{"key": info.Key, "size": info.Size}).Info("Image uploaded")
	return &dto.UploadResponse{
		URL:         svc.publicURL + "/" + key,
		Key:         key,
		Size:        file.Size,
		ContentType: contentType,
	}, nil
}
