package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxPhotoSize    = 8 * 1024 * 1024 // 8 MB
	photoURLTTL     = 15 * time.Minute
	photoPathPrefix = "vacancy-photos"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 8MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")

	allowedPhotoTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService stores vacancy photos in object storage.
type StorageService interface {
	// UploadPhoto stores a vacancy photo and returns the object key.
	UploadPhoto(ctx context.Context, vacancyID uint, file io.Reader, fileSize int64, contentType string) (string, error)

	// DeletePhoto removes a photo by object key.
	DeletePhoto(ctx context.Context, objectKey string) error

	// PhotoURL generates a short-lived presigned URL for a photo.
	PhotoURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOStorageService implements StorageService on MinIO/S3-compatible
// storage.
type MinIOStorageService struct {
	client      *minio.Client
	bucketName  string
	bucketReady atomic.Bool
}

func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStorageService{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// ensureBucketExists runs lazily on first upload so the process can start
// before the storage backend is reachable.
func (s *MinIOStorageService) ensureBucketExists(ctx context.Context) error {
	if s.bucketReady.Load() {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}

	s.bucketReady.Store(true)
	return nil
}

func (s *MinIOStorageService) UploadPhoto(ctx context.Context, vacancyID uint, file io.Reader, fileSize int64, contentType string) (string, error) {
	if fileSize > maxPhotoSize {
		return "", ErrFileTooBig
	}

	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if _, allowed := allowedPhotoTypes[normalized]; !allowed {
		return "", ErrInvalidFileType
	}

	// Sniff the real content type from the leading bytes instead of
	// trusting the client-provided header.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("%w: read file: %v", ErrUploadFailed, err)
	}
	head = head[:n]
	detected := http.DetectContentType(head)
	if _, allowed := allowedPhotoTypes[detected]; !allowed {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidFileType, detected)
	}

	if err := s.ensureBucketExists(ctx); err != nil {
		return "", err
	}

	body := io.MultiReader(bytes.NewReader(head), file)
	objectKey := fmt.Sprintf("%s/vacancy-%d/%s%s", photoPathPrefix, vacancyID, uuid.New().String(), contentTypeToExtension(detected))

	metadata := map[string]string{
		"Vacancy-ID":  fmt.Sprintf("%d", vacancyID),
		"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := s.client.PutObject(ctx, s.bucketName, objectKey, body, fileSize, minio.PutObjectOptions{
		ContentType:  detected,
		UserMetadata: metadata,
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return objectKey, nil
}

func (s *MinIOStorageService) DeletePhoto(ctx context.Context, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}

	err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	return nil
}

func (s *MinIOStorageService) PhotoURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, photoURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}

	return presignedURL.String(), nil
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
