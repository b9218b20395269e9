package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Storage errors
var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image too large")
)

// MaxImageSize is the upload limit for a listing image
const MaxImageSize = 10 << 20

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// S3API is the subset of the S3 client the storage service uses
type S3API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StorageConfig holds S3-compatible storage settings
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// NewS3Client builds a path-style S3 client for an S3-compatible endpoint
func NewS3Client(ctx context.Context, cfg StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// StorageService stores listing images in a bucket
type StorageService struct {
	client S3API
	cfg    StorageConfig
	logger *zap.Logger
	now    clock
}

// NewStorageService creates a new storage service
func NewStorageService(client S3API, cfg StorageConfig, logger *zap.Logger) *StorageService {
	return &StorageService{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    timeNow,
	}
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err == nil {
		return nil
	}

	s.logger.Info("🪣 Creating bucket", zap.String("bucket", s.cfg.Bucket))
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// UploadedImage describes a stored object
type UploadedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// UploadImage stores a listing image and returns its public URL
func (s *StorageService) UploadImage(ctx context.Context, contentType string, size int64, body io.Reader) (*UploadedImage, error) {
	ext, ok := imageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, ErrUnsupportedImage
	}
	if size > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	key := s.objectKey(ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	s.logger.Info("📷 Image uploaded", zap.String("key", key), zap.Int64("size", size))
	return &UploadedImage{Key: key, URL: s.PublicURL(key)}, nil
}

// PublicURL resolves the browser-facing URL of an object key
func (s *StorageService) PublicURL(key string) string {
	base := strings.TrimRight(s.cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return base + "/" + strings.TrimLeft(key, "/")
}

func (s *StorageService) objectKey(ext string) string {
	d := s.now().UTC()
	return path.Join("listings", fmt.Sprintf("%04d/%02d/%02d", d.Year(), d.Month(), d.Day()), uuid.NewString()+ext)
}

// ensure the concrete client satisfies S3API
var _ S3API = (*s3.Client)(nil)

