package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidDataURL is returned for malformed embedded photos
var ErrInvalidDataURL = errors.New("invalid photo data URL")

// PhotoStore decides where a check-in photo lives and returns the value
// to persist in the photo column.
type PhotoStore interface {
	Store(ctx context.Context, checkInID, photo string) (string, error)
}

// InlinePhotoStore keeps the embedded encoding in the row
type InlinePhotoStore struct{}

// Store returns the photo unchanged
func (InlinePhotoStore) Store(_ context.Context, _, photo string) (string, error) {
	return photo, nil
}

// S3API is the part of the S3 client used for uploads
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PhotoStore uploads embedded photos to a bucket and persists the object URL
type S3PhotoStore struct {
	client   S3API
	bucket   string
	region   string
	endpoint string
}

// S3Options holds settings for NewS3PhotoStore
type S3Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// NewS3PhotoStore creates an S3 backed photo store
func NewS3PhotoStore(ctx context.Context, opts S3Options) (*S3PhotoStore, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3PhotoStoreWithClient(client, opts.Bucket, opts.Region, opts.Endpoint), nil
}

// NewS3PhotoStoreWithClient creates a store around an existing client
func NewS3PhotoStoreWithClient(client S3API, bucket, region, endpoint string) *S3PhotoStore {
	return &S3PhotoStore{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: strings.TrimRight(endpoint, "/"),
	}
}

// Store uploads a data URL photo and returns its object URL.
// Anything that is not a data URL is already a reference and is kept.
func (s *S3PhotoStore) Store(ctx context.Context, checkInID, photo string) (string, error) {
	if !strings.HasPrefix(photo, "data:") {
		return photo, nil
	}

	contentType, data, err := decodeDataURL(photo)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("checkins/%s%s", checkInID, extensionFor(contentType))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *S3PhotoStore) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// decodeDataURL splits data:<mime>;base64,<payload>
func decodeDataURL(v string) (string, []byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(v, "data:"), ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}

	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return contentType, data, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
