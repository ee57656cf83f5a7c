package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("object storage is not configured")

// Config configures the S3-compatible bucket that holds vehicle frames.
type Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

func DefaultConfig() Config {
	return Config{Region: "ap-northeast-2", Prefix: "frames"}
}

// Uploader stores a captured frame and returns its public URL.
type Uploader interface {
	UploadFrame(ctx context.Context, plate string, body io.Reader, contentType string) (string, error)
}

// putObjectAPI is the slice of *s3.Client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	client    putObjectAPI
	bucket    string
	region    string
	endpoint  string
	prefix    string
	pathStyle bool
	newID     func() string
}

func NewS3Uploader(ctx context.Context, cfg Config) (*S3Uploader, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, ErrNotConfigured
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = DefaultConfig().Region
	}

	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	u := newUploader(client, cfg)
	u.region = region
	return u, nil
}

func newUploader(client putObjectAPI, cfg Config) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    strings.TrimSpace(cfg.Bucket),
		region:    cfg.Region,
		endpoint:  strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		prefix:    strings.Trim(cfg.Prefix, "/"),
		pathStyle: cfg.UsePathStyle,
		newID:     uuid.NewString,
	}
}

func (u *S3Uploader) UploadFrame(ctx context.Context, plate string, body io.Reader, contentType string) (string, error) {
	if u == nil || u.client == nil {
		return "", ErrNotConfigured
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := u.objectKey(plate)
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("s3 put object %s: %w", key, err)
	}

	return u.objectURL(key), nil
}

func (u *S3Uploader) objectKey(plate string) string {
	name := fmt.Sprintf("%s_%s.jpg", sanitize(plate), u.newID())
	if u.prefix == "" {
		return name
	}
	return u.prefix + "/" + name
}

func (u *S3Uploader) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case u.endpoint != "" && u.pathStyle:
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, escaped)
	case u.endpoint != "":
		return fmt.Sprintf("%s/%s", u.endpoint, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, escaped)
	}
}

// sanitize keeps plate numbers (often Hangul) intact but strips path
// separators and whitespace from the object key.
func sanitize(plate string) string {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, plate)
}
