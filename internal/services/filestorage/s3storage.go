package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/agri4/agri-server/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
)

// S3API is the part of the S3 client the storage uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3FileStorage struct {
	client S3API
	cfg    *config.S3Config
}

func NewS3FileStorage(ctx context.Context, cfg *config.Config) (*S3FileStorage, error) {
	if cfg.S3 == nil {
		return nil, fmt.Errorf("s3 config is not set")
	}

	region := cfg.S3.Region
	if region == "" {
		region = "auto"
	}

	credentialsProvider := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	awsCfg, err := awsConfig.LoadDefaultConfig(
		ctx,
		awsConfig.WithRegion(region),
		awsConfig.WithCredentialsProvider(credentialsProvider),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
	})

	return NewS3FileStorageWithClient(client, cfg.S3), nil
}

func NewS3FileStorageWithClient(client S3API, cfg *config.S3Config) *S3FileStorage {
	return &S3FileStorage{client: client, cfg: cfg}
}

func (u *S3FileStorage) key(filename string, isTemp bool) string {
	if isTemp {
		return "temp/" + filename
	}

	folder := strings.Trim(u.cfg.Folder, "/")
	if folder == "" {
		return filename
	}
	return folder + "/" + filename
}

func (u *S3FileStorage) Upload(ctx context.Context, file FileInfo) (string, error) {
	key := u.key(file.Filename(), file.IsTemp)

	contentType := file.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(file.Content).String()
	}

	// Uploaded images are public so they can be linked from posts and listings.
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Bucket:      aws.String(u.cfg.Bucket),
		Body:        bytes.NewReader(file.Content),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return u.publicURL(key)
}

func (u *S3FileStorage) publicURL(key string) (string, error) {
	if u.cfg.PublicUrl != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.cfg.PublicUrl, "/"), key), nil
	}

	// Handle different S3-compatible storage providers
	switch {
	case strings.Contains(u.cfg.Endpoint, "digitaloceanspaces.com"):
		return fmt.Sprintf("https://%s.%s.cdn.digitaloceanspaces.com/%s", u.cfg.Bucket, u.cfg.Region, key), nil
	case u.cfg.Endpoint == "" || strings.Contains(u.cfg.Endpoint, "amazonaws.com"):
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key), nil
	default:
		// Generic S3-compatible providers such as Cloudflare R2 need an explicit URL.
		return "/file/" + filepath.Base(key), nil
	}
}

func (u *S3FileStorage) GetFile(ctx context.Context, filename string) (*FileInfo, error) {
	object, err := u.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(u.key(filename, false)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filename)
		}
		return nil, err
	}
	defer object.Body.Close()

	content, err := io.ReadAll(object.Body)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(filename)
	info := &FileInfo{
		Name:      strings.TrimSuffix(filename, ext),
		Extension: ext,
		Content:   content,
	}
	if object.ContentType != nil {
		info.ContentType = *object.ContentType
	} else {
		info.ContentType = mimetype.Detect(content).String()
	}

	return info, nil
}
