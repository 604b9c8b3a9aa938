package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// Folders objects are grouped under.
const (
	FolderInventory = "inventory"
	FolderProofs    = "payment-proofs"
	FolderPets      = "pets"
	FolderProfiles  = "profiles"
)

const maxObjectSize = 10 << 20

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Object is a stored file.
type Object struct {
	Key string
	URL string
}

type Store struct {
	client    S3API
	bucket    string
	publicURL string
	logger    *logger.Logger
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A configured endpoint switches to path-style addressing for S3 compatible stores.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewStore(client S3API, cfg config.StorageConfig, log *logger.Logger) *Store {
	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		logger:    log,
	}
}

// Upload stores f under folder with a generated key.
func (s *Store) Upload(ctx context.Context, folder string, f *model.Photo) (*Object, error) {
	if f == nil || len(f.Body) == 0 {
		return nil, fmt.Errorf("empty upload")
	}
	if len(f.Body) > maxObjectSize {
		return nil, fmt.Errorf("upload exceeds %d bytes", maxObjectSize)
	}

	key := path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(f.Filename)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 put %s: %w", key, err)
	}

	s.logger.Debug("Object uploaded", "key", key, "size", len(f.Body))
	return &Object{Key: key, URL: s.publicURL + "/" + key}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}
