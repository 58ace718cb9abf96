// Package objectstore implements driven.ObjectStore against S3 or any
// S3-compatible store, via the AWS SDK's ListObjectsV2/HeadObject/
// GetObject operations.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
	"github.com/archivist-labs/archivist-core/internal/core/ports/driven"
)

var _ driven.ObjectStore = (*Store)(nil)

// Store implements driven.ObjectStore against a single S3 bucket.
type Store struct {
	client *s3.Client
	bucket string
}

// Config configures a Store.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // non-empty for S3-compatible stores (MinIO, etc.)
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// New builds a Store from cfg. When AccessKeyID is empty the default
// AWS credential chain (environment, shared config, instance role) is
// used instead.
func New(ctx context.Context, cfg Config) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Ping checks bucket reachability.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket: %w", err)
	}
	return nil
}

// List returns objects under prefix, one page at a time. Pass an empty
// cursor to start; a non-empty returned nextCursor means more pages
// remain.
func (s *Store) List(ctx context.Context, prefix, cursor string) ([]domain.StorageObject, string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if cursor != "" {
		input.ContinuationToken = aws.String(cursor)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("list objects under %q: %w", prefix, err)
	}

	objects := make([]domain.StorageObject, 0, len(out.Contents))
	for _, obj := range out.Contents {
		so := domain.StorageObject{
			StorageKey: aws.ToString(obj.Key),
			Size:       aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			so.LastModified = *obj.LastModified
		}
		objects = append(objects, so)
	}

	nextCursor := ""
	if aws.ToBool(out.IsTruncated) {
		nextCursor = aws.ToString(out.NextContinuationToken)
	}

	return objects, nextCursor, nil
}

// Stat retrieves metadata for a single object without fetching its
// body, used by the pipeline to detect an object that vanished before
// its CREATE event was processed.
func (s *Store) Stat(ctx context.Context, storageKey string) (domain.StorageObject, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		if isNotFound(err) {
			return domain.StorageObject{}, fmt.Errorf("%w: %s", domain.ErrNotFound, storageKey)
		}
		return domain.StorageObject{}, fmt.Errorf("stat %s: %w", storageKey, err)
	}

	so := domain.StorageObject{
		StorageKey:  storageKey,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		so.LastModified = *out.LastModified
	}

	return so, nil
}

// Get fetches the full object body into memory.
func (s *Store) Get(ctx context.Context, storageKey string) (domain.RawDocument, error) {
	body, meta, err := s.GetReader(ctx, storageKey)
	if err != nil {
		return domain.RawDocument{}, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read object %s: %w", storageKey, err)
	}

	return domain.RawDocument{
		StorageKey:  storageKey,
		Bytes:       data,
		ContentType: meta.ContentType,
		Size:        int64(len(data)),
	}, nil
}

// GetReader fetches an object as a stream, for callers that would
// rather not hold the whole body in memory at once.
func (s *Store) GetReader(ctx context.Context, storageKey string) (io.ReadCloser, domain.StorageObject, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, domain.StorageObject{}, fmt.Errorf("%w: %s", domain.ErrNotFound, storageKey)
		}
		return nil, domain.StorageObject{}, fmt.Errorf("get object %s: %w", storageKey, err)
	}

	meta := domain.StorageObject{
		StorageKey:  storageKey,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}

	return out.Body, meta, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
