package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/m3rciful/residentbot/core/logger"
)

var (
	// ErrStorage wraps every object store failure.
	ErrStorage = errors.New("storage error")
	// ErrBucketNotFound reports a missing or inaccessible bucket.
	ErrBucketNotFound = fmt.Errorf("%w: bucket not found", ErrStorage)
	// ErrObjectNotFound reports a missing object key.
	ErrObjectNotFound = fmt.Errorf("%w: object not found", ErrStorage)
)

// ObjectStore downloads objects by key into local files.
type ObjectStore interface {
	Download(ctx context.Context, key, path string) error
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads objects from a single bucket.
type S3Store struct {
	client S3API
	bucket string
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store binds client to bucket.
func NewS3Store(client S3API, bucket string) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: s3 client is nil", ErrStorage)
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is empty", ErrStorage)
	}
	return &S3Store{client: client, bucket: bucket}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string { return s.bucket }

// Download streams the object into path. A partially written file is removed on failure.
func (s *S3Store) Download(ctx context.Context, key, path string) error {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = classifyS3Error(err)
		logger.Warn(ctx, "directory", "s3.get.failed",
			slog.String("bucket", s.bucket),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrStorage, path, err)
	}
	n, copyErr := io.Copy(f, out.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}

	logger.Debug(ctx, "directory", "s3.get",
		slog.String("bucket", s.bucket),
		slog.String("key", key),
		slog.Int64("bytes", n),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func classifyS3Error(err error) error {
	var noKey *s3types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	}
	var noBucket *s3types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrBucketNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
