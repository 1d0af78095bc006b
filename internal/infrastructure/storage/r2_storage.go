package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"creatorhub/media-access/internal/config"
	"creatorhub/media-access/internal/infrastructure/metrics"
)

var errStorageDisabled = errors.New("media storage backend is not configured; set MEDIA_R2_* to enable signed URLs")

// R2Storage signs and serves objects from an R2/S3-compatible bucket. The
// signing scheme is the bucket's own (SigV4 presigned GET), so the storage
// layer's access check validates the URLs itself.
type R2Storage struct {
	bucket   string
	client   *s3.Client
	presign  *s3.PresignClient
	log      zerolog.Logger
	disabled bool
}

func NewR2Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*R2Storage, error) {
	logger := log.With().Str("component", "r2-storage").Logger()
	storage := &R2Storage{
		bucket: strings.TrimSpace(cfg.R2Bucket),
		log:    logger,
	}

	accessKey := strings.TrimSpace(cfg.R2AccessKeyID)
	secretKey := strings.TrimSpace(cfg.R2SecretKey)
	if storage.bucket == "" || accessKey == "" || secretKey == "" {
		logger.Warn().Msg("MEDIA_R2_BUCKET or credentials are not set; signed URL generation will be disabled until configured")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.R2Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.R2Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.R2Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.R2Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.R2UsePathStyle
	})

	storage.client = client
	storage.presign = s3.NewPresignClient(client)
	return storage, nil
}

func (s *R2Storage) ensureEnabled() error {
	if s.disabled {
		return errStorageDisabled
	}
	return nil
}

// SupportsSignedURLs reports that this backend validates its own URLs.
func (s *R2Storage) SupportsSignedURLs() bool {
	return true
}

// SignedGetURL presigns a GET for one object with the given lifetime.
func (s *R2Storage) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := s.ensureEnabled(); err != nil {
		return "", err
	}
	start := time.Now()
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		metrics.RecordStorageOperation("presign_get", "error")
		return "", fmt.Errorf("presign get object: %w", err)
	}
	metrics.RecordStorageOperation("presign_get", "success")
	metrics.RecordPresign(time.Since(start).Seconds())
	return req.URL, nil
}

// Open fetches object contents for proxying.
func (s *R2Storage) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := s.ensureEnabled(); err != nil {
		return nil, "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordStorageOperation("get_object", "error")
		return nil, "", err
	}
	metrics.RecordStorageOperation("get_object", "success")
	mime := ""
	if out.ContentType != nil {
		mime = *out.ContentType
	}
	return out.Body, mime, nil
}

// Health performs a simple HeadBucket request.
func (s *R2Storage) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
