package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/moodyshaheen/protfolio/errs"
)

// S3Store implements Store against any S3-compatible bucket.
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2, etc.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	maxBytes  int64
	logger    zerolog.Logger
}

// S3Config holds configuration for the S3 backend.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional: for S3-compatible services
	MaxBytes  int64
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	ctx := context.Background()

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.NewAssetStoreUnavailableError("init", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	publicURL := cfg.Endpoint
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	} else {
		publicURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	store := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		maxBytes:  cfg.MaxBytes,
		logger:    log.With().Str("store", "s3").Str("bucket", cfg.Bucket).Logger(),
	}

	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureBucket checks if the bucket exists, creates it if not
func (s *S3Store) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return errs.NewAssetStoreUnavailableError("init", fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err))
	}

	s.logger.Info().Msg("created bucket")
	return nil
}

func (s *S3Store) Save(upload Upload) (string, error) {
	if err := validateUpload(upload, s.maxBytes); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ext := strings.ToLower(filepath.Ext(upload.OriginalName))
	name := newFilename(ext)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(upload.Bytes),
		ContentType: aws.String(upload.ContentType),
	})
	if err != nil {
		return "", errs.NewAssetStoreUnavailableError("save", err)
	}

	s.logger.Debug().Str("key", name).Int("bytes", len(upload.Bytes)).Msg("stored asset")
	return RefPrefix + name, nil
}

// Remove deletes the object behind ref. S3 deletes of missing keys succeed,
// which gives us idempotency for free.
func (s *S3Store) Remove(ref string) error {
	name, ok := refToFilename(ref)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return errs.NewAssetStoreUnavailableError("remove", err)
	}
	return nil
}

func (s *S3Store) Resolve(ref string) (string, bool) {
	name, ok := refToFilename(ref)
	if !ok {
		return "", false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s/%s", s.publicURL, name), true
}

func (s *S3Store) List() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var refs []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errs.NewAssetStoreUnavailableError("list", err)
		}
		for _, obj := range page.Contents {
			refs = append(refs, RefPrefix+aws.ToString(obj.Key))
		}
	}
	return refs, nil
}
