package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultPrefix is the key prefix summaries are written under.
const DefaultPrefix = "tournament-runs"

// ErrNoBucket indicates the S3 reporter was configured without a bucket.
var ErrNoBucket = errors.New("report bucket not configured")

// PutObjectAPI is the subset of the S3 client used by S3Reporter.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the S3 client. Endpoint is set for S3-compatible
// stores such as R2 or MinIO.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Reporter uploads run summaries as JSON objects.
type S3Reporter struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Reporter creates a reporter writing to bucket. An empty prefix uses DefaultPrefix.
func NewS3Reporter(client PutObjectAPI, bucket, prefix string) (*S3Reporter, error) {
	if bucket == "" {
		return nil, ErrNoBucket
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &S3Reporter{client: client, bucket: bucket, prefix: prefix}, nil
}

// Report implements Reporter.
func (r *S3Reporter) Report(ctx context.Context, s Summary) error {
	body, err := Marshal(s)
	if err != nil {
		return err
	}

	key := Key(r.prefix, s)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload run summary %s: %w", key, err)
	}
	return nil
}
