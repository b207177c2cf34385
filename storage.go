package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Publisher uploads finished manifests to an S3-compatible bucket
type S3Publisher struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Publisher creates a publisher. Credentials fall back to the standard
// AWS environment and shared config when the settings leave them empty.
func NewS3Publisher(ctx context.Context, cfg S3Settings) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Publish uploads the manifest and returns its key
func (p *S3Publisher) Publish(ctx context.Context, manifestPath string) (string, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return "", fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	key := manifestKey(p.prefix, manifestPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload manifest to S3: %w", err)
	}

	return key, nil
}

// manifestKey is {prefix}/{manifest filename}, always with forward slashes
func manifestKey(prefix, manifestPath string) string {
	name := filepath.Base(manifestPath)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
