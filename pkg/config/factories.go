package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/dataset"
	badgerbackend "github.com/marmos91/strata/pkg/dataset/badger"
	memorybackend "github.com/marmos91/strata/pkg/dataset/memory"
	s3backend "github.com/marmos91/strata/pkg/dataset/s3"
)

// ParseAccessMode maps a config mode string onto the dataset access
// mode.
func ParseAccessMode(mode string) (dataset.AccessMode, error) {
	switch mode {
	case "read-only":
		return dataset.AccessReadOnly, nil
	case "read-write":
		return dataset.AccessReadWrite, nil
	case "create":
		return dataset.AccessCreate, nil
	default:
		return 0, fmt.Errorf("unknown access mode: %q", mode)
	}
}

// CreateBackend creates a storage backend based on one target's
// configuration.
//
// This factory uses the Backend field to determine which implementation
// to create, then passes the backend-specific configuration section to
// its constructor.
//
// Supported backends:
//   - "memory": Uses pkg/dataset/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/dataset/badger (BadgerDB storage, persistent)
//   - "s3": Uses pkg/dataset/s3 (Amazon S3 or compatible storage)
func CreateBackend(ctx context.Context, name string, cfg *TargetConfig) (dataset.Backend, dataset.AccessMode, error) {
	mode, err := ParseAccessMode(cfg.Mode)
	if err != nil {
		return nil, 0, fmt.Errorf("target %q: %w", name, err)
	}

	switch cfg.Backend {
	case "memory":
		return memorybackend.New(memorybackend.Config{Mode: mode}), mode, nil
	case "badger":
		backend, err := badgerbackend.New(badgerbackend.Config{
			Path: cfg.Badger.Path,
			Mode: mode,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("target %q: %w", name, err)
		}
		return backend, mode, nil
	case "s3":
		backend, err := createS3Backend(ctx, name, &cfg.S3, mode)
		if err != nil {
			return nil, 0, err
		}
		return backend, mode, nil
	default:
		return nil, 0, fmt.Errorf("target %q: unknown backend type: %q", name, cfg.Backend)
	}
}

// createS3Backend builds the AWS client and the S3 backend for one
// target.
func createS3Backend(ctx context.Context, name string, cfg *S3TargetConfig, mode dataset.AccessMode) (dataset.Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("target %q: s3 backend requires a bucket", name)
	}

	var configOptions []func(*awsconfig.LoadOptions) error
	configOptions = append(configOptions, awsconfig.WithRegion(cfg.Region))

	// Static credentials if provided, otherwise the default chain.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	// Retry transient errors (502, 503, timeouts) more aggressively
	// than the AWS default of 3 attempts.
	configOptions = append(configOptions, awsconfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = 10
		})
	}))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("target %q: failed to load AWS config: %w", name, err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			// Custom endpoint for MinIO, Localstack, Cubbit DS3, etc.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle || cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	backend, err := s3backend.New(ctx, s3backend.Config{
		Client:         client,
		Bucket:         cfg.Bucket,
		KeyPrefix:      cfg.KeyPrefix,
		Mode:           mode,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("target %q: failed to create s3 backend: %w", name, err)
	}

	logger.Info("s3 target initialized: name=%s bucket=%s region=%s prefix=%q",
		name, cfg.Bucket, cfg.Region, cfg.KeyPrefix)

	return backend, nil
}
