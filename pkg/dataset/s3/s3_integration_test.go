//go:build integration
// +build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
	dstesting "github.com/marmos91/strata/pkg/dataset/testing"
)

// TestS3Backend_Integration runs the full backend conformance suite
// against a real S3-compatible service (Localstack or MinIO).
//
// Prerequisites:
//   - Localstack running on localhost:4566 (or set STRATA_S3_TEST_ENDPOINT)
//   - Run with: go test -tags=integration ./pkg/dataset/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Backend_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("STRATA_S3_TEST_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	require.NoError(t, err)

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	bucket := fmt.Sprintf("strata-test-%d", time.Now().UnixNano())
	_, err = client.CreateBucket(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	require.NoError(t, err)

	var prefixCounter int
	suite := &dstesting.BackendTestSuite{
		NewHandler: func(t *testing.T, mode dataset.AccessMode) *dataset.IOHandler {
			// A fresh key prefix per test isolates storage without
			// the cost of a bucket per test.
			prefixCounter++
			backend, err := New(ctx, Config{
				Client:    client,
				Bucket:    bucket,
				KeyPrefix: fmt.Sprintf("case-%04d/", prefixCounter),
				Mode:      mode,
			})
			require.NoError(t, err)
			return dataset.NewIOHandler(backend, mode)
		},
	}
	suite.Run(t)
}
