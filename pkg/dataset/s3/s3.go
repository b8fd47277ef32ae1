// Package s3 persists dataset hierarchies in an S3 or S3-compatible
// bucket.
//
// Object schema, rooted at an optional key prefix:
//
//	<file>/.strata              file marker
//	<file><path>/.group         group node record
//	<file><path>/.dataset       dataset node record (datatype, extent)
//	<file><path>/.data          raw payload (little-endian, row-major)
//	<file><path>/.attr/<name>   attribute record
//
// The marker-object layout keeps the bucket human-readable and lets
// the list operations run as delimited ListObjectsV2 scans. Offset
// reads use GetObject with a Range header; offset writes are
// read-modify-write of the payload object, which is acceptable for the
// chunk sizes this layer moves but makes concurrent writers to the
// same dataset last-write-wins.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

const (
	fileMarker    = ".strata"
	groupMarker   = ".group"
	datasetMarker = ".dataset"
	dataObject    = ".data"
	attrDir       = ".attr"
)

// Backend stores every node of every file as a handful of small
// objects under a per-file key prefix.
//
// Thread Safety: safe for concurrent readers; concurrent writers to
// the same object are last-write-wins, so the queue in front of this
// backend must serialize writes (which the flush loop does).
type Backend struct {
	client  *awss3.Client
	bucket  string
	prefix  string
	mode    dataset.AccessMode
	ctx     context.Context
	timeout time.Duration
}

// Config configures an S3 backend.
type Config struct {
	// Client is the configured S3 client. Required.
	Client *awss3.Client

	// Bucket is the bucket name. It must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for every object key, e.g.
	// "strata/" yields keys like "strata/run/.strata".
	KeyPrefix string

	// Mode is the access mode the handler opened this target with.
	Mode dataset.AccessMode

	// RequestTimeout bounds each S3 request. Zero means no bound
	// beyond the backend's base context.
	RequestTimeout time.Duration
}

// New verifies bucket access and returns a backend. The bucket must
// already exist; New does not create it. ctx becomes the base context
// for every request the backend issues.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	logger.Debug("s3 backend opened: bucket=%s prefix=%q mode=%s", cfg.Bucket, cfg.KeyPrefix, cfg.Mode)

	return &Backend{
		client:  cfg.Client,
		bucket:  cfg.Bucket,
		prefix:  cfg.KeyPrefix,
		mode:    cfg.Mode,
		ctx:     ctx,
		timeout: cfg.RequestTimeout,
	}, nil
}

// Close releases nothing; the S3 client is owned by the caller.
func (b *Backend) Close() error {
	return nil
}

// opCtx returns the context for one S3 request.
func (b *Backend) opCtx() (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(b.ctx, b.timeout)
	}
	return b.ctx, func() {}
}

// resolve returns the path-shaped position token governing w.
func resolve(w *dataset.Writable) (*dataset.PathPosition, error) {
	pos, ok := dataset.ResolvePosition(w)
	if !ok {
		return nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "no storage position resolvable for node",
		}
	}
	pp, ok := pos.(*dataset.PathPosition)
	if !ok {
		return nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "node carries a foreign position token",
			Path:    pos.Location(),
		}
	}
	return pp, nil
}

// baseKey returns the object-key directory for a node, without a
// trailing slash: "<prefix><file>" for the file root, or
// "<prefix><file>/a/b" below it.
func (b *Backend) baseKey(file, path string) string {
	if path == "/" {
		return b.prefix + file
	}
	return b.prefix + file + path
}

func (b *Backend) fileKey(file string) string {
	return b.prefix + file + "/" + fileMarker
}

func (b *Backend) nodeKey(file, path string, kind codec.NodeKind) string {
	marker := groupMarker
	if kind == codec.KindDataset {
		marker = datasetMarker
	}
	return b.baseKey(file, path) + "/" + marker
}

func (b *Backend) dataKey(file, path string) string {
	return b.baseKey(file, path) + "/" + dataObject
}

func (b *Backend) attrKey(file, path, name string) string {
	return b.baseKey(file, path) + "/" + attrDir + "/" + name
}

// isNotFound reports whether err is S3's missing-object answer, in
// either of the two shapes the SDK uses (GetObject vs HeadObject).
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

// getObject downloads one object in full. A missing object maps to
// ErrNoSuchFile with the supplied location.
func (b *Backend) getObject(key, location string) ([]byte, error) {
	ctx, cancel := b.opCtx()
	defer cancel()

	result, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "entry does not exist",
				Path:    location,
			}
		}
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "fetching object",
			Path:    location,
			Err:     err,
		}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading object body",
			Path:    location,
			Err:     err,
		}
	}
	return data, nil
}

// putObject uploads one object.
func (b *Backend) putObject(key string, data []byte, location string) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	_, err := b.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "uploading object",
			Path:    location,
			Err:     err,
		}
	}
	return nil
}

// objectExists issues a HeadObject for key.
func (b *Backend) objectExists(key, location string) (bool, error) {
	ctx, cancel := b.opCtx()
	defer cancel()

	_, err := b.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "checking object existence",
			Path:    location,
			Err:     err,
		}
	}
	return true, nil
}

// getNode loads the node record at (file, path), trying the group
// marker first and the dataset marker second.
func (b *Backend) getNode(file, path string) (codec.NodeRecord, error) {
	location := file + ":" + path

	if path == "/" {
		// The file marker doubles as the root group.
		exists, err := b.objectExists(b.fileKey(file), location)
		if err != nil {
			return codec.NodeRecord{}, err
		}
		if !exists {
			return codec.NodeRecord{}, &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "file does not exist",
				Path:    file,
			}
		}
		return codec.NodeRecord{Kind: codec.KindGroup}, nil
	}

	for _, kind := range []codec.NodeKind{codec.KindGroup, codec.KindDataset} {
		raw, err := b.getObject(b.nodeKey(file, path, kind), location)
		if err != nil {
			if code, ok := dataset.CodeOf(err); ok && code == dataset.ErrNoSuchFile {
				continue
			}
			return codec.NodeRecord{}, err
		}
		return codec.UnmarshalNode(raw)
	}
	return codec.NodeRecord{}, &dataset.Error{
		Code:    dataset.ErrNoSuchFile,
		Message: "entry does not exist",
		Path:    location,
	}
}

// joinPath appends a relative path ("a/b", ".", "") to a base inner
// path.
func joinPath(base, rel string) string {
	out := base
	for _, seg := range strings.Split(strings.Trim(rel, "/"), "/") {
		if seg == "" || seg == "." {
			continue
		}
		if out == "/" {
			out = "/" + seg
		} else {
			out = out + "/" + seg
		}
	}
	return out
}
