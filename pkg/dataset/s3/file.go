package s3

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/strata/pkg/dataset"
)

// CreateFile creates (or reuses) a file container and positions w at
// its root group. Under create mode an existing file is truncated
// first.
func (b *Backend) CreateFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	exists, err := b.objectExists(b.fileKey(name), name)
	if err != nil {
		return err
	}
	if exists && b.mode == dataset.AccessCreate {
		if err := b.dropFile(name); err != nil {
			return err
		}
		exists = false
	}
	if !exists {
		if err := b.putObject(b.fileKey(name), []byte{}, name); err != nil {
			return err
		}
	}

	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// OpenFile binds w to an existing file's root group.
func (b *Backend) OpenFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	exists, err := b.objectExists(b.fileKey(name), name)
	if err != nil {
		return err
	}
	if !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "file does not exist",
			Path:    name,
		}
	}

	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// DeleteFile removes a file and its whole subtree.
func (b *Backend) DeleteFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	exists, err := b.objectExists(b.fileKey(name), name)
	if err != nil {
		return err
	}
	if !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "file does not exist",
			Path:    name,
		}
	}
	return b.dropFile(name)
}

// dropFile deletes every object under the file's key prefix,
// including the file marker.
func (b *Backend) dropFile(name string) error {
	return b.deletePrefix(b.prefix+name+"/", name)
}

// deletePrefix lists every object under prefix and deletes them in
// batches. S3 allows at most 1000 objects per DeleteObjects request.
func (b *Backend) deletePrefix(prefix, location string) error {
	keys, err := b.listKeys(prefix, location)
	if err != nil {
		return err
	}
	return b.deleteKeys(keys, location)
}

// listKeys returns every object key under prefix.
func (b *Backend) listKeys(prefix, location string) ([]string, error) {
	ctx, cancel := b.opCtx()
	defer cancel()

	var keys []string
	paginator := awss3.NewListObjectsV2Paginator(b.client, &awss3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "listing objects",
				Path:    location,
				Err:     err,
			}
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

// deleteKeys removes the given object keys in batches of 1000.
func (b *Backend) deleteKeys(keys []string, location string) error {
	const maxBatchSize = 1000

	for i := 0; i < len(keys); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[i:end]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, k := range batch {
			objects[j] = types.ObjectIdentifier{Key: aws.String(k)}
		}

		ctx, cancel := b.opCtx()
		result, err := b.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		cancel()
		if err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting objects",
				Path:    location,
				Err:     err,
			}
		}
		for _, derr := range result.Errors {
			if derr.Key == nil {
				continue
			}
			msg := "unknown error"
			if derr.Code != nil && derr.Message != nil {
				msg = fmt.Sprintf("%s: %s", *derr.Code, *derr.Message)
			}
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting object " + *derr.Key + ": " + msg,
				Path:    location,
			}
		}
	}
	return nil
}
