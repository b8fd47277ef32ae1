package s3

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

// datasetShape loads the dataset node record at (file, path) and
// returns its stored datatype and extent.
func (b *Backend) datasetShape(file, path string) (dataset.Datatype, dataset.Extent, error) {
	rec, err := b.getNode(file, path)
	if err != nil {
		return dataset.Undefined, nil, err
	}
	if rec.Kind != codec.KindDataset {
		return dataset.Undefined, nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry is not a dataset",
			Path:    file + ":" + path,
		}
	}
	return rec.DatasetShape()
}

// getRange downloads length bytes of one object starting at start,
// using an HTTP Range request so only the selected chunk moves.
func (b *Backend) getRange(key string, start, length uint64, location string) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	rangeStr := fmt.Sprintf("bytes=%d-%d", start, start+length-1)
	result, err := b.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Range:  aws.String(rangeStr),
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
			Message: "fetching object range",
			Path:    location,
			Err:     err,
		}
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading object range body",
			Path:    location,
			Err:     err,
		}
	}
	return data, nil
}

// ExtendDataset grows a dataset to a new extent. Only the first
// dimension may grow; the payload is zero-filled in the grown region.
func (b *Backend) ExtendDataset(w *dataset.Writable, p dataset.Params) error {
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	dtype, cur, err := b.datasetShape(pos.File, pos.Path)
	if err != nil {
		return err
	}
	if err := dataset.ValidateExtension(cur, extent); err != nil {
		return err
	}

	raw, err := b.getObject(b.dataKey(pos.File, pos.Path), pos.Location())
	if err != nil {
		return err
	}
	grown := make([]byte, extent.Bytes(dtype))
	copy(grown, raw)
	if err := b.putObject(b.dataKey(pos.File, pos.Path), grown, pos.Location()); err != nil {
		return err
	}

	rec, err := codec.MarshalNode(codec.DatasetRecord(dtype, extent))
	if err != nil {
		return err
	}
	return b.putObject(b.nodeKey(pos.File, pos.Path, codec.KindDataset), rec, pos.Location())
}

// WriteDataset splices one contiguous chunk into the payload object.
// S3 offers no partial overwrite, so this is read-modify-write of the
// whole payload.
func (b *Backend) WriteDataset(w *dataset.Writable, p dataset.Params) error {
	offset, err := p.Offset(dataset.ParamOffset)
	if err != nil {
		return err
	}
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	data, err := p.Data(dataset.ParamData)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	dtype, shape, err := b.datasetShape(pos.File, pos.Path)
	if err != nil {
		return err
	}
	start, length, err := dataset.ChunkRange(shape, dtype, offset, extent)
	if err != nil {
		return err
	}
	if uint64(len(data)) != length {
		return &dataset.Error{
			Code:    dataset.ErrInvalidParameter,
			Message: fmt.Sprintf("chunk payload is %d bytes, selection spans %d", len(data), length),
			Path:    pos.Location(),
		}
	}

	raw, err := b.getObject(b.dataKey(pos.File, pos.Path), pos.Location())
	if err != nil {
		return err
	}
	copy(raw[start:start+length], data)
	return b.putObject(b.dataKey(pos.File, pos.Path), raw, pos.Location())
}

// ReadDataset fetches one contiguous chunk of the payload with a
// ranged GetObject.
func (b *Backend) ReadDataset(w *dataset.Writable, p dataset.Params) error {
	offset, err := p.Offset(dataset.ParamOffset)
	if err != nil {
		return err
	}
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	out, err := dataset.Out[[]byte](p, dataset.ParamData)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	dtype, shape, err := b.datasetShape(pos.File, pos.Path)
	if err != nil {
		return err
	}
	start, length, err := dataset.ChunkRange(shape, dtype, offset, extent)
	if err != nil {
		return err
	}
	chunk, err := b.getRange(b.dataKey(pos.File, pos.Path), start, length, pos.Location())
	if err != nil {
		return err
	}
	out.Store(chunk)
	return nil
}

// WriteAttribute persists one attribute on the node at w's resolved
// position.
func (b *Backend) WriteAttribute(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	att, err := p.Attr(dataset.ParamAttribute)
	if err != nil {
		return err
	}
	if !att.Defined() {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "cannot persist an undefined attribute",
			Path:    name,
		}
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	if _, err := b.getNode(pos.File, pos.Path); err != nil {
		return err
	}
	raw, err := codec.MarshalAttribute(att)
	if err != nil {
		return err
	}
	return b.putObject(b.attrKey(pos.File, pos.Path, name), raw, pos.Location()+"@"+name)
}

// ReadAttribute loads one attribute from the node at w's resolved
// position.
func (b *Backend) ReadAttribute(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	out, err := dataset.Out[dataset.Attribute](p, dataset.ParamAttribute)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	location := pos.Location() + "@" + name
	raw, err := b.getObject(b.attrKey(pos.File, pos.Path, name), location)
	if err != nil {
		if code, ok := dataset.CodeOf(err); ok && code == dataset.ErrNoSuchFile {
			return &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "attribute does not exist",
				Path:    location,
			}
		}
		return err
	}
	att, err := codec.UnmarshalAttribute(raw)
	if err != nil {
		return err
	}
	out.Store(att)
	return nil
}

// DeleteAttribute removes one attribute from the node at w's resolved
// position.
func (b *Backend) DeleteAttribute(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	location := pos.Location() + "@" + name
	key := b.attrKey(pos.File, pos.Path, name)
	exists, err := b.objectExists(key, location)
	if err != nil {
		return err
	}
	if !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "attribute does not exist",
			Path:    location,
		}
	}
	return b.deleteKeys([]string{key}, location)
}

// ListAttributes reports the sorted attribute names of the node at w's
// resolved position.
func (b *Backend) ListAttributes(w *dataset.Writable, p dataset.Params) error {
	out, err := dataset.Out[[]string](p, dataset.ParamAttributes)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	if _, err := b.getNode(pos.File, pos.Path); err != nil {
		return err
	}

	prefix := b.baseKey(pos.File, pos.Path) + "/" + attrDir + "/"
	keys, err := b.listKeys(prefix, pos.Location())
	if err != nil {
		return err
	}

	names := []string{}
	for _, k := range keys {
		name := strings.TrimPrefix(k, prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	out.Store(names)
	return nil
}
