// Package codec provides the CBOR at-rest encoding of attribute values
// and node records shared by the badger and s3 backends.
//
// CBOR is used (rather than the raw little-endian payload packing in
// pkg/dataset) because attribute values are self-describing records:
// the datatype tag must survive storage so retrieval never has to guess
// a type. Datatypes are encoded by their stable string name, not their
// numeric tag, so reordering the tag enumeration can never corrupt
// stored data.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/marmos91/strata/pkg/dataset"
)

// attributeRecord is the stored form of one attribute.
type attributeRecord struct {
	Dtype string          `cbor:"d"`
	Value cbor.RawMessage `cbor:"v"`
}

// MarshalAttribute encodes an attribute for storage. Undefined
// attributes are refused: an unset value must never reach storage.
func MarshalAttribute(a dataset.Attribute) ([]byte, error) {
	if !a.Defined() {
		return nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "cannot persist an undefined attribute",
		}
	}
	value, err := cbor.Marshal(a.Value())
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "encoding attribute value",
			Err:     err,
		}
	}
	return cbor.Marshal(attributeRecord{
		Dtype: a.Dtype().String(),
		Value: value,
	})
}

// UnmarshalAttribute decodes a stored attribute, restoring the exact
// datatype tag it was written with.
func UnmarshalAttribute(b []byte) (dataset.Attribute, error) {
	var rec attributeRecord
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return dataset.Attribute{}, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "decoding attribute record",
			Err:     err,
		}
	}
	dtype, err := dataset.ParseDatatype(rec.Dtype)
	if err != nil {
		return dataset.Attribute{}, err
	}
	return decodeValue(dtype, rec.Value)
}

// decodeValue decodes the raw CBOR value into the concrete Go type for
// the tag. The switch is exhaustive over the closed datatype set; a tag
// this codec does not know is a storage-format error.
func decodeValue(dtype dataset.Datatype, raw cbor.RawMessage) (dataset.Attribute, error) {
	build := func(v any, err error) (dataset.Attribute, error) {
		if err != nil {
			return dataset.Attribute{}, &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "decoding attribute value",
				Path:    dtype.String(),
				Err:     err,
			}
		}
		return dataset.New(v)
	}

	switch dtype {
	case dataset.Char:
		var v byte
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Bool:
		var v bool
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.String:
		var v string
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Int16:
		var v int16
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Int32:
		var v int32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Int64:
		var v int64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Uint16:
		var v uint16
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Uint32:
		var v uint32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Uint64:
		var v uint64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Float32:
		var v float32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.Float64:
		var v float64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.FloatExt:
		var v float64
		if err := cbor.Unmarshal(raw, &v); err != nil {
			return build(nil, err)
		}
		return dataset.NewFloatExt(v), nil
	case dataset.ArrFloat64x7:
		var v [7]float64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecChar:
		var v []byte
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecBool:
		var v []bool
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecString:
		var v []string
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecInt16:
		var v []int16
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecInt32:
		var v []int32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecInt64:
		var v []int64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecUint16:
		var v []uint16
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecUint32:
		var v []uint32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecUint64:
		var v []uint64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecFloat32:
		var v []float32
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecFloat64:
		var v []float64
		return build(v, cbor.Unmarshal(raw, &v))
	case dataset.VecFloatExt:
		var v []float64
		if err := cbor.Unmarshal(raw, &v); err != nil {
			return build(nil, err)
		}
		return dataset.NewVecFloatExt(v), nil
	default:
		return dataset.Attribute{}, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: fmt.Sprintf("stored attribute has unknown datatype %q", dtype),
		}
	}
}

// NodeKind classifies a stored hierarchy entry.
type NodeKind string

const (
	KindFile    NodeKind = "file"
	KindGroup   NodeKind = "group"
	KindDataset NodeKind = "dataset"
)

// NodeRecord is the stored structural description of one hierarchy
// entry. Dtype and Extent are only meaningful for datasets.
type NodeRecord struct {
	Kind   NodeKind `cbor:"k"`
	Dtype  string   `cbor:"d,omitempty"`
	Extent []uint64 `cbor:"e,omitempty"`
}

// MarshalNode encodes a node record for storage.
func MarshalNode(rec NodeRecord) ([]byte, error) {
	b, err := cbor.Marshal(rec)
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "encoding node record",
			Err:     err,
		}
	}
	return b, nil
}

// UnmarshalNode decodes a stored node record.
func UnmarshalNode(b []byte) (NodeRecord, error) {
	var rec NodeRecord
	if err := cbor.Unmarshal(b, &rec); err != nil {
		return NodeRecord{}, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "decoding node record",
			Err:     err,
		}
	}
	return rec, nil
}

// DatasetRecord builds the node record for a dataset entry.
func DatasetRecord(dtype dataset.Datatype, extent dataset.Extent) NodeRecord {
	return NodeRecord{
		Kind:   KindDataset,
		Dtype:  dtype.String(),
		Extent: extent,
	}
}

// DatasetShape restores the dataset datatype and extent from a record.
func (r NodeRecord) DatasetShape() (dataset.Datatype, dataset.Extent, error) {
	dtype, err := dataset.ParseDatatype(r.Dtype)
	if err != nil {
		return dataset.Undefined, nil, err
	}
	return dtype, dataset.Extent(r.Extent), nil
}
