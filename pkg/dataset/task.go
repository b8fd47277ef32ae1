package dataset

// IOTask is one immutable record of a requested mutation or query: an
// operation kind, the Writable node it targets, and the named-parameter
// bag the backend handler consumes.
//
// Lifecycle: created by the domain model at the moment a mutation or
// query is requested, lives only inside the handler's queue, and is
// discarded immediately after its handler call returns, whether it
// succeeded or failed.
type IOTask struct {
	Op     Operation
	Target *Writable
	Params Params
}

// NewTask builds a task from raw parts. The typed constructors below
// are preferred; NewTask exists for tests and generic replay tooling.
func NewTask(op Operation, target *Writable, params Params) *IOTask {
	if params == nil {
		params = Params{}
	}
	return &IOTask{Op: op, Target: target, Params: params}
}

// CreateFile requests creation of a storage file with the given name.
func CreateFile(w *Writable, name string) *IOTask {
	return NewTask(OpCreateFile, w, Params{ParamName: name})
}

// CreatePath requests creation of a (possibly nested) group path below
// the target's resolved position.
func CreatePath(w *Writable, path string) *IOTask {
	return NewTask(OpCreatePath, w, Params{ParamPath: path})
}

// CreateDataset requests creation of a dataset entry with the given
// element datatype and extent.
func CreateDataset(w *Writable, name string, dtype Datatype, extent Extent) *IOTask {
	return NewTask(OpCreateDataset, w, Params{
		ParamName:   name,
		ParamDtype:  dtype,
		ParamExtent: extent.clone(),
	})
}

// ExtendDataset requests growing a written dataset to a new extent.
func ExtendDataset(w *Writable, extent Extent) *IOTask {
	return NewTask(OpExtendDataset, w, Params{ParamExtent: extent.clone()})
}

// OpenFile requests opening an existing storage file.
func OpenFile(w *Writable, name string) *IOTask {
	return NewTask(OpOpenFile, w, Params{ParamName: name})
}

// OpenPath requests opening an existing group path below the target's
// resolved position.
func OpenPath(w *Writable, path string) *IOTask {
	return NewTask(OpOpenPath, w, Params{ParamPath: path})
}

// OpenDataset requests opening an existing dataset. The returned slots
// carry the dataset's stored datatype and extent once the task has
// executed.
func OpenDataset(w *Writable, name string) (*IOTask, *Slot[Datatype], *Slot[Extent]) {
	dtype := NewSlot[Datatype]()
	extent := NewSlot[Extent]()
	t := NewTask(OpOpenDataset, w, Params{
		ParamName:   name,
		ParamDtype:  dtype,
		ParamExtent: extent,
	})
	return t, dtype, extent
}

// DeleteFile requests removal of a storage file.
func DeleteFile(w *Writable, name string) *IOTask {
	return NewTask(OpDeleteFile, w, Params{ParamName: name})
}

// DeletePath requests removal of a group subtree.
func DeletePath(w *Writable, path string) *IOTask {
	return NewTask(OpDeletePath, w, Params{ParamPath: path})
}

// DeleteDataset requests removal of a dataset entry.
func DeleteDataset(w *Writable, name string) *IOTask {
	return NewTask(OpDeleteDataset, w, Params{ParamName: name})
}

// DeleteAttribute requests removal of one attribute from the target
// node.
func DeleteAttribute(w *Writable, name string) *IOTask {
	return NewTask(OpDeleteAttribute, w, Params{ParamName: name})
}

// WriteDataset requests writing one contiguous chunk of raw payload at
// the given element offset.
func WriteDataset(w *Writable, offset Offset, extent Extent, data []byte) *IOTask {
	return NewTask(OpWriteDataset, w, Params{
		ParamOffset: offset.clone(),
		ParamExtent: extent.clone(),
		ParamData:   data,
	})
}

// WriteAttribute requests setting one attribute on the target node.
func WriteAttribute(w *Writable, name string, att Attribute) *IOTask {
	return NewTask(OpWriteAttribute, w, Params{
		ParamName:      name,
		ParamAttribute: att,
	})
}

// ReadDataset requests reading one contiguous chunk. The returned slot
// carries the raw payload once the task has executed.
func ReadDataset(w *Writable, offset Offset, extent Extent) (*IOTask, *Slot[[]byte]) {
	data := NewSlot[[]byte]()
	t := NewTask(OpReadDataset, w, Params{
		ParamOffset: offset.clone(),
		ParamExtent: extent.clone(),
		ParamData:   data,
	})
	return t, data
}

// ReadAttribute requests reading one attribute from the target node.
func ReadAttribute(w *Writable, name string) (*IOTask, *Slot[Attribute]) {
	att := NewSlot[Attribute]()
	t := NewTask(OpReadAttribute, w, Params{
		ParamName:      name,
		ParamAttribute: att,
	})
	return t, att
}

// ListPaths requests the names of the child groups of the target node.
func ListPaths(w *Writable) (*IOTask, *Slot[[]string]) {
	names := NewSlot[[]string]()
	return NewTask(OpListPaths, w, Params{ParamPaths: names}), names
}

// ListDatasets requests the names of the child datasets of the target
// node.
func ListDatasets(w *Writable) (*IOTask, *Slot[[]string]) {
	names := NewSlot[[]string]()
	return NewTask(OpListDatasets, w, Params{ParamDatasets: names}), names
}

// ListAttributes requests the attribute names present on the target
// node.
func ListAttributes(w *Writable) (*IOTask, *Slot[[]string]) {
	names := NewSlot[[]string]()
	return NewTask(OpListAttributes, w, Params{ParamAttributes: names}), names
}
