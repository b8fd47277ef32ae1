package dataset

// Operation is the fixed vocabulary of deferred mutations and queries.
// Every backend implements a handler for every operation kind; backends
// lacking a capability fail the handler with ErrUnsupported rather than
// silently no-oping.
type Operation int

const (
	OpCreateFile Operation = iota
	OpCreatePath
	OpCreateDataset
	OpExtendDataset
	OpOpenFile
	OpOpenPath
	OpOpenDataset
	OpDeleteFile
	OpDeletePath
	OpDeleteDataset
	OpDeleteAttribute
	OpWriteDataset
	OpWriteAttribute
	OpReadDataset
	OpReadAttribute
	OpListPaths
	OpListDatasets
	OpListAttributes
)

// String returns the operation name for logs and metrics labels.
func (o Operation) String() string {
	switch o {
	case OpCreateFile:
		return "create_file"
	case OpCreatePath:
		return "create_path"
	case OpCreateDataset:
		return "create_dataset"
	case OpExtendDataset:
		return "extend_dataset"
	case OpOpenFile:
		return "open_file"
	case OpOpenPath:
		return "open_path"
	case OpOpenDataset:
		return "open_dataset"
	case OpDeleteFile:
		return "delete_file"
	case OpDeletePath:
		return "delete_path"
	case OpDeleteDataset:
		return "delete_dataset"
	case OpDeleteAttribute:
		return "delete_attribute"
	case OpWriteDataset:
		return "write_dataset"
	case OpWriteAttribute:
		return "write_attribute"
	case OpReadDataset:
		return "read_dataset"
	case OpReadAttribute:
		return "read_attribute"
	case OpListPaths:
		return "list_paths"
	case OpListDatasets:
		return "list_datasets"
	case OpListAttributes:
		return "list_attributes"
	default:
		return "unknown"
	}
}
