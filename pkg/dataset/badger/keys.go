package badger

// Key schema. Every key starts with a one-byte namespace tag followed
// by NUL-separated components, so no component can collide with a
// separator and prefix scans stay exact:
//
//	f <file>                 file marker
//	n <file> <path>          node record (codec.NodeRecord); path is
//	                         "/" for the file root, "/a/b" below it
//	d <file> <path>          raw dataset payload (little-endian,
//	                         row-major)
//	a <file> <path> <name>   attribute record (codec CBOR)
//
// The namespacing keeps point lookups O(1) and gives the list
// operations cheap range scans over exactly one file's subtree.

const (
	nsFile = 'f'
	nsNode = 'n'
	nsData = 'd'
	nsAttr = 'a'
)

const sep = 0x00

func key(ns byte, parts ...string) []byte {
	size := 1
	for _, p := range parts {
		size += 1 + len(p)
	}
	out := make([]byte, 0, size)
	out = append(out, ns)
	for _, p := range parts {
		out = append(out, sep)
		out = append(out, p...)
	}
	return out
}

func fileKey(file string) []byte {
	return key(nsFile, file)
}

func nodeKey(file, path string) []byte {
	return key(nsNode, file, path)
}

func dataKey(file, path string) []byte {
	return key(nsData, file, path)
}

func attrKey(file, path, name string) []byte {
	return key(nsAttr, file, path, name)
}

// nodePrefix matches every node record of one file.
func nodePrefix(file string) []byte {
	return append(key(nsNode, file), sep)
}

// childNodePrefix matches the node records strictly below path.
func childNodePrefix(file, path string) []byte {
	base := path
	if base == "/" {
		base = ""
	}
	return append(nodePrefix(file), []byte(base+"/")...)
}

// attrPrefix matches every attribute of the node at (file, path).
func attrPrefix(file, path string) []byte {
	return append(key(nsAttr, file, path), sep)
}

// filePrefixes returns the prefixes spanning every key of one file.
func filePrefixes(file string) [][]byte {
	return [][]byte{
		append(key(nsNode, file), sep),
		append(key(nsData, file), sep),
		append(key(nsAttr, file), sep),
	}
}
