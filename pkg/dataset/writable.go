package dataset

// Position is the opaque, backend-defined token identifying where in
// storage a written node lives. Concrete backends define (or share) the
// concrete type and assert it back inside their operation handlers; the
// core only threads positions through the tree.
type Position interface {
	// Location renders the token for logs and errors.
	Location() string
}

// PathPosition is the position token used by path-shaped backends
// (memory, badger, s3): a file name plus a slash-separated inner path.
// Path is "/" for the file root.
type PathPosition struct {
	File string
	Path string
}

// Location implements Position.
func (p *PathPosition) Location() string {
	return p.File + ":" + p.Path
}

// Child returns the position of a direct child entry.
func (p *PathPosition) Child(name string) *PathPosition {
	base := p.Path
	if base == "" || base == "/" {
		base = ""
	}
	return &PathPosition{File: p.File, Path: base + "/" + name}
}

// Writable is the per-node state of one addressable entity (file, group
// or dataset) in the persisted hierarchy.
//
// Ownership:
// The domain model owns the node tree (exclusive parent→child
// ownership). The parent back-reference held here is a non-owning
// lookup link used only to resolve ancestor position tokens; the core
// never releases memory through it. The written/dirty flags and the
// position token are mutated exclusively by the IOHandler during flush
// (flags) and by backend handlers (position).
type Writable struct {
	parent   *Writable
	position Position
	written  bool
	dirty    bool
}

// NewWritable creates a node below parent. The root node of a hierarchy
// has a nil parent. A fresh node is dirty and not written: its
// structural representation has not been materialized in storage.
func NewWritable(parent *Writable) *Writable {
	return &Writable{parent: parent, dirty: true}
}

// Parent returns the non-owning back-reference (nil for the root).
func (w *Writable) Parent() *Writable {
	return w.parent
}

// Written reports whether the node's structural representation has been
// materialized in storage at least once in the current storage
// generation.
func (w *Writable) Written() bool {
	return w.written
}

// Dirty reports whether the node has been structurally mutated since the
// last flush.
func (w *Writable) Dirty() bool {
	return w.dirty
}

// MarkDirty records a structural mutation. Called by the domain model;
// the IOHandler clears the flag when the mutation is materialized.
func (w *Writable) MarkDirty() {
	w.dirty = true
}

// Position returns the storage position token, or nil if the node has
// never been written (or has been deleted).
func (w *Writable) Position() Position {
	return w.position
}

// SetPosition assigns the storage position token. Called by backend
// operation handlers when they materialize or open the node.
func (w *Writable) SetPosition(p Position) {
	w.position = p
}

// reset returns the node to the not-written state after a successful
// delete.
func (w *Writable) reset() {
	w.written = false
	w.dirty = false
	w.position = nil
}

// ResolvePosition walks position tokens up the parent chain, returning
// the token of w itself or of its nearest positioned ancestor. This is
// how backends locate a node whose own structural entry has not been
// created yet but whose parent group has.
func ResolvePosition(w *Writable) (Position, bool) {
	for n := w; n != nil; n = n.parent {
		if n.position != nil {
			return n.position, true
		}
	}
	return nil, false
}
