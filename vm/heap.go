package vm

// ObjectKind tags the payload type living behind a GcHandle, mirroring
// the kind dispatch the original collector used to select a destructor.
// Only Map is ever allocated here: Array values reference the value stack
// by index rather than a heap object (spec.md §4.1's value_stack
// description), and Func/NativeFn/Str are immediate Value fields with no
// shared mutable state requiring a GC handle — Map is the one kind whose
// entries must be shared and mutated through a stable reference.
type ObjectKind byte

const (
	KindHeapMap ObjectKind = iota
)

// GcHeader carries the mark bit for one heap object. The garbage
// collector reproduces the original's header-plus-payload arithmetic
// with a type-tagged arena instead of raw pointers and alignment math;
// spec.md's Design Notes permit either strategy as long as the
// mark-sweep contract holds.
type GcHeader struct {
	marked bool
}

// GcHandle is the owned reference to one heap allocation: which arena
// slot holds it and what kind of payload lives there. Handles are the
// only legitimate way to mark, sweep, or free an object.
type GcHandle struct {
	index int
	kind  ObjectKind
}

func (h GcHandle) Index() int     { return h.index }
func (h GcHandle) Kind() ObjectKind { return h.kind }

// heapObject is one live allocation: its header and its dict payload.
type heapObject struct {
	header GcHeader
	kind   ObjectKind

	dict map[ValueIndex]DictEntry

	freed bool
}

// Heap owns every GC-managed object: dicts promoted from value-stack
// immediates ("borrowed") when an attribute assignment needs a shared,
// mutable reference.
type Heap struct {
	objects []heapObject
}

func NewHeap() *Heap {
	return &Heap{}
}

// AllocMap allocates a fresh dict payload and returns its handle.
func (h *Heap) AllocMap(entries map[ValueIndex]DictEntry) GcHandle {
	idx := len(h.objects)
	h.objects = append(h.objects, heapObject{kind: KindHeapMap, dict: entries})
	return GcHandle{index: idx, kind: KindHeapMap}
}

func (h *Heap) Map(index int) map[ValueIndex]DictEntry {
	return h.objects[index].dict
}

func (h *Heap) Mark(index int) {
	h.objects[index].header.marked = true
}

func (h *Heap) Marked(index int) bool {
	return h.objects[index].header.marked
}

// Roots bundles every reachable entry point into live heap objects:
// the value stack and the value register's referenced stack slots. The
// frame stack holds no references of its own and is not part of Roots.
type Roots struct {
	ValueStack []Value
	Register   []ValueRegisterEntry
}

// Collect performs one stop-the-world mark-and-sweep cycle: mark every
// object reachable from roots, then free every object whose mark bit
// was not set, clearing the bit on survivors for the next cycle.
func (h *Heap) Collect(roots Roots) {
	for i := range h.objects {
		h.objects[i].header.marked = false
	}

	for _, v := range roots.ValueStack {
		h.markValue(v, roots.ValueStack)
	}
	for _, entry := range roots.Register {
		if entry.StackIndex >= 0 && entry.StackIndex < len(roots.ValueStack) {
			h.markValue(roots.ValueStack[entry.StackIndex], roots.ValueStack)
		}
	}

	for i := range h.objects {
		obj := &h.objects[i]
		if obj.freed {
			continue
		}
		if !obj.header.marked {
			h.dealloc(i)
		} else {
			obj.header.marked = false
		}
	}
}

// markValue traverses a single value, marking any heap object it
// references. Array elements are indices into the value stack (not
// heap object indices — arrays are "borrowed" only in the sense that
// they already indirect through the stack), so marking an array walks
// back into stack to find what each element actually holds. Marking is
// idempotent so cyclic dict/array graphs terminate naturally: an
// already-marked object is never re-walked.
func (h *Heap) markValue(v Value, stack []Value) {
	switch v.Kind {
	case KindArray:
		for _, idx := range v.AsArrayIndices() {
			if idx >= 0 && idx < len(stack) {
				h.markValue(stack[idx], stack)
			}
		}
	case KindDict:
		if v.IsDictRef() {
			h.markObjectIndex(v.DictRefIndex(), stack)
		} else {
			for _, entry := range v.AsDict() {
				h.markValue(entry.Value, stack)
			}
		}
	case KindNativeFn:
		if n := v.AsNativeFn(); n != nil {
			h.markValue(n.This, stack)
		}
	}
}

func (h *Heap) markObjectIndex(idx int, stack []Value) {
	if idx < 0 || idx >= len(h.objects) || h.objects[idx].header.marked {
		return
	}
	h.objects[idx].header.marked = true
	obj := &h.objects[idx]
	switch obj.kind {
	case KindHeapMap:
		for _, entry := range obj.dict {
			h.markValue(entry.Value, stack)
		}
	}
}

// dealloc releases the payload at index using its kind tag to select
// the right cleanup, then marks the slot as freed. Freed slots are
// retained (not compacted) so existing handle indices stay valid.
func (h *Heap) dealloc(index int) {
	obj := &h.objects[index]
	switch obj.kind {
	case KindHeapMap:
		obj.dict = nil
	}
	obj.freed = true
}

// LiveCount reports how many allocated objects have not been freed;
// used by tests asserting full collection at shutdown.
func (h *Heap) LiveCount() int {
	count := 0
	for _, obj := range h.objects {
		if !obj.freed {
			count++
		}
	}
	return count
}
