package vm

import (
	"encoding/binary"
	"math"

	"github.com/vellumlang/vellum/bytecode"
)

// Reader decodes one instruction at a time from a byte stream, sharing
// the encoder's constant pool and position map. Its state is exactly
// (bytes, ci, len, constants, positions) — matching spec.md's description
// of the cursor so that saving and restoring it around a nested chunk
// (function body, branch arm, loop body) is a plain value copy.
type Reader struct {
	bytes     []byte
	ci        int
	len       int
	constants []string
	positions []bytecode.Position
}

func NewReader(bytes []byte, constants []string, positions []bytecode.Position) *Reader {
	return &Reader{bytes: bytes, ci: 0, len: len(bytes), constants: constants, positions: positions}
}

// CurrentPosition resolves the cursor's current byte offset against the
// position map recorded at compile time, returning the entry for the
// statement the cursor is inside of. Statement bodies compiled into their
// own self-contained chunk (branch arms, loop bodies, function bodies)
// restart their byte offsets at 0, same as the Reader re-entered over
// them, so offsets recorded for the chunk the current Reader is reading
// line up with that Reader's own cursor.
func (r *Reader) CurrentPosition() bytecode.Position {
	var best bytecode.Position
	found := false
	for _, p := range r.positions {
		if p.ByteOffset <= r.ci && (!found || p.ByteOffset > best.ByteOffset) {
			best = p
			found = true
		}
	}
	return best
}

// Positions exposes the shared position map, e.g. for a sub-reader
// entered over an extracted chunk's bytes.
func (r *Reader) Positions() []bytecode.Position {
	return r.positions
}

// Save captures the cursor so it can be restored after decoding a
// sub-chunk with a different backing byte slice.
type ReaderState struct {
	bytes []byte
	ci    int
	len   int
}

func (r *Reader) Save() ReaderState {
	return ReaderState{bytes: r.bytes, ci: r.ci, len: r.len}
}

func (r *Reader) Restore(s ReaderState) {
	r.bytes = s.bytes
	r.ci = s.ci
	r.len = s.len
}

// EnterChunk rebinds the reader to decode a self-contained sub-chunk of
// length n starting at the current cursor. The enclosing cursor is not
// kept: resuming the enclosing chunk takes a Save made before the call
// and a Restore after it.
func (r *Reader) EnterChunk(n int) {
	start := r.ci
	end := start + n
	r.bytes = r.bytes[start:end]
	r.ci = 0
	r.len = n
}

func (r *Reader) AtEnd() bool {
	return r.ci >= r.len
}

// Offset reports the cursor's current byte offset into this Reader's
// chunk, e.g. for reporting the end of a failed instruction's span.
func (r *Reader) Offset() int {
	return r.ci
}

func (r *Reader) readByte() byte {
	b := r.bytes[r.ci]
	r.ci++
	return b
}

func (r *Reader) readUint32() uint32 {
	v := binary.LittleEndian.Uint32(r.bytes[r.ci : r.ci+4])
	r.ci += 4
	return v
}

func (r *Reader) readFloat64() float64 {
	bits := binary.LittleEndian.Uint64(r.bytes[r.ci : r.ci+8])
	r.ci += 8
	return math.Float64frombits(bits)
}

func (r *Reader) PeekOpcode() bytecode.Opcode {
	return bytecode.Opcode(r.bytes[r.ci])
}

func (r *Reader) ReadOpcode() bytecode.Opcode {
	return bytecode.Opcode(r.readByte())
}

// ReadRawRef decodes a Short/Long raw constant reference (the opcode
// byte for Short/Long must already have been consumed by the caller via
// ReadOpcode) and returns the referenced string.
func (r *Reader) ReadRawRef(op bytecode.Opcode) string {
	var idx int
	if op == bytecode.OpLong {
		idx = int(r.readUint32())
	} else {
		idx = int(r.readByte())
	}
	return r.constants[idx]
}

// ReadTypedRef decodes a Str/StrLong or Word/WordLong typed reference
// and returns the referenced string.
func (r *Reader) ReadTypedRef(op bytecode.Opcode) string {
	var idx int
	if op == bytecode.OpStrLong || op == bytecode.OpWordLong {
		idx = int(r.readUint32())
	} else {
		idx = int(r.readByte())
	}
	return r.constants[idx]
}

func (r *Reader) ReadFloat64() float64 {
	return r.readFloat64()
}

func (r *Reader) ReadByte() byte {
	return r.readByte()
}

func (r *Reader) ReadUint32() uint32 {
	return r.readUint32()
}

// ReadChunkBytes reads a 4-byte length followed by that many raw bytes,
// returning the sub-chunk's bytes without decoding them (used for
// Condition/While arms, which are decoded lazily by re-entering a fresh
// Reader over the returned slice).
func (r *Reader) ReadChunkBytes() []byte {
	n := int(r.readUint32())
	chunk := r.bytes[r.ci : r.ci+n]
	r.ci += n
	return chunk
}

// Constants exposes the shared constant pool, e.g. for error messages
// that want to report a name.
func (r *Reader) Constants() []string {
	return r.constants
}

// SkipExpr advances the cursor past one expression's bytes without
// evaluating it, used to step over an untaken Condition arm's guard
// without running any side effects (function calls, assignments) it
// might contain.
func (r *Reader) SkipExpr() {
	op := r.ReadOpcode()
	switch op {
	case bytecode.OpTrue, bytecode.OpFalse, bytecode.OpNull:
	case bytecode.OpNum:
		r.ci += 8
	case bytecode.OpStr, bytecode.OpWord, bytecode.OpShort:
		r.ci += 1
	case bytecode.OpStrLong, bytecode.OpWordLong, bytecode.OpLong:
		r.ci += 4
	case bytecode.OpGroup, bytecode.OpAwait, bytecode.OpInvert:
		r.SkipExpr()
	case bytecode.OpAttr:
		r.SkipExpr()
		r.SkipExpr()
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMult, bytecode.OpDiv,
		bytecode.OpPow, bytecode.OpAnd, bytecode.OpOr, bytecode.OpIn:
		r.SkipExpr()
		r.SkipExpr()
	case bytecode.OpCompare:
		r.ci += 1
		r.SkipExpr()
		r.SkipExpr()
	case bytecode.OpTernary:
		r.SkipExpr()
		r.SkipExpr()
		r.SkipExpr()
	case bytecode.OpCall:
		r.SkipExpr()
		arity := int(r.readByte())
		for i := 0; i < arity; i++ {
			r.SkipExpr()
		}
	case bytecode.OpArray:
		count := int(r.readUint32())
		for i := 0; i < count; i++ {
			r.SkipExpr()
		}
	case bytecode.OpDict:
		count := int(r.readUint32())
		for i := 0; i < count; i++ {
			r.SkipRawRef()
			r.SkipExpr()
		}
	case bytecode.OpFunc:
		r.SkipRawRef()
		arity := int(r.readByte())
		for i := 0; i < arity; i++ {
			r.SkipRawRef()
			r.ci += 1 // rest flag
		}
		for r.PeekOpcode() != bytecode.OpFuncEnd {
			r.SkipStatement()
		}
		r.ReadOpcode() // consume FuncEnd
	default:
		panic(RuntimeError{Message: "cannot skip unrecognised opcode " + op.String()})
	}
}

// SkipRawRef skips a Short/Long raw reference whose opcode has not yet
// been consumed.
func (r *Reader) SkipRawRef() {
	op := r.ReadOpcode()
	if op == bytecode.OpLong {
		r.ci += 4
	} else {
		r.ci += 1
	}
}

// SkipStatement advances the cursor past one top-level instruction
// without executing it, recursing into SkipExpr for its operands.
func (r *Reader) SkipStatement() {
	op := r.ReadOpcode()
	switch op {
	case bytecode.OpVar, bytecode.OpConst:
		r.SkipRawRef()
		r.SkipExpr()
	case bytecode.OpAssign:
		r.skipAssignTarget()
		r.ci += 1 // compound-op byte
		r.SkipExpr()
	case bytecode.OpValue, bytecode.OpReturn:
		r.SkipExpr()
	case bytecode.OpBreak, bytecode.OpContinue:
	case bytecode.OpCondition:
		armCount := int(r.readByte())
		for i := 0; i < armCount; i++ {
			r.SkipExpr()
			r.ReadChunkBytes()
		}
		if r.readByte() == 1 {
			r.ReadChunkBytes()
		}
	case bytecode.OpWhile:
		r.SkipExpr()
		r.ReadChunkBytes()
	default:
		panic(RuntimeError{Message: "cannot skip unrecognised statement opcode " + op.String()})
	}
}

func (r *Reader) skipAssignTarget() {
	op := r.ReadOpcode()
	if op == bytecode.OpLong {
		r.ci += 4
		return
	}
	if op == bytecode.OpShort {
		r.ci += 1
		return
	}
	// OpAttr
	r.skipAssignTarget()
	r.SkipExpr()
}
