package cbor

import (
	"math"
)

// State is the observable decode state produced by PeekState: which kind
// of item sits next in the stream, without consuming it.
type State int

const (
	StateUnsignedInt State = iota
	StateNegativeInt
	StateByteString
	StateStartIndefByteString
	StateTextString
	StateStartIndefTextString
	StateStartArray
	StateEndArray
	StateStartMap
	StateEndMap
	StateTag
	StateBool
	StateNull
	StateUndefined
	StateHalfFloat
	StateFloat
	StateDouble
	StateBreak
	StateEndOfStream
)

const maxNesting = 64

type frameKind int

const (
	frameArray frameKind = iota
	frameMap
)

type frame struct {
	kind        frameKind
	indefinite  bool
	length      int64 // declared length (items for array, pairs for map); meaningless if indefinite
	remaining   int64 // items remaining, counted in "items" (a map pair counts as 1, decremented by DoneMapEntry)
	started     bool
	seenKeys    map[string]bool // raw encoded key bytes already seen in this map frame
}

// Reader is a streaming CBOR decode state machine over a borrowed byte
// span. It never copies the source except when explicitly asked to
// (ReadBytestring, ReadEncodedValue, RawSlice). A failed operation
// records its error, which stays inspectable through LastError; the
// reader does not block later reads after a failure.
type Reader struct {
	src    []byte
	offset int
	frames []frame
	last   error
}

// NewReader constructs a Reader over src. The slice is borrowed, not copied.
func NewReader(src []byte) *Reader {
	return &Reader{src: src}
}

// LastError returns the most recent error recorded by a failed operation,
// or nil. Mirrors the per-instance last-error slot of the source library.
func (r *Reader) LastError() error { return r.last }

func (r *Reader) fail(err error) error {
	r.last = err
	return err
}

// Clone returns an independent Reader positioned at the same offset with
// the same open-container stack, sharing the underlying (read-only) bytes.
func (r *Reader) Clone() *Reader {
	frames := make([]frame, len(r.frames))
	copy(frames, r.frames)
	for i := range frames {
		if frames[i].seenKeys == nil {
			continue
		}
		seen := make(map[string]bool, len(frames[i].seenKeys))
		for k := range frames[i].seenKeys {
			seen[k] = true
		}
		frames[i].seenKeys = seen
	}
	return &Reader{src: r.src, offset: r.offset, frames: frames}
}

// Offset returns the current byte offset into the source slice.
func (r *Reader) Offset() int { return r.offset }

// RawSlice copies the source bytes in [start, end), for callers that
// track offsets themselves (e.g. to cache a decoded sub-tree's exact
// received encoding).
func (r *Reader) RawSlice(start, end int) []byte {
	out := make([]byte, end-start)
	copy(out, r.src[start:end])
	return out
}

func (r *Reader) remainingBytes() []byte { return r.src[r.offset:] }

func (r *Reader) curFrame() *frame {
	if len(r.frames) == 0 {
		return nil
	}
	return &r.frames[len(r.frames)-1]
}

// decodedHead describes one fully-parsed initial-byte+argument header.
type decodedHead struct {
	major   byte
	info    byte
	value   uint64
	indef   bool // additional info == 31
	headLen int  // bytes consumed by the header itself (not including following payload)
}

func decodeHead(b []byte) (decodedHead, error) {
	if len(b) == 0 {
		return decodedHead{}, newErr(KindEndOfStream, "unexpected end of stream reading header")
	}
	initial := b[0]
	major := initial >> 5
	info := initial & 0x1F
	switch {
	case info < 24:
		return decodedHead{major: major, info: info, value: uint64(info), headLen: 1}, nil
	case info == 24:
		if len(b) < 2 {
			return decodedHead{}, newErr(KindEndOfStream, "truncated 1-byte argument")
		}
		return decodedHead{major: major, info: info, value: uint64(b[1]), headLen: 2}, nil
	case info == 25:
		if len(b) < 3 {
			return decodedHead{}, newErr(KindEndOfStream, "truncated 2-byte argument")
		}
		return decodedHead{major: major, info: info, value: uint64(b[1])<<8 | uint64(b[2]), headLen: 3}, nil
	case info == 26:
		if len(b) < 5 {
			return decodedHead{}, newErr(KindEndOfStream, "truncated 4-byte argument")
		}
		v := uint64(b[1])<<24 | uint64(b[2])<<16 | uint64(b[3])<<8 | uint64(b[4])
		return decodedHead{major: major, info: info, value: v, headLen: 5}, nil
	case info == 27:
		if len(b) < 9 {
			return decodedHead{}, newErr(KindEndOfStream, "truncated 8-byte argument")
		}
		var v uint64
		for i := 1; i <= 8; i++ {
			v = v<<8 | uint64(b[i])
		}
		return decodedHead{major: major, info: info, value: v, headLen: 9}, nil
	case info == 31:
		return decodedHead{major: major, info: info, indef: true, headLen: 1}, nil
	default:
		return decodedHead{}, newErr(KindInvalidCborValue, "reserved additional info %d", info)
	}
}

// PeekState inspects the next item without consuming it.
func (r *Reader) PeekState() (State, error) {
	if f := r.curFrame(); f != nil {
		if f.indefinite {
			if r.offset < len(r.src) && r.src[r.offset] == 0xFF {
				return endState(f.kind), nil
			}
		} else if f.remaining == 0 {
			return endState(f.kind), nil
		}
	}
	if r.offset >= len(r.src) {
		return StateEndOfStream, nil
	}
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if r.src[r.offset] == 0xFF {
		return StateBreak, nil
	}
	switch head.major {
	case 0:
		return StateUnsignedInt, nil
	case 1:
		return StateNegativeInt, nil
	case 2:
		if head.indef {
			return StateStartIndefByteString, nil
		}
		return StateByteString, nil
	case 3:
		if head.indef {
			return StateStartIndefTextString, nil
		}
		return StateTextString, nil
	case 4:
		return StateStartArray, nil
	case 5:
		return StateStartMap, nil
	case 6:
		return StateTag, nil
	case 7:
		switch head.info {
		case 20, 21:
			return StateBool, nil
		case 22:
			return StateNull, nil
		case 23:
			return StateUndefined, nil
		case 25:
			return StateHalfFloat, nil
		case 26:
			return StateFloat, nil
		case 27:
			return StateDouble, nil
		case 31:
			return StateBreak, nil
		default:
			return 0, r.fail(newErr(KindUnexpectedCborType, "unsupported simple value %d", head.info))
		}
	default:
		return 0, r.fail(newErr(KindUnexpectedCborType, "unknown major type %d", head.major))
	}
}

func endState(k frameKind) State {
	if k == frameArray {
		return StateEndArray
	}
	return StateEndMap
}

// itemRead records the consumption of one logical item against the
// current open array frame. Map frames count pairs, not items, and are
// advanced explicitly via DoneMapEntry once both key and value are read.
func (r *Reader) itemRead() {
	f := r.curFrame()
	if f == nil || f.kind != frameArray {
		return
	}
	if !f.indefinite && f.remaining > 0 {
		f.remaining--
	}
	f.started = true
}

// DoneMapEntry records the consumption of one key/value pair against the
// current open map frame. Callers must invoke this exactly once per pair
// read from a map, after reading both the key and the value.
func (r *Reader) DoneMapEntry() {
	f := r.curFrame()
	if f == nil || f.kind != frameMap {
		return
	}
	if !f.indefinite && f.remaining > 0 {
		f.remaining--
	}
	f.started = true
}

// MarkMapKey records the raw CBOR encoding of a map key just read, from
// byte offset start to the current offset, against the current open map
// frame. It fails with KindDuplicatedMapKey if an identical key encoding
// was already recorded earlier in the same map. Callers invoke this once
// per pair, immediately after reading the key and before reading the
// value.
func (r *Reader) MarkMapKey(start int) error {
	f := r.curFrame()
	if f == nil || f.kind != frameMap {
		return r.fail(newErr(KindIllegalState, "MarkMapKey with no open map"))
	}
	key := string(r.src[start:r.offset])
	if f.seenKeys == nil {
		f.seenKeys = make(map[string]bool)
	}
	if f.seenKeys[key] {
		return r.fail(newErr(KindDuplicatedMapKey, "duplicate map key encoding"))
	}
	f.seenKeys[key] = true
	return nil
}

func (r *Reader) advance(n int) { r.offset += n }

// ReadUint consumes an unsigned integer (major type 0).
func (r *Reader) ReadUint() (uint64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if head.major != 0 {
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected unsigned int, got major type %d", head.major))
	}
	r.advance(head.headLen)
	r.itemRead()
	return head.value, nil
}

// ReadInt consumes a signed integer represented directly in major type 0
// or 1 (not a bignum tag); the full 64-bit range is supported.
func (r *Reader) ReadInt() (int64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	switch head.major {
	case 0:
		if head.value > math.MaxInt64 {
			return 0, r.fail(newErr(KindIntegerOverflow, "unsigned value %d overflows int64", head.value))
		}
		r.advance(head.headLen)
		r.itemRead()
		return int64(head.value), nil
	case 1:
		if head.value > math.MaxInt64 {
			return 0, r.fail(newErr(KindIntegerOverflow, "negative value overflows int64"))
		}
		r.advance(head.headLen)
		r.itemRead()
		return -1 - int64(head.value), nil
	default:
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected integer, got major type %d", head.major))
	}
}

// ReadBytestring consumes a byte string, concatenating chunks if the
// producer used an indefinite-length chunked encoding.
func (r *Reader) ReadBytestring() ([]byte, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return nil, r.fail(err)
	}
	if head.major != 2 {
		return nil, r.fail(newErr(KindUnexpectedCborType, "expected byte string, got major type %d", head.major))
	}
	if head.indef {
		r.advance(1)
		var out []byte
		for {
			if r.offset < len(r.src) && r.src[r.offset] == 0xFF {
				r.advance(1)
				break
			}
			chead, err := decodeHead(r.remainingBytes())
			if err != nil {
				return nil, r.fail(err)
			}
			if chead.major != 2 || chead.indef {
				return nil, r.fail(newErr(KindInvalidCborValue, "indefinite byte string chunk must be definite-length major type 2"))
			}
			start := r.offset + chead.headLen
			end := start + int(chead.value)
			if end > len(r.src) {
				return nil, r.fail(newErr(KindEndOfStream, "truncated byte string chunk"))
			}
			out = append(out, r.src[start:end]...)
			r.offset = end
		}
		r.itemRead()
		return out, nil
	}
	start := r.offset + head.headLen
	end := start + int(head.value)
	if end > len(r.src) {
		return nil, r.fail(newErr(KindEndOfStream, "truncated byte string"))
	}
	out := make([]byte, end-start)
	copy(out, r.src[start:end])
	r.offset = end
	r.itemRead()
	return out, nil
}

// ReadTextstring consumes a UTF-8 text string (major type 3), concatenating
// indefinite-length chunks.
func (r *Reader) ReadTextstring() (string, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return "", r.fail(err)
	}
	if head.major != 3 {
		return "", r.fail(newErr(KindUnexpectedCborType, "expected text string, got major type %d", head.major))
	}
	if head.indef {
		r.advance(1)
		var out []byte
		for {
			if r.offset < len(r.src) && r.src[r.offset] == 0xFF {
				r.advance(1)
				break
			}
			chead, err := decodeHead(r.remainingBytes())
			if err != nil {
				return "", r.fail(err)
			}
			if chead.major != 3 || chead.indef {
				return "", r.fail(newErr(KindInvalidCborValue, "indefinite text string chunk must be definite-length major type 3"))
			}
			start := r.offset + chead.headLen
			end := start + int(chead.value)
			if end > len(r.src) {
				return "", r.fail(newErr(KindEndOfStream, "truncated text string chunk"))
			}
			out = append(out, r.src[start:end]...)
			r.offset = end
		}
		r.itemRead()
		return string(out), nil
	}
	start := r.offset + head.headLen
	end := start + int(head.value)
	if end > len(r.src) {
		return "", r.fail(newErr(KindEndOfStream, "truncated text string"))
	}
	s := string(r.src[start:end])
	r.offset = end
	r.itemRead()
	return s, nil
}

func (r *Reader) pushFrame(kind frameKind, length int64) error {
	if len(r.frames) >= maxNesting {
		return r.fail(newErr(KindInvalidCborValue, "container nesting exceeds %d", maxNesting))
	}
	f := frame{kind: kind, length: length}
	if length < 0 {
		f.indefinite = true
	} else {
		f.remaining = length
	}
	r.frames = append(r.frames, f)
	return nil
}

// ReadStartArray consumes an array header, returning the declared length
// or -1 for indefinite-length arrays.
func (r *Reader) ReadStartArray() (int64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if head.major != 4 {
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected array, got major type %d", head.major))
	}
	r.advance(head.headLen)
	r.itemRead()
	length := int64(-1)
	if !head.indef {
		length = int64(head.value)
	}
	if err := r.pushFrame(frameArray, length); err != nil {
		return 0, err
	}
	return length, nil
}

// ReadEndArray consumes the terminator of the current array: a Break byte
// for indefinite arrays, or nothing (just validation) for definite ones.
func (r *Reader) ReadEndArray() error {
	f := r.curFrame()
	if f == nil || f.kind != frameArray {
		return r.fail(newErr(KindIllegalState, "ReadEndArray with no open array"))
	}
	if f.indefinite {
		if r.offset >= len(r.src) || r.src[r.offset] != 0xFF {
			return r.fail(newErr(KindInvalidCborArraySize, "expected break byte to end indefinite array"))
		}
		r.advance(1)
	} else if f.remaining != 0 {
		return r.fail(newErr(KindInvalidCborArraySize, "array has %d undeclared items remaining", f.remaining))
	}
	r.frames = r.frames[:len(r.frames)-1]
	r.itemRead()
	return nil
}

// ReadStartMap consumes a map header, returning the declared number of
// key/value pairs, or -1 for indefinite-length maps.
func (r *Reader) ReadStartMap() (int64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if head.major != 5 {
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected map, got major type %d", head.major))
	}
	r.advance(head.headLen)
	r.itemRead()
	length := int64(-1)
	if !head.indef {
		length = int64(head.value)
	}
	if err := r.pushFrame(frameMap, length); err != nil {
		return 0, err
	}
	return length, nil
}

// ReadEndMap consumes the terminator of the current map.
func (r *Reader) ReadEndMap() error {
	f := r.curFrame()
	if f == nil || f.kind != frameMap {
		return r.fail(newErr(KindIllegalState, "ReadEndMap with no open map"))
	}
	if f.indefinite {
		if r.offset >= len(r.src) || r.src[r.offset] != 0xFF {
			return r.fail(newErr(KindInvalidCborMapSize, "expected break byte to end indefinite map"))
		}
		r.advance(1)
	} else if f.remaining != 0 {
		return r.fail(newErr(KindInvalidCborMapSize, "map has %d undeclared pairs remaining", f.remaining))
	}
	r.frames = r.frames[:len(r.frames)-1]
	r.itemRead()
	return nil
}

// PeekTag inspects the next tag's numeric value without consuming it.
func (r *Reader) PeekTag() (uint64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if head.major != 6 {
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected tag, got major type %d", head.major))
	}
	return head.value, nil
}

// ReadTag consumes a tag header and returns its numeric value.
func (r *Reader) ReadTag() (uint64, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return 0, r.fail(err)
	}
	if head.major != 6 {
		return 0, r.fail(newErr(KindUnexpectedCborType, "expected tag, got major type %d", head.major))
	}
	r.advance(head.headLen)
	return head.value, nil
}

// ReadBool consumes a boolean simple value.
func (r *Reader) ReadBool() (bool, error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return false, r.fail(err)
	}
	if head.major != 7 || (head.info != 20 && head.info != 21) {
		return false, r.fail(newErr(KindUnexpectedCborType, "expected bool"))
	}
	r.advance(head.headLen)
	r.itemRead()
	return head.info == 21, nil
}

// ReadNull consumes a null simple value.
func (r *Reader) ReadNull() error {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return r.fail(err)
	}
	if head.major != 7 || head.info != 22 {
		return r.fail(newErr(KindUnexpectedCborType, "expected null"))
	}
	r.advance(head.headLen)
	r.itemRead()
	return nil
}

// ReadEncodedValue copies the exact byte range of the next complete item,
// recursing through containers and tags without decoding semantics. Used
// to preserve a producer's exact, possibly non-canonical, encoding.
func (r *Reader) ReadEncodedValue() ([]byte, error) {
	start := r.offset
	if err := r.skipValue(); err != nil {
		return nil, err
	}
	out := make([]byte, r.offset-start)
	copy(out, r.src[start:r.offset])
	r.itemRead()
	return out, nil
}

// skipValue advances past one complete CBOR item without recording it
// against any open frame's remaining count (the caller does that once).
func (r *Reader) skipValue() error {
	if r.offset >= len(r.src) {
		return r.fail(newErr(KindEndOfStream, "unexpected end of stream"))
	}
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return r.fail(err)
	}
	switch head.major {
	case 0, 1:
		r.advance(head.headLen)
		return nil
	case 2, 3:
		if head.indef {
			r.advance(1)
			for {
				if r.offset >= len(r.src) {
					return r.fail(newErr(KindEndOfStream, "truncated chunked string"))
				}
				if r.src[r.offset] == 0xFF {
					r.advance(1)
					return nil
				}
				chead, err := decodeHead(r.remainingBytes())
				if err != nil {
					return err
				}
				r.advance(chead.headLen + int(chead.value))
			}
		}
		r.advance(head.headLen + int(head.value))
		return nil
	case 4:
		r.advance(head.headLen)
		if head.indef {
			for {
				if r.offset < len(r.src) && r.src[r.offset] == 0xFF {
					r.advance(1)
					return nil
				}
				if err := r.skipValue(); err != nil {
					return err
				}
			}
		}
		for i := uint64(0); i < head.value; i++ {
			if err := r.skipValue(); err != nil {
				return err
			}
		}
		return nil
	case 5:
		r.advance(head.headLen)
		if head.indef {
			for {
				if r.offset < len(r.src) && r.src[r.offset] == 0xFF {
					r.advance(1)
					return nil
				}
				if err := r.skipValue(); err != nil {
					return err
				}
				if err := r.skipValue(); err != nil {
					return err
				}
			}
		}
		for i := uint64(0); i < head.value; i++ {
			if err := r.skipValue(); err != nil {
				return err
			}
			if err := r.skipValue(); err != nil {
				return err
			}
		}
		return nil
	case 6:
		r.advance(head.headLen)
		return r.skipValue()
	case 7:
		switch head.info {
		case 25:
			r.advance(3)
		case 26:
			r.advance(5)
		case 27:
			r.advance(9)
		default:
			r.advance(head.headLen)
		}
		return nil
	default:
		return r.fail(newErr(KindUnexpectedCborType, "unknown major type %d", head.major))
	}
}

// ReadBigint accepts either a direct major-type-0/1 integer or a tag-2/3
// wrapped byte string (definite or chunked indefinite), per spec.
func (r *Reader) ReadBigint() (negative bool, magnitude []byte, err error) {
	head, err := decodeHead(r.remainingBytes())
	if err != nil {
		return false, nil, r.fail(err)
	}
	switch head.major {
	case 0:
		v, err := r.ReadUint()
		if err != nil {
			return false, nil, err
		}
		buf := make([]byte, 8)
		for i := 7; i >= 0; i-- {
			buf[i] = byte(v)
			v >>= 8
		}
		return false, trimLeadingZeros(buf), nil
	case 1:
		raw, err := r.ReadInt()
		if err != nil {
			return false, nil, err
		}
		n := -1 - raw
		buf := make([]byte, 8)
		u := uint64(n)
		for i := 7; i >= 0; i-- {
			buf[i] = byte(u)
			u >>= 8
		}
		return true, trimLeadingZeros(buf), nil
	case 6:
		tag, err := r.ReadTag()
		if err != nil {
			return false, nil, err
		}
		if tag != 2 && tag != 3 {
			return false, nil, r.fail(newErr(KindUnexpectedCborType, "expected bignum tag 2 or 3, got %d", tag))
		}
		mag, err := r.ReadBytestring()
		if err != nil {
			return false, nil, err
		}
		return tag == 3, mag, nil
	default:
		return false, nil, r.fail(newErr(KindUnexpectedCborType, "expected integer or bignum, got major type %d", head.major))
	}
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}
