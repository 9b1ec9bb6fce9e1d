package ordkv

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type kind uint8

const (
	kindInvalid kind = iota
	kindBool
	kindInt8
	kindInt16
	kindInt32
	kindInt64
	kindUint8
	kindUint16
	kindUint32
	kindUint64
	kindFloat32
	kindFloat64
	kindTime
	kindUUID
	kindFixedBytes
	kindTuple
	kindBytes
	kindString
	kindStringCP
)

// FieldType describes a single field of a key schema: its primitive kind,
// fixed vs. variable width, and (for strings) the ordering mode.
//
// Fixed-width kinds encode to a constant number of bytes. Signed integers
// and times get their sign bit flipped before a big-endian write so that
// the unsigned byte order matches signed order. Floats use the usual
// order-preserving bit transform: positive values get the sign bit flipped,
// negative values are complemented entirely.
//
// Variable-width kinds (Bytes, String, StringCP) encode to bytes whose
// prefix relation matches the value's own lexicographic order. String
// compares by UTF-8 bytes; StringCP compares by code points (UTF-32
// big-endian words), which diverges from byte order for some multi-byte
// sequences.
type FieldType struct {
	kind  kind
	size  int         // kindFixedBytes only
	elems []FieldType // kindTuple only
}

var (
	Bool     = FieldType{kind: kindBool}
	Int8     = FieldType{kind: kindInt8}
	Int16    = FieldType{kind: kindInt16}
	Int32    = FieldType{kind: kindInt32}
	Int64    = FieldType{kind: kindInt64}
	Uint8    = FieldType{kind: kindUint8}
	Uint16   = FieldType{kind: kindUint16}
	Uint32   = FieldType{kind: kindUint32}
	Uint64   = FieldType{kind: kindUint64}
	Float32  = FieldType{kind: kindFloat32}
	Float64  = FieldType{kind: kindFloat64}
	Time     = FieldType{kind: kindTime}
	UUID     = FieldType{kind: kindUUID}
	Bytes    = FieldType{kind: kindBytes}
	String   = FieldType{kind: kindString}
	StringCP = FieldType{kind: kindStringCP}
)

// FixedBytes describes a field holding exactly n raw bytes.
func FixedBytes(n int) FieldType {
	if n <= 0 {
		panic(fmt.Errorf("ordkv: FixedBytes size must be positive, got %d", n))
	}
	return FieldType{kind: kindFixedBytes, size: n}
}

// TupleOf describes a nested fixed-shape tuple field. All element types
// must be fixed-width.
func TupleOf(elems ...FieldType) FieldType {
	if len(elems) == 0 {
		panic("ordkv: TupleOf requires at least one element")
	}
	for i, el := range elems {
		if el.variable() {
			panic(fmt.Errorf("ordkv: TupleOf element %d (%v) is variable-width; nested tuples must be fixed-shape", i, el))
		}
	}
	return FieldType{kind: kindTuple, elems: elems}
}

func (ft FieldType) variable() bool {
	switch ft.kind {
	case kindBytes, kindString, kindStringCP:
		return true
	}
	return false
}

// fixedWidth returns the encoded width of a fixed-width field.
// Panics for variable-width kinds.
func (ft FieldType) fixedWidth() int {
	switch ft.kind {
	case kindBool, kindInt8, kindUint8:
		return 1
	case kindInt16, kindUint16:
		return 2
	case kindInt32, kindUint32, kindFloat32:
		return 4
	case kindInt64, kindUint64, kindFloat64, kindTime:
		return 8
	case kindUUID:
		return 16
	case kindFixedBytes:
		return ft.size
	case kindTuple:
		var total int
		for _, el := range ft.elems {
			total += el.fixedWidth()
		}
		return total
	}
	panic(fmt.Errorf("ordkv: no fixed width for %v", ft))
}

func (ft FieldType) String() string {
	switch ft.kind {
	case kindBool:
		return "bool"
	case kindInt8:
		return "int8"
	case kindInt16:
		return "int16"
	case kindInt32:
		return "int32"
	case kindInt64:
		return "int64"
	case kindUint8:
		return "uint8"
	case kindUint16:
		return "uint16"
	case kindUint32:
		return "uint32"
	case kindUint64:
		return "uint64"
	case kindFloat32:
		return "float32"
	case kindFloat64:
		return "float64"
	case kindTime:
		return "time"
	case kindUUID:
		return "uuid"
	case kindFixedBytes:
		return fmt.Sprintf("bytes%d", ft.size)
	case kindTuple:
		var buf strings.Builder
		buf.WriteString("tuple(")
		for i, el := range ft.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(el.String())
		}
		buf.WriteByte(')')
		return buf.String()
	case kindBytes:
		return "bytes"
	case kindString:
		return "string"
	case kindStringCP:
		return "string/cp"
	}
	return "invalid"
}

func asInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	// Accept non-negative signed values for convenience (untyped constants
	// arrive as int).
	if i, ok := asInt64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

// appendFixedField appends the order-preserving encoding of a fixed-width
// field value to buf.
func appendFixedField(buf []byte, ft FieldType, field int, v any) ([]byte, error) {
	switch ft.kind {
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		if b {
			return appendByte(buf, 1), nil
		}
		return appendByte(buf, 0), nil

	case kindInt8, kindInt16, kindInt32, kindInt64:
		i, ok := asInt64(v)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		w := ft.fixedWidth()
		if w < 8 {
			limit := int64(1) << (w*8 - 1)
			if i < -limit || i >= limit {
				return nil, schemaErrf(field, "value %d out of range for %v", i, ft)
			}
		}
		// Flipping the sign bit biases the value so that unsigned byte
		// order matches signed order.
		u := uint64(i) ^ (1 << (uint(w)*8 - 1))
		if w < 8 {
			u &= (1 << (uint(w) * 8)) - 1
		}
		return appendBigEndian(buf, u, w), nil

	case kindUint8, kindUint16, kindUint32, kindUint64:
		u, ok := asUint64(v)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		w := ft.fixedWidth()
		if w < 8 && u >= uint64(1)<<(w*8) {
			return nil, schemaErrf(field, "value %d out of range for %v", u, ft)
		}
		return appendBigEndian(buf, u, w), nil

	case kindFloat32:
		f, ok := v.(float32)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		if f != f {
			return nil, encodeErrf(field, ErrNotOrderable, "float32 NaN")
		}
		bits := math.Float32bits(f)
		if bits&(1<<31) == 0 {
			bits ^= 1 << 31
		} else {
			bits = ^bits
		}
		return binary.BigEndian.AppendUint32(buf, bits), nil

	case kindFloat64:
		var f float64
		switch v := v.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		default:
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		if f != f {
			return nil, encodeErrf(field, ErrNotOrderable, "float64 NaN")
		}
		bits := math.Float64bits(f)
		if bits&(1<<63) == 0 {
			bits ^= 1 << 63
		} else {
			bits = ^bits
		}
		return binary.BigEndian.AppendUint64(buf, bits), nil

	case kindTime:
		t, ok := v.(time.Time)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		u := uint64(t.UnixNano()) ^ (1 << 63)
		return binary.BigEndian.AppendUint64(buf, u), nil

	case kindUUID:
		u, ok := v.(uuid.UUID)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		return appendRaw(buf, u[:]), nil

	case kindFixedBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		if len(b) != ft.size {
			return nil, schemaErrf(field, "need exactly %d bytes for %v, got %d", ft.size, ft, len(b))
		}
		return appendRaw(buf, b), nil

	case kindTuple:
		sub, ok := v.([]any)
		if !ok {
			if tup, ok2 := v.(Tuple); ok2 {
				sub = tup
			} else {
				return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
			}
		}
		if len(sub) != len(ft.elems) {
			return nil, schemaErrf(field, "nested tuple needs %d elements, got %d", len(ft.elems), len(sub))
		}
		var err error
		for i, el := range ft.elems {
			buf, err = appendFixedField(buf, el, field, sub[i])
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	}
	panic(fmt.Errorf("ordkv: %v is not fixed-width", ft))
}

func appendBigEndian(buf []byte, u uint64, w int) []byte {
	off, buf := grow(buf, w)
	for i := w - 1; i >= 0; i-- {
		buf[off+i] = byte(u)
		u >>= 8
	}
	return buf
}

// appendVarField appends the raw (unframed) payload of a variable-width
// field value to buf.
func appendVarField(buf []byte, ft FieldType, field int, v any) ([]byte, error) {
	switch ft.kind {
	case kindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		return appendRaw(buf, b), nil

	case kindString:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		if !utf8.ValidString(s) {
			return nil, encodeErrf(field, ErrNotOrderable, "invalid UTF-8")
		}
		off, buf := grow(buf, len(s))
		copy(buf[off:], s)
		return buf, nil

	case kindStringCP:
		s, ok := v.(string)
		if !ok {
			return nil, schemaErrf(field, "cannot encode %T as %v", v, ft)
		}
		for i, r := range s {
			if r == utf8.RuneError {
				if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
					return nil, encodeErrf(field, ErrNotOrderable, "invalid UTF-8")
				}
			}
			buf = binary.BigEndian.AppendUint32(buf, uint32(r))
		}
		return buf, nil
	}
	panic(fmt.Errorf("ordkv: %v is not variable-width", ft))
}

// decodeFixedField decodes a fixed-width field from data, which holds
// exactly ft.fixedWidth() bytes. whole/off/field provide error context.
func decodeFixedField(ft FieldType, data []byte, whole []byte, off, field int) (any, error) {
	switch ft.kind {
	case kindBool:
		switch data[0] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, decodeErrf(whole, off, field, ErrInvalidEncoding, "bool byte 0x%02x", data[0])

	case kindInt8, kindInt16, kindInt32, kindInt64:
		w := len(data)
		u := readBigEndian(data)
		u <<= 64 - uint(w)*8
		i := int64(u ^ (1 << 63)) >> (64 - uint(w)*8)
		switch ft.kind {
		case kindInt8:
			return int8(i), nil
		case kindInt16:
			return int16(i), nil
		case kindInt32:
			return int32(i), nil
		}
		return i, nil

	case kindUint8:
		return data[0], nil
	case kindUint16:
		return binary.BigEndian.Uint16(data), nil
	case kindUint32:
		return binary.BigEndian.Uint32(data), nil
	case kindUint64:
		return binary.BigEndian.Uint64(data), nil

	case kindFloat32:
		bits := binary.BigEndian.Uint32(data)
		if bits&(1<<31) != 0 {
			bits ^= 1 << 31
		} else {
			bits = ^bits
		}
		return math.Float32frombits(bits), nil

	case kindFloat64:
		bits := binary.BigEndian.Uint64(data)
		if bits&(1<<63) != 0 {
			bits ^= 1 << 63
		} else {
			bits = ^bits
		}
		return math.Float64frombits(bits), nil

	case kindTime:
		u := binary.BigEndian.Uint64(data)
		return time.Unix(0, int64(u^(1<<63))).UTC(), nil

	case kindUUID:
		var u uuid.UUID
		copy(u[:], data)
		return u, nil

	case kindFixedBytes:
		return slices.Clone(data), nil

	case kindTuple:
		sub := make([]any, len(ft.elems))
		pos := 0
		for i, el := range ft.elems {
			w := el.fixedWidth()
			v, err := decodeFixedField(el, data[pos:pos+w], whole, off+pos, field)
			if err != nil {
				return nil, err
			}
			sub[i] = v
			pos += w
		}
		return sub, nil
	}
	panic(fmt.Errorf("ordkv: %v is not fixed-width", ft))
}

func readBigEndian(data []byte) uint64 {
	var u uint64
	for _, b := range data {
		u = u<<8 | uint64(b)
	}
	return u
}

// decodeVarField decodes a variable-width field from its complete
// (unescaped) payload.
func decodeVarField(ft FieldType, payload []byte, whole []byte, off, field int) (any, error) {
	switch ft.kind {
	case kindBytes:
		return slices.Clone(payload), nil

	case kindString:
		if !utf8.Valid(payload) {
			return nil, decodeErrf(whole, off, field, ErrInvalidEncoding, "invalid UTF-8")
		}
		return string(payload), nil

	case kindStringCP:
		if len(payload)%4 != 0 {
			return nil, decodeErrf(whole, off, field, ErrInvalidEncoding, "UTF-32 payload length %d is not a multiple of 4", len(payload))
		}
		var buf []byte
		for i := 0; i < len(payload); i += 4 {
			cp := binary.BigEndian.Uint32(payload[i:])
			r := rune(cp)
			if cp > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
				return nil, decodeErrf(whole, off+i, field, ErrInvalidEncoding, "invalid code point U+%04X", cp)
			}
			buf = utf8.AppendRune(buf, r)
		}
		return string(buf), nil
	}
	panic(fmt.Errorf("ordkv: %v is not variable-width", ft))
}
