package ordkv

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds, for use with errors.Is. Encode and decode failures
// returned by Codec and Table wrap one of these.
var (
	// ErrTruncated means the data ended before a fixed-width field was complete.
	ErrTruncated = errors.New("truncated key data")
	// ErrInvalidEncoding means a field's bytes violate its format (bad UTF-8,
	// bad escape sequence, invalid code point).
	ErrInvalidEncoding = errors.New("invalid key encoding")
	// ErrMissingTerminator means the data ended before a framed field's
	// terminator was found.
	ErrMissingTerminator = errors.New("missing field terminator")
	// ErrTrailingBytes means bytes remained after all schema fields were decoded.
	ErrTrailingBytes = errors.New("trailing bytes after last key field")
	// ErrNotOrderable means a value cannot participate in an ordered key (NaN).
	ErrNotOrderable = errors.New("value has no defined ordering")
	// ErrChecksum means a checksummed value failed verification.
	ErrChecksum = errors.New("value checksum mismatch")
)

// SchemaError indicates that a tuple passed to encode or decode disagrees
// with the schema in arity or field type. It is always a caller bug.
type SchemaError struct {
	Field int // offending field index, -1 for arity problems
	Msg   string
}

func schemaErrf(field int, format string, args ...any) error {
	return &SchemaError{field, fmt.Sprintf(format, args...)}
}

func (e *SchemaError) Error() string {
	if e.Field >= 0 {
		return fmt.Sprintf("schema: field %d: %s", e.Field, e.Msg)
	}
	return "schema: " + e.Msg
}

// EncodeError indicates that a field value cannot be encoded into an
// order-preserving key (e.g. a NaN float). The input must be changed.
type EncodeError struct {
	Field int
	Err   error
	Msg   string
}

func encodeErrf(field int, err error, format string, args ...any) error {
	return &EncodeError{field, err, fmt.Sprintf(format, args...)}
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "encode: field %d: %s", e.Field, e.Msg)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// DecodeError indicates corrupted or foreign bytes in the keyspace, or a
// programming error. It is never silently recovered: guessing at corrupted
// field boundaries would corrupt all subsequent fields.
type DecodeError struct {
	Data  []byte
	Off   int
	Field int // field being decoded, -1 if not field-specific
	Err   error
	Msg   string
}

func decodeErrf(data []byte, off, field int, err error, format string, args ...any) error {
	return &DecodeError{data, off, field, err, fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	var buf strings.Builder
	buf.WriteString("decode: ")
	if e.Field >= 0 {
		fmt.Fprintf(&buf, "field %d: ", e.Field)
	}
	buf.WriteString(e.Msg)
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		fmt.Fprintf(&buf, ": at %d in (%d) %x", e.Off, n, e.Data)
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		fmt.Fprintf(&buf, ": at %d in (%d) %x...%x", e.Off, n, p, s)
	}
	return buf.String()
}

// TableError wraps any error surfaced by a Table operation with the table
// name and the raw key involved, if known.
type TableError struct {
	Table string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(table string, key []byte, err error, format string, args ...any) error {
	return &TableError{table, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error { return e.Err }

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Key != nil {
		fmt.Fprintf(&buf, "/%x", e.Key)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
