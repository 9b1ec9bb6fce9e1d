package ordkv

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// ValueCodec serializes application values to and from opaque bytes.
// The key layer never interprets value bytes; whatever a codec writes is
// exactly what the store persists.
type ValueCodec interface {
	// EncodeValue appends the encoding of v to buf.
	EncodeValue(buf []byte, v any) ([]byte, error)
	// DecodeValue decodes data into the pointer ptr.
	DecodeValue(data []byte, ptr any) error
}

var (
	// MsgPackValue encodes values as msgpack. map[string]any and
	// map[string]string encode with sorted keys; other map types follow
	// Go's map iteration order.
	MsgPackValue ValueCodec = msgpackValueCodec{}
	// JSONValue encodes values as JSON.
	JSONValue ValueCodec = jsonValueCodec{}
	// RawValue passes []byte values through untouched.
	RawValue ValueCodec = rawValueCodec{}
)

type appendWriter struct {
	buf []byte
}

var _ io.Writer = (*appendWriter)(nil)

func (w *appendWriter) Write(p []byte) (int, error) {
	w.buf = appendRaw(w.buf, p)
	return len(p), nil
}

type msgpackValueCodec struct{}

func (msgpackValueCodec) EncodeValue(buf []byte, v any) ([]byte, error) {
	w := appendWriter{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&w)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", v, err)
	}
	return w.buf, nil
}

func (msgpackValueCodec) DecodeValue(data []byte, ptr any) error {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(ptr)
	msgpack.PutDecoder(dec)
	if err != nil {
		return decodeErrf(data, 0, -1, err, "failed to decode msgpack into %T", ptr)
	}
	return nil
}

type jsonValueCodec struct{}

func (jsonValueCodec) EncodeValue(buf []byte, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T to JSON: %w", v, err)
	}
	return appendRaw(buf, raw), nil
}

func (jsonValueCodec) DecodeValue(data []byte, ptr any) error {
	err := json.Unmarshal(data, ptr)
	if err != nil {
		return decodeErrf(data, 0, -1, err, "failed to decode JSON into %T", ptr)
	}
	return nil
}

type rawValueCodec struct{}

func (rawValueCodec) EncodeValue(buf []byte, v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("raw value codec needs []byte, got %T", v)
	}
	return appendRaw(buf, b), nil
}

func (rawValueCodec) DecodeValue(data []byte, ptr any) error {
	p, ok := ptr.(*[]byte)
	if !ok {
		return fmt.Errorf("raw value codec needs *[]byte, got %T", ptr)
	}
	*p = appendRaw(nil, data)
	return nil
}

// CompressionType selects the algorithm used by Compressed. Each encoded
// value carries a 1-byte type indicator, so readers do not need to know
// the writer's configuration.
type CompressionType uint8

const (
	NoCompression CompressionType = iota
	SnappyCompression
	ZlibCompression
	LZ4Compression
	ZstdCompression
)

func (t CompressionType) String() string {
	switch t {
	case NoCompression:
		return "none"
	case SnappyCompression:
		return "snappy"
	case ZlibCompression:
		return "zlib"
	case LZ4Compression:
		return "lz4"
	case ZstdCompression:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Compressed wraps a value codec so that encoded values are compressed
// with the given algorithm before hitting the store.
func Compressed(inner ValueCodec, typ CompressionType) ValueCodec {
	switch typ {
	case NoCompression, SnappyCompression, ZlibCompression, LZ4Compression, ZstdCompression:
	default:
		panic(fmt.Errorf("ordkv: unsupported compression type %v", typ))
	}
	return compressedValueCodec{inner: inner, typ: typ}
}

type compressedValueCodec struct {
	inner ValueCodec
	typ   CompressionType
}

func (c compressedValueCodec) EncodeValue(buf []byte, v any) ([]byte, error) {
	scratch := borrowValueBytes()
	payload, err := c.inner.EncodeValue(scratch, v)
	if err != nil {
		releaseValueBytes(scratch)
		return nil, err
	}
	buf = appendByte(buf, byte(c.typ))
	switch c.typ {
	case NoCompression:
		buf = appendRaw(buf, payload)

	case SnappyCompression:
		buf = appendRaw(buf, snappy.Encode(nil, payload))

	case ZlibCompression:
		w := appendWriter{buf}
		zw := zlib.NewWriter(&w)
		if _, err := zw.Write(payload); err != nil {
			releaseValueBytes(payload)
			return nil, fmt.Errorf("zlib write: %w", err)
		}
		if err := zw.Close(); err != nil {
			releaseValueBytes(payload)
			return nil, fmt.Errorf("zlib close: %w", err)
		}
		buf = w.buf

	case LZ4Compression:
		w := appendWriter{buf}
		lw := lz4.NewWriter(&w)
		if _, err := lw.Write(payload); err != nil {
			releaseValueBytes(payload)
			return nil, fmt.Errorf("lz4 write: %w", err)
		}
		if err := lw.Close(); err != nil {
			releaseValueBytes(payload)
			return nil, fmt.Errorf("lz4 close: %w", err)
		}
		buf = w.buf

	case ZstdCompression:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			releaseValueBytes(payload)
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		buf = enc.EncodeAll(payload, buf)
		enc.Close()
	}
	releaseValueBytes(payload)
	return buf, nil
}

func (c compressedValueCodec) DecodeValue(data []byte, ptr any) error {
	if len(data) == 0 {
		return decodeErrf(data, 0, -1, ErrTruncated, "missing compression type byte")
	}
	typ, body := CompressionType(data[0]), data[1:]
	var payload []byte
	var err error
	switch typ {
	case NoCompression:
		payload = body

	case SnappyCompression:
		payload, err = snappy.Decode(nil, body)
		if err != nil {
			return decodeErrf(data, 1, -1, err, "snappy decompress")
		}

	case ZlibCompression:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return decodeErrf(data, 1, -1, err, "zlib decompress")
		}
		payload, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return decodeErrf(data, 1, -1, err, "zlib decompress")
		}

	case LZ4Compression:
		payload, err = io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
		if err != nil {
			return decodeErrf(data, 1, -1, err, "lz4 decompress")
		}

	case ZstdCompression:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return decodeErrf(data, 1, -1, err, "zstd decoder")
		}
		payload, err = dec.DecodeAll(body, nil)
		dec.Close()
		if err != nil {
			return decodeErrf(data, 1, -1, err, "zstd decompress")
		}

	default:
		return decodeErrf(data, 0, -1, ErrInvalidEncoding, "unsupported compression type %d", data[0])
	}
	return c.inner.DecodeValue(payload, ptr)
}

// Checksummed wraps a value codec so that encoded values carry an xxhash64
// trailer, verified on every read. A mismatch surfaces as ErrChecksum.
func Checksummed(inner ValueCodec) ValueCodec {
	return checksummedValueCodec{inner: inner}
}

type checksummedValueCodec struct {
	inner ValueCodec
}

func (c checksummedValueCodec) EncodeValue(buf []byte, v any) ([]byte, error) {
	off := len(buf)
	buf, err := c.inner.EncodeValue(buf, v)
	if err != nil {
		return nil, err
	}
	sum := xxhash.Sum64(buf[off:])
	return binary.BigEndian.AppendUint64(buf, sum), nil
}

func (c checksummedValueCodec) DecodeValue(data []byte, ptr any) error {
	if len(data) < 8 {
		return decodeErrf(data, 0, -1, ErrTruncated, "value shorter than checksum trailer")
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	want := binary.BigEndian.Uint64(trailer)
	if got := xxhash.Sum64(body); got != want {
		return decodeErrf(data, len(body), -1, ErrChecksum, "xxhash64 %016x, expected %016x", got, want)
	}
	return c.inner.DecodeValue(body, ptr)
}
