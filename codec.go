package ordkv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Tuple is an ordered list of field values matching a schema.
type Tuple []any

// Codec turns tuples into composite keys and back. Byte-lexicographic
// order of the produced keys equals field-by-field lexicographic order of
// the tuples; this is the property everything else here exists to deliver.
//
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	schema *Schema
	sep    string
}

// NewCodec builds a composite-key codec for the given schema.
func NewCodec(schema *Schema) *Codec {
	return &Codec{schema: schema, sep: "|"}
}

// Schema returns the codec's key schema.
func (c *Codec) Schema() *Schema {
	return c.schema
}

// EncodeFull encodes a complete tuple into a composite key.
func (c *Codec) EncodeFull(tuple Tuple) ([]byte, error) {
	return c.AppendFull(nil, tuple)
}

// AppendFull appends the composite key for a complete tuple to buf.
func (c *Codec) AppendFull(buf []byte, tuple Tuple) ([]byte, error) {
	if len(tuple) != c.schema.Len() {
		return nil, schemaErrf(-1, "tuple has %d fields, schema %v has %d", len(tuple), c.schema, c.schema.Len())
	}
	return c.append(buf, tuple)
}

// EncodePrefix encodes 0..N leading fields into a partial key usable as a
// scan bound. Every full key whose leading fields equal the partial tuple
// starts with the returned bytes.
func (c *Codec) EncodePrefix(partial Tuple) ([]byte, error) {
	return c.AppendPrefix(nil, partial)
}

// AppendPrefix appends the partial key for 0..N leading fields to buf.
func (c *Codec) AppendPrefix(buf []byte, partial Tuple) ([]byte, error) {
	if len(partial) > c.schema.Len() {
		return nil, schemaErrf(-1, "partial tuple has %d fields, schema %v has only %d", len(partial), c.schema, c.schema.Len())
	}
	return c.append(buf, partial)
}

func (c *Codec) append(buf []byte, vals Tuple) ([]byte, error) {
	var err error
	for i, v := range vals {
		ft := c.schema.fields[i]
		if !ft.variable() {
			buf, err = appendFixedField(buf, ft, i, v)
			if err != nil {
				return nil, err
			}
			continue
		}
		scratch := borrowKeyBytes()
		payload, err := appendVarField(scratch, ft, i, v)
		if err != nil {
			releaseKeyBytes(scratch)
			return nil, err
		}
		// Framing depends on the field's schema position, not on how many
		// fields this particular tuple carries: a framed field keeps its
		// terminator even when it is the last one encoded, so that partial
		// keys match exactly the rows whose leading fields are equal.
		if c.schema.framed[i] {
			buf = appendFramed(buf, payload)
		} else {
			buf = appendRaw(buf, payload)
		}
		releaseKeyBytes(payload)
	}
	return buf, nil
}

// DecodeFull decodes a composite key back into its tuple. It is the exact
// left inverse of EncodeFull for every key EncodeFull can produce. Foreign
// or corrupted bytes fail with a DecodeError; they are never skipped.
func (c *Codec) DecodeFull(raw []byte) (Tuple, error) {
	n := c.schema.Len()
	vals := make(Tuple, n)
	off := 0
	for i := 0; i < n; i++ {
		ft := c.schema.fields[i]
		switch {
		case !ft.variable():
			w := ft.fixedWidth()
			if len(raw)-off < w {
				return nil, decodeErrf(raw, off, i, ErrTruncated, "%v needs %d bytes, %d remain", ft, w, len(raw)-off)
			}
			v, err := decodeFixedField(ft, raw[off:off+w], raw, off, i)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			off += w

		case c.schema.framed[i]:
			payload, consumed, err := readFramed(raw, off, i)
			if err != nil {
				return nil, err
			}
			v, err := decodeVarField(ft, payload, raw, off, i)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			off += consumed

		default: // unframed last field, consumes the rest
			v, err := decodeVarField(ft, raw[off:], raw, off, i)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			off = len(raw)
		}
	}
	if off != len(raw) {
		return nil, decodeErrf(raw, off, -1, ErrTrailingBytes, "%d bytes left over", len(raw)-off)
	}
	return vals, nil
}

// PrefixRange returns the raw scan range covering exactly the keys whose
// leading fields equal the partial tuple. An empty partial tuple covers
// the whole keyspace; a full tuple covers the single exact key.
func (c *Codec) PrefixRange(partial Tuple) (RawRange, error) {
	if len(partial) == 0 {
		return RawOO(), nil
	}
	p, err := c.EncodePrefix(partial)
	if err != nil {
		return RawRange{}, err
	}
	if len(partial) == c.schema.Len() {
		return RawII(p, p), nil
	}
	upper := prefixSuccessor(p)
	if upper == nil {
		return RawIO(p), nil
	}
	return RawIE(p, upper), nil
}

// StartsWithRange returns the raw scan range covering the keys whose
// leading fields equal partial[:len-1] and whose next field starts with
// the last element of partial, which must be a variable-width field value.
func (c *Codec) StartsWithRange(partial Tuple) (RawRange, error) {
	if len(partial) == 0 {
		return RawOO(), nil
	}
	if len(partial) > c.schema.Len() {
		return RawRange{}, schemaErrf(-1, "partial tuple has %d fields, schema %v has only %d", len(partial), c.schema, c.schema.Len())
	}
	last := len(partial) - 1
	ft := c.schema.fields[last]
	if !ft.variable() {
		return RawRange{}, schemaErrf(last, "starts-with needs a variable-width field, %v is fixed", ft)
	}
	buf, err := c.append(nil, partial[:last])
	if err != nil {
		return RawRange{}, err
	}
	payload, err := appendVarField(nil, ft, last, partial[last])
	if err != nil {
		return RawRange{}, err
	}
	if c.schema.framed[last] {
		buf = appendEscaped(buf, payload)
	} else {
		buf = appendRaw(buf, payload)
	}
	upper := prefixSuccessor(buf)
	if upper == nil {
		return RawIO(buf), nil
	}
	return RawIE(buf, upper), nil
}

// KeyString renders a composite key as "fld1|fld2|..." for logs and dumps.
// Undecodable keys render as !hex.
func (c *Codec) KeyString(raw []byte) string {
	vals, err := c.DecodeFull(raw)
	if err != nil {
		return "!" + hex.EncodeToString(raw)
	}
	var buf strings.Builder
	for i, v := range vals {
		if i > 0 {
			buf.WriteString(c.sep)
		}
		switch v := v.(type) {
		case []byte:
			buf.WriteString(hex.EncodeToString(v))
		default:
			fmt.Fprint(&buf, v)
		}
	}
	return buf.String()
}
