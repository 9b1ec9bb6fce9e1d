package ordkv

import "bytes"

// Variable-width fields that are followed by more fields must be framed,
// or concatenating encodings is ambiguous ("ab"+"c" vs "a"+"bc") and can
// reorder keys across field boundaries. Framing escapes every literal 0x00
// payload byte as the pair (0x00, 0xFF) and ends the field with the
// terminator pair (0x00, 0x01). The terminator sorts below the escape pair
// and below any payload byte >= 0x01, so a field that is a strict byte
// prefix of another always sorts first. The last field of a schema needs
// no framing and is decoded greedily, consuming the rest of the key.
const (
	frameMark = 0x00 // first byte of both the terminator and the escape pair
	frameTerm = 0x01 // frameMark, frameTerm ends a framed field
	frameEsc  = 0xFF // frameMark, frameEsc encodes a literal 0x00
)

// appendFramed appends the escaped payload plus terminator to buf.
func appendFramed(buf, payload []byte) []byte {
	buf = appendEscaped(buf, payload)
	off, buf := grow(buf, 2)
	buf[off] = frameMark
	buf[off+1] = frameTerm
	return buf
}

// appendEscaped appends the escaped payload without a terminator. Used for
// open-ended (starts-with) scan bounds.
func appendEscaped(buf, payload []byte) []byte {
	for {
		i := bytes.IndexByte(payload, frameMark)
		if i < 0 {
			return appendRaw(buf, payload)
		}
		buf = appendRaw(buf, payload[:i])
		off, grown := grow(buf, 2)
		grown[off] = frameMark
		grown[off+1] = frameEsc
		buf = grown
		payload = payload[i+1:]
	}
}

// readFramed scans raw starting at off for the next unescaped terminator
// and returns the unescaped payload plus the total number of bytes
// consumed (including the terminator). The returned payload aliases raw
// when no escapes are present.
func readFramed(raw []byte, off, field int) (payload []byte, n int, err error) {
	data := raw[off:]
	var unescaped []byte // nil until the first escape
	start := 0
	for {
		i := bytes.IndexByte(data[start:], frameMark)
		if i < 0 {
			return nil, 0, decodeErrf(raw, off, field, ErrMissingTerminator, "unterminated field")
		}
		i += start
		if i+1 >= len(data) {
			return nil, 0, decodeErrf(raw, off+i, field, ErrMissingTerminator, "unterminated field")
		}
		switch data[i+1] {
		case frameTerm:
			if unescaped == nil {
				return data[:i], i + 2, nil
			}
			unescaped = append(unescaped, data[start:i]...)
			return unescaped, i + 2, nil
		case frameEsc:
			unescaped = append(unescaped, data[start:i]...)
			unescaped = append(unescaped, frameMark)
			start = i + 2
		default:
			return nil, 0, decodeErrf(raw, off+i, field, ErrInvalidEncoding, "invalid escape byte 0x%02x", data[i+1])
		}
	}
}
