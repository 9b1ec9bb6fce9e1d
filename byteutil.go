package ordkv

import (
	"encoding/hex"
	"log/slog"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

func appendByte(buf []byte, b byte) []byte {
	off, buf := grow(buf, 1)
	buf[off] = b
	return buf
}

// prefixSuccessor returns the smallest byte string greater than every
// string that has prefix as a prefix, or nil if no such string exists
// (prefix is empty or all 0xFF). Trailing 0xFF bytes are dropped rather
// than wrapped, so the bound is exact.
func prefixSuccessor(prefix []byte) []byte {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] != 0xFF {
			succ := make([]byte, i+1)
			copy(succ, prefix[:i+1])
			succ[i]++
			return succ
		}
	}
	return nil
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hex.EncodeToString(b))
}
