package ordkv

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestPrefixSuccessor(t *testing.T) {
	tests := []struct {
		prefix, succ string
	}{
		{"", ""},
		{"00", "01"},
		{"61", "62"},
		{"6162", "6163"},
		{"61ff", "62"},
		{"61ffff", "62"},
		{"ff", ""},
		{"ffffff", ""},
		{"00ff", "01"},
		{"fe", "ff"},
	}
	for _, test := range tests {
		prefix := must(hex.DecodeString(test.prefix))
		succ := prefixSuccessor(prefix)
		if test.succ == "" {
			if succ != nil {
				t.Errorf("** prefixSuccessor(%s) = %x, wanted nil", test.prefix, succ)
			}
			continue
		}
		if got := hex.EncodeToString(succ); got != test.succ {
			t.Errorf("** prefixSuccessor(%s) = %s, wanted %s", test.prefix, got, test.succ)
		}
		// The successor must be greater than any extension of the prefix.
		ext := append(bytes.Clone(prefix), 0xFF, 0xFF)
		if bytes.Compare(succ, ext) <= 0 {
			t.Errorf("** prefixSuccessor(%s) = %x does not exceed extension %x", test.prefix, succ, ext)
		}
	}
}

func TestGrowPreservesContents(t *testing.T) {
	buf := []byte("abc")
	off, buf := grow(buf, 5)
	if off != 3 || len(buf) != 8 {
		t.Fatalf("** grow = (%d, len %d)", off, len(buf))
	}
	if string(buf[:3]) != "abc" {
		t.Errorf("** grow clobbered prefix: %q", buf[:3])
	}
}

func TestAppendHelpers(t *testing.T) {
	buf := appendByte(nil, 0x01)
	buf = appendRaw(buf, []byte{0x02, 0x03})
	if !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Errorf("** buf = %x", buf)
	}
}
