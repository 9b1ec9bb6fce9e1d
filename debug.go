package ordkv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpRows
	DumpRawKeys

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the table's contents for debugging: one line per row with
// the decoded key tuple and the hex of the raw value. Not meant for large
// tables.
func (t *Table) Dump(f DumpFlags) (string, error) {
	var buf strings.Builder
	rows, err := t.All()
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var n int
	var body strings.Builder
	for rows.Next() {
		n++
		if f.Contains(DumpRows) {
			fmt.Fprintf(&body, "%s = %x\n", t.codec.KeyString(rows.RawKey()), rows.RawValue())
		}
		if f.Contains(DumpRawKeys) {
			fmt.Fprintf(&body, "  raw %s\n", hex.EncodeToString(rows.RawKey()))
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if f.Contains(DumpHeader) {
		fmt.Fprintln(&buf, dumpSep)
		fmt.Fprintf(&buf, "%s (%d rows)\n", t.name, n)
	}
	buf.WriteString(body.String())
	return buf.String(), nil
}
