package ordkv

import (
	"strings"
	"testing"
)

func TestTableDump(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)

	out := must(tbl.Dump(DumpAll))
	if !strings.Contains(out, "fruits (5 rows)") {
		t.Errorf("** dump header missing:\n%s", out)
	}
	for _, part := range []string{"apple|5", "applesauce|1", "cherry|2"} {
		if !strings.Contains(out, part) {
			t.Errorf("** dump lacks %q:\n%s", part, out)
		}
	}

	out = must(tbl.Dump(DumpHeader))
	if strings.Contains(out, "apple|5") {
		t.Errorf("** header-only dump contains rows:\n%s", out)
	}
}
