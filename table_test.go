package ordkv

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

type fruitRow struct {
	Color string `msgpack:"c"`
	Ripe  bool   `msgpack:"r"`
}

func newFruitTable(t *testing.T, opts ...TableOption) *Table {
	t.Helper()
	store := NewMemStore()
	t.Cleanup(func() { store.Close() })
	return NewTable("fruits", store, NewSchema(String, Uint32), opts...)
}

func seedFruits(t *testing.T, tbl *Table) {
	t.Helper()
	for _, row := range []struct {
		name string
		n    uint32
	}{
		{"banana", 1},
		{"apple", 5},
		{"applesauce", 1},
		{"apple", 6},
		{"cherry", 2},
	} {
		ensure(tbl.Put(Tuple{row.name, row.n}, fruitRow{Color: row.name, Ripe: row.n%2 == 0}))
	}
}

func collectRowKeys(rows *Rows, err error) []string {
	ensure(err)
	var keys []string
	for rows.Next() {
		parts := make([]string, len(rows.Key()))
		for i, v := range rows.Key() {
			parts[i] = fmt.Sprint(v)
		}
		keys = append(keys, strings.Join(parts, "/"))
	}
	ensure(rows.Err())
	ensure(rows.Close())
	return keys
}

func TestTablePutGetDelete(t *testing.T) {
	tbl := newFruitTable(t)
	key := Tuple{"apple", uint32(5)}

	var row fruitRow
	if found := must(tbl.Get(key, &row)); found {
		t.Fatalf("** Get before Put found a row")
	}
	ensure(tbl.Put(key, fruitRow{Color: "red", Ripe: true}))
	if found := must(tbl.Get(key, &row)); !found || row.Color != "red" || !row.Ripe {
		t.Errorf("** Get = %v, %+v", found, row)
	}

	ensure(tbl.Put(key, fruitRow{Color: "green"}))
	if found := must(tbl.Get(key, &row)); !found || row.Color != "green" || row.Ripe {
		t.Errorf("** Get after overwrite = %v, %+v", found, row)
	}

	ensure(tbl.Delete(key))
	ensure(tbl.Delete(key))
	if found := must(tbl.Get(key, &row)); found {
		t.Errorf("** Get after delete found a row")
	}
}

func TestTableAllOrder(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)
	keys := collectRowKeys(tbl.All())
	want := "[apple/5 apple/6 applesauce/1 banana/1 cherry/2]"
	if fmt.Sprint(keys) != want {
		t.Errorf("** All = %v, wanted %v", keys, want)
	}
}

func TestTablePrefixExactness(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)

	keys := collectRowKeys(tbl.Prefix(Tuple{"apple"}))
	if fmt.Sprint(keys) != "[apple/5 apple/6]" {
		t.Errorf("** Prefix(apple) = %v; applesauce must not leak in", keys)
	}

	keys = collectRowKeys(tbl.Prefix(Tuple{"apple", uint32(6)}))
	if fmt.Sprint(keys) != "[apple/6]" {
		t.Errorf("** full-arity Prefix = %v", keys)
	}

	keys = collectRowKeys(tbl.Prefix(Tuple{"kiwi"}))
	if len(keys) != 0 {
		t.Errorf("** Prefix(kiwi) = %v, wanted none", keys)
	}
}

func TestTableStartsWith(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)

	keys := collectRowKeys(tbl.StartsWith(Tuple{"apple"}))
	if fmt.Sprint(keys) != "[apple/5 apple/6 applesauce/1]" {
		t.Errorf("** StartsWith(apple) = %v", keys)
	}
	keys = collectRowKeys(tbl.StartsWith(Tuple{"apples"}))
	if fmt.Sprint(keys) != "[applesauce/1]" {
		t.Errorf("** StartsWith(apples) = %v", keys)
	}
}

func TestTableBetween(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)

	tests := []struct {
		lower, upper       Tuple
		lowerInc, upperInc bool
		keys               string
	}{
		{Tuple{"apple"}, Tuple{"banana"}, true, true, "[apple/5 apple/6 applesauce/1 banana/1]"},
		{Tuple{"apple"}, Tuple{"banana"}, true, false, "[apple/5 apple/6 applesauce/1]"},
		{Tuple{"apple"}, Tuple{"banana"}, false, true, "[applesauce/1 banana/1]"},
		{Tuple{"apple"}, nil, false, false, "[applesauce/1 banana/1 cherry/2]"},
		{nil, Tuple{"apple"}, false, true, "[apple/5 apple/6]"},
		{Tuple{"apple", uint32(6)}, Tuple{"banana", uint32(1)}, true, true, "[apple/6 applesauce/1 banana/1]"},
	}
	for _, test := range tests {
		keys := collectRowKeys(tbl.Between(test.lower, test.upper, test.lowerInc, test.upperInc))
		if fmt.Sprint(keys) != test.keys {
			t.Errorf("** Between(%v, %v, %v, %v) = %v, wanted %v",
				test.lower, test.upper, test.lowerInc, test.upperInc, keys, test.keys)
		}
	}

	// Rows strictly between the bounds are always in range; pinning down
	// applesauce requires bounds on its own tuple.
	keys := collectRowKeys(tbl.Between(Tuple{"applesauce"}, Tuple{"applesauce"}, true, true))
	if fmt.Sprint(keys) != "[applesauce/1]" {
		t.Errorf("** Between(applesauce, applesauce) = %v", keys)
	}
}

func TestTableBetweenGreedyLastField(t *testing.T) {
	store := NewMemStore()
	defer store.Close()
	tbl := NewTable("names", store, NewSchema(String))
	for _, k := range []string{"a", "ab", "b"} {
		ensure(tbl.Put(Tuple{k}, fruitRow{Color: k}))
	}

	// With a single greedy field, "a" is a byte-prefix of "ab"; full-arity
	// bounds must still cover exactly their own row.
	tests := []struct {
		lower, upper       Tuple
		lowerInc, upperInc bool
		keys               string
	}{
		{nil, Tuple{"a"}, false, true, "[a]"},
		{Tuple{"a"}, nil, false, false, "[ab b]"},
		{Tuple{"a"}, Tuple{"ab"}, true, true, "[a ab]"},
		{Tuple{"a"}, Tuple{"b"}, false, false, "[ab]"},
		{Tuple{"a"}, Tuple{"a"}, true, true, "[a]"},
	}
	for _, test := range tests {
		keys := collectRowKeys(tbl.Between(test.lower, test.upper, test.lowerInc, test.upperInc))
		if fmt.Sprint(keys) != test.keys {
			t.Errorf("** Between(%v, %v, %v, %v) = %v, wanted %v",
				test.lower, test.upper, test.lowerInc, test.upperInc, keys, test.keys)
		}
	}
}

func TestTableOperationErrors(t *testing.T) {
	tbl := newFruitTable(t, WithValueCodec(RawValue))
	var se *SchemaError

	if err := tbl.Put(Tuple{"only"}, []byte("v")); !errors.As(err, &se) {
		t.Errorf("** Put with short tuple: err = %v", err)
	}
	if err := tbl.Put(Tuple{"a", uint32(1)}, "not bytes"); err == nil {
		t.Errorf("** Put with a bad value succeeded")
	}
	var buf []byte
	if _, err := tbl.Get(Tuple{"only"}, &buf); !errors.As(err, &se) {
		t.Errorf("** Get with short tuple: err = %v", err)
	}
	if err := tbl.Delete(Tuple{"only"}); !errors.As(err, &se) {
		t.Errorf("** Delete with short tuple: err = %v", err)
	}
}

func TestTableScanReverse(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)
	keys := collectRowKeys(tbl.Scan(RawOO().Reversed()))
	want := "[cherry/2 banana/1 applesauce/1 apple/6 apple/5]"
	if fmt.Sprint(keys) != want {
		t.Errorf("** reverse scan = %v, wanted %v", keys, want)
	}
}

func TestTableRowValues(t *testing.T) {
	tbl := newFruitTable(t)
	seedFruits(t, tbl)
	rows := must(tbl.Prefix(Tuple{"apple"}))
	defer rows.Close()
	for rows.Next() {
		var row fruitRow
		ensure(rows.Value(&row))
		if row.Color != "apple" {
			t.Errorf("** row %v has color %q", rows.Key(), row.Color)
		}
		if len(rows.RawKey()) == 0 || len(rows.RawValue()) == 0 {
			t.Errorf("** row %v has empty raw key/value", rows.Key())
		}
	}
	ensure(rows.Err())
}

func TestTableForeignKeyAbortsScan(t *testing.T) {
	store := NewMemStore()
	defer store.Close()
	tbl := NewTable("fruits", store, NewSchema(String, Uint32))
	ensure(tbl.Put(Tuple{"apple", uint32(5)}, fruitRow{}))

	// A key that never came out of this codec: no terminator, no fixed tail.
	ensure(store.Put([]byte{0xFF}, []byte("junk")))

	rows := must(tbl.All())
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	err := rows.Err()
	if err == nil {
		t.Fatalf("** scan over a foreign key succeeded (%d rows)", n)
	}
	var te *TableError
	if !errors.As(err, &te) || te.Table != "fruits" {
		t.Errorf("** err = %v, wanted a TableError for fruits", err)
	}
	if !errors.Is(err, ErrMissingTerminator) {
		t.Errorf("** err = %v, wanted ErrMissingTerminator", err)
	}
	if rows.Next() {
		t.Errorf("** Next kept going after a decode error")
	}
}

func TestTableCorruptValue(t *testing.T) {
	store := NewMemStore()
	defer store.Close()
	tbl := NewTable("fruits", store, NewSchema(String, Uint32),
		WithValueCodec(Checksummed(MsgPackValue)))
	key := Tuple{"apple", uint32(5)}
	ensure(tbl.Put(key, fruitRow{Color: "red"}))

	var row fruitRow
	if found := must(tbl.Get(key, &row)); !found || row.Color != "red" {
		t.Fatalf("** Get = %v, %+v", found, row)
	}

	kb := must(tbl.Codec().EncodeFull(key))
	data := must(store.Get(kb))
	data[len(data)-1] ^= 0x01
	ensure(store.Put(kb, data))

	if _, err := tbl.Get(key, &row); !errors.Is(err, ErrChecksum) {
		t.Errorf("** Get of corrupt value: err = %v, wanted ErrChecksum", err)
	}

	rows := must(tbl.All())
	defer rows.Close()
	if !rows.Next() {
		t.Fatalf("** scan lost the row")
	}
	if err := rows.Value(&row); !errors.Is(err, ErrChecksum) {
		t.Errorf("** Value of corrupt row: err = %v, wanted ErrChecksum", err)
	}
	if rows.Next() {
		t.Errorf("** Next kept going after a value decode error")
	}
}

func TestTableValueCodecStacks(t *testing.T) {
	for _, typ := range []CompressionType{SnappyCompression, ZstdCompression} {
		t.Run(typ.String(), func(t *testing.T) {
			tbl := newFruitTable(t, WithValueCodec(Checksummed(Compressed(MsgPackValue, typ))))
			key := Tuple{"apple", uint32(5)}
			ensure(tbl.Put(key, fruitRow{Color: "red", Ripe: true}))
			var row fruitRow
			if found := must(tbl.Get(key, &row)); !found || row.Color != "red" || !row.Ripe {
				t.Errorf("** Get = %v, %+v", found, row)
			}
		})
	}
}

func TestTableOnBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := must(OpenBolt(path, 0o600, "fruits"))
	defer store.Close()

	tbl := NewTable("fruits", store, NewSchema(String, Uint32))
	seedFruits(t, tbl)

	keys := collectRowKeys(tbl.Prefix(Tuple{"apple"}))
	if fmt.Sprint(keys) != "[apple/5 apple/6]" {
		t.Errorf("** Prefix(apple) over bolt = %v", keys)
	}

	var row fruitRow
	if found := must(tbl.Get(Tuple{"cherry", uint32(2)}, &row)); !found || !row.Ripe {
		t.Errorf("** Get over bolt = %v, %+v", found, row)
	}
}
