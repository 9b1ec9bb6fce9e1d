package ordkv

import (
	"log/slog"
	"slices"
)

// Table combines a composite-key codec with a backing store, offering
// typed put/get/range operations over tuples. The backing store is
// injected at construction; Table adds no transactional or durability
// semantics of its own.
type Table struct {
	name   string
	codec  *Codec
	store  Store
	values ValueCodec
	logger *slog.Logger
}

type TableOption func(*Table)

// WithValueCodec overrides the default MsgPack value encoding.
func WithValueCodec(vc ValueCodec) TableOption {
	return func(t *Table) { t.values = vc }
}

// WithLogger sets the logger used for debug scan logging.
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) { t.logger = logger }
}

// NewTable builds a table over the given store with the given key schema.
func NewTable(name string, store Store, schema *Schema, opts ...TableOption) *Table {
	t := &Table{
		name:   name,
		codec:  NewCodec(schema),
		store:  store,
		values: MsgPackValue,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the table name used in error messages.
func (t *Table) Name() string { return t.name }

// Codec returns the table's composite-key codec.
func (t *Table) Codec() *Codec { return t.codec }

// Put stores value under the given key tuple, replacing any existing row.
func (t *Table) Put(key Tuple, value any) error {
	scratch := borrowKeyBytes()
	kb, err := t.codec.AppendFull(scratch, key)
	if err != nil {
		releaseKeyBytes(scratch)
		return tableErrf(t.name, nil, err, "put")
	}
	defer releaseKeyBytes(kb)
	vscratch := borrowValueBytes()
	vb, err := t.values.EncodeValue(vscratch, value)
	if err != nil {
		releaseValueBytes(vscratch)
		return tableErrf(t.name, slices.Clone(kb), err, "put")
	}
	defer releaseValueBytes(vb)
	if err := t.store.Put(kb, vb); err != nil {
		return tableErrf(t.name, slices.Clone(kb), err, "put")
	}
	return nil
}

// Get looks up the row with the given key tuple, decoding its value into
// ptr. Returns false if the row does not exist.
func (t *Table) Get(key Tuple, ptr any) (bool, error) {
	scratch := borrowKeyBytes()
	kb, err := t.codec.AppendFull(scratch, key)
	if err != nil {
		releaseKeyBytes(scratch)
		return false, tableErrf(t.name, nil, err, "get")
	}
	defer releaseKeyBytes(kb)
	data, err := t.store.Get(kb)
	if err != nil {
		return false, tableErrf(t.name, slices.Clone(kb), err, "get")
	}
	if data == nil {
		return false, nil
	}
	if err := t.values.DecodeValue(data, ptr); err != nil {
		return false, tableErrf(t.name, slices.Clone(kb), err, "get")
	}
	return true, nil
}

// Delete removes the row with the given key tuple, if present.
func (t *Table) Delete(key Tuple) error {
	scratch := borrowKeyBytes()
	kb, err := t.codec.AppendFull(scratch, key)
	if err != nil {
		releaseKeyBytes(scratch)
		return tableErrf(t.name, nil, err, "delete")
	}
	defer releaseKeyBytes(kb)
	if err := t.store.Delete(kb); err != nil {
		return tableErrf(t.name, slices.Clone(kb), err, "delete")
	}
	return nil
}

// Scan iterates the given raw range, decoding keys back into tuples.
func (t *Table) Scan(rang RawRange) (*Rows, error) {
	cur, err := t.store.Scan(rang)
	if err != nil {
		return nil, tableErrf(t.name, nil, err, "scan")
	}
	return &Rows{tbl: t, cur: cur}, nil
}

// All iterates every row in key order.
func (t *Table) All() (*Rows, error) {
	return t.Scan(RawOO())
}

// Prefix iterates exactly the rows whose leading key fields equal the
// partial tuple.
func (t *Table) Prefix(partial Tuple) (*Rows, error) {
	rang, err := t.codec.PrefixRange(partial)
	if err != nil {
		return nil, tableErrf(t.name, nil, err, "prefix scan")
	}
	return t.Scan(rang)
}

// StartsWith iterates the rows whose leading key fields equal
// partial[:len-1] and whose next field starts with the last element.
func (t *Table) StartsWith(partial Tuple) (*Rows, error) {
	rang, err := t.codec.StartsWithRange(partial)
	if err != nil {
		return nil, tableErrf(t.name, nil, err, "starts-with scan")
	}
	return t.Scan(rang)
}

// Between iterates the rows between two partial key tuples. An inclusive
// bound covers every row whose leading fields equal the bound tuple (for a
// full tuple, exactly its own row); an exclusive bound covers none of
// them. Nil/empty bounds are open.
func (t *Table) Between(lower, upper Tuple, lowerInc, upperInc bool) (*Rows, error) {
	var rang RawRange
	arity := t.codec.schema.Len()
	if len(lower) > 0 {
		lb, err := t.codec.EncodePrefix(lower)
		if err != nil {
			return nil, tableErrf(t.name, nil, err, "range scan")
		}
		switch {
		case lowerInc:
			rang.Lower, rang.LowerInc = lb, true
		case len(lower) == arity:
			// A full tuple excludes only its exact key. With a greedy last
			// field other keys may extend lb, and those sort from lb+0x00
			// on; successor normalization would skip them.
			rang.Lower, rang.LowerInc = appendByte(lb, 0), true
		default:
			succ := prefixSuccessor(lb)
			if succ == nil {
				return &Rows{tbl: t, done: true}, nil
			}
			rang.Lower, rang.LowerInc = succ, true
		}
	}
	if len(upper) > 0 {
		ub, err := t.codec.EncodePrefix(upper)
		if err != nil {
			return nil, tableErrf(t.name, nil, err, "range scan")
		}
		switch {
		case !upperInc:
			rang.Upper, rang.UpperInc = ub, false
		case len(upper) == arity:
			// A full tuple covers exactly its own key; a successor bound
			// would pull in keys extending a greedy last field.
			rang.Upper, rang.UpperInc = ub, true
		default:
			// Cover every row whose leading fields equal the bound; an
			// all-0xFF bound has no successor and stays open-ended.
			if succ := prefixSuccessor(ub); succ != nil {
				rang.Upper, rang.UpperInc = succ, false
			}
		}
	}
	return t.Scan(rang)
}

// Rows lazily iterates scan results, decoding each key back into its
// tuple. Any key or value decode error aborts the sequence: a corrupted
// or foreign key in the table's keyspace is a hard error, not a skipped
// row, because silent skipping would hide data loss.
type Rows struct {
	tbl  *Table
	cur  *RawCursor
	key  Tuple
	err  error
	done bool
}

// Next advances to the next row. It returns false when the range is
// exhausted or an error occurred; check Err afterwards.
func (r *Rows) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	if !r.cur.Next() {
		r.done = true
		return false
	}
	key, err := r.tbl.codec.DecodeFull(r.cur.Key())
	if err != nil {
		r.err = tableErrf(r.tbl.name, slices.Clone(r.cur.Key()), err, "scan")
		r.done = true
		return false
	}
	r.key = key
	return true
}

// Key returns the current row's key tuple.
func (r *Rows) Key() Tuple { return r.key }

// RawKey returns the current row's composite key bytes, valid until the
// next call to Next.
func (r *Rows) RawKey() []byte { return r.cur.Key() }

// RawValue returns the current row's raw value bytes, valid until the
// next call to Next.
func (r *Rows) RawValue() []byte { return r.cur.Value() }

// Value decodes the current row's value into ptr. A decode failure also
// aborts the iteration.
func (r *Rows) Value(ptr any) error {
	err := r.tbl.values.DecodeValue(r.cur.Value(), ptr)
	if err != nil {
		r.err = tableErrf(r.tbl.name, slices.Clone(r.cur.Key()), err, "scan value")
		r.done = true
		return r.err
	}
	return nil
}

// Err returns the first error encountered during iteration, if any.
func (r *Rows) Err() error { return r.err }

// Close releases the scan's read view. Safe to call multiple times.
func (r *Rows) Close() error {
	if r.cur == nil {
		return nil
	}
	cur := r.cur
	r.cur = nil
	r.done = true
	return cur.Close()
}
