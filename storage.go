package ordkv

// Store is the minimal capability interface the table layer requires from
// a backing ordered byte-keyed map: point reads/writes plus an ascending
// byte-lexicographic scan. Transactions, durability and locking are the
// wrapped store's own business; the only thing a scan must provide is a
// consistent, monotonically-ordered view for its own duration.
//
// Backing-store errors pass through unmodified; retry policy is
// store-specific and not decided here.
type Store interface {
	// Get retrieves a value by key. Returns nil, nil if not found.
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair, replacing any existing value.
	Put(key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Scan returns a lazy cursor over the given range, ascending by
	// byte-lexicographic key order (or descending if rang.Reverse).
	Scan(rang RawRange) (*RawCursor, error)

	// Close releases the store.
	Close() error
}

// storeCursor is the seek-style iteration capability each backend
// implements; RawRange drives it to produce a RawCursor.
type storeCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Last moves to the last key-value pair.
	Last() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// SeekLast moves to the last key that starts with prefix, or the last
	// key before the prefix's position if none do.
	SeekLast(prefix []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)

	// Prev moves to the previous key-value pair.
	Prev() (key, value []byte)

	// Close releases the cursor and whatever read view backs it.
	Close() error
}
