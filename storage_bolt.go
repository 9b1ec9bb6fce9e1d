package ordkv

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"go.etcd.io/bbolt"
)

type boltStore struct {
	bdb    *bbolt.DB
	bucket []byte
	logger *slog.Logger
	owned  bool
}

// OpenBolt opens (creating if necessary) a Bolt database file and returns
// a Store over the named bucket within it. Close closes the file.
func OpenBolt(path string, mode os.FileMode, bucket string) (Store, error) {
	bdb, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, err
	}
	st, err := NewBoltStore(bdb, bucket)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	st.(*boltStore).owned = true
	return st, nil
}

// NewBoltStore wraps an existing Bolt handle as a Store over the named
// bucket, creating the bucket if missing. Close leaves the handle open;
// the caller owns it.
func NewBoltStore(bdb *bbolt.DB, bucket string) (Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("ordkv: bucket name must not be empty")
	}
	name := []byte(bucket)
	err := bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &boltStore{bdb: bdb, bucket: name, logger: slog.Default()}, nil
}

func (s *boltStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		v := btx.Bucket(s.bucket).Get(key)
		if v != nil {
			// Bolt values are only valid for the duration of the tx.
			value = slices.Clone(v)
		}
		return nil
	})
	return value, err
}

func (s *boltStore) Put(key, value []byte) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(s.bucket).Put(key, value)
	})
}

func (s *boltStore) Delete(key []byte) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		return btx.Bucket(s.bucket).Delete(key)
	})
}

func (s *boltStore) Scan(rang RawRange) (*RawCursor, error) {
	btx, err := s.bdb.Begin(false)
	if err != nil {
		return nil, err
	}
	b := btx.Bucket(s.bucket)
	if b == nil {
		btx.Rollback()
		return nil, fmt.Errorf("ordkv: bucket %q is gone", s.bucket)
	}
	return rang.newCursor(&boltCursor{btx: btx, c: b.Cursor()}, s.logger), nil
}

func (s *boltStore) Close() error {
	if s.owned {
		return s.bdb.Close()
	}
	return nil
}

type boltCursor struct {
	btx *bbolt.Tx
	c   *bbolt.Cursor
}

func (c *boltCursor) First() ([]byte, []byte) { return c.c.First() }

func (c *boltCursor) Last() ([]byte, []byte) { return c.c.Last() }

func (c *boltCursor) Seek(seek []byte) ([]byte, []byte) { return c.c.Seek(seek) }

func (c *boltCursor) SeekLast(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.c.Last()
	}

	limit := prefixSuccessor(prefix)
	if limit == nil {
		// All-0xFF prefix: matching keys, if any, are the maximal ones.
		return c.c.Last()
	}
	k, _ := c.c.Seek(limit)
	if k == nil {
		return c.c.Last()
	}
	return c.c.Prev()
}

func (c *boltCursor) Next() ([]byte, []byte) { return c.c.Next() }

func (c *boltCursor) Prev() ([]byte, []byte) { return c.c.Prev() }

func (c *boltCursor) Close() error {
	err := c.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}
