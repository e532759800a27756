// Package pebbledb is the persistent Database backend for a production
// sealer or authority node, built on cockroachdb/pebble. Adapted from the
// teacher repo's db/pebbledb package onto this module's own db.Database
// contract.
package pebbledb

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"github.com/meck93/mixnet/db"
)

// WriteTx implements db.WriteTx over a Pebble indexed batch.
type WriteTx struct {
	batch *pebble.Batch
}

var _ db.WriteTx = (*WriteTx)(nil)

func get(reader pebble.Reader, k []byte) ([]byte, error) {
	v, closer, err := reader.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	out := bytes.Clone(v)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func iterate(reader pebble.Reader, prefix []byte, callback func(k, v []byte) bool) (err error) {
	iterOptions := &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	}
	iter, err := reader.NewIter(iterOptions)
	if err != nil {
		return err
	}
	defer func() {
		errC := iter.Close()
		if err == nil {
			err = errC
		}
	}()
	for iter.First(); iter.Valid(); iter.Next() {
		if cont := callback(bytes.Clone(iter.Key()), bytes.Clone(iter.Value())); !cont {
			break
		}
	}
	return iter.Error()
}

func (tx *WriteTx) Get(k []byte) ([]byte, error) { return get(tx.batch, k) }

func (tx *WriteTx) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	return iterate(tx.batch, prefix, callback)
}

func (tx *WriteTx) Set(k, v []byte) error { return tx.batch.Set(k, v, nil) }

func (tx *WriteTx) Delete(k []byte) error { return tx.batch.Delete(k, nil) }

// Apply replays every key-value pair visible in other into tx.
func (tx *WriteTx) Apply(other db.WriteTx) error {
	return other.Iterate(nil, func(k, v []byte) bool {
		return tx.Set(k, v) == nil
	})
}

func (tx *WriteTx) Commit() error {
	if tx.batch == nil {
		return fmt.Errorf("pebbledb: cannot commit: already committed or discarded")
	}
	err := tx.batch.Commit(nil)
	tx.batch = nil
	return err
}

func (tx *WriteTx) Discard() {
	if tx.batch == nil {
		return
	}
	_ = tx.batch.Close()
	tx.batch = nil
}

// DB is a pebble-backed db.Database.
type DB struct {
	pebble *pebble.DB
}

var _ db.Database = (*DB)(nil)

// New opens (creating if necessary) a Pebble store at opts.Path.
func New(opts db.Options) (*DB, error) {
	if err := os.MkdirAll(opts.Path, os.ModePerm); err != nil {
		return nil, err
	}
	o := &pebble.Options{
		Levels: []pebble.LevelOptions{{Compression: pebble.SnappyCompression}},
	}
	p, err := pebble.Open(opts.Path, o)
	if err != nil {
		return nil, err
	}
	return &DB{pebble: p}, nil
}

func (d *DB) Get(k []byte) ([]byte, error) { return get(d.pebble, k) }

func (d *DB) WriteTx() db.WriteTx {
	return &WriteTx{batch: d.pebble.NewIndexedBatch()}
}

func (d *DB) Close() error { return d.pebble.Close() }

func (d *DB) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	return iterate(d.pebble, prefix, callback)
}

// Compact rewrites the whole key range to reclaim space after bulk deletes
// (e.g. pruning tallied votes).
func (d *DB) Compact() error {
	iter, err := d.pebble.NewIter(nil)
	if err != nil {
		return err
	}
	var first, last []byte
	if iter.First() {
		first = bytes.Clone(iter.Key())
	}
	if iter.Last() {
		last = bytes.Clone(iter.Key())
	}
	if err := iter.Close(); err != nil {
		return err
	}
	return d.pebble.Compact(first, last, true)
}

func keyUpperBound(b []byte) []byte {
	end := bytes.Clone(b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
