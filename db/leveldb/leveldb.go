// Package leveldb is an alternative persistent Database backend built on
// syndtr/goleveldb, offered alongside pebbledb for operators who prefer
// LevelDB's on-disk format. It implements the same db.Database contract,
// following the get/iterate/batch shape of the pebbledb adaptation.
package leveldb

import (
	"bytes"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/meck93/mixnet/db"
)

// WriteTx implements db.WriteTx over a goleveldb batch, reading through to
// the underlying database for keys the batch has not touched yet.
type WriteTx struct {
	ldb     *leveldb.DB
	batch   *leveldb.Batch
	deleted map[string]bool
	pending map[string][]byte
}

var _ db.WriteTx = (*WriteTx)(nil)

func (tx *WriteTx) Get(k []byte) ([]byte, error) {
	key := string(k)
	if tx.deleted[key] {
		return nil, db.ErrKeyNotFound
	}
	if v, ok := tx.pending[key]; ok {
		return bytes.Clone(v), nil
	}
	v, err := tx.ldb.Get(k, nil)
	if errors.IsErrNotFound(err) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

func (tx *WriteTx) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	seen := make(map[string]bool)
	for k, v := range tx.pending {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		seen[k] = true
		if !callback([]byte(k), v) {
			return nil
		}
	}
	iter := tx.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		key := string(iter.Key())
		if seen[key] || tx.deleted[key] {
			continue
		}
		if !callback(bytes.Clone(iter.Key()), bytes.Clone(iter.Value())) {
			break
		}
	}
	return iter.Error()
}

func (tx *WriteTx) Set(k, v []byte) error {
	key := string(k)
	delete(tx.deleted, key)
	tx.pending[key] = bytes.Clone(v)
	tx.batch.Put(k, v)
	return nil
}

func (tx *WriteTx) Delete(k []byte) error {
	key := string(k)
	delete(tx.pending, key)
	tx.deleted[key] = true
	tx.batch.Delete(k)
	return nil
}

func (tx *WriteTx) Apply(other db.WriteTx) error {
	return other.Iterate(nil, func(k, v []byte) bool {
		return tx.Set(k, v) == nil
	})
}

func (tx *WriteTx) Commit() error {
	return tx.ldb.Write(tx.batch, nil)
}

func (tx *WriteTx) Discard() {
	tx.batch.Reset()
	tx.pending = map[string][]byte{}
	tx.deleted = map[string]bool{}
}

// DB is a goleveldb-backed db.Database.
type DB struct {
	ldb *leveldb.DB
}

var _ db.Database = (*DB)(nil)

// New opens (creating if necessary) a LevelDB store at opts.Path.
func New(opts db.Options) (*DB, error) {
	ldb, err := leveldb.OpenFile(opts.Path, nil)
	if err != nil {
		return nil, err
	}
	return &DB{ldb: ldb}, nil
}

func (d *DB) Get(k []byte) ([]byte, error) {
	v, err := d.ldb.Get(k, nil)
	if errors.IsErrNotFound(err) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

func (d *DB) Iterate(prefix []byte, callback func(k, v []byte) bool) error {
	iter := d.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !callback(bytes.Clone(iter.Key()), bytes.Clone(iter.Value())) {
			break
		}
	}
	return iter.Error()
}

func (d *DB) WriteTx() db.WriteTx {
	return &WriteTx{ldb: d.ldb, batch: new(leveldb.Batch), pending: map[string][]byte{}, deleted: map[string]bool{}}
}

func (d *DB) Compact() error {
	return d.ldb.CompactRange(util.Range{})
}

func (d *DB) Close() error { return d.ldb.Close() }
