// Package db defines the append-only key-value store contract the state
// machine in package mixstate is built on: single-key reads, prefix scans,
// and atomic commit of every mutation performed by one protocol
// transition, per §6's host-services contract. Two backends are provided:
// an in-memory optimistic-concurrency store for tests, and persistent
// Pebble/LevelDB-backed stores for a real deployment.
//
// The shape (Database/WriteTx/Options, Get/Set/Delete/Iterate/Commit) is
// grounded on the teacher repo's storage layer, which is itself a thin,
// swappable abstraction over the same two engines.
package db

import "errors"

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("db: key not found")

// ErrConflict is returned by WriteTx.Commit when another transaction
// committed a conflicting write to a key this transaction read or wrote
// since the transaction began.
var ErrConflict = errors.New("db: write conflict")

// Database backend identifiers accepted by metadb.New.
const (
	TypePebble  = "pebble"
	TypeLevelDB = "leveldb"
)

// Options configures a Database backend. Path is ignored by backends that
// have no on-disk state.
type Options struct {
	Path string
}

// Database is the append-only key-value store a vote's state lives in.
// Reads outside a transaction see the latest committed state; all writes
// happen inside a WriteTx and become visible atomically on Commit.
type Database interface {
	Get(key []byte) ([]byte, error)
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
	WriteTx() WriteTx
	Compact() error
	Close() error
}

// WriteTx stages a set of mutations for atomic commit. Reads inside a
// transaction observe its own uncommitted writes layered over the last
// committed state.
type WriteTx interface {
	Get(key []byte) ([]byte, error)
	Iterate(prefix []byte, callback func(key, value []byte) bool) error
	Set(key, value []byte) error
	Delete(key []byte) error
	Apply(other WriteTx) error
	Commit() error
	Discard()
}
