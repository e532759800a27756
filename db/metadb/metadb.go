// Package metadb selects a db.Database backend by name, so a sealer or
// authority node can be pointed at either persistent engine without the
// rest of the codebase depending on a concrete implementation. Adapted
// from the teacher repo's db/metadb dispatcher; the MongoDB backend it
// also dispatched to is dropped here since nothing in this protocol's
// storage layer needs a document database (see design notes).
package metadb

import (
	"cmp"
	"fmt"
	"os"
	"testing"

	"github.com/meck93/mixnet/db"
	"github.com/meck93/mixnet/db/inmemory"
	"github.com/meck93/mixnet/db/leveldb"
	"github.com/meck93/mixnet/db/pebbledb"
)

// New opens a Database of the given backend type at dir.
func New(typ, dir string) (db.Database, error) {
	switch typ {
	case db.TypePebble:
		return pebbledb.New(db.Options{Path: dir})
	case db.TypeLevelDB:
		return leveldb.New(db.Options{Path: dir})
	default:
		return nil, fmt.Errorf("metadb: invalid db type %q, available: %q, %q", typ, db.TypePebble, db.TypeLevelDB)
	}
}

// ForTest returns the backend type to use in tests, honoring the
// MIXNET_DB_TYPE environment variable and defaulting to an ephemeral
// in-memory store.
func ForTest() string {
	return cmp.Or(os.Getenv("MIXNET_DB_TYPE"), "memory")
}

// NewTest opens a Database appropriate for unit tests and registers its
// cleanup with tb.
func NewTest(tb testing.TB) db.Database {
	typ := ForTest()
	if typ == "memory" {
		database, err := inmemory.New(db.Options{})
		if err != nil {
			tb.Fatal(err)
		}
		return database
	}
	database, err := New(typ, tb.TempDir())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(func() {
		if err := database.Close(); err != nil {
			tb.Error(err)
		}
	})
	return database
}
