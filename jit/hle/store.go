package hle

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
	"github.com/samber/lo"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var keyPrefix = []byte("hle/")

// Store is a FunctionMap persisted in LevelDB, keyed by the big-endian slot
// address so iteration runs in address order.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens or creates a store at path. An empty path opens an
// in-memory store.
func OpenStore(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", jiterrors.ErrHLEStore, path, err)
	}
	return &Store{db: db}, nil
}

func storeKey(addr uint64) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], addr)
	return key
}

// Lookup implements FunctionMap. Read errors are logged and reported as a miss.
func (s *Store) Lookup(addr uint64) (ir.HostFunctionID, bool) {
	data, err := s.db.Get(storeKey(addr), nil)
	if err == leveldb.ErrNotFound {
		return "", false
	}
	if err != nil {
		log.Warn(log.HLE, "Store.Lookup failed", "addr", fmt.Sprintf("%#x", addr), "err", err)
		return "", false
	}
	return ir.HostFunctionID(data), true
}

func (s *Store) Put(addr uint64, fn ir.HostFunctionID) error {
	if fn == "" {
		return fmt.Errorf("%w: empty function name for %#x", jiterrors.ErrHLEStore, addr)
	}
	return s.db.Put(storeKey(addr), []byte(fn), nil)
}

func (s *Store) Delete(addr uint64) error {
	return s.db.Delete(storeKey(addr), nil)
}

// Import writes every entry of m in one batch.
func (s *Store) Import(m Map) error {
	batch := new(leveldb.Batch)
	for _, e := range m.Entries() {
		if e.Function == "" {
			return fmt.Errorf("%w: empty function name for %#x", jiterrors.ErrHLEStore, e.Addr)
		}
		batch.Put(storeKey(e.Addr), []byte(e.Function))
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: import: %v", jiterrors.ErrHLEStore, err)
	}
	log.Debug(log.HLE, "Store.Import", "entries", batch.Len())
	return nil
}

// Entries returns every stored entry in address order.
func (s *Store) Entries() ([]Entry, error) {
	iter := s.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer iter.Release()

	var out []Entry
	for iter.Next() {
		key := iter.Key()
		if len(key) != len(keyPrefix)+8 {
			continue
		}
		out = append(out, Entry{
			Addr:     binary.BigEndian.Uint64(key[len(keyPrefix):]),
			Function: ir.HostFunctionID(string(iter.Value())),
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("%w: iterate: %v", jiterrors.ErrHLEStore, err)
	}
	return out, nil
}

// Snapshot copies the store into an in-memory Map.
func (s *Store) Snapshot() (Map, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(entries, func(e Entry) (uint64, ir.HostFunctionID) {
		return e.Addr, e.Function
	}), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
