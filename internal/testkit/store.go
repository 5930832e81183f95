package testkit

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/quiverdb/quiver-go/types"
	"github.com/quiverdb/quiver-go/wire"
)

// Store is the fake server's property store, a pebble database on an
// in-memory filesystem. Handlers use it so that the effects of dependent
// queries are observable in the order the server executed them.
type Store struct {
	db *pebble.DB
}

func OpenStore() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(key string, v types.Value) error {
	data, err := wire.EncodeValue(v)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(key), data, pebble.Sync)
}

// Get returns the value stored under key, reporting whether it exists.
func (s *Store) Get(key string) (types.Value, bool, error) {
	data, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	buf := append([]byte(nil), data...)
	if err := closer.Close(); err != nil {
		return nil, false, err
	}
	v, err := wire.DecodeValue(buf)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Scan returns all entries whose key starts with prefix.
func (s *Store) Scan(prefix string) (map[string]types.Value, error) {
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "\xff"),
	})

	out := make(map[string]types.Value)
	for iter.First(); iter.Valid(); iter.Next() {
		buf := append([]byte(nil), iter.Value()...)
		v, err := wire.DecodeValue(buf)
		if err != nil {
			iter.Close()
			return nil, err
		}
		out[string(iter.Key())] = v
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanKeys returns the keys under prefix in lexicographic order.
func (s *Store) ScanKeys(prefix string) ([]string, error) {
	entries, err := s.Scan(prefix)
	if err != nil {
		return nil, err
	}
	keys := maps.Keys(entries)
	slices.Sort(keys)
	return keys, nil
}
