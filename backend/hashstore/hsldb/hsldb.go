// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hsldb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"github.com/libswift/swift-go/backend"
	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"k8s.io/klog/v2"
)

// HashStorage keeps the hashes of a tree in LevelDB. Several trees may share
// one database, each using its own namespace, usually its root hash.
type HashStorage struct {
	db        backend.LevelDB
	owned     *backend.LevelDbMemoryFootprintWrapper
	namespace common.Hash
	entries   uint64
	closed    bool
}

// OpenHashStorage opens the storage of the given namespace in a shared
// database. The database is not closed when the storage is closed.
func OpenHashStorage(db backend.LevelDB, namespace common.Hash) (*HashStorage, error) {
	res := &HashStorage{db: db, namespace: namespace}
	if err := res.loadCapacity(); err != nil {
		return nil, err
	}
	return res, nil
}

// OpenHashStorageAt opens a database at the given path used exclusively by
// this storage. The database is closed together with the storage.
func OpenHashStorageAt(path string, namespace common.Hash) (*HashStorage, error) {
	db, err := backend.OpenLevelDb(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash database: %w", err)
	}
	res := &HashStorage{db: db, owned: db, namespace: namespace}
	if err := res.loadCapacity(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return res, nil
}

func (s *HashStorage) capacityKey() backend.DbKey {
	return backend.ToDBKey(backend.CapacityKey, s.namespace, 0)
}

func (s *HashStorage) loadCapacity() error {
	data, err := s.db.Get(s.capacityKey().ToBytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load capacity: %w", err)
	}
	if len(data) != 8 {
		return fmt.Errorf("invalid capacity entry of length %d", len(data))
	}
	s.entries = binary.BigEndian.Uint64(data)
	return nil
}

func (s *HashStorage) SetCapacity(leafCount uint64) error {
	if s.closed {
		return hashstore.ErrInvalidStorage
	}
	entries := hashstore.Entries(leafCount)
	batch := new(leveldb.Batch)
	if entries < s.entries {
		// Drop all hashes beyond the new limit.
		iter := s.db.NewIterator(&util.Range{
			Start: backend.ToDBKey(backend.HashKey, s.namespace, entries).ToBytes(),
			Limit: util.BytesPrefix(backend.NamespacePrefix(backend.HashKey, s.namespace)).Limit,
		}, nil)
		for iter.Next() {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return fmt.Errorf("failed to iterate dropped hashes: %w", err)
		}
	}
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], entries)
	batch.Put(s.capacityKey().ToBytes(), value[:])
	if err := s.db.Write(batch, nil); err != nil {
		klog.Errorf("failed to resize hash storage %v to %d leaves: %v", s.namespace, leafCount, err)
		return fmt.Errorf("failed to update capacity: %w", err)
	}
	s.entries = entries
	return nil
}

// Capacity returns the number of leaves the storage has room for.
func (s *HashStorage) Capacity() uint64 {
	return s.entries / 2
}

func (s *HashStorage) Get(b bin.Bin) common.Hash {
	if s.closed || uint64(b) >= s.entries {
		return common.ZeroHash
	}
	data, err := s.db.Get(backend.ToDBKey(backend.HashKey, s.namespace, uint64(b)).ToBytes(), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			klog.Errorf("failed to read hash of %v: %v", b, err)
		}
		return common.ZeroHash
	}
	hash, err := common.HashFromBytes(data)
	if err != nil {
		klog.Errorf("corrupted hash of %v: %v", b, err)
		return common.ZeroHash
	}
	return hash
}

func (s *HashStorage) Set(b bin.Bin, hash common.Hash) error {
	if s.closed {
		return hashstore.ErrInvalidStorage
	}
	if uint64(b) >= s.entries {
		return hashstore.ErrOutOfRange
	}
	key := backend.ToDBKey(backend.HashKey, s.namespace, uint64(b))
	if hash.IsZero() {
		return s.db.Delete(key.ToBytes(), nil)
	}
	return s.db.Put(key.ToBytes(), hash[:], nil)
}

func (s *HashStorage) Valid() bool {
	return !s.closed
}

func (s *HashStorage) Flush() error {
	return nil
}

func (s *HashStorage) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}

func (s *HashStorage) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	if s.owned != nil && !s.closed {
		mf.AddChild("levelDb", s.owned.GetMemoryFootprint())
	}
	return mf
}
