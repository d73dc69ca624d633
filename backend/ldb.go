// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

import (
	"encoding/binary"
	"fmt"

	"github.com/libswift/swift-go/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TableSpace divides the key space of a shared LevelDB instance.
type TableSpace byte

const (
	// HashKey is a tablespace for the node hashes of hash trees
	HashKey TableSpace = 'H'
	// CapacityKey is a tablespace for the leaf capacity of hash trees
	CapacityKey TableSpace = 'C'
)

// DbKeyLength is the length of keys produced by ToDBKey.
const DbKeyLength = 1 + common.HashLength + 8

// DbKey addresses an entry of a tree within a tablespace. It consists of the
// tablespace byte, the namespace of the tree and a big-endian position.
type DbKey [DbKeyLength]byte

func (d DbKey) ToBytes() []byte {
	return d[:]
}

// ToDBKey builds the key of the entry at the given position in the given
// namespace and tablespace. Keys of the same namespace and tablespace are
// ordered by position.
func ToDBKey(t TableSpace, namespace common.Hash, position uint64) DbKey {
	var dbKey DbKey
	dbKey[0] = byte(t)
	copy(dbKey[1:], namespace[:])
	binary.BigEndian.PutUint64(dbKey[1+common.HashLength:], position)
	return dbKey
}

// NamespacePrefix returns the common prefix of all keys of a namespace in a
// tablespace.
func NamespacePrefix(t TableSpace, namespace common.Hash) []byte {
	res := make([]byte, 0, 1+common.HashLength)
	res = append(res, byte(t))
	return append(res, namespace[:]...)
}

// LevelDB is the subset of LevelDB operations used by the backends. It is
// satisfied by *leveldb.DB and by the wrapper returned by OpenLevelDb.
type LevelDB interface {
	// Get gets the value for the given key. It returns leveldb.ErrNotFound if
	// the DB does not contain the key.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Put sets the value for the given key.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// NewIterator returns an iterator over the given key range of the latest
	// snapshot. The iterator must be released after use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator

	// Write applies the given batch atomically.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}

// OpenLevelDb opens a LevelDB instance at the given path and wraps it to
// report its memory usage.
func OpenLevelDb(path string, options *opt.Options) (*LevelDbMemoryFootprintWrapper, error) {
	ldb, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, err
	}
	mf := common.NewMemoryFootprint(0)
	mf.AddChild("writeBuffer", common.NewMemoryFootprint(uintptr(options.GetWriteBuffer())))
	return &LevelDbMemoryFootprintWrapper{ldb, mf}, nil
}

type LevelDbMemoryFootprintWrapper struct {
	*leveldb.DB
	mf *common.MemoryFootprint
}

func (wrapper *LevelDbMemoryFootprintWrapper) GetMemoryFootprint() *common.MemoryFootprint {
	var ldbStats leveldb.DBStats
	if err := wrapper.DB.Stats(&ldbStats); err != nil {
		panic(fmt.Errorf("failed to get LevelDB Stats: %w", err))
	}
	wrapper.mf.AddChild("blockCache", common.NewMemoryFootprint(uintptr(ldbStats.BlockCacheSize)))
	return wrapper.mf
}
