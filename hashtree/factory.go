// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hashtree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/libswift/swift-go/backend"
	"github.com/libswift/swift-go/backend/datastore"
	"github.com/libswift/swift-go/backend/datastore/dsfile"
	"github.com/libswift/swift-go/backend/datastore/dsoffset"
	"github.com/libswift/swift-go/backend/hashstore/hsfile"
	"github.com/libswift/swift-go/backend/hashstore/hsldb"
	"github.com/libswift/swift-go/common"
)

// HashFileSuffix is appended to the path of a content file to obtain the path
// of the file holding its hashes.
const HashFileSuffix = ".mhash"

// Factory opens hash trees for content identified by a path.
type Factory interface {
	Open(path string, root common.Hash) (*HashTree, error)
	// RemoveState deletes the hashes stored for the content at the given
	// path. The tree of the content must not be open.
	RemoveState(path string) error
	// Close releases resources shared by the trees of the factory. Trees
	// opened by the factory have to be closed before.
	Close() error
}

// FileHashTreeFactory opens trees over content files, keeping the hashes in
// a file next to the content.
type FileHashTreeFactory struct {
	config Config
}

// CreateFileHashTreeFactory creates a factory for file based trees using the
// given configuration. Every tree gets its own ack bitmap.
func CreateFileHashTreeFactory(config Config) *FileHashTreeFactory {
	config.AckBitmap = nil
	config.SharedDataStorage = false
	config.SharedHashStorage = false
	return &FileHashTreeFactory{config: config}
}

func (f *FileHashTreeFactory) Open(path string, root common.Hash) (*HashTree, error) {
	return OpenFileHashTree(path, root, f.config)
}

func (f *FileHashTreeFactory) RemoveState(path string) error {
	if err := os.Remove(path + HashFileSuffix); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove hashes of %s: %w", path, err)
	}
	return nil
}

func (f *FileHashTreeFactory) Close() error {
	return nil
}

// OpenFileHashTree opens the tree of the content file at the given path. The
// hashes are kept in the file with HashFileSuffix appended to the path.
func OpenFileHashTree(path string, root common.Hash, config Config) (*HashTree, error) {
	data, err := openContent(path, config.ContentOffset)
	if err != nil {
		return nil, err
	}
	hashes, err := hsfile.OpenHashStorage(path + HashFileSuffix)
	if err != nil {
		return nil, errors.Join(err, data.Close())
	}
	config.SharedDataStorage = false
	config.SharedHashStorage = false
	return NewHashTree(data, hashes, root, config)
}

func openContent(path string, offset int64) (datastore.DataStorage, error) {
	if offset != 0 {
		return dsoffset.OpenDataStorage(path, offset)
	}
	return dsfile.OpenDataStorage(path)
}

// LevelDbHashTreeFactory opens trees over content files, keeping the hashes
// of all trees in one LevelDB database. The hashes of a content file are
// stored in the namespace returned by ContentNamespace.
type LevelDbHashTreeFactory struct {
	config Config
	db     *backend.LevelDbMemoryFootprintWrapper
}

// OpenLevelDbHashTreeFactory opens or creates the hash database in the given
// directory. The database stays open until the factory is closed.
func OpenLevelDbHashTreeFactory(dir string, config Config) (*LevelDbHashTreeFactory, error) {
	db, err := backend.OpenLevelDb(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash database: %w", err)
	}
	config.AckBitmap = nil
	config.SharedDataStorage = false
	config.SharedHashStorage = false
	return &LevelDbHashTreeFactory{config: config, db: db}, nil
}

func (f *LevelDbHashTreeFactory) Open(path string, root common.Hash) (*HashTree, error) {
	namespace, err := ContentNamespace(path)
	if err != nil {
		return nil, err
	}
	data, err := openContent(path, f.config.ContentOffset)
	if err != nil {
		return nil, err
	}
	hashes, err := hsldb.OpenHashStorage(f.db, namespace)
	if err != nil {
		return nil, errors.Join(err, data.Close())
	}
	return NewHashTree(data, hashes, root, f.config)
}

func (f *LevelDbHashTreeFactory) RemoveState(path string) error {
	namespace, err := ContentNamespace(path)
	if err != nil {
		return err
	}
	hashes, err := hsldb.OpenHashStorage(f.db, namespace)
	if err != nil {
		return err
	}
	return errors.Join(hashes.SetCapacity(0), hashes.Close())
}

func (f *LevelDbHashTreeFactory) GetMemoryFootprint() *common.MemoryFootprint {
	return f.db.GetMemoryFootprint()
}

func (f *LevelDbHashTreeFactory) Close() error {
	return f.db.Close()
}

// ContentNamespace returns the namespace of the hashes of the content file at
// the given path within a shared hash database. The root hash is unknown
// while content is seeded, so the absolute path identifies the content.
func ContentNamespace(path string) (common.Hash, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to resolve content path: %w", err)
	}
	return common.HashOf([]byte(abs)), nil
}
