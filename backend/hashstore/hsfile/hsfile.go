// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hsfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

// HashStorage keeps the hashes of a tree in a file, one entry per bin. The
// file is memory-mapped whenever possible; positional I/O is used if the
// mapping fails.
type HashStorage struct {
	file    *os.File
	mapped  []byte
	entries uint64
}

// OpenHashStorage opens the hash file at the given path, creating it and its
// parent directories if needed. The capacity of the storage is derived from
// the size of an existing file.
func OpenHashStorage(path string) (*HashStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory for hash file: %w", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to stat hash file: %w", err), file.Close())
	}
	res := &HashStorage{
		file:    file,
		entries: uint64(stat.Size()) / common.HashLength,
	}
	res.remap()
	return res, nil
}

// remap maps the current capacity of the file into memory. A failed mapping
// is not an error, the storage then falls back to positional I/O.
func (s *HashStorage) remap() {
	if s.entries == 0 {
		return
	}
	data, err := unix.Mmap(int(s.file.Fd()), 0, int(s.entries*common.HashLength), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		klog.Warningf("failed to map hash file %s, using positional I/O: %v", s.file.Name(), err)
		return
	}
	s.mapped = data
}

func (s *HashStorage) unmap() error {
	if s.mapped == nil {
		return nil
	}
	data := s.mapped
	s.mapped = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("failed to unmap hash file: %w", err)
	}
	return nil
}

func (s *HashStorage) SetCapacity(leafCount uint64) error {
	if s.file == nil {
		return hashstore.ErrInvalidStorage
	}
	entries := hashstore.Entries(leafCount)
	if entries == s.entries {
		return nil
	}
	if err := s.unmap(); err != nil {
		return err
	}
	if err := s.file.Truncate(int64(entries * common.HashLength)); err != nil {
		klog.Errorf("failed to resize hash file %s to %d leaves: %v", s.file.Name(), leafCount, err)
		s.remap()
		return fmt.Errorf("failed to resize hash file: %w", err)
	}
	s.entries = entries
	s.remap()
	return nil
}

// Capacity returns the number of leaves the storage has room for.
func (s *HashStorage) Capacity() uint64 {
	return s.entries / 2
}

func (s *HashStorage) Get(b bin.Bin) common.Hash {
	var res common.Hash
	if s.file == nil || uint64(b) >= s.entries {
		return res
	}
	offset := uint64(b) * common.HashLength
	if s.mapped != nil {
		copy(res[:], s.mapped[offset:offset+common.HashLength])
		return res
	}
	if _, err := s.file.ReadAt(res[:], int64(offset)); err != nil {
		klog.Errorf("failed to read hash of %v from %s: %v", b, s.file.Name(), err)
		return common.ZeroHash
	}
	return res
}

func (s *HashStorage) Set(b bin.Bin, hash common.Hash) error {
	if s.file == nil {
		return hashstore.ErrInvalidStorage
	}
	if uint64(b) >= s.entries {
		return hashstore.ErrOutOfRange
	}
	offset := uint64(b) * common.HashLength
	if s.mapped != nil {
		copy(s.mapped[offset:offset+common.HashLength], hash[:])
		return nil
	}
	if _, err := s.file.WriteAt(hash[:], int64(offset)); err != nil {
		return fmt.Errorf("failed to write hash of %v: %w", b, err)
	}
	return nil
}

func (s *HashStorage) Valid() bool {
	return s.file != nil
}

func (s *HashStorage) Flush() error {
	if s.file == nil {
		return nil
	}
	if s.mapped != nil {
		if err := unix.Msync(s.mapped, unix.MS_SYNC); err != nil {
			return fmt.Errorf("failed to sync mapped hashes: %w", err)
		}
	}
	return s.file.Sync()
}

func (s *HashStorage) Close() error {
	if s.file == nil {
		return nil
	}
	err := errors.Join(s.Flush(), s.unmap(), s.file.Close())
	s.file = nil
	s.entries = 0
	return err
}

func (s *HashStorage) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*s))
	mf.AddChild("mapped", common.NewMemoryFootprint(uintptr(len(s.mapped))))
	return mf
}
