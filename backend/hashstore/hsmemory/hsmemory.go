// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hsmemory

import (
	"unsafe"

	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

// HashStorage keeps the hashes of a tree in a slice indexed by bin number.
type HashStorage struct {
	hashes []common.Hash
	closed bool
}

// NewHashStorage creates an empty in-memory hash storage.
func NewHashStorage() *HashStorage {
	return &HashStorage{}
}

func (s *HashStorage) SetCapacity(leafCount uint64) error {
	if s.closed {
		return hashstore.ErrInvalidStorage
	}
	entries := hashstore.Entries(leafCount)
	if entries <= uint64(cap(s.hashes)) {
		old := len(s.hashes)
		s.hashes = s.hashes[:entries]
		for i := int(entries); i < old; i++ {
			s.hashes[:old][i] = common.ZeroHash
		}
		return nil
	}
	grown := make([]common.Hash, entries)
	copy(grown, s.hashes)
	s.hashes = grown
	return nil
}

func (s *HashStorage) Get(b bin.Bin) common.Hash {
	if s.closed || uint64(b) >= uint64(len(s.hashes)) {
		return common.ZeroHash
	}
	return s.hashes[b]
}

func (s *HashStorage) Set(b bin.Bin, hash common.Hash) error {
	if s.closed {
		return hashstore.ErrInvalidStorage
	}
	if uint64(b) >= uint64(len(s.hashes)) {
		return hashstore.ErrOutOfRange
	}
	s.hashes[b] = hash
	return nil
}

// HashLeftRight computes the hash of parent without copying child hashes
// through the interface.
func (s *HashStorage) HashLeftRight(parent bin.Bin) error {
	if s.closed {
		return hashstore.ErrInvalidStorage
	}
	if parent.IsBase() || parent.IsNone() {
		return hashstore.ErrNoChildren
	}
	if uint64(parent.Right()) >= uint64(len(s.hashes)) {
		return hashstore.ErrOutOfRange
	}
	s.hashes[parent] = common.HashPair(s.hashes[parent.Left()], s.hashes[parent.Right()])
	return nil
}

func (s *HashStorage) Valid() bool {
	return !s.closed
}

func (s *HashStorage) Flush() error {
	return nil
}

func (s *HashStorage) Close() error {
	s.hashes = nil
	s.closed = true
	return nil
}

func (s *HashStorage) GetMemoryFootprint() *common.MemoryFootprint {
	return common.NewMemoryFootprint(unsafe.Sizeof(*s) + uintptr(cap(s.hashes))*unsafe.Sizeof(common.Hash{}))
}
