// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package hashstore defines the storage of the node hashes of a content hash
// tree. Hashes are addressed by bin numbers; a tree with n leaves occupies the
// bins [0, 2n).
package hashstore

import (
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

//go:generate mockgen -source hashstore.go -destination hashstore_mocks.go -package hashstore

// HashStorage retains the hashes of the nodes of a single hash tree.
type HashStorage interface {
	// SetCapacity makes room for the hashes of a tree with the given number
	// of leaves, which are the 2*leafCount bins starting at bin 0. Hashes of
	// bins below the new limit are retained, others are discarded.
	SetCapacity(leafCount uint64) error

	// Get returns the hash stored for the given bin. The zero hash is
	// returned if no hash is stored or the bin is beyond the capacity.
	Get(b bin.Bin) common.Hash

	// Set stores the hash of the given bin. Bins beyond the capacity are
	// rejected with ErrOutOfRange.
	Set(b bin.Bin, hash common.Hash) error

	// Valid reports whether the storage is usable. Once a storage became
	// invalid it stays invalid and all its operations fail.
	Valid() bool

	common.FlushAndCloser
	common.MemoryFootprintProvider
}

// LeftRightHasher may be implemented by storages able to compute the hash of
// a node from its children more efficiently than through Get and Set.
type LeftRightHasher interface {
	HashLeftRight(parent bin.Bin) error
}

// HashLeftRight sets the hash of parent to the hash of its two children.
func HashLeftRight(s HashStorage, parent bin.Bin) error {
	if hasher, ok := s.(LeftRightHasher); ok {
		return hasher.HashLeftRight(parent)
	}
	if parent.IsBase() || parent.IsNone() {
		return ErrNoChildren
	}
	return s.Set(parent, common.HashPair(s.Get(parent.Left()), s.Get(parent.Right())))
}

// Entries returns the number of bins covered by the given leaf capacity.
func Entries(leafCount uint64) uint64 {
	return 2 * leafCount
}

const (
	ErrOutOfRange     = common.ConstError("bin out of range")
	ErrInvalidStorage = common.ConstError("invalid hash storage")
	ErrNoChildren     = common.ConstError("bin has no children")
)
