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
	"github.com/libswift/swift-go/backend/binmap"
	"github.com/libswift/swift-go/bin"
)

// DefaultChunkSize is the size of content chunks in bytes.
const DefaultChunkSize = 1024

// Config defines the behaviour of a HashTree.
type Config struct {
	// ChunkSize is the size of the content chunks covered by the leaves of
	// the tree. Zero selects DefaultChunkSize.
	ChunkSize int
	// DataRecheck makes the tree re-hash content found on disk while
	// recovering progress instead of trusting the stored leaf hashes.
	DataRecheck bool
	// SharedDataStorage is set if the data storage is owned by someone else
	// and must not be closed together with the tree.
	SharedDataStorage bool
	// SharedHashStorage is set if the hash storage is owned by someone else
	// and must not be closed together with the tree.
	SharedHashStorage bool
	// AckBitmap records verified chunks. A fresh binmap is used if nil.
	AckBitmap AckBitmap
	// ContentOffset makes trees opened from files see the file content
	// rotated by this many bytes. Only used by the factories of this package.
	ContentOffset int64
}

// DefaultConfig returns the configuration used by peers unless told otherwise.
func DefaultConfig() Config {
	return Config{
		ChunkSize:   DefaultChunkSize,
		DataRecheck: true,
	}
}

// AckBitmap tracks which chunks of the content have been verified.
type AckBitmap interface {
	Set(b bin.Bin)
	Get(b bin.Bin) binmap.State
	SeqLength() uint64
	Clear()
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.AckBitmap == nil {
		c.AckBitmap = binmap.New()
	}
	return c
}
