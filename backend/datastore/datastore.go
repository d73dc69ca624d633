// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package datastore defines the storage of the raw bytes of a piece of
// content. Content is accessed sequentially through a cursor, at absolute
// byte offsets, or by chunk through the leaf bins covering it.
package datastore

import (
	"errors"
	"io"

	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

//go:generate mockgen -source datastore.go -destination datastore_mocks.go -package datastore

// DataStorage retains the bytes of a single piece of content. Reads at or
// beyond the end of the content report io.EOF.
type DataStorage interface {
	io.Reader
	io.Writer
	io.Seeker
	io.ReaderAt
	io.WriterAt

	// Size returns the current size of the content in bytes.
	Size() (int64, error)

	// Resize truncates or extends the content to the given size. Bytes
	// added by extending the content have unspecified values.
	Resize(size int64) error

	// Valid reports whether the storage is usable. Once a storage became
	// invalid it stays invalid and all its operations fail.
	Valid() bool

	common.FlushAndCloser
}

// ReadBin reads the chunk covered by the given leaf into buf and returns the
// number of bytes read. A count below len(buf) without error indicates the
// end of the content.
func ReadBin(s io.ReaderAt, b bin.Bin, chunkSize int, buf []byte) (int, error) {
	if !b.IsBase() {
		return 0, ErrNotALeaf
	}
	n, err := s.ReadAt(buf, Offset(b, chunkSize))
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// WriteBin writes the chunk covered by the given leaf.
func WriteBin(s io.WriterAt, b bin.Bin, chunkSize int, data []byte) (int, error) {
	if !b.IsBase() {
		return 0, ErrNotALeaf
	}
	return s.WriteAt(data, Offset(b, chunkSize))
}

// Offset returns the byte offset of the first chunk covered by b.
func Offset(b bin.Bin, chunkSize int) int64 {
	return int64(b.BaseOffset()) * int64(chunkSize)
}

const (
	ErrInvalidStorage = common.ConstError("invalid data storage")
	ErrNotALeaf       = common.ConstError("bin is not a leaf")
	ErrNegativeOffset = common.ConstError("negative offset")
)
