// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dsmemory

import (
	"fmt"
	"io"

	"github.com/libswift/swift-go/backend/datastore"
)

// DataStorage keeps content in a byte slice.
type DataStorage struct {
	data   []byte
	cursor int64
	closed bool
}

// NewDataStorage creates a storage holding a copy of the given content.
func NewDataStorage(content []byte) *DataStorage {
	return &DataStorage{data: append([]byte(nil), content...)}
}

// Bytes returns the current content. The result must not be modified.
func (s *DataStorage) Bytes() []byte {
	return s.data
}

func (s *DataStorage) Read(p []byte) (int, error) {
	n, err := s.ReadAt(p, s.cursor)
	s.cursor += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

func (s *DataStorage) Write(p []byte) (int, error) {
	n, err := s.WriteAt(p, s.cursor)
	s.cursor += int64(n)
	return n, err
}

func (s *DataStorage) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, datastore.ErrInvalidStorage
	}
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.cursor + offset
	case io.SeekEnd:
		pos = int64(len(s.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	s.cursor = pos
	return pos, nil
}

func (s *DataStorage) ReadAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, datastore.ErrInvalidStorage
	}
	if off < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *DataStorage) WriteAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, datastore.ErrInvalidStorage
	}
	if off < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	if end := off + int64(len(p)); end > int64(len(s.data)) {
		s.grow(end)
	}
	return copy(s.data[off:], p), nil
}

func (s *DataStorage) grow(size int64) {
	if size <= int64(cap(s.data)) {
		old := len(s.data)
		s.data = s.data[:size]
		clear(s.data[old:])
		return
	}
	grown := make([]byte, size, size+size/4)
	copy(grown, s.data)
	s.data = grown
}

func (s *DataStorage) Size() (int64, error) {
	if s.closed {
		return 0, datastore.ErrInvalidStorage
	}
	return int64(len(s.data)), nil
}

func (s *DataStorage) Resize(size int64) error {
	if s.closed {
		return datastore.ErrInvalidStorage
	}
	if size < 0 {
		return datastore.ErrNegativeOffset
	}
	if size <= int64(len(s.data)) {
		s.data = s.data[:size]
		return nil
	}
	s.grow(size)
	return nil
}

func (s *DataStorage) Valid() bool {
	return !s.closed
}

func (s *DataStorage) Flush() error {
	return nil
}

func (s *DataStorage) Close() error {
	s.data = nil
	s.closed = true
	return nil
}
