// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dsoffset provides a file data storage whose content starts at a
// fixed offset within the file and wraps around to the start of the file at
// its end. It serves distinct content from one file.
package dsoffset

import (
	"fmt"
	"io"
	"os"

	"github.com/libswift/swift-go/backend/datastore"
)

// DataStorage exposes the bytes of a file rotated by a fixed offset. The
// content byte at position p is the file byte at (p + offset) mod size.
type DataStorage struct {
	file   *os.File
	offset int64
	size   int64
	cursor int64
}

// OpenDataStorage opens the file at the given path, creating it if needed.
func OpenDataStorage(path string, offset int64) (*DataStorage, error) {
	if offset < 0 {
		return nil, datastore.ErrNegativeOffset
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open content file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat content file: %w", err)
	}
	return &DataStorage{file: file, offset: offset, size: stat.Size()}, nil
}

// segments splits the content range [off, off+length) into at most two file
// ranges, the second one starting at the beginning of the file.
func (s *DataStorage) segments(off int64, length int) (first, second int64, firstLen, secondLen int) {
	first = (off + s.offset) % s.size
	firstLen = length
	if rest := s.size - first; int64(length) > rest {
		firstLen = int(rest)
		secondLen = length - firstLen
	}
	return first, 0, firstLen, secondLen
}

func (s *DataStorage) ReadAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	if off < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	if off >= s.size {
		return 0, io.EOF
	}
	want := len(p)
	if avail := s.size - off; int64(want) > avail {
		want = int(avail)
	}
	first, second, firstLen, secondLen := s.segments(off, want)
	n, err := s.file.ReadAt(p[:firstLen], first)
	if err != nil {
		return n, err
	}
	if secondLen > 0 {
		m, err := s.file.ReadAt(p[firstLen:firstLen+secondLen], second)
		n += m
		if err != nil {
			return n, err
		}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes within the current size of the content. Bytes that would
// extend the content are not written and io.ErrShortWrite is reported.
func (s *DataStorage) WriteAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	if off < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	if off >= s.size {
		return 0, io.ErrShortWrite
	}
	want := len(p)
	if avail := s.size - off; int64(want) > avail {
		want = int(avail)
	}
	first, second, firstLen, secondLen := s.segments(off, want)
	n, err := s.file.WriteAt(p[:firstLen], first)
	if err != nil {
		return n, err
	}
	if secondLen > 0 {
		m, err := s.file.WriteAt(p[firstLen:firstLen+secondLen], second)
		n += m
		if err != nil {
			return n, err
		}
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
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
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.cursor + offset
	case io.SeekEnd:
		pos = s.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, datastore.ErrNegativeOffset
	}
	s.cursor = pos
	return pos, nil
}

func (s *DataStorage) Size() (int64, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.size, nil
}

// Resize changes the size of the underlying file. Since the rotation depends
// on the size, content positions are not retained.
func (s *DataStorage) Resize(size int64) error {
	if s.file == nil {
		return datastore.ErrInvalidStorage
	}
	if err := s.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to resize content file: %w", err)
	}
	s.size = size
	return nil
}

func (s *DataStorage) Valid() bool {
	return s.file != nil
}

func (s *DataStorage) Flush() error {
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

func (s *DataStorage) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
