// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dsfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/libswift/swift-go/backend/datastore"
	"k8s.io/klog/v2"
)

// DataStorage keeps content in a regular file.
type DataStorage struct {
	file *os.File
}

// OpenDataStorage opens the content file at the given path, creating it and
// its parent directories if needed.
func OpenDataStorage(path string) (*DataStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory for content file: %w", err)
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		klog.Errorf("cannot open content file %s: %v", path, err)
		return nil, fmt.Errorf("failed to open content file: %w", err)
	}
	return &DataStorage{file: file}, nil
}

// Name returns the path of the underlying file.
func (s *DataStorage) Name() string {
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *DataStorage) Read(p []byte) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.file.Read(p)
}

func (s *DataStorage) Write(p []byte) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.file.Write(p)
}

func (s *DataStorage) Seek(offset int64, whence int) (int64, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.file.Seek(offset, whence)
}

func (s *DataStorage) ReadAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.file.ReadAt(p, off)
}

func (s *DataStorage) WriteAt(p []byte, off int64) (int, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	return s.file.WriteAt(p, off)
}

func (s *DataStorage) Size() (int64, error) {
	if s.file == nil {
		return 0, datastore.ErrInvalidStorage
	}
	stat, err := s.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat content file: %w", err)
	}
	return stat.Size(), nil
}

func (s *DataStorage) Resize(size int64) error {
	if s.file == nil {
		return datastore.ErrInvalidStorage
	}
	if err := s.file.Truncate(size); err != nil {
		klog.Errorf("failed to resize content file %s to %d bytes: %v", s.file.Name(), size, err)
		return fmt.Errorf("failed to resize content file: %w", err)
	}
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
