// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package datastore

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/libswift/swift-go/bin"
)

// NamedDataStorageFactory opens instances of a DataStorage implementation
// for the shared test suite.
type NamedDataStorageFactory struct {
	ImplementationName string
	// Open opens the storage kept in the given directory.
	Open func(t *testing.T, directory string) (DataStorage, error)
	// Persistent is set if a storage reopened on the same directory retains
	// its content.
	Persistent bool
	// StableResize is set if resizing retains the content below the new size.
	StableResize bool
}

// RunDataStorageTests runs the tests every DataStorage implementation has to
// pass. Tests only write within the size established through Resize.
func RunDataStorageTests(t *testing.T, factory NamedDataStorageFactory) {
	wrap := func(test func(*testing.T, NamedDataStorageFactory)) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			test(t, factory)
		}
	}
	t.Run("FreshStorageIsValidAndEmpty", wrap(testFreshStorageIsValidAndEmpty))
	t.Run("PositionalWritesCanBeRead", wrap(testPositionalWritesCanBeRead))
	t.Run("SequentialAccessAdvancesCursor", wrap(testSequentialAccessAdvancesCursor))
	t.Run("ReadsBeyondEndReportEOF", wrap(testReadsBeyondEndReportEOF))
	t.Run("ResizeChangesSize", wrap(testResizeChangesSize))
	t.Run("ChunksCanBeAccessedThroughBins", wrap(testChunksCanBeAccessedThroughBins))
	t.Run("CanBeFlushed", wrap(testCanBeFlushed))
	t.Run("ClosedStorageIsInvalid", wrap(testClosedStorageIsInvalid))
	if factory.StableResize {
		t.Run("ResizeRetainsPrefix", wrap(testResizeRetainsPrefix))
	}
	if factory.Persistent {
		t.Run("CanBeClosedAndReopened", wrap(testCanBeClosedAndReopened))
	}
}

func open(t *testing.T, factory NamedDataStorageFactory, directory string) DataStorage {
	t.Helper()
	storage, err := factory.Open(t, directory)
	if err != nil {
		t.Fatalf("failed to open %s storage: %v", factory.ImplementationName, err)
	}
	return storage
}

func resize(t *testing.T, storage DataStorage, size int64) {
	t.Helper()
	if err := storage.Resize(size); err != nil {
		t.Fatalf("failed to resize storage to %d: %v", size, err)
	}
}

func pattern(length int, seed byte) []byte {
	res := make([]byte, length)
	for i := range res {
		res[i] = seed + byte(i*7)
	}
	return res
}

func testFreshStorageIsValidAndEmpty(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if !storage.Valid() {
		t.Fatalf("fresh storage should be valid")
	}
	size, err := storage.Size()
	if err != nil {
		t.Fatalf("failed to get size: %v", err)
	}
	if size != 0 {
		t.Errorf("unexpected size of fresh storage, wanted 0, got %d", size)
	}
	if _, err := storage.Read(make([]byte, 4)); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF reading empty storage, got %v", err)
	}
}

func testPositionalWritesCanBeRead(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	resize(t, storage, 100)
	data := pattern(30, 1)
	if n, err := storage.WriteAt(data, 50); err != nil || n != len(data) {
		t.Fatalf("failed to write data, wrote %d, err %v", n, err)
	}
	got := make([]byte, len(data))
	if n, err := storage.ReadAt(got, 50); err != nil || n != len(got) {
		t.Fatalf("failed to read data, read %d, err %v", n, err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("unexpected content, wanted %x, got %x", data, got)
	}
}

func testSequentialAccessAdvancesCursor(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	resize(t, storage, 10)
	if _, err := storage.Write([]byte("hello")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if _, err := storage.Write([]byte("world")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if pos, err := storage.Seek(0, io.SeekStart); err != nil || pos != 0 {
		t.Fatalf("failed to seek, position %d, err %v", pos, err)
	}
	buffer := make([]byte, 5)
	for _, want := range []string{"hello", "world"} {
		if _, err := io.ReadFull(storage, buffer); err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if got := string(buffer); got != want {
			t.Errorf("unexpected content, wanted %s, got %s", want, got)
		}
	}
	if _, err := storage.Read(buffer); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF at end of content, got %v", err)
	}
	if pos, err := storage.Seek(-5, io.SeekEnd); err != nil || pos != 5 {
		t.Errorf("failed to seek from end, position %d, err %v", pos, err)
	}
	if pos, err := storage.Seek(2, io.SeekCurrent); err != nil || pos != 7 {
		t.Errorf("failed to seek relative, position %d, err %v", pos, err)
	}
	if _, err := storage.Seek(-20, io.SeekCurrent); err == nil {
		t.Errorf("seeking before the start should fail")
	}
}

func testReadsBeyondEndReportEOF(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	resize(t, storage, 10)
	buffer := make([]byte, 8)
	n, err := storage.ReadAt(buffer, 6)
	if n != 4 || !errors.Is(err, io.EOF) {
		t.Errorf("expected short read with EOF, got %d bytes and %v", n, err)
	}
	n, err = storage.ReadAt(buffer, 20)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %d bytes and %v", n, err)
	}
}

func testResizeChangesSize(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	for _, size := range []int64{100, 40, 4096, 0, 1} {
		resize(t, storage, size)
		got, err := storage.Size()
		if err != nil {
			t.Fatalf("failed to get size: %v", err)
		}
		if got != size {
			t.Errorf("unexpected size, wanted %d, got %d", size, got)
		}
	}
	resize(t, storage, 1)
	if err := storage.Resize(-1); err == nil {
		t.Errorf("negative sizes should be rejected")
	}
}

func testResizeRetainsPrefix(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	resize(t, storage, 100)
	data := pattern(100, 3)
	if _, err := storage.WriteAt(data, 0); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	resize(t, storage, 40)
	resize(t, storage, 60)
	got := make([]byte, 40)
	if _, err := storage.ReadAt(got, 0); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if !bytes.Equal(got, data[:40]) {
		t.Errorf("prefix not retained, wanted %x, got %x", data[:40], got)
	}
}

func testChunksCanBeAccessedThroughBins(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	const chunkSize = 16
	resize(t, storage, 3*chunkSize-6)
	for i := uint64(0); i < 3; i++ {
		chunk := pattern(chunkSize, byte(i))
		if i == 2 {
			chunk = chunk[:chunkSize-6]
		}
		if _, err := WriteBin(storage, bin.Leaf(i), chunkSize, chunk); err != nil {
			t.Fatalf("failed to write chunk %d: %v", i, err)
		}
	}
	buffer := make([]byte, chunkSize)
	for i := uint64(0); i < 3; i++ {
		n, err := ReadBin(storage, bin.Leaf(i), chunkSize, buffer)
		if err != nil {
			t.Fatalf("failed to read chunk %d: %v", i, err)
		}
		want := pattern(chunkSize, byte(i))
		if i == 2 {
			want = want[:chunkSize-6]
		}
		if !bytes.Equal(buffer[:n], want) {
			t.Errorf("unexpected chunk %d, wanted %x, got %x", i, want, buffer[:n])
		}
	}
	if n, err := ReadBin(storage, bin.Leaf(3), chunkSize, buffer); n != 0 || err != nil {
		t.Errorf("expected empty read beyond end, got %d bytes and %v", n, err)
	}
}

func testCanBeFlushed(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	resize(t, storage, 4)
	if _, err := storage.WriteAt([]byte{1, 2, 3, 4}, 0); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := storage.Flush(); err != nil {
		t.Errorf("failed to flush storage: %v", err)
	}
}

func testClosedStorageIsInvalid(t *testing.T, factory NamedDataStorageFactory) {
	storage := open(t, factory, t.TempDir())
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}
	if storage.Valid() {
		t.Errorf("closed storage should be invalid")
	}
	if _, err := storage.ReadAt(make([]byte, 1), 0); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should reject reads, got %v", err)
	}
	if _, err := storage.WriteAt([]byte{1}, 0); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should reject writes, got %v", err)
	}
	if err := storage.Resize(10); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should reject resizing, got %v", err)
	}
	if _, err := storage.Size(); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should not report a size, got %v", err)
	}
}

func testCanBeClosedAndReopened(t *testing.T, factory NamedDataStorageFactory) {
	dir := t.TempDir()
	storage := open(t, factory, dir)
	resize(t, storage, 20)
	data := pattern(20, 9)
	if _, err := storage.WriteAt(data, 0); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}

	storage = open(t, factory, dir)
	defer storage.Close()
	got := make([]byte, len(data))
	if _, err := storage.ReadAt(got, 0); err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content not retained, wanted %x, got %x", data, got)
	}
}
