// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hashstore

import (
	"errors"
	"testing"

	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

// NamedHashStorageFactory opens instances of a HashStorage implementation
// for the shared test suite.
type NamedHashStorageFactory struct {
	ImplementationName string
	// Open opens the storage kept in the given directory.
	Open func(t *testing.T, directory string) (HashStorage, error)
	// Persistent is set if a storage reopened on the same directory retains
	// its content.
	Persistent bool
}

// RunHashStorageTests runs the tests every HashStorage implementation has to
// pass.
func RunHashStorageTests(t *testing.T, factory NamedHashStorageFactory) {
	wrap := func(test func(*testing.T, NamedHashStorageFactory)) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			test(t, factory)
		}
	}
	t.Run("FreshStorageIsValidAndEmpty", wrap(testFreshStorageIsValidAndEmpty))
	t.Run("SetValuesCanBeRetrieved", wrap(testSetValuesCanBeRetrieved))
	t.Run("BinsBeyondCapacityAreRejected", wrap(testBinsBeyondCapacityAreRejected))
	t.Run("GrowingCapacityRetainsContent", wrap(testGrowingCapacityRetainsContent))
	t.Run("ShrinkingCapacityDropsContent", wrap(testShrinkingCapacityDropsContent))
	t.Run("HashLeftRightCombinesChildren", wrap(testHashLeftRightCombinesChildren))
	t.Run("LargeNumberOfElements", wrap(testLargeNumberOfElements))
	t.Run("ProvidesMemoryFootprint", wrap(testProvidesMemoryFootprint))
	t.Run("CanBeFlushed", wrap(testCanBeFlushed))
	t.Run("ClosedStorageIsInvalid", wrap(testClosedStorageIsInvalid))
	if factory.Persistent {
		t.Run("CanBeClosedAndReopened", wrap(testCanBeClosedAndReopened))
	}
}

func open(t *testing.T, factory NamedHashStorageFactory, directory string) HashStorage {
	t.Helper()
	storage, err := factory.Open(t, directory)
	if err != nil {
		t.Fatalf("failed to open %s storage: %v", factory.ImplementationName, err)
	}
	return storage
}

func testFreshStorageIsValidAndEmpty(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if !storage.Valid() {
		t.Fatalf("fresh storage should be valid")
	}
	if err := storage.SetCapacity(8); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	for i := bin.Bin(0); i < 16; i++ {
		if got := storage.Get(i); got != common.ZeroHash {
			t.Errorf("unexpected hash of %v in fresh storage: %v", i, got)
		}
	}
}

func testSetValuesCanBeRetrieved(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(4); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	for i := bin.Bin(0); i < 8; i++ {
		if err := storage.Set(i, common.HashOf([]byte{byte(i)})); err != nil {
			t.Fatalf("failed to set hash of %v: %v", i, err)
		}
	}
	for i := bin.Bin(0); i < 8; i++ {
		if got, want := storage.Get(i), common.HashOf([]byte{byte(i)}); got != want {
			t.Errorf("unexpected hash of %v, wanted %v, got %v", i, want, got)
		}
	}
	if err := storage.Set(3, common.ZeroHash); err != nil {
		t.Fatalf("failed to reset hash: %v", err)
	}
	if got := storage.Get(3); got != common.ZeroHash {
		t.Errorf("hash should have been reset, got %v", got)
	}
}

func testBinsBeyondCapacityAreRejected(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	hash := common.HashOf([]byte("x"))
	for _, b := range []bin.Bin{4, 5, 100, bin.All, bin.None} {
		if err := storage.Set(b, hash); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("expected %v to be rejected, got %v", b, err)
		}
		if got := storage.Get(b); got != common.ZeroHash {
			t.Errorf("unexpected hash beyond capacity: %v", got)
		}
	}
}

func testGrowingCapacityRetainsContent(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	hash := common.HashOf([]byte("x"))
	if err := storage.Set(2, hash); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := storage.SetCapacity(1024); err != nil {
		t.Fatalf("failed to grow capacity: %v", err)
	}
	if got := storage.Get(2); got != hash {
		t.Errorf("hash lost while growing, wanted %v, got %v", hash, got)
	}
	if err := storage.Set(2047, hash); err != nil {
		t.Errorf("failed to set hash in grown range: %v", err)
	}
}

func testShrinkingCapacityDropsContent(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(8); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	hash := common.HashOf([]byte("x"))
	for _, b := range []bin.Bin{1, 12} {
		if err := storage.Set(b, hash); err != nil {
			t.Fatalf("failed to set hash: %v", err)
		}
	}
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to shrink capacity: %v", err)
	}
	if err := storage.SetCapacity(8); err != nil {
		t.Fatalf("failed to grow capacity: %v", err)
	}
	if got := storage.Get(1); got != hash {
		t.Errorf("hash below limit lost, wanted %v, got %v", hash, got)
	}
	if got := storage.Get(12); got != common.ZeroHash {
		t.Errorf("hash beyond limit should have been dropped, got %v", got)
	}
}

func testHashLeftRightCombinesChildren(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	left, right := common.HashOf([]byte("l")), common.HashOf([]byte("r"))
	if err := storage.Set(bin.Leaf(0), left); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := storage.Set(bin.Leaf(1), right); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := HashLeftRight(storage, bin.New(1, 0)); err != nil {
		t.Fatalf("failed to hash children: %v", err)
	}
	if got, want := storage.Get(bin.New(1, 0)), common.HashPair(left, right); got != want {
		t.Errorf("unexpected parent hash, wanted %v, got %v", want, got)
	}
}

func testLargeNumberOfElements(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	const leaves = 1 << 12
	if err := storage.SetCapacity(leaves); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	for i := bin.Bin(0); i < 2*leaves; i += 3 {
		if err := storage.Set(i, common.HashOf([]byte{byte(i), byte(i >> 8)})); err != nil {
			t.Fatalf("failed to set hash of %v: %v", i, err)
		}
	}
	for i := bin.Bin(0); i < 2*leaves; i++ {
		want := common.ZeroHash
		if i%3 == 0 {
			want = common.HashOf([]byte{byte(i), byte(i >> 8)})
		}
		if got := storage.Get(i); got != want {
			t.Fatalf("unexpected hash of %v, wanted %v, got %v", i, want, got)
		}
	}
}

func testProvidesMemoryFootprint(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(16); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if storage.GetMemoryFootprint() == nil {
		t.Errorf("invalid memory footprint reported")
	}
}

func testCanBeFlushed(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	defer storage.Close()
	if err := storage.SetCapacity(1); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if err := storage.Set(0, common.HashOf(nil)); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := storage.Flush(); err != nil {
		t.Errorf("failed to flush storage: %v", err)
	}
}

func testClosedStorageIsInvalid(t *testing.T, factory NamedHashStorageFactory) {
	storage := open(t, factory, t.TempDir())
	if err := storage.SetCapacity(1); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}
	if storage.Valid() {
		t.Errorf("closed storage should be invalid")
	}
	if err := storage.Set(0, common.HashOf(nil)); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should reject updates, got %v", err)
	}
	if err := storage.SetCapacity(4); !errors.Is(err, ErrInvalidStorage) {
		t.Errorf("closed storage should reject resizing, got %v", err)
	}
	if got := storage.Get(0); got != common.ZeroHash {
		t.Errorf("closed storage should not report hashes, got %v", got)
	}
}

func testCanBeClosedAndReopened(t *testing.T, factory NamedHashStorageFactory) {
	dir := t.TempDir()
	storage := open(t, factory, dir)
	if err := storage.SetCapacity(4); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	hash := common.HashOf([]byte("persistent"))
	if err := storage.Set(5, hash); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}

	storage = open(t, factory, dir)
	defer storage.Close()
	if got := storage.Get(5); got != hash {
		t.Errorf("hash not retained, wanted %v, got %v", hash, got)
	}
	if err := storage.Set(7, hash); err != nil {
		t.Errorf("capacity not retained: %v", err)
	}
}
