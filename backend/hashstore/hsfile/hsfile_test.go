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
	"os"
	"path/filepath"
	"testing"

	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

func TestHashStorage_RunComplianceTests(t *testing.T) {
	hashstore.RunHashStorageTests(t, hashstore.NamedHashStorageFactory{
		ImplementationName: "File",
		Open: func(t *testing.T, directory string) (hashstore.HashStorage, error) {
			return OpenHashStorage(filepath.Join(directory, "content.mhash"))
		},
		Persistent: true,
	})
}

func TestHashStorage_CreatesMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "some", "sub", "dir", "content.mhash")
	storage, err := OpenHashStorage(path)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	defer storage.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("hash file not created: %v", err)
	}
}

func TestHashStorage_FileHoldsOneEntryPerBin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.mhash")
	storage, err := OpenHashStorage(path)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.SetCapacity(3); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	hash := common.HashOf([]byte("x"))
	if err := storage.Set(bin.Leaf(2), hash); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hash file: %v", err)
	}
	if got, want := len(data), 6*common.HashLength; got != want {
		t.Fatalf("unexpected file size, wanted %d, got %d", want, got)
	}
	offset := 4 * common.HashLength
	if got, _ := common.HashFromBytes(data[offset : offset+common.HashLength]); got != hash {
		t.Errorf("unexpected hash at position of leaf 2, wanted %v, got %v", hash, got)
	}

	reopened, err := OpenHashStorage(path)
	if err != nil {
		t.Fatalf("failed to reopen storage: %v", err)
	}
	defer reopened.Close()
	if got, want := reopened.Capacity(), uint64(3); got != want {
		t.Errorf("unexpected capacity of reopened storage, wanted %d, got %d", want, got)
	}
}

func TestHashStorage_PositionalAccessWithoutMapping(t *testing.T) {
	storage, err := OpenHashStorage(filepath.Join(t.TempDir(), "content.mhash"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	defer storage.Close()
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if err := storage.unmap(); err != nil {
		t.Fatalf("failed to unmap storage: %v", err)
	}
	hash := common.HashOf([]byte("x"))
	if err := storage.Set(3, hash); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if got := storage.Get(3); got != hash {
		t.Errorf("unexpected hash, wanted %v, got %v", hash, got)
	}
}
