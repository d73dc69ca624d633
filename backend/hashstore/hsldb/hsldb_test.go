// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hsldb

import (
	"path/filepath"
	"testing"

	"github.com/libswift/swift-go/backend"
	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/common"
)

func TestHashStorage_RunComplianceTests(t *testing.T) {
	hashstore.RunHashStorageTests(t, hashstore.NamedHashStorageFactory{
		ImplementationName: "LevelDB",
		Open: func(t *testing.T, directory string) (hashstore.HashStorage, error) {
			return OpenHashStorageAt(filepath.Join(directory, "db"), common.HashOf([]byte("tree")))
		},
		Persistent: true,
	})
}

func TestHashStorage_NamespacesAreIsolated(t *testing.T) {
	db, err := backend.OpenLevelDb(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	a, err := OpenHashStorage(db, common.HashOf([]byte("a")))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	b, err := OpenHashStorage(db, common.HashOf([]byte("b")))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	for _, s := range []*HashStorage{a, b} {
		if err := s.SetCapacity(4); err != nil {
			t.Fatalf("failed to set capacity: %v", err)
		}
	}

	hashA, hashB := common.HashOf([]byte("x")), common.HashOf([]byte("y"))
	if err := a.Set(3, hashA); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if err := b.Set(3, hashB); err != nil {
		t.Fatalf("failed to set hash: %v", err)
	}
	if got := a.Get(3); got != hashA {
		t.Errorf("unexpected hash in namespace a, wanted %v, got %v", hashA, got)
	}
	if got := b.Get(3); got != hashB {
		t.Errorf("unexpected hash in namespace b, wanted %v, got %v", hashB, got)
	}

	if err := a.SetCapacity(1); err != nil {
		t.Fatalf("failed to shrink capacity: %v", err)
	}
	if got := b.Get(3); got != hashB {
		t.Errorf("shrinking a should not affect b, got %v", got)
	}

	// Closing a shared storage must not close the database.
	if err := a.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}
	if got := b.Get(3); got != hashB {
		t.Errorf("database should still be usable, got %v", got)
	}
}

func TestHashStorage_CapacityIsRetained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	namespace := common.HashOf([]byte("tree"))
	storage, err := OpenHashStorageAt(path, namespace)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.SetCapacity(5); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}

	reopened, err := OpenHashStorageAt(path, namespace)
	if err != nil {
		t.Fatalf("failed to reopen storage: %v", err)
	}
	defer reopened.Close()
	if got, want := reopened.Capacity(), uint64(5); got != want {
		t.Errorf("unexpected capacity, wanted %d, got %d", want, got)
	}

	other, err := OpenHashStorage(reopened.db, common.HashOf([]byte("other")))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	if got := other.Capacity(); got != 0 {
		t.Errorf("capacity of unknown namespace should be zero, got %d", got)
	}
}
