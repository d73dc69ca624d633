// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hsmemory

import (
	"testing"

	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

func TestHashStorage_RunComplianceTests(t *testing.T) {
	hashstore.RunHashStorageTests(t, hashstore.NamedHashStorageFactory{
		ImplementationName: "Memory",
		Open: func(t *testing.T, _ string) (hashstore.HashStorage, error) {
			return NewHashStorage(), nil
		},
	})
}

func TestHashStorage_ImplementsLeftRightHasher(t *testing.T) {
	var _ hashstore.LeftRightHasher = NewHashStorage()
}

func TestHashStorage_FreshStorageHasNoCapacity(t *testing.T) {
	storage := NewHashStorage()
	if err := storage.Set(0, common.HashOf(nil)); err != hashstore.ErrOutOfRange {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestHashStorage_HashLeftRightRespectsCapacity(t *testing.T) {
	storage := NewHashStorage()
	if err := storage.SetCapacity(2); err != nil {
		t.Fatalf("failed to set capacity: %v", err)
	}
	if err := storage.HashLeftRight(bin.New(2, 0)); err != hashstore.ErrOutOfRange {
		t.Errorf("expected out of range error, got %v", err)
	}
}
