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
	"bytes"
	"testing"

	"github.com/libswift/swift-go/backend/datastore"
)

func TestDataStorage_RunComplianceTests(t *testing.T) {
	datastore.RunDataStorageTests(t, datastore.NamedDataStorageFactory{
		ImplementationName: "Memory",
		Open: func(t *testing.T, _ string) (datastore.DataStorage, error) {
			return NewDataStorage(nil), nil
		},
		StableResize: true,
	})
}

func TestDataStorage_WritesBeyondEndExtendContent(t *testing.T) {
	storage := NewDataStorage([]byte("abc"))
	if _, err := storage.WriteAt([]byte("xyz"), 5); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if got, want := storage.Bytes(), []byte("abc\x00\x00xyz"); !bytes.Equal(got, want) {
		t.Errorf("unexpected content, wanted %q, got %q", want, got)
	}
}

func TestDataStorage_ShrinkingClearsReusedSpace(t *testing.T) {
	storage := NewDataStorage([]byte("abcdef"))
	if err := storage.Resize(2); err != nil {
		t.Fatalf("failed to resize: %v", err)
	}
	if err := storage.Resize(4); err != nil {
		t.Fatalf("failed to resize: %v", err)
	}
	if got, want := storage.Bytes(), []byte("ab\x00\x00"); !bytes.Equal(got, want) {
		t.Errorf("unexpected content, wanted %q, got %q", want, got)
	}
}

func TestDataStorage_ContentIsCopied(t *testing.T) {
	content := []byte("abc")
	storage := NewDataStorage(content)
	content[0] = 'x'
	if got := storage.Bytes()[0]; got != 'a' {
		t.Errorf("storage should not share the input buffer")
	}
}
