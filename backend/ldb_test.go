// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package backend

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/libswift/swift-go/common"
)

func TestToDBKey_KeysAreOrderedByPosition(t *testing.T) {
	ns := common.HashOf([]byte("tree"))
	prev := ToDBKey(HashKey, ns, 0)
	for _, pos := range []uint64{1, 2, 255, 256, 1 << 40} {
		cur := ToDBKey(HashKey, ns, pos)
		if bytes.Compare(prev.ToBytes(), cur.ToBytes()) >= 0 {
			t.Errorf("keys not ordered: %x >= %x", prev, cur)
		}
		prev = cur
	}
}

func TestToDBKey_KeysStartWithNamespacePrefix(t *testing.T) {
	ns := common.HashOf([]byte("tree"))
	other := common.HashOf([]byte("other"))
	key := ToDBKey(CapacityKey, ns, 12)
	if !bytes.HasPrefix(key.ToBytes(), NamespacePrefix(CapacityKey, ns)) {
		t.Errorf("key %x does not start with its namespace prefix", key)
	}
	if bytes.HasPrefix(key.ToBytes(), NamespacePrefix(CapacityKey, other)) {
		t.Errorf("key %x should not match foreign namespace", key)
	}
	if bytes.HasPrefix(key.ToBytes(), NamespacePrefix(HashKey, ns)) {
		t.Errorf("key %x should not match foreign tablespace", key)
	}
}

func TestOpenLevelDb_ReportsMemoryFootprint(t *testing.T) {
	db, err := OpenLevelDb(filepath.Join(t.TempDir(), "db"), nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()
	if db.GetMemoryFootprint() == nil {
		t.Errorf("missing memory footprint")
	}
}

var dbKeySink DbKey

func BenchmarkToDBKey(b *testing.B) {
	ns := common.HashOf([]byte("tree"))
	for i := 1; i <= b.N; i++ {
		dbKeySink = ToDBKey(HashKey, ns, uint64(i))
	}
}
