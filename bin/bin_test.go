// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package bin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBin_EncodingOfKnownNodes(t *testing.T) {
	tests := []struct {
		layer  int
		offset uint64
		want   Bin
	}{
		{0, 0, 0},
		{0, 1, 2},
		{0, 5, 10},
		{1, 0, 1},
		{1, 1, 5},
		{2, 0, 3},
		{2, 1, 11},
		{3, 0, 7},
		{63, 0, All},
	}
	for _, test := range tests {
		got := New(test.layer, test.offset)
		if got != test.want {
			t.Errorf("unexpected bin for (%d,%d), wanted %d, got %d", test.layer, test.offset, test.want, got)
		}
		if got.Layer() != test.layer {
			t.Errorf("unexpected layer of %v, wanted %d, got %d", got, test.layer, got.Layer())
		}
		if got.Offset() != test.offset {
			t.Errorf("unexpected offset of %v, wanted %d, got %d", got, test.offset, got.Offset())
		}
	}
}

func TestBin_Navigation(t *testing.T) {
	b := New(1, 1) // covers chunks 2 and 3
	if got, want := b.Parent(), New(2, 0); got != want {
		t.Errorf("unexpected parent, wanted %v, got %v", want, got)
	}
	if got, want := b.Sibling(), New(1, 0); got != want {
		t.Errorf("unexpected sibling, wanted %v, got %v", want, got)
	}
	if got, want := b.Left(), Leaf(2); got != want {
		t.Errorf("unexpected left child, wanted %v, got %v", want, got)
	}
	if got, want := b.Right(), Leaf(3); got != want {
		t.Errorf("unexpected right child, wanted %v, got %v", want, got)
	}
	if b.IsLeft() || !b.IsRight() {
		t.Errorf("(1,1) should be a right child")
	}
	if got, want := b.Width(), uint64(2); got != want {
		t.Errorf("unexpected width, wanted %d, got %d", want, got)
	}
	if got, want := b.BaseOffset(), uint64(2); got != want {
		t.Errorf("unexpected base offset, wanted %d, got %d", want, got)
	}
	if got, want := b.BaseLeft(), Leaf(2); got != want {
		t.Errorf("unexpected left base, wanted %v, got %v", want, got)
	}
	if got, want := b.BaseRight(), Leaf(3); got != want {
		t.Errorf("unexpected right base, wanted %v, got %v", want, got)
	}
}

func TestBin_LeavesHaveNoChildren(t *testing.T) {
	leaf := Leaf(7)
	if !leaf.IsBase() {
		t.Errorf("leaf should be a base bin")
	}
	if leaf.Left() != None || leaf.Right() != None {
		t.Errorf("leaves must not have children")
	}
}

func TestBin_SentinelsHaveNoRelatives(t *testing.T) {
	for _, b := range []Bin{None, All} {
		if b.Parent() != None {
			t.Errorf("%v should have no parent", b)
		}
		if b.Sibling() != None {
			t.Errorf("%v should have no sibling", b)
		}
		if b.IsLeft() || b.IsRight() {
			t.Errorf("%v should be neither left nor right child", b)
		}
	}
	if None.IsBase() {
		t.Errorf("None is not a leaf")
	}
	if None.Left() != None {
		t.Errorf("None should have no children")
	}
	if got, want := All.Width(), uint64(1)<<63; got != want {
		t.Errorf("unexpected width of All, wanted %d, got %d", want, got)
	}
	if !Leaf(12345).Within(All) {
		t.Errorf("every node should be within All")
	}
	if None.Within(All) || Leaf(0).Within(None) {
		t.Errorf("None should not be part of any containment relation")
	}
}

func TestBin_Within(t *testing.T) {
	root := New(2, 1) // chunks 4..7
	for i := uint64(0); i < 12; i++ {
		want := i >= 4 && i < 8
		if got := Leaf(i).Within(root); got != want {
			t.Errorf("unexpected containment of leaf %d, wanted %t, got %t", i, want, got)
		}
	}
	if !root.Within(root) {
		t.Errorf("a node should be within itself")
	}
	if root.Within(root.Left()) {
		t.Errorf("a node should not be within its child")
	}
	if !root.Contains(root.Right().Left()) {
		t.Errorf("a node should contain its grand children")
	}
}

func TestBin_Ancestor(t *testing.T) {
	leaf := Leaf(6)
	if got, want := leaf.Ancestor(0), leaf; got != want {
		t.Errorf("unexpected ancestor in own layer, wanted %v, got %v", want, got)
	}
	if got, want := leaf.Ancestor(2), New(2, 1); got != want {
		t.Errorf("unexpected ancestor, wanted %v, got %v", want, got)
	}
	if got := New(3, 0).Ancestor(1); got != None {
		t.Errorf("ancestor below the node should be None, got %v", got)
	}
}

func TestBin_OrderIsInOrderTraversal(t *testing.T) {
	// In-order traversal of the tree of 4 leaves.
	want := []Bin{Leaf(0), New(1, 0), Leaf(1), New(2, 0), Leaf(2), New(1, 1), Leaf(3)}
	for i := 1; i < len(want); i++ {
		if want[i-1] >= want[i] {
			t.Errorf("bins not ordered: %v >= %v", want[i-1], want[i])
		}
	}
}

func TestBin_String(t *testing.T) {
	tests := map[Bin]string{
		None:      "NONE",
		All:       "ALL",
		Leaf(3):   "(0,3)",
		New(4, 2): "(4,2)",
	}
	for b, want := range tests {
		if got := b.String(); got != want {
			t.Errorf("unexpected print, wanted %s, got %s", want, got)
		}
	}
}

func TestPeaks_DecomposeSizes(t *testing.T) {
	tests := []struct {
		size uint64
		want []Bin
	}{
		{0, []Bin{}},
		{1, []Bin{Leaf(0)}},
		{2, []Bin{New(1, 0)}},
		{3, []Bin{New(1, 0), Leaf(2)}},
		{7, []Bin{New(2, 0), New(1, 2), Leaf(6)}},
		{8, []Bin{New(3, 0)}},
		{13, []Bin{New(3, 0), New(2, 2), Leaf(12)}},
	}
	for _, test := range tests {
		got := Peaks(test.size)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("unexpected peaks of %d (-want +got):\n%s", test.size, diff)
		}
	}
}

func TestPeaks_AreContiguousAndShrinking(t *testing.T) {
	for size := uint64(1); size < 1000; size++ {
		peaks := Peaks(size)
		if peaks[0].BaseOffset() != 0 {
			t.Fatalf("first peak of %d does not start at 0: %v", size, peaks[0])
		}
		total := peaks[0].Width()
		for i := 1; i < len(peaks); i++ {
			if peaks[i].BaseOffset() != peaks[i-1].BaseOffset()+peaks[i-1].Width() {
				t.Errorf("peaks %v and %v of %d are not contiguous", peaks[i-1], peaks[i], size)
			}
			if peaks[i].Layer() >= peaks[i-1].Layer() {
				t.Errorf("peaks %v and %v of %d are not shrinking", peaks[i-1], peaks[i], size)
			}
			total += peaks[i].Width()
		}
		if total != size {
			t.Errorf("peaks of %d cover %d chunks", size, total)
		}
	}
}

func TestCover_IsSmallestCoveringNode(t *testing.T) {
	if Cover(0) != None {
		t.Errorf("empty content should not be covered")
	}
	tests := map[uint64]Bin{
		1: Leaf(0),
		2: New(1, 0),
		3: New(2, 0),
		4: New(2, 0),
		5: New(3, 0),
	}
	for size, want := range tests {
		if got := Cover(size); got != want {
			t.Errorf("unexpected cover of %d, wanted %v, got %v", size, want, got)
		}
	}
}

func FuzzBin_NavigationLaws(f *testing.F) {
	f.Add(uint8(0), uint64(0))
	f.Add(uint8(3), uint64(17))
	f.Add(uint8(40), uint64(1))
	f.Fuzz(func(t *testing.T, layer uint8, offset uint64) {
		l := int(layer % 40)
		offset = offset % (1 << 20)
		b := New(l, offset)
		if b.Layer() != l || b.Offset() != offset {
			t.Fatalf("failed to restore (%d,%d) from %v", l, offset, b)
		}
		p := b.Parent()
		if p.Layer() != l+1 || p.Offset() != offset/2 {
			t.Errorf("unexpected parent of %v: %v", b, p)
		}
		if !b.Within(p) || p.Within(b) {
			t.Errorf("inconsistent containment of %v and parent %v", b, p)
		}
		s := b.Sibling()
		if s.Parent() != p || s.Sibling() != b || s == b {
			t.Errorf("inconsistent sibling %v of %v", s, b)
		}
		if b.IsLeft() == s.IsLeft() {
			t.Errorf("%v and its sibling %v are on the same side", b, s)
		}
		if b.IsLeft() {
			if p.Left() != b || p.Right() != s {
				t.Errorf("children of %v are not %v and %v", p, b, s)
			}
		} else if p.Right() != b || p.Left() != s {
			t.Errorf("children of %v are not %v and %v", p, s, b)
		}
		if b.BaseOffset() != offset<<uint(l) || b.Width() != 1<<uint(l) {
			t.Errorf("unexpected base range of %v", b)
		}
		if b.BaseLeft() != Leaf(b.BaseOffset()) || b.BaseRight() != Leaf(b.BaseOffset()+b.Width()-1) {
			t.Errorf("unexpected base bins of %v", b)
		}
	})
}
