// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package binmap provides a bitmap over the leaves of the bin tree tracking
// which chunks of a piece of content have been received and verified.
package binmap

import (
	"unsafe"

	"github.com/bits-and-blooms/bitset"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
)

// State describes the fill level of the leaves covered by a bin.
type State int

const (
	// Empty means no leaf covered by the bin is set.
	Empty State = iota
	// Filled means all leaves covered by the bin are set.
	Filled
	// Mixed means some, but not all, leaves are set.
	Mixed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Filled:
		return "filled"
	case Mixed:
		return "mixed"
	}
	return "unknown"
}

// MaxSetWidth is the widest bin that may be passed to Set.
const MaxSetWidth = 1 << 40

// Binmap records a set of leaves. The zero value is not usable, instances
// have to be created using New. A Binmap is not safe for concurrent use.
type Binmap struct {
	bits *bitset.BitSet
}

// New creates an empty binmap.
func New() *Binmap {
	return &Binmap{bits: bitset.New(0)}
}

// Set marks all leaves covered by b. Bins wider than MaxSetWidth are ignored.
func (m *Binmap) Set(b bin.Bin) {
	first, end, ok := leafRange(b)
	if !ok {
		return
	}
	for i := first; i < end; i++ {
		m.bits.Set(uint(i))
	}
}

// Get reports whether the leaves covered by b are all, partially or not set.
func (m *Binmap) Get(b bin.Bin) State {
	if b.IsNone() {
		return Empty
	}
	first := b.BaseOffset()
	end := first + b.Width()
	if next, found := m.bits.NextSet(uint(first)); !found || uint64(next) >= end {
		return Empty
	}
	if m.nextClear(first) >= end {
		return Filled
	}
	return Mixed
}

// SeqLength returns the number of leaves set contiguously from leaf 0.
func (m *Binmap) SeqLength() uint64 {
	return m.nextClear(0)
}

// FindEmpty returns the first leaf at or after from that is not set.
func (m *Binmap) FindEmpty(from uint64) bin.Bin {
	return bin.Leaf(m.nextClear(from))
}

// Count returns the number of set leaves.
func (m *Binmap) Count() uint64 {
	return uint64(m.bits.Count())
}

// Clear resets all leaves.
func (m *Binmap) Clear() {
	m.bits.ClearAll()
}

func (m *Binmap) GetMemoryFootprint() *common.MemoryFootprint {
	words := uintptr(len(m.bits.Bytes())) * unsafe.Sizeof(uint64(0))
	return common.NewMemoryFootprint(unsafe.Sizeof(*m) + unsafe.Sizeof(*m.bits) + words)
}

// nextClear returns the index of the first unset leaf at or after from.
func (m *Binmap) nextClear(from uint64) uint64 {
	if next, found := m.bits.NextClear(uint(from)); found {
		return uint64(next)
	}
	// All bits from `from` up to the length of the set are set.
	if lim := uint64(m.bits.Len()); from < lim {
		return lim
	}
	return from
}

func leafRange(b bin.Bin) (first, end uint64, ok bool) {
	if b.IsNone() || b.Width() > MaxSetWidth {
		return 0, 0, false
	}
	first = b.BaseOffset()
	return first, first + b.Width(), true
}
