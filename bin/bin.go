// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package bin implements the binary interval numbering of the nodes of an
// infinite complete binary tree used to address chunks and hashes of content.
//
// A node in layer l with offset o within that layer is mapped to the number
//
//	2*o*2^l + 2^l - 1
//
// Leaves (layer 0) therefore get even numbers, and each node's number is the
// center of the interval of leaf numbers it covers. An in-order traversal of
// the tree visits the nodes in ascending numeric order.
package bin

import (
	"fmt"
	"math/bits"
)

// Bin identifies a node of the tree.
type Bin uint64

const (
	// All is the root of the complete tree covering the whole address space.
	All Bin = 0x7FFFFFFFFFFFFFFF
	// None marks the absence of a node.
	None Bin = 0xFFFFFFFFFFFFFFFF
)

// MaxLayer is the highest layer a bin other than All may have.
const MaxLayer = 62

// New returns the bin of the given layer and offset. The layer must not
// exceed 63 and the offset must be representable in the remaining bits.
func New(layer int, offset uint64) Bin {
	return Bin((2*offset+1)<<uint(layer) - 1)
}

// Leaf returns the bin covering the chunk with the given index.
func Leaf(index uint64) Bin {
	return Bin(2 * index)
}

// Layer returns the height of the node above the leaves. None has no layer
// and reports -1.
func (b Bin) Layer() int {
	if b == None {
		return -1
	}
	return bits.TrailingZeros64(^uint64(b))
}

// layerBits returns the mask 2^layer-1 of the trailing one bits.
func (b Bin) layerBits() uint64 {
	return (uint64(b) ^ (uint64(b) + 1)) >> 1
}

// Offset returns the position of the node within its layer.
func (b Bin) Offset() uint64 {
	if b == None {
		return 0
	}
	return uint64(b) >> uint(b.Layer()+1)
}

// Width returns the number of leaves covered by this node.
func (b Bin) Width() uint64 {
	if b == None {
		return 0
	}
	return b.layerBits() + 1
}

// BaseOffset returns the index of the first chunk covered by this node.
func (b Bin) BaseOffset() uint64 {
	return (uint64(b) - b.layerBits()) >> 1
}

// BaseLeft returns the leftmost leaf covered by this node.
func (b Bin) BaseLeft() Bin {
	if b == None {
		return None
	}
	return Bin(uint64(b) - b.layerBits())
}

// BaseRight returns the rightmost leaf covered by this node.
func (b Bin) BaseRight() Bin {
	if b == None {
		return None
	}
	return Bin(uint64(b) + b.layerBits())
}

// IsBase reports whether the node is a leaf.
func (b Bin) IsBase() bool {
	return b != None && b&1 == 0
}

// IsNone reports whether b is the None sentinel.
func (b Bin) IsNone() bool {
	return b == None
}

// IsAll reports whether b is the root of the complete tree.
func (b Bin) IsAll() bool {
	return b == All
}

// IsLeft reports whether the node is the left child of its parent.
func (b Bin) IsLeft() bool {
	if b == None || b == All {
		return false
	}
	return uint64(b)&((b.layerBits()+1)<<1) == 0
}

// IsRight reports whether the node is the right child of its parent.
func (b Bin) IsRight() bool {
	if b == None || b == All {
		return false
	}
	return !b.IsLeft()
}

// Parent returns the node one layer up that covers this node.
func (b Bin) Parent() Bin {
	if b == None || b == All {
		return None
	}
	t := b.layerBits() + 1
	return Bin((uint64(b) | t) &^ (t << 1))
}

// Sibling returns the other child of this node's parent.
func (b Bin) Sibling() Bin {
	if b == None || b == All {
		return None
	}
	return Bin(uint64(b) ^ (b.layerBits()+1)<<1)
}

// Left returns the left child of this node, or None for leaves.
func (b Bin) Left() Bin {
	if b == None || b.IsBase() {
		return None
	}
	return Bin(uint64(b) ^ (b.layerBits()+1)>>1)
}

// Right returns the right child of this node, or None for leaves.
func (b Bin) Right() Bin {
	if b == None || b.IsBase() {
		return None
	}
	return Bin(uint64(b) + (b.layerBits()+1)>>1)
}

// Within reports whether this node is contained in the subtree rooted at o.
// Every node is within itself.
func (b Bin) Within(o Bin) bool {
	if b == None || o == None {
		return false
	}
	t := o.layerBits()
	return uint64(o)-t <= uint64(b) && uint64(b) <= uint64(o)+t
}

// Contains reports whether o is within the subtree rooted at this node.
func (b Bin) Contains(o Bin) bool {
	return o.Within(b)
}

// Ancestor returns the node in the given layer covering this node, or None
// if this node is above that layer.
func (b Bin) Ancestor(layer int) Bin {
	if b == None || layer < b.Layer() || layer > 63 {
		return None
	}
	return New(layer, b.BaseOffset()>>uint(layer))
}

func (b Bin) String() string {
	switch b {
	case None:
		return "NONE"
	case All:
		return "ALL"
	}
	return fmt.Sprintf("(%d,%d)", b.Layer(), b.Offset())
}
