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

import "math/bits"

// Peaks decomposes content of the given number of chunks into the minimal
// list of complete subtrees covering it. There is one subtree per set bit of
// size, ordered from the largest, covering the first chunks, to the smallest,
// covering the tail.
func Peaks(size uint64) []Bin {
	res := make([]Bin, 0, bits.OnesCount64(size))
	var pos uint64
	for layer := 63; layer >= 0; layer-- {
		width := uint64(1) << uint(layer)
		if size&width == 0 {
			continue
		}
		res = append(res, New(layer, pos>>uint(layer)))
		pos += width
	}
	return res
}

// Cover returns the smallest node that covers all chunks in [0, size), or
// None if size is zero.
func Cover(size uint64) Bin {
	if size == 0 {
		return None
	}
	layer := bits.Len64(size - 1)
	return New(layer, 0)
}
