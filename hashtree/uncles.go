// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package hashtree

import "github.com/libswift/swift-go/bin"

// Uncles returns the bins whose hashes a receiver needs, in addition to the
// peak hashes, to verify the chunk covered by b. The bins are ordered from
// the peak down to the sibling of b, the order in which they are sent to
// peers. The result is empty if b is a peak or not covered by any peak.
func (t *HashTree) Uncles(b bin.Bin) []bin.Bin {
	peak := t.PeakFor(b)
	if peak.IsNone() {
		return nil
	}
	res := make([]bin.Bin, 0, peak.Layer()-b.Layer())
	for p := b; p != peak; p = p.Parent() {
		res = append(res, p.Sibling())
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}
