// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package hashtree verifies content exchanged between peers against a Merkle
// hash tree over fixed-size chunks. A tree is either seeded from complete
// content, deriving its root hash, or bootstrapped from a known root hash,
// accepting peak hashes, hashes and chunks offered by untrusted peers in any
// order.
package hashtree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
	"github.com/libswift/swift-go/backend/binmap"
	"github.com/libswift/swift-go/backend/datastore"
	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/common"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"
)

type peak struct {
	bin  bin.Bin
	hash common.Hash
}

// HashTree controls the integrity of one piece of content. It is not safe
// for concurrent use; callers have to serialize access.
type HashTree struct {
	data   datastore.DataStorage
	hashes hashstore.HashStorage
	config Config

	root  common.Hash
	peaks []peak

	size      uint64 // in bytes, 0 while unknown
	sizeK     uint64 // in chunks
	complete  uint64 // verified bytes
	completeK uint64 // verified chunks

	ack AckBitmap
	// proven holds the bins whose stored hash is chained to a trusted peak,
	// indexed by bin number.
	proven *bitset.BitSet
}

// NewHashTree creates a tree over the given storages. If root is the zero
// hash, data must hold the complete content and the root is derived from it.
// Otherwise, the progress retained in the storages is recovered and the tree
// waits for hashes and data offered by peers. On failure, storages not
// marked as shared in the config are closed.
func NewHashTree(data datastore.DataStorage, hashes hashstore.HashStorage, root common.Hash, config Config) (*HashTree, error) {
	config = config.withDefaults()
	tree := &HashTree{
		data:   data,
		hashes: hashes,
		config: config,
		root:   root,
		ack:    config.AckBitmap,
		proven: bitset.New(0),
	}
	if !data.Valid() || !hashes.Valid() {
		return nil, errors.Join(ErrInvalidStorage, tree.Close())
	}
	var err error
	if root.IsZero() {
		err = tree.submit()
	} else {
		err = tree.recoverProgress()
	}
	if err != nil {
		return nil, errors.Join(err, tree.Close())
	}
	return tree, nil
}

func (t *HashTree) chunkSize() uint64 {
	return uint64(t.config.ChunkSize)
}

func (t *HashTree) reset() {
	t.size, t.sizeK, t.complete, t.completeK = 0, 0, 0, 0
	t.ack.Clear()
}

// submit hashes the complete content held by the data storage.
func (t *HashTree) submit() error {
	size, err := t.data.Size()
	if err != nil {
		return fmt.Errorf("failed to get content size: %w", err)
	}
	if size <= 0 {
		return ErrEmptyContent
	}
	chunk := t.chunkSize()
	t.size = uint64(size)
	t.sizeK = (t.size + chunk - 1) / chunk
	peakBins := bin.Peaks(t.sizeK)
	if err := t.hashes.SetCapacity(t.sizeK); err != nil {
		klog.Errorf("failed to reserve hashes for %d chunks: %v", t.sizeK, err)
		t.reset()
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}

	if _, err := t.data.Seek(0, io.SeekStart); err != nil {
		t.reset()
		return fmt.Errorf("failed to rewind content: %w", err)
	}
	buffer := make([]byte, chunk)
	for i := uint64(0); i < t.sizeK; i++ {
		n, err := io.ReadFull(t.data, buffer)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			t.reset()
			return fmt.Errorf("failed to read chunk %d: %w", i, err)
		}
		if n == 0 || (uint64(n) < chunk && i != t.sizeK-1) {
			klog.Warningf("content shrunk to %d chunks while hashing %d", i, t.sizeK)
			t.reset()
			return ErrContentShrunk
		}
		leaf := bin.Leaf(i)
		if err := t.hashes.Set(leaf, common.HashOf(buffer[:n])); err != nil {
			t.reset()
			return fmt.Errorf("failed to store hash of chunk %d: %w", i, err)
		}
		t.ack.Set(leaf)
		t.complete += uint64(n)
		t.completeK++
	}

	t.peaks = t.peaks[:0]
	for _, p := range peakBins {
		for layer := 1; layer <= p.Layer(); layer++ {
			first := p.BaseOffset() >> uint(layer)
			for offset := first; offset < first+(p.Width()>>uint(layer)); offset++ {
				if err := hashstore.HashLeftRight(t.hashes, bin.New(layer, offset)); err != nil {
					t.reset()
					return fmt.Errorf("failed to hash node %v: %w", bin.New(layer, offset), err)
				}
			}
		}
		t.peaks = append(t.peaks, peak{bin: p, hash: t.hashes.Get(p)})
		t.setProven(p)
	}
	t.root = t.deriveRoot()
	klog.V(1).Infof("seeded content of %d bytes, root %v", t.size, t.root)
	return nil
}

// recoverProgress re-establishes the state of a previous session from the
// peak hashes and content found in the storages.
func (t *HashTree) recoverProgress() error {
	size, err := t.data.Size()
	if err != nil {
		return fmt.Errorf("failed to get content size: %w", err)
	}
	chunk := t.chunkSize()
	for _, p := range bin.Peaks((uint64(size) + chunk - 1) / chunk) {
		t.OfferPeakHash(p, t.hashes.Get(p))
	}
	if t.size == 0 {
		t.peaks = t.peaks[:0]
		klog.V(2).Infof("no valid peak hashes for %v stored, waiting for peers", t.root)
		return nil
	}

	zeros := make([]byte, chunk)
	zeroChunkHash := common.HashOf(zeros)
	buffer := make([]byte, chunk)
	for i := uint64(0); i < t.sizeK; i++ {
		leaf := bin.Leaf(i)
		stored := t.hashes.Get(leaf)
		if stored.IsZero() {
			continue
		}
		n, err := datastore.ReadBin(t.data, leaf, t.config.ChunkSize, buffer)
		if err != nil {
			return fmt.Errorf("failed to read chunk %d: %w", i, err)
		}
		last := i == t.sizeK-1
		if n == 0 || (uint64(n) != chunk && !last) {
			break
		}
		// Sparse files read back zeros for chunks never written.
		if uint64(n) == chunk && bytes.Equal(buffer, zeros) && stored != zeroChunkHash {
			continue
		}
		if t.config.DataRecheck {
			if !t.OfferHash(leaf, common.HashOf(buffer[:n])) {
				continue
			}
		} else {
			peak := t.PeakFor(leaf)
			for q := leaf; q != peak; q = q.Parent() {
				t.setProven(q)
				t.setProven(q.Sibling())
			}
		}
		t.ack.Set(leaf)
		t.completeK++
		t.complete += uint64(n)
		if uint64(n) != chunk && last {
			t.size = (t.sizeK-1)*chunk + uint64(n)
		}
	}
	klog.V(2).Infof("recovered %d of %d chunks of %v", t.completeK, t.sizeK, t.root)
	return nil
}

// OfferPeakHash offers the hash of a peak while the size of the content is
// unknown. Peaks have to be offered from the largest to the smallest; a peak
// not extending the peaks offered so far starts a new candidate set. Once the
// candidate set adds up to the root hash, the size of the content becomes
// known and true is returned.
func (t *HashTree) OfferPeakHash(b bin.Bin, hash common.Hash) bool {
	if t.size != 0 || b.IsNone() || b.IsAll() {
		return false
	}
	if n := len(t.peaks); n > 0 {
		last := t.peaks[n-1].bin
		if b.Layer() >= last.Layer() || b.BaseOffset() != last.BaseOffset()+last.Width() {
			t.peaks = t.peaks[:0]
		}
	}
	t.peaks = append(t.peaks, peak{bin: b, hash: hash})
	if t.deriveRoot() != t.root {
		return false
	}

	chunk := t.chunkSize()
	var sizeK uint64
	for _, p := range t.peaks {
		sizeK += p.bin.Width()
	}
	t.sizeK = sizeK
	t.size = sizeK * chunk
	t.complete, t.completeK = 0, 0

	current, err := t.data.Size()
	if err != nil || uint64(current) <= (sizeK-1)*chunk || uint64(current) > sizeK*chunk {
		if err == nil {
			err = t.data.Resize(int64(t.size))
		}
		if err != nil {
			klog.Errorf("cannot set content size of %v to %d: %v", t.root, t.size, err)
			t.reset()
			return false
		}
	}
	if err := t.hashes.SetCapacity(sizeK); err != nil {
		klog.Errorf("cannot reserve hashes of %v for %d chunks: %v", t.root, sizeK, err)
		t.reset()
		return false
	}
	t.proven = bitset.New(uint(hashstore.Entries(sizeK)))
	for _, p := range t.peaks {
		if err := t.hashes.Set(p.bin, p.hash); err != nil {
			klog.Errorf("cannot store peak hash of %v: %v", p.bin, err)
			t.reset()
			return false
		}
		t.setProven(p.bin)
	}
	klog.V(1).Infof("accepted %d peaks of %v, content has %d chunks", len(t.peaks), t.root, sizeK)
	return true
}

// deriveRoot folds the peak hashes into the root hash. Starting at the last
// peak, a left child is combined with a zero sibling and a right child with
// the preceding peak, until all peaks are consumed and the current node
// starts at the first chunk. The zero hash is returned if the peaks do not
// form a valid set.
func (t *HashTree) deriveRoot() common.Hash {
	c := len(t.peaks) - 1
	if c < 0 {
		return common.ZeroHash
	}
	p := t.peaks[c].bin
	hash := t.peaks[c].hash
	c--
	for c >= 0 || p.BaseOffset() != 0 {
		if p.IsLeft() {
			hash = common.HashPair(hash, common.ZeroHash)
		} else {
			if c < 0 || t.peaks[c].bin != p.Sibling() {
				return common.ZeroHash
			}
			hash = common.HashPair(t.peaks[c].hash, hash)
			c--
		}
		p = p.Parent()
		if p.IsNone() {
			return common.ZeroHash
		}
	}
	return hash
}

// OfferHash offers the hash of the given bin. While the size of the content
// is unknown, the offer is handled as a peak hash. Otherwise the hash is
// stored and, for leaves, verified by recomputing the hashes on the way up to
// the closest proven ancestor. The result reports whether the hash has been
// verified. Unverified hashes are retained, they may be proven once missing
// sibling hashes arrive.
func (t *HashTree) OfferHash(b bin.Bin, hash common.Hash) bool {
	if t.size == 0 {
		return t.OfferPeakHash(b, hash)
	}
	peak := t.PeakFor(b)
	if peak.IsNone() {
		return false
	}
	if peak == b || t.isProven(b) {
		return hash == t.hashes.Get(b)
	}
	// Hashes below a node covering acked chunks are trusted and never replaced.
	if t.ack.Get(b.Parent()) != binmap.Empty {
		return hash == t.hashes.Get(b)
	}
	if err := t.hashes.Set(b, hash); err != nil {
		klog.Errorf("failed to store hash of %v: %v", b, err)
		return false
	}
	if !b.IsBase() {
		return false
	}

	p := b
	uphash := hash
	for p != peak && !t.isProven(p) && t.ack.Get(p) == binmap.Empty {
		if err := t.hashes.Set(p, uphash); err != nil {
			klog.Errorf("failed to store hash of %v: %v", p, err)
			return false
		}
		p = p.Parent()
		uphash = common.HashPair(t.hashes.Get(p.Left()), t.hashes.Get(p.Right()))
	}
	if uphash != t.hashes.Get(p) {
		klog.V(3).Infof("hash of %v does not match proven hash of %v", b, p)
		return false
	}
	for q := b; q != p; q = q.Parent() {
		t.setProven(q)
		t.setProven(q.Sibling())
	}
	return true
}

// OfferData offers the content of the chunk covered by the given leaf. All
// chunks but the last have to be complete. The data is written to the data
// storage if its hash can be verified. The result reports whether the chunk
// is verified and retained.
func (t *HashTree) OfferData(b bin.Bin, data []byte) bool {
	if t.size == 0 || !b.IsBase() {
		return false
	}
	chunk := t.chunkSize()
	length := uint64(len(data))
	last := bin.Leaf(t.sizeK - 1)
	if length == 0 || length > chunk || (length < chunk && b != last) {
		return false
	}
	if t.ack.Get(b) == binmap.Filled {
		return true
	}
	if t.PeakFor(b).IsNone() {
		return false
	}
	if !t.OfferHash(b, common.HashOf(data)) {
		klog.V(3).Infof("rejected data of %v for %v", b, t.root)
		return false
	}
	if _, err := datastore.WriteBin(t.data, b, t.config.ChunkSize, data); err != nil {
		klog.Errorf("failed to write chunk %v of %v: %v", b, t.root, err)
		return false
	}
	t.ack.Set(b)
	t.complete += length
	t.completeK++
	if b == last {
		t.size = (t.sizeK-1)*chunk + length
		if current, err := t.data.Size(); err == nil && uint64(current) != t.size {
			if err := t.data.Resize(int64(t.size)); err != nil {
				klog.Errorf("failed to trim content of %v to %d bytes: %v", t.root, t.size, err)
			}
		}
	}
	return true
}

func (t *HashTree) isProven(b bin.Bin) bool {
	return t.proven.Test(uint(b))
}

func (t *HashTree) setProven(b bin.Bin) {
	if !b.IsNone() {
		t.proven.Set(uint(b))
	}
}

// PeakFor returns the peak covering the given bin, or bin.None if the bin is
// not covered by any peak.
func (t *HashTree) PeakFor(b bin.Bin) bin.Bin {
	if b.IsNone() {
		return bin.None
	}
	i, _ := slices.BinarySearchFunc(t.peaks, b, func(p peak, target bin.Bin) int {
		if p.bin.BaseRight() < target {
			return -1
		}
		return 1
	})
	if i < len(t.peaks) && b.Within(t.peaks[i].bin) {
		return t.peaks[i].bin
	}
	return bin.None
}

// RootHash returns the root hash identifying the content.
func (t *HashTree) RootHash() common.Hash {
	return t.root
}

// Size returns the size of the content in bytes, 0 while unknown.
func (t *HashTree) Size() uint64 {
	return t.size
}

// PacketSize returns the size of the content in chunks.
func (t *HashTree) PacketSize() uint64 {
	return t.sizeK
}

// Complete returns the number of verified bytes.
func (t *HashTree) Complete() uint64 {
	return t.complete
}

// PacketsComplete returns the number of verified chunks.
func (t *HashTree) PacketsComplete() uint64 {
	return t.completeK
}

// SeqComplete returns the number of bytes verified without gap from the
// start of the content.
func (t *HashTree) SeqComplete() uint64 {
	seqK := t.ack.SeqLength()
	if seqK >= t.sizeK {
		return t.size
	}
	return seqK * t.chunkSize()
}

// IsComplete reports whether all the content is verified.
func (t *HashTree) IsComplete() bool {
	return t.size != 0 && t.completeK == t.sizeK
}

// PeakCount returns the number of peaks.
func (t *HashTree) PeakCount() int {
	return len(t.peaks)
}

// Peak returns the bin of the i-th peak.
func (t *HashTree) Peak(i int) bin.Bin {
	return t.peaks[i].bin
}

// PeakHash returns the hash of the i-th peak.
func (t *HashTree) PeakHash(i int) common.Hash {
	return t.peaks[i].hash
}

// Hash returns the hash stored for the given bin.
func (t *HashTree) Hash(b bin.Bin) common.Hash {
	return t.hashes.Get(b)
}

// AckOut returns the bitmap of verified chunks.
func (t *HashTree) AckOut() AckBitmap {
	return t.ack
}

// ChunkSize returns the size of the chunks covered by leaves.
func (t *HashTree) ChunkSize() int {
	return t.config.ChunkSize
}

// DataStorage returns the storage holding the content.
func (t *HashTree) DataStorage() datastore.DataStorage {
	return t.data
}

func (t *HashTree) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(0)
	mf.AddChild("hashes", t.hashes.GetMemoryFootprint())
	if provider, ok := t.ack.(common.MemoryFootprintProvider); ok {
		mf.AddChild("ack", provider.GetMemoryFootprint())
	}
	mf.AddChild("proven", common.NewMemoryFootprint(uintptr(len(t.proven.Bytes()))*unsafe.Sizeof(uint64(0))))
	return mf
}

// Flush persists both storages.
func (t *HashTree) Flush() error {
	return errors.Join(t.data.Flush(), t.hashes.Flush())
}

// Close flushes both storages and closes those owned by the tree.
func (t *HashTree) Close() error {
	var errs []error
	if t.config.SharedDataStorage {
		errs = append(errs, t.data.Flush())
	} else {
		errs = append(errs, t.data.Close())
	}
	if t.config.SharedHashStorage {
		errs = append(errs, t.hashes.Flush())
	} else {
		errs = append(errs, t.hashes.Close())
	}
	return errors.Join(errs...)
}
