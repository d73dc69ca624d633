// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashLength is the number of bytes of a content hash.
const HashLength = sha1.Size

// Hash is a SHA-1 digest identifying a chunk or a subtree of content.
type Hash [HashLength]byte

// ZeroHash marks a hash value as unknown. It is never the digest of any
// content actually exchanged, it only means "not yet computed or received".
var ZeroHash = Hash{}

// HashOf computes the hash of a chunk of content.
func HashOf(data []byte) Hash {
	return Hash(sha1.Sum(data))
}

// HashPair computes the hash of an internal tree node out of the hashes of
// its left and right child.
func HashPair(left, right Hash) Hash {
	var buffer [2 * HashLength]byte
	copy(buffer[:HashLength], left[:])
	copy(buffer[HashLength:], right[:])
	return Hash(sha1.Sum(buffer[:]))
}

// IsZero is true if the hash is the ZeroHash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Hex provides the lower-case hexadecimal form of the hash.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// ParseHash restores a hash from its hexadecimal form.
func ParseHash(str string) (Hash, error) {
	var res Hash
	if len(str) != 2*HashLength {
		return res, fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidHash, 2*HashLength, len(str))
	}
	if _, err := hex.Decode(res[:], []byte(str)); err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return res, nil
}

// HashFromBytes copies a raw hash out of a byte slice of HashLength bytes.
func HashFromBytes(raw []byte) (Hash, error) {
	var res Hash
	if len(raw) != HashLength {
		return res, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHash, HashLength, len(raw))
	}
	copy(res[:], raw)
	return res, nil
}

const ErrInvalidHash = ConstError("invalid hash")
