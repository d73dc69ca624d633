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

import "github.com/libswift/swift-go/common"

const (
	// ErrInvalidStorage is reported if a storage handed to a tree is unusable.
	ErrInvalidStorage = common.ConstError("invalid storage")
	// ErrEmptyContent is reported when seeding a tree from empty content.
	ErrEmptyContent = common.ConstError("content is empty")
	// ErrContentShrunk is reported if content got shorter while being hashed.
	ErrContentShrunk = common.ConstError("content shrunk while hashing")
	// ErrCapacity is reported if the hash storage could not be resized.
	ErrCapacity = common.ConstError("failed to reserve hash capacity")
)
