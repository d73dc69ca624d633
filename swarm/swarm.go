// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package swarm

import (
	"time"

	"github.com/libswift/swift-go/common"
	"github.com/libswift/swift-go/hashtree"
)

// Swarm is a transfer known to a Registry. Only active swarms hold an open
// hash tree; for inactive swarms the progress observed when they were last
// deactivated is retained.
type Swarm struct {
	registry *Registry
	id       int
	path     string
	root     common.Hash

	active        bool
	latestUse     time.Time
	toBeRemoved   bool
	removeState   bool
	removeContent bool
	tree          *hashtree.HashTree

	cached           bool
	cachedSize       uint64
	cachedComplete   uint64
	cachedIsComplete bool
}

// ID returns the numeric identifier of the swarm, -1 once it got removed.
func (s *Swarm) ID() int {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.id
}

// RootHash returns the root hash identifying the content of the swarm.
func (s *Swarm) RootHash() common.Hash {
	return s.root
}

// Path returns the location of the content of the swarm.
func (s *Swarm) Path() string {
	return s.path
}

func (s *Swarm) IsActive() bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.active
}

// ToBeRemoved reports whether the swarm is waiting to be removed once it is
// no longer in use.
func (s *Swarm) ToBeRemoved() bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.toBeRemoved
}

// Touch records a use of an active swarm, delaying its deactivation. It
// returns false if the swarm is not active.
func (s *Swarm) Touch() bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	return s.touch()
}

func (s *Swarm) touch() bool {
	if !s.active {
		return false
	}
	s.latestUse = s.registry.config.Clock.Now()
	return true
}

// Tree returns the hash tree of an active swarm, nil if the swarm is not
// active. If touch is set, the use is recorded as by Touch.
func (s *Swarm) Tree(touch bool) *hashtree.HashTree {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if touch {
		if !s.touch() {
			return nil
		}
	} else if !s.active {
		return nil
	}
	return s.tree
}

// Size returns the content size in bytes, 0 if it is not known.
func (s *Swarm) Size() uint64 {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if s.tree != nil {
		return s.tree.Size()
	}
	if s.cached {
		return s.cachedSize
	}
	return 0
}

// Complete returns the number of verified bytes.
func (s *Swarm) Complete() uint64 {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if s.tree != nil {
		return s.tree.Complete()
	}
	if s.cached {
		return s.cachedComplete
	}
	return 0
}

func (s *Swarm) IsComplete() bool {
	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if s.tree != nil {
		return s.tree.IsComplete()
	}
	return s.cached && s.cachedIsComplete
}
