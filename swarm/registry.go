// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package swarm keeps track of the transfers known to a peer. Every swarm is
// identified by the root hash of its content and by a small numeric id. The
// number of swarms with an open hash tree is bounded; swarms idle for long
// enough are deactivated to make room for others.
package swarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/libswift/swift-go/common"
	"github.com/libswift/swift-go/common/ticker"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"
)

const (
	ErrUnknownSwarm   = common.ConstError("unknown swarm")
	ErrRemovalPending = common.ConstError("swarm is about to be removed")
	ErrTooManyActive  = common.ConstError("too many active swarms")
)

const indexDegree = 16

type unusedID struct {
	id    int
	since time.Time
}

// Registry is the set of swarms known to a peer. It is safe for concurrent
// use; the hash trees it hands out are not.
type Registry struct {
	mu     sync.Mutex
	config Config

	byRoot  *btree.BTreeG[*Swarm]
	byID    []*Swarm
	unused  []unusedID // ordered by release time
	pending map[int]*Swarm
	active  []*Swarm

	metrics *metrics
}

// NewRegistry creates an empty registry. An error is returned if the metrics
// of the registry can not be registered.
func NewRegistry(config Config) (*Registry, error) {
	config = config.withDefaults()
	m, err := newMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register swarm metrics: %w", err)
	}
	return &Registry{
		config: config,
		byRoot: btree.NewG[*Swarm](indexDegree, func(a, b *Swarm) bool {
			return bytes.Compare(a.root[:], b.root[:]) < 0
		}),
		pending: map[int]*Swarm{},
		metrics: m,
	}, nil
}

// Add registers the content at the given path. If root is the zero hash,
// the content is hashed to obtain its root hash first. If a swarm with the
// same root hash is known already, that swarm is returned. New swarms are
// activated if possible; failing to do so is not an error, the returned
// swarm is inactive in that case.
func (r *Registry) Add(path string, root common.Hash) (*Swarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &Swarm{registry: r, id: -1, path: path, root: root}
	if root.IsZero() {
		if err := r.open(s); err != nil {
			return nil, err
		}
	}
	if existing, found := r.byRoot.Get(s); found {
		if s.tree != nil {
			if err := s.tree.Close(); err != nil {
				klog.Errorf("failed to close duplicate of swarm %v: %v", s.root, err)
			}
		}
		return existing, nil
	}

	r.byRoot.ReplaceOrInsert(s)
	now := r.config.Clock.Now()
	if len(r.unused) > 0 && now.Sub(r.unused[0].since) > r.config.IndexReuseDelay {
		s.id = r.unused[0].id
		r.unused = r.unused[1:]
		r.byID[s.id] = s
	} else {
		s.id = len(r.byID)
		r.byID = append(r.byID, s)
	}
	r.metrics.known.Set(float64(r.byRoot.Len()))

	if err := r.activate(s); err != nil {
		klog.V(1).Infof("swarm %d (%v) added inactive: %v", s.id, s.root, err)
		if s.tree != nil {
			r.release(s)
		}
	}
	return s, nil
}

func (r *Registry) open(s *Swarm) error {
	tree, err := r.config.Factory.Open(s.path, s.root)
	if err != nil {
		return fmt.Errorf("failed to open swarm at %s: %w", s.path, err)
	}
	if s.root.IsZero() {
		s.root = tree.RootHash()
	}
	s.tree = tree
	s.cached = false
	return nil
}

// release closes the tree of a swarm, retaining its progress.
func (r *Registry) release(s *Swarm) error {
	s.cachedSize = s.tree.Size()
	s.cachedComplete = s.tree.Complete()
	s.cachedIsComplete = s.tree.IsComplete()
	s.cached = true
	err := s.tree.Close()
	s.tree = nil
	if err != nil {
		klog.Errorf("failed to close tree of swarm %v: %v", s.root, err)
		return fmt.Errorf("failed to close swarm %v: %w", s.root, err)
	}
	return nil
}

// Find returns the swarm with the given root hash, nil if there is none.
func (r *Registry) Find(root common.Hash) *Swarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(root)
}

func (r *Registry) find(root common.Hash) *Swarm {
	s, _ := r.byRoot.Get(&Swarm{root: root})
	return s
}

// FindByID returns the swarm with the given id, nil if there is none.
func (r *Registry) FindByID(id int) *Swarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

// Swarms lists all known swarms ordered by id.
func (r *Registry) Swarms() []*Swarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*Swarm, 0, r.byRoot.Len())
	for _, s := range r.byID {
		if s != nil {
			res = append(res, s)
		}
	}
	return res
}

// Activate opens the hash tree of the swarm with the given root hash. If
// the maximum number of active swarms is reached, the least recently used
// swarm idle for long enough is deactivated. ErrTooManyActive is returned if
// there is no such swarm.
func (r *Registry) Activate(root common.Hash) (*Swarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.find(root)
	if s == nil {
		return nil, ErrUnknownSwarm
	}
	if s.toBeRemoved {
		return nil, ErrRemovalPending
	}
	if err := r.activate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) activate(s *Swarm) error {
	if s.active {
		return nil
	}
	if len(r.active) >= r.config.MaxActive {
		done, err := r.deactivateOldest()
		if err != nil {
			return err
		}
		if !done {
			return ErrTooManyActive
		}
	}
	if s.tree == nil {
		if err := r.open(s); err != nil {
			return err
		}
	}
	s.active = true
	// Never touched swarms are the first candidates for deactivation.
	s.latestUse = time.Time{}
	r.active = append(r.active, s)
	r.metrics.active.Set(float64(len(r.active)))
	r.metrics.activations.Inc()
	return nil
}

// deactivateOldest deactivates the least recently used swarm not used for
// at least the configured idle time. It reports whether a swarm was found.
func (r *Registry) deactivateOldest() (bool, error) {
	threshold := r.config.Clock.Now().Add(-r.config.IdleBeforeDeactivate)
	var oldest *Swarm
	for _, s := range r.active {
		if s.latestUse.Before(threshold) && (oldest == nil || s.latestUse.Before(oldest.latestUse)) {
			oldest = s
		}
	}
	if oldest == nil {
		return false, nil
	}
	return true, r.deactivate(oldest)
}

func (r *Registry) deactivate(s *Swarm) error {
	s.active = false
	if i := slices.Index(r.active, s); i >= 0 {
		r.active[i] = r.active[len(r.active)-1]
		r.active = r.active[:len(r.active)-1]
	}
	r.metrics.active.Set(float64(len(r.active)))
	r.metrics.deactivations.Inc()

	var errs []error
	if s.tree != nil {
		errs = append(errs, r.release(s))
	}
	if s.toBeRemoved {
		delete(r.pending, s.id)
		errs = append(errs, r.remove(s))
	}
	return errors.Join(errs...)
}

// Remove forgets the swarm with the given root hash, optionally deleting the
// stored hashes and the content. Active swarms are only marked; they are
// removed by Maintain once they are idle.
func (r *Registry) Remove(root common.Hash, removeState, removeContent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.find(root)
	if s == nil {
		return ErrUnknownSwarm
	}
	s.removeState = removeState
	s.removeContent = removeContent
	if s.active {
		s.toBeRemoved = true
		r.pending[s.id] = s
		return nil
	}
	return r.remove(s)
}

func (r *Registry) remove(s *Swarm) error {
	r.byRoot.Delete(s)
	r.byID[s.id] = nil
	r.unused = append(r.unused, unusedID{id: s.id, since: r.config.Clock.Now()})
	s.id = -1
	r.metrics.known.Set(float64(r.byRoot.Len()))
	r.metrics.removals.Inc()

	var errs []error
	if s.removeState {
		errs = append(errs, r.config.Factory.RemoveState(s.path))
	}
	if s.removeContent {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", s.path, err))
		}
	}
	return errors.Join(errs...)
}

// Maintain removes swarms marked for removal once they are idle and
// deactivates swarms while more than the maximum number of swarms is active.
func (r *Registry) Maintain() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	threshold := r.config.Clock.Now().Add(-r.config.IdleBeforeDeactivate)
	ids := maps.Keys(r.pending)
	slices.Sort(ids)
	for _, id := range ids {
		if s := r.pending[id]; s.latestUse.Before(threshold) {
			errs = append(errs, r.deactivate(s))
		}
	}
	errs = append(errs, r.shrink(r.config.MaxActive))
	return errors.Join(errs...)
}

func (r *Registry) shrink(limit int) error {
	var errs []error
	for len(r.active) > limit {
		done, err := r.deactivateOldest()
		errs = append(errs, err)
		if !done {
			break
		}
	}
	return errors.Join(errs...)
}

// RunMaintenance calls Maintain on every tick until the context is done.
func (r *Registry) RunMaintenance(ctx context.Context, t ticker.Ticker) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if err := r.Maintain(); err != nil {
				klog.Errorf("swarm maintenance failed: %v", err)
			}
		}
	}
}

func (r *Registry) MaxActive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config.MaxActive
}

// SetMaxActive updates the limit of active swarms, deactivating idle swarms
// exceeding the new limit. Swarms still in use are deactivated by Maintain
// later. Non-positive limits are ignored.
func (r *Registry) SetMaxActive(limit int) error {
	if limit <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.shrink(limit)
	r.config.MaxActive = limit
	return err
}

// ActiveCount returns the number of active swarms.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Close deactivates all swarms, closing their hash trees. Swarms marked for
// removal are removed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, s := range slices.Clone(r.active) {
		errs = append(errs, r.deactivate(s))
	}
	return errors.Join(errs...)
}
