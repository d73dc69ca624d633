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
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/libswift/swift-go/common"
	"github.com/libswift/swift-go/common/ticker"
	"github.com/libswift/swift-go/hashtree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newRegistry(t *testing.T, maxActive int) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)}
	r, err := NewRegistry(Config{
		MaxActive:  maxActive,
		Clock:      clock,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r, clock
}

func writeContent(t *testing.T, name string, size int) string {
	t.Helper()
	content := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(content)
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write content: %v", err)
	}
	return path
}

func addContent(t *testing.T, r *Registry, name string, size int) *Swarm {
	t.Helper()
	s, err := r.Add(writeContent(t, name, size), common.ZeroHash)
	if err != nil {
		t.Fatalf("failed to add swarm: %v", err)
	}
	return s
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRegistry_AddSeedsContentWithoutRootHash(t *testing.T) {
	r, _ := newRegistry(t, 0)
	path := writeContent(t, "a", 5000)
	s, err := r.Add(path, common.ZeroHash)
	if err != nil {
		t.Fatalf("failed to add swarm: %v", err)
	}
	if s.RootHash().IsZero() {
		t.Fatalf("root hash should be derived from content")
	}
	if !s.IsActive() {
		t.Errorf("new swarm should be active")
	}
	if got := s.Size(); got != 5000 {
		t.Errorf("unexpected size, wanted 5000, got %d", got)
	}
	if !s.IsComplete() {
		t.Errorf("seeded swarm should be complete")
	}
	if got := r.Find(s.RootHash()); got != s {
		t.Errorf("swarm not found by root hash")
	}
	if got := r.FindByID(s.ID()); got != s {
		t.Errorf("swarm not found by id")
	}
	if !exists(path + hashtree.HashFileSuffix) {
		t.Errorf("hash file should be created")
	}
}

func TestRegistry_AddingKnownContentReturnsExistingSwarm(t *testing.T) {
	r, _ := newRegistry(t, 0)
	path := writeContent(t, "a", 3000)
	first, err := r.Add(path, common.ZeroHash)
	if err != nil {
		t.Fatalf("failed to add swarm: %v", err)
	}
	second, err := r.Add(path, common.ZeroHash)
	if err != nil {
		t.Fatalf("failed to add swarm: %v", err)
	}
	if first != second {
		t.Errorf("adding the same content twice should yield the same swarm")
	}
	third, err := r.Add(path, first.RootHash())
	if err != nil {
		t.Fatalf("failed to add swarm: %v", err)
	}
	if first != third {
		t.Errorf("adding a known root hash should yield the known swarm")
	}
	if got := len(r.Swarms()); got != 1 {
		t.Errorf("unexpected number of swarms, wanted 1, got %d", got)
	}
}

func TestRegistry_AddFailsIfContentCanNotBeOpened(t *testing.T) {
	r, _ := newRegistry(t, 0)
	if _, err := r.Add(t.TempDir(), common.ZeroHash); err == nil {
		t.Errorf("adding a directory should fail")
	}
	if got := len(r.Swarms()); got != 0 {
		t.Errorf("failed swarm should not be registered, got %d swarms", got)
	}
}

func TestRegistry_UnknownSwarmsAreNotFound(t *testing.T) {
	r, _ := newRegistry(t, 0)
	addContent(t, r, "a", 100)
	if r.Find(common.HashOf([]byte("unknown"))) != nil {
		t.Errorf("unknown root hash should not be found")
	}
	for _, id := range []int{-1, 1, 100} {
		if r.FindByID(id) != nil {
			t.Errorf("unknown id %d should not be found", id)
		}
	}
	if _, err := r.Activate(common.HashOf([]byte("unknown"))); !errors.Is(err, ErrUnknownSwarm) {
		t.Errorf("expected unknown swarm error, got %v", err)
	}
	if err := r.Remove(common.HashOf([]byte("unknown")), false, false); !errors.Is(err, ErrUnknownSwarm) {
		t.Errorf("expected unknown swarm error, got %v", err)
	}
}

func TestRegistry_LeastRecentlyUsedIdleSwarmIsDeactivated(t *testing.T) {
	r, clock := newRegistry(t, 2)
	a := addContent(t, r, "a", 2000)
	b := addContent(t, r, "b", 3000)
	a.Touch()
	clock.Advance(10 * time.Second)
	b.Touch()
	clock.Advance(35 * time.Second)

	c := addContent(t, r, "c", 4000)
	if !c.IsActive() {
		t.Fatalf("new swarm should be activated")
	}
	c.Touch()
	if a.IsActive() {
		t.Errorf("least recently used swarm should be deactivated")
	}
	if !b.IsActive() {
		t.Errorf("recently used swarm should stay active")
	}
	if a.Tree(false) != nil || a.Touch() {
		t.Errorf("inactive swarm should not provide its tree")
	}
	if got := a.Size(); got != 2000 {
		t.Errorf("deactivated swarm should retain its size, got %d", got)
	}
	if got := a.Complete(); got != 2000 {
		t.Errorf("deactivated swarm should retain its progress, got %d", got)
	}
	if !a.IsComplete() {
		t.Errorf("deactivated swarm should retain its completion")
	}

	if _, err := r.Activate(a.RootHash()); err != nil {
		t.Fatalf("failed to reactivate swarm: %v", err)
	}
	if b.IsActive() {
		t.Errorf("idle swarm should be deactivated")
	}
	tree := a.Tree(true)
	if tree == nil || !tree.IsComplete() {
		t.Errorf("reactivated swarm should recover its progress")
	}
}

func TestRegistry_SwarmsInUseAreNotDeactivated(t *testing.T) {
	r, clock := newRegistry(t, 1)
	a := addContent(t, r, "a", 1000)
	a.Touch()
	clock.Advance(5 * time.Second)

	b := addContent(t, r, "b", 1500)
	if b.IsActive() {
		t.Errorf("new swarm should not be activated while others are in use")
	}
	if !a.IsActive() {
		t.Errorf("swarm in use should stay active")
	}
	if got := b.Size(); got != 1500 {
		t.Errorf("swarm seeded while inactive should know its size, got %d", got)
	}
	if _, err := r.Activate(b.RootHash()); !errors.Is(err, ErrTooManyActive) {
		t.Errorf("expected too many active error, got %v", err)
	}

	clock.Advance(30 * time.Second)
	if _, err := r.Activate(b.RootHash()); err != nil {
		t.Errorf("failed to activate swarm after others got idle: %v", err)
	}
	if a.IsActive() || !b.IsActive() {
		t.Errorf("unexpected activity, a %t, b %t", a.IsActive(), b.IsActive())
	}
}

func TestRegistry_InactiveSwarmIsRemovedImmediately(t *testing.T) {
	r, _ := newRegistry(t, 1)
	a := addContent(t, r, "a", 1000)
	addContent(t, r, "b", 1000)
	if a.IsActive() {
		t.Fatalf("untouched swarm should be deactivated")
	}
	root := a.RootHash()
	if err := r.Remove(root, true, true); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	if r.Find(root) != nil || r.FindByID(0) != nil {
		t.Errorf("removed swarm should not be found")
	}
	if a.ID() != -1 {
		t.Errorf("removed swarm should lose its id, got %d", a.ID())
	}
	if exists(a.Path()) || exists(a.Path()+hashtree.HashFileSuffix) {
		t.Errorf("content and hashes should be deleted")
	}
}

func TestRegistry_RemovalKeepsFilesIfRequested(t *testing.T) {
	r, _ := newRegistry(t, 1)
	a := addContent(t, r, "a", 1000)
	addContent(t, r, "b", 1000)
	if err := r.Remove(a.RootHash(), false, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	if !exists(a.Path()) || !exists(a.Path()+hashtree.HashFileSuffix) {
		t.Errorf("content and hashes should be retained")
	}
}

func TestRegistry_SwarmsCanKeepHashesInLevelDb(t *testing.T) {
	factory, err := hashtree.OpenLevelDbHashTreeFactory(filepath.Join(t.TempDir(), "db"), hashtree.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to open factory: %v", err)
	}
	t.Cleanup(func() { factory.Close() })
	r, err := NewRegistry(Config{
		Factory:   factory,
		MaxActive: 1,
		Clock:     &fakeClock{now: time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)},
	})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	a := addContent(t, r, "a", 3000)
	b := addContent(t, r, "b", 2000)
	if a.IsActive() {
		t.Fatalf("untouched swarm should be deactivated")
	}
	if exists(a.Path() + hashtree.HashFileSuffix) {
		t.Errorf("hashes should be kept in the database")
	}
	if _, err := r.Activate(a.RootHash()); err != nil {
		t.Fatalf("failed to reactivate swarm: %v", err)
	}
	if tree := a.Tree(true); tree == nil || !tree.IsComplete() {
		t.Errorf("reactivated swarm should recover its progress from the database")
	}

	if b.IsActive() {
		t.Fatalf("untouched swarm should be deactivated")
	}
	path, root := b.Path(), b.RootHash()
	if err := r.Remove(root, true, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	if !exists(path) {
		t.Errorf("content should be retained")
	}
	tree, err := factory.Open(path, root)
	if err != nil {
		t.Fatalf("failed to open tree: %v", err)
	}
	defer tree.Close()
	if tree.Size() != 0 {
		t.Errorf("hashes of removed swarm should be deleted")
	}
}

func TestRegistry_RemovalOfActiveSwarmIsDeferred(t *testing.T) {
	r, clock := newRegistry(t, 0)
	a := addContent(t, r, "a", 1000)
	a.Touch()
	root := a.RootHash()
	if err := r.Remove(root, true, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	if r.Find(root) != a || !a.ToBeRemoved() {
		t.Errorf("active swarm should be marked for removal")
	}
	if _, err := r.Activate(root); !errors.Is(err, ErrRemovalPending) {
		t.Errorf("expected removal pending error, got %v", err)
	}

	clock.Advance(10 * time.Second)
	if err := r.Maintain(); err != nil {
		t.Fatalf("maintenance failed: %v", err)
	}
	if r.Find(root) != a {
		t.Errorf("swarm in use should not be removed")
	}

	clock.Advance(30 * time.Second)
	if err := r.Maintain(); err != nil {
		t.Fatalf("maintenance failed: %v", err)
	}
	if r.Find(root) != nil {
		t.Errorf("idle swarm should be removed")
	}
	if !exists(a.Path()) || exists(a.Path()+hashtree.HashFileSuffix) {
		t.Errorf("only hashes should be deleted")
	}
}

func TestRegistry_IdsAreReusedAfterDelay(t *testing.T) {
	r, clock := newRegistry(t, 1)
	a := addContent(t, r, "a", 1000)
	addContent(t, r, "b", 1000)
	if err := r.Remove(a.RootHash(), false, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	c := addContent(t, r, "c", 1000)
	if got := c.ID(); got != 2 {
		t.Errorf("id should not be reused right away, got %d", got)
	}
	clock.Advance(DefaultIndexReuseDelay + time.Second)
	d := addContent(t, r, "d", 1000)
	if got := d.ID(); got != 0 {
		t.Errorf("id should be reused after delay, got %d", got)
	}
	if r.FindByID(0) != d {
		t.Errorf("reused id should refer to new swarm")
	}
}

func TestRegistry_LoweringLimitDeactivatesIdleSwarms(t *testing.T) {
	r, _ := newRegistry(t, 3)
	for _, name := range []string{"a", "b", "c"} {
		addContent(t, r, name, 1000)
	}
	if got := r.ActiveCount(); got != 3 {
		t.Fatalf("unexpected number of active swarms, wanted 3, got %d", got)
	}
	if err := r.SetMaxActive(0); err != nil {
		t.Fatalf("failed to ignore invalid limit: %v", err)
	}
	if got := r.MaxActive(); got != 3 {
		t.Errorf("invalid limit should be ignored, got %d", got)
	}
	if err := r.SetMaxActive(1); err != nil {
		t.Fatalf("failed to lower limit: %v", err)
	}
	if got := r.ActiveCount(); got != 1 {
		t.Errorf("unexpected number of active swarms, wanted 1, got %d", got)
	}
}

func TestRegistry_MaintenanceEnforcesLimit(t *testing.T) {
	r, clock := newRegistry(t, 2)
	a := addContent(t, r, "a", 1000)
	b := addContent(t, r, "b", 1000)
	a.Touch()
	b.Touch()
	if err := r.SetMaxActive(1); err != nil {
		t.Fatalf("failed to lower limit: %v", err)
	}
	if got := r.ActiveCount(); got != 2 {
		t.Errorf("swarms in use should stay active, got %d", got)
	}
	clock.Advance(time.Minute)
	if err := r.Maintain(); err != nil {
		t.Fatalf("maintenance failed: %v", err)
	}
	if got := r.ActiveCount(); got != 1 {
		t.Errorf("unexpected number of active swarms, wanted 1, got %d", got)
	}
}

func TestRegistry_RunMaintenanceProcessesTicks(t *testing.T) {
	r, clock := newRegistry(t, 0)
	a := addContent(t, r, "a", 1000)
	if err := r.Remove(a.RootHash(), false, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	tick := ticker.NewManualTicker()
	done := make(chan struct{})
	go func() {
		r.RunMaintenance(ctx, tick)
		close(done)
	}()
	// The second tick is only received once the first one is processed.
	for i := 0; i < 2; i++ {
		if !tick.Tick(clock.Now()) {
			t.Fatalf("tick %d was not received", i)
		}
	}
	if r.Find(a.RootHash()) != nil {
		t.Errorf("swarm should be removed by maintenance")
	}
	cancel()
	<-done
	if tick.Tick(clock.Now()) {
		t.Errorf("ticker should be stopped with the maintenance loop")
	}
}

func TestRegistry_CloseDeactivatesAllSwarms(t *testing.T) {
	r, _ := newRegistry(t, 0)
	a := addContent(t, r, "a", 1000)
	b := addContent(t, r, "b", 2000)
	if err := r.Close(); err != nil {
		t.Fatalf("failed to close registry: %v", err)
	}
	if a.IsActive() || b.IsActive() || r.ActiveCount() != 0 {
		t.Errorf("all swarms should be inactive")
	}
	if got := b.Size(); got != 2000 {
		t.Errorf("closed swarm should retain its size, got %d", got)
	}
}

func TestRegistry_MetricsTrackSwarms(t *testing.T) {
	r, clock := newRegistry(t, 1)
	a := addContent(t, r, "a", 1000)
	addContent(t, r, "b", 1000)
	clock.Advance(time.Minute)
	if _, err := r.Activate(a.RootHash()); err != nil {
		t.Fatalf("failed to activate swarm: %v", err)
	}
	if err := r.Remove(a.RootHash(), false, false); err != nil {
		t.Fatalf("failed to remove swarm: %v", err)
	}
	if err := r.Maintain(); err != nil {
		t.Fatalf("maintenance failed: %v", err)
	}

	tests := map[string]struct {
		metric prometheus.Collector
		want   float64
	}{
		"known":         {r.metrics.known, 1},
		"active":        {r.metrics.active, 0},
		"activations":   {r.metrics.activations, 3},
		"deactivations": {r.metrics.deactivations, 3},
		"removals":      {r.metrics.removals, 1},
	}
	for name, test := range tests {
		if got := testutil.ToFloat64(test.metric); got != test.want {
			t.Errorf("unexpected value of %s, wanted %v, got %v", name, test.want, got)
		}
	}
}

func TestRegistry_MetricsCanOnlyBeRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRegistry(Config{Registerer: reg})
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	defer r.Close()
	if _, err := NewRegistry(Config{Registerer: reg}); err == nil {
		t.Errorf("registering metrics twice should fail")
	}
	if _, err := NewRegistry(Config{}); err != nil {
		t.Errorf("registry without metrics should not fail: %v", err)
	}
}
