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

	"github.com/libswift/swift-go/hashtree"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultMaxActive is the default upper limit of swarms with an open tree.
	DefaultMaxActive = 256
	// DefaultIdleBeforeDeactivate is the default time a swarm has to remain
	// untouched before it may be deactivated to make room for another one.
	DefaultIdleBeforeDeactivate = 30 * time.Second
	// DefaultIndexReuseDelay is the default time an id of a removed swarm is
	// kept unused, so late references to the old swarm can not reach a new one.
	DefaultIndexReuseDelay = 120 * time.Second
	// DefaultMaintenanceInterval is the default period of RunMaintenance.
	DefaultMaintenanceInterval = 5 * time.Second
)

// Clock provides the current time to the registry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Config parameterizes a Registry. Zero fields are replaced by defaults,
// except for Registerer; metrics are only exported if one is provided.
type Config struct {
	// Factory opens the hash tree of a swarm when it gets activated. If nil,
	// file based trees with the default tree configuration are used.
	Factory              hashtree.Factory
	MaxActive            int
	IdleBeforeDeactivate time.Duration
	IndexReuseDelay      time.Duration
	Clock                Clock
	Registerer           prometheus.Registerer
}

func (c Config) withDefaults() Config {
	if c.Factory == nil {
		c.Factory = hashtree.CreateFileHashTreeFactory(hashtree.DefaultConfig())
	}
	if c.MaxActive <= 0 {
		c.MaxActive = DefaultMaxActive
	}
	if c.IdleBeforeDeactivate <= 0 {
		c.IdleBeforeDeactivate = DefaultIdleBeforeDeactivate
	}
	if c.IndexReuseDelay <= 0 {
		c.IndexReuseDelay = DefaultIndexReuseDelay
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	return c
}
