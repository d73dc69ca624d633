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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	known         prometheus.Gauge
	active        prometheus.Gauge
	activations   prometheus.Counter
	deactivations prometheus.Counter
	removals      prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		known: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swift_swarms_known",
			Help: "Number of swarms known to the registry.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swift_swarms_active",
			Help: "Number of swarms with an open hash tree.",
		}),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swift_swarm_activations_total",
			Help: "Number of swarm activations.",
		}),
		deactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swift_swarm_deactivations_total",
			Help: "Number of swarms deactivated to free resources.",
		}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swift_swarm_removals_total",
			Help: "Number of swarms removed from the registry.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var errs []error
	for _, c := range []prometheus.Collector{m.known, m.active, m.activations, m.deactivations, m.removals} {
		errs = append(errs, reg.Register(c))
	}
	return m, errors.Join(errs...)
}
