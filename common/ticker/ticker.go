// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package ticker abstracts periodic triggers, so periodic maintenance can be
// driven by a timer in production and step by step in tests.
package ticker

import "time"

// Ticker delivers ticks on a channel until it is stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeTicker is a Ticker driven by the system clock.
type TimeTicker struct {
	ticker *time.Ticker
}

func NewTimeTicker(period time.Duration) TimeTicker {
	return TimeTicker{time.NewTicker(period)}
}

func (t TimeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t TimeTicker) Stop() {
	t.ticker.Stop()
}

// ManualTicker is a Ticker delivering a tick whenever Tick is called.
type ManualTicker struct {
	ticks   chan time.Time
	stopped chan struct{}
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		ticks:   make(chan time.Time),
		stopped: make(chan struct{}),
	}
}

func (t *ManualTicker) C() <-chan time.Time {
	return t.ticks
}

// Tick blocks until the tick is received by the consumer of the ticker. It
// returns false if the ticker got stopped instead.
func (t *ManualTicker) Tick(now time.Time) bool {
	select {
	case t.ticks <- now:
		return true
	case <-t.stopped:
		return false
	}
}

func (t *ManualTicker) Stop() {
	select {
	case <-t.stopped:
	default:
		close(t.stopped)
	}
}
