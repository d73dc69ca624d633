// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package interrupt turns termination signals into context cancellation, so
// long running transfers can stop between chunks and leave consistent
// storages behind.
package interrupt

import (
	"context"
	"os"
	"os/signal"

	"github.com/libswift/swift-go/common"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

const ErrCanceled = common.ConstError("interrupted")

// IsCancelled reports whether the context is done, without blocking.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Register derives a context which is cancelled on the first SIGINT or
// SIGTERM received by the process.
func Register(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, unix.SIGTERM, unix.SIGINT)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			klog.Warningf("received %v, stopping after the current chunk", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
