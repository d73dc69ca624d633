// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interrupt

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestRegister_SignalCancelsContext(t *testing.T) {
	ctx := Register(context.Background())
	if err := unix.Kill(unix.Getpid(), unix.SIGINT); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("context was not cancelled by signal")
	}
}

func TestRegister_ParentCancellationIsPropagated(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := Register(parent)
	cancel()
	<-ctx.Done()
	if !IsCancelled(ctx) {
		t.Errorf("derived context should be cancelled")
	}
}

func TestIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCancelled(ctx) {
		t.Fatalf("active context reported as cancelled")
	}
	cancel()
	if !IsCancelled(ctx) {
		t.Fatalf("cancelled context reported as active")
	}
}
