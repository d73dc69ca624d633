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
	"fmt"

	"golang.org/x/sys/unix"
)

// LockFileSuffix is appended to the path of content to derive its lock file.
const LockFileSuffix = ".lock"

// LockFile grants exclusive access to a piece of content among all processes
// honouring it. The lock is held as long as the lock file exists.
type LockFile struct {
	path string
	fd   int
}

// CreateLockFile acquires the lock at the given path. It fails if the lock
// file exists already.
func CreateLockFile(path string) (*LockFile, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	return &LockFile{path: path, fd: fd}, nil
}

// LockContent acquires the lock guarding the content at the given path.
func LockContent(path string) (*LockFile, error) {
	return CreateLockFile(path + LockFileSuffix)
}

// Valid reports whether the lock is still held.
func (f *LockFile) Valid() bool {
	return f != nil && f.fd > 0
}

// Release gives up the lock by deleting the lock file. A lock may only be
// released once.
func (f *LockFile) Release() error {
	if !f.Valid() {
		return fmt.Errorf("unable to release invalid lock")
	}
	fd := f.fd
	f.fd = 0
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", f.path, err)
	}
	if err := unix.Unlink(f.path); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", f.path, err)
	}
	return nil
}
