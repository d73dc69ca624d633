// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/libswift/swift-go/common"
	"github.com/libswift/swift-go/hashtree"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var (
	chunkSizeFlag = cli.IntFlag{
		Name:  "chunk-size",
		Usage: "the size of the chunks covered by the leaves of the hash tree",
		Value: hashtree.DefaultChunkSize,
	}
	noRecheckFlag = cli.BoolFlag{
		Name:  "no-recheck",
		Usage: "trust content found on disk without verifying it against stored hashes",
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
	hashDbFlag = cli.StringFlag{
		Name:  "hash-db",
		Usage: "keep hashes in the LevelDB database in the given directory instead of files next to the content",
	}
	offsetFlag = cli.Int64Flag{
		Name:  "offset",
		Usage: "view the content file rotated by the given number of bytes",
	}
)

func treeConfig(ctx *cli.Context) hashtree.Config {
	config := hashtree.DefaultConfig()
	config.ChunkSize = ctx.Int(chunkSizeFlag.Name)
	config.DataRecheck = !ctx.Bool(noRecheckFlag.Name)
	config.ContentOffset = ctx.Int64(offsetFlag.Name)
	return config
}

// openFactory opens the factory of the trees used by a command. It has to be
// closed after all trees it opened.
func openFactory(ctx *cli.Context, config hashtree.Config) (hashtree.Factory, error) {
	if dir := ctx.String(hashDbFlag.Name); len(dir) > 0 {
		klog.V(1).Infof("using hash database in %s", dir)
		return hashtree.OpenLevelDbHashTreeFactory(dir, config)
	}
	return hashtree.CreateFileHashTreeFactory(config), nil
}

// lockedTree is a hash tree over a file owned exclusively by this process.
type lockedTree struct {
	*hashtree.HashTree
	lock *common.LockFile
}

func openTree(factory hashtree.Factory, path string, root common.Hash) (*lockedTree, error) {
	lock, err := common.LockContent(path)
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("opening hash tree of %s ...", path)
	tree, err := factory.Open(path, root)
	if err != nil {
		return nil, errors.Join(err, lock.Release())
	}
	return &lockedTree{HashTree: tree, lock: lock}, nil
}

func (t *lockedTree) Close() error {
	return errors.Join(t.HashTree.Close(), t.lock.Release())
}

// closeOnExit closes a tree or factory, reporting the failure through err
// unless an earlier error is reported already.
func closeOnExit(c io.Closer, err *error) {
	if closeErr := c.Close(); closeErr != nil {
		if *err == nil {
			*err = closeErr
		} else {
			klog.Errorf("failure closing %T: %v", c, closeErr)
		}
	}
}

func argument(ctx *cli.Context, i int, name string) (string, error) {
	if ctx.NArg() <= i {
		return "", fmt.Errorf("missing argument %s", name)
	}
	return ctx.Args().Get(i), nil
}

func startCPUProfile(ctx *cli.Context) (func(), error) {
	target := ctx.String(cpuProfilingFlag.Name)
	if len(target) == 0 {
		return func() {}, nil
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return nil, errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			klog.Errorf("failed to write CPU profile: %v", err)
		}
	}, nil
}

func printPeaks(ctx *cli.Context, tree *lockedTree) {
	for i := 0; i < tree.PeakCount(); i++ {
		fmt.Fprintf(ctx.App.Writer, "peak %v: %v\n", tree.Peak(i), tree.PeakHash(i))
	}
}
