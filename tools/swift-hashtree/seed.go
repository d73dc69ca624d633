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
	"fmt"

	"github.com/libswift/swift-go/common"
	"github.com/urfave/cli/v2"
)

var seedCommand = cli.Command{
	Action:    seed,
	Name:      "seed",
	Usage:     "hashes content and stores its hash tree next to it",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&chunkSizeFlag,
		&cpuProfilingFlag,
		&hashDbFlag,
		&offsetFlag,
	},
}

func seed(ctx *cli.Context) (err error) {
	path, err := argument(ctx, 0, "FILE")
	if err != nil {
		return err
	}
	stop, err := startCPUProfile(ctx)
	if err != nil {
		return err
	}
	defer stop()

	factory, err := openFactory(ctx, treeConfig(ctx))
	if err != nil {
		return err
	}
	defer closeOnExit(factory, &err)

	tree, err := openTree(factory, path, common.ZeroHash)
	if err != nil {
		return err
	}
	defer closeOnExit(tree, &err)

	w := ctx.App.Writer
	fmt.Fprintf(w, "root: %v\n", tree.RootHash())
	fmt.Fprintf(w, "size: %d\n", tree.Size())
	fmt.Fprintf(w, "chunks: %d\n", tree.PacketSize())
	printPeaks(ctx, tree)
	return nil
}
