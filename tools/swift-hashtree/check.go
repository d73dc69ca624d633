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

var checkCommand = cli.Command{
	Action:    check,
	Name:      "check",
	Usage:     "verifies content against its stored hash tree",
	ArgsUsage: "FILE ROOT",
	Flags: []cli.Flag{
		&chunkSizeFlag,
		&noRecheckFlag,
		&hashDbFlag,
		&offsetFlag,
	},
}

func check(ctx *cli.Context) (err error) {
	path, err := argument(ctx, 0, "FILE")
	if err != nil {
		return err
	}
	arg, err := argument(ctx, 1, "ROOT")
	if err != nil {
		return err
	}
	root, err := common.ParseHash(arg)
	if err != nil {
		return err
	}
	if root.IsZero() {
		return fmt.Errorf("invalid root hash %v", root)
	}

	factory, err := openFactory(ctx, treeConfig(ctx))
	if err != nil {
		return err
	}
	defer closeOnExit(factory, &err)

	tree, err := openTree(factory, path, root)
	if err != nil {
		return err
	}
	defer closeOnExit(tree, &err)

	w := ctx.App.Writer
	fmt.Fprintf(w, "size: %d\n", tree.Size())
	fmt.Fprintf(w, "complete: %d\n", tree.Complete())
	fmt.Fprintf(w, "sequentially complete: %d\n", tree.SeqComplete())
	fmt.Fprintf(w, "chunks: %d of %d\n", tree.PacketsComplete(), tree.PacketSize())
	if !tree.IsComplete() {
		return fmt.Errorf("content incomplete, %d of %d chunks verified", tree.PacketsComplete(), tree.PacketSize())
	}
	return nil
}
