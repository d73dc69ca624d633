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

	"github.com/libswift/swift-go/backend/binmap"
	"github.com/libswift/swift-go/backend/datastore"
	"github.com/libswift/swift-go/common"
	"github.com/libswift/swift-go/common/interrupt"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var replayCommand = cli.Command{
	Action:    replay,
	Name:      "replay",
	Usage:     "transfers content chunk by chunk into a verified copy, as a peer would receive it",
	ArgsUsage: "SOURCE TARGET",
	Flags: []cli.Flag{
		&chunkSizeFlag,
		&hashDbFlag,
	},
}

func replay(ctx *cli.Context) (err error) {
	srcPath, err := argument(ctx, 0, "SOURCE")
	if err != nil {
		return err
	}
	dstPath, err := argument(ctx, 1, "TARGET")
	if err != nil {
		return err
	}
	factory, err := openFactory(ctx, treeConfig(ctx))
	if err != nil {
		return err
	}
	defer closeOnExit(factory, &err)

	src, err := openTree(factory, srcPath, common.ZeroHash)
	if err != nil {
		return err
	}
	defer closeOnExit(src, &err)

	dst, err := openTree(factory, dstPath, src.RootHash())
	if err != nil {
		return err
	}
	defer closeOnExit(dst, &err)

	if dst.Size() == 0 {
		for i := 0; i < src.PeakCount(); i++ {
			dst.OfferPeakHash(src.Peak(i), src.PeakHash(i))
		}
		if dst.Size() == 0 {
			return fmt.Errorf("peak hashes of %v not accepted", src.RootHash())
		}
	}
	acks, ok := dst.AckOut().(*binmap.Binmap)
	if !ok {
		return fmt.Errorf("unsupported ack bitmap %T", dst.AckOut())
	}

	buffer := make([]byte, src.ChunkSize())
	transferred := 0
	for leaf := acks.FindEmpty(0); leaf.BaseOffset() < src.PacketSize(); leaf = acks.FindEmpty(leaf.BaseOffset()) {
		if interrupt.IsCancelled(ctx.Context) {
			return interrupt.ErrCanceled
		}
		for _, uncle := range src.Uncles(leaf) {
			dst.OfferHash(uncle, src.Hash(uncle))
		}
		n, err := datastore.ReadBin(src.DataStorage(), leaf, src.ChunkSize(), buffer)
		if err != nil {
			return fmt.Errorf("failed to read chunk %d: %w", leaf.BaseOffset(), err)
		}
		if !dst.OfferData(leaf, buffer[:n]) {
			return fmt.Errorf("chunk %d was rejected", leaf.BaseOffset())
		}
		transferred++
		klog.V(2).Infof("transferred chunk %d of %d", leaf.BaseOffset()+1, src.PacketSize())
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "root: %v\n", dst.RootHash())
	fmt.Fprintf(w, "transferred chunks: %d\n", transferred)
	fmt.Fprintf(w, "complete: %t\n", dst.IsComplete())
	return nil
}
