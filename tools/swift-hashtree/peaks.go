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
	"strconv"

	"github.com/libswift/swift-go/bin"
	"github.com/urfave/cli/v2"
)

var peaksCommand = cli.Command{
	Action:    peaks,
	Name:      "peaks",
	Usage:     "prints the peaks of the hash tree of content with the given number of chunks",
	ArgsUsage: "CHUNKS",
}

func peaks(ctx *cli.Context) error {
	arg, err := argument(ctx, 0, "CHUNKS")
	if err != nil {
		return err
	}
	chunks, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid number of chunks %q: %w", arg, err)
	}
	for _, p := range bin.Peaks(chunks) {
		fmt.Fprintf(ctx.App.Writer, "%v covering chunks [%d, %d]\n", p, p.BaseOffset(), p.BaseOffset()+p.Width()-1)
	}
	if chunks > 0 {
		fmt.Fprintf(ctx.App.Writer, "cover: %v\n", bin.Cover(chunks))
	}
	return nil
}
