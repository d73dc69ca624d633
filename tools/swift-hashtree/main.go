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
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/libswift/swift-go/common/interrupt"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// Run using
//  go run ./tools/swift-hashtree <command> <flags> <args>

var verbosityFlag = cli.IntFlag{
	Name:  "verbosity",
	Usage: "the klog verbosity level",
}

func main() {
	defer klog.Flush()
	ctx := interrupt.Register(context.Background())
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		klog.Flush()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	logFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(logFlags)
	return &cli.App{
		Name:      "swift hash tree toolbox",
		HelpName:  "swift-hashtree",
		Usage:     "A set of utilities to create and verify the hash trees of swift content",
		Copyright: "(c) 2024 Fantom Foundation",
		Flags:     []cli.Flag{&verbosityFlag},
		Before: func(ctx *cli.Context) error {
			return logFlags.Set("v", strconv.Itoa(ctx.Int(verbosityFlag.Name)))
		},
		Commands: []*cli.Command{
			&seedCommand,
			&checkCommand,
			&peaksCommand,
			&infoCommand,
			&replayCommand,
		},
	}
}
