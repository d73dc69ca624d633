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
	"os"

	"github.com/libswift/swift-go/backend/hashstore"
	"github.com/libswift/swift-go/backend/hashstore/hsfile"
	"github.com/libswift/swift-go/backend/hashstore/hsldb"
	"github.com/libswift/swift-go/bin"
	"github.com/libswift/swift-go/hashtree"
	"github.com/urfave/cli/v2"
)

var infoCommand = cli.Command{
	Action:    info,
	Name:      "info",
	Usage:     "prints summary information about the stored hashes of content",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&hashDbFlag,
	},
}

// storedHashes is a persistent hash storage knowing its capacity.
type storedHashes interface {
	hashstore.HashStorage
	Capacity() uint64
}

func openStoredHashes(ctx *cli.Context, path string) (storedHashes, string, error) {
	dir := ctx.String(hashDbFlag.Name)
	if len(dir) == 0 {
		location := path + hashtree.HashFileSuffix
		if _, err := os.Stat(location); err != nil {
			return nil, "", err
		}
		hashes, err := hsfile.OpenHashStorage(location)
		return hashes, location, err
	}
	// Opening a missing database would create it.
	if _, err := os.Stat(dir); err != nil {
		return nil, "", err
	}
	namespace, err := hashtree.ContentNamespace(path)
	if err != nil {
		return nil, "", err
	}
	hashes, err := hsldb.OpenHashStorageAt(dir, namespace)
	return hashes, dir, err
}

func info(ctx *cli.Context) (err error) {
	path, err := argument(ctx, 0, "FILE")
	if err != nil {
		return err
	}
	hashes, location, err := openStoredHashes(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, hashes.Close())
	}()
	chunks := hashes.Capacity()
	if chunks == 0 {
		return fmt.Errorf("no hashes of %s stored in %s", path, location)
	}

	w := ctx.App.Writer
	fmt.Fprintf(w, "hashes: %s\n", location)
	fmt.Fprintf(w, "chunks: %d\n", chunks)
	fmt.Fprintf(w, "memory: %d bytes\n", hashes.GetMemoryFootprint().Total())
	for _, p := range bin.Peaks(chunks) {
		fmt.Fprintf(w, "peak %v: %v\n", p, hashes.Get(p))
	}
	return nil
}
