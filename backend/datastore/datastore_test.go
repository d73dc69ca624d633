// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package datastore

import (
	"errors"
	"io"
	"testing"

	"github.com/libswift/swift-go/bin"
	"go.uber.org/mock/gomock"
)

func TestOffset_IsChunkAlignedPosition(t *testing.T) {
	tests := []struct {
		b    bin.Bin
		want int64
	}{
		{bin.Leaf(0), 0},
		{bin.Leaf(1), 1024},
		{bin.Leaf(7), 7 * 1024},
		{bin.New(2, 1), 4 * 1024},
	}
	for _, test := range tests {
		if got := Offset(test.b, 1024); got != test.want {
			t.Errorf("unexpected offset of %v, wanted %d, got %d", test.b, test.want, got)
		}
	}
}

func TestReadBin_TranslatesLeafToOffset(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockDataStorage(ctrl)
	buffer := make([]byte, 16)
	storage.EXPECT().ReadAt(buffer, int64(48)).Return(10, io.EOF)

	n, err := ReadBin(storage, bin.Leaf(3), 16, buffer)
	if err != nil {
		t.Errorf("end of content should not be reported as an error, got %v", err)
	}
	if n != 10 {
		t.Errorf("unexpected number of bytes read, wanted 10, got %d", n)
	}
}

func TestReadBin_ForwardsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockDataStorage(ctrl)
	injectedErr := errors.New("injected error")
	storage.EXPECT().ReadAt(gomock.Any(), int64(0)).Return(0, injectedErr)

	if _, err := ReadBin(storage, bin.Leaf(0), 16, make([]byte, 16)); !errors.Is(err, injectedErr) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestWriteBin_TranslatesLeafToOffset(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockDataStorage(ctrl)
	data := []byte{1, 2, 3}
	storage.EXPECT().WriteAt(data, int64(32)).Return(3, nil)

	if n, err := WriteBin(storage, bin.Leaf(2), 16, data); err != nil || n != 3 {
		t.Errorf("failed to write chunk, wrote %d, err %v", n, err)
	}
}

func TestBinAccess_OnlyLeavesAreSupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := NewMockDataStorage(ctrl)
	if _, err := ReadBin(storage, bin.New(1, 0), 16, nil); !errors.Is(err, ErrNotALeaf) {
		t.Errorf("expected inner node to be rejected, got %v", err)
	}
	if _, err := WriteBin(storage, bin.None, 16, nil); !errors.Is(err, ErrNotALeaf) {
		t.Errorf("expected None to be rejected, got %v", err)
	}
}
