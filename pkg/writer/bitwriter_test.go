/*
Copyright 2025 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package writer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitWriterByteAlignedWrites(t *testing.T) {
	var bw bitWriter
	bw.writeBits(0xAB, 8)
	bw.writeBits(0xCD, 8)
	require.Equal(t, []byte{0xAB, 0xCD}, bw.Bytes())
}

func TestBitWriterSubByteWidths(t *testing.T) {
	var bw bitWriter
	bw.writeBits(0b101, 3)
	bw.writeBits(0b01, 2)
	bw.writeBits(0b111, 3)
	// 101 01 111 -> one byte: 10101111
	require.Equal(t, []byte{0b10101111}, bw.Bytes())
}

func TestBitWriterAlignPadsWithZeroBits(t *testing.T) {
	var bw bitWriter
	bw.writeBits(0b1, 1)
	bw.align()
	require.Equal(t, []byte{0b10000000}, bw.Bytes())
}

func TestBitWriterMasksOverflowingValues(t *testing.T) {
	var bw bitWriter
	// only the low 4 bits of 0xFF0 (0) should be kept
	bw.writeBits(0xFF0, 4)
	bw.align()
	require.Equal(t, []byte{0x00}, bw.Bytes())
}

func TestCeilLog2(t *testing.T) {
	cases := []struct {
		n    int64
		want uint
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ceilLog2(c.n), "ceilLog2(%d)", c.n)
	}
}
