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

func TestHintBuilderBuildProducesNonEmptyBytesAndValidSharedOffset(t *testing.T) {
	usage := NewUsageMap()
	usage.SetFlags(10, UsageShared)

	plan := &LinearizationPlan{
		Usage:     usage,
		FirstPage: 3,
		Pages: []*PageObjects{
			{PageObjectNumber: 3, Objects: []int{3, 10}},
			{PageObjectNumber: 4, Objects: []int{4, 10}},
		},
	}
	offsets := map[int]int64{3: 100, 4: 300, 10: 250}
	lengths := map[int]int64{3: 50, 4: 80, 10: 40}

	hb := NewHintBuilder(plan, offsets, lengths)
	data, sharedOffset := hb.Build()

	require.NotEmpty(t, data)
	require.Greater(t, sharedOffset, int64(0))
	require.LessOrEqual(t, sharedOffset, int64(len(data)))
}

func TestHintBuilderCollectSharedSortsByObjectNumber(t *testing.T) {
	usage := NewUsageMap()
	usage.SetFlags(50, UsageShared)
	usage.SetFlags(20, UsageShared)
	usage.SetFlags(30, UsageShared)

	hb := &HintBuilder{plan: &LinearizationPlan{Usage: usage}, lengths: map[int]int64{20: 1, 30: 2, 50: 3}}
	shared := hb.collectShared()

	require.Len(t, shared, 3)
	require.Equal(t, []int{20, 30, 50}, []int{shared[0].objNr, shared[1].objNr, shared[2].objNr})
}

func TestHintBuilderNoSharedObjectsStillProducesPageTable(t *testing.T) {
	plan := &LinearizationPlan{
		Usage:     NewUsageMap(),
		FirstPage: 1,
		Pages:     []*PageObjects{{PageObjectNumber: 1, Objects: []int{1}}},
	}
	offsets := map[int]int64{1: 0}
	lengths := map[int]int64{1: 10}

	data, _ := NewHintBuilder(plan, offsets, lengths).Build()
	require.NotEmpty(t, data)
}

func TestPatchAbsoluteOffsetAddsDeltaInPlace(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x01, 0x00, 0xff, 0xff, 0xff, 0xff}
	patchAbsoluteOffset(buf, 0, 0x10)
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0x10}, buf[0:4])
}

func TestHintBuilderPatchOffsetsCorrectsFirstPageAndSharedFields(t *testing.T) {
	usage := NewUsageMap()
	usage.SetFlags(10, UsageShared)

	plan := &LinearizationPlan{
		Usage:     usage,
		FirstPage: 3,
		Pages: []*PageObjects{
			{PageObjectNumber: 3, Objects: []int{3, 10}},
			{PageObjectNumber: 4, Objects: []int{4, 10}},
		},
	}
	offsets := map[int]int64{3: 100, 4: 300, 10: 250}
	lengths := map[int]int64{3: 50, 4: 80, 10: 40}

	hb := NewHintBuilder(plan, offsets, lengths)
	data, sharedOffset := hb.Build()
	preLen := len(data)

	const hintLen = int64(777)
	hb.PatchOffsets(data, sharedOffset, hintLen)

	// PatchOffsets must never change the buffer's length — these are
	// fixed-width 32-bit fields, not re-serialized integers.
	require.Equal(t, preLen, len(data))

	gotFirstPage := int64(data[4])<<24 | int64(data[5])<<16 | int64(data[6])<<8 | int64(data[7])
	require.Equal(t, offsets[plan.FirstPage]+hintLen, gotFirstPage)

	so := sharedOffset
	gotSharedFirst := int64(data[so])<<24 | int64(data[so+1])<<16 | int64(data[so+2])<<8 | int64(data[so+3])
	require.Equal(t, offsets[10]+hintLen, gotSharedFirst)
}

func TestHintBuilderPatchOffsetsSkipsSharedFieldWhenNoneShared(t *testing.T) {
	plan := &LinearizationPlan{
		Usage:     NewUsageMap(),
		FirstPage: 1,
		Pages:     []*PageObjects{{PageObjectNumber: 1, Objects: []int{1}}},
	}
	offsets := map[int]int64{1: 0}
	lengths := map[int]int64{1: 10}

	hb := NewHintBuilder(plan, offsets, lengths)
	data, sharedOffset := hb.Build()
	before := append([]byte(nil), data[sharedOffset:sharedOffset+4]...)

	hb.PatchOffsets(data, sharedOffset, 999)

	require.Equal(t, before, data[sharedOffset:sharedOffset+4], "no shared objects means the shared-offset field stays untouched")
}
