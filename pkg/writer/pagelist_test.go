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

func TestPageObjectsSortDedupe(t *testing.T) {
	p := &PageObjects{Objects: []int{5, 3, 3, 1, 5, 2}}
	p.SortDedupe()

	require.Equal(t, []int{1, 2, 3, 5}, p.Objects)
	require.Equal(t, 4, p.NumObjects)
}

func TestPageObjectsSortDedupeEmpty(t *testing.T) {
	p := &PageObjects{}
	p.SortDedupe()
	require.Empty(t, p.Objects)
}

func TestPageObjectsRenumber(t *testing.T) {
	p := &PageObjects{PageObjectNumber: 10, Objects: []int{10, 11, 12}}
	m := map[int]int{10: 1, 11: 2, 12: 0} // 12 maps to the free list, dropped

	p.Renumber(m)

	require.Equal(t, 1, p.PageObjectNumber)
	require.Equal(t, []int{1, 2}, p.Objects)
	require.Equal(t, 2, p.NumObjects)
}

func TestPageObjectsAccumulateOffsets(t *testing.T) {
	p := &PageObjects{Objects: []int{1, 2, 3}}
	usage := NewUsageMap()
	usage.SetFlags(2, UsageShared)
	offsets := map[int]int64{1: 100, 2: 50, 3: 200}

	p.AccumulateOffsets(offsets, usage)

	require.Equal(t, int64(50), p.MinOffset)
	require.Equal(t, int64(200), p.MaxOffset)
	require.Equal(t, 1, p.NumShared)
	require.Equal(t, 3, p.NumObjects)
}

func TestPageObjectsAccumulateOffsetsSkipsMissing(t *testing.T) {
	p := &PageObjects{Objects: []int{1, 2}}
	usage := NewUsageMap()
	offsets := map[int]int64{1: 100}

	p.AccumulateOffsets(offsets, usage)

	require.Equal(t, int64(100), p.MinOffset)
	require.Equal(t, int64(100), p.MaxOffset)
}
