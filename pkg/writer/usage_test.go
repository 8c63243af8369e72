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

func TestUsageMapSetAndHasFlags(t *testing.T) {
	u := NewUsageMap()
	u.SetFlags(5, UsagePageObject)
	require.True(t, u.Has(5, UsagePageObject))
	require.False(t, u.Has(5, UsageShared))

	u.SetFlags(5, UsageShared)
	require.True(t, u.Has(5, UsagePageObject|UsageShared))
}

func TestUsageMapPageIndexRoundTrip(t *testing.T) {
	u := NewUsageMap()
	_, has := u.PageIndex(9)
	require.False(t, has)

	u.SetPageIndex(9, 3)
	idx, has := u.PageIndex(9)
	require.True(t, has)
	require.Equal(t, 3, idx)
}

func TestUsageMapSetPageIndexPromotesToShared(t *testing.T) {
	u := NewUsageMap()
	u.SetFlags(9, UsagePageObject)
	u.SetPageIndex(9, 0)
	u.SetPageIndex(9, 1)

	require.True(t, u.Has(9, UsageShared))
	require.True(t, u.Has(9, UsagePageObject), "promoting to shared must not clear unrelated low-byte flags")
	_, has := u.PageIndex(9)
	require.False(t, has, "a shared object carries no single page tag")
}

func TestUsageMapSetPageIndexSamePageIsNotShared(t *testing.T) {
	u := NewUsageMap()
	u.SetPageIndex(4, 2)
	u.SetPageIndex(4, 2)

	require.False(t, u.Has(4, UsageShared))
	idx, has := u.PageIndex(4)
	require.True(t, has)
	require.Equal(t, 2, idx)
}
