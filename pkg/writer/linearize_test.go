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

func TestFixedIntRendersStableWidth(t *testing.T) {
	require.Equal(t, 11, len(FixedInt(0).String()))
	require.Equal(t, 11, len(FixedInt(SentinelInt).String()))
	require.Equal(t, 11, len(FixedInt(123456).String()))
	require.Equal(t, FixedInt(SentinelInt).String(), FixedInt(SentinelInt).PDFString())
}

func TestPlannerPlanClassifiesCatalogueAndPages(t *testing.T) {
	ctx := buildSimpleDoc()
	plan, err := NewPlanner(ctx).Plan()
	require.NoError(t, err)

	require.Len(t, plan.Pages, 1)
	require.Equal(t, 3, plan.FirstPage)
	require.True(t, plan.Usage.Has(1, UsageCatalogue), "catalog must be on the catalogue path")
	require.True(t, plan.Usage.Has(2, UsageCatalogue), "pages root must be on the catalogue path")
	require.True(t, plan.Usage.Has(3, UsagePage1))
	require.True(t, plan.Usage.Has(3, UsagePageObject))
	require.True(t, plan.Usage.Has(4, UsagePage1), "content stream reached only from page 1")

	require.NotZero(t, plan.ParamsObj)
	require.NotZero(t, plan.HintObj)
	require.True(t, plan.Usage.Has(plan.ParamsObj, UsageParams))
	require.True(t, plan.Usage.Has(plan.HintObj, UsageHints))
}

func TestPlannerSortOrderPutsHintStreamFirst(t *testing.T) {
	ctx := buildSimpleDoc()
	plan, err := NewPlanner(ctx).Plan()
	require.NoError(t, err)

	order := NewPlanner(ctx).SortOrder(plan)
	require.NotEmpty(t, order)
	require.Equal(t, plan.HintObj, order[0], "the hint stream is the sole UsageHints object and must sort first")
}

func TestPlannerSplitIndexLocatesParamsObject(t *testing.T) {
	ctx := buildSimpleDoc()
	plan, err := NewPlanner(ctx).Plan()
	require.NoError(t, err)

	order := NewPlanner(ctx).SortOrder(plan)
	start := SplitIndex(order, plan)
	require.Less(t, start, len(order))
	require.Equal(t, plan.ParamsObj, order[start])
}

func TestPlannerSortOrderGroupsPage1ObjectsBeforeCatalogue(t *testing.T) {
	ctx := buildSimpleDoc()
	plan, err := NewPlanner(ctx).Plan()
	require.NoError(t, err)
	order := NewPlanner(ctx).SortOrder(plan)

	indexOf := func(n int) int {
		for i, v := range order {
			if v == n {
				return i
			}
		}
		return -1
	}
	// Page-1 objects (3, 4) must precede the catalogue-path objects (1, 2),
	// per the section ordering in SortOrder.
	require.Less(t, indexOf(3), indexOf(1))
	require.Less(t, indexOf(4), indexOf(2))
}
