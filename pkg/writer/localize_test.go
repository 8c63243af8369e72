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

	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/stretchr/testify/require"
)

// buildInheritingDoc is a 2-page document where MediaBox and a Font
// resource live only on the Pages root, and page #1 adds a Helvetica entry
// that must win over the inherited one of the same sub-key.
func buildInheritingDoc() *model.Context {
	xt := model.NewXRefTable()

	font := types.NewDict()
	font.Insert("F1", types.Name("Helvetica"))
	rootRes := types.NewDict()
	rootRes.Insert("Font", font)

	pageFont := types.NewDict()
	pageFont.Insert("F1", types.Name("Times"))
	page1Res := types.NewDict()
	page1Res.Insert("Font", pageFont)

	page1 := types.NewDict()
	page1.Insert("Type", types.Name("Page"))
	page1.Insert("Resources", page1Res)
	xt.Table[3] = model.NewInUseEntry(page1)

	page2 := types.NewDict()
	page2.Insert("Type", types.Name("Page"))
	xt.Table[4] = model.NewInUseEntry(page2)

	pages := types.NewDict()
	pages.Insert("Type", types.Name("Pages"))
	pages.Insert("MediaBox", types.Array{types.Integer(0), types.Integer(0), types.Integer(612), types.Integer(792)})
	pages.Insert("Resources", rootRes)
	pages.Insert("Kids", types.Array{types.NewIndirectRef(3, 0), types.NewIndirectRef(4, 0)})
	xt.Table[2] = model.NewInUseEntry(pages)

	catalog := types.NewDict()
	catalog.Insert("Type", types.Name("Catalog"))
	catalog.Insert("Pages", types.NewIndirectRef(2, 0))
	xt.Table[1] = model.NewInUseEntry(catalog)

	xt.Size = 5
	root := types.NewIndirectRef(1, 0)
	xt.Root = &root

	return model.NewContext(xt)
}

func TestLocalizeBakesInheritedMediaBoxIntoLeaves(t *testing.T) {
	ctx := buildInheritingDoc()
	require.NoError(t, NewLocalizer(ctx).Localize())

	for _, n := range []int{3, 4} {
		entry, ok := ctx.XRefTable.FindTableEntry(n)
		require.True(t, ok)
		page := entry.Object.(types.Dict)
		v, found := page.Find("MediaBox")
		require.True(t, found, "page #%d must inherit MediaBox", n)
		require.Equal(t, types.Integer(612), v.(types.Array)[2])
	}
}

func TestLocalizeLeafResourceWinsOverInherited(t *testing.T) {
	ctx := buildInheritingDoc()
	require.NoError(t, NewLocalizer(ctx).Localize())

	entry, _ := ctx.XRefTable.FindTableEntry(3)
	page := entry.Object.(types.Dict)
	resources, found := page.Find("Resources")
	require.True(t, found)
	font, found := resources.(types.Dict).Find("Font")
	require.True(t, found)
	f1, found := font.(types.Dict).Find("F1")
	require.True(t, found)
	require.Equal(t, types.Name("Times"), f1)
}

func TestLocalizeLeafInheritsResourceWhenAbsent(t *testing.T) {
	ctx := buildInheritingDoc()
	require.NoError(t, NewLocalizer(ctx).Localize())

	entry, _ := ctx.XRefTable.FindTableEntry(4)
	page := entry.Object.(types.Dict)
	resources, found := page.Find("Resources")
	require.True(t, found, "page #4 has no own /Resources and must inherit the root's")
	font, found := resources.(types.Dict).Find("Font")
	require.True(t, found)
	f1, found := font.(types.Dict).Find("F1")
	require.True(t, found)
	require.Equal(t, types.Name("Helvetica"), f1)
}

func TestLocalizeStripsInheritableKeysFromInteriorNode(t *testing.T) {
	ctx := buildInheritingDoc()
	require.NoError(t, NewLocalizer(ctx).Localize())

	entry, _ := ctx.XRefTable.FindTableEntry(2)
	pages := entry.Object.(types.Dict)
	_, hasMediaBox := pages.Find("MediaBox")
	require.False(t, hasMediaBox, "interior Pages node must end up flat-leaf-only")
	_, hasResources := pages.Find("Resources")
	require.False(t, hasResources)
}
