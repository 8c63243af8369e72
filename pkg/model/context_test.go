/*
Copyright 2021 The pdfcpu Authors.

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

package model

import (
	"testing"

	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestSetInfoEntryCreatesInfoDictWhenAbsent(t *testing.T) {
	xt := NewXRefTable()
	xt.Size = 1
	ctx := NewContext(xt)

	require.Nil(t, xt.Info)
	require.NoError(t, ctx.SetInfoEntry("Author", "Jane Doe"))
	require.NotNil(t, xt.Info)

	entry, ok := xt.FindTableEntry(xt.Info.ObjectNumber.Value())
	require.True(t, ok)
	d := entry.Object.(types.Dict)
	v, found := d.Find("Author")
	require.True(t, found)
	require.Equal(t, types.StringLiteral("Jane Doe"), v)
}

func TestSetInfoEntryUpdatesExistingInfoDict(t *testing.T) {
	xt := NewXRefTable()
	d := types.NewDict()
	d.Insert("Title", types.StringLiteral("old"))
	xt.Table[1] = NewInUseEntry(d)
	ref := types.NewIndirectRef(1, 0)
	xt.Info = &ref
	xt.Size = 2
	ctx := NewContext(xt)

	require.NoError(t, ctx.SetInfoEntry("Title", "new title"))

	entry, _ := xt.FindTableEntry(1)
	got := entry.Object.(types.Dict)
	v, _ := got.Find("Title")
	require.Equal(t, types.StringLiteral("new title"), v)
}

func TestTrailerIncludesInfoWhenPresent(t *testing.T) {
	xt := NewXRefTable()
	xt.Size = 2
	root := types.NewIndirectRef(1, 0)
	xt.Root = &root
	ctx := NewContext(xt)
	require.NoError(t, ctx.SetInfoEntry("Author", "Jane Doe"))

	trailer := ctx.Trailer()
	_, found := trailer.Find("Info")
	require.True(t, found)
}
