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

func dictWith(k, v string) types.Dict {
	d := types.NewDict()
	d.Insert(k, types.Name(v))
	return d
}

func TestDeduplicateFoldsStructurallyIdenticalDicts(t *testing.T) {
	xt := model.NewXRefTable()
	xt.Table[1] = model.NewInUseEntry(dictWith("Type", "Font"))
	xt.Table[2] = model.NewInUseEntry(dictWith("Type", "Font")) // duplicate of #1
	xt.Table[3] = model.NewInUseEntry(dictWith("Type", "XObject"))
	xt.Size = 4

	inUse := map[int]bool{1: true, 2: true, 3: true}
	renumber := RenumberMap{}

	Deduplicate(model.NewContext(xt), inUse, 3, renumber)

	require.False(t, inUse[2], "#2 duplicates #1 and should be folded out")
	require.Equal(t, 1, renumber[2])
	require.True(t, inUse[1])
	require.True(t, inUse[3])
	_, renumbered3 := renumber[3]
	require.False(t, renumbered3, "#3 is distinct and must not be folded")
}

func TestDeduplicateRequiresGarbageFourForStreams(t *testing.T) {
	xt := model.NewXRefTable()
	xt.Table[1] = model.NewInUseEntry(types.NewStreamDict(types.NewDict(), []byte("same"), nil))
	xt.Table[2] = model.NewInUseEntry(types.NewStreamDict(types.NewDict(), []byte("same"), nil))
	xt.Size = 3
	inUse := map[int]bool{1: true, 2: true}

	Deduplicate(model.NewContext(xt), inUse, 3, RenumberMap{})
	require.True(t, inUse[2], "identical streams must not fold at garbage level 3")

	renumber := RenumberMap{}
	Deduplicate(model.NewContext(xt), inUse, 4, renumber)
	require.False(t, inUse[2], "identical streams must fold at garbage level 4")
	require.Equal(t, 1, renumber[2])
}

func TestDeduplicateDoesNotFoldDistinctStreamBytes(t *testing.T) {
	xt := model.NewXRefTable()
	xt.Table[1] = model.NewInUseEntry(types.NewStreamDict(types.NewDict(), []byte("aaa"), nil))
	xt.Table[2] = model.NewInUseEntry(types.NewStreamDict(types.NewDict(), []byte("bbb"), nil))
	xt.Size = 3
	inUse := map[int]bool{1: true, 2: true}

	Deduplicate(model.NewContext(xt), inUse, 4, RenumberMap{})

	require.True(t, inUse[1])
	require.True(t, inUse[2])
}

func TestDeduplicateChainsThreeIdenticalObjects(t *testing.T) {
	xt := model.NewXRefTable()
	xt.Table[1] = model.NewInUseEntry(dictWith("Type", "Font"))
	xt.Table[2] = model.NewInUseEntry(dictWith("Type", "Font"))
	xt.Table[3] = model.NewInUseEntry(dictWith("Type", "Font"))
	xt.Size = 4
	inUse := map[int]bool{1: true, 2: true, 3: true}
	renumber := RenumberMap{}

	Deduplicate(model.NewContext(xt), inUse, 3, renumber)

	require.True(t, inUse[1])
	require.False(t, inUse[2])
	require.False(t, inUse[3])
	require.Equal(t, 1, renumber[2])
	require.Equal(t, 1, renumber[3])
}
