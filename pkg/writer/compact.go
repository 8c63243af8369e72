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
	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
)

// Compact computes the final renumber map (spec.md §4.3): every in-use
// object gets the next free low number; objects folded by Deduplicate (or
// simply unused) inherit or map to 0. Requires renumber[num] <= num for
// every num, the invariant Deduplicate guarantees by only ever folding a
// higher number into a lower one.
func Compact(xt *model.XRefTable, inUse map[int]bool, renumber RenumberMap) {
	if log.WriteEnabled() {
		log.Write.Println("Compact begin")
	}

	next := 1
	for num := 1; num < xt.Size; num++ {
		target := num
		if r, ok := renumber[num]; ok {
			target = r
		}

		if target != num {
			// Folded into an earlier object; inherit its already-computed
			// new number (guaranteed already assigned since target < num).
			renumber[num] = renumber[target]
			continue
		}

		if !inUse[num] {
			renumber[num] = 0
			continue
		}

		renumber[num] = next
		next++
	}

	if log.WriteEnabled() {
		log.Write.Printf("Compact end: %d -> %d objects\n", xt.Size-1, next-1)
	}
}

// RenumberAll rewrites every indirect reference in every remaining object,
// including the trailer, substituting dropped references with null, then
// moves each xref entry to its new slot (spec.md §4.3 renumber_all). It
// resets renumber[i] = i for every i afterward, as the spec requires.
func RenumberAll(ctx *model.Context, renumber RenumberMap) {
	xt := ctx.XRefTable
	if log.WriteEnabled() {
		log.Write.Println("RenumberAll begin")
	}

	newTable := map[int]*model.XRefTableEntry{0: model.NewFreeHeadEntry()}

	for old, entry := range xt.Table {
		if old == 0 {
			continue
		}
		newNum, ok := renumber[old]
		if !ok || newNum == 0 {
			continue
		}
		entry.Object = renumberValue(entry.Object, renumber)
		newTable[newNum] = entry
	}

	maxNew := 0
	for n := range newTable {
		if n > maxNew {
			maxNew = n
		}
	}

	xt.Table = newTable
	xt.Size = maxNew + 1

	if xt.Root != nil {
		*xt.Root = renumberRef(*xt.Root, renumber)
	}
	if xt.Info != nil {
		*xt.Info = renumberRef(*xt.Info, renumber)
	}
	if xt.Encrypt != nil {
		*xt.Encrypt = renumberRef(*xt.Encrypt, renumber)
	}

	for old := range renumber {
		renumber[old] = old
	}

	if log.WriteEnabled() {
		log.Write.Println("RenumberAll end")
	}
}

func renumberRef(ref types.IndirectRef, renumber RenumberMap) types.IndirectRef {
	old := ref.ObjectNumber.Value()
	if n, ok := renumber[old]; ok {
		return types.NewIndirectRef(n, 0)
	}
	return ref
}

func renumberValue(v types.Object, renumber RenumberMap) types.Object {
	switch o := v.(type) {

	case types.IndirectRef:
		old := o.ObjectNumber.Value()
		n, ok := renumber[old]
		if !ok || n == 0 {
			return types.Null{}
		}
		return types.NewIndirectRef(n, 0)

	case types.Array:
		for i, e := range o {
			o[i] = renumberValue(e, renumber)
		}
		return o

	case types.Dict:
		for k, e := range o {
			o[k] = renumberValue(e, renumber)
		}
		return o

	case types.StreamDict:
		o.Dict = renumberValue(o.Dict, renumber).(types.Dict)
		return o

	default:
		return v
	}
}
