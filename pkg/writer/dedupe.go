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
	"bytes"
	"reflect"
	"sort"

	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
)

// RenumberMap is new_num[old_num] (spec.md §3): 0 means dropped.
type RenumberMap map[int]int

// Deduplicate runs the pairwise duplicate pass (spec.md §4.2), only valid
// at garbage >= 3. inUse is mutated by clearing duplicates from it. The
// comparison matches the teacher's optimizeContentStreamUsage bucketing:
// only candidates worth comparing (here, every in-use pair) are compared
// structurally, with stream bodies additionally compared at garbage >= 4.
func Deduplicate(ctx *model.Context, inUse map[int]bool, garbage int, renumber RenumberMap) {
	if garbage < 3 {
		return
	}
	if log.WriteEnabled() {
		log.Write.Println("Deduplicate begin")
	}

	nums := make([]int, 0, len(inUse))
	for n, ok := range inUse {
		if ok {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	for idx, i := range nums {
		if !inUse[i] {
			continue
		}
		for _, j := range nums[:idx] {
			if !inUse[j] {
				continue
			}
			if r, ok := renumber[i]; ok && r != i {
				// Already folded into an earlier duplicate.
				break
			}
			if objectsEqual(ctx, i, j, garbage) {
				renumber[i] = j
				inUse[i] = false
				if log.WriteEnabled() {
					log.Write.Printf("Deduplicate: #%d == #%d, folding\n", i, j)
				}
				break
			}
		}
	}

	if log.WriteEnabled() {
		log.Write.Println("Deduplicate end")
	}
}

func objectsEqual(ctx *model.Context, i, j int, garbage int) bool {
	xt := ctx.XRefTable
	ei, ok1 := xt.FindTableEntry(i)
	ej, ok2 := xt.FindTableEntry(j)
	if !ok1 || !ok2 || ei.Free || ej.Free {
		return false
	}

	si, isStreamI := ei.Object.(types.StreamDict)
	sj, isStreamJ := ej.Object.(types.StreamDict)

	if isStreamI != isStreamJ {
		return false
	}

	if isStreamI {
		if garbage < 4 {
			return false
		}
		if !reflect.DeepEqual(si.Dict, sj.Dict) {
			return false
		}
		return bytes.Equal(si.Raw, sj.Raw)
	}

	return reflect.DeepEqual(ei.Object, ej.Object)
}
