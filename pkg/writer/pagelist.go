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

import "sort"

// PageObjects is the growable list of object numbers referenced by one page
// (spec.md §3 "Page-objects structure"), plus the aggregate fields the hint
// builder needs once offsets are known.
type PageObjects struct {
	PageObjectNumber int // the page dict's own object number
	Objects          []int

	NumObjects int
	NumShared  int
	MinOffset  int64
	MaxOffset  int64
}

// Add appends objNr to the page's object list.
func (p *PageObjects) Add(objNr int) {
	p.Objects = append(p.Objects, objNr)
}

// SortDedupe sorts Objects ascending and removes duplicates, producing the
// "strictly increasing object numbers" invariant spec.md §3 requires after
// a page list has been finalized (e.g. post-renumbering).
func (p *PageObjects) SortDedupe() {
	if len(p.Objects) == 0 {
		return
	}
	sort.Ints(p.Objects)
	out := p.Objects[:1]
	for _, n := range p.Objects[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	p.Objects = out
	p.NumObjects = len(p.Objects)
}

// Renumber rewrites every object number in Objects (and PageObjectNumber)
// through renumberMap, then re-sorts and dedupes — used after compaction or
// linearization reorders object numbers (spec.md §4.3, §4.5 step 5).
func (p *PageObjects) Renumber(renumberMap map[int]int) {
	if n, ok := renumberMap[p.PageObjectNumber]; ok {
		p.PageObjectNumber = n
	}
	renumbered := make([]int, 0, len(p.Objects))
	for _, old := range p.Objects {
		if n, ok := renumberMap[old]; ok && n != 0 {
			renumbered = append(renumbered, n)
		}
	}
	p.Objects = renumbered
	p.SortDedupe()
}

// AccumulateOffsets computes MinOffset/MaxOffset/NumShared for the page
// given the final per-object write offsets and the usage map, as the hint
// builder's pre-pass does before emitting Table F.4 (spec.md §4.8: "the
// builder walks all used objects a second time to accumulate per-page
// min_ofs, max_ofs, num_objects, num_shared").
func (p *PageObjects) AccumulateOffsets(offsets map[int]int64, usage UsageMap) {
	p.MinOffset, p.MaxOffset = 0, 0
	p.NumShared = 0
	first := true
	for _, n := range p.Objects {
		off, ok := offsets[n]
		if !ok {
			continue
		}
		if first || off < p.MinOffset {
			p.MinOffset = off
		}
		if first || off > p.MaxOffset {
			p.MaxOffset = off
		}
		first = false
		if usage.Has(n, UsageShared) {
			p.NumShared++
		}
	}
	p.NumObjects = len(p.Objects)
}
