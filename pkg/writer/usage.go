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

// Usage flags, spec.md §3 "Use-list": the low 8 bits of a per-object u32,
// the high 24 bits of which encode a page index (+1, 0 meaning unused).
const (
	UsageCatalogue   uint32 = 1 << 1 // 2
	UsagePage1       uint32 = 1 << 2 // 4
	UsageShared      uint32 = 1 << 3 // 8
	UsageParams      uint32 = 1 << 4 // 16
	UsageHints       uint32 = 1 << 5 // 32
	UsagePageObject  uint32 = 1 << 6 // 64
	UsageOtherObject uint32 = 1 << 7 // 128

	pageIndexShift = 8
)

// UsageMap is the per-object linearization classification the planner
// builds in pkg/writer/linearize.go (spec.md §4.5) and the hint builder
// consults to group objects by page.
type UsageMap map[int]uint32

// NewUsageMap returns an empty usage map.
func NewUsageMap() UsageMap { return UsageMap{} }

// SetFlags ORs flags into objNr's entry.
func (u UsageMap) SetFlags(objNr int, flags uint32) {
	u[objNr] |= flags
}

// Has reports whether objNr carries every bit in flags.
func (u UsageMap) Has(objNr int, flags uint32) bool {
	return u[objNr]&flags == flags
}

// PageIndex returns the 0-based page index objNr is tagged with, and false
// if it carries no page tag (high 24 bits are zero).
func (u UsageMap) PageIndex(objNr int) (int, bool) {
	v := u[objNr] >> pageIndexShift
	if v == 0 {
		return 0, false
	}
	return int(v) - 1, true
}

// SetPageIndex tags objNr with page index i (0-based), promoting to SHARED
// if it is already tagged with a different page — spec.md §4.5 step 1:
// "An object already marked for a page and then encountered via another
// page is promoted to SHARED."
func (u UsageMap) SetPageIndex(objNr, i int) {
	cur, has := u.PageIndex(objNr)
	if has && cur != i {
		u[objNr] = (u[objNr] &^ (0xFFFFFF << pageIndexShift)) | UsageShared
		return
	}
	u[objNr] = (u[objNr] &^ (0xFFFFFF << pageIndexShift)) | (uint32(i+1) << pageIndexShift) | (u[objNr] & 0xFF)
}
