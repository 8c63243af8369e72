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
	"sort"

	"github.com/mechiko/pdflinear/pkg/log"
)

// HintBuilder assembles the linearization parameter dictionary's hint
// stream: Table F.3/F.4 (Page Offset Hint Table) followed by Table F.5/F.6
// (Shared Object Hint Table), per spec.md §4.8.
type HintBuilder struct {
	plan    *LinearizationPlan
	offsets map[int]int64 // final object number -> write offset
	lengths map[int]int64 // final object number -> object byte length
}

// NewHintBuilder returns a HintBuilder over a finished plan and the final
// per-object offsets/lengths pass 0 recorded.
func NewHintBuilder(plan *LinearizationPlan, offsets, lengths map[int]int64) *HintBuilder {
	return &HintBuilder{plan: plan, offsets: offsets, lengths: lengths}
}

// sharedObject is one row of the Shared Object Hint Table (Table F.6).
type sharedObject struct {
	objNr  int
	length int64
}

// PatchOffsets corrects the two absolute byte-offset fields Build baked into
// hintBytes using the uncorrected pass-0 offsets h was built with: the page
// offset table's "first page offset" (Table F.3 item 2, the fixed 32 bits at
// byte 4) and, if any object is shared, the shared object table's "first
// shared object offset" (Table F.5's first 32-bit field, at
// sharedTableOffset). Every other field Build packs is either a count, a
// delta between two pass-0 offsets (immune to a uniform shift), or a fixed
// zero — these two are the only fields whose correct value depends on the
// hint stream's own final length, which isn't known until after Build
// returns. Because both are fixed-width 32-bit fields, patching them in
// place by adding hintLen never changes hintBytes' length.
func (h *HintBuilder) PatchOffsets(hintBytes []byte, sharedTableOffset, hintLen int64) {
	if len(h.plan.Pages) > 0 {
		patchAbsoluteOffset(hintBytes, 4, hintLen)
	}
	if len(h.collectShared()) > 0 {
		patchAbsoluteOffset(hintBytes, int(sharedTableOffset), hintLen)
	}
}

// patchAbsoluteOffset adds delta to the 4-byte big-endian unsigned integer
// at buf[byteOffset:byteOffset+4].
func patchAbsoluteOffset(buf []byte, byteOffset int, delta int64) {
	v := int64(buf[byteOffset])<<24 | int64(buf[byteOffset+1])<<16 | int64(buf[byteOffset+2])<<8 | int64(buf[byteOffset+3])
	v += delta
	buf[byteOffset] = byte(v >> 24)
	buf[byteOffset+1] = byte(v >> 16)
	buf[byteOffset+2] = byte(v >> 8)
	buf[byteOffset+3] = byte(v)
}

// Build returns the packed hint stream bytes, plus the byte offset within
// that stream where the Shared Object Hint Table (Table F.5/F.6) begins —
// the value the hint stream dict's own /S entry records.
func (h *HintBuilder) Build() ([]byte, int64) {
	if log.WriteEnabled() {
		log.Write.Println("HintBuilder.Build begin")
	}

	shared := h.collectShared()
	sharedIndex := make(map[int]int, len(shared))
	for i, s := range shared {
		sharedIndex[s.objNr] = i
	}

	for _, po := range h.plan.Pages {
		po.AccumulateOffsets(h.offsets, h.plan.Usage)
	}

	bw := &bitWriter{}
	h.writePageOffsetTable(bw, shared, sharedIndex)
	bw.align()
	sharedTableOffset := int64(bw.buf.Len())
	h.writeSharedObjectTable(bw, shared)

	if log.WriteEnabled() {
		log.Write.Println("HintBuilder.Build end")
	}
	return bw.Bytes(), sharedTableOffset
}

// collectShared returns every object flagged SHARED, ordered by final
// object number (the order the shared-object hint table and the object
// writer both use — Table F.6's entries are written in write order).
func (h *HintBuilder) collectShared() []sharedObject {
	var nums []int
	for n, flags := range h.plan.Usage {
		if flags&UsageShared != 0 {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	out := make([]sharedObject, len(nums))
	for i, n := range nums {
		out[i] = sharedObject{objNr: n, length: h.lengths[n]}
	}
	return out
}

// pageEntry is the per-page working data the Table F.4 pass needs before
// the bit widths are known.
type pageEntry struct {
	nObjects     int
	length       int64
	nShared      int
	sharedIdx    int
	hasSharedIdx bool
}

func (h *HintBuilder) buildPageEntries(sharedIndex map[int]int) []pageEntry {
	entries := make([]pageEntry, len(h.plan.Pages))
	for i, po := range h.plan.Pages {
		e := pageEntry{nObjects: po.NumObjects, length: po.MaxOffset - po.MinOffset}
		minIdx := -1
		for _, n := range po.Objects {
			if idx, ok := sharedIndex[n]; ok {
				e.nShared++
				if minIdx == -1 || idx < minIdx {
					minIdx = idx
				}
			}
		}
		if minIdx >= 0 {
			e.sharedIdx = minIdx
			e.hasSharedIdx = true
		}
		entries[i] = e
	}
	return entries
}

// writePageOffsetTable packs Table F.3 (the fixed 13-item header) followed
// by one Table F.4 record per page.
func (h *HintBuilder) writePageOffsetTable(bw *bitWriter, shared []sharedObject, sharedIndex map[int]int) {
	entries := h.buildPageEntries(sharedIndex)
	if len(entries) == 0 {
		return
	}

	minObjs, minLength := entries[0].nObjects, entries[0].length
	var maxObjsDelta, maxLengthDelta, maxNShared, maxSharedIdx int64
	for _, e := range entries {
		if e.nObjects < minObjs {
			minObjs = e.nObjects
		}
		if e.length < minLength {
			minLength = e.length
		}
	}
	for _, e := range entries {
		if d := int64(e.nObjects - minObjs); d > maxObjsDelta {
			maxObjsDelta = d
		}
		if d := e.length - minLength; d > maxLengthDelta {
			maxLengthDelta = d
		}
		if int64(e.nShared) > maxNShared {
			maxNShared = int64(e.nShared)
		}
		if int64(e.sharedIdx) > maxSharedIdx {
			maxSharedIdx = int64(e.sharedIdx)
		}
	}

	bitsObjs := ceilLog2(maxObjsDelta)
	bitsLength := ceilLog2(maxLengthDelta)
	bitsNShared := ceilLog2(maxNShared)
	bitsSharedIdx := ceilLog2(maxSharedIdx)

	// Table F.3 header, fixed-width fields (ISO 32000-1 Annex F.3.5).
	bw.writeBits(uint64(minObjs), 32)
	bw.writeBits(uint64(h.offsets[h.plan.FirstPage]), 32)
	bw.writeBits(uint64(bitsObjs), 16)
	bw.writeBits(uint64(minLength), 32)
	bw.writeBits(uint64(bitsLength), 16)
	bw.writeBits(0, 32) // content stream offset number (not produced)
	bw.writeBits(0, 16)
	bw.writeBits(0, 32) // content stream length number (not produced)
	bw.writeBits(0, 16)
	bw.writeBits(uint64(bitsNShared), 16)
	bw.writeBits(uint64(bitsSharedIdx), 16)
	bw.writeBits(0, 16) // numerator (fixed at 0: no fractional-width encoding)
	bw.writeBits(0, 16) // denominator

	for _, e := range entries {
		bw.writeBits(uint64(e.nObjects-minObjs), bitsObjs)
		bw.writeBits(uint64(e.length-minLength), bitsLength)
		bw.writeBits(uint64(e.nShared), bitsNShared)
		bw.writeBits(uint64(e.sharedIdx), bitsSharedIdx)
	}
}

// writeSharedObjectTable packs Table F.5's header followed by one Table F.6
// length entry per shared object; the MD5-presence signature bit is always
// zero, since this writer never emits per-object content-digest hints.
func (h *HintBuilder) writeSharedObjectTable(bw *bitWriter, shared []sharedObject) {
	var firstOffset int64
	if len(shared) > 0 {
		firstOffset = h.offsets[shared[0].objNr]
	}
	bw.writeBits(uint64(firstOffset), 32)
	bw.writeBits(0, 32) // location of first shared-object-hint-table entry (no group table)

	var maxLen int64
	for _, s := range shared {
		if s.length > maxLen {
			maxLen = s.length
		}
	}
	bitsLen := ceilLog2(maxLen)
	bw.writeBits(uint64(bitsLen), 16)
	bw.writeBits(0, 16) // signature flag: no per-entry MD5 present

	for _, s := range shared {
		bw.writeBits(uint64(s.length), bitsLen)
	}
}
