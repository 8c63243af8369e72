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

// Marker implements the reachability marker (spec.md §4.1): a recursive
// walk from the trailer that sets the in-use bit on every object reached,
// inlines indirect /Length values, and repairs duff references by
// substituting a direct null at the reference site. It shares the
// XRefTable's mark-bit vector with the linearization planner and the
// resource localizer (spec.md §9), so callers must call ctx.XRefTable.
// ResetMarks() before a fresh pass reuses it.
type Marker struct {
	ctx    *model.Context
	InUse  map[int]bool
}

// NewMarker returns a Marker over ctx.
func NewMarker(ctx *model.Context) *Marker {
	return &Marker{ctx: ctx, InUse: map[int]bool{}}
}

// MarkAll marks every object reachable from the trailer: /Root, /Info, and
// (if present) /Encrypt.
func (m *Marker) MarkAll() error {
	xt := m.ctx.XRefTable
	if log.WriteEnabled() {
		log.Write.Println("Marker.MarkAll begin")
	}
	if xt.Root != nil {
		if err := m.markObject(*xt.Root); err != nil {
			return err
		}
	}
	if xt.Info != nil {
		if err := m.markObject(*xt.Info); err != nil {
			return err
		}
	}
	if xt.Encrypt != nil {
		if err := m.markObject(*xt.Encrypt); err != nil {
			return err
		}
	}
	if log.WriteEnabled() {
		log.Write.Printf("Marker.MarkAll end: %d objects in use\n", len(m.InUse))
	}
	return nil
}

// markObject is mark(obj) from spec.md §4.1. obj is assumed to already be
// an indirect reference (the entry point); markValue handles arbitrary
// object/array/dict values, including nested indirect references.
func (m *Marker) markObject(ref types.IndirectRef) error {
	n := ref.ObjectNumber.Value()
	xt := m.ctx.XRefTable

	if m.InUse[n] {
		return nil
	}
	m.InUse[n] = true

	if xt.IsMarked(n) {
		// Cycle: already on the current recursion stack.
		return nil
	}
	xt.Mark(n)
	defer xt.Unmark(n)

	entry, ok := xt.FindTableEntry(n)
	if ok && entry.Pending {
		// The source hasn't supplied this object yet: retry-later, never
		// swallowed (spec.md §4.1 failure policy).
		return model.ErrRetryLater
	}
	if !ok || entry.Free || entry.Object == nil {
		// Duff reference: the caller holding this reference substitutes
		// null at the reference site (handled by markValue's caller).
		return nil
	}

	if entry.IsStream() {
		if _, err := m.ctx.InlineStreamLength(n); err != nil {
			if err == model.ErrRetryLater {
				return err
			}
			// Swallowed per spec.md §4.1 failure policy: any resolution
			// failure other than retry-later is swallowed.
		}
		entry, _ = xt.FindTableEntry(n)
	}

	return m.markValue(entry.Object)
}

// markValue recurses through dict values and array elements (spec.md §4.1),
// repairing duff references in place by replacing them with types.Null{}.
func (m *Marker) markValue(v types.Object) error {
	switch o := v.(type) {

	case types.IndirectRef:
		return m.markObject(o)

	case types.Array:
		for i, e := range o {
			if ir, ok := e.(types.IndirectRef); ok {
				if m.isDuff(ir) {
					o[i] = types.Null{}
					continue
				}
			}
			if err := m.markValue(e); err != nil {
				return err
			}
		}

	case types.Dict:
		for k, e := range o {
			if ir, ok := e.(types.IndirectRef); ok {
				if m.isDuff(ir) {
					o[k] = types.Null{}
					continue
				}
			}
			if err := m.markValue(e); err != nil {
				return err
			}
		}

	case types.StreamDict:
		return m.markValue(o.Dict)
	}

	return nil
}

// isDuff reports whether ref points at a missing, free, or nil object —
// i.e. whether markObject would find nothing to mark. A pending object
// (retry-later) is not duff: it is a real, expected object whose source
// just hasn't supplied it yet, so the reference is left untouched and
// markObject's error propagates instead. isDuff is a pure peek at the
// table entry: the actual mark (and any error it raises) happens exactly
// once, via markValue's own types.IndirectRef dispatch to markObject on
// the caller's non-duff path.
func (m *Marker) isDuff(ref types.IndirectRef) bool {
	n := ref.ObjectNumber.Value()
	entry, ok := m.ctx.XRefTable.FindTableEntry(n)
	if ok && entry.Pending {
		return false
	}
	return !ok || entry.Free || entry.Object == nil
}
