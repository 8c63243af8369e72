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

// Package model holds the document model the writer core consumes: a cross
// reference table of numbered objects plus a trailer dictionary. It is
// deliberately narrow — parsing, validation and the decoding filter stack
// are collaborators outside this package's scope (spec.md §1).
package model

import (
	"sort"

	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// ErrRetryLater signals that resolution of an object could not complete
// because the underlying source is incomplete (spec.md §7). Unlike every
// other failure mode it is never swallowed — the driver always re-raises it.
var ErrRetryLater = errors.New("pdfcpu: retry later")

// XRefTableEntry represents one entry of the PDF cross reference table:
// a free slot, an in-use object, or an object compressed into an object
// stream (spec.md §3 "xref entry").
type XRefTableEntry struct {
	Free         bool
	Compressed   bool
	Pending      bool   // object is known to exist but its source hasn't supplied it yet
	Offset       *int64 // valid for in-use entries
	ObjectStream *int   // valid for compressed entries: containing obj stream number
	StreamIndex  *int   // valid for compressed entries: index within the obj stream
	Generation   *int
	Object       types.Object
}

// NewInUseEntry returns an in-use entry wrapping obj at generation 0.
func NewInUseEntry(obj types.Object) *XRefTableEntry {
	gen := 0
	return &XRefTableEntry{Generation: &gen, Object: obj}
}

// NewFreeHeadEntry returns the entry for object 0, the head of the free list.
func NewFreeHeadEntry() *XRefTableEntry {
	gen := types.FreeHeadGeneration
	var offset int64
	return &XRefTableEntry{Free: true, Generation: &gen, Offset: &offset}
}

// IsStream reports whether the entry wraps a stream object.
func (e *XRefTableEntry) IsStream() bool {
	_, ok := e.Object.(types.StreamDict)
	return ok
}

// XRefTable represents a PDF cross reference table: a sparse map from
// object number to XRefTableEntry plus the trailer fields spec.md §3 names.
type XRefTable struct {
	Table map[int]*XRefTableEntry
	Size  int // one past the highest assigned object number

	Root     *types.IndirectRef
	RootDict types.Dict
	Info     *types.IndirectRef
	ID       types.Array
	Encrypt  *types.IndirectRef

	// Linearization section, carried over from the teacher's own XRefTable
	// (where these three fields are annotated "not yet supported"). The
	// linearization planner (pkg/writer/linearize.go) keeps its results in
	// its own LinearizationPlan and does not assign them.
	OffsetPrimaryHintTable  *int64
	OffsetOverflowHintTable *int64
	LinearizationObjs       types.IntSet

	// marked is the reusable cycle-breaking bit vector shared by the
	// reachability marker, the linearization planner and the resource
	// localizer (spec.md §9 "Global mark bits on shared objects"). Callers
	// must call ResetMarks between passes that reuse it.
	marked map[int]bool
}

// NewXRefTable returns an empty XRefTable ready for object insertion.
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Table:             map[int]*XRefTableEntry{0: NewFreeHeadEntry()},
		Size:              1,
		LinearizationObjs: types.IntSet{},
		marked:            map[int]bool{},
	}
}

// FindTableEntry returns the entry for objNr, ignoring generation (this
// writer core never tracks more than one live generation per object).
func (xt *XRefTable) FindTableEntry(objNr int) (*XRefTableEntry, bool) {
	e, ok := xt.Table[objNr]
	return e, ok
}

// InsertObject assigns obj the next free object number and returns it.
func (xt *XRefTable) InsertObject(obj types.Object) int {
	nr := xt.Size
	xt.Table[nr] = NewInUseEntry(obj)
	xt.Size++
	return nr
}

// CreateObject is the model.create_object collaborator of spec.md §6.2.
func (xt *XRefTable) CreateObject(obj types.Object) int {
	return xt.InsertObject(obj)
}

// UpdateObject replaces the object at objNr in place, preserving its
// generation. It is model.update_object of spec.md §6.2.
func (xt *XRefTable) UpdateObject(objNr int, obj types.Object) error {
	e, ok := xt.Table[objNr]
	if !ok {
		return errors.Errorf("pdfcpu: UpdateObject: no such object #%d", objNr)
	}
	e.Object = obj
	e.Free = false
	return nil
}

// UpdateStream is model.update_stream of spec.md §6.2: replace a stream's
// raw bytes and filter pipeline, leaving its dict entries untouched except
// for the caller-supplied ones.
func (xt *XRefTable) UpdateStream(objNr int, raw []byte, pipeline []types.PDFFilter) error {
	e, ok := xt.Table[objNr]
	if !ok {
		return errors.Errorf("pdfcpu: UpdateStream: no such object #%d", objNr)
	}
	sd, ok := e.Object.(types.StreamDict)
	if !ok {
		return errors.Errorf("pdfcpu: UpdateStream: object #%d is not a stream", objNr)
	}
	sd.Raw = raw
	sd.Content = nil
	sd.FilterPipeline = pipeline
	e.Object = sd
	return nil
}

// FreeObject marks objNr free, unlinking it from the in-use set.
func (xt *XRefTable) FreeObject(objNr int) {
	e, ok := xt.Table[objNr]
	if !ok {
		return
	}
	e.Free = true
	e.Object = nil
	gen := 0
	if e.Generation != nil {
		gen = *e.Generation + 1
	}
	e.Generation = &gen
}

// Resolve follows a single level of indirection. A direct object is
// returned unchanged. This is model.resolve_indirect of spec.md §6.2.
// A pending entry (known to exist but not yet supplied by its source)
// yields ErrRetryLater rather than a duff nil — the two failure regimes
// are distinct (spec.md §4.1, §9 "Error channels").
func (xt *XRefTable) Resolve(obj types.Object) (types.Object, error) {
	ir, ok := obj.(types.IndirectRef)
	if !ok {
		return obj, nil
	}
	e, ok := xt.FindTableEntry(ir.ObjectNumber.Value())
	if !ok || e.Free || e.Object == nil {
		if ok && e.Pending {
			return nil, ErrRetryLater
		}
		return nil, nil
	}
	return e.Object, nil
}

// DereferenceDict resolves obj and type-asserts the result to a Dict. It
// also accepts a StreamDict, returning its embedded Dict, matching the
// teacher's DereferenceDict behavior of treating streams as dict-like.
func (xt *XRefTable) DereferenceDict(obj types.Object) (types.Dict, error) {
	o, err := xt.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch d := o.(type) {
	case types.Dict:
		return d, nil
	case types.StreamDict:
		return d.Dict, nil
	case nil:
		return nil, nil
	default:
		return nil, errors.Errorf("pdfcpu: DereferenceDict: expected dict, got %T", o)
	}
}

// DereferenceArray resolves obj and type-asserts the result to an Array.
func (xt *XRefTable) DereferenceArray(obj types.Object) (types.Array, error) {
	o, err := xt.Resolve(obj)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	a, ok := o.(types.Array)
	if !ok {
		return nil, errors.Errorf("pdfcpu: DereferenceArray: expected array, got %T", o)
	}
	return a, nil
}

// DereferenceStreamDict resolves obj and type-asserts the result to a StreamDict.
func (xt *XRefTable) DereferenceStreamDict(obj types.Object) (*types.StreamDict, error) {
	o, err := xt.Resolve(obj)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}
	sd, ok := o.(types.StreamDict)
	if !ok {
		return nil, errors.Errorf("pdfcpu: DereferenceStreamDict: expected stream, got %T", o)
	}
	return &sd, nil
}

// IsMarked reports whether object n carries this pass's mark bit.
func (xt *XRefTable) IsMarked(n int) bool {
	return xt.marked[n]
}

// Mark sets object n's mark bit and reports whether it was already set.
func (xt *XRefTable) Mark(n int) (alreadyMarked bool) {
	alreadyMarked = xt.marked[n]
	xt.marked[n] = true
	return alreadyMarked
}

// Unmark clears object n's mark bit.
func (xt *XRefTable) Unmark(n int) {
	delete(xt.marked, n)
}

// ResetMarks clears every mark bit, readying the table for another pass
// that reuses the shared bit vector (reachability, then linearization
// classification, then resource localization — spec.md §9).
func (xt *XRefTable) ResetMarks() {
	xt.marked = map[int]bool{}
}

// SortedKeys returns every object number in xt.Table in ascending order.
func (xt *XRefTable) SortedKeys() []int {
	keys := make([]int, 0, len(xt.Table))
	for k := range xt.Table {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
