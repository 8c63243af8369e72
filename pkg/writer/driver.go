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
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/sign"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// Driver orchestrates a full save: marking, optional garbage collection,
// optional linearization, the object/xref write, and the post-close
// signature patch (spec.md §4.9's state machine).
type Driver struct {
	ctx  *model.Context
	opts *Options

	// Signatures accumulates unsaved signature records the caller attaches
	// before Save runs; Save consumes them in PATCH_SIGNATURES.
	Signatures []*sign.UnsavedSignature
}

// NewDriver returns a Driver over ctx, configured by opts.
func NewDriver(ctx *model.Context, opts *Options) *Driver {
	return &Driver{ctx: ctx, opts: opts}
}

// Save runs the full state machine and writes the finished file to path.
func (d *Driver) Save(path string) error {
	if err := d.opts.Validate(); err != nil {
		return err
	}
	d.ctx.FreezeUpdates = true
	defer func() { d.ctx.FreezeUpdates = false }()

	if log.WriteEnabled() {
		log.Write.Printf("Driver.Save begin: %s\n", path)
	}

	// INIT -> MARK
	marker := NewMarker(d.ctx)
	end := d.opts.StructuredLog.Stage("MARK")
	err := marker.MarkAll()
	end(err)
	if err != nil {
		return errors.Wrap(err, "pdfcpu: writer: MARK")
	}

	renumber := RenumberMap{}

	// [DEDUPE]
	if d.opts.Garbage >= 3 {
		end = d.opts.StructuredLog.Stage("DEDUPE")
		Deduplicate(d.ctx, marker.InUse, d.opts.Garbage, renumber)
		end(nil)
	}

	// [COMPACT -> RENUMBER -> TRUNCATE]
	if d.opts.Garbage >= 1 && !d.opts.Incremental {
		end = d.opts.StructuredLog.Stage("COMPACT_RENUMBER")
		Compact(d.ctx.XRefTable, marker.InUse, renumber)
		RenumberAll(d.ctx, renumber)
		end(nil)
	}

	var plan *LinearizationPlan

	// [LOCALIZE -> PLAN_LINEAR]
	if d.opts.Linearize {
		end = d.opts.StructuredLog.Stage("LOCALIZE")
		err := NewLocalizer(d.ctx).Localize()
		end(err)
		if err != nil {
			return errors.Wrap(err, "pdfcpu: writer: LOCALIZE")
		}

		end = d.opts.StructuredLog.Stage("PLAN_LINEAR")
		p, err := NewPlanner(d.ctx).Plan()
		end(err)
		if err != nil {
			return errors.Wrap(err, "pdfcpu: writer: PLAN_LINEAR")
		}
		plan = p
	}

	eol := "\n"
	ow := NewObjectWriter(d.ctx, d.opts)

	end = d.opts.StructuredLog.Stage("WRITE")
	if plan != nil {
		err = d.saveLinearized(path, eol, ow, plan)
	} else {
		err = d.savePlain(path, eol, ow)
	}
	end(err)
	if err != nil {
		return err
	}

	// PATCH_SIGNATURES
	end = d.opts.StructuredLog.Stage("PATCH_SIGNATURES")
	err = PatchSignatures(path, d.Signatures)
	end(err)
	if err != nil {
		return errors.Wrap(err, "pdfcpu: writer: PATCH_SIGNATURES")
	}

	if log.WriteEnabled() {
		log.Write.Println("Driver.Save end")
	}
	return nil
}

// savePlain is the non-linearized WRITE_PASS0 -> WRITE_FINAL_XREF ->
// CLOSE_OUTPUT sequence: a single pass over every in-use object in
// ascending object-number order.
func (d *Driver) savePlain(path, eol string, ow *ObjectWriter) error {
	sink, err := NewSink(path, eol)
	if err != nil {
		return err
	}

	xt := d.ctx.XRefTable
	nums := make([]int, 0, len(xt.Table))
	for n := range xt.Table {
		if n != 0 {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	if err := d.writeHeader(sink); err != nil {
		return err
	}
	for _, n := range nums {
		if err := ow.WriteObject(sink, n); err != nil {
			return err
		}
	}

	xw := NewXRefWriter(d.ctx, d.opts)
	if d.opts.UseXRefStreams {
		err = xw.WriteStream(sink, ow)
	} else {
		err = xw.WriteClassic(sink, d.opts.Incremental, nil)
	}
	if err != nil {
		return err
	}

	sink.LogStats()
	return sink.Close()
}

// saveLinearized runs the two-pass write (spec.md §4.9, §4.5 step 5
// onward): pass 0 establishes every object's offset with a zero-length hint
// stream placeholder, the hint builder then produces the real hint bytes
// from those offsets, and pass 1 rewrites the file with the real hint
// stream spliced in, padding every later object to its pass-0 offset plus
// the hint stream's real length (the one quantity that changes between
// passes, since it is the only object whose size wasn't known up front).
//
// Each pass emits two classic xref sections, not one: the first right after
// the first-page group (order[:start]), covering only those objects, and
// the main one after the remainder (order[start:]), covering every object
// and chaining back to the first via /Prev — spec.md §4.9's "first xref
// table at first_xref_offset" plus §6.3's first-xref/main-xref pair.
func (d *Driver) saveLinearized(path, eol string, ow *ObjectWriter, plan *LinearizationPlan) error {
	order := NewPlanner(d.ctx).SortOrder(plan)
	start := SplitIndex(order, plan)
	xw := NewXRefWriter(d.ctx, d.opts)

	lengths := map[int]int64{}
	writeRange := func(sink *Sink, nums []int) error {
		for _, n := range nums {
			before := sink.Tell()
			if err := ow.WriteObject(sink, n); err != nil {
				return err
			}
			lengths[n] = sink.Tell() - before
		}
		return nil
	}

	pass0, err := NewSink(path, eol)
	if err != nil {
		return err
	}
	if err := d.writeHeader(pass0); err != nil {
		return err
	}

	if err := writeRange(pass0, order[:start]); err != nil {
		return err
	}
	firstXRefOffset0 := pass0.Tell()
	if err := xw.WriteClassic(pass0, false, nil); err != nil {
		return err
	}
	if err := writeRange(pass0, order[start:]); err != nil {
		return err
	}

	pass0Offsets := make(map[int]int64, len(pass0.Table))
	for n, off := range pass0.Table {
		pass0Offsets[n] = off
	}

	mainXRefOffset0 := pass0.Tell()
	if err := xw.WriteClassic(pass0, false, &firstXRefOffset0); err != nil {
		return err
	}
	fileLen0 := pass0.Tell()
	if err := pass0.Close(); err != nil {
		return err
	}

	hintBuilder := NewHintBuilder(plan, pass0Offsets, lengths)
	hintBytes, sharedTableOffset := hintBuilder.Build()
	hintLen := int64(len(hintBytes))
	hintBuilder.PatchOffsets(hintBytes, sharedTableOffset, hintLen)

	// UPDATE_PARAMS: patch the nine linearization parameters now that real
	// offsets and the hint stream's length are known.
	if err := d.updateParams(plan, pass0Offsets, mainXRefOffset0, fileLen0, hintLen, order, start); err != nil {
		return err
	}
	if err := d.updateHintDict(plan, sharedTableOffset); err != nil {
		return err
	}

	// WRITE_PASS1
	pass1, err := NewSink(path, eol)
	if err != nil {
		return err
	}
	if err := d.writeHeader(pass1); err != nil {
		return err
	}

	padWrite := func(n int, i int) error {
		target := pass0Offsets[n]
		if i > 0 {
			target += hintLen
		}
		if err := pass1.PadTo(target); err != nil {
			return err
		}
		if n == plan.HintObj {
			return d.writeHintObject(pass1, plan.HintObj, hintBytes)
		}
		return ow.WriteObject(pass1, n)
	}

	for i, n := range order[:start] {
		if err := padWrite(n, i); err != nil {
			return err
		}
	}
	firstXRefOffset1 := pass1.Tell()
	if err := xw.WriteClassic(pass1, false, nil); err != nil {
		return err
	}
	for i, n := range order[start:] {
		if err := padWrite(n, start+i); err != nil {
			return err
		}
	}

	if err := xw.WriteClassic(pass1, false, &firstXRefOffset1); err != nil {
		return err
	}

	pass1.LogStats()
	return pass1.Close()
}

// writeHintObject emits the hint-stream object with its real, final body —
// pass 0 wrote it with an empty body as a sizing placeholder.
func (d *Driver) writeHintObject(sink *Sink, objNr int, content []byte) error {
	xt := d.ctx.XRefTable
	entry, ok := xt.FindTableEntry(objNr)
	if !ok {
		return errors.Errorf("pdfcpu: writer: writeHintObject: missing obj #%d", objNr)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return errors.Errorf("pdfcpu: writer: writeHintObject: obj #%d is not a stream", objNr)
	}
	sd.Raw = content
	sd.FilterPipeline = nil
	sd.Dict.Delete("Filter")
	entry.Object = sd

	return NewObjectWriter(d.ctx, d.opts).WriteObject(sink, objNr)
}

// updateParams patches the Linearization Params dict's sentinel fields with
// their final values (spec.md §3, §4.5 step 5): L (file length), O (first
// page object number), E (end-of-first-page offset), T (main xref offset),
// H (hint stream offset/length pair).
func (d *Driver) updateParams(plan *LinearizationPlan, pass0Offsets map[int]int64, mainXRefOffset0, fileLen0, hintLen int64, order []int, start int) error {
	xt := d.ctx.XRefTable
	entry, ok := xt.FindTableEntry(plan.ParamsObj)
	if !ok {
		return errors.Errorf("pdfcpu: writer: updateParams: missing obj #%d", plan.ParamsObj)
	}
	params, ok := entry.Object.(types.Dict)
	if !ok {
		return errors.Errorf("pdfcpu: writer: updateParams: obj #%d is not a dict", plan.ParamsObj)
	}

	finalFileLen := fileLen0 + hintLen
	mainXRefOffset := mainXRefOffset0 + hintLen

	var endOfFirstPage int64
	if start < len(order) {
		endOfFirstPage = pass0Offsets[order[start]] + hintLen
	} else {
		endOfFirstPage = finalFileLen
	}

	params.Update("L", FixedInt(finalFileLen))
	params.Update("O", FixedInt(plan.FirstPage))
	params.Update("E", FixedInt(endOfFirstPage))
	params.Update("T", FixedInt(mainXRefOffset))
	params.Update("H", types.Array{FixedInt(pass0Offsets[plan.HintObj]), FixedInt(hintLen)})

	entry.Object = params
	return nil
}

// updateHintDict patches the hint stream dict's own /S entry — the offset
// within the stream's content where the Shared Object Hint Table begins —
// now that the builder has produced the real bytes.
func (d *Driver) updateHintDict(plan *LinearizationPlan, sharedTableOffset int64) error {
	xt := d.ctx.XRefTable
	entry, ok := xt.FindTableEntry(plan.HintObj)
	if !ok {
		return errors.Errorf("pdfcpu: writer: updateHintDict: missing obj #%d", plan.HintObj)
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return errors.Errorf("pdfcpu: writer: updateHintDict: obj #%d is not a stream", plan.HintObj)
	}
	sd.Dict.Update("S", types.Integer(sharedTableOffset))
	entry.Object = sd
	return nil
}

// writeHeader emits the "%PDF-x.y" comment line plus the obligatory binary
// marker comment, the conventional first bytes of any PDF file.
func (d *Driver) writeHeader(sink *Sink) error {
	version := d.ctx.HeaderVersion
	if version == "" {
		version = "1.7"
	}
	if _, err := sink.Printf("%%PDF-%s%s", version, sink.Eol); err != nil {
		return err
	}
	_, err := sink.Printf("%%%s%s%s", string([]byte{0xe2, 0xe3, 0xcf, 0xd3}), sink.Eol, sink.Eol)
	return err
}
