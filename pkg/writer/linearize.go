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
	"fmt"
	"sort"

	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
)

// LinearizationPlan is the result of running the planner (spec.md §4.5):
// the usage classification, per-page object lists, the sentinel
// Linearization Params / hint-stream object numbers, and the split index
// (opts.start) between the first-page group and the remainder.
type LinearizationPlan struct {
	Usage      UsageMap
	Pages      []*PageObjects // Pages[0] is page 1
	ParamsObj  int
	HintObj    int
	Start      int // index in SortOrder's result of the first object after the first-page group (SplitIndex)
	FirstPage  int // page 1's root dict object number
}

// Planner runs the linearization planner.
type Planner struct {
	ctx *model.Context
}

// NewPlanner returns a Planner over ctx.
func NewPlanner(ctx *model.Context) *Planner {
	return &Planner{ctx: ctx}
}

// Plan executes spec.md §4.5 steps 1-4 (classification, sentinel object
// creation, and the sort order, from which it records the split index in
// Start); step 5 (renumber map composition
// and per-page list renumbering) is the caller's job once the sort order is
// known, since it also drives the final Compact/RenumberAll pass.
func (p *Planner) Plan() (*LinearizationPlan, error) {
	if log.WriteEnabled() {
		log.Write.Println("Plan begin")
	}
	xt := p.ctx.XRefTable
	defer xt.ResetMarks()

	plan := &LinearizationPlan{Usage: NewUsageMap()}

	if err := p.markTrailer(plan); err != nil {
		return nil, err
	}
	p.addLinearizationObjs(plan)
	plan.Start = SplitIndex(p.SortOrder(plan), plan)

	if log.WriteEnabled() {
		log.Write.Println("Plan end")
	}
	return plan, nil
}

// markTrailer is spec.md §4.5 step 1.
func (p *Planner) markTrailer(plan *LinearizationPlan) error {
	xt := p.ctx.XRefTable
	root, err := p.ctx.Catalog()
	if err != nil {
		return err
	}

	// The catalogue path (every object reached while walking down from the
	// catalog to the page tree root, excluding pages themselves) gets
	// CATALOGUE.
	if rootRef := xt.Root; rootRef != nil {
		p.markPath(plan, *rootRef, UsageCatalogue)
	}

	if names := root.IndirectRefEntry("Names"); names != nil {
		p.markPath(plan, *names, UsageOtherObject)
	}
	if dests := root.IndirectRefEntry("Dests"); dests != nil {
		p.markPath(plan, *dests, UsageOtherObject)
	}

	outlineFlag := UsageOtherObject
	if pm := root.NameEntry("PageMode"); pm != nil && *pm == "UseOutlines" {
		outlineFlag = UsagePage1
	}
	if outlines := root.IndirectRefEntry("Outlines"); outlines != nil {
		p.markPath(plan, *outlines, outlineFlag)
	}

	// The catalogue path (every object reached while walking down from the
	// catalog to the page tree root, excluding pages themselves) gets
	// CATALOGUE.
	if rootRef := xt.Root; rootRef != nil {
		p.markPath(plan, *rootRef, UsageCatalogue)
	}

	pagesRef, err := p.ctx.PageTreeRoot()
	if err != nil {
		return err
	}
	pages, err := p.collectPages(*pagesRef)
	if err != nil {
		return err
	}
	plan.Pages = make([]*PageObjects, len(pages))

	for i, pageRef := range pages {
		n := pageRef.ObjectNumber.Value()
		if i == 0 {
			plan.FirstPage = n
		}
		po := &PageObjects{PageObjectNumber: n}
		plan.Pages[i] = po

		visited := map[int]bool{}
		p.markPage(plan, po, pageRef, i, visited, true)
		po.SortDedupe()
	}

	return nil
}

// markPath recursively tags every object reached from ref with flag,
// without page-index tracking — used for the catalogue path and the
// Names/Dests/Outlines side trees. The walk stops at leaf /Page dicts, which
// markPage classifies.
func (p *Planner) markPath(plan *LinearizationPlan, ref types.IndirectRef, flag uint32) {
	xt := p.ctx.XRefTable
	n := ref.ObjectNumber.Value()
	if xt.IsMarked(n) {
		return
	}
	entry, ok := xt.FindTableEntry(n)
	if ok && entry.Object != nil {
		if d, isDict := entry.Object.(types.Dict); isDict {
			if t := d.Type(); t != nil && *t == "Page" {
				return
			}
		}
	}
	xt.Mark(n)
	plan.Usage.SetFlags(n, flag)

	if !ok || entry.Free || entry.Object == nil {
		return
	}
	p.walkValue(entry.Object, func(child types.IndirectRef) {
		p.markPath(plan, child, flag)
	})
}

// markPage recursively tags every object reached from a page, assigning it
// the page's index (promoting to SHARED on a second page, per spec.md §4.5
// step 1); isRoot marks the page dict itself with PAGE_OBJECT.
func (p *Planner) markPage(plan *LinearizationPlan, po *PageObjects, ref types.IndirectRef, pageIdx int, visited map[int]bool, isRoot bool) {
	xt := p.ctx.XRefTable
	n := ref.ObjectNumber.Value()
	if visited[n] {
		return
	}
	visited[n] = true

	flag := UsagePage1
	if pageIdx > 0 {
		flag = 0 // page index itself carries the classification for k>0
	}
	if flag != 0 {
		plan.Usage.SetFlags(n, flag)
	}
	plan.Usage.SetPageIndex(n, pageIdx)
	if isRoot {
		plan.Usage.SetFlags(n, UsagePageObject)
	}
	po.Add(n)

	entry, ok := xt.FindTableEntry(n)
	if !ok || entry.Free || entry.Object == nil {
		return
	}
	p.walkValue(entry.Object, func(child types.IndirectRef) {
		p.markPage(plan, po, child, pageIdx, visited, false)
	})
}

func (p *Planner) walkValue(v types.Object, visit func(types.IndirectRef)) {
	switch o := v.(type) {
	case types.IndirectRef:
		visit(o)
	case types.Array:
		for _, e := range o {
			p.walkValue(e, visit)
		}
	case types.Dict:
		for _, e := range o {
			p.walkValue(e, visit)
		}
	case types.StreamDict:
		p.walkValue(o.Dict, visit)
	}
}

func (p *Planner) collectPages(pagesRef types.IndirectRef) ([]types.IndirectRef, error) {
	xt := p.ctx.XRefTable
	d, err := xt.DereferenceDict(pagesRef)
	if err != nil || d == nil {
		return nil, err
	}
	t := d.Type()
	if t != nil && *t == "Page" {
		return []types.IndirectRef{pagesRef}, nil
	}
	kidsObj, _ := d.Find("Kids")
	kids, err := xt.DereferenceArray(kidsObj)
	if err != nil {
		return nil, err
	}
	var out []types.IndirectRef
	for _, kid := range kids {
		if ir, ok := kid.(types.IndirectRef); ok {
			sub, err := p.collectPages(ir)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

// addLinearizationObjs is spec.md §4.5 step 2: create the Linearization
// Params dict and the hint-stream dict with sentinel integer fields.
//
// The Params dict's L/O/E/T/H fields are FixedInt, not plain Integer: that
// object sits in the middle of the write order, so every object after it
// depends on its serialized length staying IDENTICAL between pass 0 (written
// with the sentinel) and pass 1 (written with the real, final value).
// FixedInt always renders at fixedWidthDigits regardless of value, so the
// patch in updateParams can never change the dict's byte length. The hint
// stream dict's own /S and /Length fields don't need this: that object is
// always first in write order (the only one flagged UsageHints), so its own
// size is free to change — that's the entire point of the two-pass design.
func (p *Planner) addLinearizationObjs(plan *LinearizationPlan) {
	xt := p.ctx.XRefTable

	sentinel := FixedInt(SentinelInt)
	params := types.NewDict()
	params.Insert("Linearized", types.Float(1.0))
	params.Insert("L", sentinel)
	params.Insert("H", types.Array{FixedInt(0), FixedInt(0)})
	params.Insert("O", sentinel)
	params.Insert("E", sentinel)
	params.Insert("N", types.Integer(len(plan.Pages)))
	params.Insert("T", sentinel)
	plan.ParamsObj = xt.InsertObject(params)
	plan.Usage.SetFlags(plan.ParamsObj, UsageParams)

	hintDict := types.NewDict()
	hintDict.Insert("S", types.Integer(SentinelInt))
	hintDict.Insert("Length", types.Integer(SentinelInt))
	hintStream := types.NewStreamDict(hintDict, nil, nil)
	plan.HintObj = xt.InsertObject(hintStream)
	plan.Usage.SetFlags(plan.HintObj, UsageHints)
}

// SentinelInt is the placeholder value for linearization integer fields
// before pass 0 resolves their real offsets (spec.md §3: "Created with
// sentinel value INT_MIN, patched after pass 0"). Chosen as the maximum
// negative 32-bit value specifically because its decimal rendering,
// "-2147483648", is the longest any of these fields will ever print —
// every real, final value is a non-negative file offset or length, so it
// renders no wider. FixedInt pads to that same width regardless, but the
// choice of sentinel keeps the padding-free case (plain Integer, used for
// the hint stream dict's own /S and /Length) safe too.
const SentinelInt = -1 << 31

// fixedWidthDigits is the decimal column width every FixedInt renders at.
// len("-2147483648") == 11, so the widest value fits with no margin to spare.
const fixedWidthDigits = 11

// FixedInt is a PDF integer that always renders at fixedWidthDigits
// characters, zero-padded, so that patching its value in place (as
// updateParams does for the Params dict's L/O/E/T/H fields) can never
// change the byte length of the dict containing it.
type FixedInt int64

func (f FixedInt) String() string      { return fmt.Sprintf("%0*d", fixedWidthDigits, int64(f)) }
func (f FixedInt) PDFString() string   { return f.String() }
func (f FixedInt) Clone() types.Object { return f }
func (f FixedInt) Value() int64        { return int64(f) }

// SortOrder implements spec.md §4.5 step 3: the linearization order
// predicate, returning the objects of xt in final write order (the order
// the object writer and xref writer iterate). Lower index = written earlier.
func (p *Planner) SortOrder(plan *LinearizationPlan) []int {
	xt := p.ctx.XRefTable
	nums := make([]int, 0, len(xt.Table))
	for n := range xt.Table {
		if n != 0 {
			nums = append(nums, n)
		}
	}

	section := func(n int) int {
		u := plan.Usage[n]
		switch {
		case u&UsageHints != 0:
			return 0
		case u&UsagePage1 != 0:
			return 1
		case u&UsageCatalogue != 0:
			return 2
		case u&UsageParams != 0:
			return 3
		case u&UsageOtherObject != 0:
			return 4
		case u&UsageShared != 0:
			return 6
		default:
			if _, onPage := plan.Usage.PageIndex(n); onPage {
				return 7
			}
			return 5 // unused-by-catalogue
		}
	}

	sort.SliceStable(nums, func(i, j int) bool {
		si, sj := section(nums[i]), section(nums[j])
		if si != sj {
			return si < sj
		}
		pi, hasPi := plan.Usage.PageIndex(nums[i])
		pj, hasPj := plan.Usage.PageIndex(nums[j])
		if hasPi && hasPj && pi != pj {
			return pi < pj
		}
		oi := plan.Usage.Has(nums[i], UsagePageObject)
		oj := plan.Usage.Has(nums[j], UsagePageObject)
		if oi != oj {
			return oi
		}
		return nums[i] < nums[j]
	})

	return nums
}

// SplitIndex returns the 0-based index of the first object whose flag is
// PARAMS in order — spec.md §4.5 step 4's opts.start.
func SplitIndex(order []int, plan *LinearizationPlan) int {
	for i, n := range order {
		if plan.Usage.Has(n, UsageParams) {
			return i
		}
	}
	return len(order)
}
