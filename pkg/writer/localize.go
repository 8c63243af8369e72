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

// inheritableBoxKeys and resourceSubDicts are spec.md §4.4's named
// inheritable attributes: page boxes copied directly, /Resources merged
// sub-dict by sub-dict.
var inheritableBoxKeys = []string{"MediaBox", "CropBox", "BleedBox", "TrimBox", "ArtBox", "Rotate"}

var resourceSubDicts = []string{"ExtGState", "ColorSpace", "Pattern", "Shading", "XObject", "Font", "ProcSet", "Properties"}

// Localizer pushes inheritable page-tree attributes down to page leaves so
// every page is self-contained — a linearization prerequisite (spec.md
// §4.4). It shares the XRefTable's mark-bit vector for cycle breaking, so
// callers must ResetMarks() before and after.
type Localizer struct {
	ctx *model.Context
}

// NewLocalizer returns a Localizer over ctx.
func NewLocalizer(ctx *model.Context) *Localizer {
	return &Localizer{ctx: ctx}
}

// Localize walks the page tree from /Root/Pages, pushing the inheritable
// keys down to every leaf, then strips them from interior nodes so the
// page tree is flat-leaf-only.
func (l *Localizer) Localize() error {
	if log.WriteEnabled() {
		log.Write.Println("Localize begin")
	}
	xt := l.ctx.XRefTable
	defer xt.ResetMarks()

	root, err := l.ctx.PageTreeRoot()
	if err != nil {
		return err
	}

	if err := l.walk(*root, types.NewDict()); err != nil {
		return err
	}

	if log.WriteEnabled() {
		log.Write.Println("Localize end")
	}
	return nil
}

// walk visits node, merging inherited into it (mutating a local copy for
// children), then recurses into /Kids or applies the accumulated
// attributes if node is a leaf page.
func (l *Localizer) walk(node types.IndirectRef, inherited types.Dict) error {
	xt := l.ctx.XRefTable
	n := node.ObjectNumber.Value()
	if xt.IsMarked(n) {
		return nil
	}
	xt.Mark(n)

	d, err := xt.DereferenceDict(node)
	if err != nil || d == nil {
		return err
	}

	merged := mergeInherited(inherited, d)

	kidsObj, hasKids := d.Find("Kids")
	if !hasKids {
		// Leaf page: bake every inherited key in directly.
		for _, k := range inheritableBoxKeys {
			if v, ok := merged.Find(k); ok {
				d.Insert(k, v)
			}
		}
		if res, ok := merged.Find("Resources"); ok {
			d.Update("Resources", res)
		}
		return xt.UpdateObject(n, d)
	}

	kids, err := xt.DereferenceArray(kidsObj)
	if err != nil {
		return err
	}
	for _, kid := range kids {
		if ir, ok := kid.(types.IndirectRef); ok {
			if err := l.walk(ir, merged); err != nil {
				return err
			}
		}
	}

	// Interior node: delete the now-redundant inheritable keys so the page
	// tree ends up flat-leaf-only, per spec.md §4.4.
	for _, k := range inheritableBoxKeys {
		d.Delete(k)
	}
	d.Delete("Resources")
	return xt.UpdateObject(n, d)
}

// mergeInherited computes the attribute set visible to node's children:
// node's own direct values win over the parent's, and /Resources is merged
// sub-dictionary by sub-dictionary with node's entries winning.
func mergeInherited(parent types.Dict, node types.Dict) types.Dict {
	merged := types.NewDict()
	for k, v := range parent {
		merged.Insert(k, v)
	}
	for _, k := range inheritableBoxKeys {
		if v, ok := node.Find(k); ok {
			merged.Update(k, v)
		}
	}

	parentRes, _ := parent.Find("Resources")
	nodeRes, hasNodeRes := node.Find("Resources")
	pr, _ := parentRes.(types.Dict)
	nr, _ := nodeRes.(types.Dict)

	if !hasNodeRes {
		if pr != nil {
			merged.Insert("Resources", pr)
		}
		return merged
	}

	out := types.NewDict()
	for _, sub := range resourceSubDicts {
		pSub, _ := pr.Find(sub)
		nSub, hasN := nr.Find(sub)
		pd, _ := pSub.(types.Dict)
		nd, _ := nSub.(types.Dict)
		if !hasN {
			if pd != nil {
				out.Insert(sub, pd)
			}
			continue
		}
		combined := types.NewDict()
		for k, v := range pd {
			combined.Insert(k, v)
		}
		for k, v := range nd {
			combined.Update(k, v)
		}
		out.Insert(sub, combined)
	}
	// Non-sub-dictionary-keyed entries (rare) pass through from the leaf.
	for k, v := range nr {
		found := false
		for _, sub := range resourceSubDicts {
			if k == sub {
				found = true
				break
			}
		}
		if !found {
			out.Insert(k, v)
		}
	}
	merged.Update("Resources", out)
	return merged
}
