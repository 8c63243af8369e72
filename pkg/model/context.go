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

package model

import (
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// Context bundles the XRefTable with the handful of document-level fields
// the writer core needs beyond the trailer: the source PDF version and
// whether the document arrived already using a cross-reference stream
// (xref form choice is driven by provenance, spec.md §4.7).
type Context struct {
	XRefTable *XRefTable

	HeaderVersion string // e.g. "1.7"
	UsedXRefStreams bool // true if the source used xref streams, not classic xref

	// FreezeUpdates is set for the duration of a save, preventing concurrent
	// mutation of the document model by the caller (spec.md §5).
	FreezeUpdates bool
}

// NewContext wraps xt.
func NewContext(xt *XRefTable) *Context {
	return &Context{XRefTable: xt}
}

// Catalog returns the document catalog dict.
func (ctx *Context) Catalog() (types.Dict, error) {
	if ctx.XRefTable.Root == nil {
		return nil, errors.New("pdfcpu: Catalog: missing /Root")
	}
	return ctx.XRefTable.DereferenceDict(*ctx.XRefTable.Root)
}

// Trailer synthesizes the trailer dict as it should be written: /Size,
// /Root, optionally /Info, /Encrypt, /ID. Callers append /Prev themselves
// for incremental updates (spec.md §4.7).
func (ctx *Context) Trailer() types.Dict {
	xt := ctx.XRefTable
	d := types.NewDict()
	d.Insert("Size", types.Integer(xt.Size))
	if xt.Root != nil {
		d.Insert("Root", *xt.Root)
	}
	if xt.Info != nil {
		d.Insert("Info", *xt.Info)
	}
	if xt.Encrypt != nil {
		d.Insert("Encrypt", *xt.Encrypt)
	}
	if xt.ID != nil {
		d.Insert("ID", xt.ID)
	}
	return d
}

// SetInfoEntry sets key to value in the trailer's /Info dict (ISO 32000-1
// 14.3.3), encoding value as a PDF text string via types.NewTextString and
// creating the /Info dict as a new indirect object if the document didn't
// already have one.
func (ctx *Context) SetInfoEntry(key, value string) error {
	xt := ctx.XRefTable
	textString := types.NewTextString(value)

	if xt.Info == nil {
		d := types.NewDict()
		d.Update(key, textString)
		n := xt.InsertObject(d)
		ref := types.NewIndirectRef(n, 0)
		xt.Info = &ref
		return nil
	}

	entry, ok := xt.FindTableEntry(xt.Info.ObjectNumber.Value())
	if !ok {
		return errors.Errorf("pdfcpu: SetInfoEntry: missing /Info obj #%d", xt.Info.ObjectNumber.Value())
	}
	d, ok := entry.Object.(types.Dict)
	if !ok {
		return errors.New("pdfcpu: SetInfoEntry: /Info is not a dict")
	}
	d.Update(key, textString)
	entry.Object = d
	return nil
}

// PageTreeRoot returns the indirect reference to /Root/Pages.
func (ctx *Context) PageTreeRoot() (*types.IndirectRef, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	ir := root.IndirectRefEntry("Pages")
	if ir == nil {
		return nil, errors.New("pdfcpu: PageTreeRoot: missing /Pages")
	}
	return ir, nil
}

// InlineStreamLength resolves obj's /Length when it is an indirect
// reference and writes the resolved value back as a direct Integer
// (spec.md §4.1). It returns the length object's number, or 0 if /Length
// was absent or already direct; the length object itself is left in the
// table unchanged.
func (ctx *Context) InlineStreamLength(objNr int) (freed int, err error) {
	e, ok := ctx.XRefTable.FindTableEntry(objNr)
	if !ok || e.Free {
		return 0, nil
	}
	sd, ok := e.Object.(types.StreamDict)
	if !ok {
		return 0, nil
	}
	v, found := sd.Find("Length")
	if !found {
		return 0, nil
	}
	ir, ok := v.(types.IndirectRef)
	if !ok {
		return 0, nil
	}
	lenObjNr := ir.ObjectNumber.Value()
	resolved, err := ctx.XRefTable.Resolve(ir)
	if err != nil {
		return 0, err
	}
	n, ok := resolved.(types.Integer)
	if !ok {
		// Fall back to the raw byte count; a missing/invalid /Length is
		// repaired rather than propagated (spec.md §4.1 failure policy).
		n = types.Integer(len(sd.Raw))
	}
	sd.Update("Length", n)
	e.Object = sd
	return lenObjNr, nil
}
