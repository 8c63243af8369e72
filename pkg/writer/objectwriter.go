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
	"encoding/hex"
	"io"

	"github.com/mechiko/pdflinear/pkg/filter"
	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// ObjectWriter emits individual objects in their final on-disk form
// (spec.md §4.6).
type ObjectWriter struct {
	ctx  *model.Context
	opts *Options
}

// NewObjectWriter returns an ObjectWriter configured by opts.
func NewObjectWriter(ctx *model.Context, opts *Options) *ObjectWriter {
	return &ObjectWriter{ctx: ctx, opts: opts}
}

// WriteObject emits object objNr to sink, recording its write offset. It
// does not look at /Type: /ObjStm and /XRef stream objects are written like
// any other stream.
func (w *ObjectWriter) WriteObject(sink *Sink, objNr int) error {
	entry, ok := w.ctx.XRefTable.FindTableEntry(objNr)
	if !ok || entry.Free || entry.Object == nil {
		return nil
	}

	sink.SetWriteOffset(objNr)

	if sd, isStream := entry.Object.(types.StreamDict); isStream {
		return w.writeStreamObject(sink, objNr, &sd)
	}
	return w.writeDirectObject(sink, objNr, entry.Object)
}

func (w *ObjectWriter) writeDirectObject(sink *Sink, objNr int, obj types.Object) error {
	if _, err := sink.Printf("%d %d obj%s", objNr, 0, sink.Eol); err != nil {
		return err
	}
	if _, err := sink.WriteString(obj.PDFString()); err != nil {
		return err
	}
	_, err := sink.Printf("%sendobj%s%s", sink.Eol, sink.Eol, sink.Eol)
	return err
}

func (w *ObjectWriter) writeStreamObject(sink *Sink, objNr int, sd *types.StreamDict) error {
	raw, dict, err := w.resolveStreamBody(sd)
	if err != nil {
		if w.opts.ContinueOnError {
			w.opts.Errors++
			if log.WriteEnabled() {
				log.Write.Printf("writeStreamObject: obj #%d failed, emitting null: %v\n", objNr, err)
			}
			if _, err := sink.Printf("%d %d obj%snull%sendobj%s%s", objNr, 0, sink.Eol, sink.Eol, sink.Eol, sink.Eol); err != nil {
				return err
			}
			return nil
		}
		return errors.Wrapf(err, "pdfcpu: writer: obj #%d", objNr)
	}

	dict.Update("Length", types.Integer(len(raw)))

	if _, err := sink.Printf("%d %d obj%s", objNr, 0, sink.Eol); err != nil {
		return err
	}
	if _, err := sink.WriteString(dict.PDFString()); err != nil {
		return err
	}
	if _, err := sink.Printf("%sstream%s", sink.Eol, sink.Eol); err != nil {
		return err
	}
	if _, err := sink.WriteBytes(raw); err != nil {
		return err
	}
	sink.BinaryTotalSize += int64(len(raw))
	if sd.IsImage() {
		sink.BinaryImageSize += int64(len(raw))
	} else if sd.IsFontFile() {
		sink.BinaryFontSize += int64(len(raw))
	}
	_, err = sink.Printf("%sendstream%sendobj%s%s", sink.Eol, sink.Eol, sink.Eol, sink.Eol)
	return err
}

// resolveStreamBody implements the copy-or-expand decision of spec.md
// §4.6, returning the final raw bytes to write and the dict (with
// /Filter/DecodeParms already adjusted to match).
func (w *ObjectWriter) resolveStreamBody(sd *types.StreamDict) ([]byte, types.Dict, error) {
	dict := sd.Dict.Clone().(types.Dict)

	if len(sd.Raw) == 0 {
		return nil, dict, nil
	}

	expandable := w.shouldExpand(sd)
	if !expandable {
		return w.copyBody(sd, dict)
	}
	return w.expandBody(sd, dict)
}

// shouldExpand decides copy vs. expand, skipping image/font streams unless
// the corresponding PDF_EXPAND_IMAGES/FONTS bit is set (spec.md §4.6).
func (w *ObjectWriter) shouldExpand(sd *types.StreamDict) bool {
	if w.opts.Expand == ExpandNone {
		return false
	}
	if sd.IsImage() && w.opts.Expand&ExpandImages == 0 {
		return false
	}
	if sd.IsFontFile() && w.opts.Expand&ExpandFonts == 0 {
		return false
	}
	return true
}

func (w *ObjectWriter) copyBody(sd *types.StreamDict, dict types.Dict) ([]byte, types.Dict, error) {
	raw := sd.Raw

	if w.opts.DoASCII && !sd.HasSoleFilterNamed(types.FilterASCIIHex) && looksBinary(raw) {
		enc, err := applyFilter(types.FilterASCIIHex, raw)
		if err != nil {
			return nil, nil, err
		}
		raw = enc
		appendFilterEntry(dict, types.FilterASCIIHex)
	}

	if w.opts.DoDeflate && len(sd.FilterPipeline) == 0 {
		enc, err := applyFilter(types.FilterFlate, raw)
		if err != nil {
			return nil, nil, err
		}
		raw = enc
		appendFilterEntry(dict, types.FilterFlate)
	}

	return raw, dict, nil
}

func (w *ObjectWriter) expandBody(sd *types.StreamDict, dict types.Dict) ([]byte, types.Dict, error) {
	raw := sd.Raw
	for i := len(sd.FilterPipeline) - 1; i >= 0; i-- {
		f := sd.FilterPipeline[i]
		dec, err := decodeFilter(f.Name, raw)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "pdfcpu: writer: decode %s", f.Name)
		}
		raw = dec
	}
	dict.Delete("Filter")
	dict.Delete("DecodeParms")

	if w.opts.DoDeflate {
		enc, err := applyFilter(types.FilterFlate, raw)
		if err != nil {
			return nil, nil, err
		}
		raw = enc
		appendFilterEntry(dict, types.FilterFlate)
	} else if w.opts.DoASCII && looksBinary(raw) {
		enc, err := applyFilter(types.FilterASCIIHex, raw)
		if err != nil {
			return nil, nil, err
		}
		raw = enc
		appendFilterEntry(dict, types.FilterASCIIHex)
	}

	return raw, dict, nil
}

func appendFilterEntry(dict types.Dict, name string) {
	existing, _ := dict.Find("Filter")
	switch f := existing.(type) {
	case nil:
		dict.Insert("Filter", types.Name(name))
	case types.Name:
		dict.Insert("Filter", types.Array{f, types.Name(name)})
	case types.Array:
		dict.Insert("Filter", append(f, types.Name(name)))
	}
}

func applyFilter(name string, raw []byte) ([]byte, error) {
	f, err := filter.NewFilter(name, nil)
	if err != nil {
		return nil, err
	}
	r, err := f.Encode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "pdfcpu: writer: encode %s", name)
	}
	return io.ReadAll(r)
}

func decodeFilter(name string, raw []byte) ([]byte, error) {
	if name == types.FilterASCIIHex {
		return hex.DecodeString(string(bytes.TrimRight(raw, ">\r\n \t")))
	}
	f, err := filter.NewFilter(name, nil)
	if err != nil {
		return nil, err
	}
	r, err := f.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// looksBinary is a cheap heuristic: any byte outside printable ASCII plus
// common whitespace marks a stream as binary for do_ascii wrapping.
func looksBinary(b []byte) bool {
	for _, c := range b {
		if c < 0x09 || (c > 0x0D && c < 0x20) || c > 0x7E {
			return true
		}
	}
	return false
}
