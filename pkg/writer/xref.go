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
	"io"
	"sort"

	"github.com/mechiko/pdflinear/pkg/filter"
	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// XRefWriter emits the final cross-reference section, in either classic or
// cross-reference-stream form (spec.md §4.7).
type XRefWriter struct {
	ctx  *model.Context
	opts *Options
}

// NewXRefWriter returns an XRefWriter configured by opts.
func NewXRefWriter(ctx *model.Context, opts *Options) *XRefWriter {
	return &XRefWriter{ctx: ctx, opts: opts}
}

// sortedWritableKeys returns every object number that is either free (so it
// belongs in the classic free-list chain) or has actually been written this
// pass, in ascending order.
func sortedWritableKeys(xt *model.XRefTable, sink *Sink, incremental bool) []int {
	var keys []int
	for i, e := range xt.Table {
		if (!incremental && e.Free) || sink.HasWriteOffset(i) {
			keys = append(keys, i)
		}
	}
	sort.Ints(keys)
	return keys
}

// WriteTrailer writes the "trailer\n<< ... >>" block.
func (xw *XRefWriter) WriteTrailer(sink *Sink, prevOffset *int64) error {
	xt := xw.ctx.XRefTable

	if _, err := sink.WriteString("trailer"); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}

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
	if prevOffset != nil {
		d.Insert("Prev", types.Integer(*prevOffset))
	}

	_, err := sink.WriteString(d.PDFString())
	return err
}

// writeSubsection emits one classic "start size" block and its fixed
// 20-byte entries.
func (xw *XRefWriter) writeSubsection(sink *Sink, start, size int) error {
	xt := xw.ctx.XRefTable

	if _, err := sink.Printf("%d %d%s", start, size, sink.Eol); err != nil {
		return err
	}

	for i := start; i < start+size; i++ {
		entry := xt.Table[i]
		if entry.Compressed {
			return errors.Errorf("pdfcpu: writer: xref: obj #%d is compressed, classic xref form cannot represent it", i)
		}

		var err error
		if entry.Free {
			gen := 0
			if entry.Generation != nil {
				gen = *entry.Generation
			}
			var off int64
			if entry.Offset != nil {
				off = *entry.Offset
			}
			_, err = sink.Printf("%010d %05d f%2s", off, gen, sink.Eol)
		} else {
			off := sink.Table[i]
			gen := 0
			if entry.Generation != nil {
				gen = *entry.Generation
			}
			_, err = sink.Printf("%010d %05d n%2s", off, gen, sink.Eol)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteClassic writes the classic "xref\n<subsections>\ntrailer\n...\nstartxref\n<n>\n%%EOF"
// form, partitioning the writable keys into maximal contiguous runs (spec.md
// §4.7). incremental, when true, only emits entries actually written this
// pass (the updated/new objects of an incremental save) instead of every
// free slot too.
func (xw *XRefWriter) WriteClassic(sink *Sink, incremental bool, prevOffset *int64) error {
	if log.WriteEnabled() {
		log.Write.Println("WriteClassic begin")
	}
	xt := xw.ctx.XRefTable
	keys := sortedWritableKeys(xt, sink, incremental)
	if len(keys) == 0 {
		return errors.New("pdfcpu: writer: xref: nothing to write")
	}

	xrefOffset := sink.Tell()

	if _, err := sink.WriteString("xref"); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}

	start := keys[0]
	size := 1
	for i := 1; i < len(keys); i++ {
		if keys[i]-keys[i-1] > 1 {
			if err := xw.writeSubsection(sink, start, size); err != nil {
				return err
			}
			start = keys[i]
			size = 1
			continue
		}
		size++
	}
	if err := xw.writeSubsection(sink, start, size); err != nil {
		return err
	}

	if err := xw.WriteTrailer(sink, prevOffset); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}

	if _, err := sink.WriteString("startxref"); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}
	if _, err := sink.Printf("%d", xrefOffset); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}
	_, err := sink.WriteString("%%EOF")
	if err == nil {
		err = sink.WriteEol()
	}

	if log.WriteEnabled() {
		log.Write.Println("WriteClassic end")
	}
	return err
}

// int64ToBuf packs i into byteCount big-endian bytes, the cross-reference
// stream's fixed-width field encoding (ISO 32000-1 §7.5.8.2).
func int64ToBuf(i int64, byteCount int) []byte {
	buf := make([]byte, byteCount)
	for j := byteCount - 1; j >= 0; j-- {
		buf[j] = byte(i & 0xff)
		i >>= 8
	}
	return buf
}

// byteWidth returns the smallest number of bytes needed to represent i (at
// least 1).
func byteWidth(i int64) int {
	n := 0
	for i > 0 {
		i >>= 8
		n++
	}
	if n == 0 {
		n = 1
	}
	return n
}

// WriteStream writes a PDF 1.5+ cross-reference stream object: one packed
// W=[1,f2,2] triple per object, Index pairs for each contiguous run, Flate
// encoded. The stream object itself is folded into its own Index range.
func (xw *XRefWriter) WriteStream(sink *Sink, ow *ObjectWriter) error {
	if log.WriteEnabled() {
		log.Write.Println("WriteStream begin")
	}
	xt := xw.ctx.XRefTable

	xrefObjNr := xt.InsertObject(types.NewDict())
	keys := sortedWritableKeys(xt, sink, false)
	keys = insertSorted(keys, xrefObjNr)

	maxOffsetCandidate := sink.Tell()
	f2 := byteWidth(maxOffsetCandidate + 1)
	f3 := 2

	content, index, err := buildXRefStreamContent(xt, sink, keys, f2, f3)
	if err != nil {
		return err
	}

	d := types.NewDict()
	d.Insert("Type", types.Name("XRef"))
	d.Insert("Size", types.Integer(xt.Size))
	if xt.Root != nil {
		d.Insert("Root", *xt.Root)
	}
	if xt.Info != nil {
		d.Insert("Info", *xt.Info)
	}
	if xt.ID != nil {
		d.Insert("ID", xt.ID)
	}
	d.Insert("W", types.Array{types.Integer(1), types.Integer(f2), types.Integer(f3)})
	d.Insert("Index", index)

	flateFilter, err := filter.NewFilter(types.FilterFlate, nil)
	if err != nil {
		return err
	}
	encR, err := flateFilter.Encode(bytes.NewReader(content))
	if err != nil {
		return errors.Wrap(err, "pdfcpu: writer: xref stream: flate encode")
	}
	raw, err := io.ReadAll(encR)
	if err != nil {
		return err
	}
	d.Insert("Filter", types.Name(types.FilterFlate))

	sd := types.NewStreamDict(d, raw, []types.PDFFilter{{Name: types.FilterFlate}})
	xt.Table[xrefObjNr] = model.NewInUseEntry(sd)

	offset := sink.Tell()
	if err := ow.WriteObject(sink, xrefObjNr); err != nil {
		return err
	}

	if _, err := sink.WriteString("startxref"); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}
	if _, err := sink.Printf("%d", offset); err != nil {
		return err
	}
	if err := sink.WriteEol(); err != nil {
		return err
	}
	_, err = sink.WriteString("%%EOF")
	if err == nil {
		err = sink.WriteEol()
	}

	if log.WriteEnabled() {
		log.Write.Println("WriteStream end")
	}
	return err
}

func insertSorted(keys []int, n int) []int {
	for _, k := range keys {
		if k == n {
			return keys
		}
	}
	keys = append(keys, n)
	sort.Ints(keys)
	return keys
}

// buildXRefStreamContent packs one (f1,f2,f3) entry per key and returns the
// raw stream content plus the matching Index array of [start,size] pairs.
func buildXRefStreamContent(xt *model.XRefTable, sink *Sink, keys []int, f2, f3 int) ([]byte, types.Array, error) {
	var buf []byte
	var index types.Array

	start := keys[0]
	size := 0

	flush := func(s, n int) {
		index = append(index, types.Integer(s), types.Integer(n))
	}

	for i := 0; i < len(keys); i++ {
		j := keys[i]
		if i > 0 && j-keys[i-1] > 1 {
			flush(start, size)
			start = j
			size = 0
		}
		size++

		entry := xt.Table[j]
		var f1 int64
		var v2, v3 int64

		switch {
		case entry.Free:
			f1 = 0
			if entry.Offset != nil {
				v2 = *entry.Offset
			}
			if entry.Generation != nil {
				v3 = int64(*entry.Generation)
			}
		case entry.Compressed:
			f1 = 2
			if entry.ObjectStream != nil {
				v2 = int64(*entry.ObjectStream)
			}
			if entry.StreamIndex != nil {
				v3 = int64(*entry.StreamIndex)
			}
		default:
			f1 = 1
			v2 = sink.Table[j]
			if entry.Generation != nil {
				v3 = int64(*entry.Generation)
			}
		}

		buf = append(buf, int64ToBuf(f1, 1)...)
		buf = append(buf, int64ToBuf(v2, f2)...)
		buf = append(buf, int64ToBuf(v3, f3)...)
	}
	flush(start, size)

	return buf, index, nil
}
