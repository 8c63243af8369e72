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
	"fmt"
	"os"

	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/sign"
	"github.com/pkg/errors"
)

// sigWindow is the fixed read window spec.md §4.10 reads at each signature's
// parent-object offset to locate the /ByteRange, /Contents and /Filter
// literals. Behavior is undefined (we error out) if they don't all fit.
const sigWindow = 5 * 1024

// sigSpan is the resolved [start,end) byte span of one placeholder literal
// within the signature dict, found by locateSignatureWindow.
type sigSpan struct {
	byteRangeStart, byteRangeEnd int64 // spans the literal "[ ... ]"
	contentsStart, contentsEnd   int64 // spans the literal "< ... >", brackets included
}

// PatchSignatures implements spec.md §4.10: run after the output file is
// closed, re-open it for read/write, locate each signature's placeholder
// byte-range and contents window, build the final /ByteRange array covering
// everything except the /Contents hex strings, overwrite the placeholders,
// and invoke each signer.
func PatchSignatures(path string, sigs []*sign.UnsavedSignature) error {
	if len(sigs) == 0 {
		return nil
	}
	if log.WriteEnabled() {
		log.Write.Printf("PatchSignatures begin: %d signature(s)\n", len(sigs))
	}

	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "pdfcpu: writer: PatchSignatures: stat")
	}
	fileEnd := fi.Size()

	spans := make([]sigSpan, len(sigs))
	for i, s := range sigs {
		span, err := locateSignatureWindow(path, s.ParentOffset)
		if err != nil {
			return errors.Wrapf(err, "pdfcpu: writer: PatchSignatures: field #%d", s.FieldObject)
		}
		spans[i] = span
	}

	byteRange := buildByteRange(spans, fileEnd)

	for i, s := range sigs {
		span := spans[i]

		if err := writeByteRangeLiteral(path, span, s.ByteRangeSize, byteRange); err != nil {
			return err
		}

		contentsOffset := span.contentsStart + 1 // skip the leading '<'
		contentsLength := span.contentsEnd - span.contentsStart - 2 // also exclude the trailing '>'

		if err := s.Signer.WriteDigest(path, byteRange, contentsOffset, contentsLength); err != nil {
			return errors.Wrapf(err, "pdfcpu: writer: PatchSignatures: signer for field #%d", s.FieldObject)
		}
	}

	if log.WriteEnabled() {
		log.Write.Println("PatchSignatures end")
	}
	return nil
}

// buildByteRange returns the final /ByteRange values covering everything in
// [0, fileEnd) except every signature's own /Contents hex span (spec.md
// §4.10 step 3), flattened into the ISO 32000-1 pair-list form
// [off1 len1 off2 len2 ...]. The same array is written into every
// signature's /ByteRange field: each one excludes all signatures' digests,
// not just its own.
func buildByteRange(spans []sigSpan, fileEnd int64) []int64 {
	var out []int64
	cursor := int64(0)
	for _, span := range spans {
		if span.contentsStart > cursor {
			out = append(out, cursor, span.contentsStart-cursor)
		}
		cursor = span.contentsEnd
	}
	if cursor < fileEnd {
		out = append(out, cursor, fileEnd-cursor)
	}
	return out
}

// writeByteRangeLiteral overwrites the original /ByteRange placeholder
// in-place with the computed values, space-padded to fit the originally
// reserved width (spec.md §4.10 step 4).
func writeByteRangeLiteral(path string, span sigSpan, reservedWidth int64, byteRange []int64) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrap(err, "pdfcpu: writer: writeByteRangeLiteral: open")
	}
	defer f.Close()

	width := span.byteRangeEnd - span.byteRangeStart
	if reservedWidth > 0 {
		width = reservedWidth
	}

	literal := formatByteRange(byteRange)
	if int64(len(literal)) > width {
		return errors.Errorf("pdfcpu: writer: writeByteRangeLiteral: final /ByteRange %q (%d bytes) overflows reserved %d bytes", literal, len(literal), width)
	}
	padded := make([]byte, width)
	copy(padded, literal)
	for i := len(literal); i < len(padded); i++ {
		padded[i] = ' '
	}

	_, err = f.WriteAt(padded, span.byteRangeStart)
	return errors.Wrap(err, "pdfcpu: writer: writeByteRangeLiteral: write")
}

func formatByteRange(byteRange []int64) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range byteRange {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%d", v)
	}
	buf.WriteByte(']')
	return buf.String()
}

// locateSignatureWindow reads sigWindow bytes starting at parentOffset and
// locates the /ByteRange array literal and the /Contents hex-string literal
// (spec.md §4.10 step 2). /Filter is required to be present too (it
// disambiguates the signature dict from an unrelated one reusing the same
// key names nearby) but its position isn't otherwise needed here.
func locateSignatureWindow(path string, parentOffset int64) (sigSpan, error) {
	f, err := os.Open(path)
	if err != nil {
		return sigSpan{}, errors.Wrap(err, "pdfcpu: writer: locateSignatureWindow: open")
	}
	defer f.Close()

	buf := make([]byte, sigWindow)
	n, readErr := f.ReadAt(buf, parentOffset)
	if readErr != nil && n == 0 {
		return sigSpan{}, errors.Wrap(readErr, "pdfcpu: writer: locateSignatureWindow: read")
	}
	buf = buf[:n]

	brKey := bytes.Index(buf, []byte("/ByteRange"))
	ctKey := bytes.Index(buf, []byte("/Contents"))
	flKey := bytes.Index(buf, []byte("/Filter"))
	if brKey < 0 || ctKey < 0 || flKey < 0 {
		return sigSpan{}, errors.Errorf("pdfcpu: writer: locateSignatureWindow: /ByteRange, /Contents or /Filter not found within %d bytes of offset %d", sigWindow, parentOffset)
	}

	brStart := bytes.IndexByte(buf[brKey:], '[')
	if brStart < 0 {
		return sigSpan{}, errors.New("pdfcpu: writer: locateSignatureWindow: /ByteRange has no '['")
	}
	brStart += brKey
	brEnd := bytes.IndexByte(buf[brStart:], ']')
	if brEnd < 0 {
		return sigSpan{}, errors.New("pdfcpu: writer: locateSignatureWindow: /ByteRange has no ']'")
	}
	brEnd += brStart + 1

	ctStart := bytes.IndexByte(buf[ctKey:], '<')
	if ctStart < 0 {
		return sigSpan{}, errors.New("pdfcpu: writer: locateSignatureWindow: /Contents has no '<'")
	}
	ctStart += ctKey
	ctEnd := bytes.IndexByte(buf[ctStart:], '>')
	if ctEnd < 0 {
		return sigSpan{}, errors.New("pdfcpu: writer: locateSignatureWindow: /Contents has no '>'")
	}
	ctEnd += ctStart + 1

	return sigSpan{
		byteRangeStart: parentOffset + int64(brStart),
		byteRangeEnd:   parentOffset + int64(brEnd),
		contentsStart:  parentOffset + int64(ctStart),
		contentsEnd:    parentOffset + int64(ctEnd),
	}, nil
}
