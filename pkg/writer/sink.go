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

// Package writer implements the PDF writer core: marking, deduplication,
// compaction, resource localization, linearization, object/xref emission
// and signature byte-range patching. It consumes a pkg/model.Context and
// produces file bytes through a Sink; it never parses or validates PDF
// beyond what serialization requires (those concerns live outside this
// package, per pkg/model and pkg/types).
package writer

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mechiko/pdflinear/pkg/log"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/pkg/errors"
)

// Sink is the buffered, seekable byte destination the writer core emits
// through. It generalizes model.WriteContext's *bufio.Writer + Offset
// pattern with real Seek support, needed for the two-pass driver's
// pass-1 rewrite and the signature patcher's in-place overwrite.
type Sink struct {
	*bufio.Writer
	fp     *os.File
	Offset int64 // current write position, mirrors model.WriteContext.Offset

	Table map[int]int64 // object number -> write offset, same role as WriteContext.Table

	Eol string // end-of-line sequence, usually "\n"

	BinaryTotalSize int64 // total stream data written, mirrors model.WriteContext.BinaryTotalSize
	BinaryImageSize int64 // stream data written for image streams
	BinaryFontSize  int64 // stream data written for font file streams
}

// NewSink opens path for writing and wraps it in a Sink.
func NewSink(path string, eol string) (*Sink, error) {
	fp, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "pdfcpu: writer: create %s", path)
	}
	return &Sink{
		Writer: bufio.NewWriter(fp),
		fp:     fp,
		Table:  map[int]int64{},
		Eol:    eol,
	}, nil
}

// Tell returns the current logical write offset.
func (s *Sink) Tell() int64 { return s.Offset }

// WriteBytes writes b and advances Offset, the Sink's single write
// primitive — every other helper on Sink funnels through it.
func (s *Sink) WriteBytes(b []byte) (int, error) {
	n, err := s.Write(b)
	s.Offset += int64(n)
	if err != nil {
		return n, errors.Wrap(err, "pdfcpu: writer: write")
	}
	return n, nil
}

// WriteString writes s and advances Offset.
func (s *Sink) WriteString(str string) (int, error) {
	return s.WriteBytes([]byte(str))
}

// Printf formats and writes, advancing Offset.
func (s *Sink) Printf(format string, args ...interface{}) (int, error) {
	return s.WriteString(fmt.Sprintf(format, args...))
}

// WriteEol writes the configured end-of-line sequence.
func (s *Sink) WriteEol() error {
	_, err := s.WriteString(s.Eol)
	return err
}

// SetWriteOffset records the current offset as where objNr was written,
// model.WriteContext.SetWriteOffset's exact counterpart.
func (s *Sink) SetWriteOffset(objNr int) {
	s.Table[objNr] = s.Offset
}

// HasWriteOffset reports whether objNr has already been written in this pass.
func (s *Sink) HasWriteOffset(objNr int) bool {
	_, ok := s.Table[objNr]
	return ok
}

// PadTo writes end-of-line padding until Offset equals target, used by pass
// 1 of the two-pass driver (spec.md §4.9) to land every object at the exact
// byte offset pass 0 recorded for it.
func (s *Sink) PadTo(target int64) error {
	if target < s.Offset {
		return errors.Errorf("pdfcpu: writer: PadTo: target %d precedes current offset %d", target, s.Offset)
	}
	for s.Offset < target {
		if err := s.WriteEol(); err != nil {
			return err
		}
		if s.Offset > target {
			return errors.Errorf("pdfcpu: writer: PadTo: overshot target %d, landed at %d (eol width doesn't divide the gap)", target, s.Offset)
		}
	}
	return nil
}

// Seek flushes buffered output, repositions the underlying file, and resets
// Offset. Only valid between passes — the bufio.Writer must be empty first.
func (s *Sink) Seek(offset int64) error {
	if err := s.Flush(); err != nil {
		return errors.Wrap(err, "pdfcpu: writer: flush before seek")
	}
	if _, err := s.fp.Seek(offset, os.SEEK_SET); err != nil {
		return errors.Wrap(err, "pdfcpu: writer: seek")
	}
	s.Offset = offset
	return nil
}

// Close flushes and closes the underlying file. The signature patcher
// re-opens the path itself, per spec.md §4.10 and §5's "output sink is
// released explicitly before signature patching" discipline.
func (s *Sink) Close() error {
	if err := s.Flush(); err != nil {
		return errors.Wrap(err, "pdfcpu: writer: final flush")
	}
	return s.fp.Close()
}

// FileSize flushes buffered output, then stats the underlying file for its
// current size on disk.
func (s *Sink) FileSize() (int64, error) {
	if err := s.Flush(); err != nil {
		return 0, errors.Wrap(err, "pdfcpu: writer: flush before stat")
	}
	fi, err := s.fp.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "pdfcpu: writer: stat")
	}
	return fi.Size(), nil
}

// LogStats logs stats for the written file, the Sink's counterpart to
// model.WriteContext.LogStats.
func (s *Sink) LogStats() {
	if !log.StatsEnabled() {
		return
	}

	fileSize, err := s.FileSize()
	if err != nil {
		return
	}
	binaryTotalSize := s.BinaryTotalSize
	textSize := fileSize - binaryTotalSize
	binaryOtherSize := binaryTotalSize - s.BinaryImageSize - s.BinaryFontSize

	log.Stats.Println("Linearized:")
	log.Stats.Printf("File size            : %s (%d bytes)\n", types.ByteSize(fileSize), fileSize)
	log.Stats.Printf("Total binary data    : %s (%d bytes) %4.1f%%\n", types.ByteSize(binaryTotalSize), binaryTotalSize, float32(binaryTotalSize)/float32(fileSize)*100)
	log.Stats.Printf("Total other data     : %s (%d bytes) %4.1f%%\n\n", types.ByteSize(textSize), textSize, float32(textSize)/float32(fileSize)*100)

	if binaryTotalSize == 0 {
		return
	}
	log.Stats.Println("Breakup of binary data:")
	log.Stats.Printf("images               : %s (%d bytes) %4.1f%%\n", types.ByteSize(s.BinaryImageSize), s.BinaryImageSize, float32(s.BinaryImageSize)/float32(binaryTotalSize)*100)
	log.Stats.Printf("fonts                : %s (%d bytes) %4.1f%%\n", types.ByteSize(s.BinaryFontSize), s.BinaryFontSize, float32(s.BinaryFontSize)/float32(binaryTotalSize)*100)
	log.Stats.Printf("other                : %s (%d bytes) %4.1f%%\n\n", types.ByteSize(binaryOtherSize), binaryOtherSize, float32(binaryOtherSize)/float32(binaryTotalSize)*100)
}
