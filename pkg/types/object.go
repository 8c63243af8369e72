/*
Copyright 2018 The pdfcpu Authors.

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

package types

import (
	"fmt"
	"strconv"
)

// FreeHeadGeneration is the generation number reserved for object 0,
// the head of the xref free list.
const FreeHeadGeneration = 65535

// Object is implemented by every PDF object the writer core can serialize.
type Object interface {
	fmt.Stringer

	// PDFString renders the object exactly as it is written to a PDF file.
	PDFString() string

	// Clone returns a deep copy of the object.
	Clone() Object
}

// Boolean represents a PDF boolean.
type Boolean bool

func (b Boolean) String() string    { return fmt.Sprintf("%v", bool(b)) }
func (b Boolean) PDFString() string { return b.String() }
func (b Boolean) Clone() Object     { return b }

// Integer represents a PDF integer.
type Integer int

func (i Integer) String() string    { return strconv.Itoa(int(i)) }
func (i Integer) PDFString() string { return i.String() }
func (i Integer) Clone() Object     { return i }
func (i Integer) Value() int        { return int(i) }

// Float represents a PDF real number.
type Float float64

func (f Float) String() string    { return fmt.Sprintf("%.2f", float64(f)) }
func (f Float) PDFString() string { return strconv.FormatFloat(float64(f), 'f', -1, 64) }
func (f Float) Clone() Object     { return f }
func (f Float) Value() float64    { return float64(f) }

// Name represents a PDF name object, without its leading slash.
type Name string

func (n Name) String() string    { return "/" + string(n) }
func (n Name) PDFString() string { return n.String() }
func (n Name) Clone() Object     { return n }
func (n Name) Value() string     { return string(n) }

// StringLiteral represents a PDF literal string `(...)`.
// Value holds the raw bytes between the parentheses, already escaped.
type StringLiteral string

func (s StringLiteral) String() string    { return "(" + string(s) + ")" }
func (s StringLiteral) PDFString() string { return s.String() }
func (s StringLiteral) Clone() Object     { return s }
func (s StringLiteral) Value() string     { return string(s) }

// HexLiteral represents a PDF hex string `<...>`.
type HexLiteral string

func (h HexLiteral) String() string    { return "<" + string(h) + ">" }
func (h HexLiteral) PDFString() string { return h.String() }
func (h HexLiteral) Clone() Object     { return h }
func (h HexLiteral) Value() string     { return string(h) }

// Null is the PDF null object, the `null` keyword. An unresolvable or duff
// indirect reference is replaced by Null{} at the containing array/dict slot
// (spec.md §4.1).
type Null struct{}

func (Null) String() string    { return "null" }
func (Null) PDFString() string { return "null" }
func (Null) Clone() Object     { return Null{} }

// IsNull reports whether obj is the PDF null object (including a nil Go value).
func IsNull(obj Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(Null)
	return ok
}

// IndirectRef represents a PDF indirect reference `num gen R`.
type IndirectRef struct {
	ObjectNumber     Integer
	GenerationNumber Integer
}

// NewIndirectRef returns an IndirectRef for given object/generation number.
func NewIndirectRef(objNr, genNr int) IndirectRef {
	return IndirectRef{ObjectNumber: Integer(objNr), GenerationNumber: Integer(genNr)}
}

func (ir IndirectRef) String() string {
	return fmt.Sprintf("(%d %d R)", ir.ObjectNumber, ir.GenerationNumber)
}

func (ir IndirectRef) PDFString() string {
	return fmt.Sprintf("%d %d R", ir.ObjectNumber, ir.GenerationNumber)
}

func (ir IndirectRef) Clone() Object { return ir }
