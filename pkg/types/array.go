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

import "strings"

// Array represents a PDF array object.
type Array []Object

// NewIntegerArray returns an Array of Integer from ints.
func NewIntegerArray(ints ...int) Array {
	a := make(Array, len(ints))
	for i, v := range ints {
		a[i] = Integer(v)
	}
	return a
}

// NewNumberArray returns an Array of Float from floats.
func NewNumberArray(fs ...float64) Array {
	a := make(Array, len(fs))
	for i, v := range fs {
		a[i] = Float(v)
	}
	return a
}

func (a Array) String() string {
	entries := make([]string, len(a))
	for i, v := range a {
		if v == nil {
			entries[i] = "null"
			continue
		}
		entries[i] = v.String()
	}
	return "[" + strings.Join(entries, " ") + "]"
}

// PDFString renders a as it is written to a PDF file.
func (a Array) PDFString() string {
	entries := make([]string, len(a))
	for i, v := range a {
		if v == nil {
			entries[i] = "null"
			continue
		}
		entries[i] = v.PDFString()
	}
	return "[" + strings.Join(entries, " ") + "]"
}

// Clone returns a deep copy of a.
func (a Array) Clone() Object {
	a1 := make(Array, len(a))
	for i, v := range a {
		if v != nil {
			v = v.Clone()
		}
		a1[i] = v
	}
	return a1
}
