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
	"sort"
	"strings"
)

// Dict represents a PDF dict object.
type Dict map[string]Object

// NewDict returns an empty Dict.
func NewDict() Dict {
	return Dict{}
}

// Insert adds a new entry, refusing to overwrite an existing key.
func (d Dict) Insert(key string, value Object) bool {
	if _, found := d[key]; found {
		return false
	}
	d[key] = value
	return true
}

// Update sets key, overwriting any existing entry. A nil value is ignored.
func (d Dict) Update(key string, value Object) {
	if value == nil {
		return
	}
	d[key] = value
}

// Delete removes key and returns its prior value, or nil if absent.
func (d Dict) Delete(key string) Object {
	v, found := d[key]
	if !found {
		return nil
	}
	delete(d, key)
	return v
}

// Find returns the value for key and whether it was present.
func (d Dict) Find(key string) (Object, bool) {
	v, found := d[key]
	return v, found
}

// NameEntry returns a Name entry's value, or nil.
func (d Dict) NameEntry(key string) *string {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if n, ok := v.(Name); ok {
		s := string(n)
		return &s
	}
	return nil
}

// IndirectRefEntry returns an indirect-reference entry, or nil.
func (d Dict) IndirectRefEntry(key string) *IndirectRef {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if ir, ok := v.(IndirectRef); ok {
		return &ir
	}
	return nil
}

// Type returns the value of /Type, if present.
func (d Dict) Type() *string {
	return d.NameEntry("Type")
}

// Subtype returns the value of /Subtype, if present.
func (d Dict) Subtype() *string {
	return d.NameEntry("Subtype")
}

// sortedKeys returns d's keys sorted lexically so that serialization is
// deterministic regardless of map iteration order.
func (d Dict) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d Dict) String() string {
	return d.render(true)
}

// PDFString renders d as it is written to a PDF file: keys in sorted order,
// no whitespace between entries (callers needing "loose" whitespace for
// human-readable logging should use String instead).
func (d Dict) PDFString() string {
	return d.render(false)
}

func (d Dict) render(spaced bool) string {
	sep := ""
	if spaced {
		sep = " "
	}

	parts := make([]string, 0, len(d)+2)
	parts = append(parts, "<<")

	for _, k := range d.sortedKeys() {
		v := d[k]
		if v == nil {
			parts = append(parts, fmt.Sprintf("/%s%snull", k, sep))
			continue
		}
		switch v.(type) {
		case Dict, Array:
			parts = append(parts, fmt.Sprintf("/%s%s", k, v.PDFString()))
		default:
			parts = append(parts, fmt.Sprintf("/%s %s", k, v.PDFString()))
		}
	}

	parts = append(parts, ">>")

	if spaced {
		return strings.Join(parts, " ")
	}
	return strings.Join(parts, "")
}

// Clone returns a deep copy of d.
func (d Dict) Clone() Object {
	d1 := NewDict()
	for k, v := range d {
		if v != nil {
			v = v.Clone()
		}
		d1[k] = v
	}
	return d1
}
