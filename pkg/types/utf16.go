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
	"encoding/hex"

	"golang.org/x/text/encoding/unicode"
)

// isPDFDocEncodable reports whether every rune in s fits the printable ASCII
// subset a literal string `(...)` can carry without escaping concerns beyond
// the usual backslash/paren handling PDFDocEncoding covers identically to
// ASCII for these code points.
func isPDFDocEncodable(s string) bool {
	for _, r := range s {
		if r > 0x7e || r < 0x20 {
			return false
		}
	}
	return true
}

// NewTextString encodes s as a PDF text string (ISO 32000-1 7.9.2.2): plain
// ASCII round-trips as a literal string, anything outside that range is
// encoded UTF-16BE with the required 0xFEFF byte-order-mark prefix and
// carried as a hex string, the form PDF readers expect for non-Latin /Info
// and signature /Name values.
func NewTextString(s string) Object {
	if isPDFDocEncodable(s) {
		return StringLiteral(s)
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	encoded, err := enc.NewEncoder().String(s)
	if err != nil {
		// Fall back to a best-effort literal rather than fail the whole
		// write over one unencodable metadata string.
		return StringLiteral(s)
	}
	return HexLiteral(hex.EncodeToString([]byte(encoded)))
}
