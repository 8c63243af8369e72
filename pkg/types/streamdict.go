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

// PDFFilter names one stage of a stream's filter pipeline plus its
// optional decode parameters, e.g. {"FlateDecode", nil}.
type PDFFilter struct {
	Name        string
	DecodeParms Dict
}

// Filter names, as in 7.4 of ISO 32000-1.
const (
	FilterASCII85   = "ASCII85Decode"
	FilterASCIIHex  = "ASCIIHexDecode"
	FilterRunLength = "RunLengthDecode"
	FilterLZW       = "LZWDecode"
	FilterFlate     = "FlateDecode"
	FilterCCITTFax  = "CCITTFaxDecode"
	FilterJBIG2     = "JBIG2Decode"
	FilterDCT       = "DCTDecode"
	FilterJPX       = "JPXDecode"
)

// imageFilters lists filters the object writer never re-expands unless the
// caller explicitly asks for image expansion (spec.md §4.6).
var imageFilters = map[string]bool{
	FilterCCITTFax: true,
	FilterDCT:      true,
	FilterRunLength: true,
	FilterJBIG2:    true,
	FilterJPX:      true,
}

// StreamDict represents a PDF stream object: a Dict plus its associated
// byte data. Raw holds the encoded bytes exactly as they will be written
// (or were read); Content holds the decoded bytes, populated lazily.
type StreamDict struct {
	Dict
	Raw            []byte
	Content        []byte
	FilterPipeline []PDFFilter
}

// NewStreamDict wraps d as a stream with the given filter pipeline and raw bytes.
func NewStreamDict(d Dict, raw []byte, pipeline []PDFFilter) StreamDict {
	return StreamDict{Dict: d, Raw: raw, FilterPipeline: pipeline}
}

// HasSoleFilterNamed reports whether sd has exactly one filter stage, named name.
func (sd StreamDict) HasSoleFilterNamed(name string) bool {
	return len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == name
}

// IsImageFiltered reports whether any stage of sd's filter pipeline is one of
// the filters the object writer treats as "image-ish" (spec.md §4.6):
// CCITTFax, DCT, RunLength, JBIG2 or JPX.
func (sd StreamDict) IsImageFiltered() bool {
	for _, f := range sd.FilterPipeline {
		if imageFilters[f.Name] {
			return true
		}
	}
	return false
}

// IsImage reports whether sd looks like an image XObject: /Subtype /Image,
// an image filter, or explicit /Width and /Height entries.
func (sd StreamDict) IsImage() bool {
	if s := sd.Subtype(); s != nil && *s == "Image" {
		return true
	}
	if sd.IsImageFiltered() {
		return true
	}
	_, hasW := sd.Find("Width")
	_, hasH := sd.Find("Height")
	return hasW && hasH
}

// IsFontFile reports whether sd looks like an embedded font program.
func (sd StreamDict) IsFontFile() bool {
	if t := sd.Type(); t != nil {
		switch *t {
		case "FontFile", "FontFile2", "FontFile3":
			return true
		}
	}
	return false
}

func (sd StreamDict) String() string {
	return sd.Dict.String() + "stream"
}

// PDFString renders the stream's dict only; callers append the literal
// `stream`/`endstream` keywords and Raw bytes themselves (object writer,
// spec.md §4.6), since those are not textual PDF objects.
func (sd StreamDict) PDFString() string {
	return sd.Dict.PDFString()
}

// Clone returns a deep copy of sd.
func (sd StreamDict) Clone() Object {
	d1 := sd.Dict.Clone().(Dict)
	pl := make([]PDFFilter, len(sd.FilterPipeline))
	for i, f := range sd.FilterPipeline {
		f1 := f
		if f.DecodeParms != nil {
			f1.DecodeParms = f.DecodeParms.Clone().(Dict)
		}
		pl[i] = f1
	}
	raw := make([]byte, len(sd.Raw))
	copy(raw, sd.Raw)
	return StreamDict{Dict: d1, Raw: raw, FilterPipeline: pl}
}
