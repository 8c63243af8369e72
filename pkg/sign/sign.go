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

// Package sign provides the opaque signer collaborator the writer core
// calls into after closing the output file (spec.md §4.10, §6.2). The core
// itself never interprets a signature's cryptographic content — it only
// reserves and rewrites the /ByteRange and /Contents placeholders. Actually
// producing a digest is delegated to a Signer.
package sign

// Signer is the collaborator spec.md §6.2 names "write_digest(path,
// byte_range, contents_offset, contents_length, signer_state)". Given the
// finished file on disk and the byte ranges it covers, it must write a
// hex-encoded digest of exactly contentsLength/2 bytes into the file at
// contentsOffset.
type Signer interface {
	WriteDigest(path string, byteRange []int64, contentsOffset, contentsLength int64) error
}

// ByteRange is a verbatim pair in a signature's /ByteRange array.
type ByteRange struct {
	Offset, Length int64
}

// UnsavedSignature is spec.md §3's "unsaved signature record": per-increment
// bookkeeping attached when a signature field is edited, consumed by the
// signature patcher once the file has been written and closed. ParentOffset
// is the one position known at write time (recorded by the object writer
// when it emits the signature dict); the patcher derives the exact
// /ByteRange and /Contents byte offsets from it by scanning a fixed window,
// per spec.md §4.10 step 2.
type UnsavedSignature struct {
	FieldObject   int
	ParentOffset  int64 // file offset of the signature dict's "N G obj"
	ByteRangeSize int64 // reserved width of the /ByteRange placeholder array
	Signer        Signer
}
