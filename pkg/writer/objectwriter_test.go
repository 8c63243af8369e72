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
	"os"
	"testing"

	"github.com/mechiko/pdflinear/pkg/model"
	"github.com/mechiko/pdflinear/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestWriteObjectDirect(t *testing.T) {
	xt := model.NewXRefTable()
	d := types.NewDict()
	d.Insert("Type", types.Name("Catalog"))
	xt.Table[1] = model.NewInUseEntry(d)
	ctx := model.NewContext(xt)

	s := newTestSink(t)
	ow := NewObjectWriter(ctx, NewDefaultOptions())
	require.NoError(t, ow.WriteObject(s, 1))
	require.NoError(t, s.Close())

	require.True(t, s.HasWriteOffset(1))
	require.Equal(t, int64(0), s.Table[1])
}

func TestWriteObjectSkipsFreeOrMissing(t *testing.T) {
	xt := model.NewXRefTable()
	ctx := model.NewContext(xt)
	s := newTestSink(t)
	ow := NewObjectWriter(ctx, NewDefaultOptions())

	require.NoError(t, ow.WriteObject(s, 999)) // missing
	require.False(t, s.HasWriteOffset(999))

	xt.Table[1] = &model.XRefTableEntry{Free: true}
	require.NoError(t, ow.WriteObject(s, 1))
	require.False(t, s.HasWriteOffset(1))
}

func TestWriteObjectStreamPatchesLength(t *testing.T) {
	xt := model.NewXRefTable()
	sd := types.NewStreamDict(types.NewDict(), []byte("hello world"), nil)
	xt.Table[1] = model.NewInUseEntry(sd)
	ctx := model.NewContext(xt)

	path := tempFilePath(t)
	s, err := NewSink(path, "\n")
	require.NoError(t, err)

	ow := NewObjectWriter(ctx, NewDefaultOptions())
	require.NoError(t, ow.WriteObject(s, 1))
	require.NoError(t, s.Close())
	require.Equal(t, int64(len("hello world")), s.BinaryTotalSize)

	out := readFile(t, path)
	require.Contains(t, out, "/Length 11")
	require.Contains(t, out, "stream\nhello world\nendstream")
}

func TestWriteObjectStreamContinueOnErrorEmitsNull(t *testing.T) {
	xt := model.NewXRefTable()
	// A stream whose sole filter is an unknown/unsupported name forces
	// expandBody to fail during decode.
	sd := types.NewStreamDict(types.NewDict(), []byte("\x00\x01garbage"), []types.PDFFilter{{Name: "BogusFilter"}})
	sd.Dict.Insert("Filter", types.Name("BogusFilter"))
	xt.Table[1] = model.NewInUseEntry(sd)
	ctx := model.NewContext(xt)

	opts := NewDefaultOptions()
	opts.Expand = ExpandAll
	opts.ContinueOnError = true

	path := tempFilePath(t)
	s, err := NewSink(path, "\n")
	require.NoError(t, err)
	ow := NewObjectWriter(ctx, opts)

	require.NoError(t, ow.WriteObject(s, 1))
	require.NoError(t, s.Close())
	require.Equal(t, 1, opts.Errors)

	out := readFile(t, path)
	require.Contains(t, out, "1 0 obj\nnull\nendobj")
}

func TestAppendFilterEntryHandlesNilNameAndArray(t *testing.T) {
	d := types.NewDict()
	appendFilterEntry(d, types.FilterFlate)
	v, _ := d.Find("Filter")
	require.Equal(t, types.Name(types.FilterFlate), v)

	appendFilterEntry(d, types.FilterASCIIHex)
	v, _ = d.Find("Filter")
	arr, ok := v.(types.Array)
	require.True(t, ok)
	require.Equal(t, types.Array{types.Name(types.FilterFlate), types.Name(types.FilterASCIIHex)}, arr)

	appendFilterEntry(d, types.FilterRunLength)
	v, _ = d.Find("Filter")
	require.Len(t, v.(types.Array), 3)
}

func TestLooksBinary(t *testing.T) {
	require.False(t, looksBinary([]byte("hello world\n\t")))
	require.True(t, looksBinary([]byte{0x00, 0x01, 0xFF}))
}

func tempFilePath(t *testing.T) string {
	return t.TempDir() + "/out.pdf"
}

func readFile(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
