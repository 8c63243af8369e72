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
	"strings"
	"testing"

	"github.com/mechiko/pdflinear/pkg/writer/diag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDriverSavePlainProducesValidXref(t *testing.T) {
	ctx := buildSimpleDoc()
	opts := NewDefaultOptions()
	d := NewDriver(ctx, opts)

	path := tempFilePath(t)
	require.NoError(t, d.Save(path))

	out := readFile(t, path)
	require.True(t, strings.HasPrefix(out, "%PDF-1.7"))
	require.Contains(t, out, "xref")
	require.Contains(t, out, "trailer")
	require.Contains(t, out, "%%EOF")
}

func TestDriverSaveLinearizedTwoPassProducesConsistentOffsets(t *testing.T) {
	ctx := buildSimpleDoc()
	opts := NewDefaultOptions()
	opts.Linearize = true
	d := NewDriver(ctx, opts)

	path := tempFilePath(t)
	require.NoError(t, d.Save(path))

	out := readFile(t, path)
	require.True(t, strings.HasPrefix(out, "%PDF-1.7"))
	require.Contains(t, out, "/Linearized 1")

	// Save returning no error is the offset check: pass 1 pads every object
	// to the byte offset pass 0 recorded for it, and PadTo fails the save if
	// an object would land past that offset. Each original object must also
	// be present in the output.
	for _, marker := range []string{"1 0 obj", "2 0 obj", "3 0 obj", "4 0 obj"} {
		require.Contains(t, out, marker)
	}
}

func TestDriverSaveLinearizedEmitsFirstAndMainXRef(t *testing.T) {
	ctx := buildSimpleDoc()
	opts := NewDefaultOptions()
	opts.Linearize = true
	d := NewDriver(ctx, opts)

	path := tempFilePath(t)
	require.NoError(t, d.Save(path))

	out := readFile(t, path)
	// spec.md §6.3: a linearized file carries a first xref (after the
	// first-page group) and a separate main xref (after the remainder),
	// the main one chained back to the first via /Prev.
	require.Equal(t, 2, strings.Count(out, "startxref"), "expected one first xref and one main xref")
	require.Contains(t, out, "/Prev")
}

func TestDriverSaveEmitsStructuredStageLogWhenOptedIn(t *testing.T) {
	ctx := buildSimpleDoc()
	opts := NewDefaultOptions()
	opts.Garbage = 1

	core, logs := observer.New(zapcore.InfoLevel)
	opts.StructuredLog = diag.NewSink(zap.New(core))

	d := NewDriver(ctx, opts)
	require.NoError(t, d.Save(tempFilePath(t)))

	var stages []string
	for _, e := range logs.All() {
		if e.Message == "stage begin" {
			stages = append(stages, e.ContextMap()["stage"].(string))
		}
	}
	require.Contains(t, stages, "MARK")
	require.Contains(t, stages, "COMPACT_RENUMBER")
	require.Contains(t, stages, "WRITE")
	require.Contains(t, stages, "PATCH_SIGNATURES")
}

func TestDriverSaveRejectsIncompatibleOptions(t *testing.T) {
	ctx := buildSimpleDoc()
	opts := &Options{Incremental: true, Linearize: true}
	d := NewDriver(ctx, opts)

	err := d.Save(tempFilePath(t))
	require.Error(t, err)
}

func TestDriverSaveGarbageCollectsUnreferencedObjects(t *testing.T) {
	ctx := buildSimpleDoc() // object #5 is unreferenced garbage
	opts := NewDefaultOptions()
	opts.Garbage = 1
	d := NewDriver(ctx, opts)

	require.NoError(t, d.Save(tempFilePath(t)))

	// After compaction+renumbering, the table should have shrunk to 4
	// live objects (1..4), with #5 dropped.
	require.Equal(t, 5, ctx.XRefTable.Size) // one past the highest surviving number
}
