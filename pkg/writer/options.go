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

	"github.com/mechiko/pdflinear/pkg/writer/diag"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Expand is a bitmask selecting which stream families the object writer
// re-expands to their uncompressed form (spec.md §4.6), mirroring
// model.Configuration's boolean knobs but collapsed into one flag set since
// images and fonts are independently togglable.
type Expand int

// Expand bit values. ExpandNone copies every stream body verbatim.
const (
	ExpandNone   Expand = 0
	ExpandImages Expand = 1 << iota
	ExpandFonts
)

// ExpandAll expands every stream family.
const ExpandAll = ExpandImages | ExpandFonts

// Options is the writer core's configuration surface (spec.md §4.9's
// opts.*), modeled on model.Configuration's plain-struct-of-booleans shape.
type Options struct {
	// Incremental writes only the objects touched since the file was read,
	// appending a new xref section rather than rewriting the whole file.
	// Mutually exclusive with Garbage collection and Linearize.
	Incremental bool `yaml:"incremental"`

	// Tight is loaded from YAML and stored, but no writer code reads it:
	// output spacing is the same whether it is set or not.
	Tight bool `yaml:"tight"`

	// DoASCII wraps binary stream bytes that aren't already ASCII-armored in
	// an ASCIIHex filter.
	DoASCII bool `yaml:"doASCII"`

	// Expand selects which stream families get decoded to their raw form
	// instead of copied verbatim.
	Expand Expand `yaml:"expand"`

	// DoDeflate Flate-compresses stream bodies that carry no filter, and
	// every expanded body after decoding; a body copied with its existing
	// filters keeps them and gets no Flate on top.
	DoDeflate bool `yaml:"doDeflate"`

	// Garbage selects the collection level: 0 none; 1 drops unreferenced
	// objects and renumbers the rest into a contiguous range; 2 does the same
	// as 1; 3 also folds duplicates structurally; 4 also compares stream
	// bytes (spec.md §4.2).
	Garbage int `yaml:"garbage"`

	// Linearize enables the fast-web-view planner and two-pass write.
	Linearize bool `yaml:"linearize"`

	// Clean is loaded from YAML and stored, but no writer code reads it:
	// setting it changes nothing in the output.
	Clean bool `yaml:"clean"`

	// ContinueOnError swallows per-object write failures, emitting a null
	// object instead of aborting (spec.md §4.6).
	ContinueOnError bool `yaml:"continueOnError"`

	// Errors counts objects that failed to write when ContinueOnError is
	// set. Not loaded from YAML — it's a run's output, not its config.
	Errors int `yaml:"-"`

	// UseXRefStreams selects cross-reference-stream output over the
	// classic xref table (spec.md §4.7); linearized output always uses the
	// classic form regardless of this flag, per spec.md §4.7's note that
	// linearized files predate the xref-stream format's common deployment.
	UseXRefStreams bool `yaml:"useXRefStreams"`

	// StructuredLog, if set, receives two structured records per state-
	// machine stage (spec.md §4.9), one as it begins and one as it ends or
	// fails, the latter with its wall-clock duration. Opt-in and
	// nil by default — callers who want it wire diag.NewSink(zapLogger) or
	// diag.NewDefaultSink() in themselves. Not loaded from YAML; a zap sink
	// isn't a serializable value.
	StructuredLog *diag.Sink `yaml:"-"`
}

// NewDefaultOptions returns the zero-collection, non-linearized, classic-xref
// configuration.
func NewDefaultOptions() *Options {
	return &Options{Garbage: 0}
}

// Validate rejects option combinations spec.md §4.9 calls out as illegal.
func (o *Options) Validate() error {
	if o.Incremental && o.Garbage > 0 {
		return errors.New("pdfcpu: writer: incremental writing is incompatible with garbage collection")
	}
	if o.Incremental && o.Linearize {
		return errors.New("pdfcpu: writer: incremental writing is incompatible with linearization")
	}
	if o.Garbage < 0 || o.Garbage > 4 {
		return errors.Errorf("pdfcpu: writer: garbage level %d out of range [0,4]", o.Garbage)
	}
	return nil
}

// LoadOptionsFromYAML reads a YAML-encoded Options from path, mirroring the
// teacher's model.Configuration YAML loading. The result is validated before
// being returned, so callers never get an illegal combination back.
func LoadOptionsFromYAML(path string) (*Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "pdfcpu: writer: LoadOptionsFromYAML: read")
	}

	opts := NewDefaultOptions()
	if err := yaml.Unmarshal(b, opts); err != nil {
		return nil, errors.Wrap(err, "pdfcpu: writer: LoadOptionsFromYAML: unmarshal")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
