// Package manifest defines patches declaratively.
//
// A manifest is a YAML document listing named patches. Each patch targets
// one param, selects rows by id list, by an expr filter, or all rows, and
// writes typed values at byte offsets within each selected row:
//
//	patches:
//	  - name: faster-stamina
//	    param: SpEffectParam
//	    where: "id >= 1000 && id < 2000"
//	    writes:
//	      - {offset: 0x10, type: f32, value: 2.5}
//	      - {offset: 0x30, type: bytes, value: "de ad be ef"}
//
// The manifest knows nothing about field meaning; offsets and types are the
// author's responsibility.
package manifest

import (
	"fmt"
	"io"

	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"

	"github.com/joshuapare/paramkit/internal/buf"
	"github.com/joshuapare/paramkit/pkg/types"
)

// ErrInvalid is returned for manifests that fail validation.
var ErrInvalid = &types.Error{Kind: types.ErrKindFormat, Msg: "invalid manifest"}

// Manifest is a decoded patch manifest.
type Manifest struct {
	Patches []*Def `yaml:"patches"`
}

// Def describes one named patch. Rows and Where are mutually exclusive; with
// neither, every row of the param is patched.
type Def struct {
	Name   string   `yaml:"name"`
	Param  string   `yaml:"param"`
	Rows   []uint64 `yaml:"rows,omitempty"`
	Where  string   `yaml:"where,omitempty"`
	Writes []*Write `yaml:"writes"`

	filter *vm.Program
}

// Write stores Value, encoded as Type, at Offset within each selected row.
type Write struct {
	Offset int    `yaml:"offset"`
	Type   string `yaml:"type"`
	Value  any    `yaml:"value"`

	encoded []byte
}

// Load decodes and validates a manifest from r.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, types.Wrap(ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every definition, compiles filters and encodes values.
// Parse calls it; call it again after editing a Manifest by hand.
func (m *Manifest) Validate() error {
	if len(m.Patches) == 0 {
		return types.Wrap(ErrInvalid, fmt.Errorf("no patches"))
	}
	for i, d := range m.Patches {
		if d == nil {
			return types.Wrap(ErrInvalid, fmt.Errorf("patches[%d]: empty entry", i))
		}
		if err := d.validate(); err != nil {
			return types.Wrap(ErrInvalid, fmt.Errorf("patches[%d] %q: %w", i, d.Name, err))
		}
	}
	return nil
}

func (d *Def) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("missing name")
	case d.Param == "":
		return fmt.Errorf("missing param")
	case len(d.Rows) > 0 && d.Where != "":
		return fmt.Errorf("rows and where are mutually exclusive")
	case len(d.Writes) == 0:
		return fmt.Errorf("no writes")
	}

	d.filter = nil
	if d.Where != "" {
		prg, err := compileFilter(d.Where)
		if err != nil {
			return fmt.Errorf("where: %w", err)
		}
		d.filter = prg
	}

	for j, w := range d.Writes {
		if w == nil {
			return fmt.Errorf("writes[%d]: empty entry", j)
		}
		if w.Offset < 0 {
			return fmt.Errorf("writes[%d]: negative offset %d", j, w.Offset)
		}
		enc, err := encode(w.Type, w.Value)
		if err != nil {
			return fmt.Errorf("writes[%d]: %w", j, err)
		}
		if _, ok := buf.AddOverflowSafe(w.Offset, len(enc)); !ok {
			return fmt.Errorf("writes[%d]: offset %d out of range", j, w.Offset)
		}
		w.encoded = enc
	}
	return nil
}

// Span returns the number of bytes a row must have for every write to fit.
func (d *Def) Span() int {
	n := 0
	for _, w := range d.Writes {
		n = max(n, w.Offset+len(w.encoded))
	}
	return n
}
