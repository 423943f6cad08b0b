package decl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Batch is one front-end hand-off: the ordered declarations of a
// generation run plus the type facts produced by the struct, enum and
// typedef analyses.
type Batch struct {
	// Declarations are analyzed in this order.
	Declarations []Declaration `json:"declarations" yaml:"declarations"`
	// PodSafeTypes are safe to pass by value across the boundary.
	PodSafeTypes []QualifiedName `json:"pod_safe_types,omitempty" yaml:"pod_safe_types,omitempty"`
	// NonReceiverTypes cannot be boundary receivers (abstract or
	// non-instantiable types).
	NonReceiverTypes []QualifiedName `json:"non_receiver_types,omitempty" yaml:"non_receiver_types,omitempty"`
}

// Format is an on-disk encoding of a Batch.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported declaration file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads a declaration batch from disk.
func Load(path string) (*Batch, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading declarations: %w", err)
	}
	b, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes and validates a declaration batch.
func Parse(data []byte, format Format) (*Batch, error) {
	var b Batch
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&b); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the structural requirements the analyzer relies on.
func (b *Batch) Validate() error {
	for i := range b.Declarations {
		d := &b.Declarations[i]
		if strings.TrimSpace(d.Ident) == "" {
			return fmt.Errorf("declaration %d: missing ident", i)
		}
		for j, p := range d.Params {
			if p.Name == "" {
				return fmt.Errorf("declaration %d (%s): parameter %d has no name", i, d.Ident, j)
			}
			if p.Type == nil {
				return fmt.Errorf("declaration %d (%s): parameter %q has no type", i, d.Ident, p.Name)
			}
		}
		if d.Visibility == "" {
			d.Visibility = Public
		}
	}
	return nil
}

// Decls returns pointers to the declarations in order.
func (b *Batch) Decls() []*Declaration {
	out := make([]*Declaration, len(b.Declarations))
	for i := range b.Declarations {
		out[i] = &b.Declarations[i]
	}
	return out
}
