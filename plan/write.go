package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Write encodes p as "json" or "yaml".
func Write(w io.Writer, p *Plan, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown plan format %q", format)
	}
}

// WriteFile writes p to path.
func WriteFile(path string, p *Plan, format string) error {
	var buf bytes.Buffer
	if err := Write(&buf, p, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	return nil
}

// Read decodes a plan written by Write.
func Read(r io.Reader, format string) (*Plan, error) {
	var p Plan
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
	return &p, nil
}
