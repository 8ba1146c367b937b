package market

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	snapshotSchemaURL = "https://corps-sequencer.local/schema/snapshot.json"
	lineSchemaURL     = "https://corps-sequencer.local/schema/line.json"
)

//go:embed schema/snapshot.json
var snapshotSchema string

//go:embed schema/line.json
var lineSchema string

// #region decoder
// Decoder validates raw JSON against the snapshot contract before building a
// Snapshot, so malformed input fails here and never reaches a step.
type Decoder struct {
	snapshot *jsonschema.Schema
	line     *jsonschema.Schema
}

// NewDecoder compiles the embedded schemas.
func NewDecoder() (*Decoder, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchema)); err != nil {
		return nil, fmt.Errorf("add snapshot schema: %w", err)
	}
	if err := compiler.AddResource(lineSchemaURL, strings.NewReader(lineSchema)); err != nil {
		return nil, fmt.Errorf("add line schema: %w", err)
	}
	snap, err := compiler.Compile(snapshotSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	line, err := compiler.Compile(lineSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile line schema: %w", err)
	}
	return &Decoder{snapshot: snap, line: line}, nil
}

// DecodeLine parses one feed line: a snapshot object carrying a "tick" field.
func (d *Decoder) DecodeLine(raw []byte) (Tick, error) {
	if err := validate(d.line, raw); err != nil {
		return Tick{}, fmt.Errorf("invalid snapshot line: %w", err)
	}
	var l struct {
		Tick int64 `json:"tick"`
		Snapshot
	}
	if err := json.Unmarshal(raw, &l); err != nil {
		return Tick{}, fmt.Errorf("decode snapshot line: %w", err)
	}
	return Tick{Tick: l.Tick, Snapshot: l.Snapshot}, nil
}

// DecodeSnapshot parses a bare snapshot object.
func (d *Decoder) DecodeSnapshot(raw []byte) (Snapshot, error) {
	if err := validate(d.snapshot, raw); err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// #endregion decoder

// #region helpers
func validate(schema *jsonschema.Schema, raw []byte) error {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	return schema.Validate(payload)
}

// #endregion helpers
