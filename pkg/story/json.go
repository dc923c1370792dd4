package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Scenario Serialization API
// =============================================================================

// MarshalScenario converts a scenario to indented JSON bytes.
func MarshalScenario(sc *Scenario) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteScenario(sc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteScenario writes a scenario as indented JSON to w.
func WriteScenario(sc *Scenario, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportScenario writes a scenario to a JSON file.
func ExportScenario(sc *Scenario, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteScenario(sc, f)
}

// ReadScenario decodes a scenario from r.
//
// The input is either a scenario object or a bare array of scenes; the latter
// yields a scenario with only Scenes set. Scenes with a nil choice list are
// normalized to an empty list. No structural validation is performed: dangling
// choices, cycles and missing start scenes are valid input.
func ReadScenario(r io.Reader) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return UnmarshalScenario(data)
}

// UnmarshalScenario decodes a scenario from JSON bytes. See [ReadScenario].
func UnmarshalScenario(data []byte) (*Scenario, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode: empty input")
	}

	var sc Scenario
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &sc.Scenes); err != nil {
			return nil, fmt.Errorf("decode scenes: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &sc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	for i := range sc.Scenes {
		if sc.Scenes[i].Choices == nil {
			sc.Scenes[i].Choices = []Choice{}
		}
	}
	return &sc, nil
}

// ImportScenario reads a scenario from a JSON file.
func ImportScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScenario(f)
}
