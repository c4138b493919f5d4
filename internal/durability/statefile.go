package durability

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/natefinch/atomic"
)

// diagnosticState is the shape of the `<devfile>.meta.json` sidecar: a
// purely advisory snapshot of the last known good generation and tail,
// for an operator inspecting a device offline. Recovery never reads this
// file — it exists only because reading 4096-byte log blocks by hand to
// answer "what generation is this device on" is unpleasant.
type diagnosticState struct {
	Generation uint32 `json:"generation"`
	Tail       uint32 `json:"tail"`
}

// WriteStateFile atomically writes the current generation/tail to
// path+".meta.json", replacing any previous sidecar in a single rename so
// a concurrent reader never observes a partially written file.
func (d *Durability) WriteStateFile(path string) error {
	data, err := json.MarshalIndent(diagnosticState{Generation: d.generation, Tail: d.tail}, "", "  ")
	if err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err := atomic.WriteFile(path+".meta.json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}
