// Package snapshot supplies per-component flat field maps for the code and
// design sides. The orchestrator is snapshot-source-agnostic; providers are
// the pluggable artifact-store boundary.
package snapshot

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Snapshot is one component's pair of flat field maps
type Snapshot struct {
	ComponentID  string
	ComponentRef string
	Code         map[string]string
	Design       map[string]string
}

// Provider resolves component IDs to snapshots
type Provider interface {
	Snapshot(componentID string) (*Snapshot, error)
}

// FileProvider reads snapshots from a JSON document mapping component IDs to
// {"ref": ..., "code": {...}, "design": {...}} objects. Field values of any
// JSON type are flattened to their string form.
type FileProvider struct {
	doc []byte
}

// NewFileProvider loads a snapshot document from disk
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("snapshot file %s: invalid JSON", path)
	}
	return &FileProvider{doc: data}, nil
}

// Snapshot implements Provider
func (p *FileProvider) Snapshot(componentID string) (*Snapshot, error) {
	entry := gjson.GetBytes(p.doc, componentID)
	if !entry.Exists() {
		return nil, fmt.Errorf("no snapshot for component %s", componentID)
	}

	snap := &Snapshot{
		ComponentID:  componentID,
		ComponentRef: entry.Get("ref").String(),
		Code:         fieldMap(entry.Get("code")),
		Design:       fieldMap(entry.Get("design")),
	}
	if snap.ComponentRef == "" {
		snap.ComponentRef = componentID
	}
	return snap, nil
}

func fieldMap(res gjson.Result) map[string]string {
	fields := map[string]string{}
	res.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value.String()
		return true
	})
	return fields
}

// MemProvider serves snapshots from memory. Used by tests and embedding
// callers that fetch artifacts themselves.
type MemProvider struct {
	Snapshots map[string]*Snapshot
}

// Snapshot implements Provider
func (p *MemProvider) Snapshot(componentID string) (*Snapshot, error) {
	snap, ok := p.Snapshots[componentID]
	if !ok {
		return nil, fmt.Errorf("no snapshot for component %s", componentID)
	}
	return snap, nil
}
