package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads the inventory yaml exported by the control plane
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.filePath
}

// Load parses the file and resolves it into a Snapshot
func (l *Loader) Load() (*Snapshot, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return Parse(data)
}

// Parse decodes inventory yaml. Unknown fields are rejected.
func Parse(data []byte) (*Snapshot, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse inventory yaml: %w", err)
	}
	return Build(doc)
}
