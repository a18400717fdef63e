package fortuned

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrUnknownSample is returned when a manifest does not contain the requested
// sample id.
var ErrUnknownSample = errors.New("unknown sample id")

type (
	// SampleManifest is a library of loadable samples keyed by stable id. The
	// id, not the file path, is the long-term identity of a sample: paths may
	// change between installs while ids stay stable for reload and caching
	// checks.
	SampleManifest struct {
		Samples []SampleRef `yaml:"samples"`

		byID map[string]int
	}

	// SampleRef points at one loadable sample asset.
	SampleRef struct {
		ID   string `yaml:"id"`
		Path string `yaml:"path"`
		Name string `yaml:"name,omitempty"`
	}
)

// ReadSampleManifest parses a manifest document and indexes it by id.
func ReadSampleManifest(r io.Reader) (*SampleManifest, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m SampleManifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.byID = make(map[string]int, len(m.Samples))
	for i, s := range m.Samples {
		if s.ID == "" {
			return nil, fmt.Errorf("manifest entry %d has no id", i)
		}
		if _, dup := m.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate sample id %q", s.ID)
		}
		m.byID[s.ID] = i
	}
	return &m, nil
}

// Resolve returns the asset reference for the given id.
func (m *SampleManifest) Resolve(id string) (SampleRef, error) {
	i, ok := m.byID[id]
	if !ok {
		return SampleRef{}, fmt.Errorf("%w: %q", ErrUnknownSample, id)
	}
	return m.Samples[i], nil
}
