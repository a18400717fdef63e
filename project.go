package fortuned

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type (
	// Project is the on-disk representation of a song: the section layout,
	// the non-empty cells, the sample slot assignments and the playback
	// settings. Cells are stored sparsely; a missing volume or pitch means
	// "inherit from the sample slot".
	Project struct {
		BPM      int              `yaml:"bpm"`
		SongMode bool             `yaml:"songMode,omitempty"`
		Sections []ProjectSection `yaml:"sections"`
		Cells    []ProjectCell    `yaml:"cells,omitempty"`
		Samples  []ProjectSample  `yaml:"samples,omitempty"`
	}

	ProjectSection struct {
		Steps  int   `yaml:"steps"`
		Loops  int   `yaml:"loops,omitempty"`
		Layers []int `yaml:"layers,omitempty,flow"`
	}

	ProjectCell struct {
		Step   int      `yaml:"step"`
		Col    int      `yaml:"col"`
		Slot   int      `yaml:"slot"`
		Volume *float32 `yaml:"volume,omitempty"`
		Pitch  *float32 `yaml:"pitch,omitempty"`
	}

	ProjectSample struct {
		Slot     int            `yaml:"slot"`
		ID       string         `yaml:"id,omitempty"`
		Name     string         `yaml:"name,omitempty"`
		Path     string         `yaml:"path"`
		Settings SampleSettings `yaml:"settings"`
	}
)

// ReadProject parses a project document. The returned project has been
// validated against the grid limits.
func ReadProject(r io.Reader) (Project, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Project{}, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Project{}, fmt.Errorf("parse project: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// Write marshals the project as YAML.
func (p Project) Write(w io.Writer) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// Validate checks the project against the fixed grid limits, so that a
// validated project can be applied to the engine without further argument
// errors.
func (p Project) Validate() error {
	if p.BPM < MinBPM || p.BPM > MaxBPM {
		return fmt.Errorf("bpm %d out of range [%d,%d]", p.BPM, MinBPM, MaxBPM)
	}
	if len(p.Sections) == 0 {
		return errors.New("project has no sections")
	}
	if len(p.Sections) > MaxSections {
		return fmt.Errorf("too many sections: %d > %d", len(p.Sections), MaxSections)
	}
	total := 0
	for i, s := range p.Sections {
		if s.Steps <= 0 {
			return fmt.Errorf("section %d has %d steps", i, s.Steps)
		}
		if s.Loops != 0 && (s.Loops < MinSectionLoops || s.Loops > MaxSectionLoops) {
			return fmt.Errorf("section %d loops %d out of range", i, s.Loops)
		}
		if len(s.Layers) > MaxLayersPerSection {
			return fmt.Errorf("section %d has %d layers", i, len(s.Layers))
		}
		width := 0
		for _, l := range s.Layers {
			if l < 0 {
				return fmt.Errorf("section %d has a negative layer length", i)
			}
			width += l
		}
		if width > MaxCols {
			return fmt.Errorf("section %d layers span %d columns > %d", i, width, MaxCols)
		}
		total += s.Steps
	}
	if total > MaxSteps {
		return fmt.Errorf("sections span %d steps > %d", total, MaxSteps)
	}
	for _, c := range p.Cells {
		if c.Step < 0 || c.Step >= total || c.Col < 0 || c.Col >= MaxCols {
			return fmt.Errorf("cell (%d,%d) out of range", c.Step, c.Col)
		}
		if c.Slot < 0 || c.Slot >= MaxSampleSlots {
			return fmt.Errorf("cell (%d,%d) references slot %d", c.Step, c.Col, c.Slot)
		}
	}
	for _, s := range p.Samples {
		if s.Slot < 0 || s.Slot >= MaxSampleSlots {
			return fmt.Errorf("sample slot %d out of range", s.Slot)
		}
		if s.Path == "" && s.ID == "" {
			return fmt.Errorf("sample slot %d has neither path nor id", s.Slot)
		}
	}
	return nil
}
