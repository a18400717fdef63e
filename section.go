package fortuned

type (
	// Section is a contiguous run of sequencer steps forming one pattern/loop
	// unit. Sections are kept contiguous and non-overlapping; their union
	// covers exactly [0, TotalSteps).
	Section struct {
		StartStep int
		NumSteps  int
	}

	// Layer groups a run of columns within a section. A layer has no start
	// column of its own; it begins where the previous layers of the same
	// section end.
	Layer struct {
		Len int
	}
)

// End returns the exclusive end step of the section.
func (s Section) End() int {
	return s.StartStep + s.NumSteps
}

func (s Section) Contains(step int) bool {
	return step >= s.StartStep && step < s.End()
}

// SectionAtStep returns the index of the first section containing the given
// absolute step, or -1 if none does. Gaps should not occur given the
// partition invariant, but callers must handle the -1 defensively.
func SectionAtStep(sections []Section, step int) int {
	for i, s := range sections {
		if s.Contains(step) {
			return i
		}
	}
	return -1
}

// TotalSteps returns the union length of the sections, i.e. the exclusive end
// of the last one. With the partition invariant holding this equals the sum
// of the section lengths.
func TotalSteps(sections []Section) int {
	if len(sections) == 0 {
		return 0
	}
	return sections[len(sections)-1].End()
}

// LayerSpan returns the column range [start, end) of the given layer as the
// prefix sum of the preceding layer lengths, clamped to the table width.
func LayerSpan(layers []Layer, layer int) (start, end int) {
	if layer < 0 || layer >= len(layers) {
		return 0, 0
	}
	for _, l := range layers[:layer] {
		start += l.Len
	}
	end = start + layers[layer].Len
	start = clampInt(start, 0, MaxCols)
	end = clampInt(end, start, MaxCols)
	return start, end
}

// LayerLenSum returns the total width of the layers.
func LayerLenSum(layers []Layer) (sum int) {
	for _, l := range layers {
		sum += l.Len
	}
	return sum
}
