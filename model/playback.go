package model

import (
	"log/slog"

	fortuned "github.com/luddite478/fortuned-sub008"
	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/seqlock"
)

// Tempo limits exposed to the UI. The engine itself accepts the wider
// clock range, but edits through the model stay in the usable band.
const (
	MinBPM = 60
	MaxBPM = fortuned.MaxBPM
)

// PlaybackModel mirrors the transport snapshot: playing flag, current
// position and the durable playback settings.
type PlaybackModel struct {
	engine        *engine.Engine
	reader        seqlock.Reader
	log           *slog.Logger
	sectionsCount func() int

	playing            bool
	currentStep        int
	bpm                int
	regionStart        int
	regionEnd          int
	songMode           bool
	sectionLoops       [fortuned.MaxSections]int
	currentSection     int
	currentSectionLoop int
}

func newPlaybackModel(e *engine.Engine, c config, sectionsCount func() int) *PlaybackModel {
	return &PlaybackModel{
		engine:        e,
		reader:        seqlock.Reader{Budget: c.budget},
		log:           c.log,
		sectionsCount: sectionsCount,
	}
}

// Tick attempts one seqlock read of the playback snapshot.
func (p *PlaybackModel) Tick() bool {
	st := p.engine.PlaybackState()
	return p.reader.Read(&st.Version, func() {
		p.playing = st.Playing
		p.currentStep = st.CurrentStep
		p.bpm = st.BPM
		p.regionStart = st.RegionStart
		p.regionEnd = st.RegionEnd
		p.songMode = st.SongMode
		p.sectionLoops = st.SectionLoops
		p.currentSection = st.CurrentSection
		p.currentSectionLoop = st.CurrentSectionLoop
	})
}

func (p *PlaybackModel) Playing() bool          { return p.playing }
func (p *PlaybackModel) CurrentStep() int       { return p.currentStep }
func (p *PlaybackModel) BPM() int               { return p.bpm }
func (p *PlaybackModel) SongMode() bool         { return p.songMode }
func (p *PlaybackModel) CurrentSection() int    { return p.currentSection }
func (p *PlaybackModel) CurrentSectionLoop() int { return p.currentSectionLoop }

// Region returns the mirrored loop region [start, end).
func (p *PlaybackModel) Region() (start, end int) {
	return p.regionStart, p.regionEnd
}

// SectionLoops returns the mirrored loop count of a section, or 0 when the
// index is outside the mirrored table.
func (p *PlaybackModel) SectionLoops(section int) int {
	if section < 0 || section >= p.sectionsCount() {
		return 0
	}
	return p.sectionLoops[section]
}

func (p *PlaybackModel) forward(op string, status int) {
	if status != engine.StatusOK {
		p.log.Warn("engine rejected playback op", "op", op, "status", status)
	}
}

// Start starts the transport at the mirrored region start with the mirrored
// tempo.
func (p *PlaybackModel) Start() {
	p.forward("start", p.engine.PlaybackStart(p.bpm, p.regionStart))
}

// StartAt starts the transport at an explicit step.
func (p *PlaybackModel) StartAt(step int) {
	p.forward("startAt", p.engine.PlaybackStart(p.bpm, step))
}

func (p *PlaybackModel) Stop() {
	p.forward("stop", p.engine.PlaybackStop())
}

// SetBPM forwards a tempo change; values outside the usable band are
// rejected locally.
func (p *PlaybackModel) SetBPM(bpm int) {
	if bpm < MinBPM || bpm > MaxBPM {
		p.log.Debug("rejected setBpm", "bpm", bpm)
		return
	}
	p.forward("setBpm", p.engine.SetBPM(bpm))
}

func (p *PlaybackModel) SetSongMode(songMode bool) {
	p.forward("setSongMode", p.engine.SetMode(songMode))
}

// SetSectionLoops validates against the mirrored section count and the loop
// range before forwarding.
func (p *PlaybackModel) SetSectionLoops(section, loops int) {
	if section < 0 || section >= p.sectionsCount() ||
		loops < fortuned.MinSectionLoops || loops > fortuned.MaxSectionLoops {
		p.log.Debug("rejected setSectionLoops", "section", section, "loops", loops)
		return
	}
	p.forward("setSectionLoops", p.engine.SetSectionLoops(section, loops))
}

func (p *PlaybackModel) SwitchToSection(section int) {
	if section < 0 || section >= p.sectionsCount() {
		p.log.Debug("rejected switchToSection", "section", section)
		return
	}
	p.forward("switchToSection", p.engine.SwitchToSection(section))
}

func (p *PlaybackModel) SetRegion(start, end int) {
	if start < 0 || end <= start {
		p.log.Debug("rejected setRegion", "start", start, "end", end)
		return
	}
	p.forward("setRegion", p.engine.SetRegion(start, end))
}
