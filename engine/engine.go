// Package engine is the producer side of the sequencer core: it owns the
// four versioned snapshots (table, playback, sample bank, undo/redo) and
// exposes the mutation surface the consumer models forward into. All writers
// are serialized by one mutex and publish their changes through seqlock write
// windows; readers (the model package) never take the mutex.
package engine

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	fortuned "github.com/luddite478/fortuned-sub008"
)

// Status codes returned by the engine call surface. Zero is success; failures
// are non-fatal and leave state unchanged.
const (
	StatusOK             = 0
	StatusNotInitialized = 1
	StatusInvalidArg     = 2
	StatusTableFull      = 3
	StatusLoadFailed     = 4
)

const defaultTriggerBuffer = 64

type (
	// Engine is the producer context object. One goroutine at a time mutates
	// it (the writer mutex serializes the UI-driven calls with the step
	// clock); any number of goroutines may read the snapshot structs through
	// the seqlock protocol.
	Engine struct {
		mu          sync.Mutex
		initialized bool
		log         *slog.Logger

		table    TableState
		playback PlaybackState
		bank     SampleBankState
		undo     UndoRedoState

		history  []*historyEntry
		cursor   int
		applying bool

		clockStop chan struct{}
		clockDone chan struct{}

		triggers chan StepTrigger

		loadJobs map[int]uuid.UUID
		prepare  PrepareFunc
	}

	// PrepareFunc performs the off-thread preparation of a freshly loaded
	// sample (decoding, pitched-variant generation and the like). It runs on
	// its own goroutine; the slot's Processing flag stays true until it
	// returns.
	PrepareFunc func(sample fortuned.Sample) error

	Option func(*Engine)
)

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTriggerBuffer sets the capacity of the step trigger channel. Triggers
// are dropped, not blocked on, when the consumer falls behind.
func WithTriggerBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.triggers = make(chan StepTrigger, n)
		}
	}
}

// WithPrepare overrides the sample preparation hook.
func WithPrepare(f PrepareFunc) Option {
	return func(e *Engine) {
		if f != nil {
			e.prepare = f
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:      slog.Default(),
		triggers: make(chan StepTrigger, defaultTriggerBuffer),
		loadJobs: make(map[int]uuid.UUID),
		prepare:  func(fortuned.Sample) error { return nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init resets every snapshot to its default state: one section of
// DefaultSectionSteps empty steps, full-width default layers, stopped
// transport at 120 BPM with the region spanning the table, an empty sample
// bank, and a baseline undo snapshot. Must be called before any other
// operation; everything else returns StatusNotInitialized until it has.
func (e *Engine) Init() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		e.stopClockLocked()
	}
	e.table.Version.Write(func() {
		e.table.SectionsCount = 1
		for s := range e.table.Sections {
			e.table.Sections[s] = fortuned.Section{}
		}
		e.table.Sections[0] = fortuned.Section{StartStep: 0, NumSteps: fortuned.DefaultSectionSteps}
		for s := range e.table.Layers {
			e.table.Layers[s] = defaultLayers()
		}
		row := emptyRow()
		for step := range e.table.Cells {
			e.table.Cells[step] = row
		}
	})
	e.playback.Version.Write(func() {
		e.playback.Playing = false
		e.playback.CurrentStep = 0
		e.playback.BPM = 120
		e.playback.RegionStart = 0
		e.playback.RegionEnd = fortuned.DefaultSectionSteps
		e.playback.SongMode = false
		for i := range e.playback.SectionLoops {
			e.playback.SectionLoops[i] = fortuned.DefaultSectionLoops
		}
		e.playback.CurrentSection = 0
		e.playback.CurrentSectionLoop = 0
	})
	e.bank.Version.Write(func() {
		e.bank.MaxSlots = fortuned.MaxSampleSlots
		e.bank.LoadedCount = 0
		for i := range e.bank.Samples {
			e.bank.Samples[i] = fortuned.Sample{Settings: fortuned.DefaultSampleSettings()}
		}
	})
	e.loadJobs = make(map[int]uuid.UUID)
	e.initialized = true
	e.resetHistoryLocked()
	return StatusOK
}

// Cleanup stops the clock and marks the engine uninitialized. Snapshot
// memory stays valid so late readers see the last stable state.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	e.stopClockLocked()
	e.loadJobs = make(map[int]uuid.UUID)
	e.initialized = false
}

func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// TableState returns the live table snapshot. Read-only for callers; access
// it only through a seqlock reader.
func (e *Engine) TableState() *TableState { return &e.table }

// PlaybackState returns the live playback snapshot (read-only, seqlock).
func (e *Engine) PlaybackState() *PlaybackState { return &e.playback }

// SampleBankState returns the live sample bank snapshot (read-only, seqlock).
func (e *Engine) SampleBankState() *SampleBankState { return &e.bank }

// UndoRedoState returns the live undo/redo summary (read-only, seqlock).
func (e *Engine) UndoRedoState() *UndoRedoState { return &e.undo }

// Triggers returns the channel of step triggers emitted by the clock. The
// channel is never closed; triggers are dropped when the buffer is full.
func (e *Engine) Triggers() <-chan StepTrigger { return e.triggers }

// trySend is a non-blocking send; the clock must never stall on a slow
// trigger consumer.
func trySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
