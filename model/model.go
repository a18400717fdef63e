// Package model is the consumer side of the sequencer core: per-frame
// mirrors of the engine's versioned snapshots, the validated mutation
// surface the UI edits through, and the selection/clipboard logic on top of
// the table addressing.
//
// Each model owns one seqlock reader and a private mirror. Tick() performs
// one read attempt per model; a failed read (writer contention) keeps the
// previous mirror for this frame, which the next frame retries. Mutations
// are validated locally and forwarded to the engine; mirrors are never
// updated optimistically, so an issued command becomes visible only on the
// next successful read.
package model

import (
	"log/slog"

	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/seqlock"
)

type (
	Model struct {
		Table      *TableModel
		Playback   *PlaybackModel
		SampleBank *SampleBankModel
		Undo       *UndoRedoModel
		Edit       *EditEngine

		engine *engine.Engine
	}

	config struct {
		log      *slog.Logger
		budget   int
		resolver SampleResolver
	}

	Option func(*config)
)

func WithLogger(log *slog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithRetryBudget overrides the seqlock retry budget of all four readers.
func WithRetryBudget(n int) Option {
	return func(c *config) { c.budget = n }
}

// WithResolver sets the sample id resolver used by LoadSample.
func WithResolver(r SampleResolver) Option {
	return func(c *config) { c.resolver = r }
}

// New builds the four models over an initialized engine and performs one
// initial tick so the mirrors start from the engine defaults.
func New(e *engine.Engine, opts ...Option) *Model {
	c := config{
		log:    slog.Default(),
		budget: seqlock.DefaultRetryBudget,
	}
	for _, opt := range opts {
		opt(&c)
	}
	m := &Model{engine: e}
	m.Table = newTableModel(e, c)
	m.Playback = newPlaybackModel(e, c, m.Table.SectionsCount)
	m.SampleBank = newSampleBankModel(e, c)
	m.Undo = newUndoRedoModel(e, c)
	m.Edit = newEditEngine(m.Table, c.log)
	m.Tick()
	return m
}

// Tick runs one read attempt on every model and returns how many observed
// fresh state. Meant to be called once per UI frame.
func (m *Model) Tick() (fresh int) {
	for _, ok := range [...]bool{
		m.Table.Tick(),
		m.Playback.Tick(),
		m.SampleBank.Tick(),
		m.Undo.Tick(),
	} {
		if ok {
			fresh++
		}
	}
	return fresh
}
