package model

import (
	"log/slog"

	"github.com/luddite478/fortuned-sub008/engine"
	"github.com/luddite478/fortuned-sub008/seqlock"
)

// UndoRedoModel mirrors the history summary. Undo and Redo forward without
// local checks beyond the mirrored capability flags; the engine re-validates
// against its authoritative cursor.
type UndoRedoModel struct {
	engine *engine.Engine
	reader seqlock.Reader
	log    *slog.Logger

	count   int
	cursor  int
	canUndo bool
	canRedo bool
}

func newUndoRedoModel(e *engine.Engine, c config) *UndoRedoModel {
	return &UndoRedoModel{
		engine: e,
		reader: seqlock.Reader{Budget: c.budget},
		log:    c.log,
	}
}

// Tick attempts one seqlock read of the history summary.
func (u *UndoRedoModel) Tick() bool {
	st := u.engine.UndoRedoState()
	return u.reader.Read(&st.Version, func() {
		u.count = st.Count
		u.cursor = st.Cursor
		u.canUndo = st.CanUndo
		u.canRedo = st.CanRedo
	})
}

func (u *UndoRedoModel) Count() int    { return u.count }
func (u *UndoRedoModel) Cursor() int   { return u.cursor }
func (u *UndoRedoModel) CanUndo() bool { return u.canUndo }
func (u *UndoRedoModel) CanRedo() bool { return u.canRedo }

func (u *UndoRedoModel) Undo() {
	if !u.canUndo {
		u.log.Debug("undo with empty history")
		return
	}
	if st := u.engine.Undo(); st != engine.StatusOK {
		u.log.Warn("engine rejected undo", "status", st)
	}
}

func (u *UndoRedoModel) Redo() {
	if !u.canRedo {
		u.log.Debug("redo with no redo tail")
		return
	}
	if st := u.engine.Redo(); st != engine.StatusOK {
		u.log.Warn("engine rejected redo", "status", st)
	}
}

func (u *UndoRedoModel) ClearHistory() {
	if st := u.engine.ClearHistory(); st != engine.StatusOK {
		u.log.Warn("engine rejected history clear", "status", st)
	}
}
