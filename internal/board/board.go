// Package board projects applications into kanban columns and reconciles
// optimistic stage moves with the server.
package board

import (
	"errors"
	"fmt"

	"github.com/nhle/vanta/internal/model"
)

// ErrInvalidMove is returned when a move names an unknown stage or a
// source position that does not exist.
var ErrInvalidMove = errors.New("invalid move")

// Board maps each stage to its ordered applications. Boards are values:
// every operation in this package returns a new Board and leaves its input
// untouched.
type Board map[model.Stage][]model.Application

// Position is a slot on the board.
type Position struct {
	Stage model.Stage
	Index int
}

// Move is a drag from one slot to another.
type Move struct {
	From Position
	To   Position
}

// IsNoop reports whether the move drops a card where it was picked up.
func (m Move) IsNoop() bool {
	return m.From == m.To
}

// New returns an empty board with a list for every stage.
func New() Board {
	b := make(Board, len(model.Stages()))
	for _, st := range model.Stages() {
		b[st] = []model.Application{}
	}
	return b
}

// Project groups apps by stage, keeping their relative order. Applications
// with an unknown stage are left out.
func Project(apps []model.Application) Board {
	b := New()
	for _, app := range apps {
		if !app.Stage.Valid() {
			continue
		}
		b[app.Stage] = append(b[app.Stage], app.Clone())
	}
	return b
}

// Clone returns a deep copy of b.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for st, apps := range b {
		list := make([]model.Application, len(apps))
		for i, app := range apps {
			list[i] = app.Clone()
		}
		out[st] = list
	}
	return out
}

// Find returns the position of the application with the given id.
func (b Board) Find(id string) (Position, bool) {
	for _, st := range model.Stages() {
		for i, app := range b[st] {
			if app.ID == id {
				return Position{Stage: st, Index: i}, true
			}
		}
	}
	return Position{}, false
}

// At returns the application in a slot.
func (b Board) At(p Position) (model.Application, bool) {
	list := b[p.Stage]
	if p.Index < 0 || p.Index >= len(list) {
		return model.Application{}, false
	}
	return list[p.Index], true
}

// Len returns the number of applications on the board.
func (b Board) Len() int {
	n := 0
	for _, apps := range b {
		n += len(apps)
	}
	return n
}

// Applications flattens the board in column order.
func (b Board) Applications() []model.Application {
	out := make([]model.Application, 0, b.Len())
	for _, st := range model.Stages() {
		out = append(out, b[st]...)
	}
	return out
}

// ApplyMove removes the application at m.From, sets its stage to
// m.To.Stage and inserts it at m.To.Index, which is clamped into the
// destination list. A drop in place returns b itself.
func ApplyMove(b Board, m Move) (Board, model.Application, error) {
	if !m.From.Stage.Valid() || !m.To.Stage.Valid() {
		return b, model.Application{}, fmt.Errorf("%w: unknown stage in %s -> %s", ErrInvalidMove, m.From.Stage, m.To.Stage)
	}
	app, ok := b.At(m.From)
	if !ok {
		return b, model.Application{}, fmt.Errorf("%w: no application at %s[%d]", ErrInvalidMove, m.From.Stage, m.From.Index)
	}
	if m.IsNoop() {
		return b, app, nil
	}

	next := make(Board, len(b))
	for st, list := range b {
		next[st] = list
	}

	src := removeAt(b[m.From.Stage], m.From.Index)
	next[m.From.Stage] = src

	app.Stage = m.To.Stage
	dst := src
	if m.To.Stage != m.From.Stage {
		dst = next[m.To.Stage]
	}
	next[m.To.Stage] = insertAt(dst, m.To.Index, app)

	return next, app, nil
}

// removeAt returns a new slice without the element at i.
func removeAt(list []model.Application, i int) []model.Application {
	out := make([]model.Application, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

// insertAt returns a new slice with app at i, clamped to [0, len(list)].
func insertAt(list []model.Application, i int, app model.Application) []model.Application {
	i = max(0, min(i, len(list)))
	out := make([]model.Application, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, app)
	return append(out, list[i:]...)
}
