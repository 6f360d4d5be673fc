package board

import (
	"slices"

	"github.com/nhle/vanta/internal/model"
)

// Txn is one optimistic move awaiting confirmation. It carries the board
// as it was immediately before the move.
type Txn struct {
	ID   uint64
	Move Move

	// App is the moved application with its new stage.
	App model.Application

	before  Board
	version uint64
}

// Before returns a copy of the board captured before the move.
func (t *Txn) Before() Board {
	return t.before.Clone()
}

// Outcome describes what Revert did.
type Outcome int

const (
	// Unknown means the transaction was not pending.
	Unknown Outcome = iota
	// Restored means the board was reset to the transaction's snapshot.
	Restored
	// Undone means later changes were kept and only this move was undone.
	Undone
	// Superseded means the application moved again after this transaction,
	// so the failure was ignored.
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Restored:
		return "restored"
	case Undone:
		return "undone"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Reconciler owns the board shown to the user. It is not safe for
// concurrent use; callers drive it from a single update loop.
type Reconciler struct {
	current Board
	version uint64
	nextID  uint64
	pending map[uint64]*Txn

	// lastMove records the newest transaction per application id.
	lastMove map[string]uint64
}

// NewReconciler starts from the projection of apps.
func NewReconciler(apps []model.Application) *Reconciler {
	return &Reconciler{
		current:  Project(apps),
		pending:  make(map[uint64]*Txn),
		lastMove: make(map[string]uint64),
	}
}

// Board returns the board as currently shown.
func (r *Reconciler) Board() Board {
	return r.current
}

// Pending returns the number of moves awaiting confirmation.
func (r *Reconciler) Pending() int {
	return len(r.pending)
}

// IsPending reports whether the application has a move in flight.
func (r *Reconciler) IsPending(appID string) bool {
	for _, txn := range r.pending {
		if txn.App.ID == appID {
			return true
		}
	}
	return false
}

// Begin applies m to the board and records a transaction for it. A drop in
// place returns a nil Txn and changes nothing; no request should be sent.
func (r *Reconciler) Begin(m Move) (*Txn, error) {
	before := r.current
	next, app, err := ApplyMove(before, m)
	if err != nil {
		return nil, err
	}
	if m.IsNoop() {
		return nil, nil
	}

	r.nextID++
	r.version++
	r.current = next

	txn := &Txn{
		ID:      r.nextID,
		Move:    m,
		App:     app,
		before:  before.Clone(),
		version: r.version,
	}
	r.pending[txn.ID] = txn
	r.lastMove[app.ID] = txn.ID
	return txn, nil
}

// Commit confirms a transaction. The board is left as is; the caller
// refetches the authoritative list.
func (r *Reconciler) Commit(id uint64) {
	delete(r.pending, id)
}

// Revert unwinds a failed transaction. If nothing changed since the move,
// the board is reset to the exact snapshot taken before it. Otherwise only
// this move is undone so later moves survive; if the application has moved
// again since, the failure is ignored.
func (r *Reconciler) Revert(id uint64) Outcome {
	txn, ok := r.pending[id]
	if !ok {
		return Unknown
	}
	delete(r.pending, id)

	if r.version == txn.version {
		r.current = txn.before.Clone()
		r.version++
		return Restored
	}

	if r.lastMove[txn.App.ID] != txn.ID {
		return Superseded
	}
	pos, found := r.current.Find(txn.App.ID)
	if !found || pos.Stage != txn.Move.To.Stage {
		return Superseded
	}

	next, _, err := ApplyMove(r.current, Move{From: pos, To: txn.Move.From})
	if err != nil {
		return Superseded
	}
	r.current = next
	r.version++
	return Undone
}

// Replace installs an authoritative application list. Moves still in
// flight are re-applied on top so the user does not see cards jump back
// before the server answers.
func (r *Reconciler) Replace(apps []model.Application) {
	next := Project(apps)

	ids := make([]uint64, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		txn := r.pending[id]
		if r.lastMove[txn.App.ID] != txn.ID {
			continue
		}
		pos, ok := next.Find(txn.App.ID)
		if !ok || pos.Stage == txn.App.Stage {
			continue
		}
		if moved, _, err := ApplyMove(next, Move{From: pos, To: txn.Move.To}); err == nil {
			next = moved
		}
	}

	for appID := range r.lastMove {
		if !r.IsPending(appID) {
			delete(r.lastMove, appID)
		}
	}

	r.current = next
	r.version++
}
