package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
)

func app(id string, stage model.Stage) model.Application {
	return model.Application{ID: id, Title: "Role " + id, Stage: stage}
}

func sampleApps() []model.Application {
	return []model.Application{
		app("app-1", model.StageProspect),
		app("app-2", model.StageProspect),
		app("app-3", model.StageApplied),
		app("app-4", model.StageInterview),
		app("app-5", model.StageProspect),
	}
}

// ids lists the application ids in a column.
func ids(b Board, st model.Stage) []string {
	out := []string{}
	for _, a := range b[st] {
		out = append(out, a.ID)
	}
	return out
}

func TestProjectKeepsOrderAndDropsUnknownStages(t *testing.T) {
	apps := append(sampleApps(), model.Application{ID: "bad", Stage: "hired"})
	b := Project(apps)

	assert.Len(t, b, len(model.Stages()))
	assert.Equal(t, []string{"app-1", "app-2", "app-5"}, ids(b, model.StageProspect))
	assert.Equal(t, []string{}, ids(b, model.StageOffer))
	assert.Equal(t, 5, b.Len())
	_, ok := b.Find("bad")
	assert.False(t, ok)
}

func TestApplyMoveDropInPlaceIsNoop(t *testing.T) {
	b := Project(sampleApps())
	for _, st := range model.Stages() {
		for i := range b[st] {
			m := Move{From: Position{st, i}, To: Position{st, i}}
			got, moved, err := ApplyMove(b, m)
			require.NoError(t, err)
			assert.Equal(t, b[st][i].ID, moved.ID)
			assert.Empty(t, cmp.Diff(b, got))
		}
	}
}

func TestApplyMovePreservesMembership(t *testing.T) {
	b := Project(sampleApps())
	snapshot := b.Clone()

	for _, from := range model.Stages() {
		for i := range b[from] {
			for _, to := range model.Stages() {
				for j := -1; j <= len(b[to])+1; j++ {
					m := Move{From: Position{from, i}, To: Position{to, j}}
					got, moved, err := ApplyMove(b, m)
					require.NoError(t, err)

					assert.Equal(t, b.Len(), got.Len(), "move %+v changed the count", m)
					pos, ok := got.Find(moved.ID)
					require.True(t, ok)
					assert.Equal(t, to, pos.Stage)
					assert.Equal(t, to, got[pos.Stage][pos.Index].Stage)

					seen := map[string]int{}
					for _, a := range got.Applications() {
						seen[a.ID]++
					}
					for id, n := range seen {
						assert.Equal(t, 1, n, "%s appears %d times after %+v", id, n, m)
					}
				}
			}
		}
	}

	assert.Empty(t, cmp.Diff(snapshot, b), "input board must not be mutated")
}

func TestApplyMoveReorderWithinStage(t *testing.T) {
	b := Project(sampleApps())
	got, _, err := ApplyMove(b, Move{
		From: Position{model.StageProspect, 0},
		To:   Position{model.StageProspect, 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"app-2", "app-5", "app-1"}, ids(got, model.StageProspect))
}

func TestApplyMoveRejectsInvalidSource(t *testing.T) {
	b := Project(sampleApps())

	_, _, err := ApplyMove(b, Move{From: Position{model.StageOffer, 0}, To: Position{model.StageApplied, 0}})
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, _, err = ApplyMove(b, Move{From: Position{"hired", 0}, To: Position{model.StageApplied, 0}})
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestDragToAppliedAndRevertOnFailure(t *testing.T) {
	r := NewReconciler(sampleApps())
	before := r.Board().Clone()

	txn, err := r.Begin(Move{
		From: Position{model.StageProspect, 0},
		To:   Position{model.StageApplied, 0},
	})
	require.NoError(t, err)
	require.NotNil(t, txn)

	b := r.Board()
	assert.NotContains(t, ids(b, model.StageProspect), "app-1")
	assert.Equal(t, "app-1", b[model.StageApplied][0].ID)
	assert.Equal(t, model.StageApplied, b[model.StageApplied][0].Stage)
	assert.Equal(t, 1, r.Pending())
	assert.True(t, r.IsPending("app-1"))

	assert.Equal(t, Restored, r.Revert(txn.ID))

	b = r.Board()
	assert.Equal(t, "app-1", b[model.StageProspect][0].ID)
	assert.Equal(t, model.StageProspect, b[model.StageProspect][0].Stage)
	assert.Empty(t, cmp.Diff(before, b))
	assert.Equal(t, 0, r.Pending())
}

func TestBeginDropInPlaceReturnsNoTxn(t *testing.T) {
	r := NewReconciler(sampleApps())
	txn, err := r.Begin(Move{From: Position{model.StageApplied, 0}, To: Position{model.StageApplied, 0}})
	require.NoError(t, err)
	assert.Nil(t, txn)
	assert.Equal(t, 0, r.Pending())
}

func TestOverlappingMovesOnlyFirstFails(t *testing.T) {
	r := NewReconciler(sampleApps())

	first, err := r.Begin(Move{From: Position{model.StageProspect, 0}, To: Position{model.StageApplied, 0}})
	require.NoError(t, err)
	second, err := r.Begin(Move{From: Position{model.StageInterview, 0}, To: Position{model.StageOffer, 0}})
	require.NoError(t, err)

	assert.Equal(t, Undone, r.Revert(first.ID))
	r.Commit(second.ID)

	b := r.Board()
	assert.Equal(t, []string{"app-1", "app-2", "app-5"}, ids(b, model.StageProspect))
	assert.Equal(t, model.StageProspect, b[model.StageProspect][0].Stage)
	assert.Equal(t, []string{"app-3"}, ids(b, model.StageApplied))
	assert.Equal(t, []string{"app-4"}, ids(b, model.StageOffer), "second move must survive the first revert")
	assert.Equal(t, 0, r.Pending())
}

func TestOverlappingMovesOnlySecondFails(t *testing.T) {
	r := NewReconciler(sampleApps())

	first, err := r.Begin(Move{From: Position{model.StageProspect, 0}, To: Position{model.StageApplied, 0}})
	require.NoError(t, err)
	afterFirst := r.Board().Clone()
	second, err := r.Begin(Move{From: Position{model.StageInterview, 0}, To: Position{model.StageOffer, 0}})
	require.NoError(t, err)

	r.Commit(first.ID)
	assert.Equal(t, Restored, r.Revert(second.ID))
	assert.Empty(t, cmp.Diff(afterFirst, r.Board()))
}

func TestSameApplicationRaceIgnoresStaleFailure(t *testing.T) {
	r := NewReconciler(sampleApps())

	first, err := r.Begin(Move{From: Position{model.StageProspect, 0}, To: Position{model.StageApplied, 0}})
	require.NoError(t, err)
	second, err := r.Begin(Move{From: Position{model.StageApplied, 0}, To: Position{model.StageScreen, 0}})
	require.NoError(t, err)
	require.Equal(t, first.App.ID, second.App.ID)

	assert.Equal(t, Superseded, r.Revert(first.ID))
	pos, ok := r.Board().Find("app-1")
	require.True(t, ok)
	assert.Equal(t, model.StageScreen, pos.Stage, "a stale failure must not undo the newer move")

	assert.Equal(t, Restored.String(), r.Revert(second.ID).String())
	pos, _ = r.Board().Find("app-1")
	assert.Equal(t, model.StageApplied, pos.Stage)
}

func TestRevertUnknownTxn(t *testing.T) {
	r := NewReconciler(sampleApps())
	assert.Equal(t, Unknown, r.Revert(42))
}

func TestReplaceKeepsMovesInFlight(t *testing.T) {
	r := NewReconciler(sampleApps())
	txn, err := r.Begin(Move{From: Position{model.StageProspect, 1}, To: Position{model.StageOffer, 0}})
	require.NoError(t, err)

	// The server has not applied the move yet.
	r.Replace(sampleApps())
	pos, ok := r.Board().Find("app-2")
	require.True(t, ok)
	assert.Equal(t, model.StageOffer, pos.Stage)

	// A failure after a refresh undoes only this move.
	assert.Equal(t, Undone, r.Revert(txn.ID))
	pos, _ = r.Board().Find("app-2")
	assert.Equal(t, Position{model.StageProspect, 1}, pos)
}

func TestReplaceAfterCommitShowsServerState(t *testing.T) {
	r := NewReconciler(sampleApps())
	txn, err := r.Begin(Move{From: Position{model.StageApplied, 0}, To: Position{model.StageScreen, 0}})
	require.NoError(t, err)
	r.Commit(txn.ID)

	server := sampleApps()
	server[2].Stage = model.StageScreen
	r.Replace(server)

	assert.Equal(t, []string{"app-3"}, ids(r.Board(), model.StageScreen))
	assert.Empty(t, ids(r.Board(), model.StageApplied))
}
