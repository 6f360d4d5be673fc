package kanban

import (
	"encoding/json"
	"net/http"
	gosync "sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/internal/ui"
	"github.com/nhle/vanta/tests/testutil"
)

type fakeAPI struct {
	mu      gosync.Mutex
	patches []model.StageUpdate
	fail    bool
	apps    []model.Application
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPatch:
		var upd model.StageUpdate
		_ = json.NewDecoder(r.Body).Decode(&upd)
		f.patches = append(f.patches, upd)
		if f.fail {
			http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(model.Application{ID: "a1", Title: "SE", Stage: upd.Stage})
	case r.Method == http.MethodGet && r.URL.Path == "/applications/":
		_ = json.NewEncoder(w).Encode(f.apps)
	default:
		http.NotFound(w, r)
	}
}

func seed() []model.Application {
	return []model.Application{
		{ID: "a1", Title: "SE", Company: "Acme", Stage: model.StageApplied},
		{ID: "a2", Title: "SRE", Company: "Initech", Stage: model.StageApplied},
		{ID: "a3", Title: "PM", Company: "Globex", Stage: model.StageScreen},
	}
}

func loadedBoard(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	env := testutil.NewTestEnv(t, api)
	m := New(env, 140, 40)
	m, _ = m.Update(appsLoadedMsg{user: testutil.TestUser.UserID, apps: seed()})
	return m
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(testutil.Key(k))
	}
	return m, cmd
}

func ids(apps []model.Application) []string {
	out := make([]string, len(apps))
	for i, a := range apps {
		out[i] = a.ID
	}
	return out
}

func TestDropMovesCardOptimistically(t *testing.T) {
	api := &fakeAPI{}
	m := loadedBoard(t, api)

	m, _ = press(m, "l")
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "a1", sel.ID)

	m, _ = press(m, " ")
	require.True(t, m.Holding())

	m, cmd := press(m, "l", " ")
	require.NotNil(t, cmd)
	assert.False(t, m.Holding())

	b := m.rec.Board()
	assert.Equal(t, []string{"a1", "a3"}, ids(b[model.StageScreen]))
	assert.Equal(t, []string{"a2"}, ids(b[model.StageApplied]))
	assert.Equal(t, 1, m.Pending())

	msgs := testutil.Run(cmd)
	require.Len(t, msgs, 1)
	require.Len(t, api.patches, 1)
	assert.Equal(t, model.StageScreen, api.patches[0].Stage)

	api.apps = []model.Application{
		{ID: "a1", Title: "SE", Stage: model.StageScreen},
		{ID: "a2", Title: "SRE", Stage: model.StageApplied},
		{ID: "a3", Title: "PM", Stage: model.StageScreen},
	}
	m, cmd = m.Update(msgs[0])
	assert.Zero(t, m.Pending())
	require.NotNil(t, cmd, "a committed move refetches the board")

	for _, msg := range testutil.Run(cmd) {
		m, _ = m.Update(msg)
	}
	assert.Equal(t, []string{"a1", "a3"}, ids(m.rec.Board()[model.StageScreen]))
}

func TestFailedDropRestoresCard(t *testing.T) {
	api := &fakeAPI{fail: true}
	m := loadedBoard(t, api)

	m, cmd := press(m, "l", " ", "l", " ")
	require.NotNil(t, cmd)

	msgs := testutil.Run(cmd)
	require.Len(t, msgs, 1)

	m, cmd = m.Update(msgs[0])
	assert.Zero(t, m.Pending())

	b := m.rec.Board()
	assert.Equal(t, []string{"a1", "a2"}, ids(b[model.StageApplied]))
	assert.Equal(t, []string{"a3"}, ids(b[model.StageScreen]))

	flash := testutil.Run(cmd)
	require.Len(t, flash, 1)
	fm, ok := flash[0].(ui.FlashMsg)
	require.True(t, ok)
	assert.True(t, fm.Error)
	assert.Contains(t, fm.Text, `Could not move "SE"`)
}

func TestEscCancelsPickUp(t *testing.T) {
	m := loadedBoard(t, &fakeAPI{})

	m, _ = press(m, "l", " ", "l", "esc")
	assert.False(t, m.Holding())
	assert.Zero(t, m.Pending())
	assert.Equal(t, []string{"a1", "a2"}, ids(m.rec.Board()[model.StageApplied]))
}

func TestDropOnSameSlotSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	m := loadedBoard(t, api)

	m, cmd := press(m, "l", " ", " ")
	assert.Nil(t, cmd)
	assert.Zero(t, m.Pending())
	assert.Empty(t, api.patches)
}

func TestSyncIsIgnoredWhileMovesArePending(t *testing.T) {
	m := loadedBoard(t, &fakeAPI{})

	m, _ = press(m, "l", " ", "l", " ")
	require.Equal(t, 1, m.Pending())

	m.ApplySync(testutil.TestUser.UserID, nil)
	assert.Equal(t, 3, m.rec.Board().Len())

	m.ApplySync("someone-else", nil)
	assert.Equal(t, 3, m.rec.Board().Len())
}

func TestEnterOpensNotes(t *testing.T) {
	m := loadedBoard(t, &fakeAPI{})

	_, cmd := press(m, "l", "enter")
	msgs := testutil.Run(cmd)
	require.Len(t, msgs, 1)
	open, ok := msgs[0].(OpenNotesMsg)
	require.True(t, ok)
	assert.Equal(t, "a1", open.App.ID)
}

func TestUnknownStageIsDroppedAndLogged(t *testing.T) {
	env := testutil.NewTestEnv(t, &fakeAPI{})
	core, logs := observer.New(zap.WarnLevel)
	env.Logger = zap.New(core)
	apps := append(seed(), model.Application{ID: "a9", Title: "Intern", Stage: "archived"})
	testutil.SeedApplications(t, env.Store, apps...)

	m := New(env, 140, 40)
	msgs := testutil.Run(m.loadSnapshot())
	require.Len(t, msgs, 1)
	m, _ = m.Update(msgs[0])

	assert.Equal(t, 3, m.rec.Board().Len())
	_, found := m.rec.Board().Find("a9")
	assert.False(t, found)

	dropped := logs.FilterMessage("dropping application with unknown stage").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "a9", dropped[0].ContextMap()["id"])
	assert.Equal(t, "archived", dropped[0].ContextMap()["stage"])
}
