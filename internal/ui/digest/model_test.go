package digest

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
	"github.com/nhle/vanta/tests/testutil"
)

func TestMissingDigestShowsEmptyText(t *testing.T) {
	calls := 0
	env := testutil.NewTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"detail":"Not Found"}`, http.StatusNotFound)
	}))
	m := New(env, 80, 20)

	msgs := testutil.Run(m.Init())
	require.Len(t, msgs, 1)
	m, _ = m.Update(msgs[0])

	assert.Contains(t, m.View(), EmptyText)
	assert.Equal(t, 1, calls, "a missing digest is not retried")
}

func TestDigestRendersItems(t *testing.T) {
	score := 0.82
	d := model.Digest{
		GeneratedAt: model.Timestamp{Time: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)},
		Items: []model.DigestItem{
			{Title: "Backend Engineer", Company: "Acme", Remote: true, FitScore: &score, WhyFit: "Go and Postgres"},
		},
	}
	env := testutil.NewTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications/latest/digest", r.URL.Path)
		_ = json.NewEncoder(w).Encode(d)
	}))
	m := New(env, 100, 40)

	msgs := testutil.Run(m.Init())
	require.Len(t, msgs, 1)
	m, _ = m.Update(msgs[0])

	require.NotNil(t, m.digest)
	assert.NotContains(t, m.View(), EmptyText)
	assert.Contains(t, Markdown(*m.digest), "Backend Engineer")
}

func TestMarkdownWithoutItems(t *testing.T) {
	out := Markdown(model.Digest{})
	assert.Contains(t, out, "# Daily Digest")
	assert.Contains(t, out, "No new matches today.")
}
