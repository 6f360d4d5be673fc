package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil))

	_, err := store.LoadSession()
	require.ErrorIs(t, err, ErrNoSession)

	want := model.Session{UserID: "u-1", Email: "ada@x.com"}
	require.NoError(t, store.SaveSession(want))

	got, err := store.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.ClearSession())
	_, err = store.LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing twice is fine.
	assert.NoError(t, store.ClearSession())
}

func TestLoadSessionRejectsCorruptData(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "session", Data: []byte("{not json")}})
	_, err := NewStore(ring).LoadSession()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
