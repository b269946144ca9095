package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndGet(t *testing.T) {
	m := NewManager(zap.NewNop())

	meta := m.Create("friday night", "bob", 4)
	require.NotEmpty(t, meta.ID)
	assert.Equal(t, StatusInLobby, meta.Status)
	assert.Zero(t, meta.NumPlayers)

	got, ok := m.Get(meta.ID)
	require.True(t, ok)
	assert.Equal(t, "friday night", got.Name)
	assert.Equal(t, "bob", got.Owner)

	_, ok = m.Get("nope")
	assert.False(t, ok)
}

func TestListAndUpdate(t *testing.T) {
	m := NewManager(zap.NewNop())
	a := m.Create("one", "bob", 4)
	m.Create("two", "god", 2)
	assert.Len(t, m.List(), 2)

	m.Update(a.ID, 3, StatusInGame)
	got, ok := m.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, 3, got.NumPlayers)
	assert.Equal(t, StatusInGame, got.Status)

	// Unknown ids are a no-op.
	m.Update("nope", 1, StatusInGame)
	assert.Len(t, m.List(), 2)
}

func TestEndedGamesDropFromListing(t *testing.T) {
	m := NewManager(zap.NewNop())
	meta := m.Create("one", "bob", 4)

	m.Update(meta.ID, 0, StatusEnded)
	_, ok := m.Get(meta.ID)
	assert.False(t, ok)
	assert.Empty(t, m.List())
}
