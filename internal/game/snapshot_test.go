package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffNoChange(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	d := Diff(g.Snapshot(), g.Snapshot())
	assert.False(t, d.Any())
}

func TestDiffCoinsTouchPlayersAndTurn(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	before := g.Snapshot()
	g.HandleAction("bob", ActionCoins)
	d := Diff(before, g.Snapshot())

	assert.True(t, d.Players, "coin count lives on the players channel")
	assert.True(t, d.Turn, "phase moved to TURN_ENDED")
	assert.False(t, d.Board)
	assert.Empty(t, d.Hands)
}

func TestDiffBuyTouchesOnlyBuyersHand(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.players["bob"].Coins = 2

	before := g.Snapshot()
	g.HandleAction("bob", ActionShop)
	d := Diff(before, g.Snapshot())

	assert.True(t, d.Players)
	assert.True(t, d.Board, "shop size shrinks")
	assert.Equal(t, []string{"bob"}, d.Hands)
}

func TestDiffCombatBoard(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	before := g.Snapshot()
	g.HandleAction("bob", ActionCombat)
	d := Diff(before, g.Snapshot())
	assert.True(t, d.Board)
	assert.True(t, d.Turn)
	assert.False(t, d.Players, "drawing monsters changes no player state")

	// Flipping a monster is board-only plus the phase move.
	before = g.Snapshot()
	g.HandleCombat("bob", CombatSelect, 0)
	d = Diff(before, g.Snapshot())
	assert.True(t, d.Board)
	assert.True(t, d.Turn)
	assert.False(t, d.Players)
}

func TestSnapshotFaceDownHidesStats(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 1)

	snap := g.Snapshot()
	require.Len(t, snap.Board.Monsters, 3)
	assert.Equal(t, 1, snap.Board.SelectedMonster)

	hidden := snap.Board.Monsters[0]
	assert.False(t, hidden.Visible)
	assert.Empty(t, hidden.Name)
	assert.Zero(t, hidden.Spare)
	assert.NotZero(t, hidden.ID)
	assert.Equal(t, 1, hidden.Stars)

	revealed := snap.Board.Monsters[1]
	assert.True(t, revealed.Visible)
	assert.Equal(t, "imp", revealed.Name)
	assert.Equal(t, 3, revealed.Health)
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	snap := g.Snapshot()
	require.Len(t, snap.Players, 2)

	snap.Players[0].Coins = 999
	snap.Players[0].CapturedStars = append(snap.Players[0].CapturedStars, 3)

	assert.Equal(t, 0, g.players["bob"].Coins)
	assert.Empty(t, g.players["bob"].CapturedStars)
}

func TestSnapshotOrderFollowsTurnOrder(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "a", "b", "c")
	snap := g.Snapshot()
	require.Len(t, snap.Players, 3)
	assert.Equal(t, "a", snap.Players[0].Name)
	assert.Equal(t, "b", snap.Players[1].Name)
	assert.Equal(t, "c", snap.Players[2].Name)
}
