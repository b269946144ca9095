package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectDamage(t *testing.T) {
	binding, ok := LookupEffect("DIRECT_DAMAGE")
	require.True(t, ok)
	m := &Monster{Health: 5}
	binding.Monster(m, 3)
	assert.Equal(t, 2, m.Health)
}

func TestWeakenResolveFloorsAtOne(t *testing.T) {
	binding, ok := LookupEffect("WEAKEN_RESOLVE")
	require.True(t, ok)
	m := &Monster{Spare: 4}
	binding.Monster(m, 2)
	assert.Equal(t, 2, m.Spare)
	binding.Monster(m, 10)
	assert.Equal(t, 1, m.Spare, "spare threshold never drops below 1")
}

func TestBandageHealsPlayer(t *testing.T) {
	binding, ok := LookupEffect("BANDAGE")
	require.True(t, ok)
	p := &Player{Health: 2}
	binding.Player(p, 2)
	assert.Equal(t, 4, p.Health)
}

func TestValidateEffect(t *testing.T) {
	assert.NoError(t, ValidateEffect("DIRECT_DAMAGE", TargetMonster))
	assert.Error(t, ValidateEffect("DIRECT_DAMAGE", TargetPlayer), "target mismatch must fail")
	assert.Error(t, ValidateEffect("FIREWORKS", TargetNone), "unknown effect must fail")
}
