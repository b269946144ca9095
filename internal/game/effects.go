package game

import "fmt"

// MonsterEffect mutates a monster by amount.
type MonsterEffect func(m *Monster, amount int)

// PlayerEffect mutates a player by amount.
type PlayerEffect func(p *Player, amount int)

// EffectBinding is a closed tagged variant: exactly one of the function
// fields is set, and Target names which one.
type EffectBinding struct {
	Target  TargetType
	Monster MonsterEffect
	Player  PlayerEffect
}

// effectRegistry maps effect names from the content registry to their
// typed implementations.
var effectRegistry = map[string]EffectBinding{
	"DIRECT_DAMAGE": {
		Target: TargetMonster,
		Monster: func(m *Monster, amount int) {
			m.Health -= amount
		},
	},
	"WEAKEN_RESOLVE": {
		Target: TargetMonster,
		Monster: func(m *Monster, amount int) {
			m.Spare -= amount
			if m.Spare < 1 {
				m.Spare = 1
			}
		},
	},
	"BANDAGE": {
		Target: TargetPlayer,
		Player: func(p *Player, amount int) {
			p.Health += amount
		},
	},
}

// LookupEffect resolves an effect name to its binding.
func LookupEffect(name string) (EffectBinding, bool) {
	binding, ok := effectRegistry[name]
	return binding, ok
}

// ValidateEffect checks that an effect name exists and is declared against
// the expected target type. Used by the content loader so that mismatches
// are fatal at startup rather than surfacing mid-combat.
func ValidateEffect(name string, target TargetType) error {
	binding, ok := effectRegistry[name]
	if !ok {
		return fmt.Errorf("unknown effect %q", name)
	}
	if binding.Target != target {
		return fmt.Errorf("effect %q targets %s, item declares %s", name, binding.Target, target)
	}
	return nil
}
