package game

import (
	"math/rand"
	"time"
)

// Dice abstracts the engine's randomness so tests can inject a scripted
// source. RollDie returns a uniform value in [1,6]; Shuffle permutes n
// elements via the provided swap function.
type Dice interface {
	RollDie() int
	Shuffle(n int, swap func(i, j int))
}

type systemDice struct {
	rng *rand.Rand
}

// NewDice returns the default time-seeded randomness source.
func NewDice() Dice {
	return &systemDice{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (d *systemDice) RollDie() int {
	return d.rng.Intn(6) + 1
}

func (d *systemDice) Shuffle(n int, swap func(i, j int)) {
	d.rng.Shuffle(n, swap)
}
