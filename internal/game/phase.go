package game

import "fmt"

// Status represents the lifecycle state of a session.
type Status int

const (
	StatusLobby Status = iota
	StatusGame
	StatusEnded
)

var statusNames = map[Status]string{
	StatusLobby: "LOBBY",
	StatusGame:  "GAME",
	StatusEnded: "ENDED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_%d", int(s))
}

// Phase represents the sub-state within the active player's turn.
type Phase int

const (
	PhaseChoosingAction Phase = iota
	PhaseShopping
	PhaseCombatSelect
	PhaseCombatAction
	PhaseCombatFight
	PhaseFled
	PhasePvP
	PhaseTurnEnded
)

var phaseNames = map[Phase]string{
	PhaseChoosingAction: "CHOOSING_ACTION",
	PhaseShopping:       "SHOPPING",
	PhaseCombatSelect:   "COMBAT_SELECT",
	PhaseCombatAction:   "COMBAT_ACTION",
	PhaseCombatFight:    "COMBAT_FIGHT",
	PhaseFled:           "FLED",
	PhasePvP:            "PVP",
	PhaseTurnEnded:      "TURN_ENDED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// inCombat reports whether the phase belongs to a combat sub-state.
func (p Phase) inCombat() bool {
	switch p {
	case PhaseCombatSelect, PhaseCombatAction, PhaseCombatFight:
		return true
	}
	return false
}

// ActionChoice is the turn-level intent a player can issue while choosing
// what to do with their turn.
type ActionChoice string

const (
	ActionCoins  ActionChoice = "COINS"
	ActionShop   ActionChoice = "SHOP"
	ActionCombat ActionChoice = "COMBAT"
	ActionEnd    ActionChoice = "END"
	ActionCancel ActionChoice = "CANCEL"
)

// CombatChoice is the intent a player can issue against a revealed draw.
type CombatChoice string

const (
	CombatSelect CombatChoice = "SELECT"
	CombatFight  CombatChoice = "FIGHT"
	CombatSpare  CombatChoice = "SPARE"
	CombatFlee   CombatChoice = "FLEE"
)
