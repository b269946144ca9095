package game

// combatKind discriminates the combat sub-state variant. A session holds at
// most one combatState at a time; the variant decides which fields are live.
type combatKind int

const (
	combatNormal combatKind = iota
	combatLeftover
)

// combatState is the combat sub-state machine payload. In the normal
// variant monsters holds the face-down draw and leftover collects fled
// monsters. In the leftover variant monsters is the fled queue (head is the
// current target) and queue is the rotation of players still owed an
// attempt.
type combatState struct {
	kind     combatKind
	owner    string
	monsters []*Monster
	selected int
	leftover []*Monster
	fled     bool
	queue    []string
}

func newCombat(owner string, draw []*Monster) *combatState {
	return &combatState{
		kind:     combatNormal,
		owner:    owner,
		monsters: draw,
		selected: -1,
		leftover: make([]*Monster, 0),
	}
}

// newLeftoverCombat builds the hand-off sub-state: every player except the
// fleeing owner, in turn order starting after the owner, gets exactly one
// attempt against the head of the fled-monster queue.
func newLeftoverCombat(owner string, monsters []*Monster, turnOrder []string) *combatState {
	ownerIdx := 0
	for i, name := range turnOrder {
		if name == owner {
			ownerIdx = i
			break
		}
	}
	queue := make([]string, 0, len(turnOrder)-1)
	for i := 1; i < len(turnOrder); i++ {
		queue = append(queue, turnOrder[(ownerIdx+i)%len(turnOrder)])
	}
	for _, m := range monsters {
		m.Visible = false
	}
	return &combatState{
		kind:     combatLeftover,
		owner:    owner,
		monsters: monsters,
		selected: -1,
		queue:    queue,
	}
}

// requiredActor returns the player whose intent the sub-state accepts.
func (c *combatState) requiredActor(activePlayer string) string {
	if c.kind == combatLeftover {
		if len(c.queue) == 0 {
			return ""
		}
		return c.queue[0]
	}
	return activePlayer
}

// selectedMonster returns the currently selected monster, or nil when no
// selection is in effect.
func (c *combatState) selectedMonster() *Monster {
	if c.selected < 0 || c.selected >= len(c.monsters) {
		return nil
	}
	return c.monsters[c.selected]
}

// removeSelected discards the selected monster from the board and clears
// the selection.
func (c *combatState) removeSelected() {
	if c.selected < 0 || c.selected >= len(c.monsters) {
		return
	}
	c.monsters = append(c.monsters[:c.selected], c.monsters[c.selected+1:]...)
	c.selected = -1
}

// fleeSelected moves the selected monster to the leftover queue.
func (c *combatState) fleeSelected() {
	m := c.selectedMonster()
	if m == nil {
		return
	}
	c.leftover = append(c.leftover, m)
	c.fled = true
	c.removeSelected()
}

// advanceQueue consumes the current leftover player's attempt.
func (c *combatState) advanceQueue() {
	if len(c.queue) > 0 {
		c.queue = c.queue[1:]
	}
	c.selected = -1
}

// exhausted reports whether the leftover rotation has nothing left to do.
func (c *combatState) exhausted() bool {
	return len(c.queue) == 0 || len(c.monsters) == 0
}
