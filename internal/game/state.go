package game

import (
	"sync"

	"go.uber.org/zap"
)

// Rules carries the tunable numbers of a session. Defaults match the
// original table game.
type Rules struct {
	StartingHealth int
	HandLimit      int
	ItemCost       int
	CoinsPerTake   int
	CombatDraw     int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		StartingHealth: 4,
		HandLimit:      5,
		ItemCost:       2,
		CoinsPerTake:   2,
		CombatDraw:     3,
	}
}

// ContentSource supplies fresh deck and shop piles built from the static
// content registry. Implementations shuffle with the provided dice and
// leave ids unassigned; the session owns id allocation.
type ContentSource interface {
	BuildDeck(dice Dice) []*Monster
	BuildShop(dice Dice) []*Item
}

// GameState is one running session: the top-level turn-phase state machine
// together with the roster, deck, shop and the current combat sub-state.
// Exactly one mutex guards all of it; every public method takes the lock
// for its full duration and returns the events it raised so the caller can
// publish them after the lock is released.
type GameState struct {
	mu      sync.Mutex
	logger  *zap.Logger
	dice    Dice
	content ContentSource
	rules   Rules

	id         string
	name       string
	owner      string
	maxPlayers int

	status    Status
	players   map[string]*Player
	joinOrder []string
	turnOrder []string
	activeIdx int
	phase     Phase
	deck      []*Monster
	shop      []*Item
	combat    *combatState

	nextItemID    int
	nextMonsterID int
	pending       []Event
}

// NewGameState creates a session in the LOBBY state.
func NewGameState(id, name, owner string, maxPlayers int, rules Rules, content ContentSource, dice Dice, logger *zap.Logger) *GameState {
	if dice == nil {
		dice = NewDice()
	}
	return &GameState{
		logger:     logger.With(zap.String("game_id", id)),
		dice:       dice,
		content:    content,
		rules:      rules,
		id:         id,
		name:       name,
		owner:      owner,
		maxPlayers: maxPlayers,
		status:     StatusLobby,
		players:    make(map[string]*Player),
		joinOrder:  make([]string, 0, maxPlayers),
		phase:      PhaseChoosingAction,
	}
}

// ID returns the session identifier.
func (g *GameState) ID() string { return g.id }

// Name returns the lobby display name.
func (g *GameState) Name() string { return g.name }

// Owner returns the player name that created the session.
func (g *GameState) Owner() string { return g.owner }

// MaxPlayers returns the seat limit.
func (g *GameState) MaxPlayers() int { return g.maxPlayers }

// Status returns the session lifecycle state.
func (g *GameState) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// PlayerCount returns the current roster size.
func (g *GameState) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

// ActivePlayer returns the player whose turn it is, or "" before start.
func (g *GameState) ActivePlayer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activePlayerLocked()
}

func (g *GameState) activePlayerLocked() string {
	if len(g.turnOrder) == 0 {
		return ""
	}
	return g.turnOrder[g.activeIdx]
}

// requiredActor is the player whose intents the current phase accepts:
// the active player, or the head of the leftover rotation during leftover
// combat.
func (g *GameState) requiredActor() string {
	if g.combat != nil && g.combat.kind == combatLeftover {
		return g.combat.requiredActor(g.activePlayerLocked())
	}
	return g.activePlayerLocked()
}

func (g *GameState) emit(ev Event) {
	g.pending = append(g.pending, ev)
}

func (g *GameState) drain() []Event {
	events := g.pending
	g.pending = nil
	return events
}

// AddPlayer seats a player, or refreshes the connection ref of a player
// rejoining by name. Returns false when the join is rejected.
func (g *GameState) AddPlayer(name string, connRef any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.players[name]; ok {
		existing.ConnRef = connRef
		g.logger.Info("player rejoined", zap.String("player", name))
		return true
	}
	if g.status != StatusLobby {
		g.logger.Warn("join rejected, game already started", zap.String("player", name))
		return false
	}
	if len(g.players) >= g.maxPlayers {
		g.logger.Warn("join rejected, session full", zap.String("player", name))
		return false
	}

	p := newPlayer(name, connRef)
	p.Health = g.rules.StartingHealth
	g.players[name] = p
	g.joinOrder = append(g.joinOrder, name)
	g.logger.Info("player joined", zap.String("player", name))
	return true
}

// RemovePlayer handles disconnect cleanup. In the lobby the seat is freed;
// once the game started the player stays in the turn order (no forfeiture)
// and only the connection ref is cleared.
func (g *GameState) RemovePlayer(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[name]
	if !ok {
		return
	}
	if g.status == StatusLobby {
		delete(g.players, name)
		for i, n := range g.joinOrder {
			if n == name {
				g.joinOrder = append(g.joinOrder[:i], g.joinOrder[i+1:]...)
				break
			}
		}
		g.logger.Info("player left lobby", zap.String("player", name))
		return
	}
	p.ConnRef = nil
	g.logger.Info("player disconnected mid-game", zap.String("player", name))
}

// SetReady records the lobby ready flag.
func (g *GameState) SetReady(name string, ready bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusLobby {
		g.logger.Warn("ready ignored outside lobby", zap.String("player", name))
		return
	}
	p, ok := g.players[name]
	if !ok {
		g.logger.Warn("ready from unknown player", zap.String("player", name))
		return
	}
	p.Ready = ready
}

// Start freezes the turn order and begins the game. Only the session owner
// may start, and every seated player must be ready.
func (g *GameState) Start(issuer string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusLobby {
		g.logger.Warn("start ignored, not in lobby", zap.String("issuer", issuer))
		return false
	}
	if issuer != g.owner {
		g.logger.Warn("start rejected, issuer is not owner", zap.String("issuer", issuer))
		return false
	}
	if len(g.players) < 2 {
		g.logger.Warn("start rejected, not enough players", zap.Int("players", len(g.players)))
		return false
	}
	for _, name := range g.joinOrder {
		if !g.players[name].Ready {
			g.logger.Warn("start rejected, player not ready", zap.String("player", name))
			return false
		}
	}

	g.turnOrder = append([]string(nil), g.joinOrder...)
	g.activeIdx = 0
	g.status = StatusGame
	g.phase = PhaseChoosingAction
	g.replenishDeck(g.rules.CombatDraw)
	g.replenishShop()

	g.logger.Info("game started",
		zap.Strings("turn_order", g.turnOrder),
		zap.Int("deck", len(g.deck)),
		zap.Int("shop", len(g.shop)),
	)
	return true
}

// HandleAction applies a turn-level intent. Protocol violations are logged
// and dropped; the returned events must be published by the caller after
// the session lock has been released.
func (g *GameState) HandleAction(player string, choice ActionChoice) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusGame {
		g.logger.Warn("action outside running game", zap.String("player", player))
		return nil
	}

	switch choice {
	case ActionCoins:
		g.takeCoins(player)
	case ActionShop:
		g.buyItem(player)
	case ActionCombat:
		g.enterCombat(player)
	case ActionEnd:
		g.handleEnd(player)
	case ActionCancel:
		g.cancelShopping(player)
	default:
		g.logger.Warn("unknown action choice", zap.String("player", player), zap.String("choice", string(choice)))
	}
	return g.drain()
}

func (g *GameState) takeCoins(player string) {
	if g.phase != PhaseChoosingAction || player != g.requiredActor() {
		g.logger.Warn("take coins rejected",
			zap.String("player", player),
			zap.Stringer("phase", g.phase),
		)
		return
	}
	p := g.players[player]
	p.Coins += g.rules.CoinsPerTake
	g.phase = PhaseTurnEnded
	g.emit(Event{Type: EventCoins, Player: player, Target: -1, Amount: g.rules.CoinsPerTake})
}

func (g *GameState) buyItem(player string) {
	if player != g.activePlayerLocked() {
		g.logger.Warn("buy rejected, not active player", zap.String("player", player))
		return
	}
	switch g.phase {
	case PhaseChoosingAction, PhaseShopping, PhaseFled:
	default:
		g.logger.Warn("buy rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}

	p := g.players[player]
	if p.Coins < g.rules.ItemCost {
		g.logger.Warn("buy rejected, insufficient coins", zap.String("player", player), zap.Int("coins", p.Coins))
		return
	}
	if len(p.Items) >= g.rules.HandLimit {
		g.logger.Warn("buy rejected, hand full", zap.String("player", player))
		return
	}

	if len(g.shop) == 0 {
		g.replenishShop()
	}
	if len(g.shop) == 0 {
		g.logger.Error("shop empty after replenish")
		return
	}

	item := g.shop[0]
	g.shop = g.shop[1:]
	p.Coins -= g.rules.ItemCost
	p.Items = append(p.Items, item)
	g.emit(Event{Type: EventShop, Player: player, Target: item.ID, Amount: g.rules.ItemCost})

	if p.Coins >= g.rules.ItemCost {
		g.phase = PhaseShopping
	} else {
		g.phase = PhaseTurnEnded
	}
}

func (g *GameState) enterCombat(player string) {
	if g.phase != PhaseChoosingAction || player != g.requiredActor() {
		g.logger.Warn("enter combat rejected",
			zap.String("player", player),
			zap.Stringer("phase", g.phase),
		)
		return
	}

	g.replenishDeck(g.rules.CombatDraw)
	if len(g.deck) < g.rules.CombatDraw {
		g.logger.Error("deck cannot supply a combat draw", zap.Int("deck", len(g.deck)))
		return
	}
	draw := g.deck[:g.rules.CombatDraw]
	g.deck = g.deck[g.rules.CombatDraw:]
	for _, m := range draw {
		m.Visible = false
	}

	g.combat = newCombat(player, append([]*Monster(nil), draw...))
	g.phase = PhaseCombatSelect
	g.emit(Event{Type: EventCombat, Player: player, Target: -1, Amount: len(draw)})
}

// cancelShopping lets a player with coins left stop shopping early. Valid
// only in the shopping window; everywhere else the wire enum value is a
// protocol violation.
func (g *GameState) cancelShopping(player string) {
	if player != g.activePlayerLocked() || (g.phase != PhaseShopping && g.phase != PhaseFled) {
		g.logger.Warn("cancel rejected", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	g.phase = PhaseTurnEnded
}

// handleEnd routes the END intent: a pass for the current leftover player,
// or the turn-ending advance for the active player.
func (g *GameState) handleEnd(player string) {
	if g.combat != nil && g.combat.kind == combatLeftover {
		if player != g.requiredActor() {
			g.logger.Warn("leftover pass rejected, not current player", zap.String("player", player))
			return
		}
		// A pass after flipping leaves the monster for the next player.
		if m := g.combat.selectedMonster(); m != nil {
			m.Visible = false
		}
		g.combat.advanceQueue()
		g.finishLeftoverStep()
		return
	}

	if player != g.activePlayerLocked() {
		g.logger.Warn("end turn rejected, not active player", zap.String("player", player))
		return
	}
	if g.phase != PhaseTurnEnded && g.phase != PhaseFled {
		g.logger.Warn("end turn rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	g.endTurn()
}

func (g *GameState) endTurn() {
	if g.combat != nil && len(g.combat.leftover) > 0 {
		leftover := newLeftoverCombat(g.combat.owner, g.combat.leftover, g.turnOrder)
		if leftover.exhausted() {
			g.combat = nil
			g.advanceTurn()
			return
		}
		g.combat = leftover
		g.phase = PhaseCombatSelect
		g.emit(Event{Type: EventTurn, Player: leftover.requiredActor(""), Target: -1})
		g.logger.Info("leftover combat started",
			zap.String("owner", leftover.owner),
			zap.Strings("rotation", leftover.queue),
			zap.Int("monsters", len(leftover.monsters)),
		)
		return
	}
	g.combat = nil
	g.advanceTurn()
}

func (g *GameState) advanceTurn() {
	g.activeIdx = (g.activeIdx + 1) % len(g.turnOrder)
	g.phase = PhaseChoosingAction
	g.emit(Event{Type: EventTurn, Player: g.activePlayerLocked(), Target: -1})
}

// HandleCombat applies a combat intent against the monster at index.
func (g *GameState) HandleCombat(player string, choice CombatChoice, index int) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusGame {
		g.logger.Warn("combat intent outside running game", zap.String("player", player))
		return nil
	}
	if g.combat == nil || !g.phase.inCombat() {
		// Invariant guard: combat fields are only valid inside combat phases.
		g.logger.Error("combat intent with no combat sub-state",
			zap.String("player", player),
			zap.Stringer("phase", g.phase),
		)
		return nil
	}
	if player != g.requiredActor() {
		g.logger.Warn("combat intent from wrong player",
			zap.String("player", player),
			zap.String("required", g.requiredActor()),
		)
		return nil
	}

	switch choice {
	case CombatSelect:
		g.selectMonster(player, index)
	case CombatFight:
		g.beginFight(player)
	case CombatSpare:
		g.spareSelected(player)
	case CombatFlee:
		g.fleeSelected(player)
	default:
		g.logger.Warn("unknown combat choice", zap.String("player", player), zap.String("choice", string(choice)))
	}
	return g.drain()
}

func (g *GameState) selectMonster(player string, index int) {
	if g.phase != PhaseCombatSelect {
		g.logger.Warn("select rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	if index < 0 || index >= len(g.combat.monsters) {
		g.logger.Warn("select rejected, index out of range", zap.String("player", player), zap.Int("index", index))
		return
	}
	if g.combat.kind == combatLeftover && index != 0 {
		g.logger.Warn("leftover select must target queue head", zap.String("player", player), zap.Int("index", index))
		return
	}
	m := g.combat.monsters[index]
	if m.Visible {
		g.logger.Warn("select rejected, monster already revealed", zap.String("player", player), zap.Int("index", index))
		return
	}
	m.Visible = true
	g.combat.selected = index
	g.phase = PhaseCombatAction
	g.emit(Event{Type: EventFlip, Player: player, Target: m.ID})
}

func (g *GameState) beginFight(player string) {
	if g.phase != PhaseCombatAction {
		g.logger.Warn("fight rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	// Item selection arrives in a follow-up SelectItems intent.
	g.phase = PhaseCombatFight
}

func (g *GameState) spareSelected(player string) {
	if g.phase != PhaseCombatAction {
		g.logger.Warn("spare rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	m := g.combat.selectedMonster()
	if m == nil {
		g.logger.Error("spare with no selected monster", zap.String("player", player))
		return
	}

	p := g.players[player]
	roll := g.dice.RollDie()
	if roll >= m.Spare {
		p.CapturedStars = append(p.CapturedStars, m.Stars)
		p.Coins += m.SpareCoins
		g.emit(Event{Type: EventSpare, Player: player, Target: m.ID, Amount: m.Stars})
		g.combat.removeSelected()
	} else {
		p.Health--
		g.checkHealth(p)
		g.emit(Event{Type: EventSpare, Player: player, Target: m.ID, Amount: 0})
		g.discardEncounter()
	}
	g.finishEncounter()
}

func (g *GameState) fleeSelected(player string) {
	if g.phase != PhaseCombatAction {
		g.logger.Warn("flee rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return
	}
	if g.combat.kind == combatLeftover {
		g.logger.Warn("flee rejected during leftover combat", zap.String("player", player))
		return
	}
	m := g.combat.selectedMonster()
	if m == nil {
		g.logger.Error("flee with no selected monster", zap.String("player", player))
		return
	}
	if m.FleeCoins <= 0 {
		// Monsters with no flee value cannot be fled; the reveal stands.
		g.logger.Warn("flee rejected, monster cannot be fled", zap.String("player", player), zap.String("monster", m.Name))
		return
	}

	p := g.players[player]
	p.Coins += m.FleeCoins
	g.emit(Event{Type: EventFlee, Player: player, Target: m.ID, Amount: m.FleeCoins})
	g.combat.fleeSelected()
	g.finishEncounter()
}

// HandleItems resolves a fight: the selected items' effects are applied to
// the revealed monster in the order given, then all selected items leave
// the hand in one step.
func (g *GameState) HandleItems(player string, indices []int) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != StatusGame {
		g.logger.Warn("items intent outside running game", zap.String("player", player))
		return nil
	}
	if g.combat == nil || g.phase != PhaseCombatFight {
		g.logger.Warn("items rejected in phase", zap.String("player", player), zap.Stringer("phase", g.phase))
		return nil
	}
	if player != g.requiredActor() {
		g.logger.Warn("items intent from wrong player", zap.String("player", player))
		return nil
	}
	m := g.combat.selectedMonster()
	if m == nil {
		g.logger.Error("fight with no selected monster", zap.String("player", player))
		return nil
	}

	p := g.players[player]
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.Items) || seen[idx] {
			g.logger.Warn("items rejected, bad index set", zap.String("player", player), zap.Ints("indices", indices))
			return nil
		}
		seen[idx] = true
	}

	for _, idx := range indices {
		g.applyItem(p, p.Items[idx], m)
	}

	// All selected items are consumed in one step.
	kept := p.Items[:0]
	for i, item := range p.Items {
		if !seen[i] {
			kept = append(kept, item)
		}
	}
	p.Items = kept

	if m.Health <= 0 {
		p.CapturedStars = append(p.CapturedStars, m.Stars)
		p.Coins += m.FightCoins
		g.emit(Event{Type: EventFight, Player: player, Target: m.ID, Amount: m.Stars})
		g.combat.removeSelected()
	} else {
		// A fight that does not kill always costs health.
		p.Health--
		g.checkHealth(p)
		g.emit(Event{Type: EventFight, Player: player, Target: m.ID, Amount: 0})
		g.discardEncounter()
	}
	g.finishEncounter()
	return g.drain()
}

func (g *GameState) applyItem(p *Player, item *Item, m *Monster) {
	if item.Effect == "" {
		return
	}
	binding, ok := LookupEffect(item.Effect)
	if !ok {
		g.logger.Error("item references unknown effect", zap.String("item", item.Name), zap.String("effect", item.Effect))
		return
	}
	switch binding.Target {
	case TargetMonster:
		binding.Monster(m, item.Amount)
	case TargetPlayer:
		binding.Player(p, item.Amount)
	default:
		g.logger.Error("effect target not applicable in combat",
			zap.String("item", item.Name),
			zap.String("target", string(binding.Target)),
		)
	}
}

// discardEncounter resolves a survived monster: discarded in normal combat,
// hidden again and left at the queue head during leftover combat.
func (g *GameState) discardEncounter() {
	if g.combat.kind == combatLeftover {
		if m := g.combat.selectedMonster(); m != nil {
			m.Visible = false
		}
		g.combat.selected = -1
		return
	}
	g.combat.removeSelected()
}

// finishEncounter re-evaluates the combat sub-state after one monster's
// resolution and sets the next phase.
func (g *GameState) finishEncounter() {
	if g.combat.kind == combatLeftover {
		g.combat.advanceQueue()
		g.finishLeftoverStep()
		return
	}

	if len(g.combat.monsters) > 0 {
		g.phase = PhaseCombatSelect
		return
	}
	if g.combat.fled {
		// The fleeing player keeps a shopping window before the hand-off.
		g.phase = PhaseFled
		return
	}
	g.combat = nil
	g.phase = PhaseTurnEnded
}

func (g *GameState) finishLeftoverStep() {
	if g.combat.exhausted() {
		g.combat = nil
		g.advanceTurn()
		return
	}
	g.phase = PhaseCombatSelect
	g.emit(Event{Type: EventTurn, Player: g.combat.requiredActor(""), Target: -1})
}

// HandleSelectPlayer is the reserved PvP intent. The sub-system is not
// specified; every request is rejected.
func (g *GameState) HandleSelectPlayer(player, target string) []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Warn("pvp not implemented, intent dropped",
		zap.String("player", player),
		zap.String("target", target),
	)
	return nil
}

func (g *GameState) checkHealth(p *Player) {
	if p.Health <= 0 {
		// No elimination rule exists; the player keeps acting. Logged so
		// operators can see the gap.
		g.logger.Warn("player at or below zero health", zap.String("player", p.Name), zap.Int("health", p.Health))
	}
}

func (g *GameState) replenishDeck(need int) {
	for len(g.deck) < need {
		fresh := g.content.BuildDeck(g.dice)
		if len(fresh) == 0 {
			g.logger.Error("content source produced empty deck")
			return
		}
		for _, m := range fresh {
			g.nextMonsterID++
			m.ID = g.nextMonsterID
		}
		g.deck = append(g.deck, fresh...)
	}
}

func (g *GameState) replenishShop() {
	fresh := g.content.BuildShop(g.dice)
	for _, item := range fresh {
		g.nextItemID++
		item.ID = g.nextItemID
	}
	g.shop = append(g.shop, fresh...)
}
