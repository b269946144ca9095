package game

import (
	"testing"

	"go.uber.org/zap"
)

// scriptDice returns queued rolls so combat outcomes are deterministic.
// Shuffle is a no-op, keeping pile order equal to content order.
type scriptDice struct {
	rolls []int
}

func (d *scriptDice) RollDie() int {
	if len(d.rolls) == 0 {
		return 1
	}
	r := d.rolls[0]
	d.rolls = d.rolls[1:]
	return r
}

func (d *scriptDice) Shuffle(n int, swap func(i, j int)) {}

type stubContent struct {
	deck func() []*Monster
	shop func() []*Item
}

func (c stubContent) BuildDeck(dice Dice) []*Monster { return c.deck() }
func (c stubContent) BuildShop(dice Dice) []*Item    { return c.shop() }

func impDeck() []*Monster {
	deck := make([]*Monster, 0, 6)
	for i := 0; i < 6; i++ {
		deck = append(deck, &Monster{
			Name:       "imp",
			Stars:      1,
			Health:     3,
			MaxHealth:  3,
			Spare:      3,
			FleeCoins:  1,
			SpareCoins: 2,
			FightCoins: 2,
		})
	}
	return deck
}

func golemDeck() []*Monster {
	deck := make([]*Monster, 0, 3)
	for i := 0; i < 3; i++ {
		deck = append(deck, &Monster{
			Name:       "golem",
			Stars:      2,
			Health:     5,
			MaxHealth:  5,
			Spare:      5,
			FleeCoins:  0,
			SpareCoins: 3,
			FightCoins: 4,
		})
	}
	return deck
}

func daggerShop() []*Item {
	shop := make([]*Item, 0, 4)
	for i := 0; i < 4; i++ {
		shop = append(shop, &Item{
			Name:   "dagger",
			Text:   "Deal 3 damage.",
			Target: TargetMonster,
			Effect: "DIRECT_DAMAGE",
			Amount: 3,
		})
	}
	return shop
}

func impContent() stubContent {
	return stubContent{deck: impDeck, shop: daggerShop}
}

func newStartedGame(t *testing.T, dice Dice, content ContentSource, names ...string) *GameState {
	t.Helper()
	g := NewGameState("g1", "table", names[0], 4, DefaultRules(), content, dice, zap.NewNop())
	for _, n := range names {
		if !g.AddPlayer(n, nil) {
			t.Fatalf("AddPlayer(%q) rejected", n)
		}
		g.SetReady(n, true)
	}
	if !g.Start(names[0]) {
		t.Fatalf("Start rejected")
	}
	return g
}

func TestLobbyJoinReadyStart(t *testing.T) {
	g := NewGameState("g1", "table", "bob", 2, DefaultRules(), impContent(), &scriptDice{}, zap.NewNop())

	if !g.AddPlayer("bob", nil) {
		t.Fatalf("owner join rejected")
	}
	if g.Start("bob") {
		t.Fatalf("Start succeeded with one player")
	}
	if !g.AddPlayer("god", nil) {
		t.Fatalf("second join rejected")
	}
	if g.AddPlayer("eve", nil) {
		t.Fatalf("join accepted past seat limit")
	}
	if g.Start("god") {
		t.Fatalf("Start accepted from non-owner")
	}
	if g.Start("bob") {
		t.Fatalf("Start succeeded with unready players")
	}

	g.SetReady("bob", true)
	g.SetReady("god", true)
	if !g.Start("bob") {
		t.Fatalf("Start rejected with everyone ready")
	}
	if g.Status() != StatusGame {
		t.Fatalf("status = %v, want %v", g.Status(), StatusGame)
	}
	if g.ActivePlayer() != "bob" {
		t.Fatalf("active = %q, want first joiner", g.ActivePlayer())
	}
	if g.AddPlayer("eve", nil) {
		t.Fatalf("fresh join accepted after start")
	}
	if !g.AddPlayer("god", "new-conn") {
		t.Fatalf("rejoin by name rejected after start")
	}
	if g.players["god"].ConnRef != "new-conn" {
		t.Fatalf("rejoin did not refresh the connection ref")
	}
	if g.players["god"].Health != DefaultRules().StartingHealth {
		t.Fatalf("health = %d, want %d", g.players["god"].Health, DefaultRules().StartingHealth)
	}
}

func TestRemovePlayerLobbyVersusMidGame(t *testing.T) {
	g := NewGameState("g1", "table", "bob", 4, DefaultRules(), impContent(), &scriptDice{}, zap.NewNop())
	g.AddPlayer("bob", nil)
	g.AddPlayer("god", nil)
	g.AddPlayer("eve", nil)

	g.RemovePlayer("eve")
	if g.PlayerCount() != 2 {
		t.Fatalf("player count = %d after lobby leave, want 2", g.PlayerCount())
	}

	g.SetReady("bob", true)
	g.SetReady("god", true)
	g.Start("bob")
	g.RemovePlayer("god")
	if g.PlayerCount() != 2 {
		t.Fatalf("mid-game disconnect removed the seat")
	}
	if g.players["god"].ConnRef != nil {
		t.Fatalf("mid-game disconnect kept the connection ref")
	}
}

func TestTakeCoins(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	events := g.HandleAction("bob", ActionCoins)
	if len(events) != 1 || events[0].Type != EventCoins || events[0].Amount != 2 {
		t.Fatalf("events = %+v, want one COINS event of 2", events)
	}
	if g.players["bob"].Coins != 2 {
		t.Fatalf("bob coins = %d, want 2", g.players["bob"].Coins)
	}
	if g.players["god"].Coins != 0 {
		t.Fatalf("god coins = %d, want 0", g.players["god"].Coins)
	}
	if g.phase != PhaseTurnEnded {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseTurnEnded)
	}

	// The turn is spent; a second take must be dropped.
	if events := g.HandleAction("bob", ActionCoins); len(events) != 0 {
		t.Fatalf("second take emitted events: %+v", events)
	}
	if g.players["bob"].Coins != 2 {
		t.Fatalf("second take changed coins")
	}
}

func TestNonActivePlayerIntentsDropped(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	if events := g.HandleAction("god", ActionCoins); len(events) != 0 {
		t.Fatalf("out-of-turn take emitted events: %+v", events)
	}
	if g.players["god"].Coins != 0 {
		t.Fatalf("out-of-turn take granted coins")
	}
	if g.phase != PhaseChoosingAction {
		t.Fatalf("out-of-turn take moved the phase")
	}
}

func TestTurnRotation(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "a", "b", "c")

	order := []string{"a", "b", "c"}
	for n := 1; n <= 7; n++ {
		active := g.ActivePlayer()
		g.HandleAction(active, ActionCoins)
		g.HandleAction(active, ActionEnd)
		if want := order[n%3]; g.ActivePlayer() != want {
			t.Fatalf("after %d turns active = %q, want %q", n, g.ActivePlayer(), want)
		}
		if g.phase != PhaseChoosingAction {
			t.Fatalf("after end turn phase = %v, want %v", g.phase, PhaseChoosingAction)
		}
	}
}

func TestBuyItemInsufficientCoins(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	before := g.Snapshot()
	events := g.HandleAction("bob", ActionShop)
	after := g.Snapshot()

	if len(events) != 0 {
		t.Fatalf("broke buy emitted events: %+v", events)
	}
	if d := Diff(before, after); d.Any() {
		t.Fatalf("broke buy changed observable state: %+v", d)
	}
}

func TestBuyItemSpendsAndTransitions(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.players["bob"].Coins = 4
	shopBefore := len(g.shop)

	events := g.HandleAction("bob", ActionShop)
	if len(events) != 1 || events[0].Type != EventShop {
		t.Fatalf("events = %+v, want one SHOP event", events)
	}
	if g.players["bob"].Coins != 2 {
		t.Fatalf("coins = %d, want 2", g.players["bob"].Coins)
	}
	if len(g.players["bob"].Items) != 1 {
		t.Fatalf("hand size = %d, want 1", len(g.players["bob"].Items))
	}
	if len(g.shop) != shopBefore-1 {
		t.Fatalf("shop size = %d, want %d", len(g.shop), shopBefore-1)
	}
	// Still affordable: the shopping window stays open.
	if g.phase != PhaseShopping {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseShopping)
	}

	g.HandleAction("bob", ActionShop)
	if g.phase != PhaseTurnEnded {
		t.Fatalf("phase after last affordable buy = %v, want %v", g.phase, PhaseTurnEnded)
	}
	if g.players["bob"].Coins != 0 {
		t.Fatalf("coins = %d, want 0", g.players["bob"].Coins)
	}
}

func TestCancelShopping(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.players["bob"].Coins = 4
	g.HandleAction("bob", ActionShop)
	if g.phase != PhaseShopping {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseShopping)
	}

	g.HandleAction("bob", ActionCancel)
	if g.phase != PhaseTurnEnded {
		t.Fatalf("phase after cancel = %v, want %v", g.phase, PhaseTurnEnded)
	}

	// Cancel is only meaningful inside the shopping window.
	g.HandleAction("bob", ActionEnd)
	g.HandleAction("god", ActionCancel)
	if g.phase != PhaseChoosingAction {
		t.Fatalf("cancel outside shopping moved the phase to %v", g.phase)
	}
}

func TestHandLimit(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	bob := g.players["bob"]
	bob.Coins = 100
	for i := 0; i < DefaultRules().HandLimit; i++ {
		bob.Items = append(bob.Items, &Item{Name: "dagger"})
	}

	if events := g.HandleAction("bob", ActionShop); len(events) != 0 {
		t.Fatalf("buy over hand limit emitted events: %+v", events)
	}
	if len(bob.Items) != DefaultRules().HandLimit {
		t.Fatalf("hand grew past the limit")
	}
	if bob.Coins != 100 {
		t.Fatalf("rejected buy spent coins")
	}
}

func TestEnterCombatDrawsFaceDown(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")

	events := g.HandleAction("bob", ActionCombat)
	if len(events) != 1 || events[0].Type != EventCombat || events[0].Amount != 3 {
		t.Fatalf("events = %+v, want one COMBAT event of 3", events)
	}
	if g.phase != PhaseCombatSelect {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatSelect)
	}
	if g.combat == nil || len(g.combat.monsters) != 3 {
		t.Fatalf("combat did not draw 3 monsters")
	}
	for i, m := range g.combat.monsters {
		if m.Visible {
			t.Fatalf("monster %d drawn face-up", i)
		}
		if m.ID == 0 {
			t.Fatalf("monster %d has no id assigned", i)
		}
	}

	snap := g.Snapshot()
	if snap.Board.SelectedMonster != -1 {
		t.Fatalf("selected monster = %d before any flip", snap.Board.SelectedMonster)
	}
	for _, mv := range snap.Board.Monsters {
		if mv.Name != "" || mv.Health != 0 || mv.Spare != 0 {
			t.Fatalf("face-down view leaks stats: %+v", mv)
		}
		if mv.Stars != 1 {
			t.Fatalf("face-down view hides the star tier")
		}
	}
}

func TestSelectMonster(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)

	if events := g.HandleCombat("bob", CombatSelect, 7); len(events) != 0 {
		t.Fatalf("out-of-range select emitted events: %+v", events)
	}
	events := g.HandleCombat("bob", CombatSelect, 1)
	if len(events) != 1 || events[0].Type != EventFlip {
		t.Fatalf("events = %+v, want one FLIP event", events)
	}
	if g.phase != PhaseCombatAction {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatAction)
	}
	if !g.combat.monsters[1].Visible || g.combat.selected != 1 {
		t.Fatalf("selection did not reveal monster 1")
	}

	snap := g.Snapshot()
	if snap.Board.Monsters[1].Name != "imp" || !snap.Board.Monsters[1].Visible {
		t.Fatalf("revealed monster view = %+v", snap.Board.Monsters[1])
	}
}

func TestSpareSuccess(t *testing.T) {
	// imp spare threshold is 3; a 4 succeeds.
	g := newStartedGame(t, &scriptDice{rolls: []int{4}}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)

	events := g.HandleCombat("bob", CombatSpare, 0)
	if len(events) != 1 || events[0].Type != EventSpare || events[0].Amount != 1 {
		t.Fatalf("events = %+v, want one SPARE event carrying the star tier", events)
	}
	bob := g.players["bob"]
	if len(bob.CapturedStars) != 1 || bob.CapturedStars[0] != 1 {
		t.Fatalf("captured stars = %v, want [1]", bob.CapturedStars)
	}
	if bob.Coins != 2 {
		t.Fatalf("coins = %d, want spare reward 2", bob.Coins)
	}
	if bob.Health != DefaultRules().StartingHealth {
		t.Fatalf("successful spare cost health")
	}
	if len(g.combat.monsters) != 2 {
		t.Fatalf("spared monster stayed on the board")
	}
	if g.phase != PhaseCombatSelect {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatSelect)
	}
}

func TestSpareFailure(t *testing.T) {
	// A 2 against threshold 3 fails.
	g := newStartedGame(t, &scriptDice{rolls: []int{2}}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)

	events := g.HandleCombat("bob", CombatSpare, 0)
	if len(events) != 1 || events[0].Type != EventSpare || events[0].Amount != 0 {
		t.Fatalf("events = %+v, want one SPARE event of 0", events)
	}
	bob := g.players["bob"]
	if bob.Health != DefaultRules().StartingHealth-1 {
		t.Fatalf("health = %d, failed spare must cost 1", bob.Health)
	}
	if len(bob.CapturedStars) != 0 || bob.Coins != 0 {
		t.Fatalf("failed spare granted a reward")
	}
	if len(g.combat.monsters) != 2 {
		t.Fatalf("survived monster not discarded in normal combat")
	}
	if g.phase != PhaseCombatSelect {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatSelect)
	}
}

func TestFightKillsMonster(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	bob := g.players["bob"]
	bob.Items = append(bob.Items,
		&Item{ID: 50, Name: "dagger", Target: TargetMonster, Effect: "DIRECT_DAMAGE", Amount: 3},
		&Item{ID: 51, Name: "flute", Target: TargetMonster, Effect: "WEAKEN_RESOLVE", Amount: 1},
	)
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)
	g.HandleCombat("bob", CombatFight, 0)
	if g.phase != PhaseCombatFight {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatFight)
	}

	snap := g.Snapshot()
	if snap.Hands["bob"].Selected == nil {
		t.Fatalf("item selection view missing for the fighting player")
	}
	if snap.Hands["god"].Selected != nil {
		t.Fatalf("item selection view leaked to a bystander")
	}

	events := g.HandleItems("bob", []int{0})
	if len(events) != 1 || events[0].Type != EventFight || events[0].Amount != 1 {
		t.Fatalf("events = %+v, want one FIGHT event carrying the star tier", events)
	}
	if len(bob.Items) != 1 || bob.Items[0].ID != 51 {
		t.Fatalf("hand after fight = %+v, want only the flute", bob.Items)
	}
	if len(bob.CapturedStars) != 1 || bob.Coins != 2 {
		t.Fatalf("kill reward not granted: stars=%v coins=%d", bob.CapturedStars, bob.Coins)
	}
	if bob.Health != DefaultRules().StartingHealth {
		t.Fatalf("winning fight cost health")
	}
	if len(g.combat.monsters) != 2 || g.phase != PhaseCombatSelect {
		t.Fatalf("board after kill: %d monsters, phase %v", len(g.combat.monsters), g.phase)
	}
}

func TestFightWithoutKillCostsHealth(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)
	g.HandleCombat("bob", CombatFight, 0)

	events := g.HandleItems("bob", nil)
	if len(events) != 1 || events[0].Type != EventFight || events[0].Amount != 0 {
		t.Fatalf("events = %+v, want one FIGHT event of 0", events)
	}
	bob := g.players["bob"]
	if bob.Health != DefaultRules().StartingHealth-1 {
		t.Fatalf("health = %d, bare-handed fight must cost 1", bob.Health)
	}
	if len(g.combat.monsters) != 2 {
		t.Fatalf("survived monster not discarded")
	}
}

func TestFightRejectsBadItemSet(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	bob := g.players["bob"]
	bob.Items = append(bob.Items, &Item{ID: 50, Name: "dagger", Target: TargetMonster, Effect: "DIRECT_DAMAGE", Amount: 3})
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)
	g.HandleCombat("bob", CombatFight, 0)

	for _, indices := range [][]int{{1}, {-1}, {0, 0}} {
		if events := g.HandleItems("bob", indices); len(events) != 0 {
			t.Fatalf("bad index set %v emitted events: %+v", indices, events)
		}
	}
	if len(bob.Items) != 1 || g.phase != PhaseCombatFight {
		t.Fatalf("rejected item set mutated state")
	}
	monster := g.combat.selectedMonster()
	if monster.Health != monster.MaxHealth {
		t.Fatalf("rejected item set damaged the monster")
	}
}

func TestFleeAccumulatesLeftover(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)

	events := g.HandleCombat("bob", CombatFlee, 0)
	if len(events) != 1 || events[0].Type != EventFlee || events[0].Amount != 1 {
		t.Fatalf("events = %+v, want one FLEE event carrying the bribe", events)
	}
	bob := g.players["bob"]
	if bob.Coins != 1 {
		t.Fatalf("coins = %d, want flee bribe 1", bob.Coins)
	}
	if len(g.combat.monsters) != 2 || len(g.combat.leftover) != 1 {
		t.Fatalf("board after flee: %d monsters, %d leftover", len(g.combat.monsters), len(g.combat.leftover))
	}
	if g.phase != PhaseCombatSelect {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatSelect)
	}
}

func TestFleeRejectedWithoutBribe(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, stubContent{deck: golemDeck, shop: daggerShop}, "bob", "god")
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)

	if events := g.HandleCombat("bob", CombatFlee, 0); len(events) != 0 {
		t.Fatalf("flee from unfleeable monster emitted events: %+v", events)
	}
	if g.phase != PhaseCombatAction || g.combat.selected != 0 {
		t.Fatalf("rejected flee disturbed the encounter")
	}
	if !g.combat.monsters[0].Visible {
		t.Fatalf("rejected flee hid the monster again")
	}
	if g.players["bob"].Coins != 0 {
		t.Fatalf("rejected flee granted coins")
	}
}

func TestFledShoppingWindowAndHandOff(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	bob := g.players["bob"]
	g.HandleAction("bob", ActionCombat)
	for i := 0; i < 3; i++ {
		g.HandleCombat("bob", CombatSelect, 0)
		g.HandleCombat("bob", CombatFlee, 0)
	}
	if g.phase != PhaseFled {
		t.Fatalf("phase after fleeing the whole draw = %v, want %v", g.phase, PhaseFled)
	}
	if bob.Coins != 3 {
		t.Fatalf("coins = %d, want 3 flee bribes", bob.Coins)
	}

	// The bribes stay spendable before the hand-off.
	g.HandleAction("bob", ActionShop)
	if len(bob.Items) != 1 || bob.Coins != 1 {
		t.Fatalf("fled shopping window broken: items=%d coins=%d", len(bob.Items), bob.Coins)
	}

	events := g.HandleAction("bob", ActionEnd)
	if g.combat == nil || g.combat.kind != combatLeftover {
		t.Fatalf("end turn after fleeing did not start leftover combat")
	}
	if g.phase != PhaseCombatSelect {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatSelect)
	}
	if got := g.requiredActor(); got != "god" {
		t.Fatalf("required actor = %q, want the next player", got)
	}
	if len(events) != 1 || events[0].Type != EventTurn || events[0].Player != "god" {
		t.Fatalf("events = %+v, want a TURN event for god", events)
	}
	if len(g.combat.monsters) != 3 {
		t.Fatalf("leftover queue size = %d, want 3", len(g.combat.monsters))
	}
	for i, m := range g.combat.monsters {
		if m.Visible {
			t.Fatalf("leftover monster %d carried over face-up", i)
		}
	}
}

func TestLeftoverMustTargetQueueHead(t *testing.T) {
	g := newStartedGame(t, &scriptDice{rolls: []int{6}}, impContent(), "bob", "god")
	g.HandleAction("bob", ActionCombat)
	for i := 0; i < 3; i++ {
		g.HandleCombat("bob", CombatSelect, 0)
		g.HandleCombat("bob", CombatFlee, 0)
	}
	g.HandleAction("bob", ActionEnd)

	if events := g.HandleCombat("bob", CombatSelect, 0); len(events) != 0 {
		t.Fatalf("fleeing owner acted in their own leftover combat")
	}
	if events := g.HandleCombat("god", CombatSelect, 1); len(events) != 0 {
		t.Fatalf("leftover select accepted a non-head index")
	}

	g.HandleCombat("god", CombatSelect, 0)
	if g.phase != PhaseCombatAction {
		t.Fatalf("phase = %v, want %v", g.phase, PhaseCombatAction)
	}
	g.HandleCombat("god", CombatSpare, 0)
	god := g.players["god"]
	if len(god.CapturedStars) != 1 {
		t.Fatalf("leftover spare success granted no star")
	}
	// Two players: the single attempt exhausts the rotation.
	if g.combat != nil {
		t.Fatalf("leftover combat survived an exhausted rotation")
	}
	if g.ActivePlayer() != "god" || g.phase != PhaseChoosingAction {
		t.Fatalf("turn did not advance after leftover combat: active=%q phase=%v", g.ActivePlayer(), g.phase)
	}
}

func TestLeftoverPassRotation(t *testing.T) {
	g := newStartedGame(t, &scriptDice{rolls: []int{1}}, impContent(), "a", "b", "c")
	g.HandleAction("a", ActionCombat)
	for i := 0; i < 3; i++ {
		g.HandleCombat("a", CombatSelect, 0)
		g.HandleCombat("a", CombatFlee, 0)
	}
	g.HandleAction("a", ActionEnd)

	if got := g.requiredActor(); got != "b" {
		t.Fatalf("required actor = %q, want b", got)
	}

	// b passes without flipping.
	g.HandleAction("b", ActionEnd)
	if got := g.requiredActor(); got != "c" {
		t.Fatalf("required actor after pass = %q, want c", got)
	}

	// c flips and fails the spare roll. The monster survives, stays at the
	// queue head and turns face-down again for the next combat.
	g.HandleCombat("c", CombatSelect, 0)
	g.HandleCombat("c", CombatSpare, 0)
	if g.players["c"].Health != DefaultRules().StartingHealth-1 {
		t.Fatalf("failed leftover spare did not cost health")
	}
	if g.combat != nil {
		t.Fatalf("rotation exhausted but combat still live")
	}
	if g.ActivePlayer() != "b" || g.phase != PhaseChoosingAction {
		t.Fatalf("turn after leftover: active=%q phase=%v, want b choosing", g.ActivePlayer(), g.phase)
	}
}

func TestLeftoverPassAfterFlipHidesMonster(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "a", "b", "c")
	g.HandleAction("a", ActionCombat)
	for i := 0; i < 3; i++ {
		g.HandleCombat("a", CombatSelect, 0)
		g.HandleCombat("a", CombatFlee, 0)
	}
	g.HandleAction("a", ActionEnd)

	g.HandleCombat("b", CombatSelect, 0)
	g.HandleAction("b", ActionEnd)
	if got := g.requiredActor(); got != "c" {
		t.Fatalf("required actor = %q, want c", got)
	}
	if g.combat.monsters[0].Visible {
		t.Fatalf("pass after flipping left the monster face-up")
	}
	if events := g.HandleCombat("c", CombatSelect, 0); len(events) != 1 {
		t.Fatalf("next player could not flip the passed-on monster")
	}
}

func TestPvPIntentRejected(t *testing.T) {
	g := newStartedGame(t, &scriptDice{}, impContent(), "bob", "god")
	before := g.Snapshot()
	if events := g.HandleSelectPlayer("bob", "god"); len(events) != 0 {
		t.Fatalf("pvp intent emitted events: %+v", events)
	}
	if d := Diff(before, g.Snapshot()); d.Any() {
		t.Fatalf("pvp intent changed observable state: %+v", d)
	}
}

func TestDeckReplenishesAcrossCombats(t *testing.T) {
	calls := 0
	content := stubContent{
		deck: func() []*Monster {
			calls++
			return impDeck()[:3]
		},
		shop: daggerShop,
	}
	g := newStartedGame(t, &scriptDice{rolls: []int{6, 6, 6, 6, 6, 6}}, content, "bob", "god")

	for turn := 0; turn < 2; turn++ {
		active := g.ActivePlayer()
		g.HandleAction(active, ActionCombat)
		for i := 0; i < 3; i++ {
			g.HandleCombat(active, CombatSelect, 0)
			g.HandleCombat(active, CombatSpare, 0)
		}
		g.HandleAction(active, ActionEnd)
	}
	if calls < 2 {
		t.Fatalf("deck built %d times, want a rebuild for the second combat", calls)
	}
	// Monster ids keep climbing across rebuilds.
	if g.nextMonsterID != calls*3 {
		t.Fatalf("nextMonsterID = %d after %d builds of 3", g.nextMonsterID, calls)
	}
}

func TestZeroHealthPlayerKeepsActing(t *testing.T) {
	g := newStartedGame(t, &scriptDice{rolls: []int{1, 1, 1, 1}}, impContent(), "bob", "god")
	g.players["bob"].Health = 1
	g.HandleAction("bob", ActionCombat)
	g.HandleCombat("bob", CombatSelect, 0)
	g.HandleCombat("bob", CombatSpare, 0)

	bob := g.players["bob"]
	if bob.Health != 0 {
		t.Fatalf("health = %d, want 0", bob.Health)
	}
	// No elimination rule: the player still takes intents.
	if events := g.HandleCombat("bob", CombatSelect, 0); len(events) != 1 {
		t.Fatalf("zero-health player locked out of the game")
	}
}

func TestTwoPlayerSession(t *testing.T) {
	// Scripted end to end: bob banks coins, god clears a combat.
	dice := &scriptDice{rolls: []int{6, 6, 6}}
	g := newStartedGame(t, dice, impContent(), "bob", "god")

	g.HandleAction("bob", ActionCoins)
	g.HandleAction("bob", ActionEnd)
	if g.ActivePlayer() != "god" {
		t.Fatalf("active = %q, want god", g.ActivePlayer())
	}

	g.HandleAction("god", ActionCombat)
	for i := 0; i < 3; i++ {
		g.HandleCombat("god", CombatSelect, 0)
		g.HandleCombat("god", CombatSpare, 0)
	}
	if g.phase != PhaseTurnEnded {
		t.Fatalf("phase after clearing the draw = %v, want %v", g.phase, PhaseTurnEnded)
	}
	god := g.players["god"]
	if got := len(god.CapturedStars); got != 3 {
		t.Fatalf("captured stars = %d, want 3", got)
	}
	if god.Coins != 6 {
		t.Fatalf("coins = %d, want 3 spare rewards of 2", god.Coins)
	}

	g.HandleAction("god", ActionEnd)
	if g.ActivePlayer() != "bob" || g.phase != PhaseChoosingAction {
		t.Fatalf("rotation broken: active=%q phase=%v", g.ActivePlayer(), g.phase)
	}
}
