package game

// PlayerView is the public per-player state shared with every client.
type PlayerView struct {
	Name          string `json:"name"`
	Ready         bool   `json:"ready"`
	Coins         int    `json:"coins"`
	CapturedStars []int  `json:"captured_stars"`
	StarTotal     int    `json:"star_total"`
	NumItems      int    `json:"num_items"`
	Health        int    `json:"health"`
}

// MonsterView is a board entry. Face-down monsters reveal only their star
// tier and stable id.
type MonsterView struct {
	ID         int    `json:"id"`
	Name       string `json:"name,omitempty"`
	Stars      int    `json:"stars"`
	Health     int    `json:"health,omitempty"`
	MaxHealth  int    `json:"max_health,omitempty"`
	Spare      int    `json:"spare,omitempty"`
	FleeCoins  int    `json:"flee_coins,omitempty"`
	SpareCoins int    `json:"spare_coins,omitempty"`
	FightCoins int    `json:"fight_coins,omitempty"`
	Visible    bool   `json:"visible"`
}

// ItemView describes one item in a hand or shop listing.
type ItemView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	Target string `json:"target_type"`
}

// HandView is the private hand channel for one player. Selected is non-nil
// only while the owner is picking items for a fight.
type HandView struct {
	Items    []ItemView `json:"items"`
	Selected []bool     `json:"selected_items,omitempty"`
}

// BoardView is the shared board channel.
type BoardView struct {
	DeckSize        int           `json:"deck_size"`
	ShopSize        int           `json:"shop_size"`
	Monsters        []MonsterView `json:"monsters"`
	SelectedMonster int           `json:"selected_monster"`
}

// Snapshot is a plain value copy of everything the transport broadcasts.
// It is taken under the session lock and compared lock-free afterwards.
type Snapshot struct {
	Status   Status
	Phase    Phase
	Active   string
	Required string
	Players  []PlayerView
	Board    BoardView
	Hands    map[string]HandView
}

// Snapshot captures the current broadcast state as plain values.
func (g *GameState) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		Status:   g.status,
		Phase:    g.phase,
		Active:   g.activePlayerLocked(),
		Required: g.requiredActor(),
		Players:  make([]PlayerView, 0, len(g.joinOrder)),
		Hands:    make(map[string]HandView, len(g.joinOrder)),
	}

	order := g.turnOrder
	if len(order) == 0 {
		order = g.joinOrder
	}
	for _, name := range order {
		p, ok := g.players[name]
		if !ok {
			continue
		}
		snap.Players = append(snap.Players, PlayerView{
			Name:          p.Name,
			Ready:         p.Ready,
			Coins:         p.Coins,
			CapturedStars: append([]int(nil), p.CapturedStars...),
			StarTotal:     p.starTotal(),
			NumItems:      len(p.Items),
			Health:        p.Health,
		})
		snap.Hands[name] = g.handView(p)
	}

	snap.Board = BoardView{
		DeckSize:        len(g.deck),
		ShopSize:        len(g.shop),
		SelectedMonster: -1,
	}
	if g.combat != nil {
		snap.Board.Monsters = make([]MonsterView, 0, len(g.combat.monsters))
		for _, m := range g.combat.monsters {
			snap.Board.Monsters = append(snap.Board.Monsters, monsterView(m))
		}
		snap.Board.SelectedMonster = g.combat.selected
	}
	return snap
}

func (g *GameState) handView(p *Player) HandView {
	view := HandView{Items: make([]ItemView, 0, len(p.Items))}
	for _, item := range p.Items {
		view.Items = append(view.Items, ItemView{
			ID:     item.ID,
			Name:   item.Name,
			Text:   item.Text,
			Target: string(item.Target),
		})
	}
	if g.phase == PhaseCombatFight && p.Name == g.requiredActor() {
		view.Selected = make([]bool, len(p.Items))
	}
	return view
}

func monsterView(m *Monster) MonsterView {
	if !m.Visible {
		return MonsterView{ID: m.ID, Stars: m.Stars}
	}
	return MonsterView{
		ID:         m.ID,
		Name:       m.Name,
		Stars:      m.Stars,
		Health:     m.Health,
		MaxHealth:  m.MaxHealth,
		Spare:      m.Spare,
		FleeCoins:  m.FleeCoins,
		SpareCoins: m.SpareCoins,
		FightCoins: m.FightCoins,
		Visible:    true,
	}
}

// ChannelDiff names the broadcast channels whose content changed between
// two snapshots.
type ChannelDiff struct {
	Players bool
	Turn    bool
	Board   bool
	Hands   []string
}

// Any reports whether anything at all changed.
func (d ChannelDiff) Any() bool {
	return d.Players || d.Turn || d.Board || len(d.Hands) > 0
}

// Diff compares two snapshots per channel. It is a pure function of plain
// values and takes no locks.
func Diff(before, after Snapshot) ChannelDiff {
	d := ChannelDiff{
		Players: !playersEqual(before.Players, after.Players),
		Turn: before.Active != after.Active ||
			before.Required != after.Required ||
			before.Phase != after.Phase ||
			before.Status != after.Status,
		Board: !boardEqual(before.Board, after.Board),
	}
	for name, afterHand := range after.Hands {
		if !handEqual(before.Hands[name], afterHand) {
			d.Hands = append(d.Hands, name)
		}
	}
	return d
}

func playersEqual(a, b []PlayerView) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name ||
			a[i].Ready != b[i].Ready ||
			a[i].Coins != b[i].Coins ||
			a[i].NumItems != b[i].NumItems ||
			a[i].Health != b[i].Health ||
			!intsEqual(a[i].CapturedStars, b[i].CapturedStars) {
			return false
		}
	}
	return true
}

func boardEqual(a, b BoardView) bool {
	if a.DeckSize != b.DeckSize || a.ShopSize != b.ShopSize || a.SelectedMonster != b.SelectedMonster {
		return false
	}
	if len(a.Monsters) != len(b.Monsters) {
		return false
	}
	for i := range a.Monsters {
		if a.Monsters[i] != b.Monsters[i] {
			return false
		}
	}
	return true
}

func handEqual(a, b HandView) bool {
	if len(a.Items) != len(b.Items) || len(a.Selected) != len(b.Selected) {
		return false
	}
	for i := range a.Items {
		if a.Items[i] != b.Items[i] {
			return false
		}
	}
	for i := range a.Selected {
		if a.Selected[i] != b.Selected[i] {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
