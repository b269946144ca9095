package game

// TargetType is the closed set of things an item effect may act on.
type TargetType string

const (
	TargetMonster TargetType = "MONSTER"
	TargetPlayer  TargetType = "PLAYER"
	TargetItem    TargetType = "ITEM"
	TargetNone    TargetType = "NONE"
)

// Player holds the per-player mutable state of one session. All access is
// serialized by the owning GameState's lock.
type Player struct {
	Name          string
	ConnRef       any // opaque handle owned by the transport layer
	Ready         bool
	Coins         int
	Items         []*Item
	CapturedStars []int
	Health        int
}

func newPlayer(name string, connRef any) *Player {
	return &Player{
		Name:          name,
		ConnRef:       connRef,
		Items:         make([]*Item, 0),
		CapturedStars: make([]int, 0),
	}
}

// starTotal returns the combined tier value of all captured stars.
func (p *Player) starTotal() int {
	total := 0
	for _, s := range p.CapturedStars {
		total += s
	}
	return total
}

// Item is an immutable owned card. ID is monotonic within a session and is
// the stable handle the client uses for animation targeting.
type Item struct {
	ID     int
	Name   string
	Text   string
	Target TargetType
	Effect string
	Amount int
}

// Monster is a deck card, face-down until selected during combat.
type Monster struct {
	ID         int
	Name       string
	Stars      int
	Health     int
	MaxHealth  int
	Spare      int // die threshold, 1-6
	FleeCoins  int
	SpareCoins int
	FightCoins int
	Visible    bool
}
