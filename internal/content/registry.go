// Package content loads the static item and monster catalogue consumed by
// game sessions. The registry is read-only after Load; malformed entries
// are load errors and abort startup.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fsf-games/fsf-server/internal/game"
)

// ItemDef is one item entry of the catalogue.
type ItemDef struct {
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Target string `yaml:"target"`
	Effect string `yaml:"effect"`
	Amount int    `yaml:"amount"`
	Copies int    `yaml:"copies"`
}

// MonsterDef is one monster entry of the catalogue.
type MonsterDef struct {
	Name       string `yaml:"name"`
	Stars      int    `yaml:"stars"`
	Health     int    `yaml:"health"`
	Spare      int    `yaml:"spare"`
	FleeCoins  int    `yaml:"flee_coins"`
	SpareCoins int    `yaml:"spare_coins"`
	FightCoins int    `yaml:"fight_coins"`
	Copies     int    `yaml:"copies"`
}

type catalogueFile struct {
	Items    []ItemDef    `yaml:"items"`
	Monsters []MonsterDef `yaml:"monsters"`
}

// Registry is the immutable catalogue.
type Registry struct {
	items    []ItemDef
	monsters []MonsterDef
}

// Load reads and validates the catalogue from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content registry: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from raw YAML.
func Parse(data []byte) (*Registry, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse content registry: %w", err)
	}
	if len(file.Monsters) == 0 {
		return nil, fmt.Errorf("content registry defines no monsters")
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("content registry defines no items")
	}

	seen := make(map[string]bool)
	for i := range file.Items {
		item := &file.Items[i]
		if item.Copies == 0 {
			item.Copies = 1
		}
		if err := validateItem(*item); err != nil {
			return nil, fmt.Errorf("item %q: %w", item.Name, err)
		}
		if seen[item.Name] {
			return nil, fmt.Errorf("duplicate definition %q", item.Name)
		}
		seen[item.Name] = true
	}
	for i := range file.Monsters {
		monster := &file.Monsters[i]
		if monster.Copies == 0 {
			monster.Copies = 1
		}
		if err := validateMonster(*monster); err != nil {
			return nil, fmt.Errorf("monster %q: %w", monster.Name, err)
		}
		if seen[monster.Name] {
			return nil, fmt.Errorf("duplicate definition %q", monster.Name)
		}
		seen[monster.Name] = true
	}

	return &Registry{items: file.Items, monsters: file.Monsters}, nil
}

func validateItem(def ItemDef) error {
	if def.Name == "" {
		return fmt.Errorf("missing name")
	}
	target := game.TargetType(def.Target)
	switch target {
	case game.TargetMonster, game.TargetPlayer, game.TargetItem, game.TargetNone:
	default:
		return fmt.Errorf("invalid target type %q", def.Target)
	}
	if def.Effect != "" {
		if err := game.ValidateEffect(def.Effect, target); err != nil {
			return err
		}
	}
	if def.Copies < 1 {
		return fmt.Errorf("copies must be positive")
	}
	return nil
}

func validateMonster(def MonsterDef) error {
	if def.Name == "" {
		return fmt.Errorf("missing name")
	}
	if def.Stars < 1 || def.Stars > 3 {
		return fmt.Errorf("stars must be between 1 and 3, got %d", def.Stars)
	}
	if def.Health < 1 {
		return fmt.Errorf("health must be positive, got %d", def.Health)
	}
	if def.Spare < 1 || def.Spare > 6 {
		return fmt.Errorf("spare threshold must be between 1 and 6, got %d", def.Spare)
	}
	if def.FleeCoins < 0 || def.SpareCoins < 0 || def.FightCoins < 0 {
		return fmt.Errorf("coin rewards must not be negative")
	}
	if def.Copies < 1 {
		return fmt.Errorf("copies must be positive")
	}
	return nil
}

// ItemCount returns the number of distinct item definitions.
func (r *Registry) ItemCount() int { return len(r.items) }

// MonsterCount returns the number of distinct monster definitions.
func (r *Registry) MonsterCount() int { return len(r.monsters) }

// Item looks up an item definition by name.
func (r *Registry) Item(name string) (ItemDef, bool) {
	for _, def := range r.items {
		if def.Name == name {
			return def, true
		}
	}
	return ItemDef{}, false
}

// Monster looks up a monster definition by name.
func (r *Registry) Monster(name string) (MonsterDef, bool) {
	for _, def := range r.monsters {
		if def.Name == name {
			return def, true
		}
	}
	return MonsterDef{}, false
}

// Restrict returns a registry limited to the allow-listed names. Names not
// present in the catalogue are ignored; an allow-list that matches nothing
// on either side is an error, since the session could never build a pile.
func (r *Registry) Restrict(allowed []string) (*Registry, error) {
	if len(allowed) == 0 {
		return r, nil
	}
	set := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		set[name] = true
	}
	out := &Registry{}
	for _, def := range r.items {
		if set[def.Name] {
			out.items = append(out.items, def)
		}
	}
	for _, def := range r.monsters {
		if set[def.Name] {
			out.monsters = append(out.monsters, def)
		}
	}
	if len(out.items) == 0 || len(out.monsters) == 0 {
		return nil, fmt.Errorf("allow-list leaves no usable items or monsters")
	}
	return out, nil
}

// BuildDeck expands the monster catalogue into a fresh shuffled deck.
// Ids are left unassigned; the owning session allocates them.
func (r *Registry) BuildDeck(dice game.Dice) []*game.Monster {
	deck := make([]*game.Monster, 0)
	for _, def := range r.monsters {
		for i := 0; i < def.Copies; i++ {
			deck = append(deck, &game.Monster{
				Name:       def.Name,
				Stars:      def.Stars,
				Health:     def.Health,
				MaxHealth:  def.Health,
				Spare:      def.Spare,
				FleeCoins:  def.FleeCoins,
				SpareCoins: def.SpareCoins,
				FightCoins: def.FightCoins,
			})
		}
	}
	dice.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// BuildShop expands the item catalogue into a fresh shuffled shop pile.
func (r *Registry) BuildShop(dice game.Dice) []*game.Item {
	shop := make([]*game.Item, 0)
	for _, def := range r.items {
		for i := 0; i < def.Copies; i++ {
			shop = append(shop, &game.Item{
				Name:   def.Name,
				Text:   def.Text,
				Target: game.TargetType(def.Target),
				Effect: def.Effect,
				Amount: def.Amount,
			})
		}
	}
	dice.Shuffle(len(shop), func(i, j int) { shop[i], shop[j] = shop[j], shop[i] })
	return shop
}
