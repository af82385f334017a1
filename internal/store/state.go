package store

import (
	"fmt"

	"github.com/roach88/sheetview/internal/ir"
)

// State is one immutable revision of the normalized store.
type State struct {
	// Revision is the logical clock value of the last applied mutation.
	Revision int64

	Characters *Table[*ir.Character]
	Charms     *Table[*ir.Charm]
	Spells     *Table[*ir.Spell]
	Weapons    *Table[*ir.Weapon]
	Merits     *Table[*ir.Merit]
}

// NewState returns an empty State at revision 0.
func NewState() *State {
	return &State{
		Characters: NewTable[*ir.Character](ir.KindCharacter),
		Charms:     NewTable[*ir.Charm](ir.KindCharm),
		Spells:     NewTable[*ir.Spell](ir.KindSpell),
		Weapons:    NewTable[*ir.Weapon](ir.KindWeapon),
		Merits:     NewTable[*ir.Merit](ir.KindMerit),
	}
}

// Seed builds a State at the given revision from entities. Entities are
// detached copies of the inputs and character relation lists are
// normalized to empty slices.
func Seed(revision int64, entities ...ir.Entity) (*State, error) {
	var (
		characters []*ir.Character
		charms     []*ir.Charm
		spells     []*ir.Spell
		weapons    []*ir.Weapon
		merits     []*ir.Merit
	)
	for _, e := range entities {
		switch v := e.(type) {
		case *ir.Character:
			characters = append(characters, v.Clone())
		case *ir.Charm:
			charms = append(charms, v.Clone())
		case *ir.Spell:
			spells = append(spells, v.Clone())
		case *ir.Weapon:
			weapons = append(weapons, v.Clone())
		case *ir.Merit:
			merits = append(merits, v.Clone())
		default:
			return nil, fmt.Errorf("seed: %w: %T", ErrUnknownKind, e)
		}
	}
	return &State{
		Revision:   revision,
		Characters: NewTable(ir.KindCharacter, characters...),
		Charms:     NewTable(ir.KindCharm, charms...),
		Spells:     NewTable(ir.KindSpell, spells...),
		Weapons:    NewTable(ir.KindWeapon, weapons...),
		Merits:     NewTable(ir.KindMerit, merits...),
	}, nil
}

// Table returns the table for kind, or nil for an unknown kind.
func (s *State) Table(kind ir.Kind) AnyTable {
	switch kind {
	case ir.KindCharacter:
		return s.Characters
	case ir.KindCharm:
		return s.Charms
	case ir.KindSpell:
		return s.Spells
	case ir.KindWeapon:
		return s.Weapons
	case ir.KindMerit:
		return s.Merits
	}
	return nil
}

// Get returns the entity of kind stored under id.
func (s *State) Get(kind ir.Kind, id ir.ID) (ir.Entity, bool) {
	t := s.Table(kind)
	if t == nil {
		return nil, false
	}
	return t.Lookup(id)
}

// Character returns the character stored under id, or nil.
func (s *State) Character(id ir.ID) *ir.Character {
	c, _ := s.Characters.Get(id)
	return c
}

// Entities returns every entity, kinds in ir.Kinds order and ids ascending.
func (s *State) Entities() []ir.Entity {
	var out []ir.Entity
	for _, rows := range s.rows() {
		out = append(out, rows...)
	}
	return out
}

// rows lists each table's entities ordered by id, tables in ir.Kinds order.
func (s *State) rows() [][]ir.Entity {
	return [][]ir.Entity{
		entities(s.Characters.Rows()),
		entities(s.Charms.Rows()),
		entities(s.Spells.Rows()),
		entities(s.Weapons.Rows()),
		entities(s.Merits.Rows()),
	}
}

func entities[E ir.Entity](rows []E) []ir.Entity {
	out := make([]ir.Entity, len(rows))
	for i, e := range rows {
		out[i] = e
	}
	return out
}

// Snapshot returns a plain representation of s suitable for digests and
// golden files: kind → entities ordered by id.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(ir.Kinds))
	for i, rows := range s.rows() {
		list := make([]any, len(rows))
		for j, e := range rows {
			list[j] = e
		}
		out[string(ir.Kinds[i])] = list
	}
	return out
}

// Digest returns a content digest of every table in s. Revision is not
// part of the digest, so replaying the same mutations yields the same value.
func (s *State) Digest() (string, error) {
	return ir.Digest(ir.DomainState, s.Snapshot())
}

func (s *State) clone() *State {
	next := *s
	return &next
}

// ResolveIDs returns the ordered id list character holds for rel. A nil
// character, an unknown relation or an absent list all yield an empty slice.
func ResolveIDs(character *ir.Character, rel ir.Relation) []ir.ID {
	ids := character.List(rel)
	if ids == nil {
		return []ir.ID{}
	}
	return ids
}
