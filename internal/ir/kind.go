package ir

import "fmt"

// Kind names an entity table.
type Kind string

const (
	KindCharacter Kind = "character"
	KindCharm     Kind = "charm"
	KindSpell     Kind = "spell"
	KindWeapon    Kind = "weapon"
	KindMerit     Kind = "merit"
)

// Kinds lists every entity kind in table order.
var Kinds = []Kind{KindCharacter, KindCharm, KindSpell, KindWeapon, KindMerit}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Relation names one ordered id list on Character.
type Relation string

const (
	RelCharms            Relation = "charms"
	RelMartialArtsCharms Relation = "martial_arts_charms"
	RelEvocations        Relation = "evocations"
	RelSpiritCharms      Relation = "spirit_charms"
	RelSpells            Relation = "spells"
	RelWeapons           Relation = "weapons"
	RelMerits            Relation = "merits"
)

// Relations lists every relation in declaration order.
var Relations = []Relation{
	RelCharms,
	RelMartialArtsCharms,
	RelEvocations,
	RelSpiritCharms,
	RelSpells,
	RelWeapons,
	RelMerits,
}

// relationTargets maps each relation to the kind of table it points into.
var relationTargets = map[Relation]Kind{
	RelCharms:            KindCharm,
	RelMartialArtsCharms: KindCharm,
	RelEvocations:        KindCharm,
	RelSpiritCharms:      KindCharm,
	RelSpells:            KindSpell,
	RelWeapons:           KindWeapon,
	RelMerits:            KindMerit,
}

// Target returns the kind a relation's ids refer to.
func (r Relation) Target() (Kind, bool) {
	k, ok := relationTargets[r]
	return k, ok
}

// ParseRelation validates a relation name.
func ParseRelation(s string) (Relation, error) {
	r := Relation(s)
	if _, ok := relationTargets[r]; !ok {
		return "", fmt.Errorf("unknown relation %q", s)
	}
	return r, nil
}

// List returns the character's id list for r. Unknown relations yield nil.
func (c *Character) List(r Relation) []ID {
	if c == nil {
		return nil
	}
	switch r {
	case RelCharms:
		return c.Charms
	case RelMartialArtsCharms:
		return c.MartialArtsCharms
	case RelEvocations:
		return c.Evocations
	case RelSpiritCharms:
		return c.SpiritCharms
	case RelSpells:
		return c.Spells
	case RelWeapons:
		return c.Weapons
	case RelMerits:
		return c.Merits
	}
	return nil
}

// SetList replaces the id list for r on c. It reports false for an unknown
// relation. Callers must only use it on a copy they own.
func (c *Character) SetList(r Relation, ids []ID) bool {
	switch r {
	case RelCharms:
		c.Charms = ids
	case RelMartialArtsCharms:
		c.MartialArtsCharms = ids
	case RelEvocations:
		c.Evocations = ids
	case RelSpiritCharms:
		c.SpiritCharms = ids
	case RelSpells:
		c.Spells = ids
	case RelWeapons:
		c.Weapons = ids
	case RelMerits:
		c.Merits = ids
	default:
		return false
	}
	return true
}

// NewEntity returns a zero entity of kind k, ready to be decoded into.
func NewEntity(k Kind) (Entity, error) {
	switch k {
	case KindCharacter:
		return &Character{}, nil
	case KindCharm:
		return &Charm{}, nil
	case KindSpell:
		return &Spell{}, nil
	case KindWeapon:
		return &Weapon{}, nil
	case KindMerit:
		return &Merit{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", k)
}
