package ir

// ID identifies an entity within its Kind.
type ID = int64

// Entity is implemented by every record held in a store table.
type Entity interface {
	EntityID() ID
	EntityKind() Kind
}

// Sortable is implemented by entities that carry a display order.
// The bool result is false when the entity has no sorting value.
type Sortable interface {
	SortOrder() (int64, bool)
}

// Character is a player or NPC sheet. Each relation list holds the ids of the
// entities the character owns, in the character's own order.
type Character struct {
	ID                ID     `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Type              string `json:"type,omitempty" yaml:"type,omitempty"`
	Charms            []ID   `json:"charms" yaml:"charms"`
	MartialArtsCharms []ID   `json:"martial_arts_charms" yaml:"martial_arts_charms"`
	Evocations        []ID   `json:"evocations" yaml:"evocations"`
	SpiritCharms      []ID   `json:"spirit_charms" yaml:"spirit_charms"`
	Spells            []ID   `json:"spells" yaml:"spells"`
	Weapons           []ID   `json:"weapons" yaml:"weapons"`
	Merits            []ID   `json:"merits" yaml:"merits"`
}

func (c *Character) EntityID() ID     { return c.ID }
func (c *Character) EntityKind() Kind { return KindCharacter }

// Charm covers native, martial arts, evocation and spirit charms. Which list
// a charm belongs to is decided by the owning character, not by CharmType.
type Charm struct {
	ID           ID       `json:"id" yaml:"id"`
	CharacterID  ID       `json:"character_id" yaml:"character_id"`
	Name         string   `json:"name" yaml:"name"`
	CharmType    string   `json:"charm_type,omitempty" yaml:"charm_type,omitempty"`
	Ability      string   `json:"ability,omitempty" yaml:"ability,omitempty"`
	Style        string   `json:"style,omitempty" yaml:"style,omitempty"`
	ArtifactName string   `json:"artifact_name,omitempty" yaml:"artifact_name,omitempty"`
	Categories   []string `json:"categories" yaml:"categories"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	Sorting      *int64   `json:"sorting,omitempty" yaml:"sorting,omitempty"`
}

func (c *Charm) EntityID() ID     { return c.ID }
func (c *Charm) EntityKind() Kind { return KindCharm }
func (c *Charm) SortOrder() (int64, bool) {
	return sortOrder(c.Sorting)
}

// Spell is a sorcerous working known by a character.
type Spell struct {
	ID          ID       `json:"id" yaml:"id"`
	CharacterID ID       `json:"character_id" yaml:"character_id"`
	Name        string   `json:"name" yaml:"name"`
	Circle      string   `json:"circle,omitempty" yaml:"circle,omitempty"`
	Control     bool     `json:"control,omitempty" yaml:"control,omitempty"`
	Categories  []string `json:"categories" yaml:"categories"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Sorting     *int64   `json:"sorting,omitempty" yaml:"sorting,omitempty"`
}

func (s *Spell) EntityID() ID     { return s.ID }
func (s *Spell) EntityKind() Kind { return KindSpell }
func (s *Spell) SortOrder() (int64, bool) {
	return sortOrder(s.Sorting)
}

// Weapon is an attack profile carried by a character.
type Weapon struct {
	ID          ID       `json:"id" yaml:"id"`
	CharacterID ID       `json:"character_id" yaml:"character_id"`
	Name        string   `json:"name" yaml:"name"`
	Weight      string   `json:"weight,omitempty" yaml:"weight,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
	Sorting     *int64   `json:"sorting,omitempty" yaml:"sorting,omitempty"`
}

func (w *Weapon) EntityID() ID     { return w.ID }
func (w *Weapon) EntityKind() Kind { return KindWeapon }
func (w *Weapon) SortOrder() (int64, bool) {
	return sortOrder(w.Sorting)
}

// Merit is a rated advantage held by a character.
type Merit struct {
	ID          ID     `json:"id" yaml:"id"`
	CharacterID ID     `json:"character_id" yaml:"character_id"`
	Name        string `json:"name" yaml:"name"`
	MeritCat    string `json:"merit_cat,omitempty" yaml:"merit_cat,omitempty"`
	Rating      int64  `json:"rating" yaml:"rating"`
	Sorting     *int64 `json:"sorting,omitempty" yaml:"sorting,omitempty"`
}

func (m *Merit) EntityID() ID     { return m.ID }
func (m *Merit) EntityKind() Kind { return KindMerit }
func (m *Merit) SortOrder() (int64, bool) {
	return sortOrder(m.Sorting)
}

func sortOrder(v *int64) (int64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Sort returns a pointer to n for populating Sorting fields.
func Sort(n int64) *int64 {
	return &n
}
