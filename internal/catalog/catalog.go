// Package catalog defines the character-sheet views.
//
// Base views resolve one relation of a character through its entity table,
// dropping dangling ids and ordering by sorting. Everything else is built
// from base view outputs, never from the raw tables, so it recomputes only
// when a base view produced a new value.
package catalog

import (
	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/order"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/view"
)

// View names, as accepted by engine.RequestView.
const (
	NameNativeCharms       = "charms.native"
	NameMartialArtsCharms  = "charms.martial_arts"
	NameEvocations         = "charms.evocation"
	NameSpiritCharms       = "charms.spirit"
	NameAllCharms          = "charms.all"
	NameCharmsByType       = "charms.by_type"
	NameAbilities          = "charms.abilities"
	NameCategories         = "charms.categories"
	NameKeywords           = "charms.keywords"
	NameMartialArtsStyles  = "charms.martial_arts_styles"
	NameEvocationArtifacts = "charms.evocation_artifacts"
	NameSpells             = "spells"
	NameWeapons            = "weapons"
	NameMerits             = "merits"
)

// MartialArtsAbility is added to the abilities view when a character knows
// any martial arts charm.
const MartialArtsAbility = "martial_arts"

// BaselineCategories are always present in the categories view.
var BaselineCategories = []string{"Attack", "Defense", "Social"}

// Base views.
var (
	NativeCharms      = charmList(NameNativeCharms, ir.RelCharms)
	MartialArtsCharms = charmList(NameMartialArtsCharms, ir.RelMartialArtsCharms)
	Evocations        = charmList(NameEvocations, ir.RelEvocations)
	SpiritCharms      = charmList(NameSpiritCharms, ir.RelSpiritCharms)

	Spells  = view.Select2(NameSpells, view.CharacterSource, view.SpellTable, resolve[*ir.Spell](ir.RelSpells))
	Weapons = view.Select2(NameWeapons, view.CharacterSource, view.WeaponTable, resolve[*ir.Weapon](ir.RelWeapons))
	Merits  = view.Select2(NameMerits, view.CharacterSource, view.MeritTable, resolve[*ir.Merit](ir.RelMerits))
)

// AllCharms is every charm a character holds: native, martial arts,
// evocations, then spirit charms, each in its own view's order.
var AllCharms = view.SelectAll(NameAllCharms,
	[]view.Source[[]*ir.Charm]{NativeCharms, MartialArtsCharms, Evocations, SpiritCharms},
	func(lists [][]*ir.Charm) []*ir.Charm {
		return order.Concat(lists...)
	})

// CharmsByType groups a character's charms by the relation holding them.
type CharmsByType struct {
	Native      []*ir.Charm `json:"native"`
	MartialArts []*ir.Charm `json:"martial_arts"`
	Evocation   []*ir.Charm `json:"evocation"`
	Spirit      []*ir.Charm `json:"spirit"`
}

var ByType = view.Select4(NameCharmsByType,
	view.Source[[]*ir.Charm](NativeCharms),
	view.Source[[]*ir.Charm](MartialArtsCharms),
	view.Source[[]*ir.Charm](Evocations),
	view.Source[[]*ir.Charm](SpiritCharms),
	func(native, martialArts, evocation, spirit []*ir.Charm) *CharmsByType {
		return &CharmsByType{Native: native, MartialArts: martialArts, Evocation: evocation, Spirit: spirit}
	})

// Abilities lists the distinct abilities of native charms, plus
// MartialArtsAbility when the martial arts view is non-empty.
var Abilities = view.Select2(NameAbilities,
	view.Source[[]*ir.Charm](NativeCharms),
	view.Source[[]*ir.Charm](MartialArtsCharms),
	func(native, martialArts []*ir.Charm) []string {
		abilities := order.Pluck(native, func(c *ir.Charm) string { return c.Ability })
		if len(martialArts) > 0 {
			abilities = append(abilities, MartialArtsAbility)
		}
		return order.DedupeSorted(abilities)
	})

// Categories lists the distinct categories over all charms together with
// BaselineCategories.
var Categories = view.Select1(NameCategories,
	view.Source[[]*ir.Charm](AllCharms),
	func(charms []*ir.Charm) []string {
		values := order.Flatten(charms, func(c *ir.Charm) []string { return c.Categories })
		return order.DedupeSorted(append(values, BaselineCategories...))
	})

// Keywords lists the distinct keywords over all charms.
var Keywords = view.Select1(NameKeywords,
	view.Source[[]*ir.Charm](AllCharms),
	func(charms []*ir.Charm) []string {
		return order.DedupeSorted(order.Flatten(charms, func(c *ir.Charm) []string { return c.Keywords }))
	})

var MartialArtsStyles = view.Select1(NameMartialArtsStyles,
	view.Source[[]*ir.Charm](MartialArtsCharms),
	func(charms []*ir.Charm) []string {
		return order.DedupeSorted(order.Pluck(charms, func(c *ir.Charm) string { return c.Style }))
	})

var EvocationArtifacts = view.Select1(NameEvocationArtifacts,
	view.Source[[]*ir.Charm](Evocations),
	func(charms []*ir.Charm) []string {
		return order.DedupeSorted(order.Pluck(charms, func(c *ir.Charm) string { return c.ArtifactName }))
	})

// All returns every view in the catalog.
func All() []view.Any {
	return []view.Any{
		NativeCharms,
		MartialArtsCharms,
		Evocations,
		SpiritCharms,
		Spells,
		Weapons,
		Merits,
		AllCharms,
		ByType,
		Abilities,
		Categories,
		Keywords,
		MartialArtsStyles,
		EvocationArtifacts,
	}
}

var registry = view.MustRegistry(All()...)

// Registry returns the validated registry of every catalog view.
func Registry() *view.Registry { return registry }

func charmList(name string, rel ir.Relation) *view.View[[]*ir.Charm] {
	return view.Select2(name, view.CharacterSource, view.CharmTable, resolve[*ir.Charm](rel))
}

type sortableEntity interface {
	ir.Entity
	ir.Sortable
}

// resolve returns a base view body for rel: the character's ids looked up in
// the table, dangling ids dropped, stable sorted by sorting.
func resolve[E sortableEntity](rel ir.Relation) func(*ir.Character, *store.Table[E]) []E {
	return func(character *ir.Character, table *store.Table[E]) []E {
		ids := store.ResolveIDs(character, rel)
		out := make([]E, 0, len(ids))
		for _, id := range ids {
			if e, ok := table.Get(id); ok {
				out = append(out, e)
			}
		}
		return order.SortStable(out)
	}
}

// Dump reads every catalog view for key, keyed by view name.
func Dump(r view.Reader, key ir.ID) map[string]any {
	out := make(map[string]any, len(registry.Names()))
	for _, name := range registry.Names() {
		v, _ := registry.Lookup(name)
		out[name] = v.ReadAny(r, key)
	}
	return out
}

// Compact reduces a view value to entity ids for display and golden traces:
// entity lists become id lists and CharmsByType becomes a map of id lists.
// Other values are returned unchanged.
func Compact(v any) any {
	switch val := v.(type) {
	case []*ir.Charm:
		return entityIDs(val)
	case []*ir.Spell:
		return entityIDs(val)
	case []*ir.Weapon:
		return entityIDs(val)
	case []*ir.Merit:
		return entityIDs(val)
	case *CharmsByType:
		return map[string]any{
			"native":       entityIDs(val.Native),
			"martial_arts": entityIDs(val.MartialArts),
			"evocation":    entityIDs(val.Evocation),
			"spirit":       entityIDs(val.Spirit),
		}
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	}
	return v
}

func entityIDs[E ir.Entity](rows []E) []any {
	out := make([]any, len(rows))
	for i, e := range rows {
		out[i] = e.EntityID()
	}
	return out
}
