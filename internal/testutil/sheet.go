// Package testutil holds deterministic helpers shared by tests across
// sheetview packages.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SheetEntities returns the reference character sheet: Harmonious Jade (1)
// with every relation populated and Swan (2) holding one dangling charm id.
func SheetEntities() []ir.Entity {
	return []ir.Entity{
		&ir.Character{
			ID:                1,
			Name:              "Harmonious Jade",
			Charms:            []ir.ID{5, 6},
			MartialArtsCharms: []ir.ID{10, 11},
			Evocations:        []ir.ID{12},
			Spells:            []ir.ID{20, 21},
			Weapons:           []ir.ID{30},
			Merits:            []ir.ID{40, 41},
		},
		&ir.Character{ID: 2, Name: "Swan", Charms: []ir.ID{7, 99}},
		&ir.Charm{ID: 5, CharacterID: 1, Name: "Excellent Strike", Ability: "melee", Categories: []string{"Attack"}, Keywords: []string{"Uniform"}, Sorting: ir.Sort(2)},
		&ir.Charm{ID: 6, CharacterID: 1, Name: "Dipping Swallow Defense", Ability: "melee", Categories: []string{"Defense"}, Sorting: ir.Sort(1)},
		&ir.Charm{ID: 7, CharacterID: 2, Name: "Bulwark Stance", Ability: "resistance", Categories: []string{"Defense"}, Sorting: ir.Sort(1)},
		&ir.Charm{ID: 10, CharacterID: 1, Name: "Crane Form", Style: "Crane", Categories: []string{"Defense", "Form"}, Keywords: []string{"Form"}},
		&ir.Charm{ID: 11, CharacterID: 1, Name: "Wings of Separation", Style: "Crane"},
		&ir.Charm{ID: 12, CharacterID: 1, Name: "Flight of the Falcon", ArtifactName: "Volfer", Categories: []string{"Attack"}, Keywords: []string{"Decisive-only"}, Sorting: ir.Sort(1)},
		&ir.Spell{ID: 20, CharacterID: 1, Name: "Death of Obsidian Butterflies", Circle: "terrestrial", Sorting: ir.Sort(2)},
		&ir.Spell{ID: 21, CharacterID: 1, Name: "Cirrus Skiff", Circle: "terrestrial", Sorting: ir.Sort(1)},
		&ir.Weapon{ID: 30, CharacterID: 1, Name: "Daiklave", Weight: "medium", Tags: []string{"lethal", "melee"}},
		&ir.Merit{ID: 40, CharacterID: 1, Name: "Resources", Rating: 3, Sorting: ir.Sort(2)},
		&ir.Merit{ID: 41, CharacterID: 1, Name: "Artifact", MeritCat: "story", Rating: 3, Sorting: ir.Sort(1)},
	}
}

// SheetState seeds SheetEntities at revision 1.
func SheetState(t testing.TB) *store.State {
	t.Helper()
	s, err := store.Seed(1, SheetEntities()...)
	require.NoError(t, err)
	return s
}
