package ir

import "slices"

// Clone returns a detached copy of c. Relation lists are copied and nil
// lists become empty ones.
func (c *Character) Clone() *Character {
	out := *c
	out.Charms = cloneIDs(c.Charms)
	out.MartialArtsCharms = cloneIDs(c.MartialArtsCharms)
	out.Evocations = cloneIDs(c.Evocations)
	out.SpiritCharms = cloneIDs(c.SpiritCharms)
	out.Spells = cloneIDs(c.Spells)
	out.Weapons = cloneIDs(c.Weapons)
	out.Merits = cloneIDs(c.Merits)
	return &out
}

func (c *Charm) Clone() *Charm {
	out := *c
	out.Categories = cloneStrings(c.Categories)
	out.Keywords = cloneStrings(c.Keywords)
	out.Sorting = cloneSort(c.Sorting)
	return &out
}

func (s *Spell) Clone() *Spell {
	out := *s
	out.Categories = cloneStrings(s.Categories)
	out.Keywords = cloneStrings(s.Keywords)
	out.Sorting = cloneSort(s.Sorting)
	return &out
}

func (w *Weapon) Clone() *Weapon {
	out := *w
	out.Tags = cloneStrings(w.Tags)
	out.Sorting = cloneSort(w.Sorting)
	return &out
}

func (m *Merit) Clone() *Merit {
	out := *m
	out.Sorting = cloneSort(m.Sorting)
	return &out
}

func cloneIDs(ids []ID) []ID {
	if ids == nil {
		return []ID{}
	}
	return slices.Clone(ids)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func cloneSort(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
