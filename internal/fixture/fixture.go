// Package fixture loads character sheet documents written in CUE (or plain
// JSON, which CUE accepts) and turns them into a seeded store.State.
//
// Documents are unified with an embedded closed schema before decoding, so
// unknown fields and wrong types are rejected with a source position, and
// every omitted list defaults to empty.
package fixture

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

//go:embed schema.cue
var schemaCUE string

// Document is a decoded fixture.
type Document struct {
	Revision   int64           `json:"revision"`
	Characters []*ir.Character `json:"characters"`
	Charms     []*ir.Charm     `json:"charms"`
	Spells     []*ir.Spell     `json:"spells"`
	Weapons    []*ir.Weapon    `json:"weapons"`
	Merits     []*ir.Merit     `json:"merits"`
}

// Load reads and parses the fixture at path.
func Load(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	return Parse(path, src)
}

// Parse validates src against the fixture schema and decodes it. filename is
// used for error positions only.
func Parse(filename string, src []byte) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("fixture schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Document")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(err)
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return nil, fromCUE(err)
	}
	if err := doc.checkUnique(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Entities returns every entity in the document, kinds in ir.Kinds order and
// document order within a kind.
func (d *Document) Entities() []ir.Entity {
	out := make([]ir.Entity, 0, len(d.Characters)+len(d.Charms)+len(d.Spells)+len(d.Weapons)+len(d.Merits))
	for _, c := range d.Characters {
		out = append(out, c)
	}
	for _, c := range d.Charms {
		out = append(out, c)
	}
	for _, s := range d.Spells {
		out = append(out, s)
	}
	for _, w := range d.Weapons {
		out = append(out, w)
	}
	for _, m := range d.Merits {
		out = append(out, m)
	}
	return out
}

// State builds a store.State holding the document's entities at its revision.
func (d *Document) State() (*store.State, error) {
	return store.Seed(d.Revision, d.Entities()...)
}

func (d *Document) checkUnique() error {
	seen := make(map[ir.Kind]map[ir.ID]bool, len(ir.Kinds))
	for _, e := range d.Entities() {
		kind := e.EntityKind()
		if seen[kind] == nil {
			seen[kind] = make(map[ir.ID]bool)
		}
		if seen[kind][e.EntityID()] {
			return &Error{Field: string(kind), Message: fmt.Sprintf("duplicate id %d", e.EntityID())}
		}
		seen[kind][e.EntityID()] = true
	}
	return nil
}
