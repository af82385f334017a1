package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/sheetview/internal/ir"
)

var (
	// ErrUnknownKind indicates a mutation or entity of an unrecognised kind.
	ErrUnknownKind = errors.New("store: unknown entity kind")

	// ErrNotFound indicates an update, sort or attach against an absent entity.
	ErrNotFound = errors.New("store: entity not found")

	// ErrInvalidMutation indicates a malformed mutation.
	ErrInvalidMutation = errors.New("store: invalid mutation")
)

// Op names a mutation operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpSort   Op = "sort"
)

// Mutation is one entity change delivered by the mutation feed.
type Mutation struct {
	// ID correlates the mutation across logs. Assigned by the engine.
	ID string

	// Seq is the logical clock value stamped on the mutation. When positive
	// it becomes the Revision of the resulting State.
	Seq int64

	Op   Op
	Kind ir.Kind

	// EntityID addresses the target of delete and sort. Create and update
	// take the id from Entity.
	EntityID ir.ID

	// Entity is the full new record for create and update.
	Entity ir.Entity

	// CharacterID and Relation name the owning character list that a
	// created entity is appended to, or a deleted entity is removed from.
	// Both are optional.
	CharacterID ir.ID
	Relation    ir.Relation

	// Sorting is the new display order for sort. Nil clears it.
	Sorting *int64
}

// TargetID returns the id the mutation addresses.
func (m Mutation) TargetID() ir.ID {
	if m.Entity != nil {
		return m.Entity.EntityID()
	}
	return m.EntityID
}

// Reduce applies m to prev and returns the resulting State. prev is never
// modified. When m changes nothing (such as deleting an absent id) prev
// itself is returned so no reference changes.
func Reduce(prev *State, m Mutation) (*State, error) {
	if err := validate(m); err != nil {
		return nil, err
	}

	var (
		next *State
		err  error
	)
	switch m.Op {
	case OpCreate:
		next, err = create(prev, m)
	case OpUpdate:
		next, err = update(prev, m)
	case OpDelete:
		next, err = remove(prev, m)
	case OpSort:
		next, err = resort(prev, m)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s %d: %w", m.Op, m.Kind, m.TargetID(), err)
	}
	if next != prev {
		next.Revision = nextRevision(prev, m)
	}
	return next, nil
}

func nextRevision(prev *State, m Mutation) int64 {
	if m.Seq > 0 {
		return m.Seq
	}
	return prev.Revision + 1
}

func validate(m Mutation) error {
	if _, err := ir.ParseKind(string(m.Kind)); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	switch m.Op {
	case OpCreate, OpUpdate:
		if m.Entity == nil {
			return fmt.Errorf("%w: %s requires an entity", ErrInvalidMutation, m.Op)
		}
		if m.Entity.EntityKind() != m.Kind {
			return fmt.Errorf("%w: entity kind %s does not match %s", ErrInvalidMutation, m.Entity.EntityKind(), m.Kind)
		}
	case OpDelete, OpSort:
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMutation, m.Op)
	}
	if m.Relation != "" {
		target, ok := m.Relation.Target()
		if !ok {
			return fmt.Errorf("%w: unknown relation %q", ErrInvalidMutation, m.Relation)
		}
		if target != m.Kind {
			return fmt.Errorf("%w: relation %s holds %s ids, not %s", ErrInvalidMutation, m.Relation, target, m.Kind)
		}
	}
	return nil
}

func create(prev *State, m Mutation) (*State, error) {
	id := m.Entity.EntityID()
	if _, exists := prev.Get(m.Kind, id); exists {
		return nil, fmt.Errorf("%w: id already exists", ErrInvalidMutation)
	}
	next, err := put(prev, m.Entity)
	if err != nil {
		return nil, err
	}
	if m.CharacterID == 0 || m.Relation == "" {
		return next, nil
	}
	return attach(next, m.CharacterID, m.Relation, id)
}

func update(prev *State, m Mutation) (*State, error) {
	if _, exists := prev.Get(m.Kind, m.Entity.EntityID()); !exists {
		return nil, ErrNotFound
	}
	return put(prev, m.Entity)
}

func remove(prev *State, m Mutation) (*State, error) {
	next := prev
	if _, exists := prev.Get(m.Kind, m.EntityID); exists {
		next = prev.clone()
		switch m.Kind {
		case ir.KindCharacter:
			next.Characters = next.Characters.without(m.EntityID)
		case ir.KindCharm:
			next.Charms = next.Charms.without(m.EntityID)
		case ir.KindSpell:
			next.Spells = next.Spells.without(m.EntityID)
		case ir.KindWeapon:
			next.Weapons = next.Weapons.without(m.EntityID)
		case ir.KindMerit:
			next.Merits = next.Merits.without(m.EntityID)
		}
	}
	if m.CharacterID == 0 || m.Relation == "" {
		return next, nil
	}
	return detach(next, m.CharacterID, m.Relation, m.EntityID)
}

func resort(prev *State, m Mutation) (*State, error) {
	current, ok := prev.Get(m.Kind, m.EntityID)
	if !ok {
		return nil, ErrNotFound
	}
	var e ir.Entity
	switch v := current.(type) {
	case *ir.Charm:
		c := v.Clone()
		c.Sorting = cloneSorting(m.Sorting)
		e = c
	case *ir.Spell:
		c := v.Clone()
		c.Sorting = cloneSorting(m.Sorting)
		e = c
	case *ir.Weapon:
		c := v.Clone()
		c.Sorting = cloneSorting(m.Sorting)
		e = c
	case *ir.Merit:
		c := v.Clone()
		c.Sorting = cloneSorting(m.Sorting)
		e = c
	default:
		return nil, fmt.Errorf("%w: %s is not sortable", ErrInvalidMutation, m.Kind)
	}
	return put(prev, e)
}

// put stores a detached copy of e in a new table of its kind.
func put(prev *State, e ir.Entity) (*State, error) {
	next := prev.clone()
	switch v := e.(type) {
	case *ir.Character:
		next.Characters = next.Characters.with(v.Clone())
	case *ir.Charm:
		next.Charms = next.Charms.with(v.Clone())
	case *ir.Spell:
		next.Spells = next.Spells.with(v.Clone())
	case *ir.Weapon:
		next.Weapons = next.Weapons.with(v.Clone())
	case *ir.Merit:
		next.Merits = next.Merits.with(v.Clone())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, e)
	}
	return next, nil
}

// attach appends id to the owner's relation list unless already present.
func attach(prev *State, owner ir.ID, rel ir.Relation, id ir.ID) (*State, error) {
	character, ok := prev.Characters.Get(owner)
	if !ok {
		return nil, fmt.Errorf("owner character %d: %w", owner, ErrNotFound)
	}
	ids := character.List(rel)
	if slices.Contains(ids, id) {
		return prev, nil
	}
	c := character.Clone()
	c.SetList(rel, append(c.List(rel), id))
	next := prev.clone()
	next.Characters = next.Characters.with(c)
	return next, nil
}

// detach removes id from the owner's relation list. A missing owner or id
// leaves the state untouched.
func detach(prev *State, owner ir.ID, rel ir.Relation, id ir.ID) (*State, error) {
	character, ok := prev.Characters.Get(owner)
	if !ok || !slices.Contains(character.List(rel), id) {
		return prev, nil
	}
	c := character.Clone()
	c.SetList(rel, slices.DeleteFunc(c.List(rel), func(v ir.ID) bool { return v == id }))
	next := prev.clone()
	next.Characters = next.Characters.with(c)
	return next, nil
}

func cloneSorting(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
