package ecs

import (
	"github.com/milk9111/carsim/ecs/component"
)

// Kind is satisfied by component.ComponentKind of any type.
type Kind interface {
	ID() component.ComponentID
}

// World owns entities and their component stores.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	events   EventQueue
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{stores: make(map[component.ComponentID]*SparseSet)}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity kills an entity and drops all of its components.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, store := range w.stores {
		store.Remove(int(e.id()))
	}
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	if w == nil {
		return false
	}
	return w.entities.isAlive(e)
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// AddComponent inserts or replaces the component stored under id.
func (w *World) AddComponent(e Entity, id component.ComponentID, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	store := w.stores[id]
	if store == nil {
		store = &SparseSet{}
		w.stores[id] = store
	}
	store.Set(int(e.id()), value)
	return nil
}

// GetComponent returns the raw component stored under id.
func (w *World) GetComponent(e Entity, id component.ComponentID) (any, bool) {
	if w == nil || !w.entities.isAlive(e) {
		return nil, false
	}
	store := w.stores[id]
	if !store.Has(int(e.id())) {
		return nil, false
	}
	return store.Get(int(e.id())), true
}

// HasComponent reports whether e carries a component under id.
func (w *World) HasComponent(e Entity, id component.ComponentID) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	return w.stores[id].Has(int(e.id()))
}

// RemoveComponent drops the component under id and reports whether one existed.
func (w *World) RemoveComponent(e Entity, id component.ComponentID) bool {
	if !w.HasComponent(e, id) {
		return false
	}
	w.stores[id].Remove(int(e.id()))
	return true
}

// Query returns live entities that carry every given kind, in the store order
// of the first kind.
func (w *World) Query(kinds ...Kind) []Entity {
	if w == nil || len(kinds) == 0 {
		return nil
	}
	sets := make([]*SparseSet, 0, len(kinds))
	for _, k := range kinds {
		store := w.stores[k.ID()]
		if store == nil {
			return nil
		}
		sets = append(sets, store)
	}
	ids := sets[0].Entities()
	for _, s := range sets[1:] {
		ids = IntersectEntities(s, ids)
	}
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := w.entities.resolve(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first live entity carrying kind.
func (w *World) First(kind Kind) (Entity, bool) {
	if w == nil {
		return 0, false
	}
	for _, id := range w.stores[kind.ID()].Entities() {
		if e, ok := w.entities.resolve(id); ok {
			return e, true
		}
	}
	return 0, false
}

func CreateEntity(w *World) Entity {
	return w.CreateEntity()
}

func DestroyEntity(w *World, e Entity) bool {
	return w.DestroyEntity(e)
}

func IsAlive(w *World, e Entity) bool {
	return w.IsAlive(e)
}

func Entities(w *World) []Entity {
	if w == nil {
		return nil
	}
	return w.entities.list()
}
