package component

import (
	"errors"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

type ComponentID uint32

var nextComponentID atomic.Uint32

// ComponentKind identifies the store of one component type. Kinds are
// compared by id, so two kinds of the same T are distinct stores.
type ComponentKind[T any] struct {
	id ComponentID
}

func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{id: ComponentID(nextComponentID.Add(1))}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// Kind lets a handle be passed where a kind is expected.
func (k ComponentKind[T]) Kind() ComponentKind[T] {
	return k
}

// ComponentHandle is the exported package-level name components are
// registered under.
type ComponentHandle[T any] = ComponentKind[T]

func NewComponent[T any]() ComponentHandle[T] {
	return NewComponentKind[T]()
}
