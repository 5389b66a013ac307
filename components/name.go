// Package components holds general purpose components shared across simulations.
package components

import (
	"golang.org/x/text/unicode/norm"

	"github.com/plus3/aco/ecs"
)

// Name labels an entity with a human readable name. Names are kept in Unicode
// NFC form so visually identical names compare equal.
type Name struct {
	Value string
}

// NewName returns a Name holding the NFC form of name.
func NewName(name string) *Name {
	return &Name{Value: norm.NFC.String(name)}
}

// NameOf returns the name of e, or "" when it has none.
func NameOf(e *ecs.Entity) string {
	if n := ecs.Get[Name](e); n != nil {
		return n.Value
	}
	return ""
}

// FindByName returns the first entity of entities named name.
func FindByName(entities *ecs.EntityList, name string) (*ecs.Entity, bool) {
	name = norm.NFC.String(name)
	for e := range entities.All() {
		if NameOf(e) == name {
			return e, true
		}
	}
	return nil, false
}
