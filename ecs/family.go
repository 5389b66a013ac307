package ecs

import (
	"fmt"
	"strings"
	"sync"
)

// Family is a predicate over component composition. An entity matches when it
// carries every type of the all set, at least one type of the one set (if the
// set is non-empty) and no type of the exclude set.
//
// Families are interned: building the same three sets twice yields the same
// *Family, so pointer comparison is family equality.
type Family struct {
	index   int
	all     Mask
	one     Mask
	exclude Mask
}

type familyKey struct {
	all, one, exclude Mask
}

var families = struct {
	sync.Mutex
	byKey map[familyKey]*Family
}{
	byKey: make(map[familyKey]*Family),
}

// Index returns the process-wide index of the family.
func (f *Family) Index() int {
	return f.index
}

// Matches reports whether e satisfies the family.
func (f *Family) Matches(e *Entity) bool {
	return f.MatchesMask(e.mask)
}

// MatchesMask reports whether a composition of m satisfies the family.
func (f *Family) MatchesMask(m Mask) bool {
	if !m.ContainsAll(f.all) {
		return false
	}
	if !f.one.IsEmpty() && !m.Intersects(f.one) {
		return false
	}
	return !m.Intersects(f.exclude)
}

func (f *Family) String() string {
	var b strings.Builder
	b.WriteString("Family{")
	writeTypes := func(label string, m Mask) {
		if m.IsEmpty() {
			return
		}
		if b.Len() > len("Family{") {
			b.WriteString(" ")
		}
		names := make([]string, 0, m.Count())
		for _, ct := range typesOf(m) {
			names = append(names, ct.String())
		}
		fmt.Fprintf(&b, "%s:[%s]", label, strings.Join(names, " "))
	}
	writeTypes("all", f.all)
	writeTypes("one", f.one)
	writeTypes("exclude", f.exclude)
	b.WriteString("}")
	return b.String()
}

// FamilyBuilder collects the component sets of a family.
type FamilyBuilder struct {
	key familyKey
}

// All starts a family requiring every one of types.
func All(types ...*ComponentType) *FamilyBuilder {
	return (&FamilyBuilder{}).All(types...)
}

// One starts a family requiring at least one of types.
func One(types ...*ComponentType) *FamilyBuilder {
	return (&FamilyBuilder{}).One(types...)
}

// Exclude starts a family rejecting every one of types.
func Exclude(types ...*ComponentType) *FamilyBuilder {
	return (&FamilyBuilder{}).Exclude(types...)
}

func (b *FamilyBuilder) All(types ...*ComponentType) *FamilyBuilder {
	b.key.all = MaskFor(types...)
	return b
}

func (b *FamilyBuilder) One(types ...*ComponentType) *FamilyBuilder {
	b.key.one = MaskFor(types...)
	return b
}

func (b *FamilyBuilder) Exclude(types ...*ComponentType) *FamilyBuilder {
	b.key.exclude = MaskFor(types...)
	return b
}

// Get returns the interned family for the collected sets.
func (b *FamilyBuilder) Get() *Family {
	families.Lock()
	defer families.Unlock()
	if f, ok := families.byKey[b.key]; ok {
		return f
	}
	f := &Family{
		index:   len(families.byKey),
		all:     b.key.all,
		one:     b.key.one,
		exclude: b.key.exclude,
	}
	families.byKey[b.key] = f
	return f
}
