package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plus3/aco/ecs"
)

func TestFamilyInterning(t *testing.T) {
	t.Run("same sets yield the same family", func(t *testing.T) {
		f1 := ecs.All(typeA, typeB).One(typeC).Exclude(typeD).Get()
		f2 := ecs.All(typeA, typeB).One(typeC).Exclude(typeD).Get()
		assert.Same(t, f1, f2)
		assert.Equal(t, f1.Index(), f2.Index())
	})

	t.Run("type order does not matter", func(t *testing.T) {
		assert.Same(t, ecs.All(typeA, typeB).Get(), ecs.All(typeB, typeA).Get())
	})

	t.Run("different sets yield different families", func(t *testing.T) {
		families := []*ecs.Family{
			ecs.All(typeA).Get(),
			ecs.All(typeB).Get(),
			ecs.All(typeA, typeB).Get(),
			ecs.One(typeA).Get(),
			ecs.Exclude(typeA).Get(),
			ecs.All(typeA).Exclude(typeB).Get(),
			ecs.All(typeA).One(typeB).Get(),
		}
		seen := map[int]bool{}
		for i, f := range families {
			for j, other := range families {
				if i != j {
					assert.NotSame(t, f, other)
				}
			}
			assert.False(t, seen[f.Index()], "index %d assigned twice", f.Index())
			seen[f.Index()] = true
		}
	})

	t.Run("empty family matches everything", func(t *testing.T) {
		empty := ecs.All().Get()
		assert.True(t, empty.Matches(ecs.NewEntity()))
		assert.True(t, empty.Matches(ecs.NewEntity(&ComponentA{}, &ComponentF{})))
	})
}

func TestFamilyMatches(t *testing.T) {
	tests := []struct {
		name       string
		family     *ecs.Family
		components []any
		want       bool
	}{
		{"all present", ecs.All(typeA, typeB).Get(), []any{&ComponentA{}, &ComponentB{}, &ComponentC{}}, true},
		{"all missing one", ecs.All(typeA, typeB).Get(), []any{&ComponentA{}, &ComponentC{}}, false},
		{"one satisfied", ecs.One(typeC, typeD).Get(), []any{&ComponentD{}}, true},
		{"one unsatisfied", ecs.One(typeC, typeD).Get(), []any{&ComponentA{}}, false},
		{"exclude hit", ecs.All(typeA).Exclude(typeE).Get(), []any{&ComponentA{}, &ComponentE{}}, false},
		{"exclude miss", ecs.All(typeA).Exclude(typeE).Get(), []any{&ComponentA{}}, true},
		{
			"complex match",
			ecs.All(typeA, typeB).One(typeC, typeD).Exclude(typeE, typeF).Get(),
			[]any{&ComponentA{}, &ComponentB{}, &ComponentD{}},
			true,
		},
		{
			"complex excluded",
			ecs.All(typeA, typeB).One(typeC, typeD).Exclude(typeE, typeF).Get(),
			[]any{&ComponentA{}, &ComponentB{}, &ComponentD{}, &ComponentF{}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ecs.NewEntity(tt.components...)
			assert.Equal(t, tt.want, tt.family.Matches(e))
		})
	}

	t.Run("match follows composition changes", func(t *testing.T) {
		family := ecs.All(typeA, typeB).Get()
		e := ecs.NewEntity(&ComponentA{})
		assert.False(t, family.Matches(e))

		e.Add(&ComponentB{})
		assert.True(t, family.Matches(e))

		e.Remove(typeA)
		assert.False(t, family.Matches(e))
	})
}

func TestFamilyString(t *testing.T) {
	f := ecs.All(typeA).Exclude(typeB).Get()
	assert.Equal(t, "Family{all:[ecs_test.ComponentA] exclude:[ecs_test.ComponentB]}", f.String())
}
